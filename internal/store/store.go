// Package store holds committed transactions and import batches in
// memory. Both collections are append-only: commit is the only mutation
// and nothing is ever updated or deleted.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/muzzy-dev/muzzy/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateBatch is returned when a batch id was already committed.
	ErrDuplicateBatch = errors.New("duplicate batch id")
)

// Store is safe for concurrent use. Appends serialize on the write
// lock, so no partial batch is ever visible to readers.
type Store struct {
	mu           sync.RWMutex
	transactions []model.Transaction
	batches      []model.TransactionBatch
	txnIndex     map[string]int
	batchIndex   map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		txnIndex:   make(map[string]int),
		batchIndex: make(map[string]int),
	}
}

// AddBatch appends a batch and all of its transactions atomically.
// Every transaction must carry the batch's id; duplicate batch or
// transaction ids reject the whole batch.
func (s *Store) AddBatch(batch *model.TransactionBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == "" {
		return fmt.Errorf("batch id is required")
	}
	if _, ok := s.batchIndex[batch.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBatch, batch.ID)
	}
	for _, t := range batch.Transactions {
		if t.ImportBatchID != batch.ID {
			return fmt.Errorf("transaction %s does not belong to batch %s", t.ID, batch.ID)
		}
		if _, ok := s.txnIndex[t.ID]; ok {
			return fmt.Errorf("duplicate transaction id %s", t.ID)
		}
	}

	s.batchIndex[batch.ID] = len(s.batches)
	s.batches = append(s.batches, *batch)
	for _, t := range batch.Transactions {
		s.txnIndex[t.ID] = len(s.transactions)
		s.transactions = append(s.transactions, t)
	}
	return nil
}

// Transaction returns the transaction with the given id.
func (s *Store) Transaction(id string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.txnIndex[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	return s.transactions[i], nil
}

// Batch returns the batch with the given id.
func (s *Store) Batch(id string) (model.TransactionBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.batchIndex[id]
	if !ok {
		return model.TransactionBatch{}, fmt.Errorf("%w: batch %s", ErrNotFound, id)
	}
	return s.batches[i], nil
}

// TransactionsByBatch returns the transactions committed under one batch.
func (s *Store) TransactionsByBatch(batchID string) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Transaction
	for _, t := range s.transactions {
		if t.ImportBatchID == batchID {
			out = append(out, t)
		}
	}
	return out
}

// Transactions returns all committed transactions in commit order.
func (s *Store) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Transaction(nil), s.transactions...)
}

// Batches returns all committed batches in commit order.
func (s *Store) Batches() []model.TransactionBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TransactionBatch(nil), s.batches...)
}
