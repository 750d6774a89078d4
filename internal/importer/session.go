package importer

import (
	"sync"

	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// session is the state of one import, keyed by file reference: the raw
// uploaded table plus the confirmed mapping and chosen formats. The
// table is read-only once stored.
type session struct {
	ref          string
	path         string
	filename     string
	table        *tabular.Table
	mapping      schema.Mapping
	dateFormat   string
	amountFormat string
}

// sessionRegistry holds active import sessions. Safe for concurrent use.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) put(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ref] = s
}

// get returns a snapshot of the session. The table pointer is shared
// but never mutated after upload.
func (r *sessionRegistry) get(ref string) (session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[ref]
	if !ok {
		return session{}, false
	}
	return *s, true
}

// setMapping records the confirmed mapping and formats for a session.
func (r *sessionRegistry) setMapping(ref string, m schema.Mapping, dateFormat, amountFormat string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ref]
	if !ok {
		return false
	}
	s.mapping = m
	s.dateFormat = dateFormat
	s.amountFormat = amountFormat
	return true
}

func (r *sessionRegistry) delete(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, ref)
}
