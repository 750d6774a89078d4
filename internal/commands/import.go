package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/muzzy-dev/muzzy/internal/importer"
	"github.com/muzzy-dev/muzzy/internal/normalize"
	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/store"
)

func newImportCommand() *cobra.Command {
	var dateFormat string
	var amountFormat string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV file in one shot and print the batch summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], dateFormat, amountFormat)
		},
	}

	cmd.Flags().StringVar(&dateFormat, "date-format", "", "date layout (auto-detected when empty)")
	cmd.Flags().StringVar(&amountFormat, "amount-format", normalize.ModeNegativeExpense,
		"amount format: negative_expense or separate_columns")

	return cmd
}

// runImport drives the whole pipeline over a local file with the
// suggested mapping, printing issues and the committed summary.
func runImport(cmd *cobra.Command, path, dateFormat, amountFormat string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st := store.New()
	svc := importer.New(st, importer.Options{
		UploadDir: filepath.Join(os.TempDir(), "muzzy-import"),
		Logger:    zerolog.Nop(),
	})

	upload, err := svc.Upload(filepath.Base(path), f)
	if err != nil {
		return err
	}

	mapping := upload.SuggestedMapping
	if len(mapping) == 0 {
		return fmt.Errorf("no columns of %s could be mapped automatically", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mapped columns:\n")
	for _, field := range []string{schema.FieldDate, schema.FieldDescription, schema.FieldAmount, schema.FieldCategory, schema.FieldAccount} {
		if col, ok := mapping[field]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s <- %s\n", field, col)
		}
	}

	preview, err := svc.Map(upload.FileReference, mapping, dateFormat, amountFormat)
	if err != nil {
		return err
	}

	for _, issue := range preview.Issues {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", issue.Message)
	}

	summary, err := svc.Process(upload.FileReference)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported batch %s: %d transactions, income %s, expenses %s, net %s\n",
		summary.ID,
		summary.TotalTransactions,
		summary.TotalIncome.StringFixed(2),
		summary.TotalExpenses.StringFixed(2),
		summary.NetAmount.StringFixed(2),
	)
	return nil
}
