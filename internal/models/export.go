package models

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// StatementEntryRow is the CSV export shape for account statement entries,
// shared by the legacy statement and camt.053 parsers.
type StatementEntryRow struct {
	AccountNumber    string `csv:"Account"`
	RecordDate       string `csv:"Date"`
	ValueDate        string `csv:"ValueDate"`
	PaidDate         string `csv:"PaidDate"`
	Amount           string `csv:"Amount"`
	Currency         string `csv:"Currency"`
	Name             string `csv:"Name"`
	RecipientAccount string `csv:"RecipientAccount"`
	RemittanceInfo   string `csv:"RemittanceInfo"`
	ArchiveID        string `csv:"ArchiveId"`
	Description      string `csv:"Description"`
}

// ReferencePaymentRow is the CSV export shape for incoming reference
// payments, shared by the reference payment and camt.054 parsers.
type ReferencePaymentRow struct {
	AccountNumber  string `csv:"Account"`
	RecordDate     string `csv:"Date"`
	PaidDate       string `csv:"PaidDate"`
	ArchiveID      string `csv:"ArchiveId"`
	RemittanceInfo string `csv:"RemittanceInfo"`
	PayerName      string `csv:"PayerName"`
	Amount         string `csv:"Amount"`
	Currency       string `csv:"Currency"`
}

// TransactionRow is the CSV export shape for AEB43 movements.
type TransactionRow struct {
	AccountNumber   string `csv:"Account"`
	TransactionDate string `csv:"Date"`
	ValueDate       string `csv:"ValueDate"`
	Amount          string `csv:"Amount"`
	Currency        string `csv:"Currency"`
	Concept         string `csv:"Concept"`
	DocumentNumber  string `csv:"DocumentNumber"`
	Reference       string `csv:"Reference"`
}

// WriteRowsToCSV writes export rows to a CSV file, creating the parent
// directory when needed.
func WriteRowsToCSV[T any](rows []T, csvFile string, delimiter rune) error {
	if dir := filepath.Dir(csvFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
