// Package aeb43parser parses Spanish AEB norm 43 bank statement files:
// fixed-width text with account header (11), transaction (22), concept (23)
// and amount equivalence (24) records, a per-account summary (33) and a file
// trailer (88) carrying the total record count.
package aeb43parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/fileutils"
	"mlindgren/bankfiles/internal/fixedparser"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/parsererror"
)

var log = logging.Default()

// SetLogger allows setting a custom logger.
func SetLogger(logger logging.Logger) {
	if logger != nil {
		log = logger
	}
}

// AcceptedSuffixes lists the case-insensitive file suffixes recognized as
// AEB43 statement files.
var AcceptedSuffixes = []string{"TXT", "AEB43"}

// debitCode marks debit movements; amounts with this code are negated.
const debitCode = "1"

const (
	tagAccountHeader     = "11"
	tagTransaction       = "22"
	tagConcept           = "23"
	tagAmountEquivalence = "24"
	tagAccountSummary    = "33"
	tagEndOfFile         = "88"
)

var bankTime = loadLocation("Europe/Madrid", 1*60*60)

func loadLocation(name string, offsetEast int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetEast)
	}
	return loc
}

var accountHeaderSchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("entity_key", "X(4)"),
	fixedparser.M("office_key", "X(4)"),
	fixedparser.M("account_number", "X(10)"),
	fixedparser.M("initial_date", "9(6)"),
	fixedparser.M("final_date", "9(6)"),
	fixedparser.M("debt_or_credit_code", "9(1)"),
	fixedparser.M("initial_balance_amount", "X(14)"),
	fixedparser.M("currency_key", "X(3)"),
	fixedparser.M("information_mode", "X(1)"),
	fixedparser.M("name", "X(26)"),
	fixedparser.M("free", "X(3)"),
)

var transactionSchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("free", "X(4)"),
	fixedparser.M("origin_office_code", "X(4)"),
	fixedparser.M("date_of_transaction", "X(6)"),
	fixedparser.M("value_date", "X(6)"),
	fixedparser.M("common_concept", "X(2)"),
	fixedparser.M("own_concept", "X(3)"),
	// 1 = debit, 2 = credit
	fixedparser.M("debt_or_credit_code", "X(1)"),
	// cents, left-padded with zeros
	fixedparser.M("amount", "X(14)"),
	fixedparser.M("document_number", "X(10)"),
	fixedparser.M("reference_1", "X(12)"),
	fixedparser.M("reference_2", "X(16)"),
)

var conceptSchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("data_code", "X(2)"),
	fixedparser.M("concept_1", "X(38)"),
	fixedparser.M("concept_2", "X(38)"),
)

var amountEquivalenceSchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("data_code", "X(2)"),
	fixedparser.M("currency_key_origin_of_the_movement", "X(3)"),
	fixedparser.M("amount", "X(14)"),
	fixedparser.M("free", "X(59)"),
)

var accountSummarySchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("entity_key", "X(4)"),
	fixedparser.M("office_key", "X(4)"),
	fixedparser.M("account_number", "X(10)"),
	fixedparser.M("no_of_notes_must", "X(5)"),
	fixedparser.M("total_amounts_debit", "X(14)"),
	fixedparser.M("no_of_notes_to_have", "X(5)"),
	fixedparser.M("total_amounts_credit", "X(14)"),
	fixedparser.M("ending_balance_code", "X(1)"),
	fixedparser.M("final_balance", "X(14)"),
	fixedparser.M("currency_code", "X(3)"),
	fixedparser.M("free", "X(4)"),
)

var endOfFileSchema = fixedparser.NewSchema(
	fixedparser.M("registration_code", "9(2)"),
	fixedparser.M("nine", "X(18)"),
	fixedparser.M("no_of_records", "X(6)"),
	fixedparser.M("free", "X(54)"),
)

// Batch is one account statement: header, transactions and summary. The
// summary record seals the batch.
type Batch struct {
	Header  *Header        `json:"header"`
	Records []*Transaction `json:"records"`
	Summary *Summary       `json:"summary"`
}

// Header is the type 11 account header record.
type Header struct {
	LineNumber     int             `json:"line_number"`
	EntityKey      string          `json:"entity_key"`
	OfficeKey      string          `json:"office_key"`
	AccountNumber  string          `json:"account_number"`
	InitialDate    time.Time       `json:"initial_date"`
	FinalDate      time.Time       `json:"final_date"`
	InitialBalance decimal.Decimal `json:"initial_balance_amount"`
	CurrencyKey    string          `json:"currency_key"`
	InformationMode string         `json:"information_mode"`
	Name           string          `json:"name"`
}

// Transaction is one type 22 movement record with its attached concept and
// amount equivalence sub-records.
type Transaction struct {
	LineNumber       int             `json:"line_number"`
	OriginOfficeCode string          `json:"origin_office_code"`
	TransactionDate  time.Time       `json:"date_of_transaction"`
	ValueDate        time.Time       `json:"value_date"`
	CommonConcept    string          `json:"common_concept"`
	OwnConcept       string          `json:"own_concept"`
	Amount           decimal.Decimal `json:"amount"`
	DocumentNumber   string          `json:"document_number"`
	Reference1       string          `json:"reference_1"`
	Reference2       string          `json:"reference_2"`

	ConceptRecords           []*Concept           `json:"concept_records,omitempty"`
	AmountEquivalenceRecords []*AmountEquivalence `json:"amount_equivalence_records,omitempty"`
}

// Concept is a type 23 free-text sub-record. Its two 38 character halves are
// one continued text.
type Concept struct {
	LineNumber int    `json:"line_number"`
	DataCode   string `json:"data_code"`
	Concept    string `json:"concept"`
}

// AmountEquivalence is a type 24 sub-record carrying the movement amount in
// its original currency. The amount is unsigned.
type AmountEquivalence struct {
	LineNumber     int             `json:"line_number"`
	DataCode       string          `json:"data_code"`
	OriginCurrency string          `json:"currency_key_origin_of_the_movement"`
	Amount         decimal.Decimal `json:"amount"`
}

// Summary is the type 33 account summary record. Its totals are unsigned.
type Summary struct {
	LineNumber        int             `json:"line_number"`
	EntityKey         string          `json:"entity_key"`
	OfficeKey         string          `json:"office_key"`
	AccountNumber     string          `json:"account_number"`
	DebitCount        string          `json:"no_of_notes_must"`
	TotalDebit        decimal.Decimal `json:"total_amounts_debit"`
	CreditCount       string          `json:"no_of_notes_to_have"`
	TotalCredit       decimal.Decimal `json:"total_amounts_credit"`
	EndingBalanceCode string          `json:"ending_balance_code"`
	FinalBalance      decimal.Decimal `json:"final_balance"`
	CurrencyCode      string          `json:"currency_code"`
}

// ParseFile checks the filename suffix, reads the file as UTF-8 text and
// parses the batches it contains.
func ParseFile(filename string) ([]*Batch, error) {
	if err := fileutils.CheckSuffix(filename, "AEB43", AcceptedSuffixes); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(string(data), filepath.Base(filename))
}

// ValidateFormat reports whether a file looks like an AEB43 statement:
// accepted suffix and a type 11 account header as the first non-blank line.
func ValidateFormat(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "AEB43", AcceptedSuffixes); err != nil {
		return false, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	for _, line := range fileutils.SplitLines(string(data)) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return lineTag(line) == tagAccountHeader, nil
	}
	return false, nil
}

// Parse walks the statement lines and assembles typed batches. A type 33
// summary seals the batch being accumulated; the file must end with an 88
// trailer whose record count matches the number of non-trailer records.
func Parse(content, filename string) ([]*Batch, error) {
	log.Info("parsing AEB43 statement file", logging.F("file", filename))
	lines := fileutils.SplitLines(content)

	var (
		batches []*Batch
		current Batch
		eof     *fixedparser.Record
	)
	recCount := 0

	for i, line := range lines {
		lineNumber := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch tag := lineTag(line); tag {
		case tagAccountHeader:
			header, err := parseHeader(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Header = header
			recCount++

		case tagTransaction:
			tx, err := parseTransaction(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Records = append(current.Records, tx)
			recCount++

		case tagConcept:
			concept, err := parseConcept(line, lineNumber)
			if err != nil {
				return nil, err
			}
			tx, err := lastTransaction(&current, filename, lineNumber, tag)
			if err != nil {
				return nil, err
			}
			tx.ConceptRecords = append(tx.ConceptRecords, concept)
			recCount++

		case tagAmountEquivalence:
			equivalence, err := parseAmountEquivalence(line, lineNumber)
			if err != nil {
				return nil, err
			}
			tx, err := lastTransaction(&current, filename, lineNumber, tag)
			if err != nil {
				return nil, err
			}
			tx.AmountEquivalenceRecords = append(tx.AmountEquivalenceRecords, equivalence)
			recCount++

		case tagAccountSummary:
			summary, err := parseSummary(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Summary = summary
			b := current
			batches = append(batches, &b)
			current = Batch{}
			recCount++

		case tagEndOfFile:
			rec, err := fixedparser.Parse(line, endOfFileSchema, lineNumber)
			if err != nil {
				return nil, err
			}
			eof = rec

		default:
			return nil, &parsererror.FormatError{
				FileName: filename, LineNumber: lineNumber, Tag: tag, Msg: "unknown record type",
			}
		}
	}

	if eof == nil {
		return nil, &parsererror.SemanticError{Path: filename, Msg: "EOF record missing"}
	}
	declared, err := eof.Int("no_of_records")
	if err != nil {
		return nil, err
	}
	if declared != recCount {
		return nil, &parsererror.SemanticError{
			Path: filename,
			Msg:  fmt.Sprintf("number of records (%d) does not match EOF record (%d)", recCount, declared),
		}
	}
	log.Info("parsed AEB43 statement file",
		logging.F("file", filename), logging.F("batches", len(batches)))
	return batches, nil
}

func parseHeader(line string, lineNumber int) (*Header, error) {
	rec, err := fixedparser.Parse(line, accountHeaderSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	h := &Header{
		LineNumber:      lineNumber,
		EntityKey:       rec.Str("entity_key"),
		OfficeKey:       rec.Str("office_key"),
		AccountNumber:   rec.Str("account_number"),
		CurrencyKey:     rec.Str("currency_key"),
		InformationMode: rec.Str("information_mode"),
		Name:            rec.Str("name"),
	}
	if h.InitialDate, err = rec.OptDate("initial_date", bankTime); err != nil {
		return nil, err
	}
	if h.FinalDate, err = rec.OptDate("final_date", bankTime); err != nil {
		return nil, err
	}
	if h.InitialBalance, err = rec.SignedDecimal("initial_balance_amount", "debt_or_credit_code", debitCode); err != nil {
		return nil, err
	}
	return h, nil
}

func parseTransaction(line string, lineNumber int) (*Transaction, error) {
	rec, err := fixedparser.Parse(line, transactionSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		LineNumber:       lineNumber,
		OriginOfficeCode: rec.Str("origin_office_code"),
		CommonConcept:    rec.Str("common_concept"),
		OwnConcept:       rec.Str("own_concept"),
		DocumentNumber:   rec.Str("document_number"),
		Reference1:       rec.Str("reference_1"),
		Reference2:       rec.Str("reference_2"),
	}
	if tx.TransactionDate, err = rec.OptDate("date_of_transaction", bankTime); err != nil {
		return nil, err
	}
	if tx.ValueDate, err = rec.OptDate("value_date", bankTime); err != nil {
		return nil, err
	}
	if tx.Amount, err = rec.SignedDecimal("amount", "debt_or_credit_code", debitCode); err != nil {
		return nil, err
	}
	return tx, nil
}

func parseConcept(line string, lineNumber int) (*Concept, error) {
	rec, err := fixedparser.Parse(line, conceptSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(rec.Str("concept_1") + " " + rec.Str("concept_2"))
	return &Concept{
		LineNumber: lineNumber,
		DataCode:   rec.Str("data_code"),
		Concept:    text,
	}, nil
}

func parseAmountEquivalence(line string, lineNumber int) (*AmountEquivalence, error) {
	rec, err := fixedparser.Parse(line, amountEquivalenceSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	amount, err := rec.Decimal("amount")
	if err != nil {
		return nil, err
	}
	return &AmountEquivalence{
		LineNumber:     lineNumber,
		DataCode:       rec.Str("data_code"),
		OriginCurrency: rec.Str("currency_key_origin_of_the_movement"),
		Amount:         amount,
	}, nil
}

func parseSummary(line string, lineNumber int) (*Summary, error) {
	rec, err := fixedparser.Parse(line, accountSummarySchema, lineNumber)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		LineNumber:        lineNumber,
		EntityKey:         rec.Str("entity_key"),
		OfficeKey:         rec.Str("office_key"),
		AccountNumber:     rec.Str("account_number"),
		DebitCount:        rec.Str("no_of_notes_must"),
		CreditCount:       rec.Str("no_of_notes_to_have"),
		EndingBalanceCode: rec.Str("ending_balance_code"),
		CurrencyCode:      rec.Str("currency_code"),
	}
	if s.TotalDebit, err = rec.Decimal("total_amounts_debit"); err != nil {
		return nil, err
	}
	if s.TotalCredit, err = rec.Decimal("total_amounts_credit"); err != nil {
		return nil, err
	}
	if s.FinalBalance, err = rec.Decimal("final_balance"); err != nil {
		return nil, err
	}
	return s, nil
}

func lastTransaction(b *Batch, filename string, lineNumber int, tag string) (*Transaction, error) {
	if len(b.Records) == 0 {
		return nil, &parsererror.FormatError{
			FileName: filename, LineNumber: lineNumber, Tag: tag,
			Msg: "sub-record without a preceding transaction",
		}
	}
	return b.Records[len(b.Records)-1], nil
}

func lineTag(line string) string {
	if len(line) < 2 {
		return line
	}
	return line[:2]
}
