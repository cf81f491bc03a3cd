// Package svmparser parses Finnish incoming reference payment files (saapuvat
// viitemaksut): fixed-width ISO-8859-1 text with a type 0 batch header, type
// 3/5 payment records and a type 9 summary.
package svmparser

import (
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
// reference payment files.
var AcceptedSuffixes = []string{"SVM", "TXT", "KTL"}

const (
	tagHeader      = "0"
	tagPayment     = "3"
	tagDirectDebit = "5"
	tagSummary     = "9"
)

var bankTime = loadLocation("Europe/Helsinki", 2*60*60)

func loadLocation(name string, offsetEast int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetEast)
	}
	return loc
}

var headerSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "9(1)"),
	fixedparser.M("record_date", "9(6)"),
	fixedparser.M("record_time", "9(4)"),
	fixedparser.M("institution_identifier", "X(2)"),
	fixedparser.M("service_identifier", "X(9)"),
	fixedparser.M("currency_identifier", "X(1)"),
	fixedparser.M("pad01", "X(67)"),
)

var recordSchema = fixedparser.NewSchema(
	// 3 = reference payment, 5 = direct debit
	fixedparser.M("record_type", "9(1)"),
	fixedparser.M("account_number", "9(14)"),
	fixedparser.M("record_date", "9(6)"),
	fixedparser.M("paid_date", "9(6)"),
	fixedparser.M("archive_identifier", "X(16)"),
	fixedparser.M("remittance_info", "X(20)"),
	fixedparser.M("payer_name", "X(12)"),
	// 1 = EUR
	fixedparser.M("currency_identifier", "X(1)"),
	fixedparser.O("name_source", "X"),
	fixedparser.M("amount", "9(10)"),
	// 0 = normal, 1 = correction
	fixedparser.O("correction_identifier", "X"),
	fixedparser.M("delivery_method", "X"),
	fixedparser.M("receipt_code", "X"),
)

var summarySchema = fixedparser.NewSchema(
	fixedparser.M("record_type", "9(1)"),
	fixedparser.M("record_count", "9(6)"),
	fixedparser.M("record_amount", "9(11)"),
	fixedparser.M("correction_count", "9(6)"),
	fixedparser.M("correction_amount", "9(11)"),
	fixedparser.M("pad01", "X(5)"),
)

// Batch is one reference payment batch: a header, its payment records and the
// optional summary.
type Batch struct {
	Header  *Header   `json:"header"`
	Records []*Record `json:"records"`
	Summary *Summary  `json:"summary,omitempty"`
}

// Header is the type 0 batch header record.
type Header struct {
	LineNumber            int       `json:"line_number"`
	RecordedAt            time.Time `json:"record_date"`
	InstitutionIdentifier string    `json:"institution_identifier"`
	ServiceIdentifier     string    `json:"service_identifier"`
	CurrencyIdentifier    string    `json:"currency_identifier"`
}

// Record is one type 3/5 reference payment record.
type Record struct {
	LineNumber           int             `json:"line_number"`
	RecordType           string          `json:"record_type"`
	AccountNumber        string          `json:"account_number"`
	RecordDate           time.Time       `json:"record_date"`
	PaidDate             time.Time       `json:"paid_date,omitempty"`
	ArchiveIdentifier    string          `json:"archive_identifier"`
	RemittanceInfo       string          `json:"remittance_info"`
	PayerName            string          `json:"payer_name"`
	CurrencyIdentifier   string          `json:"currency_identifier"`
	NameSource           string          `json:"name_source,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	CorrectionIdentifier string          `json:"correction_identifier,omitempty"`
	DeliveryMethod       string          `json:"delivery_method"`
	ReceiptCode          string          `json:"receipt_code,omitempty"`
}

// Summary is the type 9 batch summary record.
type Summary struct {
	LineNumber       int             `json:"line_number"`
	RecordCount      int             `json:"record_count"`
	RecordAmount     decimal.Decimal `json:"record_amount"`
	CorrectionCount  int             `json:"correction_count"`
	CorrectionAmount decimal.Decimal `json:"correction_amount"`
}

// ParseFile checks the filename suffix, reads the file as ISO-8859-1 text and
// parses the batches it contains.
func ParseFile(filename string) ([]*Batch, error) {
	if err := fileutils.CheckSuffix(filename, "saapuvat viitemaksut", AcceptedSuffixes); err != nil {
		return nil, err
	}
	content, err := fileutils.ReadLatin1File(filename)
	if err != nil {
		return nil, err
	}
	return Parse(content, filepath.Base(filename))
}

// ValidateFormat reports whether a file looks like a reference payment file:
// accepted suffix and a type 0 header as the first non-blank line.
func ValidateFormat(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "saapuvat viitemaksut", AcceptedSuffixes); err != nil {
		return false, nil
	}
	content, err := fileutils.ReadLatin1File(filename)
	if err != nil {
		return false, err
	}
	for _, line := range fileutils.SplitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return lineTag(line) == tagHeader, nil
	}
	return false, nil
}

// Parse walks the batch lines and assembles typed batches. A new type 0
// header seals the batch being accumulated; end of input seals the last one.
func Parse(content, filename string) ([]*Batch, error) {
	log.Info("parsing reference payment file", logging.F("file", filename))
	lines := fileutils.SplitLines(content)
	nlines := len(lines)

	var (
		batches []*Batch
		current Batch
	)
	seal := func() {
		b := current
		batches = append(batches, &b)
		current = Batch{}
	}

	lineNumber := 1
	for lineNumber <= nlines {
		line := lines[lineNumber-1]
		if strings.TrimSpace(line) == "" {
			lineNumber++
			continue
		}

		switch tag := lineTag(line); tag {
		case tagHeader:
			if current.Header != nil {
				seal()
			}
			header, err := parseHeader(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Header = header
			lineNumber++

		case tagPayment, tagDirectDebit:
			record, err := parseRecord(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Records = append(current.Records, record)
			lineNumber++

		case tagSummary:
			summary, err := parseSummary(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Summary = summary
			lineNumber++

		default:
			return nil, &parsererror.FormatError{
				FileName: filename, LineNumber: lineNumber, Tag: tag, Msg: "unknown record type",
			}
		}
	}

	seal()
	log.Info("parsed reference payment file",
		logging.F("file", filename), logging.F("batches", len(batches)))
	return batches, nil
}

func parseHeader(line string, lineNumber int) (*Header, error) {
	rec, err := fixedparser.Parse(line, headerSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	h := &Header{
		LineNumber:            lineNumber,
		InstitutionIdentifier: rec.Str("institution_identifier"),
		ServiceIdentifier:     rec.Str("service_identifier"),
		CurrencyIdentifier:    rec.Str("currency_identifier"),
	}
	if h.RecordedAt, err = rec.DateTime("record_date", "record_time", bankTime); err != nil {
		return nil, err
	}
	return h, nil
}

func parseRecord(line string, lineNumber int) (*Record, error) {
	rec, err := fixedparser.Parse(line, recordSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	r := &Record{
		LineNumber:           lineNumber,
		RecordType:           rec.Str("record_type"),
		AccountNumber:        rec.Str("account_number"),
		ArchiveIdentifier:    rec.Str("archive_identifier"),
		RemittanceInfo:       rec.Str("remittance_info"),
		PayerName:            rec.Str("payer_name"),
		CurrencyIdentifier:   rec.Str("currency_identifier"),
		NameSource:           rec.Str("name_source"),
		CorrectionIdentifier: rec.Str("correction_identifier"),
		DeliveryMethod:       rec.Str("delivery_method"),
		ReceiptCode:          rec.Str("receipt_code"),
	}
	if r.RecordDate, err = rec.OptDate("record_date", bankTime); err != nil {
		return nil, err
	}
	if r.PaidDate, err = rec.OptDate("paid_date", bankTime); err != nil {
		return nil, err
	}
	if r.Amount, err = rec.Decimal("amount"); err != nil {
		return nil, err
	}
	return r, nil
}

func parseSummary(line string, lineNumber int) (*Summary, error) {
	rec, err := fixedparser.Parse(line, summarySchema, lineNumber)
	if err != nil {
		return nil, err
	}
	s := &Summary{LineNumber: lineNumber}
	if s.RecordCount, err = rec.Int("record_count"); err != nil {
		return nil, err
	}
	if s.RecordAmount, err = rec.Decimal("record_amount"); err != nil {
		return nil, err
	}
	if s.CorrectionCount, err = rec.Int("correction_count"); err != nil {
		return nil, err
	}
	if s.CorrectionAmount, err = rec.Decimal("correction_amount"); err != nil {
		return nil, err
	}
	return s, nil
}

func lineTag(line string) string {
	if len(line) < 1 {
		return line
	}
	return line[:1]
}
