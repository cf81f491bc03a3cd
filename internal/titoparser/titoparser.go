// Package titoparser parses Finnish TITO account statement files: fixed-width
// ISO-8859-1 text with one T00 header per statement, T10/T80 entries with
// optional T11/T81 continuation lines, and trailing balance and cumulative
// records.
package titoparser

import (
	"path/filepath"
	"strings"
	"time"

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

// negSign marks negative amounts in sign fields.
const negSign = "-"

// bankTime is the statement timezone. Dates in the file carry no zone.
var bankTime = loadLocation("Europe/Helsinki", 2*60*60)

func loadLocation(name string, offsetEast int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetEast)
	}
	return loc
}

// ParseFile checks the filename suffix, reads the file as ISO-8859-1 text and
// parses the statements it contains.
func ParseFile(filename string) ([]*Statement, error) {
	if err := fileutils.CheckSuffix(filename, "tiliote", AcceptedSuffixes); err != nil {
		return nil, err
	}
	content, err := fileutils.ReadLatin1File(filename)
	if err != nil {
		return nil, err
	}
	return Parse(content, filepath.Base(filename))
}

// ValidateFormat reports whether a file looks like an account statement:
// accepted suffix and a T00 header as the first non-blank line.
func ValidateFormat(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "tiliote", AcceptedSuffixes); err != nil {
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
		return lineTag(line) == tagFileHeader, nil
	}
	return false, nil
}

// Parse walks the statement lines and assembles typed statements. A new T00
// header seals the statement being accumulated; end of input seals the last
// one.
func Parse(content, filename string) ([]*Statement, error) {
	log.Info("parsing account statement file", logging.F("file", filename))
	lines := fileutils.SplitLines(content)
	nlines := len(lines)

	var (
		statements []*Statement
		current    Statement
	)
	seal := func() {
		stm := current
		statements = append(statements, &stm)
		current = Statement{}
	}

	lineNumber := 1
	for lineNumber <= nlines {
		line := lines[lineNumber-1]
		if strings.TrimSpace(line) == "" {
			lineNumber++
			continue
		}

		switch tag := lineTag(line); tag {
		case tagFileHeader:
			if current.Header != nil {
				seal()
			}
			header, err := parseHeader(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Header = header
			lineNumber++

		case tagEntry, tagEntryAlt:
			entry, err := parseEntry(line, lineNumber)
			if err != nil {
				return nil, err
			}
			lineNumber++
			for lineNumber <= nlines {
				next := lines[lineNumber-1]
				t := lineTag(next)
				if t != tagExtraInfo && t != tagExtraInfoAlt {
					break
				}
				if err := parseExtraInfo(entry, next, lineNumber); err != nil {
					return nil, err
				}
				lineNumber++
			}
			current.Records = append(current.Records, entry)

		case tagBalance:
			balance, err := parseBalance(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.Balance = balance
			lineNumber++

		case tagCumulative, tagCumulativeCorr:
			cumulative, err := parseCumulative(line, lineNumber)
			if err != nil {
				return nil, err
			}
			if tag == tagCumulative {
				current.Cumulative = cumulative
			} else {
				current.CumulativeAdjustment = cumulative
			}
			lineNumber++

		case tagSpecial60, tagSpecial70:
			special, err := parseSpecial(line, lineNumber)
			if err != nil {
				return nil, err
			}
			current.SpecialRecords = append(current.SpecialRecords, special)
			lineNumber++

		default:
			return nil, &parsererror.FormatError{
				FileName: filename, LineNumber: lineNumber, Tag: tag, Msg: "unknown record type",
			}
		}
	}

	seal()
	log.Info("parsed account statement file",
		logging.F("file", filename), logging.F("statements", len(statements)))
	return statements, nil
}

func parseHeader(line string, lineNumber int) (*Header, error) {
	rec, err := fixedparser.Parse(line, fileHeaderSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	h := &Header{
		LineNumber:         lineNumber,
		Version:            rec.Str("version"),
		AccountNumber:      rec.Str("account_number"),
		StatementNumber:    rec.Str("statement_number"),
		CustomerIdentifier: rec.Str("customer_identifier"),
		CurrencyCode:       rec.Str("currency_code"),
		AccountName:        rec.Str("account_name"),
		OwnerName:          rec.Str("owner_name"),
		ContactInfo1:       rec.Str("contact_info_1"),
		ContactInfo2:       rec.Str("contact_info_2"),
		BankSpecificInfo1:  rec.Str("bank_specific_info_1"),
		IBANAndBIC:         rec.Str("iban_and_bic"),
	}
	if h.BeginDate, err = rec.OptDate("begin_date", bankTime); err != nil {
		return nil, err
	}
	if h.EndDate, err = rec.OptDate("end_date", bankTime); err != nil {
		return nil, err
	}
	if h.RecordedAt, err = rec.DateTime("record_date", "record_time", bankTime); err != nil {
		return nil, err
	}
	if h.BeginBalanceDate, err = rec.OptDate("begin_balance_date", bankTime); err != nil {
		return nil, err
	}
	if h.BeginBalance, err = rec.SignedDecimal("begin_balance", "begin_balance_sign", negSign); err != nil {
		return nil, err
	}
	if h.AccountLimit, err = rec.Decimal("account_limit"); err != nil {
		return nil, err
	}
	if h.RecordCount, err = rec.Int("record_count"); err != nil {
		return nil, err
	}
	if parts := strings.Split(h.IBANAndBIC, " "); len(parts) == 2 {
		h.IBAN, h.BIC = parts[0], parts[1]
	}
	return h, nil
}

func parseEntry(line string, lineNumber int) (*Entry, error) {
	rec, err := fixedparser.Parse(line, entrySchema, lineNumber)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		LineNumber:                    lineNumber,
		RecordType:                    rec.Str("record_type"),
		ArchiveIdentifier:             rec.Str("archive_identifier"),
		EntryType:                     rec.Str("entry_type"),
		RecordCode:                    rec.Str("record_code"),
		RecordDescription:             rec.Str("record_description"),
		ReceiptCode:                   rec.Str("receipt_code"),
		DeliveryMethod:                rec.Str("delivery_method"),
		Name:                          rec.Str("name"),
		NameSource:                    rec.Str("name_source"),
		RecipientAccountNumber:        rec.Str("recipient_account_number"),
		RecipientAccountNumberChanged: rec.Str("recipient_account_number_changed"),
		RemittanceInfo:                rec.Str("remittance_info"),
		FormNumber:                    rec.Str("form_number"),
		LevelIdentifier:               rec.Str("level_identifier"),
	}
	if e.RecordNumber, err = rec.Int("record_number"); err != nil {
		return nil, err
	}
	if e.RecordDate, err = rec.OptDate("record_date", bankTime); err != nil {
		return nil, err
	}
	if e.ValueDate, err = rec.OptDate("value_date", bankTime); err != nil {
		return nil, err
	}
	if e.PaidDate, err = rec.OptDate("paid_date", bankTime); err != nil {
		return nil, err
	}
	if e.Amount, err = rec.SignedDecimal("amount", "amount_sign", negSign); err != nil {
		return nil, err
	}
	return e, nil
}

// parseExtraInfo parses one T11/T81 continuation line and attaches its
// payload to the entry. The header is parsed without the record-length check:
// the declared length covers the full line while the header schema only
// consumes its fixed prefix.
func parseExtraInfo(entry *Entry, line string, lineNumber int) error {
	rec, err := fixedparser.ParseWithOptions(line, extraInfoHeaderSchema, lineNumber, fixedparser.Options{})
	if err != nil {
		return err
	}
	extraData := rec.ExtraData

	switch infoType := rec.Str("extra_info_type"); infoType {
	case extraInfoMessages:
		entry.Messages = splitMessages(extraData)
	case extraInfoCounts:
		sub, err := parseSub(extraData, extraInfoCountsSchema, lineNumber, 8)
		if err != nil {
			return err
		}
		count, err := sub.Int("entry_count")
		if err != nil {
			return err
		}
		entry.Counts = &Counts{EntryCount: count}
	case extraInfoInvoice:
		sub, err := parseSub(extraData, extraInfoInvoiceSchema, lineNumber, 33)
		if err != nil {
			return err
		}
		entry.Invoice = &Invoice{
			CustomerNumber: sub.Str("customer_number"),
			InvoiceNumber:  sub.Str("invoice_number"),
			InvoiceDate:    sub.Str("invoice_date"),
		}
	case extraInfoCard:
		sub, err := parseSub(extraData, extraInfoCardSchema, lineNumber, 34)
		if err != nil {
			return err
		}
		entry.Card = &Card{
			CardNumber:        sub.Str("card_number"),
			MerchantReference: sub.Str("merchant_reference"),
		}
	case extraInfoCorrection:
		sub, err := parseSub(extraData, extraInfoCorrectionSchema, lineNumber, 18)
		if err != nil {
			return err
		}
		entry.Correction = &Correction{OriginalArchiveIdentifier: sub.Str("original_archive_identifier")}
	case extraInfoCurrency:
		sub, err := parseSub(extraData, extraInfoCurrencySchema, lineNumber, 41)
		if err != nil {
			return err
		}
		amount, err := sub.SignedDecimal("amount", "amount_sign", negSign)
		if err != nil {
			return err
		}
		entry.Currency = &CurrencyInfo{
			Amount:        amount,
			CurrencyCode:  sub.Str("currency_code"),
			ExchangeRate:  sub.Str("exchange_rate"),
			RateReference: sub.Str("rate_reference"),
		}
	case extraInfoClientMessages:
		entry.ClientMessages = splitMessages(extraData)
	case extraInfoBankMessages:
		entry.BankMessages = splitMessages(extraData)
	case extraInfoReason:
		sub, err := parseSub(extraData, extraInfoReasonSchema, lineNumber, 35)
		if err != nil {
			return err
		}
		entry.Reason = &Reason{
			ReasonCode:        sub.Str("reason_code"),
			ReasonDescription: sub.Str("reason_description"),
		}
	case extraInfoNameDetail:
		sub, err := parseSub(extraData, extraInfoNameDetailSchema, lineNumber, 35)
		if err != nil {
			return err
		}
		entry.NameDetail = sub.Str("name_detail")
	case extraInfoSepa:
		sub, err := parseSub(extraData, extraInfoSepaSchema, lineNumber, 323)
		if err != nil {
			return err
		}
		entry.Sepa = &SepaInfo{
			Reference:           sub.Str("reference"),
			IBAN:                sub.Str("iban_account_number"),
			BIC:                 sub.Str("bic_code"),
			RecipientNameDetail: sub.Str("recipient_name_detail"),
			PayerNameDetail:     sub.Str("payer_name_detail"),
			Identifier:          sub.Str("identifier"),
			ArchiveIdentifier:   sub.Str("archive_identifier"),
		}
	default:
		return &parsererror.FieldValidationError{
			LineNumber: lineNumber, Field: "extra_info_type", Value: infoType, Msg: "invalid record extra info type",
		}
	}
	return nil
}

func parseSub(extraData string, schema *fixedparser.RecordSchema, lineNumber, recordLength int) (*fixedparser.Record, error) {
	return fixedparser.ParseWithOptions(extraData, schema, lineNumber, fixedparser.Options{
		CheckRecordLength: true,
		RecordLength:      recordLength,
	})
}

// splitMessages chunks a free-form message payload into its 35 character
// message lines.
func splitMessages(extraData string) []string {
	var msg []string
	runes := []rune(extraData)
	for len(runes) > 0 {
		n := len(runes)
		if n > 35 {
			n = 35
		}
		msg = append(msg, strings.TrimRight(string(runes[:n]), " "))
		runes = runes[n:]
	}
	return msg
}

func parseBalance(line string, lineNumber int) (*Balance, error) {
	rec, err := fixedparser.Parse(line, balanceSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	b := &Balance{LineNumber: lineNumber}
	if b.RecordDate, err = rec.OptDate("record_date", bankTime); err != nil {
		return nil, err
	}
	if b.EndBalance, err = rec.SignedDecimal("end_balance", "end_balance_sign", negSign); err != nil {
		return nil, err
	}
	if b.AvailableBalance, err = rec.SignedDecimal("available_balance", "available_balance_sign", negSign); err != nil {
		return nil, err
	}
	return b, nil
}

func parseCumulative(line string, lineNumber int) (*Cumulative, error) {
	rec, err := fixedparser.Parse(line, cumulativeSchema, lineNumber)
	if err != nil {
		return nil, err
	}
	c := &Cumulative{
		LineNumber:       lineNumber,
		PeriodIdentifier: rec.Str("period_identifier"),
	}
	if c.PeriodDate, err = rec.OptDate("period_date", bankTime); err != nil {
		return nil, err
	}
	if c.DepositsCount, err = rec.Int("deposits_count"); err != nil {
		return nil, err
	}
	if c.DepositsAmount, err = rec.SignedDecimal("deposits_amount", "deposits_sign", negSign); err != nil {
		return nil, err
	}
	if c.WithdrawalsCount, err = rec.Int("withdrawals_count"); err != nil {
		return nil, err
	}
	if c.WithdrawalsAmount, err = rec.SignedDecimal("withdrawals_amount", "withdrawals_sign", negSign); err != nil {
		return nil, err
	}
	return c, nil
}

// parseSpecial parses a T60/T70 bank-group record. The payload after the
// fixed prefix is bank specific, so the record-length check is off.
func parseSpecial(line string, lineNumber int) (*SpecialRecord, error) {
	rec, err := fixedparser.ParseWithOptions(line, specialSchema, lineNumber, fixedparser.Options{})
	if err != nil {
		return nil, err
	}
	return &SpecialRecord{
		LineNumber:          lineNumber,
		RecordType:          rec.Str("record_type"),
		BankGroupIdentifier: rec.Str("bank_group_identifier"),
		Payload:             strings.TrimRight(rec.ExtraData, " "),
	}, nil
}

func lineTag(line string) string {
	if len(line) < 3 {
		return line
	}
	return line[:3]
}
