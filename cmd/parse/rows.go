package parse

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/aeb43parser"
	"mlindgren/bankfiles/internal/camtparser"
	"mlindgren/bankfiles/internal/models"
	"mlindgren/bankfiles/internal/svmparser"
	"mlindgren/bankfiles/internal/titoparser"
)

// titoRows flattens statement entries into CSV export rows. The account
// column prefers the IBAN over the legacy account number.
func titoRows(statements []*titoparser.Statement) []models.StatementEntryRow {
	var rows []models.StatementEntryRow
	for _, st := range statements {
		var account, currency string
		if st.Header != nil {
			account = st.Header.AccountNumber
			if st.Header.IBAN != "" {
				account = st.Header.IBAN
			}
			currency = st.Header.CurrencyCode
		}
		for _, e := range st.Records {
			recipient := e.RecipientAccountNumber
			if e.Sepa != nil && e.Sepa.IBAN != "" {
				recipient = e.Sepa.IBAN
			}
			rows = append(rows, models.StatementEntryRow{
				AccountNumber:    account,
				RecordDate:       dateStr(e.RecordDate),
				ValueDate:        dateStr(e.ValueDate),
				PaidDate:         dateStr(e.PaidDate),
				Amount:           e.Amount.StringFixed(2),
				Currency:         currency,
				Name:             e.Name,
				RecipientAccount: recipient,
				RemittanceInfo:   e.RemittanceInfo,
				ArchiveID:        e.ArchiveIdentifier,
				Description:      e.RecordDescription,
			})
		}
	}
	return rows
}

func svmRows(batches []*svmparser.Batch) []models.ReferencePaymentRow {
	var rows []models.ReferencePaymentRow
	for _, b := range batches {
		for _, r := range b.Records {
			rows = append(rows, models.ReferencePaymentRow{
				AccountNumber:  r.AccountNumber,
				RecordDate:     dateStr(r.RecordDate),
				PaidDate:       dateStr(r.PaidDate),
				ArchiveID:      r.ArchiveIdentifier,
				RemittanceInfo: r.RemittanceInfo,
				PayerName:      r.PayerName,
				Amount:         r.Amount.StringFixed(2),
				Currency:       r.CurrencyIdentifier,
			})
		}
	}
	return rows
}

// aeb43Rows flattens movement records. The concept column joins the attached
// free-text concept records.
func aeb43Rows(batches []*aeb43parser.Batch) []models.TransactionRow {
	var rows []models.TransactionRow
	for _, b := range batches {
		var account, currency string
		if b.Header != nil {
			account = b.Header.AccountNumber
			currency = b.Header.CurrencyKey
		}
		for _, t := range b.Records {
			var concepts []string
			for _, c := range t.ConceptRecords {
				if c.Concept != "" {
					concepts = append(concepts, c.Concept)
				}
			}
			rows = append(rows, models.TransactionRow{
				AccountNumber:   account,
				TransactionDate: dateStr(t.TransactionDate),
				ValueDate:       dateStr(t.ValueDate),
				Amount:          t.Amount.StringFixed(2),
				Currency:        currency,
				Concept:         strings.Join(concepts, "\n"),
				DocumentNumber:  t.DocumentNumber,
				Reference:       strings.TrimSpace(t.Reference2),
			})
		}
	}
	return rows
}

func camt053Rows(st *camtparser.Statement) []models.StatementEntryRow {
	var rows []models.StatementEntryRow
	for _, r := range st.Records {
		rows = append(rows, models.StatementEntryRow{
			AccountNumber:    st.IBAN,
			RecordDate:       dateStr(r.BookingDate),
			ValueDate:        dateStr(r.ValueDate),
			PaidDate:         dateStr(r.PaidDate),
			Amount:           signedAmount(r.Amount, r.Kind),
			Currency:         r.Currency,
			Name:             r.Name,
			RecipientAccount: r.RecipientAccountNumber,
			RemittanceInfo:   r.RemittanceInfo,
			ArchiveID:        r.ArchiveIdentifier,
			Description:      r.Description,
		})
	}
	return rows
}

func camt054Rows(notifications []*camtparser.Notification) []models.ReferencePaymentRow {
	var rows []models.ReferencePaymentRow
	for _, n := range notifications {
		for _, r := range n.Records {
			rows = append(rows, models.ReferencePaymentRow{
				AccountNumber:  n.IBAN,
				RecordDate:     dateStr(r.BookingDate),
				PaidDate:       dateStr(r.ValueDate),
				ArchiveID:      r.ArchiveIdentifier,
				RemittanceInfo: r.RemittanceInfo,
				PayerName:      r.PayerName,
				Amount:         signedAmount(r.Amount, r.Kind),
				Currency:       r.Currency,
			})
		}
	}
	return rows
}

func dateStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// signedAmount renders withdrawals as negative numbers so the export carries
// the money direction in a single column.
func signedAmount(amount decimal.Decimal, kind camtparser.EntryKind) string {
	if kind == camtparser.Withdrawal {
		return amount.Neg().StringFixed(2)
	}
	return amount.StringFixed(2)
}
