package aeb43parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlindgren/bankfiles/internal/fixedparser"
	"mlindgren/bankfiles/internal/parsererror"
)

func buildLine(t *testing.T, schema *fixedparser.RecordSchema, values map[string]string) string {
	t.Helper()
	var b strings.Builder
	for _, f := range schema.Fields {
		v := values[f.Name]
		require.LessOrEqual(t, len(v), f.Length, f.Name)
		if f.Kind == fixedparser.Numeric {
			b.WriteString(strings.Repeat("0", f.Length-len(v)) + v)
		} else {
			b.WriteString(v + strings.Repeat(" ", f.Length-len(v)))
		}
	}
	return b.String()
}

func headerLine(t *testing.T) string {
	return buildLine(t, accountHeaderSchema, map[string]string{
		"registration_code":      "11",
		"entity_key":             "0049",
		"office_key":             "0001",
		"account_number":         "0123456789",
		"initial_date":           "180201",
		"final_date":             "180228",
		"debt_or_credit_code":    "2",
		"initial_balance_amount": "00000000100000",
		"currency_key":           "978",
		"information_mode":       "3",
		"name":                   "EMPRESA DEMO SL",
	})
}

func transactionLine(t *testing.T, overrides map[string]string) string {
	values := map[string]string{
		"registration_code":   "22",
		"origin_office_code":  "0001",
		"date_of_transaction": "180205",
		"value_date":          "180206",
		"common_concept":      "04",
		"own_concept":         "018",
		"debt_or_credit_code": "1",
		"amount":              "00000000004950",
		"document_number":     "0000000001",
		"reference_1":         "000000000000",
		"reference_2":         "FACTURA 2018-17",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return buildLine(t, transactionSchema, values)
}

func summaryLine(t *testing.T) string {
	return buildLine(t, accountSummarySchema, map[string]string{
		"registration_code":    "33",
		"entity_key":           "0049",
		"office_key":           "0001",
		"account_number":       "0123456789",
		"no_of_notes_must":     "00001",
		"total_amounts_debit":  "00000000004950",
		"no_of_notes_to_have":  "00000",
		"total_amounts_credit": "00000000000000",
		"ending_balance_code":  "2",
		"final_balance":        "00000000095050",
		"currency_code":        "978",
	})
}

func eofLine(t *testing.T, count string) string {
	return buildLine(t, endOfFileSchema, map[string]string{
		"registration_code": "88",
		"nine":              "999999999999999999",
		"no_of_records":     count,
	})
}

func TestParse_Batch(t *testing.T) {
	concept := buildLine(t, conceptSchema, map[string]string{
		"registration_code": "23",
		"data_code":         "01",
		"concept_1":         "TRANSFERENCIA A FAVOR DE",
		"concept_2":         "PROVEEDOR SA",
	})
	content := strings.Join([]string{
		headerLine(t),
		transactionLine(t, nil),
		concept,
		summaryLine(t),
		eofLine(t, "000004"),
	}, "\n")

	batches, err := Parse(content, "extracto.txt")
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	require.NotNil(t, b.Header)
	assert.Equal(t, "0049", b.Header.EntityKey)
	assert.Equal(t, "0123456789", b.Header.AccountNumber)
	assert.Equal(t, "1000.00", b.Header.InitialBalance.StringFixed(2))
	assert.Equal(t, time.Date(2018, 2, 1, 0, 0, 0, 0, bankTime), b.Header.InitialDate)

	require.Len(t, b.Records, 1)
	tx := b.Records[0]
	assert.Equal(t, "-49.50", tx.Amount.StringFixed(2), "debit code negates the amount")
	assert.Equal(t, "FACTURA 2018-17", tx.Reference2)
	require.Len(t, tx.ConceptRecords, 1)
	assert.Equal(t, "TRANSFERENCIA A FAVOR DE PROVEEDOR SA", tx.ConceptRecords[0].Concept)

	require.NotNil(t, b.Summary)
	assert.Equal(t, "49.50", b.Summary.TotalDebit.StringFixed(2))
	assert.Equal(t, "950.50", b.Summary.FinalBalance.StringFixed(2))
}

func TestParse_CreditAmountStaysPositive(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t),
		transactionLine(t, map[string]string{"debt_or_credit_code": "2"}),
		summaryLine(t),
		eofLine(t, "000003"),
	}, "\n")

	batches, err := Parse(content, "extracto.txt")
	require.NoError(t, err)
	assert.Equal(t, "49.50", batches[0].Records[0].Amount.StringFixed(2))
}

func TestParse_AmountEquivalence(t *testing.T) {
	equivalence := buildLine(t, amountEquivalenceSchema, map[string]string{
		"registration_code":                   "24",
		"data_code":                           "01",
		"currency_key_origin_of_the_movement": "840",
		"amount":                              "00000000006000",
	})
	content := strings.Join([]string{
		headerLine(t),
		transactionLine(t, nil),
		equivalence,
		summaryLine(t),
		eofLine(t, "000004"),
	}, "\n")

	batches, err := Parse(content, "extracto.txt")
	require.NoError(t, err)

	recs := batches[0].Records[0].AmountEquivalenceRecords
	require.Len(t, recs, 1)
	assert.Equal(t, "840", recs[0].OriginCurrency)
	assert.Equal(t, "60.00", recs[0].Amount.StringFixed(2))
}

func TestParse_SummarySealsBatch(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t),
		transactionLine(t, nil),
		summaryLine(t),
		headerLine(t),
		summaryLine(t),
		eofLine(t, "000005"),
	}, "\n")

	batches, err := Parse(content, "extracto.txt")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Records, 1)
	assert.Empty(t, batches[1].Records)
}

func TestParse_RecordCountMismatch(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t),
		transactionLine(t, nil),
		summaryLine(t),
		eofLine(t, "000005"),
	}, "\n")

	_, err := Parse(content, "extracto.txt")
	var semErr *parsererror.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Contains(t, semErr.Msg, "number of records (3) does not match EOF record (5)")
}

func TestParse_MissingEOFRecord(t *testing.T) {
	content := headerLine(t) + "\n" + transactionLine(t, nil) + "\n" + summaryLine(t)

	_, err := Parse(content, "extracto.txt")
	var semErr *parsererror.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Equal(t, "EOF record missing", semErr.Msg)
}

func TestParse_SubRecordWithoutTransaction(t *testing.T) {
	concept := buildLine(t, conceptSchema, map[string]string{
		"registration_code": "23",
		"data_code":         "01",
		"concept_1":         "HUERFANO",
	})
	_, err := Parse(headerLine(t)+"\n"+concept, "extracto.txt")

	var formatErr *parsererror.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "23", formatErr.Tag)
}

func TestParse_UnknownRecordTypeFails(t *testing.T) {
	_, err := Parse(headerLine(t)+"\n99 bad", "extracto.txt")

	var formatErr *parsererror.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "99", formatErr.Tag)
}
