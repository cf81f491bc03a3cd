package titoparser

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlindgren/bankfiles/internal/fixedparser"
	"mlindgren/bankfiles/internal/parsererror"
)

// buildLine renders a fixture line from a schema and a value map, padding
// numeric fields with zeros and alphanumeric fields with spaces.
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

func headerLine(t *testing.T, overrides map[string]string) string {
	values := map[string]string{
		"statement_type":      "T",
		"record_type":         "00",
		"record_length":       "322",
		"version":             "100",
		"account_number":      "47304720017517",
		"statement_number":    "1",
		"begin_date":          "180201",
		"end_date":            "180203",
		"record_date":         "180203",
		"record_time":         "1359",
		"customer_identifier": "12345",
		"begin_balance_date":  "180201",
		"begin_balance_sign":  "+",
		"begin_balance":       "100000",
		"record_count":        "1",
		"currency_code":       "EUR",
		"account_limit":       "0",
		"owner_name":          "TESTIYRITYS OY",
		"contact_info_1":      "TESTIPANKKI",
		"iban_and_bic":        "FI8847304720017517 OKOYFIHH",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return buildLine(t, fileHeaderSchema, values)
}

func entryLine(t *testing.T, overrides map[string]string) string {
	values := map[string]string{
		"statement_type":     "T",
		"record_type":        "10",
		"record_length":      "188",
		"record_number":      "1",
		"archive_identifier": "180203473047IE5807",
		"record_date":        "180203",
		"value_date":         "180203",
		"paid_date":          "180203",
		"entry_type":         "2",
		"record_code":        "106",
		"record_description": "TILISIIRTO",
		"amount_sign":        "-",
		"amount":             "179900",
		"receipt_code":       "",
		"delivery_method":    "K",
		"name":               "SAAJA OY",
		"name_source":        "J",
		"remittance_info":    "13013",
		"level_identifier":   "",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return buildLine(t, entrySchema, values)
}

func sepaLine(t *testing.T) string {
	return "T11" + "323" + "11" + buildLine(t, extraInfoSepaSchema, map[string]string{
		"iban_account_number": "FI8847304720017517",
		"bic_code":            "OKOYFIHH",
		"payer_name_detail":   "MAKSAJA OY",
	})
}

func TestParse_Statement(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t, nil),
		entryLine(t, nil),
		sepaLine(t),
		buildLine(t, balanceSchema, map[string]string{
			"statement_type": "T", "record_type": "40", "record_length": "50",
			"record_date": "180203",
			"end_balance_sign": "-", "end_balance": "79900",
			"available_balance_sign": "+", "available_balance": "50000",
		}),
	}, "\n")

	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)
	require.Len(t, statements, 1)

	st := statements[0]
	require.NotNil(t, st.Header)
	assert.Equal(t, "47304720017517", st.Header.AccountNumber)
	assert.Equal(t, "FI8847304720017517", st.Header.IBAN)
	assert.Equal(t, "OKOYFIHH", st.Header.BIC)
	assert.Equal(t, "1000.00", st.Header.BeginBalance.StringFixed(2))
	assert.Equal(t, 1, st.Header.RecordCount)
	assert.Equal(t, 13, st.Header.RecordedAt.Hour())
	assert.Equal(t, 59, st.Header.RecordedAt.Minute())

	require.Len(t, st.Records, 1)
	e := st.Records[0]
	assert.Equal(t, "180203473047IE5807", e.ArchiveIdentifier)
	assert.Equal(t, "-1799.00", e.Amount.StringFixed(2))
	assert.Equal(t, time.Date(2018, 2, 3, 0, 0, 0, 0, bankTime), e.PaidDate)
	assert.Equal(t, "13013", e.RemittanceInfo)
	require.NotNil(t, e.Sepa)
	assert.Equal(t, "FI8847304720017517", e.Sepa.IBAN)
	assert.Equal(t, "MAKSAJA OY", e.Sepa.PayerNameDetail)

	require.NotNil(t, st.Balance)
	assert.Equal(t, "-799.00", st.Balance.EndBalance.StringFixed(2))
	assert.Equal(t, "500.00", st.Balance.AvailableBalance.StringFixed(2))
}

func TestParse_NewHeaderSealsPreviousStatement(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t, map[string]string{"statement_number": "1"}),
		entryLine(t, nil),
		"",
		headerLine(t, map[string]string{"statement_number": "2"}),
	}, "\n")

	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)
	require.Len(t, statements, 2)
	assert.Equal(t, "001", statements[0].Header.StatementNumber)
	assert.Len(t, statements[0].Records, 1)
	assert.Equal(t, "002", statements[1].Header.StatementNumber)
	assert.Empty(t, statements[1].Records)
}

func TestParse_EntryBeforeHeader(t *testing.T) {
	// Entries with no preceding header still seal into a statement at EOF.
	statements, err := Parse(entryLine(t, nil), "statement.TO")
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Nil(t, statements[0].Header)
	assert.Len(t, statements[0].Records, 1)
}

func TestParse_OptionalDatesAbsent(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t, nil),
		entryLine(t, map[string]string{"value_date": "000000", "paid_date": "000000"}),
	}, "\n")

	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)
	e := statements[0].Records[0]
	assert.True(t, e.ValueDate.IsZero())
	assert.True(t, e.PaidDate.IsZero())
	assert.False(t, e.RecordDate.IsZero())
}

func TestParse_MessageExtraInfo(t *testing.T) {
	payload := "FIRST MESSAGE LINE" + strings.Repeat(" ", 17) + "SECOND LINE"
	content := strings.Join([]string{
		headerLine(t, nil),
		entryLine(t, nil),
		"T11" + "054" + "00" + payload,
	}, "\n")

	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)
	e := statements[0].Records[0]
	assert.Equal(t, []string{"FIRST MESSAGE LINE", "SECOND LINE"}, e.Messages)
}

func TestParse_CountsExtraInfo(t *testing.T) {
	content := strings.Join([]string{
		headerLine(t, nil),
		entryLine(t, nil),
		"T11" + "016" + "01" + "00000042",
	}, "\n")

	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)
	e := statements[0].Records[0]
	require.NotNil(t, e.Counts)
	assert.Equal(t, 42, e.Counts.EntryCount)
}

func TestParse_CumulativeRecord(t *testing.T) {
	line := buildLine(t, cumulativeSchema, map[string]string{
		"statement_type": "T", "record_type": "50", "record_length": "67",
		"period_identifier": "1", "period_date": "180203",
		"deposits_count": "2", "deposits_sign": "+", "deposits_amount": "500000",
		"withdrawals_count": "3", "withdrawals_sign": "-", "withdrawals_amount": "250000",
	})
	statements, err := Parse(headerLine(t, nil)+"\n"+line, "statement.TO")
	require.NoError(t, err)

	c := statements[0].Cumulative
	require.NotNil(t, c)
	assert.Equal(t, 2, c.DepositsCount)
	assert.Equal(t, "5000.00", c.DepositsAmount.StringFixed(2))
	assert.Equal(t, 3, c.WithdrawalsCount)
	assert.Equal(t, "-2500.00", c.WithdrawalsAmount.StringFixed(2))
}

func TestParse_SpecialRecordKeepsPayload(t *testing.T) {
	content := headerLine(t, nil) + "\n" + "T60" + "000" + "OKO" + "bank group payload   "
	statements, err := Parse(content, "statement.TO")
	require.NoError(t, err)

	require.Len(t, statements[0].SpecialRecords, 1)
	sp := statements[0].SpecialRecords[0]
	assert.Equal(t, "60", sp.RecordType)
	assert.Equal(t, "OKO", sp.BankGroupIdentifier)
	assert.Equal(t, "bank group payload", sp.Payload)
}

func TestParse_UnknownRecordTypeFails(t *testing.T) {
	content := headerLine(t, nil) + "\nT99 something"
	_, err := Parse(content, "statement.TO")

	var formatErr *parsererror.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "T99", formatErr.Tag)
	assert.Equal(t, 2, formatErr.LineNumber)
}

func TestParse_LengthMismatch(t *testing.T) {
	// Declared record length disagrees with the consumed length and the tail
	// is not blank.
	line := headerLine(t, map[string]string{"record_length": "400"}) + "unexpected tail"
	_, err := Parse(line, "statement.TO")

	var lenErr *parsererror.LengthMismatchError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 400, lenErr.RecordLength)
	assert.Equal(t, "unexpected tail", lenErr.ExtraData)
}

func TestValidateFormat(t *testing.T) {
	dir := t.TempDir()

	good := dir + "/statement.TO"
	require.NoError(t, os.WriteFile(good, []byte(headerLine(t, nil)), 0o644))
	ok, err := ValidateFormat(good)
	require.NoError(t, err)
	assert.True(t, ok)

	bad := dir + "/other.TO"
	require.NoError(t, os.WriteFile(bad, []byte(entryLine(t, nil)), 0o644))
	ok, err = ValidateFormat(bad)
	require.NoError(t, err)
	assert.False(t, ok)

	// Wrong suffix is a negative validation result, not an error.
	ok, err = ValidateFormat(dir + "/statement.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}
