package sepa

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPain001(t *testing.T) *Pain001 {
	t.Helper()
	doc, err := NewPain001("MSG-1", "Firma Oy", "FI2112345600000785", "NDEAFIHH",
		"1234567-8", []string{"Testikatu 1", "00100 Helsinki"}, "FI")
	require.NoError(t, err)
	doc.Clock = func() time.Time {
		return time.Date(2018, 2, 7, 12, 11, 0, 0, paymentTime)
	}
	return doc
}

func addPayment(t *testing.T, doc *Pain001, paymentID, amount, info, infoType, endToEndID string) {
	t.Helper()
	err := doc.AddPayment(paymentID, "Saaja Oy", "FI2112345600000785", "",
		decimal.RequireFromString(amount), info, infoType, time.Time{}, endToEndID)
	require.NoError(t, err)
}

func TestNewPain001_ValidatesDebtor(t *testing.T) {
	addr := []string{"Testikatu 1"}

	_, err := NewPain001("M", "Firma Oy", "FI2112345600000785", "NDEAFIHH", "1234", addr, "FI")
	assert.Error(t, err, "short org id")

	_, err = NewPain001("M", "F", "FI2112345600000785", "NDEAFIHH", "1234567-8", addr, "FI")
	assert.Error(t, err, "short name")

	_, err = NewPain001("M", "Firma Oy", "FI2112345600000785", "NDEAFIHH", "1234567-8", nil, "FI")
	assert.Error(t, err, "missing address")

	_, err = NewPain001("M", "Firma Oy", "FI2112345600000785", "BADBIC", "1234567-8", addr, "FI")
	assert.Error(t, err, "invalid BIC")

	_, err = NewPain001("M", "Firma Oy", "FI2112345600000786", "NDEAFIHH", "1234567-8", addr, "FI")
	assert.Error(t, err, "invalid IBAN checksum")
}

func TestAddPayment_Validation(t *testing.T) {
	doc := newTestPain001(t)

	err := doc.AddPayment("P1", "Saaja", "FI2112345600000785", "", decimal.NewFromInt(10),
		"", RemittanceTypeMessage, time.Time{}, "")
	assert.Error(t, err, "empty remittance info")

	err = doc.AddPayment("P1", "Saaja", "FI2112345600000785", "", decimal.NewFromInt(10),
		"13014", RemittanceTypeOCR, time.Time{}, "")
	assert.Error(t, err, "bad national reference checksum")

	err = doc.AddPayment("P1", "Saaja", "FI2112345600000785", "", decimal.NewFromInt(10),
		"RF19539007547034", RemittanceTypeISO, time.Time{}, "")
	assert.Error(t, err, "bad RF reference checksum")

	err = doc.AddPayment("P1", "Saaja", "FI2112345600000785", "", decimal.NewFromInt(10),
		"hello", "X", time.Time{}, "")
	assert.Error(t, err, "unknown remittance info type")

	err = doc.AddPayment("P1", "Saaja", "FI21", "", decimal.NewFromInt(10),
		"hello", RemittanceTypeMessage, time.Time{}, "")
	assert.Error(t, err, "invalid creditor account")

	assert.Equal(t, 0, doc.PaymentCount())
}

func TestAddPayment_MultiplePaymentsRequireEndToEndIDs(t *testing.T) {
	doc := newTestPain001(t)
	addPayment(t, doc, "P1", "10.00", "first", RemittanceTypeMessage, "")

	err := doc.AddPayment("P2", "Saaja Oy", "FI2112345600000785", "",
		decimal.NewFromInt(20), "second", RemittanceTypeMessage, time.Time{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end-to-end identifiers")
}

func TestControlSum(t *testing.T) {
	doc := newTestPain001(t)
	assert.Equal(t, "0.00", doc.ControlSum().StringFixed(2))

	addPayment(t, doc, "P1", "10.004", "first", RemittanceTypeMessage, "E1")
	addPayment(t, doc, "P2", "20.00", "second", RemittanceTypeMessage, "E2")

	// Amounts are rounded to cents when added.
	assert.Equal(t, "30.00", doc.ControlSum().StringFixed(2))
	assert.Equal(t, 2, doc.PaymentCount())
}

func TestRender_FailsWithoutPayments(t *testing.T) {
	doc := newTestPain001(t)
	_, err := doc.Render()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payments in pain.001.001.03")
}

func TestRender_Document(t *testing.T) {
	doc := newTestPain001(t)
	addPayment(t, doc, "P1", "49.00", "13013", RemittanceTypeOCR, "")

	out, err := doc.Render()
	require.NoError(t, err)
	body := string(out)

	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.001.03">`)
	assert.Contains(t, body, "<MsgId>MSG-1</MsgId>")
	assert.Contains(t, body, "<NbOfTxs>1</NbOfTxs>")
	assert.Contains(t, body, "<CtrlSum>49.00</CtrlSum>")
	assert.Contains(t, body, "<PmtMtd>TRF</PmtMtd>")
	assert.Contains(t, body, "<ChrgBr>SLEV</ChrgBr>")
	assert.Contains(t, body, "<Cd>BANK</Cd>")
	assert.Contains(t, body, `<InstdAmt Ccy="EUR">49.00</InstdAmt>`)
	// Due date defaults to the pinned clock.
	assert.Contains(t, body, "<ReqdExctnDt>2018-02-07</ReqdExctnDt>")
	// End-to-end id falls back to the payment id.
	assert.Contains(t, body, "<EndToEndId>P1</EndToEndId>")
	// OCR remittance renders as a structured SCOR reference.
	assert.Contains(t, body, "<Cd>SCOR</Cd>")
	assert.Contains(t, body, "<Ref>13013</Ref>")
	assert.NotContains(t, body, "<Ustrd>")
	// The debtor BIC was given explicitly.
	assert.Contains(t, body, "<BIC>NDEAFIHH</BIC>")
}

func TestRender_ISOReferenceCarriesIssuer(t *testing.T) {
	doc := newTestPain001(t)
	addPayment(t, doc, "P1", "10.00", "RF18539007547034", RemittanceTypeISO, "")

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<Issr>ISO</Issr>")
	assert.Contains(t, string(out), "<Ref>RF18539007547034</Ref>")
}

func TestRender_CreditorNameFoldedToASCII(t *testing.T) {
	doc := newTestPain001(t)
	err := doc.AddPayment("P1", "Ärräpää Öy", "FI2112345600000785", "",
		decimal.NewFromInt(10), "hello", RemittanceTypeMessage, time.Time{}, "")
	require.NoError(t, err)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<Nm>Arrapaa Oy</Nm>")
}

func TestRender_GroupsByPaymentID(t *testing.T) {
	doc := newTestPain001(t)
	addPayment(t, doc, "GROUP-A", "10.00", "first", RemittanceTypeMessage, "E1")
	addPayment(t, doc, "GROUP-B", "20.00", "second", RemittanceTypeMessage, "E2")
	addPayment(t, doc, "GROUP-A", "30.00", "third", RemittanceTypeMessage, "E3")

	out, err := doc.Render()
	require.NoError(t, err)
	body := string(out)

	assert.Equal(t, 2, strings.Count(body, "<PmtInf>"))
	assert.Equal(t, 3, strings.Count(body, "<CdtTrfTxInf>"))
	// Insertion order of the payment ids is preserved.
	assert.Less(t, strings.Index(body, "GROUP-A"), strings.Index(body, "GROUP-B"))
}

func TestResolveBIC_FromFinnishIBAN(t *testing.T) {
	p, err := NewParty("Saaja", "FI2112345600000785", "")
	require.NoError(t, err)

	bic, err := p.ResolveBIC()
	require.NoError(t, err)
	assert.Equal(t, "NDEAFIHH", bic)

	p, err = NewParty("Saaja", "SE3550000000054910000003", "")
	require.NoError(t, err)
	_, err = p.ResolveBIC()
	assert.Error(t, err, "no BIC and not resolvable from a foreign IBAN")
}
