package camtparser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlindgren/bankfiles/internal/parsererror"
)

// statementDoc renders a one-entry camt.053 fixture. The entry element is
// injected so tests can vary the interesting part only.
func statementDoc(entry string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.053.001.02">
 <BkToCstmrStmt>
  <GrpHdr><MsgId>MSG-1</MsgId><CreDtTm>2018-03-01T23:02:56</CreDtTm></GrpHdr>
  <Stmt>
   <Id>STMT-001</Id>
   <LglSeqNb>33</LglSeqNb>
   <CreDtTm>2018-03-01T23:02:56</CreDtTm>
   <FrToDt><FrDtTm>2018-03-01T00:00:00</FrDtTm><ToDtTm>2018-03-01T23:59:59</ToDtTm></FrToDt>
   <Acct>
    <Id><IBAN>FI2112345600000785</IBAN></Id>
    <Ccy>EUR</Ccy>
    <Ownr><Nm>Firma Oy</Nm></Ownr>
    <Svcr><FinInstnId><BIC>OKOYFIHH</BIC></FinInstnId></Svcr>
   </Acct>
   <Bal>
    <Tp><CdOrPrtry><Cd>OPBD</Cd></CdOrPrtry></Tp>
    <Amt Ccy="EUR">1000.00</Amt>
    <Dt><Dt>2018-03-01</Dt></Dt>
   </Bal>
   <TxsSummry><TtlNtries><NbOfNtries>1</NbOfNtries></TtlNtries></TxsSummry>
   <AddtlStmtInf>bank specific</AddtlStmtInf>
   ` + entry + `
  </Stmt>
 </BkToCstmrStmt>
</Document>`)
}

const depositEntry = `<Ntry>
    <Amt Ccy="EUR">49.00</Amt>
    <CdtDbtInd>CRDT</CdtDbtInd>
    <Sts>BOOK</Sts>
    <BookgDt><Dt>2018-03-01</Dt></BookgDt>
    <ValDt><Dt>2018-03-01</Dt></ValDt>
    <AcctSvcrRef>20180301593457000</AcctSvcrRef>
    <BkTxCd>
     <Domn><Cd>PMNT</Cd><Fmly><Cd>RCDT</Cd><SubFmlyCd>ESCT</SubFmlyCd></Fmly></Domn>
     <Prtry><Cd>VIITESIIRTO</Cd></Prtry>
    </BkTxCd>
    <NtryDtls>
     <Btch><MsgId>BATCH-1</MsgId></Btch>
     <TxDtls>
      <Refs><AcctSvcrRef>DETAILREF</AcctSvcrRef><EndToEndId>E2E-1</EndToEndId></Refs>
      <AmtDtls><TxAmt><Amt Ccy="EUR">49.00</Amt></TxAmt></AmtDtls>
      <RltdPties><Dbtr><Nm>Maksaja Oy</Nm></Dbtr></RltdPties>
      <RmtInf><Strd><CdtrRefInf><Ref>13013</Ref></CdtrRefInf></Strd></RmtInf>
      <RltdDts><AccptncDtTm>2018-03-01T10:00:00</AccptncDtTm></RltdDts>
     </TxDtls>
    </NtryDtls>
   </Ntry>`

func TestParseStatement(t *testing.T) {
	stm, err := ParseStatement(statementDoc(depositEntry))
	require.NoError(t, err)

	assert.Equal(t, "FI2112345600000785", stm.IBAN)
	assert.Equal(t, "OKOYFIHH", stm.BIC)
	assert.Equal(t, "STMT-001", stm.StatementID)
	assert.Equal(t, "33", stm.StatementNumber)
	assert.Equal(t, "EUR", stm.Currency)
	assert.Equal(t, "Firma Oy", stm.OwnerName)
	assert.Equal(t, "1000.00", stm.BeginBalance.StringFixed(2))
	assert.Equal(t, time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), stm.BeginBalanceDate)
	assert.Equal(t, 1, stm.RecordCount)
	assert.Equal(t, "bank specific", stm.BankSpecificInfo)

	require.Len(t, stm.Records, 1)
	rec := stm.Records[0]
	assert.Equal(t, Deposit, rec.Kind)
	assert.Equal(t, "49.00", rec.Amount.StringFixed(2))
	assert.Equal(t, "20180301593457000", rec.ArchiveIdentifier)
	assert.Equal(t, "PMNT", rec.Domain)
	assert.Equal(t, "700", rec.RecordCode)
	assert.Equal(t, "RCDT", rec.FamilyCode)
	assert.Equal(t, "ESCT", rec.SubFamilyCode)
	assert.Equal(t, "VIITESIIRTO", rec.Description)

	// Values shared by all details are unified up to the record.
	assert.Equal(t, "Maksaja Oy", rec.Name)
	assert.Equal(t, "13013", rec.RemittanceInfo)
	assert.Equal(t, 10, rec.PaidDate.Hour())

	require.Len(t, rec.Details, 1)
	d := rec.Details[0]
	assert.Equal(t, "BATCH-1", d.BatchIdentifier)
	assert.Equal(t, "DETAILREF", d.ArchiveIdentifier)
	assert.Equal(t, "E2E-1", d.EndToEndIdentifier)
	assert.Equal(t, "Maksaja Oy", d.DebtorName)
}

func TestParseStatement_CurrencyMismatch(t *testing.T) {
	entry := strings.Replace(depositEntry, `<Amt Ccy="EUR">49.00</Amt>
    <CdtDbtInd>`, `<Amt Ccy="SEK">49.00</Amt>
    <CdtDbtInd>`, 1)
	_, err := ParseStatement(statementDoc(entry))

	var semErr *parsererror.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Contains(t, semErr.Msg, "does not match statement entry currency SEK")
}

func TestParseStatement_UnsupportedEntryKind(t *testing.T) {
	entry := strings.Replace(depositEntry, "<CdtDbtInd>CRDT</CdtDbtInd>", "<CdtDbtInd>BOTH</CdtDbtInd>", 1)
	_, err := ParseStatement(statementDoc(entry))

	var semErr *parsererror.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Contains(t, semErr.Msg, "BOTH")
}

func TestParseStatement_MissingOpeningBalance(t *testing.T) {
	doc := strings.Replace(string(statementDoc(depositEntry)), "OPBD", "CLBD", 1)
	_, err := ParseStatement([]byte(doc))

	var fieldErr *parsererror.FieldValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Stmt.Bal.Tp.CdOrPrtry.Cd", fieldErr.Field)
}

func TestParseStatement_CurrencyExchange(t *testing.T) {
	entry := strings.Replace(depositEntry,
		`<AmtDtls><TxAmt><Amt Ccy="EUR">49.00</Amt></TxAmt></AmtDtls>`,
		`<AmtDtls>
      <InstdAmt><Amt Ccy="SEK">500.00</Amt></InstdAmt>
      <TxAmt>
       <Amt Ccy="EUR">49.00</Amt>
       <CcyXchg><SrcCcy>SEK</SrcCcy><TrgCcy>EUR</TrgCcy><XchgRate>10.20408</XchgRate></CcyXchg>
      </TxAmt>
     </AmtDtls>`, 1)

	stm, err := ParseStatement(statementDoc(entry))
	require.NoError(t, err)

	d := stm.Records[0].Details[0]
	require.NotNil(t, d.Exchange)
	assert.Equal(t, "SEK", d.Exchange.SourceCurrency)
	assert.Equal(t, "EUR", d.Exchange.TargetCurrency)
	assert.Equal(t, "10.2041", d.Exchange.ExchangeRate.String())
	assert.Equal(t, "500.00", d.InstructedAmount.StringFixed(2))
}

func TestParseStatement_InconsistentAmountDetails(t *testing.T) {
	// Instructed amount in a foreign currency without exchange information.
	entry := strings.Replace(depositEntry,
		`<AmtDtls><TxAmt><Amt Ccy="EUR">49.00</Amt></TxAmt></AmtDtls>`,
		`<AmtDtls>
      <InstdAmt><Amt Ccy="SEK">500.00</Amt></InstdAmt>
      <TxAmt><Amt Ccy="EUR">49.00</Amt></TxAmt>
     </AmtDtls>`, 1)
	_, err := ParseStatement(statementDoc(entry))

	var semErr *parsererror.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Contains(t, semErr.Msg, "inconsistent amount details")
}

func TestParseStatement_StructuredRemittanceSplits(t *testing.T) {
	// Two references in a row: the second repopulates an occupied field and
	// must start a new remittance element.
	entry := strings.Replace(depositEntry,
		`<RmtInf><Strd><CdtrRefInf><Ref>13013</Ref></CdtrRefInf></Strd></RmtInf>`,
		`<RmtInf>
      <Strd><CdtrRefInf><Ref>13013</Ref></CdtrRefInf></Strd>
      <Strd><RfrdDocAmt><RmtdAmt Ccy="EUR">49.00</RmtdAmt></RfrdDocAmt></Strd>
      <Strd><CdtrRefInf><Ref>26014</Ref></CdtrRefInf></Strd>
     </RmtInf>`, 1)

	stm, err := ParseStatement(statementDoc(entry))
	require.NoError(t, err)

	infos := stm.Records[0].Details[0].RemittanceInfos
	require.Len(t, infos, 2)
	assert.Equal(t, "13013", infos[0].Reference)
	assert.Equal(t, "49.00", infos[0].Amount.StringFixed(2))
	assert.Equal(t, "26014", infos[1].Reference)

	// The details disagree on a single reference, so none is unified up.
	assert.Equal(t, "", stm.Records[0].RemittanceInfo)
}

func TestParseStatement_MissingStatementElement(t *testing.T) {
	_, err := ParseStatement([]byte(`<Document><BkToCstmrStmt/></Document>`))

	var fieldErr *parsererror.FieldValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Stmt", fieldErr.Field)
}
