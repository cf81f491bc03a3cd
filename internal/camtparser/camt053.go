// Package camtparser decodes ISO 20022 camt.053 bank-to-customer statements
// and camt.054 debit/credit notifications from their normalized XML trees.
package camtparser

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/fileutils"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/parsererror"
	"mlindgren/bankfiles/internal/xmlutils"
)

var log = logging.Default()

// SetLogger allows setting a custom logger.
func SetLogger(logger logging.Logger) {
	if logger != nil {
		log = logger
	}
}

// StatementSuffixes lists the case-insensitive file suffixes recognized as
// camt.053 statement files.
var StatementSuffixes = []string{"XML", "XT", "CAMT", "053"}

// Normalization tag sets are part of the camt.053 wire contract: these tags
// may repeat, so a single occurrence must still normalize as a collection.
var (
	camt053ArrayTags = []string{"Bal", "Ntry", "NtryDtls", "TxDtls", "Strd"}
	camt053IntTags   = []string{"NbOfNtries", "NbOfTxs"}
)

// recordCodeByDomain maps ISO bank-transaction domains to the legacy
// statement record codes used by downstream bookkeeping.
var recordCodeByDomain = map[string]string{
	"PMNT": "700",
	"LDAS": "761",
}

// ParseStatementFile checks the filename suffix, reads the file and decodes
// the camt.053 statement it contains.
func ParseStatementFile(filename string) (*Statement, error) {
	if err := fileutils.CheckSuffix(filename, "camt.053", StatementSuffixes); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseStatement(data)
}

// ValidateStatementFormat reports whether a file is a camt.053 document.
func ValidateStatementFormat(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "camt.053", StatementSuffixes); err != nil {
		return false, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	return xmlutils.IsBankToCustomerStatement(data), nil
}

// ParseStatement decodes a camt.053 document.
func ParseStatement(data []byte) (*Statement, error) {
	root, err := xmlutils.Normalize(data, xmlutils.Options{
		ArrayTags: camt053ArrayTags,
		IntTags:   camt053IntTags,
	})
	if err != nil {
		return nil, err
	}

	stmtNode := xmlutils.Child(root, "BkToCstmrStmt", "Stmt")
	if len(stmtNode) == 0 {
		return nil, &parsererror.FieldValidationError{Field: "Stmt", Msg: "required element missing"}
	}
	acct := xmlutils.Child(stmtNode, "Acct")

	stm := &Statement{
		IBAN:      xmlutils.Str(xmlutils.Child(acct, "Id"), "IBAN"),
		OwnerName: xmlutils.Str(xmlutils.Child(acct, "Ownr"), "Nm"),
	}
	if stm.IBAN == "" {
		return nil, &parsererror.FieldValidationError{Field: "Stmt.Acct.Id.IBAN", Msg: "required element missing"}
	}
	if stm.BIC, err = xmlutils.RequireStr(xmlutils.Child(acct, "Svcr", "FinInstnId"), "BIC", "Stmt.Acct.Svcr.FinInstnId.BIC"); err != nil {
		return nil, err
	}
	if stm.StatementID, err = xmlutils.RequireStr(stmtNode, "Id", "Stmt.Id"); err != nil {
		return nil, err
	}
	if stm.StatementNumber, err = xmlutils.RequireStr(stmtNode, "LglSeqNb", "Stmt.LglSeqNb"); err != nil {
		return nil, err
	}
	if stm.CreatedAt, err = xmlutils.DateTime(stmtNode, "CreDtTm", "Stmt.CreDtTm"); err != nil {
		return nil, err
	}
	frto := xmlutils.Child(stmtNode, "FrToDt")
	if stm.BeginDate, err = xmlutils.DateTime(frto, "FrDtTm", "Stmt.FrToDt.FrDtTm"); err != nil {
		return nil, err
	}
	if stm.EndDate, err = xmlutils.DateTime(frto, "ToDtTm", "Stmt.FrToDt.ToDtTm"); err != nil {
		return nil, err
	}
	if stm.Currency, err = xmlutils.RequireStr(acct, "Ccy", "Stmt.Acct.Ccy"); err != nil {
		return nil, err
	}
	if stm.BeginBalance, stm.BeginBalanceDate, err = statementBalance(stmtNode, "OPBD"); err != nil {
		return nil, err
	}
	if stm.BeginBalanceDate.IsZero() {
		stm.BeginBalanceDate = stm.BeginDate
	}
	if n, ok := xmlutils.Int(xmlutils.Child(stmtNode, "TxsSummry", "TtlNtries"), "NbOfNtries"); ok {
		stm.RecordCount = n
	}
	stm.BankSpecificInfo = truncate(xmlutils.Str(stmtNode, "AddtlStmtInf"), 1024)

	for _, v := range xmlutils.List(stmtNode, "Ntry") {
		rec, err := parseStatementEntry(xmlutils.AsNode(v), stm.Currency)
		if err != nil {
			return nil, err
		}
		stm.Records = append(stm.Records, rec)
	}
	log.Info("decoded camt.053 statement",
		logging.F("statement", stm.StatementID), logging.F("records", len(stm.Records)))
	return stm, nil
}

// statementBalance finds the first balance node of the given type code and
// returns its amount and optional date.
func statementBalance(stmtNode xmlutils.Node, balType string) (decimal.Decimal, time.Time, error) {
	for _, v := range xmlutils.List(stmtNode, "Bal") {
		bal := xmlutils.AsNode(v)
		if xmlutils.Str(xmlutils.Child(bal, "Tp", "CdOrPrtry"), "Cd") != balType {
			continue
		}
		amount, err := decimal.NewFromString(xmlutils.Str(xmlutils.Child(bal, "Amt"), "@"))
		if err != nil {
			return decimal.Decimal{}, time.Time{}, &parsererror.FieldValidationError{
				Field: fmt.Sprintf("Stmt.Bal[%s].Amt", balType), Msg: "currency amount missing or invalid",
			}
		}
		var date time.Time
		dt := xmlutils.Child(bal, "Dt")
		if xmlutils.Str(dt, "Dt") != "" {
			if date, err = xmlutils.Date(dt, "Dt", fmt.Sprintf("Stmt.Bal[%s].Dt.Dt", balType)); err != nil {
				return decimal.Decimal{}, time.Time{}, err
			}
		}
		return amount, date, nil
	}
	return decimal.Decimal{}, time.Time{}, &parsererror.FieldValidationError{
		Field: "Stmt.Bal.Tp.CdOrPrtry.Cd", Value: balType, Msg: "balance type missing",
	}
}

func parseStatementEntry(ntry xmlutils.Node, accountCurrency string) (*StatementRecord, error) {
	archiveID := xmlutils.Str(ntry, "AcctSvcrRef")
	amount, currency, _, err := xmlutils.Amount(ntry, "Amt", fmt.Sprintf("Stmt.Ntry[%s].Amt", archiveID), true)
	if err != nil {
		return nil, err
	}
	if currency != accountCurrency {
		return nil, &parsererror.SemanticError{
			Path: fmt.Sprintf("Stmt.Ntry[%s].Amt", archiveID),
			Msg:  fmt.Sprintf("account currency %s does not match statement entry currency %s", accountCurrency, currency),
		}
	}
	kind, err := entryKind(ntry, fmt.Sprintf("Stmt.Ntry[%s]", archiveID))
	if err != nil {
		return nil, err
	}

	rec := &StatementRecord{
		ArchiveIdentifier: archiveID,
		Amount:            amount,
		Currency:          currency,
		Kind:              kind,
	}
	if rec.BookingDate, err = xmlutils.Date(xmlutils.Child(ntry, "BookgDt"), "Dt", fmt.Sprintf("Stmt.Ntry[%s].BookgDt.Dt", archiveID)); err != nil {
		return nil, err
	}
	if rec.ValueDate, err = xmlutils.Date(xmlutils.Child(ntry, "ValDt"), "Dt", fmt.Sprintf("Stmt.Ntry[%s].ValDt.Dt", archiveID)); err != nil {
		return nil, err
	}

	bktxcd := xmlutils.Child(ntry, "BkTxCd")
	family := xmlutils.Child(bktxcd, "Domn", "Fmly")
	if rec.Domain, err = xmlutils.RequireStr(xmlutils.Child(bktxcd, "Domn"), "Cd", fmt.Sprintf("Stmt.Ntry[%s].BkTxCd.Domn.Cd", archiveID)); err != nil {
		return nil, err
	}
	rec.RecordCode = recordCodeByDomain[rec.Domain]
	if rec.FamilyCode, err = xmlutils.RequireStr(family, "Cd", fmt.Sprintf("Stmt.Ntry[%s].BkTxCd.Domn.Fmly.Cd", archiveID)); err != nil {
		return nil, err
	}
	if rec.SubFamilyCode, err = xmlutils.RequireStr(family, "SubFmlyCd", fmt.Sprintf("Stmt.Ntry[%s].BkTxCd.Domn.Fmly.SubFmlyCd", archiveID)); err != nil {
		return nil, err
	}
	rec.Description = xmlutils.Str(xmlutils.Child(bktxcd, "Prtry"), "Cd")

	for _, b := range xmlutils.List(ntry, "NtryDtls") {
		batch := xmlutils.AsNode(b)
		batchID := xmlutils.Str(xmlutils.Child(batch, "Btch"), "MsgId")
		for ix, d := range xmlutils.List(batch, "TxDtls") {
			detail, err := parseRecordDetail(xmlutils.AsNode(d), batchID, archiveID, ix)
			if err != nil {
				return nil, err
			}
			rec.Details = append(rec.Details, detail)
		}
	}
	fillRecordFromDetails(rec)
	return rec, nil
}

func parseRecordDetail(dtl xmlutils.Node, batchID, archiveID string, ix int) (*RecordDetail, error) {
	d := &RecordDetail{BatchIdentifier: batchID}
	path := fmt.Sprintf("Stmt.Ntry[%s].NtryDtls.TxDtls[%d]", archiveID, ix)

	amtDtls := xmlutils.Child(dtl, "AmtDtls")
	txAmt := xmlutils.Child(amtDtls, "TxAmt")
	xchg := xmlutils.Child(txAmt, "CcyXchg")
	hasXchg := len(xchg) > 0

	var err error
	if d.Amount, d.Currency, _, err = xmlutils.Amount(txAmt, "Amt", path+".AmtDtls.TxAmt.Amt", false); err != nil {
		return nil, err
	}
	instructed, sourceCurrency, _, err := xmlutils.Amount(xmlutils.Child(amtDtls, "InstdAmt"), "Amt", path+".AmtDtls.InstdAmt.Amt", false)
	if err != nil {
		return nil, err
	}
	d.InstructedAmount = instructed

	if (!hasXchg && sourceCurrency != "" && sourceCurrency != d.Currency) || (hasXchg && sourceCurrency == "") {
		return nil, &parsererror.SemanticError{Path: path + ".AmtDtls", Msg: "inconsistent amount details"}
	}
	if sourceCurrency != "" && sourceCurrency != d.Currency {
		exchange := &CurrencyExchange{
			SourceCurrency: stringOr(xmlutils.Str(xchg, "SrcCcy"), sourceCurrency),
			TargetCurrency: stringOr(xmlutils.Str(xchg, "TrgCcy"), d.Currency),
			UnitCurrency:   xmlutils.Str(xchg, "UnitCcy"),
		}
		if rate := xmlutils.Str(xchg, "XchgRate"); rate != "" {
			r, err := decimal.NewFromString(rate)
			if err != nil {
				return nil, &parsererror.FieldValidationError{
					Field: path + ".AmtDtls.TxAmt.CcyXchg.XchgRate", Value: rate, Msg: "decimal format error",
				}
			}
			exchange.ExchangeRate = r.Round(4)
		}
		d.Exchange = exchange
	}

	refs := xmlutils.Child(dtl, "Refs")
	d.ArchiveIdentifier = xmlutils.Str(refs, "AcctSvcrRef")
	d.EndToEndIdentifier = xmlutils.Str(refs, "EndToEndId")

	parties := xmlutils.Child(dtl, "RltdPties")
	d.DebtorName = xmlutils.Str(xmlutils.Child(parties, "Dbtr"), "Nm")
	d.UltimateDebtorName = xmlutils.Str(xmlutils.Child(parties, "UltmtDbtr"), "Nm")
	d.CreditorName = xmlutils.Str(xmlutils.Child(parties, "Cdtr"), "Nm")
	cdtrAcctID := xmlutils.Child(parties, "CdtrAcct", "Id")
	if iban := xmlutils.Str(cdtrAcctID, "IBAN"); iban != "" {
		d.CreditorAccount = iban
		d.CreditorAccountScheme = "IBAN"
	} else {
		othr := xmlutils.Child(cdtrAcctID, "Othr")
		d.CreditorAccount = xmlutils.Str(othr, "Id")
		d.CreditorAccountScheme = xmlutils.Str(xmlutils.Child(othr, "SchmeNm"), "Cd")
	}

	rmt := xmlutils.Child(dtl, "RmtInf")
	d.UnstructuredRemittanceInfo = strings.Join(xmlutils.StrOrList(rmt["Ustrd"]), "\n")

	rltdDts := xmlutils.Child(dtl, "RltdDts")
	if xmlutils.Str(rltdDts, "AccptncDtTm") != "" {
		if d.PaidDate, err = xmlutils.DateTime(rltdDts, "AccptncDtTm", path+".RltdDts.AccptncDtTm"); err != nil {
			return nil, err
		}
	}

	if d.RemittanceInfos, err = parseStructuredRemittance(rmt, path); err != nil {
		return nil, err
	}
	return d, nil
}

// parseStructuredRemittance flattens the Strd elements of a detail. A new
// remittance element is started whenever a field that is already populated is
// about to be populated again, so repeated-field runs become repeated
// elements instead of overwritten values.
func parseStructuredRemittance(rmt xmlutils.Node, path string) ([]*RemittanceInfo, error) {
	var infos []*RemittanceInfo
	current := &RemittanceInfo{}
	appended := false

	for ix, v := range xmlutils.List(rmt, "Strd") {
		strd := xmlutils.AsNode(v)
		additionalInfo := xmlutils.Str(strd, "AddtlRmtInf")
		amount, currency, _, err := xmlutils.Amount(
			xmlutils.Child(strd, "RfrdDocAmt"), "RmtdAmt",
			fmt.Sprintf("%s.RmtInf.Strd[%d].RfrdDocAmt.RmtdAmt", path, ix), false)
		if err != nil {
			return nil, err
		}
		reference := xmlutils.Str(xmlutils.Child(strd, "CdtrRefInf"), "Ref")

		repopulates := (additionalInfo != "" && current.AdditionalInfo != "") ||
			(!amount.IsZero() && !current.Amount.IsZero()) ||
			(reference != "" && current.Reference != "")
		if repopulates {
			current = &RemittanceInfo{}
			appended = false
		}
		if additionalInfo != "" {
			current.AdditionalInfo = additionalInfo
		}
		if !amount.IsZero() {
			current.Amount, current.Currency = amount, currency
		}
		if reference != "" {
			current.Reference = reference
		}
		if !appended {
			infos = append(infos, current)
			appended = true
		}
	}
	return infos, nil
}

// fillRecordFromDetails copies counterparty name, account, reference and paid
// date up to the record when its details agree on a single value.
func fillRecordFromDetails(rec *StatementRecord) {
	if rec.Name == "" {
		switch rec.Kind {
		case Withdrawal:
			rec.Name = unifiedString(rec.Details, func(d *RecordDetail) string { return d.CreditorName })
		case Deposit:
			rec.Name = unifiedString(rec.Details, func(d *RecordDetail) string { return d.DebtorName })
		}
	}
	if rec.RecipientAccountNumber == "" {
		rec.RecipientAccountNumber = unifiedString(rec.Details, func(d *RecordDetail) string { return d.CreditorAccount })
	}
	if rec.RemittanceInfo == "" {
		var refs []string
		for _, d := range rec.Details {
			for _, ri := range d.RemittanceInfos {
				refs = append(refs, ri.Reference)
			}
		}
		rec.RemittanceInfo = unifiedOf(refs, "")
	}
	if rec.PaidDate.IsZero() {
		var dates []time.Time
		for _, d := range rec.Details {
			dates = append(dates, d.PaidDate)
		}
		rec.PaidDate = unifiedOf(dates, time.Time{})
	}
}

func unifiedString(details []*RecordDetail, get func(*RecordDetail) string) string {
	values := make([]string, 0, len(details))
	for _, d := range details {
		values = append(values, get(d))
	}
	return unifiedOf(values, "")
}

// unifiedOf returns the single value shared by all non-default entries, or
// the default when the entries disagree.
func unifiedOf[T comparable](values []T, def T) T {
	v := def
	for _, v2 := range values {
		if v == def {
			v = v2
		} else if v2 != def && v2 != v {
			return def
		}
	}
	return v
}

func entryKind(ntry xmlutils.Node, path string) (EntryKind, error) {
	ind, err := xmlutils.RequireStr(ntry, "CdtDbtInd", path+".CdtDbtInd")
	if err != nil {
		return "", err
	}
	switch ind {
	case "CRDT":
		return Deposit, nil
	case "DBIT":
		return Withdrawal, nil
	}
	return "", &parsererror.SemanticError{Path: path + ".CdtDbtInd", Msg: fmt.Sprintf("statement entry type %s not supported", ind)}
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
