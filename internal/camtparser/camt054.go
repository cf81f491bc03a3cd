package camtparser

import (
	"fmt"
	"os"
	"strings"

	"mlindgren/bankfiles/internal/fileutils"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/parsererror"
	"mlindgren/bankfiles/internal/xmlutils"
)

// NotificationSuffixes lists the case-insensitive file suffixes recognized as
// camt.054 notification files.
var NotificationSuffixes = []string{"XE", "CAMT", "054"}

// camt.054 wire contract tag sets.
var (
	camt054ArrayTags = []string{"Ntfctn", "Ntry", "NtryDtls", "TxDtls", "Strd", "Othr", "RfrdDocInf"}
	camt054IntTags   = []string{"NbOfNtries", "NbOfTxs"}
)

// ParseNotificationFile checks the filename suffix, reads the file and
// decodes the camt.054 notifications it contains.
func ParseNotificationFile(filename string) ([]*Notification, error) {
	if err := fileutils.CheckSuffix(filename, "camt.054", NotificationSuffixes); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseNotifications(data)
}

// ValidateNotificationFormat reports whether a file is a camt.054 document.
func ValidateNotificationFormat(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "camt.054", NotificationSuffixes); err != nil {
		return false, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	return xmlutils.IsDebitCreditNotification(data), nil
}

// ParseNotifications decodes a camt.054 document. One document may carry
// several notifications.
func ParseNotifications(data []byte) ([]*Notification, error) {
	root, err := xmlutils.Normalize(data, xmlutils.Options{
		ArrayTags: camt054ArrayTags,
		IntTags:   camt054IntTags,
	})
	if err != nil {
		return nil, err
	}

	body := xmlutils.Child(root, "BkToCstmrDbtCdtNtfctn")
	if len(body) == 0 {
		return nil, &parsererror.FieldValidationError{Field: "BkToCstmrDbtCdtNtfctn", Msg: "required element missing"}
	}

	var notifications []*Notification
	for ix, v := range xmlutils.List(body, "Ntfctn") {
		ntfctn, err := parseNotification(xmlutils.AsNode(v), ix)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, ntfctn)
	}
	if len(notifications) == 0 {
		return nil, &parsererror.FieldValidationError{Field: "BkToCstmrDbtCdtNtfctn.Ntfctn", Msg: "required element missing"}
	}
	log.Info("decoded camt.054 document", logging.F("notifications", len(notifications)))
	return notifications, nil
}

func parseNotification(node xmlutils.Node, ix int) (*Notification, error) {
	path := fmt.Sprintf("Ntfctn[%d]", ix)
	acct := xmlutils.Child(node, "Acct")

	n := &Notification{
		IBAN:     xmlutils.Str(xmlutils.Child(acct, "Id"), "IBAN"),
		Currency: xmlutils.Str(acct, "Ccy"),
	}
	var err error
	if n.Identification, err = xmlutils.RequireStr(node, "Id", path+".Id"); err != nil {
		return nil, err
	}
	if n.CreatedAt, err = xmlutils.DateTime(node, "CreDtTm", path+".CreDtTm"); err != nil {
		return nil, err
	}

	for ex, v := range xmlutils.List(node, "Ntry") {
		records, err := parseNotificationEntry(xmlutils.AsNode(v), n.Currency, fmt.Sprintf("%s.Ntry[%d]", path, ex))
		if err != nil {
			return nil, err
		}
		n.Records = append(n.Records, records...)
	}
	return n, nil
}

// parseNotificationEntry fans one entry out into one record per nested
// transaction detail; the records share the entry's dates and kind but carry
// their own amount, counterparty and remittance information. An entry without
// details yields a single record built from the entry alone.
func parseNotificationEntry(ntry xmlutils.Node, accountCurrency, path string) ([]*NotificationRecord, error) {
	amount, currency, _, err := xmlutils.Amount(ntry, "Amt", path+".Amt", true)
	if err != nil {
		return nil, err
	}
	if accountCurrency != "" && currency != accountCurrency {
		return nil, &parsererror.SemanticError{
			Path: path + ".Amt",
			Msg:  fmt.Sprintf("account currency %s does not match notification entry currency %s", accountCurrency, currency),
		}
	}
	kind, err := entryKind(ntry, path)
	if err != nil {
		return nil, err
	}

	base := NotificationRecord{
		Amount:            amount,
		Currency:          currency,
		Kind:              kind,
		ArchiveIdentifier: xmlutils.Str(ntry, "AcctSvcrRef"),
	}
	if base.BookingDate, err = xmlutils.Date(xmlutils.Child(ntry, "BookgDt"), "Dt", path+".BookgDt.Dt"); err != nil {
		return nil, err
	}
	if xmlutils.Str(xmlutils.Child(ntry, "ValDt"), "Dt") != "" {
		if base.ValueDate, err = xmlutils.Date(xmlutils.Child(ntry, "ValDt"), "Dt", path+".ValDt.Dt"); err != nil {
			return nil, err
		}
	}

	var records []*NotificationRecord
	for _, b := range xmlutils.List(ntry, "NtryDtls") {
		batch := xmlutils.AsNode(b)
		for dx, d := range xmlutils.List(batch, "TxDtls") {
			rec, err := notificationRecordFromDetail(base, xmlutils.AsNode(d), fmt.Sprintf("%s.NtryDtls.TxDtls[%d]", path, dx))
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		rec := base
		records = append(records, &rec)
	}
	return records, nil
}

func notificationRecordFromDetail(base NotificationRecord, dtl xmlutils.Node, path string) (*NotificationRecord, error) {
	rec := base

	txAmt := xmlutils.Child(dtl, "AmtDtls", "TxAmt")
	amount, currency, ok, err := xmlutils.Amount(txAmt, "Amt", path+".AmtDtls.TxAmt.Amt", false)
	if err != nil {
		return nil, err
	}
	if ok {
		rec.Amount, rec.Currency = amount, currency
	}

	refs := xmlutils.Child(dtl, "Refs")
	if v := xmlutils.Str(refs, "AcctSvcrRef"); v != "" {
		rec.ArchiveIdentifier = v
	}
	rec.EndToEndIdentifier = xmlutils.Str(refs, "EndToEndId")

	parties := xmlutils.Child(dtl, "RltdPties")
	rec.PayerName = stringOr(
		xmlutils.Str(xmlutils.Child(parties, "UltmtDbtr"), "Nm"),
		xmlutils.Str(xmlutils.Child(parties, "Dbtr"), "Nm"))
	agent := xmlutils.Child(dtl, "RltdAgts", "DbtrAgt", "FinInstnId")
	rec.PayerBIC = stringOr(xmlutils.Str(agent, "BIC"), xmlutils.Str(agent, "BICFI"))

	rmt := xmlutils.Child(dtl, "RmtInf")
	rec.RemittanceInfo = notificationRemittanceInfo(rmt)
	return &rec, nil
}

// notificationRemittanceInfo prefers the first structured creditor reference
// and falls back to the unstructured lines joined with newlines.
func notificationRemittanceInfo(rmt xmlutils.Node) string {
	for _, v := range xmlutils.List(rmt, "Strd") {
		strd := xmlutils.AsNode(v)
		if ref := xmlutils.Str(xmlutils.Child(strd, "CdtrRefInf"), "Ref"); ref != "" {
			return ref
		}
	}
	return strings.Join(xmlutils.StrOrList(rmt["Ustrd"]), "\n")
}
