// Package sepa builds pain.001.001.03 SEPA credit transfer initiation
// messages and decodes pain.002.001.03 payment status reports.
package sepa

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/parsererror"
	"mlindgren/bankfiles/internal/validation"
)

var log = logging.Default()

// SetLogger allows setting a custom logger.
func SetLogger(logger logging.Logger) {
	if logger != nil {
		log = logger
	}
}

// Remittance info types accepted by AddPayment.
const (
	// RemittanceTypeMessage is a free-text message.
	RemittanceTypeMessage = "M"
	// RemittanceTypeOCR is a Finnish national payment reference.
	RemittanceTypeOCR = "O"
	// RemittanceTypeISO is an ISO 11649 RF creditor reference.
	RemittanceTypeISO = "I"
)

const pain001Namespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"

var paymentTime = loadLocation("Europe/Helsinki", 2*60*60)

func loadLocation(name string, offsetEast int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetEast)
	}
	return loc
}

// Party is one payment party: name, IBAN account and bank BIC, with the
// organization id and postal address required for the debtor.
type Party struct {
	Name         string
	Account      string
	BIC          string
	OrgID        string
	AddressLines []string
	CountryCode  string
}

// NewParty validates the account number and returns a creditor party.
func NewParty(name, account, bic string) (*Party, error) {
	account = validation.IBANFilter(account)
	if err := validation.ValidateIBAN(account); err != nil {
		return nil, err
	}
	return &Party{Name: name, Account: account, BIC: bic}, nil
}

// ResolveBIC returns the party's bank BIC. An explicitly set BIC is returned
// as is; otherwise resolving is tried from the IBAN account number.
func (p *Party) ResolveBIC() (string, error) {
	if p.BIC != "" {
		return p.BIC, nil
	}
	if bic := validation.BICFromIBAN(p.Account); bic != "" {
		return bic, nil
	}
	return "", &parsererror.FieldValidationError{Field: "bic", Msg: "BIC missing"}
}

// Payment is one credit transfer instruction.
type Payment struct {
	PaymentID          string
	Creditor           *Party
	Amount             decimal.Decimal
	RemittanceInfo     string
	RemittanceInfoType string
	DueDate            time.Time
	EndToEndID         string
}

// validate checks the remittance info against its type's reference rule.
func (p *Payment) validate() error {
	if p.RemittanceInfo == "" {
		return &parsererror.FieldValidationError{Field: "remittance_info", Msg: "remittance info missing"}
	}
	switch p.RemittanceInfoType {
	case RemittanceTypeMessage:
		return nil
	case RemittanceTypeOCR:
		return validation.ValidateFIReference(p.RemittanceInfo)
	case RemittanceTypeISO:
		return validation.ValidateISOReference(p.RemittanceInfo)
	}
	return &parsererror.FieldValidationError{
		Field: "remittance_info_type", Value: p.RemittanceInfoType, Msg: "invalid remittance info type",
	}
}

// Pain001 accumulates payments and renders a pain.001.001.03 document.
type Pain001 struct {
	MsgID  string
	Debtor *Party

	// Clock supplies the document creation timestamp. Defaults to time.Now;
	// tests pin it for reproducible output.
	Clock func() time.Time

	payments []*Payment
}

// NewPain001 validates the debtor details and returns an empty message
// builder.
func NewPain001(msgID, debtorName, debtorAccount, debtorBIC, debtorOrgID string, debtorAddressLines []string, debtorCountryCode string) (*Pain001, error) {
	if len(debtorOrgID) < 5 {
		return nil, &parsererror.FieldValidationError{Field: "debtor_org_id", Value: debtorOrgID, Msg: "invalid value"}
	}
	if len(debtorName) < 2 {
		return nil, &parsererror.FieldValidationError{Field: "debtor_name", Value: debtorName, Msg: "invalid value"}
	}
	if len(debtorAddressLines) == 0 {
		return nil, &parsererror.FieldValidationError{Field: "debtor_address_lines", Msg: "invalid value"}
	}
	if err := validation.ValidateBIC(debtorBIC); err != nil {
		return nil, err
	}
	if err := validation.ValidateCountryCode(debtorCountryCode); err != nil {
		return nil, err
	}
	debtorAccount = validation.IBANFilter(debtorAccount)
	if err := validation.ValidateIBAN(debtorAccount); err != nil {
		return nil, err
	}
	return &Pain001{
		MsgID: msgID,
		Debtor: &Party{
			Name:         debtorName,
			Account:      debtorAccount,
			BIC:          debtorBIC,
			OrgID:        debtorOrgID,
			AddressLines: debtorAddressLines,
			CountryCode:  debtorCountryCode,
		},
		Clock: time.Now,
	}, nil
}

// AddPayment validates one payment and appends it to the message. Validation
// happens here, not at render time, so a batch can be assembled with
// immediate feedback per payment. Adding a second payment requires end-to-end
// identifiers.
func (b *Pain001) AddPayment(paymentID, creditorName, creditorAccount, creditorBIC string, amount decimal.Decimal, remittanceInfo, remittanceInfoType string, dueDate time.Time, endToEndID string) error {
	if dueDate.IsZero() {
		dueDate = b.now()
	}
	creditor, err := NewParty(creditorName, creditorAccount, creditorBIC)
	if err != nil {
		return err
	}
	p := &Payment{
		PaymentID:          paymentID,
		Creditor:           creditor,
		Amount:             amount.Round(2),
		RemittanceInfo:     remittanceInfo,
		RemittanceInfoType: remittanceInfoType,
		DueDate:            dueDate,
		EndToEndID:         endToEndID,
	}
	if err := p.validate(); err != nil {
		return err
	}
	if endToEndID == "" && len(b.payments) > 0 {
		return &parsererror.FieldValidationError{
			Field: "end_to_end_id",
			Msg:   "adding multiple payments to a single pain.001 file requires end-to-end identifiers for the payments",
		}
	}
	b.payments = append(b.payments, p)
	return nil
}

// ControlSum is the arithmetic sum of all payment amounts.
func (b *Pain001) ControlSum() decimal.Decimal {
	total := decimal.New(0, -2)
	for _, p := range b.payments {
		total = total.Add(p.Amount)
	}
	return total
}

// PaymentCount returns the number of payments added so far.
func (b *Pain001) PaymentCount() int {
	return len(b.payments)
}

func (b *Pain001) now() time.Time {
	clock := b.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().In(paymentTime)
}

// Render serializes the message. It fails when no payments have been added.
func (b *Pain001) Render() ([]byte, error) {
	if len(b.payments) == 0 {
		return nil, &parsererror.FieldValidationError{Field: "payments", Msg: "no payments in pain.001.001.03"}
	}

	doc := &documentXML{
		Xmlns: pain001Namespace,
		Initiation: initiationXML{
			GrpHdr: groupHeaderXML{
				MsgID:    b.MsgID,
				CreDtTm:  b.now().Format(time.RFC3339),
				NbOfTxs:  len(b.payments),
				CtrlSum:  b.ControlSum().StringFixed(2),
				InitgPty: partyXML{Nm: b.Debtor.Name, PstlAdr: b.postalAddress()},
			},
		},
	}

	for _, group := range b.groupByPaymentID() {
		pmtInf, err := b.paymentInfo(group)
		if err != nil {
			return nil, err
		}
		doc.Initiation.PmtInf = append(doc.Initiation.PmtInf, pmtInf)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize pain.001 document: %w", err)
	}
	log.Info("rendered pain.001 document",
		logging.F("msg_id", b.MsgID), logging.F("payments", len(b.payments)))
	return append([]byte(xml.Header), out...), nil
}

// RenderToFile serializes the message into a file.
func (b *Pain001) RenderToFile(filename string) error {
	data, err := b.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// groupByPaymentID groups payments that share a payment id into one payment
// information block, preserving insertion order.
func (b *Pain001) groupByPaymentID() [][]*Payment {
	var order []string
	byID := make(map[string][]*Payment)
	for _, p := range b.payments {
		if _, ok := byID[p.PaymentID]; !ok {
			order = append(order, p.PaymentID)
		}
		byID[p.PaymentID] = append(byID[p.PaymentID], p)
	}
	groups := make([][]*Payment, 0, len(order))
	for _, id := range order {
		groups = append(groups, byID[id])
	}
	return groups
}

func (b *Pain001) paymentInfo(group []*Payment) (paymentInfoXML, error) {
	dueDate := group[0].DueDate
	for _, p := range group[1:] {
		if p.DueDate.Before(dueDate) {
			dueDate = p.DueDate
		}
	}
	debtorBIC, err := b.Debtor.ResolveBIC()
	if err != nil {
		return paymentInfoXML{}, err
	}

	pmtInf := paymentInfoXML{
		PmtInfID:    group[0].PaymentID,
		PmtMtd:      "TRF",
		ReqdExctnDt: dueDate.Format("2006-01-02"),
		Dbtr: partyXML{
			Nm:      b.Debtor.Name,
			PstlAdr: b.postalAddress(),
			ID: &partyIDXML{OrgID: orgIDXML{Othr: otherIDXML{
				ID:      b.Debtor.OrgID,
				SchmeNm: schemeNameXML{Cd: "BANK"},
			}}},
		},
		DbtrAcct: accountXML{ID: ibanIDXML{IBAN: b.Debtor.Account}},
		DbtrAgt:  agentXML{FinInstnID: finInstnIDXML{BIC: debtorBIC}},
		ChrgBr:   "SLEV",
	}
	for _, p := range group {
		tx, err := creditTransfer(b.Debtor, p)
		if err != nil {
			return paymentInfoXML{}, err
		}
		pmtInf.CdtTrfTxInf = append(pmtInf.CdtTrfTxInf, tx)
	}
	return pmtInf, nil
}

func creditTransfer(debtor *Party, p *Payment) (creditTransferXML, error) {
	creditorBIC, err := p.Creditor.ResolveBIC()
	if err != nil {
		return creditTransferXML{}, err
	}
	endToEndID := p.EndToEndID
	if endToEndID == "" {
		endToEndID = p.PaymentID
	}

	tx := creditTransferXML{
		PmtID:     pmtIDXML{EndToEndID: endToEndID},
		Amt:       amountXML{InstdAmt: instdAmtXML{Value: p.Amount.StringFixed(2), Ccy: "EUR"}},
		UltmtDbtr: nameXML{Nm: debtor.Name},
		CdtrAgt:   agentXML{FinInstnID: finInstnIDXML{BIC: creditorBIC}},
		Cdtr:      nameXML{Nm: validation.ASCIIFilter(p.Creditor.Name)},
		CdtrAcct:  accountXML{ID: ibanIDXML{IBAN: p.Creditor.Account}},
	}
	switch p.RemittanceInfoType {
	case RemittanceTypeMessage:
		tx.RmtInf = remittanceXML{Ustrd: p.RemittanceInfo}
	case RemittanceTypeOCR:
		tx.RmtInf = remittanceXML{Strd: &structuredXML{CdtrRefInf: creditorRefXML{
			Tp:  refTypeXML{CdOrPrtry: cdOrPrtryXML{Cd: "SCOR"}},
			Ref: p.RemittanceInfo,
		}}}
	case RemittanceTypeISO:
		tx.RmtInf = remittanceXML{Strd: &structuredXML{CdtrRefInf: creditorRefXML{
			Tp:  refTypeXML{CdOrPrtry: cdOrPrtryXML{Cd: "SCOR"}, Issr: "ISO"},
			Ref: p.RemittanceInfo,
		}}}
	default:
		return creditTransferXML{}, &parsererror.FieldValidationError{
			Field: "remittance_info_type", Value: p.RemittanceInfoType, Msg: "invalid remittance info type",
		}
	}
	return tx, nil
}

func (b *Pain001) postalAddress() *postalAddressXML {
	return &postalAddressXML{Ctry: b.Debtor.CountryCode, AdrLine: b.Debtor.AddressLines}
}

// Marshalling structs follow the pain.001.001.03 element order.

type documentXML struct {
	XMLName    xml.Name      `xml:"Document"`
	Xmlns      string        `xml:"xmlns,attr"`
	Initiation initiationXML `xml:"CstmrCdtTrfInitn"`
}

type initiationXML struct {
	GrpHdr groupHeaderXML   `xml:"GrpHdr"`
	PmtInf []paymentInfoXML `xml:"PmtInf"`
}

type groupHeaderXML struct {
	MsgID    string   `xml:"MsgId"`
	CreDtTm  string   `xml:"CreDtTm"`
	NbOfTxs  int      `xml:"NbOfTxs"`
	CtrlSum  string   `xml:"CtrlSum"`
	InitgPty partyXML `xml:"InitgPty"`
}

type partyXML struct {
	Nm      string            `xml:"Nm"`
	PstlAdr *postalAddressXML `xml:"PstlAdr,omitempty"`
	ID      *partyIDXML       `xml:"Id,omitempty"`
}

type postalAddressXML struct {
	Ctry    string   `xml:"Ctry"`
	AdrLine []string `xml:"AdrLine"`
}

type partyIDXML struct {
	OrgID orgIDXML `xml:"OrgId"`
}

type orgIDXML struct {
	Othr otherIDXML `xml:"Othr"`
}

type otherIDXML struct {
	ID      string        `xml:"Id"`
	SchmeNm schemeNameXML `xml:"SchmeNm"`
}

type schemeNameXML struct {
	Cd string `xml:"Cd"`
}

type paymentInfoXML struct {
	PmtInfID    string              `xml:"PmtInfId"`
	PmtMtd      string              `xml:"PmtMtd"`
	ReqdExctnDt string              `xml:"ReqdExctnDt"`
	Dbtr        partyXML            `xml:"Dbtr"`
	DbtrAcct    accountXML          `xml:"DbtrAcct"`
	DbtrAgt     agentXML            `xml:"DbtrAgt"`
	ChrgBr      string              `xml:"ChrgBr"`
	CdtTrfTxInf []creditTransferXML `xml:"CdtTrfTxInf"`
}

type accountXML struct {
	ID ibanIDXML `xml:"Id"`
}

type ibanIDXML struct {
	IBAN string `xml:"IBAN"`
}

type agentXML struct {
	FinInstnID finInstnIDXML `xml:"FinInstnId"`
}

type finInstnIDXML struct {
	BIC string `xml:"BIC"`
}

type creditTransferXML struct {
	PmtID     pmtIDXML      `xml:"PmtId"`
	Amt       amountXML     `xml:"Amt"`
	UltmtDbtr nameXML       `xml:"UltmtDbtr"`
	CdtrAgt   agentXML      `xml:"CdtrAgt"`
	Cdtr      nameXML       `xml:"Cdtr"`
	CdtrAcct  accountXML    `xml:"CdtrAcct"`
	RmtInf    remittanceXML `xml:"RmtInf"`
}

type pmtIDXML struct {
	EndToEndID string `xml:"EndToEndId"`
}

type amountXML struct {
	InstdAmt instdAmtXML `xml:"InstdAmt"`
}

type instdAmtXML struct {
	Value string `xml:",chardata"`
	Ccy   string `xml:"Ccy,attr"`
}

type nameXML struct {
	Nm string `xml:"Nm"`
}

type remittanceXML struct {
	Ustrd string         `xml:"Ustrd,omitempty"`
	Strd  *structuredXML `xml:"Strd,omitempty"`
}

type structuredXML struct {
	CdtrRefInf creditorRefXML `xml:"CdtrRefInf"`
}

type creditorRefXML struct {
	Tp  refTypeXML `xml:"Tp"`
	Ref string     `xml:"Ref"`
}

type refTypeXML struct {
	CdOrPrtry cdOrPrtryXML `xml:"CdOrPrtry"`
	Issr      string       `xml:"Issr,omitempty"`
}

type cdOrPrtryXML struct {
	Cd string `xml:"Cd"`
}
