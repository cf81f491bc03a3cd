package titoparser

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is one account statement: a header, its entries and the optional
// trailing balance, cumulative and bank-group records. A file may carry
// several statements back to back.
type Statement struct {
	Header               *Header          `json:"header"`
	Records              []*Entry         `json:"records"`
	Balance              *Balance         `json:"balance,omitempty"`
	Cumulative           *Cumulative      `json:"cumulative,omitempty"`
	CumulativeAdjustment *Cumulative      `json:"cumulative_adjustment,omitempty"`
	SpecialRecords       []*SpecialRecord `json:"special_records,omitempty"`
}

// Header is the T00 statement header record.
type Header struct {
	LineNumber         int             `json:"line_number"`
	Version            string          `json:"version"`
	AccountNumber      string          `json:"account_number"`
	StatementNumber    string          `json:"statement_number"`
	BeginDate          time.Time       `json:"begin_date"`
	EndDate            time.Time       `json:"end_date"`
	RecordedAt         time.Time       `json:"record_date"`
	CustomerIdentifier string          `json:"customer_identifier"`
	BeginBalanceDate   time.Time       `json:"begin_balance_date"`
	BeginBalance       decimal.Decimal `json:"begin_balance"`
	RecordCount        int             `json:"record_count"`
	CurrencyCode       string          `json:"currency_code"`
	AccountName        string          `json:"account_name,omitempty"`
	AccountLimit       decimal.Decimal `json:"account_limit"`
	OwnerName          string          `json:"owner_name"`
	ContactInfo1       string          `json:"contact_info_1,omitempty"`
	ContactInfo2       string          `json:"contact_info_2,omitempty"`
	BankSpecificInfo1  string          `json:"bank_specific_info_1,omitempty"`
	// IBANAndBIC is the raw trailing field; IBAN and BIC are filled when it
	// splits cleanly into two space-separated parts.
	IBANAndBIC string `json:"iban_and_bic,omitempty"`
	IBAN       string `json:"iban,omitempty"`
	BIC        string `json:"bic,omitempty"`
}

// Entry is one T10/T80 statement entry, together with any T11/T81 extra info
// attached to it.
type Entry struct {
	LineNumber                    int             `json:"line_number"`
	RecordType                    string          `json:"record_type"`
	RecordNumber                  int             `json:"record_number"`
	ArchiveIdentifier             string          `json:"archive_identifier,omitempty"`
	RecordDate                    time.Time       `json:"record_date"`
	ValueDate                     time.Time       `json:"value_date,omitempty"`
	PaidDate                      time.Time       `json:"paid_date,omitempty"`
	EntryType                     string          `json:"entry_type"`
	RecordCode                    string          `json:"record_code"`
	RecordDescription             string          `json:"record_description"`
	Amount                        decimal.Decimal `json:"amount"`
	ReceiptCode                   string          `json:"receipt_code,omitempty"`
	DeliveryMethod                string          `json:"delivery_method,omitempty"`
	Name                          string          `json:"name,omitempty"`
	NameSource                    string          `json:"name_source,omitempty"`
	RecipientAccountNumber        string          `json:"recipient_account_number,omitempty"`
	RecipientAccountNumberChanged string          `json:"recipient_account_number_changed,omitempty"`
	RemittanceInfo                string          `json:"remittance_info,omitempty"`
	FormNumber                    string          `json:"form_number,omitempty"`
	LevelIdentifier               string          `json:"level_identifier,omitempty"`

	Messages       []string      `json:"messages,omitempty"`
	ClientMessages []string      `json:"client_messages,omitempty"`
	BankMessages   []string      `json:"bank_messages,omitempty"`
	Counts         *Counts       `json:"counts,omitempty"`
	Invoice        *Invoice      `json:"invoice,omitempty"`
	Card           *Card         `json:"card,omitempty"`
	Correction     *Correction   `json:"correction,omitempty"`
	Currency       *CurrencyInfo `json:"currency,omitempty"`
	Reason         *Reason       `json:"reason,omitempty"`
	NameDetail     string        `json:"name_detail,omitempty"`
	Sepa           *SepaInfo     `json:"sepa,omitempty"`
}

// Counts is the type 01 extra info sub-record.
type Counts struct {
	EntryCount int `json:"entry_count"`
}

// Invoice is the type 02 extra info sub-record.
type Invoice struct {
	CustomerNumber string `json:"customer_number"`
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceDate    string `json:"invoice_date"`
}

// Card is the type 03 extra info sub-record.
type Card struct {
	CardNumber        string `json:"card_number"`
	MerchantReference string `json:"merchant_reference"`
}

// Correction is the type 04 extra info sub-record, pointing at the entry
// being corrected.
type Correction struct {
	OriginalArchiveIdentifier string `json:"original_archive_identifier"`
}

// CurrencyInfo is the type 05 extra info sub-record carrying the original
// currency amount and exchange rate of a converted entry.
type CurrencyInfo struct {
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	ExchangeRate  string          `json:"exchange_rate"`
	RateReference string          `json:"rate_reference,omitempty"`
}

// Reason is the type 08 extra info sub-record.
type Reason struct {
	ReasonCode        string `json:"reason_code"`
	ReasonDescription string `json:"reason_description"`
}

// SepaInfo is the type 11 extra info sub-record with the SEPA counterparty
// details of an entry.
type SepaInfo struct {
	Reference           string `json:"reference,omitempty"`
	IBAN                string `json:"iban_account_number,omitempty"`
	BIC                 string `json:"bic_code,omitempty"`
	RecipientNameDetail string `json:"recipient_name_detail,omitempty"`
	PayerNameDetail     string `json:"payer_name_detail,omitempty"`
	Identifier          string `json:"identifier,omitempty"`
	ArchiveIdentifier   string `json:"archive_identifier,omitempty"`
}

// Balance is the T40 closing balance record.
type Balance struct {
	LineNumber       int             `json:"line_number"`
	RecordDate       time.Time       `json:"record_date"`
	EndBalance       decimal.Decimal `json:"end_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// Cumulative is a T50/T51 cumulative totals record.
type Cumulative struct {
	LineNumber        int             `json:"line_number"`
	PeriodIdentifier  string          `json:"period_identifier"`
	PeriodDate        time.Time       `json:"period_date"`
	DepositsCount     int             `json:"deposits_count"`
	DepositsAmount    decimal.Decimal `json:"deposits_amount"`
	WithdrawalsCount  int             `json:"withdrawals_count"`
	WithdrawalsAmount decimal.Decimal `json:"withdrawals_amount"`
}

// SpecialRecord is a T60/T70 bank-group specific record. Its free-form
// payload is preserved verbatim.
type SpecialRecord struct {
	LineNumber          int    `json:"line_number"`
	RecordType          string `json:"record_type"`
	BankGroupIdentifier string `json:"bank_group_identifier"`
	Payload             string `json:"payload,omitempty"`
}
