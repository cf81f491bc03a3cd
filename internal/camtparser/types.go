package camtparser

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a statement entry by money direction.
type EntryKind string

const (
	// Deposit is a credit entry (CRDT).
	Deposit EntryKind = "deposit"
	// Withdrawal is a debit entry (DBIT).
	Withdrawal EntryKind = "withdrawal"
)

// Statement is a decoded camt.053 bank-to-customer statement.
type Statement struct {
	IBAN               string             `json:"iban"`
	BIC                string             `json:"bic"`
	StatementID        string             `json:"statement_identifier"`
	StatementNumber    string             `json:"statement_number"`
	CreatedAt          time.Time          `json:"record_date"`
	BeginDate          time.Time          `json:"begin_date"`
	EndDate            time.Time          `json:"end_date"`
	Currency           string             `json:"currency_code"`
	OwnerName          string             `json:"owner_name"`
	BeginBalance       decimal.Decimal    `json:"begin_balance"`
	BeginBalanceDate   time.Time          `json:"begin_balance_date"`
	RecordCount        int                `json:"record_count"`
	BankSpecificInfo   string             `json:"bank_specific_info_1,omitempty"`
	Records            []*StatementRecord `json:"records"`
}

// StatementRecord is one booked entry of a statement.
type StatementRecord struct {
	ArchiveIdentifier string          `json:"archive_identifier,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency_code"`
	Kind              EntryKind       `json:"entry_kind"`
	BookingDate       time.Time       `json:"record_date"`
	ValueDate         time.Time       `json:"value_date"`
	Domain            string          `json:"record_domain,omitempty"`
	RecordCode        string          `json:"record_code,omitempty"`
	FamilyCode        string          `json:"family_code,omitempty"`
	SubFamilyCode     string          `json:"sub_family_code,omitempty"`
	Description       string          `json:"record_description,omitempty"`

	// Filled from details when absent at the entry level and the details
	// agree on a single value.
	Name                   string    `json:"name,omitempty"`
	RecipientAccountNumber string    `json:"recipient_account_number,omitempty"`
	RemittanceInfo         string    `json:"remittance_info,omitempty"`
	PaidDate               time.Time `json:"paid_date,omitempty"`

	Details []*RecordDetail `json:"details,omitempty"`
}

// RecordDetail is one transaction detail nested under an entry.
type RecordDetail struct {
	BatchIdentifier    string            `json:"batch_identifier,omitempty"`
	Amount             decimal.Decimal   `json:"amount"`
	Currency           string            `json:"currency_code,omitempty"`
	InstructedAmount   decimal.Decimal   `json:"instructed_amount"`
	Exchange           *CurrencyExchange `json:"exchange,omitempty"`
	ArchiveIdentifier  string            `json:"archive_identifier,omitempty"`
	EndToEndIdentifier string            `json:"end_to_end_identifier,omitempty"`

	DebtorName            string `json:"debtor_name,omitempty"`
	UltimateDebtorName    string `json:"ultimate_debtor_name,omitempty"`
	CreditorName          string `json:"creditor_name,omitempty"`
	CreditorAccount       string `json:"creditor_account,omitempty"`
	CreditorAccountScheme string `json:"creditor_account_scheme,omitempty"`

	UnstructuredRemittanceInfo string            `json:"unstructured_remittance_info,omitempty"`
	RemittanceInfos            []*RemittanceInfo `json:"remittance_infos,omitempty"`
	PaidDate                   time.Time         `json:"paid_date,omitempty"`
}

// CurrencyExchange describes the conversion applied to a detail whose
// instructed currency differs from the transaction currency.
type CurrencyExchange struct {
	SourceCurrency string          `json:"source_currency"`
	TargetCurrency string          `json:"target_currency"`
	UnitCurrency   string          `json:"unit_currency,omitempty"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
}

// RemittanceInfo is one structured remittance element of a detail.
type RemittanceInfo struct {
	AdditionalInfo string          `json:"additional_info,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency_code,omitempty"`
	Reference      string          `json:"reference,omitempty"`
}

// Notification is a decoded camt.054 debit/credit notification.
type Notification struct {
	Identification string                `json:"identification"`
	CreatedAt      time.Time             `json:"record_date"`
	IBAN           string                `json:"iban"`
	Currency       string                `json:"currency_code"`
	Records        []*NotificationRecord `json:"records"`
}

// NotificationRecord is one reference payment derived from a notification
// entry. An entry with several transaction details fans out into one record
// per detail sharing the entry's dates and kind.
type NotificationRecord struct {
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency_code"`
	Kind               EntryKind       `json:"entry_kind"`
	BookingDate        time.Time       `json:"record_date"`
	ValueDate          time.Time       `json:"value_date,omitempty"`
	ArchiveIdentifier  string          `json:"archive_identifier,omitempty"`
	EndToEndIdentifier string          `json:"end_to_end_identifier,omitempty"`
	PayerName          string          `json:"payer_name,omitempty"`
	PayerBIC           string          `json:"payer_bic,omitempty"`
	RemittanceInfo     string          `json:"remittance_info,omitempty"`
}
