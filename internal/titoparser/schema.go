package titoparser

import (
	"mlindgren/bankfiles/internal/fixedparser"
)

// AcceptedSuffixes lists the case-insensitive file suffixes recognized as
// account statement files.
var AcceptedSuffixes = []string{"TO", "TXT", "TITO"}

// Record type tags, first three characters of each line.
const (
	tagFileHeader     = "T00"
	tagEntry          = "T10"
	tagEntryAlt       = "T80"
	tagExtraInfo      = "T11"
	tagExtraInfoAlt   = "T81"
	tagBalance        = "T40"
	tagCumulative     = "T50"
	tagCumulativeCorr = "T51"
	tagSpecial60      = "T60"
	tagSpecial70      = "T70"
)

// Extra info sub-record type codes carried by T11/T81 continuation lines.
const (
	extraInfoMessages       = "00"
	extraInfoCounts         = "01"
	extraInfoInvoice        = "02"
	extraInfoCard           = "03"
	extraInfoCorrection     = "04"
	extraInfoCurrency       = "05"
	extraInfoClientMessages = "06"
	extraInfoBankMessages   = "07"
	extraInfoReason         = "08"
	extraInfoNameDetail     = "09"
	extraInfoSepa           = "11"
)

var fileHeaderSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	fixedparser.M("version", "X(3)"),
	fixedparser.M("account_number", "X(14)"),
	fixedparser.M("statement_number", "9(3)"),
	fixedparser.M("begin_date", "9(6)"),
	fixedparser.M("end_date", "9(6)"),
	fixedparser.M("record_date", "9(6)"),
	fixedparser.M("record_time", "9(4)"),
	fixedparser.M("customer_identifier", "X(17)"),
	fixedparser.M("begin_balance_date", "9(6)"),
	fixedparser.M("begin_balance_sign", "X"),
	fixedparser.M("begin_balance", "9(18)"),
	fixedparser.M("record_count", "9(6)"),
	fixedparser.M("currency_code", "X(3)"),
	fixedparser.O("account_name", "X(30)"),
	fixedparser.M("account_limit", "9(18)"),
	fixedparser.M("owner_name", "X(35)"),
	fixedparser.M("contact_info_1", "X(40)"),
	fixedparser.O("contact_info_2", "X(40)"),
	fixedparser.O("bank_specific_info_1", "X(30)"),
	fixedparser.O("iban_and_bic", "X(30)"),
)

var entrySchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	fixedparser.M("record_number", "9(6)"),
	fixedparser.O("archive_identifier", "X(18)"),
	fixedparser.M("record_date", "9(6)"),
	fixedparser.O("value_date", "9(6)"),
	fixedparser.O("paid_date", "9(6)"),
	// 1 = deposit, 2 = withdrawal, 3/4 = corrections, 9 = rejected
	fixedparser.M("entry_type", "X"),
	fixedparser.M("record_code", "X(3)"),
	fixedparser.M("record_description", "X(35)"),
	fixedparser.M("amount_sign", "X"),
	fixedparser.M("amount", "9(18)"),
	fixedparser.M("receipt_code", "X"),
	fixedparser.M("delivery_method", "X"),
	fixedparser.O("name", "X(35)"),
	fixedparser.O("name_source", "X"),
	fixedparser.O("recipient_account_number", "X(14)"),
	fixedparser.O("recipient_account_number_changed", "X"),
	fixedparser.O("remittance_info", "X(20)"),
	fixedparser.O("form_number", "X(8)"),
	fixedparser.M("level_identifier", "X"),
)

var extraInfoHeaderSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	fixedparser.M("extra_info_type", "9(2)"),
)

var extraInfoCountsSchema = fixedparser.NewSchema(
	fixedparser.M("entry_count", "9(8)"),
)

var extraInfoInvoiceSchema = fixedparser.NewSchema(
	fixedparser.M("customer_number", "X(10)"),
	fixedparser.M("pad01", "X"),
	fixedparser.M("invoice_number", "X(15)"),
	fixedparser.M("pad02", "X"),
	fixedparser.M("invoice_date", "X(6)"),
)

var extraInfoCardSchema = fixedparser.NewSchema(
	fixedparser.M("card_number", "X(19)"),
	fixedparser.M("pad01", "X"),
	fixedparser.M("merchant_reference", "X(14)"),
)

var extraInfoCorrectionSchema = fixedparser.NewSchema(
	fixedparser.M("original_archive_identifier", "X(18)"),
)

var extraInfoCurrencySchema = fixedparser.NewSchema(
	fixedparser.M("amount_sign", "X"),
	fixedparser.M("amount", "9(18)"),
	fixedparser.M("pad01", "X"),
	fixedparser.M("currency_code", "X(3)"),
	fixedparser.M("pad02", "X"),
	fixedparser.M("exchange_rate", "9(11)"),
	fixedparser.O("rate_reference", "X(6)"),
)

var extraInfoReasonSchema = fixedparser.NewSchema(
	fixedparser.M("reason_code", "9(3)"),
	fixedparser.M("pad01", "X"),
	fixedparser.M("reason_description", "X(31)"),
)

var extraInfoNameDetailSchema = fixedparser.NewSchema(
	fixedparser.M("name_detail", "X(35)"),
)

var extraInfoSepaSchema = fixedparser.NewSchema(
	fixedparser.O("reference", "X(35)"),
	fixedparser.O("iban_account_number", "X(35)"),
	fixedparser.O("bic_code", "X(35)"),
	fixedparser.O("recipient_name_detail", "X(70)"),
	fixedparser.O("payer_name_detail", "X(70)"),
	fixedparser.O("identifier", "X(35)"),
	fixedparser.O("archive_identifier", "X(35)"),
)

var balanceSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	fixedparser.M("record_date", "9(6)"),
	fixedparser.M("end_balance_sign", "X"),
	fixedparser.M("end_balance", "9(18)"),
	fixedparser.M("available_balance_sign", "X"),
	fixedparser.M("available_balance", "9(18)"),
)

var cumulativeSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	// 1=day, 2=term, 3=month, 4=year
	fixedparser.M("period_identifier", "X"),
	fixedparser.M("period_date", "9(6)"),
	fixedparser.M("deposits_count", "9(8)"),
	fixedparser.M("deposits_sign", "X"),
	fixedparser.M("deposits_amount", "9(18)"),
	fixedparser.M("withdrawals_count", "9(8)"),
	fixedparser.M("withdrawals_sign", "X"),
	fixedparser.M("withdrawals_amount", "9(18)"),
)

var specialSchema = fixedparser.NewSchema(
	fixedparser.M("statement_type", "X"),
	fixedparser.M("record_type", "XX"),
	fixedparser.M("record_length", "9(3)"),
	fixedparser.M("bank_group_identifier", "X(3)"),
)
