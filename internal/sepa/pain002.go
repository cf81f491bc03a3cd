package sepa

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mlindgren/bankfiles/internal/fileutils"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/parsererror"
	"mlindgren/bankfiles/internal/xmlutils"
)

// StatusReportSuffixes lists the case-insensitive file suffixes recognized as
// pain.002 payment status report files.
var StatusReportSuffixes = []string{"XP", "XML"}

// pain.002 wire contract tag set. All values are strings, so no int tags.
var pain002ArrayTags = []string{"StsRsnInf", "OrgnlPmtInfAndSts", "TxInfAndSts", "NbOfTxsPerSts"}

// Group and transaction status codes carried by pain.002 messages.
const (
	StatusAcceptedCustomerProfile = "ACCP"
	StatusAcceptedSettlement      = "ACSC"
	StatusAcceptedInProcess       = "ACSP"
	StatusAcceptedTechnical       = "ACTC"
	StatusAcceptedWithChange      = "ACWC"
	StatusPartiallyAccepted       = "PART"
	StatusPending                 = "PDNG"
	StatusRejected                = "RJCT"
)

func statusAccepted(status string) bool {
	switch status {
	case StatusAcceptedCustomerProfile, StatusAcceptedSettlement, StatusAcceptedInProcess:
		return true
	}
	return false
}

// PaymentState is the status of one original payment information block, or,
// for partially accepted blocks, of one original transaction.
type PaymentState struct {
	OriginalPaymentInfoID string `json:"original_payment_info_id,omitempty"`
	OriginalEndToEndID    string `json:"original_end_to_end_id,omitempty"`
	Status                string `json:"group_status"`
	StatusReason          string `json:"status_reason,omitempty"`
}

// IsAccepted reports whether the payment was accepted.
func (s *PaymentState) IsAccepted() bool { return statusAccepted(s.Status) }

// IsTechnicallyAccepted reports technical acceptance pending settlement.
func (s *PaymentState) IsTechnicallyAccepted() bool { return s.Status == StatusAcceptedTechnical }

// IsAcceptedWithChange reports acceptance with modified payment details.
func (s *PaymentState) IsAcceptedWithChange() bool { return s.Status == StatusAcceptedWithChange }

// IsPartiallyAccepted reports a mixed per-transaction outcome.
func (s *PaymentState) IsPartiallyAccepted() bool { return s.Status == StatusPartiallyAccepted }

// IsPending reports that processing has not finished.
func (s *PaymentState) IsPending() bool { return s.Status == StatusPending }

// IsRejected reports rejection.
func (s *PaymentState) IsRejected() bool { return s.Status == StatusRejected }

// Pain002 is a decoded pain.002.001.03 payment status report.
type Pain002 struct {
	MsgID          string          `json:"msg_id"`
	OriginalMsgID  string          `json:"original_msg_id"`
	GroupStatus    string          `json:"group_status"`
	CreditDateTime time.Time       `json:"credit_datetime"`
	NumberOfTxs    int             `json:"number_of_txs"`
	PaymentStates  []*PaymentState `json:"payment_states"`
}

// IsAccepted reports whether the original message was accepted.
func (r *Pain002) IsAccepted() bool { return statusAccepted(r.GroupStatus) }

// IsTechnicallyAccepted reports technical acceptance pending settlement.
func (r *Pain002) IsTechnicallyAccepted() bool { return r.GroupStatus == StatusAcceptedTechnical }

// IsAcceptedWithChange reports acceptance with modified payment details.
func (r *Pain002) IsAcceptedWithChange() bool { return r.GroupStatus == StatusAcceptedWithChange }

// IsPartiallyAccepted reports a mixed per-payment outcome.
func (r *Pain002) IsPartiallyAccepted() bool { return r.GroupStatus == StatusPartiallyAccepted }

// IsPending reports that processing has not finished.
func (r *Pain002) IsPending() bool { return r.GroupStatus == StatusPending }

// IsRejected reports rejection.
func (r *Pain002) IsRejected() bool { return r.GroupStatus == StatusRejected }

func (r *Pain002) String() string {
	return fmt.Sprintf("%s: %s %s", r.MsgID, r.OriginalMsgID, r.GroupStatus)
}

// ParsePain002File checks the filename suffix, reads the file and decodes the
// payment status report it contains.
func ParsePain002File(filename string) (*Pain002, error) {
	if err := fileutils.CheckSuffix(filename, "pain.002", StatusReportSuffixes); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParsePain002(data)
}

// ValidatePain002Format reports whether a file is a pain.002 document.
func ValidatePain002Format(filename string) (bool, error) {
	if err := fileutils.CheckSuffix(filename, "pain.002", StatusReportSuffixes); err != nil {
		return false, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	return xmlutils.IsPaymentStatusReport(data), nil
}

// ParsePain002 decodes a pain.002.001.03 document. When the message carries
// no per-payment status blocks but has a group-level original message id and
// status, one payment state is synthesized from the group level so callers
// always receive at least one result for a well-formed message.
func ParsePain002(data []byte) (*Pain002, error) {
	root, err := xmlutils.Normalize(data, xmlutils.Options{ArrayTags: pain002ArrayTags})
	if err != nil {
		return nil, err
	}

	rpt := xmlutils.Child(root, "CstmrPmtStsRpt")
	grpHdr := xmlutils.Child(rpt, "GrpHdr")

	report := &Pain002{}
	if report.CreditDateTime, err = xmlutils.DateTime(grpHdr, "CreDtTm", "CstmrPmtStsRpt.GrpHdr.CreDtTm"); err != nil {
		return nil, err
	}
	if report.MsgID, err = xmlutils.RequireStr(grpHdr, "MsgId", "CstmrPmtStsRpt.GrpHdr.MsgId"); err != nil {
		return nil, err
	}

	grpInf := xmlutils.Child(rpt, "OrgnlGrpInfAndSts")
	report.OriginalMsgID = xmlutils.Str(grpInf, "OrgnlMsgId")
	report.GroupStatus = xmlutils.Str(grpInf, "GrpSts")
	if v := xmlutils.Str(grpInf, "OrgnlNbOfTxs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &parsererror.FieldValidationError{
				Field: "CstmrPmtStsRpt.OrgnlGrpInfAndSts.OrgnlNbOfTxs", Value: v, Msg: "integer format error",
			}
		}
		report.NumberOfTxs = n
	}

	for _, v := range xmlutils.List(rpt, "OrgnlPmtInfAndSts") {
		pmtInf := xmlutils.AsNode(v)
		state := &PaymentState{
			OriginalPaymentInfoID: xmlutils.Str(pmtInf, "OrgnlPmtInfId"),
			Status:                xmlutils.Str(pmtInf, "PmtInfSts"),
			StatusReason:          statusReason(pmtInf),
		}
		if state.OriginalPaymentInfoID == "" {
			return nil, &parsererror.FieldValidationError{Field: "CstmrPmtStsRpt.OrgnlPmtInfAndSts.OrgnlPmtInfId", Msg: "required element missing"}
		}
		if state.Status == "" {
			return nil, &parsererror.FieldValidationError{Field: "CstmrPmtStsRpt.OrgnlPmtInfAndSts.PmtInfSts", Msg: "required element missing"}
		}
		report.PaymentStates = append(report.PaymentStates, state)

		if state.Status != StatusPartiallyAccepted {
			continue
		}
		for _, t := range xmlutils.List(pmtInf, "TxInfAndSts") {
			txInf := xmlutils.AsNode(t)
			txState := &PaymentState{
				OriginalEndToEndID: xmlutils.Str(txInf, "OrgnlEndToEndId"),
				Status:             xmlutils.Str(txInf, "TxSts"),
				StatusReason:       statusReason(txInf),
			}
			if txState.OriginalEndToEndID == "" {
				return nil, &parsererror.FieldValidationError{Field: "CstmrPmtStsRpt.OrgnlPmtInfAndSts.TxInfAndSts.OrgnlEndToEndId", Msg: "required element missing"}
			}
			if txState.Status == "" {
				return nil, &parsererror.FieldValidationError{Field: "CstmrPmtStsRpt.OrgnlPmtInfAndSts.TxInfAndSts.TxSts", Msg: "required element missing"}
			}
			report.PaymentStates = append(report.PaymentStates, txState)
		}
	}

	if len(report.PaymentStates) == 0 && report.OriginalMsgID != "" && report.GroupStatus != "" {
		report.PaymentStates = append(report.PaymentStates, &PaymentState{Status: report.GroupStatus})
	}
	log.Info("decoded pain.002 status report",
		logging.F("msg_id", report.MsgID), logging.F("status", report.GroupStatus))
	return report, nil
}

// statusReason joins the additional info lines of a status block.
func statusReason(node xmlutils.Node) string {
	var lines []string
	for _, v := range xmlutils.List(node, "StsRsnInf") {
		if info := xmlutils.Str(xmlutils.AsNode(v), "AddtlInf"); info != "" {
			lines = append(lines, info)
		}
	}
	return strings.Join(lines, "\n")
}
