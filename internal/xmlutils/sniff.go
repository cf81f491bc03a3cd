package xmlutils

import (
	"bytes"

	"gopkg.in/xmlpath.v2"
)

var (
	camt053Path = xmlpath.MustCompile("/Document/BkToCstmrStmt")
	camt054Path = xmlpath.MustCompile("/Document/BkToCstmrDbtCdtNtfctn")
	pain002Path = xmlpath.MustCompile("/Document/CstmrPmtStsRpt")
)

// IsBankToCustomerStatement reports whether the document is a camt.053
// bank-to-customer statement.
func IsBankToCustomerStatement(data []byte) bool {
	return matches(data, camt053Path)
}

// IsDebitCreditNotification reports whether the document is a camt.054
// debit/credit notification.
func IsDebitCreditNotification(data []byte) bool {
	return matches(data, camt054Path)
}

// IsPaymentStatusReport reports whether the document is a pain.002 customer
// payment status report.
func IsPaymentStatusReport(data []byte) bool {
	return matches(data, pain002Path)
}

func matches(data []byte, path *xmlpath.Path) bool {
	root, err := xmlpath.Parse(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return path.Exists(root)
}
