// Package pain001 contains the command that renders SEPA credit transfer
// initiation files from a YAML payment batch.
package pain001

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mlindgren/bankfiles/cmd/root"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/sepa"
)

// Cmd is the pain001 command.
var Cmd = &cobra.Command{
	Use:   "pain001",
	Short: "Build a pain.001 credit transfer initiation from a YAML batch",
	Long: `Build an ISO 20022 pain.001.001.03 credit transfer initiation document.
The payments are read from the YAML file given with --input and the debtor
details come from the sepa.debtor section of the configuration.`,
	RunE: pain001Func,
}

var msgID string

func init() {
	Cmd.Flags().StringVar(&msgID, "msg-id", "", "Message identifier (default: a random UUID)")
}

// batchFile is the YAML shape of a payment batch.
type batchFile struct {
	Payments []batchPayment `yaml:"payments"`
}

type batchPayment struct {
	PaymentID      string `yaml:"payment_id"`
	EndToEndID     string `yaml:"end_to_end_id"`
	CreditorName   string `yaml:"creditor_name"`
	CreditorIBAN   string `yaml:"creditor_iban"`
	CreditorBIC    string `yaml:"creditor_bic"`
	Amount         string `yaml:"amount"`
	DueDate        string `yaml:"due_date"`
	RemittanceType string `yaml:"remittance_type"`
	RemittanceInfo string `yaml:"remittance_info"`
}

func pain001Func(cmd *cobra.Command, args []string) error {
	if root.SharedFlags.Input == "" {
		return fmt.Errorf("--input YAML file is required")
	}
	if root.SharedFlags.Output == "" {
		return fmt.Errorf("--output XML file is required")
	}

	batch, err := readBatch(root.SharedFlags.Input)
	if err != nil {
		return err
	}

	id := msgID
	if id == "" {
		id = uuid.NewString()
	}
	debtor := root.Cfg.Sepa.Debtor
	doc, err := sepa.NewPain001(id, debtor.Name, debtor.Account, debtor.BIC,
		debtor.OrgID, debtor.AddressLines, debtor.CountryCode)
	if err != nil {
		return err
	}

	for ix, p := range batch.Payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return fmt.Errorf("payment %d: invalid amount %q: %w", ix, p.Amount, err)
		}
		var dueDate time.Time
		if p.DueDate != "" {
			if dueDate, err = time.Parse("2006-01-02", p.DueDate); err != nil {
				return fmt.Errorf("payment %d: invalid due date %q: %w", ix, p.DueDate, err)
			}
		}
		remittanceType := p.RemittanceType
		if remittanceType == "" {
			remittanceType = sepa.RemittanceTypeMessage
		}
		if err := doc.AddPayment(p.PaymentID, p.CreditorName, p.CreditorIBAN, p.CreditorBIC,
			amount, p.RemittanceInfo, remittanceType, dueDate, p.EndToEndID); err != nil {
			return fmt.Errorf("payment %d: %w", ix, err)
		}
	}

	if err := doc.RenderToFile(root.SharedFlags.Output); err != nil {
		return err
	}
	root.Log.Info("wrote pain.001 initiation",
		logging.F("msg_id", id),
		logging.F("payments", doc.PaymentCount()),
		logging.F("control_sum", doc.ControlSum().StringFixed(2)))
	return nil
}

func readBatch(filename string) (*batchFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment batch: %w", err)
	}
	var batch batchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode payment batch: %w", err)
	}
	if len(batch.Payments) == 0 {
		return nil, fmt.Errorf("payment batch %s contains no payments", filename)
	}
	return &batch, nil
}
