// Package parse contains the file parsing subcommands. Each subcommand
// decodes one interchange format, prints the result as JSON and optionally
// writes a flattened CSV export.
package parse

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mlindgren/bankfiles/cmd/root"
	"mlindgren/bankfiles/internal/aeb43parser"
	"mlindgren/bankfiles/internal/camtparser"
	"mlindgren/bankfiles/internal/models"
	"mlindgren/bankfiles/internal/sepa"
	"mlindgren/bankfiles/internal/svmparser"
	"mlindgren/bankfiles/internal/titoparser"
)

// Cmd is the parent parse command.
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a bank file and print it as JSON",
	Long: `Parse a bank interchange file into typed records and print them as JSON.
With --output the records are also flattened into a CSV file.`,
}

func init() {
	Cmd.AddCommand(titoCmd, svmCmd, aeb43Cmd, camt053Cmd, camt054Cmd, pain002Cmd)
}

var titoCmd = &cobra.Command{
	Use:   "tito",
	Short: "Parse a Finnish TITO account statement file",
	RunE:  titoFunc,
}

var svmCmd = &cobra.Command{
	Use:   "svm",
	Short: "Parse a Finnish incoming reference payment (SVM) file",
	RunE:  svmFunc,
}

var aeb43Cmd = &cobra.Command{
	Use:   "aeb43",
	Short: "Parse a Spanish AEB norm 43 account statement file",
	RunE:  aeb43Func,
}

var camt053Cmd = &cobra.Command{
	Use:   "camt053",
	Short: "Parse an ISO 20022 camt.053 bank to customer statement",
	RunE:  camt053Func,
}

var camt054Cmd = &cobra.Command{
	Use:   "camt054",
	Short: "Parse an ISO 20022 camt.054 debit credit notification",
	RunE:  camt054Func,
}

var pain002Cmd = &cobra.Command{
	Use:   "pain002",
	Short: "Parse an ISO 20022 pain.002 payment status report",
	RunE:  pain002Func,
}

func titoFunc(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if err := checkFormat(input, "TITO", titoparser.ValidateFormat); err != nil {
		return err
	}
	statements, err := titoparser.ParseFile(input)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, statements); err != nil {
		return err
	}
	return writeCSV(titoRows(statements))
}

func svmFunc(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if err := checkFormat(input, "SVM", svmparser.ValidateFormat); err != nil {
		return err
	}
	batches, err := svmparser.ParseFile(input)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, batches); err != nil {
		return err
	}
	return writeCSV(svmRows(batches))
}

func aeb43Func(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if err := checkFormat(input, "AEB43", aeb43parser.ValidateFormat); err != nil {
		return err
	}
	batches, err := aeb43parser.ParseFile(input)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, batches); err != nil {
		return err
	}
	return writeCSV(aeb43Rows(batches))
}

func camt053Func(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if err := checkFormat(input, "camt.053", camtparser.ValidateStatementFormat); err != nil {
		return err
	}
	statement, err := camtparser.ParseStatementFile(input)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, statement); err != nil {
		return err
	}
	return writeCSV(camt053Rows(statement))
}

func camt054Func(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if err := checkFormat(input, "camt.054", camtparser.ValidateNotificationFormat); err != nil {
		return err
	}
	notifications, err := camtparser.ParseNotificationFile(input)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, notifications); err != nil {
		return err
	}
	return writeCSV(camt054Rows(notifications))
}

func pain002Func(cmd *cobra.Command, args []string) error {
	input, err := requireInput()
	if err != nil {
		return err
	}
	if root.SharedFlags.Output != "" {
		return fmt.Errorf("pain.002 status reports have no CSV export")
	}
	if err := checkFormat(input, "pain.002", sepa.ValidatePain002Format); err != nil {
		return err
	}
	report, err := sepa.ParsePain002File(input)
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func requireInput() (string, error) {
	if root.SharedFlags.Input == "" {
		return "", fmt.Errorf("--input file is required")
	}
	return root.SharedFlags.Input, nil
}

func checkFormat(input, format string, validate func(string) (bool, error)) error {
	if !root.SharedFlags.Validate {
		return nil
	}
	ok, err := validate(input)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not a valid %s file", input, format)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func writeCSV[T any](rows []T) error {
	if root.SharedFlags.Output == "" {
		return nil
	}
	if err := models.WriteRowsToCSV(rows, root.SharedFlags.Output, root.Delimiter()); err != nil {
		return err
	}
	root.Log.Info("wrote CSV export")
	return nil
}
