// Package root contains the root command for the application.
package root

import (
	"github.com/spf13/cobra"

	"mlindgren/bankfiles/internal/aeb43parser"
	"mlindgren/bankfiles/internal/camtparser"
	"mlindgren/bankfiles/internal/config"
	"mlindgren/bankfiles/internal/logging"
	"mlindgren/bankfiles/internal/sepa"
	"mlindgren/bankfiles/internal/svmparser"
	"mlindgren/bankfiles/internal/titoparser"
)

// CommonFlags holds the flags shared by several subcommands.
type CommonFlags struct {
	Input    string
	Output   string
	Validate bool
}

var (
	// Log is the shared logger instance for commands.
	Log = logging.Default()

	// Cfg is the loaded application configuration, set before any
	// subcommand runs.
	Cfg *config.Config

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "bankfiles",
		Short: "Parse bank interchange files and build SEPA payment initiations.",
		Long: `bankfiles decodes Finnish account statements (TITO), incoming reference
payments (SVM), Spanish AEB norm 43 statements and ISO 20022 camt.053,
camt.054 and pain.002 documents, and renders pain.001 credit transfer
initiations.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = cfg.Logger()

			titoparser.SetLogger(Log)
			svmparser.SetLogger(Log)
			aeb43parser.SetLogger(Log)
			camtparser.SetLogger(Log)
			sepa.SetLogger(Log)
			return nil
		},
	}

	// SharedFlags are the common flags accessible to all commands.
	SharedFlags = CommonFlags{}
)

// Init adds the persistent flags to the root command.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().BoolVarP(&SharedFlags.Validate, "validate", "v", false, "Validate file format before parsing")
}

// Delimiter returns the configured CSV delimiter.
func Delimiter() rune {
	if Cfg != nil && Cfg.CSV.Delimiter != "" {
		return []rune(Cfg.CSV.Delimiter)[0]
	}
	return ','
}
