package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string
var verbose bool

// appConfig and logger are populated by the root PersistentPreRunE.
var appConfig *AppConfig
var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "vulnscan",
	Short: "Lightweight web vulnerability scanner (for authorized testing only)",
	Long: `vulnscan runs a fixed set of non-intrusive checks against a web target:
missing security headers, plaintext transport and exposed sensitive paths.
It can run once from the command line or as a REST API service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		appConfig = cfg

		l, err := newLogger(cmd.Name())
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger returns a production logger for the API service, a development
// console logger for one-shot commands run with --verbose, and a no-op logger
// otherwise so terminal output stays clean.
func newLogger(command string) (*zap.Logger, error) {
	switch {
	case command == serveCmd.Name():
		return zap.NewProduction()
	case verbose:
		return zap.NewDevelopment()
	default:
		return zap.NewNop(), nil
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vulnscan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logs, detailed version info)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}
