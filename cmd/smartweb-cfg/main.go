// Smartweb-cfg configures and drives a SmartWeb home automation account.
//
// It stores the account and the device list in a YAML file, checks the
// credentials against the server and sends light and heater commands
// from the command line.
//
// Usage:
//
//	smartweb-cfg [command] [flags]
//
// Running without arguments launches the interactive setup wizard.
// See 'smartweb-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "smartweb-cfg",
	Short: "SmartWeb account and device utility",
	Long: `A command line utility for SmartWeb home automation accounts.

Stores the account and device list, verifies the login and switches
lights and heaters. The password is never written to disk: it is read
from SMARTWEB_PASSWORD (optionally via a .env file) or prompted for.

If no command is specified, the interactive setup wizard will launch.`,
	Version:      version.Get().Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(envFiles()...); err != nil {
			return err
		}
		return logging.Initialize(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runWizard,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $"+config.PathEnvVar+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(versionCmd)
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smartweb-cfg %s\n", version.Full())
	},
}
