// Smartweb-server bridges a SmartWeb account to a local REST and WebSocket API.
//
// It logs in to SmartWeb with the account from the smartweb-cfg
// configuration file, polls the configured lights and heaters and serves
// their state. Commands posted to the API are forwarded to SmartWeb.
//
// Usage:
//
//	smartweb-server server [flags]
//
// See 'smartweb-server server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/server"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smartweb-server",
	Short: "SmartWeb bridge server",
	Long: `A bridge between a SmartWeb home automation account and local clients.

The bridge keeps one SmartWeb session, polls every configured device and
exposes the state over HTTP (/api/devices) and WebSocket (/ws).

Note: Use 'smartweb-cfg' to set up the account and the device list.`,
	Version:      version.Get().Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	configPath   string
	envFile      string
	listen       string
	logLevel     string
	advertise    bool
	instanceName string
	certPath     string
	keyPath      string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bridge",
	Long: `Start the bridge and serve the configured devices.

The SmartWeb password is read from SMARTWEB_PASSWORD (optionally via
--env-file) or prompted for when running on a terminal. Pass --cert and
--key to serve HTTPS.`,
	Example: `  # Serve on :8080
  SMARTWEB_PASSWORD=secret smartweb-server server

  # Announce the bridge on the local network
  smartweb-server server --advertise --instance living-room

  # Serve HTTPS with debug logging
  smartweb-server server --cert cert.pem --key key.pem --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&configPath, "config", "", "Configuration file (default: $"+config.PathEnvVar+" or the user config dir)")
	serverCmd.Flags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default: .env if present)")
	serverCmd.Flags().StringVar(&listen, "listen", ":8080", "Address to serve the API on")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serverCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the bridge via mDNS")
	serverCmd.Flags().StringVar(&instanceName, "instance", "", "mDNS instance name (default: hostname)")
	serverCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file (optional)")
	serverCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file (optional)")
}

func runServer(cmd *cobra.Command, args []string) error {
	if (certPath == "") != (keyPath == "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := config.LoadEnvFiles(files...); err != nil {
		return err
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if !reg.HasAccount() {
		return fmt.Errorf("no SmartWeb account configured: run smartweb-cfg first")
	}
	if len(reg.Devices) == 0 {
		return fmt.Errorf("no devices configured: add some with 'smartweb-cfg devices add'")
	}

	password, err := config.ResolvePassword(fmt.Sprintf("Password for %s@%s: ", reg.Username, reg.Host))
	if err != nil {
		return err
	}

	hub, err := smartweb.New(reg.Host, reg.Username, password)
	if err != nil {
		return err
	}
	hub.SetTimeout(reg.Timeout())

	set, err := device.NewSet(device.NewController(hub), reg.DeviceSpecs())
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Listen:       listen,
		PollInterval: reg.PollInterval(),
		LogLevel:     logLevel,
		Advertise:    advertise,
		InstanceName: instanceName,
		SmartWebHost: hub.Host(),
		CertPath:     certPath,
		KeyPath:      keyPath,
	}, set)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}

func loadRegistry() (*config.Registry, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}

	reg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	reg.ApplyEnv()
	return reg, nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smartweb-server %s\n", version.Full())
	},
}
