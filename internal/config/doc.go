// Package config manages the SmartWeb client's YAML configuration file.
//
// The file names the SmartWeb host, the account to log in with and the
// device pages to control, plus a few preferences (bridge poll interval,
// request timeout, log level).
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/smartweb/config.yaml or $HOME/.config/smartweb/config.yaml
//   - macOS: $HOME/.config/smartweb/config.yaml
//   - Windows: %LOCALAPPDATA%\smartweb\config.yaml
//
// SMARTWEB_CONFIG overrides the location.
//
// # Example
//
//	version: 1
//	host: http://192.168.0.10
//	username: homeowner
//	devices:
//	  - name: Living room
//	    type: heater
//	    id: "1"
//	  - name: Hall
//	    type: light
//	    id: "3"
//	preferences:
//	  poll_interval: 30
//	  timeout: 10
//
// # Security
//
// The account password is never written to the file. ResolvePassword reads
// it from SMARTWEB_PASSWORD (which LoadEnvFiles can populate from a .env
// file) or prompts on the terminal.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and go through a temporary file.
package config
