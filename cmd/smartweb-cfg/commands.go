package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/discovery"
	"github.com/muurk/smartweb/internal/ui"
	"github.com/muurk/smartweb/internal/wizard/tui"
)

var (
	outputFormat string
	scanTimeout  int
)

func init() {
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lightCmd)
	rootCmd.AddCommand(heaterCmd)
	rootCmd.AddCommand(scanCmd)

	statusCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, compact, json)")
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")

	lightCmd.AddCommand(
		deviceActionCmd("on <name>", "Switch a light on", device.TypeLight, device.ActionOn),
		deviceActionCmd("off <name>", "Switch a light off", device.TypeLight, device.ActionOff),
	)
	heaterCmd.AddCommand(heaterModeCmd, heaterPresetCmd, heaterTempCmd)
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive setup wizard",
	Long: `Launch the interactive setup wizard.

The wizard asks for the SmartWeb host, username and password, verifies
them with one login and then collects the lights and heaters to control.
Only the host, username and devices are saved.`,
	Example: `  smartweb-cfg wizard
  # Or simply (wizard is default):
  smartweb-cfg`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	reg, path, err := loadRegistry()
	if err != nil {
		return err
	}

	model := tui.NewAppModel(tui.Options{
		Registry: reg,
		Save:     func(r *config.Registry) error { return r.SaveTo(path) },
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}

	if app, ok := final.(tui.AppModel); ok && app.Saved {
		ui.NewPrinter(nil).PrintSuccess("Configuration saved",
			ui.Param{Key: "File", Value: path},
			ui.Param{Key: "Devices", Value: strconv.Itoa(len(app.Registry.Devices))},
		)
	}
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check the configured credentials with one login",
	Example: `  SMARTWEB_PASSWORD=secret smartweb-cfg login
  smartweb-cfg login --env-file ~/.smartweb.env`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := loadRegistry()
		if err != nil {
			return err
		}
		hub, err := openHub(reg)
		if err != nil {
			return err
		}

		runner := ui.NewRunner(ui.RunnerConfig{
			Title:     "Login",
			Command:   "smartweb-cfg login",
			Params:    []ui.Param{{Key: "Host", Value: hub.Host()}, {Key: "Username", Value: hub.Username()}},
			StepNames: []string{"Log in to SmartWeb"},
		})

		return runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
			onStep(1, ui.StepRunning, "")
			if err := hub.Login(ctx); err != nil {
				onStep(1, ui.StepFailed, "")
				return nil, err
			}
			onStep(1, ui.StepComplete, "")
			return []ui.Param{{Key: "Host", Value: hub.Host()}}, nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every configured device",
	Example: `  smartweb-cfg status
  smartweb-cfg status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	reg, _, err := loadRegistry()
	if err != nil {
		return err
	}
	set, err := openDevices(reg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	failed := 0
	for _, d := range set.All() {
		if err := d.Refresh(ctx); err != nil {
			failed++
			if outputFormat != "json" {
				fmt.Fprintf(os.Stderr, "%s: %v\n", d.Name(), err)
			}
		}
	}

	states := set.Snapshots()
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(states, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "compact":
		for _, s := range states {
			fmt.Println(s.FormatCompact())
		}
	default:
		fmt.Println(ui.RenderDeviceTable(states))
	}

	if failed > 0 && failed == set.Len() {
		return fmt.Errorf("no device could be read")
	}
	return nil
}

var lightCmd = &cobra.Command{
	Use:   "light",
	Short: "Switch lights",
}

var heaterCmd = &cobra.Command{
	Use:   "heater",
	Short: "Control heaters",
}

var heaterModeCmd = &cobra.Command{
	Use:       "mode <name> heat|off",
	Short:     "Set a heater's mode",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(device.ModeHeat), string(device.ModeOff)},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch device.Mode(args[1]) {
		case device.ModeHeat:
			return runDeviceCommand(cmd, args[0], device.TypeHeater, device.Command{Action: device.ActionHeat})
		case device.ModeOff:
			return runDeviceCommand(cmd, args[0], device.TypeHeater, device.Command{Action: device.ActionOff})
		}
		return fmt.Errorf("unknown mode %q (want heat or off)", args[1])
	},
}

var heaterPresetCmd = &cobra.Command{
	Use:   "preset <name> home|away",
	Short: "Set a heater's preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch device.Preset(args[1]) {
		case device.PresetHome:
			return runDeviceCommand(cmd, args[0], device.TypeHeater, device.Command{Action: device.ActionHome})
		case device.PresetAway:
			return runDeviceCommand(cmd, args[0], device.TypeHeater, device.Command{Action: device.ActionAway})
		}
		return fmt.Errorf("unknown preset %q (want home or away)", args[1])
	},
}

var heaterTempCmd = &cobra.Command{
	Use:     "temp <name> <celsius>",
	Short:   "Set a heater's target temperature",
	Example: `  smartweb-cfg heater temp Living 21`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		celsius, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q: %w", args[1], err)
		}
		return runDeviceCommand(cmd, args[0], device.TypeHeater, device.Command{Action: device.ActionTemp, Value: &celsius})
	},
}

// deviceActionCmd builds a "<action> <name>" subcommand
func deviceActionCmd(use, short string, t device.Type, action device.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeviceCommand(cmd, args[0], t, device.Command{Action: action})
		},
	}
}

func runDeviceCommand(cmd *cobra.Command, name string, t device.Type, command device.Command) error {
	reg, _, err := loadRegistry()
	if err != nil {
		return err
	}
	set, err := openDevices(reg)
	if err != nil {
		return err
	}
	d, err := lookupDevice(set, name, t)
	if err != nil {
		return err
	}

	label := string(command.Action)
	if command.Value != nil {
		label += " " + strconv.FormatFloat(*command.Value, 'f', -1, 64)
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     strings.ToUpper(string(t)) + " " + string(command.Action),
		Command:   cmd.CommandPath() + " " + name,
		Params:    []ui.Param{{Key: "Device", Value: d.Name()}, {Key: "Command", Value: label}},
		StepNames: []string{"Read device page", "Send " + label},
	})

	return runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
		onStep(1, ui.StepRunning, "")
		if err := d.Refresh(ctx); err != nil {
			onStep(1, ui.StepFailed, "")
			return nil, err
		}
		onStep(1, ui.StepComplete, d.Snapshot().FormatCompact())

		onStep(2, ui.StepRunning, "")
		if err := d.Execute(ctx, command); err != nil {
			onStep(2, ui.StepFailed, "")
			return nil, err
		}
		onStep(2, ui.StepComplete, "")

		return []ui.Param{{Key: "State", Value: d.Snapshot().Summary()}}, nil
	})
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the local network for SmartWeb bridges",
	Long: `Scan for running smartweb-server bridges using mDNS/DNS-SD.

Bridges advertise themselves as _smartweb._tcp with their version, the
SmartWeb host they drive and the API path.`,
	Example: `  smartweb-cfg scan
  smartweb-cfg scan --timeout 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Scanning for SmartWeb bridges (timeout: %ds)...\n\n", scanTimeout)

		bridges, err := discovery.Scan(cmd.Context(), time.Duration(scanTimeout)*time.Second)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(bridges) == 0 {
			fmt.Println("No bridges found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Start one with: smartweb-server server --advertise")
			fmt.Println("  - mDNS does not cross routers or most VPNs")
			fmt.Println("  - Try increasing --timeout")
			return nil
		}

		fmt.Printf("Found %d bridge(s):\n\n", len(bridges))
		for i, b := range bridges {
			fmt.Printf("%d. %s\n", i+1, b.Instance)
			fmt.Printf("   API:      %s%s\n", b.BaseURL(), b.GetMetadata(discovery.TXTAPI))
			if host := b.SmartWebHost(); host != "" {
				fmt.Printf("   SmartWeb: %s\n", host)
			}
			if v := b.Version(); v != "" {
				fmt.Printf("   Version:  %s\n", v)
			}
			fmt.Println()
		}
		return nil
	},
}
