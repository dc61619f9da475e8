package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/ui"
)

var (
	addType   string
	addID     string
	removeYes bool
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage the configured devices",
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd, devicesAddCmd, devicesRemoveCmd)

	devicesAddCmd.Flags().StringVar(&addType, "type", "", "Device type (light or heater)")
	devicesAddCmd.Flags().StringVar(&addID, "id", "", "Device number (device_no in the page URL)")
	_ = devicesAddCmd.MarkFlagRequired("type")
	_ = devicesAddCmd.MarkFlagRequired("id")

	devicesRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, path, err := loadRegistry()
		if err != nil {
			return err
		}

		if len(reg.Devices) == 0 {
			fmt.Printf("No devices configured in %s.\n", path)
			return nil
		}

		fmt.Printf("%-20s  %-6s  %s\n", "NAME", "TYPE", "ID")
		for _, d := range reg.Devices {
			fmt.Printf("%-20s  %-6s  %s\n", d.Name, d.Type, d.ID)
		}
		return nil
	},
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a light or heater",
	Example: `  smartweb-cfg devices add "Living room" --type heater --id 1
  smartweb-cfg devices add Hall --type light --id 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := device.ParseType(addType); err != nil {
			return err
		}

		reg, path, err := loadRegistry()
		if err != nil {
			return err
		}

		d := config.Device{Name: args[0], Type: addType, ID: addID}
		if err := reg.AddDevice(d); err != nil {
			return err
		}
		if err := reg.SaveTo(path); err != nil {
			return err
		}

		ui.NewPrinter(nil).PrintSuccess("Device added",
			ui.Param{Key: "Name", Value: strings.TrimSpace(d.Name)},
			ui.Param{Key: "Type", Value: strings.ToLower(d.Type)},
			ui.Param{Key: "ID", Value: strings.TrimSpace(d.ID)},
		)
		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, path, err := loadRegistry()
		if err != nil {
			return err
		}

		d, ok := reg.FindDevice(args[0])
		if !ok {
			return fmt.Errorf("%w: %q", config.ErrDeviceNotFound, args[0])
		}

		if !removeYes && !ui.Confirm(os.Stdin, os.Stdout, "Remove device",
			[]string{fmt.Sprintf("%s (%s #%s) will be removed from %s", d.Name, d.Type, d.ID, path)},
			"Remove "+d.Name+"?") {
			return nil
		}

		if err := reg.RemoveDevice(d.Name); err != nil {
			return err
		}
		if err := reg.SaveTo(path); err != nil {
			return err
		}

		fmt.Printf("Removed %s.\n", d.Name)
		return nil
	},
}
