package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartweb/internal/device"
)

// RenderDeviceTable renders one row per device snapshot
func RenderDeviceTable(states []device.State) string {
	if len(states) == 0 {
		return StepPendingStyle.Render("  No devices configured. Add one with: smartweb-cfg devices add")
	}

	nameWidth := len("NAME")
	for _, s := range states {
		if n := lipgloss.Width(s.Name); n > nameWidth {
			nameWidth = n
		}
	}

	row := func(name, kind, id, status string) string {
		return fmt.Sprintf("  %-*s  %-6s  %-4s  %s", nameWidth, name, kind, id, status)
	}

	lines := []string{TableHeaderStyle.Render(row("NAME", "TYPE", "ID", "STATE"))}
	for _, s := range states {
		lines = append(lines, row(s.Name, string(s.Type), s.ID, renderStatus(s)))
	}
	return strings.Join(lines, "\n")
}

func renderStatus(s device.State) string {
	if !s.Available {
		return DeviceUnavailStyle.Render("unavailable")
	}

	if s.Type == device.TypeLight {
		if s.On {
			return DeviceOnStyle.Render("ON")
		}
		return DeviceOffStyle.Render("OFF")
	}

	mode := DeviceOffStyle.Render(string(s.Mode))
	if s.Mode == device.ModeHeat {
		mode = DeviceHeatStyle.Render(string(s.Mode))
	}
	out := mode + ", " + string(s.Preset)
	if s.Setpoint != nil {
		out += fmt.Sprintf(", set %.1f°C", *s.Setpoint)
	}
	return out
}
