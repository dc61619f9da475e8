package device

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the state
func (s State) Summary() string {
	if !s.Available {
		return fmt.Sprintf("%s (%s #%s): unavailable", s.Name, s.Type, s.ID)
	}

	switch s.Type {
	case TypeHeater:
		return fmt.Sprintf("%s (heater #%s): %s, %s, set %s", s.Name, s.ID, s.Mode, s.Preset, formatCelsius(s.Setpoint))
	default:
		return fmt.Sprintf("%s (light #%s): %s", s.Name, s.ID, onOff(s.On))
	}
}

// FormatCompact returns a multi-line block suitable for terminal display
func (s State) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Device:    %s\n", s.Name))
	b.WriteString(fmt.Sprintf("Type:      %s (#%s)\n", s.Type, s.ID))

	if !s.Available {
		b.WriteString("Status:    unavailable\n")
		return b.String()
	}

	switch s.Type {
	case TypeHeater:
		b.WriteString(fmt.Sprintf("Mode:      %s\n", s.Mode))
		b.WriteString(fmt.Sprintf("Preset:    %s\n", s.Preset))
		b.WriteString(fmt.Sprintf("Setpoint:  %s\n", formatCelsius(s.Setpoint)))
		b.WriteString(fmt.Sprintf("Current:   %s\n", formatCelsius(s.Current)))
	default:
		b.WriteString(fmt.Sprintf("Power:     %s\n", onOff(s.On)))
	}

	if !s.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated:   %s\n", s.UpdatedAt.Format("15:04:05")))
	}

	return b.String()
}

func formatCelsius(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.1f°C", *v)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
