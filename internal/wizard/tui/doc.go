// Package tui implements the interactive setup wizard of smartweb-cfg.
//
// The wizard is a Bubble Tea program with four screens:
//
//  1. Credentials: host (prefilled with "http://"), username and a masked
//     password field.
//  2. Verifying: a spinner while one login attempt runs in a tea.Cmd.
//     Failures return to the form with an invalid_auth or cannot_connect
//     message.
//  3. Devices: name, light/heater toggle and device number. Enter adds the
//     device and clears the form; enter on an empty form finishes.
//  4. Summary: the account and devices, saved to the configuration file.
//
// The password is only held in memory and is never written to disk.
//
// Usage:
//
//	app := tui.NewAppModel(tui.Options{Registry: reg})
//	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
//	    log.Fatal(err)
//	}
package tui
