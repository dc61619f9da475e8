// Package logging provides structured logging for the SmartWeb client.
//
// This package wraps a global zap logger with convenience functions used by
// the hub, the device adapters and the polling bridge. Output is silent by
// default so one-shot CLI commands print only their own results.
//
// # Log Levels
//
//   - Debug: every HTTP exchange with the SmartWeb server (method, URL, status, timing)
//   - Info: session lifecycle (login, expiry, re-login) and device state changes
//   - Warn: recoverable failures (rejected login, stale page, failed command)
//   - Error: transport failures and bridge startup problems
//
// # Structured Logging
//
//	logging.Info("Device refreshed",
//	    zap.String("device", "living-room"),
//	    zap.Float64("setpoint", 22),
//	)
//
// Session lifecycle events share one message so they are easy to filter:
//
//	logging.LogSessionEvent(host, "session_expired")
//	logging.LogSessionEvent(host, "login_ok")
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When the level is empty the SMARTWEB_LOG_LEVEL environment variable is
// consulted; if that is unset too, a no-op logger is installed.
package logging
