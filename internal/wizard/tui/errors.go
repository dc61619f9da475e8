package tui

import "github.com/muurk/smartweb/internal/smartweb"

// Error codes shown on the credentials form
const (
	ErrorInvalidAuth   = "invalid_auth"
	ErrorCannotConnect = "cannot_connect"
	ErrorUnknown       = "unknown"
)

var errorMessages = map[string]string{
	ErrorInvalidAuth:   "Invalid username or password.",
	ErrorCannotConnect: "Cannot connect to the SmartWeb server. Check the host URL.",
	ErrorUnknown:       "Unexpected error while logging in.",
}

// errorCode classifies a login failure for display
func errorCode(err error) string {
	switch {
	case smartweb.IsAuthError(err):
		return ErrorInvalidAuth
	case smartweb.IsConnectError(err):
		return ErrorCannotConnect
	default:
		return ErrorUnknown
	}
}
