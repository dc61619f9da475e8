package smartweb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorKind is the category of a hub failure
type ErrorKind int

const (
	// KindConnect covers transport failures and non-2xx answers from
	// infrastructure endpoints
	KindConnect ErrorKind = iota
	// KindAuth covers rejected credentials and unrecognised login tokens
	KindAuth
	// KindProtocol covers pages that do not have the expected shape
	KindProtocol
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindConnect:
		return "Connect Error"
	case KindAuth:
		return "Authentication Error"
	case KindProtocol:
		return "Protocol Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// NetworkSubtype refines KindConnect errors caused by the transport
type NetworkSubtype int

const (
	NetworkGeneral NetworkSubtype = iota
	NetworkTimeout
	NetworkConnectionRefused
	NetworkDNS
	NetworkHostUnreachable
	NetworkStatus // the server answered with a non-2xx status
)

// Error is a classified hub failure.
// Op names the protocol step that failed (see the Op* constants).
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int
	Subtype    NetworkSubtype
	Err        error
}

// Protocol steps reported in Error.Op
const (
	OpLoginPage   = "login_page"
	OpPreLogin    = "pre_login"
	OpLoginSubmit = "login_submit"
	OpGetPage     = "get_page"
	OpSubmit      = "submit_command"
)

// Error implements the error interface
func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Op != "" {
		prefix += " (" + e.Op + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyTransportError wraps a network error from the session store into a
// KindConnect error with the most specific subtype available.
func ClassifyTransportError(op string, err error) *Error {
	if err == nil {
		return nil
	}

	e := &Error{
		Kind:    KindConnect,
		Op:      op,
		Message: "network error",
		Err:     err,
		Subtype: NetworkGeneral,
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded):
		e.Message = "request timed out"
		e.Subtype = NetworkTimeout
	case errors.As(err, &dnsErr):
		e.Message = fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
		e.Subtype = NetworkDNS
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED):
		e.Message = "server refused connection"
		e.Subtype = NetworkConnectionRefused
	case errors.As(err, &opErr) && (errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH)):
		e.Message = "host unreachable"
		e.Subtype = NetworkHostUnreachable
	}

	// url.Error already names the URL; keep the message short
	var urlErr *url.Error
	if errors.As(err, &urlErr) && e.Subtype == NetworkGeneral {
		e.Message = fmt.Sprintf("%s request failed", strings.ToUpper(urlErr.Op))
	}

	return e
}

func newStatusError(op string, status int) *Error {
	return &Error{
		Kind:       KindConnect,
		Op:         op,
		Message:    fmt.Sprintf("unexpected status code: %d", status),
		StatusCode: status,
		Subtype:    NetworkStatus,
	}
}

func newAuthError(op, message string) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: message}
}

func newProtocolError(op, message string) *Error {
	return &Error{Kind: KindProtocol, Op: op, Message: message}
}

func kindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsConnectError reports whether err is a transport or infrastructure failure
func IsConnectError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConnect
}

// IsAuthError reports whether err is a credential or token failure
func IsAuthError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAuth
}

// IsProtocolError reports whether err is an unexpected page shape
func IsProtocolError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindProtocol
}

// Hint returns user-facing troubleshooting advice for a hub error
func Hint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Kind {
	case KindAuth:
		return strings.Join([]string{
			"The SmartWeb server rejected the login.",
			"Troubleshooting:",
			"  • Check the username and password in the web UI first",
			"  • The account may be locked after repeated failures",
		}, "\n")

	case KindProtocol:
		return strings.Join([]string{
			"The server returned a page that was not recognised.",
			"This is usually transient while the server is under load.",
			"Troubleshooting:",
			"  • Retry in a few seconds",
			"  • Check that the host URL points at the SmartWeb root",
		}, "\n")
	}

	switch e.Subtype {
	case NetworkTimeout:
		return strings.Join([]string{
			"The SmartWeb server did not respond in time.",
			"Troubleshooting:",
			"  • Check that the host is reachable from this machine",
			"  • The server may be overloaded, retry later",
		}, "\n")
	case NetworkDNS:
		return "Could not resolve the SmartWeb host name. Check the host URL."
	case NetworkConnectionRefused, NetworkHostUnreachable:
		return "The SmartWeb server is not reachable. Check the host URL and your network."
	case NetworkStatus:
		return fmt.Sprintf("The SmartWeb server returned HTTP %d.", e.StatusCode)
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("The SmartWeb server returned HTTP %d.", e.StatusCode)
	}
	return "Network communication failed. Check your connection."
}
