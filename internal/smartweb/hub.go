package smartweb

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/session"
	"github.com/muurk/smartweb/internal/urls"
	"github.com/muurk/smartweb/internal/webforms"
)

// RedirectMarker is the text a partial postback response carries when the
// server wants the browser to navigate elsewhere. After a login it means
// success; after any other postback it means the session is gone.
const RedirectMarker = "pageRedirect"

// Credentials identifies one SmartWeb account
type Credentials struct {
	Host     string
	Username string
	Password string
}

// Hub is a logged-in (or lazily logging-in) SmartWeb session
type Hub struct {
	creds         Credentials
	store         *session.Store
	authenticated bool
	lastErr       error
}

// New creates a hub for the given account. No request is made until the
// first operation.
func New(host, username, password string) (*Hub, error) {
	store, err := session.Open()
	if err != nil {
		return nil, err
	}

	return &Hub{
		creds: Credentials{
			Host:     urls.NormalizeHost(host),
			Username: username,
			Password: password,
		},
		store: store,
	}, nil
}

// Host returns the normalised SmartWeb base URL
func (h *Hub) Host() string {
	return h.creds.Host
}

// Username returns the account name the hub logs in with
func (h *Hub) Username() string {
	return h.creds.Username
}

// SetTimeout sets the per-request timeout
func (h *Hub) SetTimeout(timeout time.Duration) {
	h.store.SetTimeout(timeout)
}

// Authenticated reports whether the last login succeeded and no response
// since has shown the session to be gone.
func (h *Hub) Authenticated() bool {
	return h.authenticated
}

// LastError returns the classified error of the most recent failed operation
func (h *Hub) LastError() error {
	return h.lastErr
}

// VerifyCredentials performs one login attempt
func (h *Hub) VerifyCredentials(ctx context.Context) bool {
	return h.Login(ctx) == nil
}

// FetchDeviceState fetches a device detail page; see GetPage
func (h *Hub) FetchDeviceState(ctx context.Context, pageURL string) *webforms.Document {
	return h.GetPage(ctx, pageURL)
}

// SubmitDeviceCommand posts a button click to a device page; see SubmitCommand
func (h *Hub) SubmitDeviceCommand(ctx context.Context, pageURL string, payload url.Values) bool {
	return h.SubmitCommand(ctx, pageURL, payload)
}

// GetPage fetches pageURL, logging in again once if the session has expired.
// A nil result means the page state is unknown; callers should skip this
// cycle and try again later.
func (h *Hub) GetPage(ctx context.Context, pageURL string) *webforms.Document {
	resp, err := h.store.Request(ctx, http.MethodGet, pageURL, nil, nil)
	if err != nil {
		h.fail(ClassifyTransportError(OpGetPage, err), pageURL)
		return nil
	}

	if h.expiredGet(pageURL, resp) {
		h.expire(pageURL)
		if err := h.Login(ctx); err != nil {
			return nil
		}

		logging.LogSessionEvent(h.creds.Host, "relogin_retry", zap.String("url", pageURL))
		resp, err = h.store.Request(ctx, http.MethodGet, pageURL, nil, nil)
		if err != nil {
			h.fail(ClassifyTransportError(OpGetPage, err), pageURL)
			return nil
		}

		if h.expiredGet(pageURL, resp) {
			h.authenticated = false
			h.fail(newAuthError(OpGetPage, "still redirected to login page after re-login"), pageURL)
			return nil
		}
	}

	return webforms.Parse(resp.Body, resp.FinalURL)
}

// SubmitCommand posts a form-encoded partial postback to pageURL.
// The payload is sent as-is on the retry after a re-login; its WebForms
// tokens are not refreshed here.
// It reports whether the final response was 2xx.
func (h *Hub) SubmitCommand(ctx context.Context, pageURL string, payload url.Values) bool {
	body := payload.Encode()

	resp, err := h.store.Request(ctx, http.MethodPost, pageURL, strings.NewReader(body), postbackHeaders())
	if err != nil {
		h.fail(ClassifyTransportError(OpSubmit, err), pageURL)
		return false
	}

	if expiredPostback(resp) {
		h.expire(pageURL)
		if err := h.Login(ctx); err != nil {
			return false
		}

		logging.LogSessionEvent(h.creds.Host, "relogin_retry", zap.String("url", pageURL))
		resp, err = h.store.Request(ctx, http.MethodPost, pageURL, strings.NewReader(body), postbackHeaders())
		if err != nil {
			h.fail(ClassifyTransportError(OpSubmit, err), pageURL)
			return false
		}

		if expiredPostback(resp) {
			h.authenticated = false
			h.fail(newAuthError(OpSubmit, "session expired again after re-login"), pageURL)
			return false
		}
	}

	if !resp.OK() {
		h.fail(newStatusError(OpSubmit, resp.StatusCode), pageURL)
		return false
	}

	return true
}

func (h *Hub) expiredGet(pageURL string, resp *session.Response) bool {
	return urls.IsLoginPage(resp.FinalURL) && !urls.IsLoginPage(pageURL)
}

func expiredPostback(resp *session.Response) bool {
	return strings.Contains(string(resp.Body), RedirectMarker) || urls.IsLoginPage(resp.FinalURL)
}

func (h *Hub) expire(pageURL string) {
	h.authenticated = false
	logging.LogSessionEvent(h.creds.Host, "session_expired", zap.String("url", pageURL))
}

func (h *Hub) fail(err *Error, pageURL string) {
	h.lastErr = err
	fields := []zap.Field{
		zap.String("host", h.creds.Host),
		zap.String("url", pageURL),
		zap.Error(err),
	}
	if err.Kind == KindConnect {
		logging.Error("SmartWeb request failed", fields...)
		return
	}
	logging.Warn("SmartWeb request failed", fields...)
}

// postbackHeaders are the headers the ASP.NET AJAX runtime sends with an
// UpdatePanel partial postback.
func postbackHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	h.Set("X-MicrosoftAjax", "Delta=true")
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("Cache-Control", "no-cache")
	return h
}
