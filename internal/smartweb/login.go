package smartweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/urls"
	"github.com/muurk/smartweb/internal/webforms"
)

// Login form field names and fixed values
const (
	loginButton      = "btnLogin"
	loginPanelTarget = "UpdatePanel1|" + loginButton
)

// preLoginRequest is the body of the login web service call
type preLoginRequest struct {
	ID string `json:"ID"`
	PW string `json:"PW"`
}

// preLoginResponse is the ASP.NET script-service envelope; D carries the token
type preLoginResponse struct {
	D any `json:"d"`
}

// Login runs the full login handshake. It always starts from scratch, even
// when the current session may still be valid.
func (h *Hub) Login(ctx context.Context) error {
	h.authenticated = false
	logging.LogSessionEvent(h.creds.Host, "login_start", zap.String("username", h.creds.Username))

	if err := h.login(ctx); err != nil {
		h.lastErr = err
		logging.LogSessionEvent(h.creds.Host, "login_failed",
			zap.String("kind", err.Kind.String()),
			zap.String("op", err.Op),
			zap.Error(err),
		)
		return err
	}

	h.authenticated = true
	h.lastErr = nil
	logging.LogSessionEvent(h.creds.Host, "login_ok")
	return nil
}

func (h *Hub) login(ctx context.Context) *Error {
	loginURL := urls.LoginPage(h.creds.Host)

	// cookies from an earlier session must not leak into the new one
	if err := h.store.Reset(); err != nil {
		return &Error{Kind: KindConnect, Op: OpLoginPage, Message: "could not reset session cookies", Err: err}
	}

	// Start: the login page carries the WebForms tokens for the form postback
	page, err := h.store.Request(ctx, http.MethodGet, loginURL, nil, nil)
	if err != nil {
		return ClassifyTransportError(OpLoginPage, err)
	}

	tokens, ok := webforms.ExtractFormTokens(page.Body)
	if !ok {
		logging.LogBodySnippet("Login page without __VIEWSTATE", page.Body)
		return newProtocolError(OpLoginPage, "could not find __VIEWSTATE on login page")
	}

	// PreLogin: the web service exchanges the credentials for a one-shot token
	token, lerr := h.preLogin(ctx)
	if lerr != nil {
		return lerr
	}

	// Submit
	form := url.Values{}
	form.Set("scriptmanager1", loginPanelTarget)
	form.Set("__EVENTTARGET", loginButton)
	form.Set("__EVENTARGUMENT", "")
	tokens.Apply(form)
	form.Set("txtID", h.creds.Username)
	form.Set("txtPW", h.creds.Password)
	form.Set("Hidden2", "1")
	form.Set("Hidden1", token)
	form.Set("__ASYNCPOST", "true")

	resp, err := h.store.Request(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()), postbackHeaders())
	if err != nil {
		return ClassifyTransportError(OpLoginSubmit, err)
	}

	// Verify
	if !resp.OK() {
		e := newAuthError(OpLoginSubmit, fmt.Sprintf("login rejected with status %d", resp.StatusCode))
		e.StatusCode = resp.StatusCode
		return e
	}
	if !bytes.Contains(resp.Body, []byte(RedirectMarker)) {
		logging.LogBodySnippet("Login response without pageRedirect", resp.Body)
		return newAuthError(OpLoginSubmit, "pageRedirect not found in login response")
	}

	return nil
}

func (h *Hub) preLogin(ctx context.Context) (string, *Error) {
	body, err := json.Marshal(preLoginRequest{ID: h.creds.Username, PW: h.creds.Password})
	if err != nil {
		return "", newProtocolError(OpPreLogin, "failed to encode login request")
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json; charset=UTF-8")
	headers.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := h.store.Request(ctx, http.MethodPost, urls.LoginService(h.creds.Host), bytes.NewReader(body), headers)
	if err != nil {
		return "", ClassifyTransportError(OpPreLogin, err)
	}

	if !resp.OK() {
		return "", newStatusError(OpPreLogin, resp.StatusCode)
	}

	var envelope preLoginResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		logging.LogBodySnippet("Login service returned non-JSON", resp.Body)
		e := newAuthError(OpPreLogin, "login service returned an unreadable answer")
		e.Err = err
		return "", e
	}

	token := tokenString(envelope.D)
	if token == "" {
		return "", newAuthError(OpPreLogin, "login service returned no token")
	}

	// The service answers bad credentials with an HTML fragment in place of a token
	if strings.Contains(token, ">") {
		logging.Warn("Invalid login token received", zap.String("token", logging.Snippet([]byte(token))))
		return "", newAuthError(OpPreLogin, "login service returned an error fragment instead of a token")
	}

	return token, nil
}

func tokenString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(t)
	}
}
