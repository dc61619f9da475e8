package smartweb

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func newTestHub(t *testing.T, f *fakeSmartWeb) *Hub {
	t.Helper()
	hub, err := New(f.URL()+"/", "user", "pa ss")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return hub
}

func TestLogin_Success(t *testing.T) {
	f := newFakeSmartWeb(t)
	hub := newTestHub(t, f)

	if err := hub.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !hub.Authenticated() {
		t.Error("Authenticated() = false after successful login")
	}
	if hub.LastError() != nil {
		t.Errorf("LastError() = %v, want nil", hub.LastError())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastPreLogin["ID"] != "user" || f.lastPreLogin["PW"] != "pa ss" {
		t.Errorf("pre-login body = %v", f.lastPreLogin)
	}
	if got := f.preLoginHeader.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Errorf("pre-login X-Requested-With = %q", got)
	}

	form := f.lastLoginForm
	want := map[string]string{
		"__VIEWSTATE":          "V1",
		"__VIEWSTATEGENERATOR": "G1",
		"__EVENTVALIDATION":    "E1",
		"__EVENTTARGET":        "btnLogin",
		"__EVENTARGUMENT":      "",
		"scriptmanager1":       "UpdatePanel1|btnLogin",
		"txtID":                "user",
		"txtPW":                "pa ss",
		"Hidden1":              "TOK1",
		"Hidden2":              "1",
		"__ASYNCPOST":          "true",
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Errorf("login form %s = %q, want %q", k, got, v)
		}
	}
	if got := f.lastHeaders.Get("X-MicrosoftAjax"); got != "Delta=true" {
		t.Errorf("login X-MicrosoftAjax = %q", got)
	}
}

func TestLogin_ErrorFragmentToken(t *testing.T) {
	f := newFakeSmartWeb(t)
	f.preLoginBody = `{"d":"<div>error</div>"}`
	hub := newTestHub(t, f)

	if hub.VerifyCredentials(context.Background()) {
		t.Fatal("VerifyCredentials() = true, want false")
	}
	if !IsAuthError(hub.LastError()) {
		t.Errorf("LastError() = %v, want auth error", hub.LastError())
	}
	if n := f.loginCount(); n != 0 {
		t.Errorf("login form submitted %d times, want 0", n)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fakeSmartWeb)
		check  func(error) bool
		wantOp string
	}{
		{
			name:   "pre-login 500",
			setup:  func(f *fakeSmartWeb) { f.preLoginStatus = http.StatusInternalServerError },
			check:  IsConnectError,
			wantOp: OpPreLogin,
		},
		{
			name:   "pre-login not JSON",
			setup:  func(f *fakeSmartWeb) { f.preLoginBody = "<html>maintenance</html>" },
			check:  IsAuthError,
			wantOp: OpPreLogin,
		},
		{
			name:   "pre-login empty token",
			setup:  func(f *fakeSmartWeb) { f.preLoginBody = `{"d":""}` },
			check:  IsAuthError,
			wantOp: OpPreLogin,
		},
		{
			name:   "login page without viewstate",
			setup:  func(f *fakeSmartWeb) { f.loginPageBody = "<html><body>maintenance</body></html>" },
			check:  IsProtocolError,
			wantOp: OpLoginPage,
		},
		{
			name:   "no pageRedirect",
			setup:  func(f *fakeSmartWeb) { f.submitBody = "1|#||4|10|updatePanel|UpdatePanel1|bad|" },
			check:  IsAuthError,
			wantOp: OpLoginSubmit,
		},
		{
			name:   "login submit 403",
			setup:  func(f *fakeSmartWeb) { f.submitStatus = http.StatusForbidden },
			check:  IsAuthError,
			wantOp: OpLoginSubmit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSmartWeb(t)
			tt.setup(f)
			hub := newTestHub(t, f)

			err := hub.Login(context.Background())
			if err == nil {
				t.Fatal("Login() error = nil, want error")
			}
			if !tt.check(err) {
				t.Errorf("Login() error = %v, wrong kind", err)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Login() error type = %T, want *Error", err)
			}
			if e.Op != tt.wantOp {
				t.Errorf("Error.Op = %q, want %q", e.Op, tt.wantOp)
			}
			if hub.Authenticated() {
				t.Error("Authenticated() = true after failed login")
			}
			if hub.LastError() != err {
				t.Errorf("LastError() = %v, want %v", hub.LastError(), err)
			}
		})
	}
}

func TestLogin_StatusCodeRecorded(t *testing.T) {
	f := newFakeSmartWeb(t)
	f.preLoginStatus = http.StatusBadGateway
	hub := newTestHub(t, f)

	err := hub.Login(context.Background())
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Login() error type = %T, want *Error", err)
	}
	if e.StatusCode != http.StatusBadGateway || e.Subtype != NetworkStatus {
		t.Errorf("Error = %+v, want status 502 with NetworkStatus subtype", e)
	}
}

func TestVerifyCredentials_Twice(t *testing.T) {
	f := newFakeSmartWeb(t)
	hub := newTestHub(t, f)
	ctx := context.Background()

	if !hub.VerifyCredentials(ctx) {
		t.Fatal("first VerifyCredentials() = false")
	}
	if !hub.VerifyCredentials(ctx) {
		t.Fatal("second VerifyCredentials() = false")
	}

	_, pre, submit, _, _ := f.hits()
	if pre != 2 || submit != 2 {
		t.Errorf("pre-login hits = %d, submit hits = %d, want 2 and 2", pre, submit)
	}
}

func TestLogin_DropsOldSessionCookie(t *testing.T) {
	f := newFakeSmartWeb(t)
	hub := newTestHub(t, f)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := hub.Login(ctx); err != nil {
			t.Fatalf("Login() #%d error = %v", i+1, err)
		}
	}

	f.mu.Lock()
	carried := f.carriedCookie
	f.mu.Unlock()
	if carried != 0 {
		t.Errorf("%d login page request(s) sent the previous session cookie", carried)
	}
}

func TestLogin_Unreachable(t *testing.T) {
	f := newFakeSmartWeb(t)
	hub := newTestHub(t, f)
	f.server.Close()

	err := hub.Login(context.Background())
	if !IsConnectError(err) {
		t.Fatalf("Login() error = %v, want connect error", err)
	}
	if Hint(err) == "" {
		t.Error("Hint() is empty")
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{false, ""},
		{true, "true"},
		{float64(42), "42"},
	}
	for _, tt := range tests {
		if got := tokenString(tt.in); got != tt.want {
			t.Errorf("tokenString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
