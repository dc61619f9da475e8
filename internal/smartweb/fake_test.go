package smartweb

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/smartweb/internal/urls"
)

const (
	testLoginPage = `<html><body><form id="form1">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="V1" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="G1" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="E1" />
</form></body></html>`

	testHeaterPage = `<html><body><form>
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="HV" />
<div class="icon_b_boiler_on"></div>
<input name="txtboxSetTemp" type="text" value="22" id="txtboxSetTemp" />
</form></body></html>`

	testLoginOK       = `1|#||4|50|pageRedirect||%2fSmartWeb%2fMy_Home%2fMain.aspx|`
	testCommandOK     = `1|#||4|120|updatePanel|UpdatePanel1|<div class="icon_b_boiler_on"></div>|`
	testCommandExpiry = `1|#||4|40|pageRedirect||%2fSmartWeb%2fDefault.aspx|`

	sessionCookie = "SW_AUTH"
)

// fakeSmartWeb is an in-process stand-in for a SmartWeb server.
// A login issues a session cookie bound to the current generation;
// expireSessions bumps the generation so every issued cookie goes stale.
type fakeSmartWeb struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex

	loginPageBody  string
	preLoginStatus int
	preLoginBody   string
	submitStatus   int
	submitBody     string
	devicePage     string
	commandStatus  int
	commandBody    string

	// alwaysExpired makes every device request behave as if the session were gone
	alwaysExpired bool

	generation int

	loginPageHits   int
	carriedCookie   int // login page GETs that still sent the session cookie
	preLoginHits    int
	loginSubmitHits int
	deviceGets      int
	devicePosts     int

	lastPreLogin   map[string]string
	lastLoginForm  url.Values
	lastCommand    url.Values
	lastHeaders    http.Header
	preLoginHeader http.Header
}

func newFakeSmartWeb(t *testing.T) *fakeSmartWeb {
	t.Helper()

	f := &fakeSmartWeb{
		t:              t,
		loginPageBody:  testLoginPage,
		preLoginStatus: http.StatusOK,
		preLoginBody:   `{"d":"TOK1"}`,
		submitStatus:   http.StatusOK,
		submitBody:     testLoginOK,
		devicePage:     testHeaterPage,
		commandStatus:  http.StatusOK,
		commandBody:    testCommandOK,
		generation:     1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(urls.LoginPagePath, f.handleLogin)
	mux.HandleFunc(urls.LoginServicePath, f.handlePreLogin)
	mux.HandleFunc(urls.HeaterControlPath, f.handleDevice)
	mux.HandleFunc(urls.LightControlPath, f.handleDevice)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeSmartWeb) URL() string {
	return f.server.URL
}

func (f *fakeSmartWeb) heaterURL() string {
	return urls.HeaterControl(f.server.URL, "1")
}

func (f *fakeSmartWeb) expireSessions() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
}

func (f *fakeSmartWeb) hits() (loginPage, preLogin, submit, gets, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginPageHits, f.preLoginHits, f.loginSubmitHits, f.deviceGets, f.devicePosts
}

// loginCount counts login form submissions. Login page GETs are not a
// good measure since expired GETs are redirected there too.
func (f *fakeSmartWeb) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginSubmitHits
}

func (f *fakeSmartWeb) set(fn func(f *fakeSmartWeb)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeSmartWeb) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodGet {
		f.loginPageHits++
		if _, err := r.Cookie(sessionCookie); err == nil {
			f.carriedCookie++
		}
		_, _ = io.WriteString(w, f.loginPageBody)
		return
	}

	f.loginSubmitHits++
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("login submit: ParseForm() error = %v", err)
	}
	f.lastLoginForm = r.PostForm
	f.lastHeaders = r.Header.Clone()

	if f.submitStatus == http.StatusOK && strings.Contains(f.submitBody, "pageRedirect") {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: fmt.Sprint(f.generation), Path: "/"})
	}
	w.WriteHeader(f.submitStatus)
	_, _ = io.WriteString(w, f.submitBody)
}

func (f *fakeSmartWeb) handlePreLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.preLoginHits++
	f.preLoginHeader = r.Header.Clone()

	data, _ := io.ReadAll(r.Body)
	f.lastPreLogin = map[string]string{}
	if err := json.Unmarshal(data, &f.lastPreLogin); err != nil {
		f.t.Errorf("pre-login body is not JSON: %q", data)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(f.preLoginStatus)
	_, _ = io.WriteString(w, f.preLoginBody)
}

func (f *fakeSmartWeb) validSession(r *http.Request) bool {
	if f.alwaysExpired {
		return false
	}
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == fmt.Sprint(f.generation)
}

func (f *fakeSmartWeb) handleDevice(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodGet {
		f.deviceGets++
		if !f.validSession(r) {
			http.Redirect(w, r, urls.LoginPagePath+"?ReturnUrl="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		_, _ = io.WriteString(w, f.devicePage)
		return
	}

	f.devicePosts++
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("command: ParseForm() error = %v", err)
	}
	f.lastCommand = r.PostForm
	f.lastHeaders = r.Header.Clone()

	if !f.validSession(r) {
		_, _ = io.WriteString(w, testCommandExpiry)
		return
	}
	w.WriteHeader(f.commandStatus)
	_, _ = io.WriteString(w, f.commandBody)
}

// newBlockingServer returns the URL of a server whose handlers never answer
// until block is closed.
func newBlockingServer(t *testing.T, block chan struct{}) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	return srv.URL
}
