package server

import (
	"context"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/urls"
	"github.com/muurk/smartweb/internal/webforms"
)

const testHost = "http://smartweb.test"

func lightPage(on bool) string {
	icon := "icon_b_light_off"
	if on {
		icon = device.MarkerLightOn
	}
	return `<html><body><form>
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="LV" />
<div class="` + icon + `"></div></form></body></html>`
}

func heaterPage(icon, setpoint string) string {
	return `<html><body><form>
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="HV" />
<div class="` + icon + `"></div>
<input name="txtboxSetTemp" type="text" value="` + setpoint + `" id="txtboxSetTemp" />
</form></body></html>`
}

// fakeHub serves canned device pages. A URL with no page fails like an
// unreachable server; reject makes every submission fail.
type fakeHub struct {
	mu      sync.Mutex
	pages   map[string]string
	reject  bool
	lastErr error
	submits []url.Values
}

func newFakeHub() *fakeHub {
	return &fakeHub{pages: map[string]string{
		urls.LightControl(testHost, "2"):  lightPage(false),
		urls.HeaterControl(testHost, "1"): heaterPage(device.MarkerBoilerOn, "22"),
	}}
}

func (f *fakeHub) Host() string { return testHost }

func (f *fakeHub) GetPage(ctx context.Context, pageURL string) *webforms.Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, ok := f.pages[pageURL]
	if !ok {
		f.lastErr = &smartweb.Error{Kind: smartweb.KindConnect, Op: smartweb.OpGetPage, Message: "connection refused", Subtype: smartweb.NetworkConnectionRefused}
		return nil
	}
	return webforms.Parse([]byte(body), pageURL)
}

func (f *fakeHub) SubmitCommand(ctx context.Context, pageURL string, payload url.Values) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submits = append(f.submits, payload)
	if f.reject {
		f.lastErr = &smartweb.Error{Kind: smartweb.KindConnect, Op: smartweb.OpSubmit, Message: "unexpected status code: 500", StatusCode: 500, Subtype: smartweb.NetworkStatus}
		return false
	}
	if pageURL == urls.LightControl(testHost, "2") {
		f.pages[pageURL] = lightPage(payload.Get(smartweb.ButtonOn+".x") != "")
	}
	return true
}

func (f *fakeHub) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *fakeHub) set(fn func(f *fakeHub)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeHub) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func newTestDevices(t *testing.T, hub *fakeHub) *device.Set {
	t.Helper()

	set, err := device.NewSet(device.NewController(hub), []device.Spec{
		{Name: "Living", Type: "heater", ID: "1"},
		{Name: "Hall", Type: "light", ID: "2"},
	})
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	return set
}

// newTestBridge returns a bridge over a fake hub and an HTTP server for its API
func newTestBridge(t *testing.T) (*Server, *fakeHub, *httptest.Server) {
	t.Helper()

	hub := newFakeHub()
	srv, err := New(&Config{Listen: "127.0.0.1:0"}, newTestDevices(t, hub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.feed.Close()
		ts.Close()
	})
	return srv, hub, ts
}
