package device

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/urls"
	"github.com/muurk/smartweb/internal/webforms"
)

const testHost = "http://smartweb.test"

func lightPage(on bool, viewState string) string {
	icon := "icon_b_light_off"
	if on {
		icon = MarkerLightOn
	}
	return `<html><body><form>
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="` + viewState + `" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="EV" />
<div class="` + icon + `"></div></form></body></html>`
}

func heaterPage(icon, setpoint string) string {
	return `<html><body><form>
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="HV" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="HG" />
<div class="` + icon + `"></div>
<input name="txtboxSetTemp" type="text" value="` + setpoint + `" id="txtboxSetTemp" />
</form></body></html>`
}

type submission struct {
	url     string
	payload url.Values
}

// fakeSession serves canned pages and records submissions.
// A URL with no page behaves like a hub whose fetch failed.
type fakeSession struct {
	mu       sync.Mutex
	pages    map[string]string
	reject   bool
	lastErr  error
	gets     int
	submits  []submission
	inFlight int
	overlap  bool
	delay    time.Duration
	// afterSubmit, when set, replaces the page served after a successful click
	afterSubmit map[string]string
}

func newFakeSession() *fakeSession {
	return &fakeSession{pages: map[string]string{}}
}

func (f *fakeSession) Host() string { return testHost }

func (f *fakeSession) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakeSession) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeSession) GetPage(ctx context.Context, pageURL string) *webforms.Document {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++
	body, ok := f.pages[pageURL]
	if !ok {
		f.lastErr = &smartweb.Error{Kind: smartweb.KindConnect, Op: smartweb.OpGetPage, Message: "request timed out"}
		return nil
	}
	return webforms.Parse([]byte(body), pageURL)
}

func (f *fakeSession) SubmitCommand(ctx context.Context, pageURL string, payload url.Values) bool {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.submits = append(f.submits, submission{url: pageURL, payload: payload})
	if f.reject {
		f.lastErr = &smartweb.Error{Kind: smartweb.KindConnect, Op: smartweb.OpSubmit, Message: "unexpected status code: 500", StatusCode: 500}
		return false
	}
	if next, ok := f.afterSubmit[pageURL]; ok {
		f.pages[pageURL] = next
	}
	return true
}

func (f *fakeSession) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *fakeSession) lastSubmit(t *testing.T) submission {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submits) == 0 {
		t.Fatal("no command was submitted")
	}
	return f.submits[len(f.submits)-1]
}

func (f *fakeSession) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func lightURL(id string) string  { return urls.LightControl(testHost, id) }
func heaterURL(id string) string { return urls.HeaterControl(testHost, id) }
