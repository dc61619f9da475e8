package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/muurk/smartweb/internal/device"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, ts := newTestBridge(t)
	srv.poller.PollOnce(context.Background())

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var h Health
	decode(t, resp, &h)
	if h.Status != "ok" || h.Devices != 2 || h.Available != 2 || h.Polls != 1 {
		t.Errorf("health = %+v", h)
	}
	if h.LastPoll == nil {
		t.Error("last_poll should be set after a poll")
	}
	if h.Version.Version == "" {
		t.Error("version should be reported")
	}
}

func TestHealthz_DegradedWhenNothingAvailable(t *testing.T) {
	srv, hub, ts := newTestBridge(t)
	hub.set(func(f *fakeHub) { f.pages = map[string]string{} })
	srv.poller.PollOnce(context.Background())

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	var h Health
	decode(t, resp, &h)
	if h.Status != "degraded" {
		t.Errorf("status = %q, want degraded", h.Status)
	}
}

func TestListAndGetDevices(t *testing.T) {
	srv, _, ts := newTestBridge(t)
	srv.poller.PollOnce(context.Background())

	resp, err := http.Get(ts.URL + "/api/devices")
	if err != nil {
		t.Fatalf("GET /api/devices failed: %v", err)
	}
	var states []device.State
	decode(t, resp, &states)
	if len(states) != 2 || states[0].Name != "Hall" {
		t.Fatalf("devices = %+v", states)
	}

	resp, err = http.Get(ts.URL + "/api/devices/living")
	if err != nil {
		t.Fatalf("GET /api/devices/living failed: %v", err)
	}
	var living device.State
	decode(t, resp, &living)
	if living.Type != device.TypeHeater || living.Mode != device.ModeHeat {
		t.Errorf("living = %+v", living)
	}

	resp, err = http.Get(ts.URL + "/api/devices/garage")
	if err != nil {
		t.Fatalf("GET /api/devices/garage failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown device status = %d, want 404", resp.StatusCode)
	}
	var apiErr APIError
	decode(t, resp, &apiErr)
	if !strings.Contains(apiErr.Error, "garage") {
		t.Errorf("error = %q, want device name", apiErr.Error)
	}
}

func TestCommand_LightOn(t *testing.T) {
	srv, hub, ts := newTestBridge(t)

	resp := postJSON(t, ts.URL+"/api/devices/Hall/command", `{"action":"on"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var state device.State
	decode(t, resp, &state)
	if !state.On || !state.Available {
		t.Errorf("state = %+v, want on and available", state)
	}

	if hub.submitCount() != 1 {
		t.Errorf("submissions = %d, want 1", hub.submitCount())
	}
	if cached, _ := srv.poller.State("Hall"); !cached.On {
		t.Error("poller snapshot should reflect the command")
	}
}

func TestCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		device   string
		body     string
		reject   bool
		wantCode int
		wantHint bool
	}{
		{name: "unknown device", device: "Garage", body: `{"action":"on"}`, wantCode: http.StatusNotFound},
		{name: "malformed body", device: "Hall", body: `{"action":`, wantCode: http.StatusBadRequest},
		{name: "missing action", device: "Hall", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "unsupported action", device: "Hall", body: `{"action":"away"}`, wantCode: http.StatusBadRequest},
		{name: "temperature out of range", device: "Living", body: `{"action":"temp","value":99}`, wantCode: http.StatusBadRequest},
		{name: "temperature without value", device: "Living", body: `{"action":"temp"}`, wantCode: http.StatusBadRequest},
		{name: "hub rejects", device: "Hall", body: `{"action":"off"}`, reject: true, wantCode: http.StatusBadGateway, wantHint: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, hub, ts := newTestBridge(t)
			hub.set(func(f *fakeHub) { f.reject = tt.reject })

			resp := postJSON(t, ts.URL+"/api/devices/"+tt.device+"/command", tt.body)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}

			var apiErr APIError
			decode(t, resp, &apiErr)
			if apiErr.Error == "" {
				t.Error("error message should not be empty")
			}
			if tt.wantHint && !strings.Contains(apiErr.Hint, "HTTP 500") {
				t.Errorf("hint = %q, want the upstream status", apiErr.Hint)
			}
			if !tt.wantHint && apiErr.Hint != "" {
				t.Errorf("unexpected hint %q", apiErr.Hint)
			}
		})
	}
}

func TestCommand_HeaterTemperature(t *testing.T) {
	_, hub, ts := newTestBridge(t)

	resp := postJSON(t, ts.URL+"/api/devices/Living/command", `{"action":"temp","value":24}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.submits) != 1 {
		t.Fatalf("submissions = %d, want 1", len(hub.submits))
	}
	if got := hub.submits[0].Get(device.SetpointField); got != "24" {
		t.Errorf("%s = %q, want 24", device.SetpointField, got)
	}
}
