package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux only")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join(dir, "smartweb") {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, filepath.Join(dir, "smartweb"))
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Setenv(PathEnvVar, "/tmp/custom.yaml")
	if p, _ := GetConfigPath(); p != "/tmp/custom.yaml" {
		t.Errorf("GetConfigPath() = %v, want the %s override", p, PathEnvVar)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.PollInterval() != 30*time.Second {
		t.Errorf("PollInterval() = %v, want 30s", reg.PollInterval())
	}
	if reg.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", reg.Timeout())
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("new registry does not validate: %v", err)
	}
	if reg.HasAccount() {
		t.Error("new registry has an account")
	}
}

func TestRegistryAddDevice(t *testing.T) {
	reg := NewRegistry()

	if err := reg.AddDevice(Device{Name: " Living room ", Type: "Heater", ID: "1"}); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	got := reg.Devices[0]
	if got.Name != "Living room" || got.Type != "heater" {
		t.Errorf("AddDevice() stored %+v, want trimmed and lower-cased type", got)
	}

	// same page under another name
	err := reg.AddDevice(Device{Name: "Lounge", Type: "heater", ID: "1"})
	if !errors.Is(err, ErrDuplicateDevice) {
		t.Errorf("AddDevice(duplicate type+id) error = %v, want ErrDuplicateDevice", err)
	}

	// same id, different type is a different page
	if err := reg.AddDevice(Device{Name: "Hall", Type: "light", ID: "1"}); err != nil {
		t.Errorf("AddDevice(light #1) error = %v", err)
	}

	err = reg.AddDevice(Device{Name: "hall", Type: "light", ID: "2"})
	if !errors.Is(err, ErrDuplicateDevice) {
		t.Errorf("AddDevice(duplicate name) error = %v, want ErrDuplicateDevice", err)
	}

	if len(reg.Devices) != 2 {
		t.Errorf("len(Devices) = %d, want 2", len(reg.Devices))
	}
}

func TestRegistryAddDeviceInvalid(t *testing.T) {
	tests := []struct {
		name string
		dev  Device
	}{
		{"no name", Device{Type: "light", ID: "1"}},
		{"bad type", Device{Name: "Fan", Type: "fan", ID: "1"}},
		{"no id", Device{Name: "Hall", Type: "light"}},
		{"id with query", Device{Name: "Hall", Type: "light", ID: "1&x=2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.AddDevice(tt.dev); err == nil {
				t.Errorf("AddDevice(%+v) accepted an invalid device", tt.dev)
			}
			if len(reg.Devices) != 0 {
				t.Error("invalid device was stored")
			}
		})
	}
}

func TestRegistryRemoveAndFind(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice(Device{Name: "Hall", Type: "light", ID: "3"})
	_ = reg.AddDevice(Device{Name: "Living", Type: "heater", ID: "1"})

	if d, ok := reg.FindDevice("HALL"); !ok || d.ID != "3" {
		t.Errorf("FindDevice(HALL) = %+v, %v", d, ok)
	}

	if err := reg.RemoveDevice("hall"); err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if _, ok := reg.FindDevice("Hall"); ok {
		t.Error("device still present after RemoveDevice()")
	}
	if err := reg.RemoveDevice("Hall"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("RemoveDevice(missing) error = %v, want ErrDeviceNotFound", err)
	}

	specs := reg.DeviceSpecs()
	if len(specs) != 1 || specs[0].Name != "Living" || specs[0].Type != "heater" || specs[0].ID != "1" {
		t.Errorf("DeviceSpecs() = %+v", specs)
	}
}

func TestRegistryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Registry)
		wantErr string
	}{
		{"valid", func(r *Registry) {}, ""},
		{"bad version", func(r *Registry) { r.Version = 2 }, "version"},
		{"bad host", func(r *Registry) { r.Host = "smartweb.local" }, "host"},
		{"poll too fast", func(r *Registry) { r.Preferences.PollInterval = 1 }, "poll_interval"},
		{"bad log level", func(r *Registry) { r.Preferences.LogLevel = "loud" }, "log_level"},
		{"missing preferences", func(r *Registry) { r.Preferences = nil }, "preferences"},
		{"bad device", func(r *Registry) { r.Devices = append(r.Devices, Device{Name: "X", Type: "fan", ID: "1"}) }, "type"},
		{"duplicate page", func(r *Registry) {
			r.Devices = append(r.Devices, Device{Name: "Again", Type: "heater", ID: "1"})
		}, "already configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.SetCredentials("http://192.168.0.10/", "owner")
			_ = reg.AddDevice(Device{Name: "Living", Type: "heater", ID: "1"})
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistrySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.SetCredentials("http://192.168.0.10/", " owner ")
	reg.Preferences.PollInterval = 60
	_ = reg.AddDevice(Device{Name: "Living", Type: "heater", ID: "1"})
	_ = reg.AddDevice(Device{Name: "Hall", Type: "light", ID: "3"})

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# SmartWeb Configuration File") {
		t.Error("saved file has no header comment")
	}
	if strings.Contains(strings.ToLower(string(data)), "password:") {
		t.Error("saved file contains a password field")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Host != "http://192.168.0.10" || loaded.Username != "owner" {
		t.Errorf("account = %q / %q", loaded.Host, loaded.Username)
	}
	if len(loaded.Devices) != 2 || loaded.Devices[1].Name != "Hall" {
		t.Errorf("Devices = %+v", loaded.Devices)
	}
	if loaded.PollInterval() != time.Minute {
		t.Errorf("PollInterval() = %v, want 1m", loaded.PollInterval())
	}
}

func TestRegistrySaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	reg := NewRegistry()
	reg.Host = "not a url"

	if err := reg.SaveTo(path); err == nil {
		t.Fatal("SaveTo() accepted an invalid registry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid registry was written")
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()

	if reg, err := LoadFrom(filepath.Join(dir, "missing.yaml")); err != nil || reg.Version != 1 {
		t.Errorf("LoadFrom(missing) = %+v, %v; want default registry", reg, err)
	}

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "version: [", "parse"},
		{"bad version", "version: 3\n", "unsupported config version"},
		{"bad device", "version: 1\ndevices:\n  - name: X\n    type: fan\n    id: \"1\"\n", "validate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFrom() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	// preferences are optional on disk
	path := filepath.Join(dir, "minimal.yaml")
	_ = os.WriteFile(path, []byte("version: 1\nhost: http://10.0.0.2\n"), 0600)
	reg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom(minimal) error = %v", err)
	}
	if reg.PollInterval() != 30*time.Second {
		t.Errorf("PollInterval() = %v, want default", reg.PollInterval())
	}
}

func TestGlobalRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(PathEnvVar, path)

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	reg.SetCredentials("http://10.0.0.2", "owner")
	if err := SaveGlobal(); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*Registry, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = LoadRegistry()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		if r != reg {
			t.Fatal("LoadRegistry() returned different instances")
		}
	}

	reloaded, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if reloaded == reg || reloaded.Username != "owner" {
		t.Errorf("ReloadRegistry() = %+v, want a fresh copy from disk", reloaded)
	}
}
