package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/smartweb/internal/device"
)

// Defaults for a new registry
const (
	DefaultPollInterval = 30 // seconds
	DefaultTimeout      = 10 // seconds
	currentVersion      = 1
)

var (
	ErrDuplicateDevice = errors.New("device already configured")
	ErrDeviceNotFound  = errors.New("device not found")
)

// Registry represents the entire user configuration file.
// It names one SmartWeb account and the device pages to drive through it.
type Registry struct {
	Version     int          `yaml:"version" validate:"eq=1"`
	Host        string       `yaml:"host,omitempty" validate:"omitempty,http_url"`
	Username    string       `yaml:"username,omitempty"`
	Devices     []Device     `yaml:"devices,omitempty" validate:"dive"`
	Preferences *Preferences `yaml:"preferences,omitempty" validate:"required"`
}

// Device is one SmartWeb device page.
// ID is the page's device_no query parameter.
type Device struct {
	Name string `yaml:"name" validate:"required,max=64"`
	Type string `yaml:"type" validate:"required,oneof=light heater"`
	ID   string `yaml:"id" validate:"required,alphanum,max=16"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	PollInterval int    `yaml:"poll_interval" validate:"gte=5,lte=3600"` // seconds between bridge refreshes
	Timeout      int    `yaml:"timeout" validate:"gte=1,lte=120"`        // per-request timeout in seconds
	LogLevel     string `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Password is NEVER stored in the registry; see ResolvePassword.

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     currentVersion,
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}

// SetCredentials records the account to log in with
func (r *Registry) SetCredentials(host, username string) {
	r.Host = strings.TrimRight(strings.TrimSpace(host), "/")
	r.Username = strings.TrimSpace(username)
}

// HasAccount reports whether host and username are both set
func (r *Registry) HasAccount() bool {
	return r.Host != "" && r.Username != ""
}

// AddDevice appends d. A device with the same type and id, or the same
// name, is rejected.
func (r *Registry) AddDevice(d Device) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = strings.ToLower(strings.TrimSpace(d.Type))
	d.ID = strings.TrimSpace(d.ID)

	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid device: %w", err)
	}

	for _, existing := range r.Devices {
		if existing.Type == d.Type && existing.ID == d.ID {
			return fmt.Errorf("%w: %s #%s is %q", ErrDuplicateDevice, d.Type, d.ID, existing.Name)
		}
		if strings.EqualFold(existing.Name, d.Name) {
			return fmt.Errorf("%w: name %q is taken", ErrDuplicateDevice, d.Name)
		}
	}

	r.Devices = append(r.Devices, d)
	return nil
}

// RemoveDevice deletes the device with the given name (case-insensitive)
func (r *Registry) RemoveDevice(name string) error {
	for i, d := range r.Devices {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			r.Devices = append(r.Devices[:i], r.Devices[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// FindDevice returns the device with the given name (case-insensitive)
func (r *Registry) FindDevice(name string) (Device, bool) {
	for _, d := range r.Devices {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, true
		}
	}
	return Device{}, false
}

// DeviceSpecs converts the device list for device.NewSet
func (r *Registry) DeviceSpecs() []device.Spec {
	specs := make([]device.Spec, 0, len(r.Devices))
	for _, d := range r.Devices {
		specs = append(specs, device.Spec{Name: d.Name, Type: d.Type, ID: d.ID})
	}
	return specs
}

// PollInterval returns the bridge refresh interval
func (r *Registry) PollInterval() time.Duration {
	if r.Preferences == nil || r.Preferences.PollInterval <= 0 {
		return DefaultPollInterval * time.Second
	}
	return time.Duration(r.Preferences.PollInterval) * time.Second
}

// Timeout returns the per-request timeout
func (r *Registry) Timeout() time.Duration {
	if r.Preferences == nil || r.Preferences.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(r.Preferences.Timeout) * time.Second
}

// DeviceTypeDefinitions maps device type identifiers to human-readable names.
var DeviceTypeDefinitions = map[string]string{
	"light":  "Light switch",
	"heater": "Heater (thermostat + temperature sensors)",
}
