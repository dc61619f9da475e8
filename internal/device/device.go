package device

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Type is the kind of SmartWeb device page
type Type string

const (
	TypeLight  Type = "light"
	TypeHeater Type = "heater"
)

// ParseType converts a configured device type, ignoring case
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeLight, TypeHeater:
		return t, nil
	default:
		return "", fmt.Errorf("unknown device type %q (want %s or %s)", s, TypeLight, TypeHeater)
	}
}

// Action is a command verb accepted by Execute
type Action string

const (
	ActionOn   Action = "on"
	ActionOff  Action = "off"
	ActionHeat Action = "heat"
	ActionAway Action = "away"
	ActionHome Action = "home"
	ActionTemp Action = "temp"
)

// Command is one request to change a device.
// Value is only used by ActionTemp.
type Command struct {
	Action Action   `json:"action"`
	Value  *float64 `json:"value,omitempty"`
}

// State is a point-in-time view of a device, shaped for JSON output.
// Heater-only fields are empty for lights.
type State struct {
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	ID        string    `json:"id"`
	Available bool      `json:"available"`
	On        bool      `json:"on"`
	Mode      Mode      `json:"mode,omitempty"`
	Preset    Preset    `json:"preset,omitempty"`
	Setpoint  *float64  `json:"setpoint,omitempty"`
	Current   *float64  `json:"current,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SameReading reports whether s and o describe the same device reading,
// ignoring when they were taken.
func (s State) SameReading(o State) bool {
	return s.Name == o.Name &&
		s.Type == o.Type &&
		s.ID == o.ID &&
		s.Available == o.Available &&
		s.On == o.On &&
		s.Mode == o.Mode &&
		s.Preset == o.Preset &&
		sameFloat(s.Setpoint, o.Setpoint) &&
		sameFloat(s.Current, o.Current)
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Device is a SmartWeb device page driven through a Controller
type Device interface {
	Name() string
	ID() string
	Type() Type
	Refresh(ctx context.Context) error
	Snapshot() State
	Execute(ctx context.Context, cmd Command) error
}

// Spec describes one configured device
type Spec struct {
	Name string
	Type string
	ID   string
}

// New builds the device described by spec
func New(ctrl *Controller, spec Spec) (Device, error) {
	t, err := ParseType(spec.Type)
	if err != nil {
		return nil, err
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("device %q has no id", spec.Name)
	}

	switch t {
	case TypeLight:
		return NewLight(ctrl, spec.ID, spec.Name), nil
	default:
		return NewHeater(ctrl, spec.ID, spec.Name), nil
	}
}

// Set is a collection of devices addressed by name
type Set struct {
	devices []Device
	byName  map[string]Device
}

// NewSet builds every device in specs over one controller.
// Names are matched case-insensitively and must be unique.
func NewSet(ctrl *Controller, specs []Spec) (*Set, error) {
	s := &Set{byName: make(map[string]Device, len(specs))}

	for _, spec := range specs {
		d, err := New(ctrl, spec)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(d.Name())
		if _, dup := s.byName[key]; dup {
			return nil, fmt.Errorf("duplicate device name %q", d.Name())
		}
		s.byName[key] = d
		s.devices = append(s.devices, d)
	}

	return s, nil
}

// Lookup returns the device with the given name
func (s *Set) Lookup(name string) (Device, bool) {
	d, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// All returns the devices in configuration order
func (s *Set) All() []Device {
	return append([]Device(nil), s.devices...)
}

// Len returns the number of devices
func (s *Set) Len() int {
	return len(s.devices)
}

// Snapshots returns the cached state of every device, sorted by name
func (s *Set) Snapshots() []State {
	states := make([]State, 0, len(s.devices))
	for _, d := range s.devices {
		states = append(states, d.Snapshot())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// Sensors returns the temperature sensors of every heater in the set
func (s *Set) Sensors() []*TemperatureSensor {
	var sensors []*TemperatureSensor
	for _, d := range s.devices {
		if h, ok := d.(*Heater); ok {
			sensors = append(sensors, NewTemperatureSensors(h)...)
		}
	}
	return sensors
}
