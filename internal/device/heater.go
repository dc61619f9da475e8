package device

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/urls"
	"github.com/muurk/smartweb/internal/webforms"
)

// Heater page markers and fields
const (
	MarkerBoilerOn   = "icon_b_boiler_on"
	MarkerBoilerAway = "icon_b_boiler_away"
	SetpointField    = "txtboxSetTemp"
)

// Setpoint limits accepted by the heater page
const (
	MinSetpoint     = 10.0
	MaxSetpoint     = 40.0
	DefaultSetpoint = 20.0
)

// Mode is the heater's operating mode
type Mode string

const (
	ModeHeat Mode = "heat"
	ModeOff  Mode = "off"
)

// Preset is the heater's occupancy preset
type Preset string

const (
	PresetHome Preset = "home"
	PresetAway Preset = "away"
)

// HeaterState is the last known state of a heater.
// The page exposes a single temperature field, so Current mirrors Setpoint.
type HeaterState struct {
	Mode     Mode
	Preset   Preset
	Setpoint float64
	Current  float64
}

// Heater is a boiler zone
type Heater struct {
	ctrl *Controller
	id   string
	name string

	mu        sync.RWMutex
	state     HeaterState
	tempKnown bool
	available bool
	updated   time.Time
}

// NewHeater creates a heater for device number id. Until the first refresh
// it reports off, home and the default setpoint.
func NewHeater(ctrl *Controller, id, name string) *Heater {
	return &Heater{
		ctrl: ctrl,
		id:   id,
		name: name,
		state: HeaterState{
			Mode:     ModeOff,
			Preset:   PresetHome,
			Setpoint: DefaultSetpoint,
		},
	}
}

func (h *Heater) Name() string { return h.name }
func (h *Heater) ID() string   { return h.id }
func (h *Heater) Type() Type   { return TypeHeater }

// URL returns the heater's detail page
func (h *Heater) URL() string {
	return urls.HeaterControl(h.ctrl.Host(), h.id)
}

// State returns the cached state and whether the last refresh succeeded
func (h *Heater) State() (HeaterState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.available
}

// Refresh reads the heater's page
func (h *Heater) Refresh(ctx context.Context) error {
	doc, err := h.ctrl.Fetch(ctx, h.URL())
	if err != nil {
		h.mu.Lock()
		h.available = false
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state, h.tempKnown = deriveHeaterState(doc, h.state, h.tempKnown)
	h.available = true
	h.updated = time.Now()

	logging.Debug("Heater refreshed",
		zap.String("device", h.name),
		zap.String("mode", string(h.state.Mode)),
		zap.String("preset", string(h.state.Preset)),
		zap.Float64("setpoint", h.state.Setpoint),
	)
	return nil
}

// deriveHeaterState reads mode, preset and setpoint from a heater page.
// The away icon wins over the on icon. A missing or unparsable setpoint
// keeps prev's value.
func deriveHeaterState(doc *webforms.Document, prev HeaterState, tempKnown bool) (HeaterState, bool) {
	next := prev

	switch {
	case doc.HasMarker(MarkerBoilerAway):
		next.Mode, next.Preset = ModeHeat, PresetAway
	case doc.HasMarker(MarkerBoilerOn):
		next.Mode, next.Preset = ModeHeat, PresetHome
	default:
		next.Mode, next.Preset = ModeOff, PresetHome
	}

	if raw, ok := doc.ControlValue(SetpointField); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			next.Setpoint = v
			next.Current = v
			tempKnown = true
		}
	}

	return next, tempKnown
}

// SetMode switches heating on (home preset) or off
func (h *Heater) SetMode(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeHeat:
		return h.command(ctx, smartweb.ButtonOn, h.setpoint())
	case ModeOff:
		return h.command(ctx, smartweb.ButtonOff, h.setpoint())
	default:
		return fmt.Errorf("%w: heater mode %q", ErrUnsupportedAction, mode)
	}
}

// SetPreset selects home or away. Selecting home while already heating at
// home sends nothing.
func (h *Heater) SetPreset(ctx context.Context, preset Preset) error {
	switch preset {
	case PresetAway:
		return h.command(ctx, smartweb.ButtonAway, h.setpoint())
	case PresetHome:
		state, _ := h.State()
		if state.Mode == ModeOff || state.Preset == PresetAway {
			return h.command(ctx, smartweb.ButtonOn, state.Setpoint)
		}
		return nil
	default:
		return fmt.Errorf("%w: heater preset %q", ErrUnsupportedAction, preset)
	}
}

// SetTemperature sets the target temperature in °C. The page only takes
// whole degrees; fractions are truncated. NaN is rejected.
func (h *Heater) SetTemperature(ctx context.Context, celsius float64) error {
	if !(celsius >= MinSetpoint && celsius <= MaxSetpoint) {
		return fmt.Errorf("%w: %.1f°C is outside %.0f-%.0f°C", ErrOutOfRange, celsius, MinSetpoint, MaxSetpoint)
	}
	return h.command(ctx, smartweb.ButtonTempSet, celsius)
}

// command clicks button with setpoint in the temperature field and refreshes
// on success.
func (h *Heater) command(ctx context.Context, button string, setpoint float64) error {
	extra := url.Values{SetpointField: {strconv.Itoa(int(setpoint))}}

	if err := h.ctrl.Click(ctx, h.URL(), button, extra); err != nil {
		logging.Warn("Heater command failed",
			zap.String("device", h.name),
			zap.String("button", button),
			zap.Error(err),
		)
		return err
	}

	if err := h.Refresh(ctx); err != nil {
		logging.Warn("Heater refresh after command failed", zap.String("device", h.name), zap.Error(err))
	}
	return nil
}

func (h *Heater) setpoint() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Setpoint
}

// Execute runs a heater command. "on" is accepted as "heat".
func (h *Heater) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case ActionOn, ActionHeat:
		return h.SetMode(ctx, ModeHeat)
	case ActionOff:
		return h.SetMode(ctx, ModeOff)
	case ActionAway:
		return h.SetPreset(ctx, PresetAway)
	case ActionHome:
		return h.SetPreset(ctx, PresetHome)
	case ActionTemp:
		if cmd.Value == nil {
			return fmt.Errorf("%w: temp needs a value", ErrOutOfRange)
		}
		return h.SetTemperature(ctx, *cmd.Value)
	default:
		return fmt.Errorf("%w: heater does not support %q", ErrUnsupportedAction, cmd.Action)
	}
}

// Snapshot returns the cached state
func (h *Heater) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	setpoint := h.state.Setpoint
	s := State{
		Name:      h.name,
		Type:      TypeHeater,
		ID:        h.id,
		Available: h.available,
		On:        h.state.Mode == ModeHeat,
		Mode:      h.state.Mode,
		Preset:    h.state.Preset,
		Setpoint:  &setpoint,
		UpdatedAt: h.updated,
	}
	if h.tempKnown {
		current := h.state.Current
		s.Current = &current
	}
	return s
}
