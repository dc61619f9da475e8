package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/urls"
)

// MarkerLightOn is the status icon class of a lit circuit
const MarkerLightOn = "icon_b_light_on"

// LightState is the last known state of a light
type LightState struct {
	On bool
}

// Light is an on/off lighting circuit
type Light struct {
	ctrl *Controller
	id   string
	name string

	mu        sync.RWMutex
	state     LightState
	available bool
	updated   time.Time
}

// NewLight creates a light for device number id
func NewLight(ctrl *Controller, id, name string) *Light {
	return &Light{ctrl: ctrl, id: id, name: name}
}

func (l *Light) Name() string { return l.name }
func (l *Light) ID() string   { return l.id }
func (l *Light) Type() Type   { return TypeLight }

// URL returns the light's detail page
func (l *Light) URL() string {
	return urls.LightControl(l.ctrl.Host(), l.id)
}

// State returns the cached state and whether the last refresh succeeded
func (l *Light) State() (LightState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, l.available
}

// Refresh reads the light's page. On failure the last known state is kept
// and the light is marked unavailable.
func (l *Light) Refresh(ctx context.Context) error {
	doc, err := l.ctrl.Fetch(ctx, l.URL())
	if err != nil {
		l.markUnavailable()
		return err
	}

	l.set(LightState{On: doc.HasMarker(MarkerLightOn)})
	return nil
}

// TurnOn switches the light on
func (l *Light) TurnOn(ctx context.Context) error {
	return l.operate(ctx, true)
}

// TurnOff switches the light off
func (l *Light) TurnOff(ctx context.Context) error {
	return l.operate(ctx, false)
}

func (l *Light) operate(ctx context.Context, on bool) error {
	button := smartweb.ButtonOff
	if on {
		button = smartweb.ButtonOn
	}

	if err := l.ctrl.Click(ctx, l.URL(), button, nil); err != nil {
		logging.Warn("Light command failed",
			zap.String("device", l.name),
			zap.String("button", button),
			zap.Error(err),
		)
		return err
	}

	l.set(LightState{On: on})
	return nil
}

// Execute runs an on/off command
func (l *Light) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case ActionOn:
		return l.TurnOn(ctx)
	case ActionOff:
		return l.TurnOff(ctx)
	default:
		return fmt.Errorf("%w: light does not support %q", ErrUnsupportedAction, cmd.Action)
	}
}

// Snapshot returns the cached state
func (l *Light) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return State{
		Name:      l.name,
		Type:      TypeLight,
		ID:        l.id,
		Available: l.available,
		On:        l.state.On,
		UpdatedAt: l.updated,
	}
}

func (l *Light) set(state LightState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	l.available = true
	l.updated = time.Now()
}

func (l *Light) markUnavailable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available = false
}
