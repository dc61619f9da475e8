package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/logging"
)

// DefaultPollInterval matches the SmartWeb page refresh cadence of the
// original integration
const DefaultPollInterval = 30 * time.Second

// Poller refreshes every device on a fixed interval and keeps the latest
// snapshot of each. Changed snapshots are passed to the change callback.
type Poller struct {
	devices  *device.Set
	interval time.Duration
	onChange func(device.State)

	// record orders store-then-broadcast so subscribers see changes in the
	// order they were stored
	record sync.Mutex

	mu       sync.RWMutex
	states   map[string]device.State
	lastPoll time.Time
	polls    int
}

// NewPoller creates a poller over devices. onChange may be nil.
func NewPoller(devices *device.Set, interval time.Duration, onChange func(device.State)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p := &Poller{
		devices:  devices,
		interval: interval,
		onChange: onChange,
		states:   make(map[string]device.State, devices.Len()),
	}
	for _, d := range devices.All() {
		p.states[d.Name()] = d.Snapshot()
	}
	return p
}

// Run polls immediately and then every interval until ctx is done
func (p *Poller) Run(ctx context.Context) {
	logging.Info("Poller started",
		zap.Duration("interval", p.interval),
		zap.Int("devices", p.devices.Len()),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.PollOnce(ctx)

		select {
		case <-ctx.Done():
			logging.Info("Poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// PollOnce refreshes every device once and returns how many snapshots changed.
// A device whose refresh fails is reported unavailable; the others are
// still refreshed.
func (p *Poller) PollOnce(ctx context.Context) int {
	changed := 0

	for _, d := range p.devices.All() {
		if ctx.Err() != nil {
			break
		}

		if err := d.Refresh(ctx); err != nil {
			logging.Warn("Device refresh failed",
				zap.String("device", d.Name()),
				zap.Error(err),
			)
		}

		if p.Record(d.Snapshot()) {
			changed++
		}
	}

	p.mu.Lock()
	p.lastPoll = time.Now()
	p.polls++
	p.mu.Unlock()

	logging.Debug("Poll complete", zap.Int("changed", changed))
	return changed
}

// Record stores state and reports whether it differs from the previous
// snapshot. Changes are passed to the change callback. A snapshot taken
// before the stored one is dropped.
func (p *Poller) Record(state device.State) bool {
	p.record.Lock()
	defer p.record.Unlock()

	p.mu.Lock()
	prev, seen := p.states[state.Name]
	if seen && state.UpdatedAt.Before(prev.UpdatedAt) {
		p.mu.Unlock()
		return false
	}
	p.states[state.Name] = state
	p.mu.Unlock()

	if seen && prev.SameReading(state) {
		return false
	}

	if p.onChange != nil {
		p.onChange(state)
	}
	return true
}

// State returns the latest snapshot of the named device
func (p *Poller) State(name string) (device.State, bool) {
	d, ok := p.devices.Lookup(name)
	if !ok {
		return device.State{}, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.states[d.Name()]
	return s, ok
}

// States returns the latest snapshot of every device, sorted by name
func (p *Poller) States() []device.State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]device.State, 0, len(p.states))
	for _, d := range p.devices.Snapshots() {
		if s, ok := p.states[d.Name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// LastPoll returns when the last full poll finished and how many have run
func (p *Poller) LastPoll() (time.Time, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll, p.polls
}
