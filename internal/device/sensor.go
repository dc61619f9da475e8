package device

import "context"

// SensorKind selects which heater temperature a sensor reports
type SensorKind string

const (
	SensorCurrent SensorKind = "current"
	SensorTarget  SensorKind = "target"
)

// TemperatureSensor is a read-only view of one heater temperature
type TemperatureSensor struct {
	heater *Heater
	kind   SensorKind
}

// NewTemperatureSensors returns the current and target sensors of h
func NewTemperatureSensors(h *Heater) []*TemperatureSensor {
	return []*TemperatureSensor{
		{heater: h, kind: SensorCurrent},
		{heater: h, kind: SensorTarget},
	}
}

// Kind returns whether the sensor reports the current or target temperature
func (s *TemperatureSensor) Kind() SensorKind {
	return s.kind
}

// Name returns e.g. "Living room Current Temperature"
func (s *TemperatureSensor) Name() string {
	if s.kind == SensorCurrent {
		return s.heater.Name() + " Current Temperature"
	}
	return s.heater.Name() + " Target Temperature"
}

// Refresh re-reads the heater page
func (s *TemperatureSensor) Refresh(ctx context.Context) error {
	return s.heater.Refresh(ctx)
}

// Value returns the temperature in °C. ok is false until the heater page has
// shown a readable temperature.
func (s *TemperatureSensor) Value() (celsius float64, ok bool) {
	s.heater.mu.RLock()
	defer s.heater.mu.RUnlock()

	if !s.heater.tempKnown {
		return 0, false
	}
	if s.kind == SensorCurrent {
		return s.heater.state.Current, true
	}
	return s.heater.state.Setpoint, true
}
