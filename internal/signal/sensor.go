package signal

import (
	"context"
	"fmt"

	"github.com/showard/powerd/internal/domain/power"
)

// StateGetter is the slice of the iTach client the sensor source needs.
type StateGetter interface {
	GetState(ctx context.Context, module, port int) (power.Signal, error)
}

// SensorSource polls the contact-closure sensor wired to the iTach unit.
// Any transport or parse failure is reported as ErrUnavailable; the sensor
// never guesses.
type SensorSource struct {
	// device issues the getstate query.
	device StateGetter
	// module and port address the sensor connector.
	module int
	port   int
}

// NewSensorSource creates a source for the sensor on the given connector.
func NewSensorSource(device StateGetter, module, port int) *SensorSource {
	return &SensorSource{
		device: device,
		module: module,
		port:   port,
	}
}

// Poll queries the sensor state.
func (s *SensorSource) Poll(ctx context.Context) (power.Signal, error) {
	current, err := s.device.GetState(ctx, s.module, s.port)
	if err != nil {
		return power.SignalOff, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return current, nil
}
