package itach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/showard/powerd/internal/domain/power"
	"github.com/showard/powerd/internal/logger"
)

// Relay pulses one contact-closure output: close, dwell, open, settle.
// The pulse emulates a momentary front-panel power button press against
// the amplifier's trigger input.
type Relay struct {
	// client is the transport to the unit hosting the relay.
	client *Client
	// module and port address the relay connector.
	module int
	port   int
	// closeDwell is how long the contact stays closed.
	closeDwell time.Duration
	// openSettle is the pause after reopening, before the caller proceeds.
	openSettle time.Duration
}

// NewRelay creates a pulsed relay on the given connector.
func NewRelay(client *Client, module, port int, closeDwell, openSettle time.Duration) *Relay {
	return &Relay{
		client:     client,
		module:     module,
		port:       port,
		closeDwell: closeDwell,
		openSettle: openSettle,
	}
}

// Pulse closes the contact, waits the dwell, reopens it and waits the
// settle time. A malformed reply to the close command is logged and the
// open is still sent; the contact must never be left closed because of a
// confused acknowledgement. A connection-level failure aborts the pulse.
func (r *Relay) Pulse(ctx context.Context) error {
	if _, err := r.client.SetState(ctx, r.module, r.port, power.SignalOn); err != nil {
		if !errors.Is(err, ErrMalformedResponse) {
			return fmt.Errorf("relay close: %w", err)
		}

		logger.WarnKV(ctx, "Relay close acknowledgement malformed, opening anyway", "error", err)
	}

	time.Sleep(r.closeDwell)

	if _, err := r.client.SetState(ctx, r.module, r.port, power.SignalOff); err != nil {
		return fmt.Errorf("relay open: %w", err)
	}

	time.Sleep(r.openSettle)

	return nil
}
