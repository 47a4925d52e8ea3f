package daemon

import (
	"context"
	"time"

	"github.com/showard/powerd/internal/device/avr"
	"github.com/showard/powerd/internal/domain/power"
	"github.com/showard/powerd/internal/logger"
)

// RelayPulser is the relay capability the sequencer drives.
type RelayPulser interface {
	Pulse(ctx context.Context) error
}

// IREmitter is the infrared capability the sequencer drives.
type IREmitter interface {
	Emit(ctx context.Context, port int) error
}

// Waker is the wake-on-LAN capability the cold-start branch uses.
type Waker interface {
	Wake(ctx context.Context) error
}

// SequencerConfig wires the devices and delays into a sequencer.
type SequencerConfig struct {
	// Relay pulses the amplifier trigger input.
	Relay RelayPulser
	// IR emits the power-toggle code; PortA and PortB address the two
	// receivers wired to the unit.
	IR    IREmitter
	PortA int
	PortB int
	// Waker is optional; nil skips wake-on-LAN in the cold-start branch.
	Waker Waker
	// Receiver is optional; when present the cold-start branch brings it
	// out of standby after the wake.
	Receiver avr.Controller
	// ColdStart gates the one-time branch.
	ColdStart *ColdStart
	// ChargeDelay is the wait after the first relay pulse. It is the only
	// cancellation point of the power-on script.
	ChargeDelay time.Duration
	// IRGap spaces the two infrared emissions and precedes the final
	// relay pulse of the power-off script.
	IRGap time.Duration
}

// Sequencer runs the fixed device-action script for a transition
// direction. Steps are best-effort: a failing device is logged and the
// script moves on, because the next real transition is the retry.
type Sequencer struct {
	cfg SequencerConfig
}

// NewSequencer creates a sequencer from the wiring config.
func NewSequencer(cfg SequencerConfig) *Sequencer {
	return &Sequencer{cfg: cfg}
}

// sequenceResult reports how one script run resolved.
type sequenceResult struct {
	// transition is the transition the script ran for.
	transition power.Transition
	// coldStart is true when the one-time branch ran in this script.
	coldStart bool
	// failures counts steps whose device call failed.
	failures int
	// cancelled is true when the script aborted at the wait point.
	cancelled bool
}

// Run executes the script for the transition's direction. The cancel
// context is honored only at the charge-delay wait; steps already talking
// to a device always finish. On cancellation nothing may be persisted and
// the cold-start marker is left untouched.
func (s *Sequencer) Run(ctx, cancel context.Context, transition power.Transition) sequenceResult {
	result := sequenceResult{transition: transition}

	switch transition.Direction() {
	case power.DirectionPowerOn:
		s.powerOn(ctx, cancel, &result)
	case power.DirectionPowerOff:
		s.powerOff(ctx, &result)
	}

	return result
}

// powerOn: pulse, charge wait (cancellation point), one-time cold-start
// branch, infrared to both ports, second pulse.
func (s *Sequencer) powerOn(ctx, cancel context.Context, result *sequenceResult) {
	s.pulse(ctx, result)

	logger.InfoKV(ctx, "Waiting out charge delay", "delay", s.cfg.ChargeDelay.String())

	timer := time.NewTimer(s.cfg.ChargeDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-cancel.Done():
		logger.Info(ctx, "Power-on sequence cancelled during charge delay")

		result.cancelled = true

		return
	}

	if s.cfg.ColdStart.Armed() {
		result.coldStart = true

		s.wakeAndWarm(ctx, result)

		if err := s.cfg.ColdStart.Disarm(); err != nil {
			logger.ErrorKV(ctx, "Cold-start marker not persisted", "error", err)
		}
	}

	s.emit(ctx, s.cfg.PortA, result)
	time.Sleep(s.cfg.IRGap)
	s.emit(ctx, s.cfg.PortB, result)

	s.pulse(ctx, result)
}

// powerOff: infrared first so the receivers mute before the relay clicks,
// then the pulse back to standby. The order is intentional.
func (s *Sequencer) powerOff(ctx context.Context, result *sequenceResult) {
	s.emit(ctx, s.cfg.PortA, result)
	time.Sleep(s.cfg.IRGap)
	s.emit(ctx, s.cfg.PortB, result)

	time.Sleep(s.cfg.IRGap)

	s.pulse(ctx, result)
}

// wakeAndWarm runs the cold-start branch: wake the sleeping media machine,
// then bring the receiver out of standby when one is wired.
func (s *Sequencer) wakeAndWarm(ctx context.Context, result *sequenceResult) {
	if s.cfg.Waker != nil {
		logger.Info(ctx, "First power-on, sending wake-on-LAN")

		if err := s.cfg.Waker.Wake(ctx); err != nil {
			logger.ErrorKV(ctx, "Wake-on-LAN failed", "error", err)

			result.failures++
		}
	}

	if s.cfg.Receiver == nil {
		return
	}

	poweredOn, err := s.cfg.Receiver.IsPoweredOn(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Receiver state query failed", "error", err)

		result.failures++

		return
	}

	if poweredOn {
		return
	}

	if err = s.cfg.Receiver.PowerOn(ctx); err != nil {
		logger.ErrorKV(ctx, "Receiver power-on failed", "error", err)

		result.failures++
	}
}

// pulse runs one relay pulse, logging and counting a failure.
func (s *Sequencer) pulse(ctx context.Context, result *sequenceResult) {
	if err := s.cfg.Relay.Pulse(ctx); err != nil {
		logger.ErrorKV(ctx, "Relay pulse failed", "error", err)

		result.failures++
	}
}

// emit sends the infrared code to one port, logging and counting a failure.
func (s *Sequencer) emit(ctx context.Context, port int, result *sequenceResult) {
	if err := s.cfg.IR.Emit(ctx, port); err != nil {
		logger.ErrorKV(ctx, "Infrared emit failed", "port", port, "error", err)

		result.failures++
	}
}
