package daemon

import (
	"context"
	"time"

	"github.com/showard/powerd/internal/domain/power"
	"github.com/showard/powerd/internal/logger"
	"github.com/showard/powerd/internal/repository/journal"
	"github.com/showard/powerd/internal/repository/state"
	"github.com/showard/powerd/internal/signal"
)

// TransitionJournal records resolved sequences. Optional.
type TransitionJournal interface {
	Record(ctx context.Context, entry *journal.Entry) error
}

// StateAnnouncer publishes the persisted state to interested observers. Optional.
type StateAnnouncer interface {
	AnnounceState(current power.Signal) error
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	// Source produces the observed signal each cycle.
	Source signal.Source
	// Store persists the last handled signal.
	Store state.Store
	// Sequencer runs the per-direction device scripts.
	Sequencer *Sequencer
	// PollInterval is the cycle period.
	PollInterval time.Duration
	// Journal, when non-nil, records resolved sequences.
	Journal TransitionJournal
	// Announcer, when non-nil, publishes persisted state changes.
	Announcer StateAnnouncer
	// Debug observes and logs transitions without driving hardware.
	Debug bool
}

// Engine is the orchestrator: one polling loop plus at most one running
// sequence, which the loop may cancel when the signal reverses.
type Engine struct {
	cfg EngineConfig

	// pending is the single in-flight sequence, nil when idle. Only the
	// Run goroutine touches it, so no lock is needed.
	pending *pendingSequence
}

// pendingSequence tracks the one outstanding cancellable script run.
type pendingSequence struct {
	// target is the signal the sequence is driving toward; observing its
	// opposite while the sequence runs is the reversal that cancels it.
	target power.Signal
	// direction is kept for logging and journaling.
	direction power.Direction
	// cancel trips the sequence's single cancellation point.
	cancel context.CancelFunc
	// done receives the result exactly once.
	done chan sequenceResult
}

// NewEngine creates an engine from the wiring config.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes the polling loop until the context is cancelled. A pending
// sequence is cancelled and drained on shutdown so nothing half-finished
// outlives the process.
func (e *Engine) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Polling power signal", "interval", e.cfg.PollInterval.String())

	e.announceCurrent(ctx)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown(ctx)

			return nil
		case result := <-e.pendingDone():
			e.finish(ctx, result)
		case <-ticker.C:
			e.cycle(ctx)
		}
	}
}

// pendingDone returns the in-flight result channel, or nil (blocking
// forever in select) when the engine is idle.
func (e *Engine) pendingDone() <-chan sequenceResult {
	if e.pending == nil {
		return nil
	}

	return e.pending.done
}

// cycle runs one poll: read persisted state, observe the signal, and
// launch or cancel a sequence when they disagree.
func (e *Engine) cycle(ctx context.Context) {
	last, err := e.cfg.Store.Load(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "State store read failed, assuming off", "error", err)
	}

	current, err := e.cfg.Source.Poll(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Signal source unavailable, skipping cycle", "error", err)

		return
	}

	if e.pending != nil {
		// While a sequence is in flight the reference point is its target,
		// not the persisted state: the persisted state only moves on
		// completion.
		if current != e.pending.target {
			logger.InfoKV(ctx, "Signal reversed, cancelling pending sequence",
				"direction", string(e.pending.direction))
			e.pending.cancel()
		}

		return
	}

	transition := power.Transition{From: last, To: current}
	if !transition.Occurred() {
		logger.DebugKV(ctx, "No change in power signal", "signal", current.String())

		return
	}

	logger.InfoKV(ctx, "Transition detected",
		"from", transition.From.String(),
		"to", transition.To.String(),
		"direction", string(transition.Direction()))

	if e.cfg.Debug {
		logger.Info(ctx, "Debug mode, not driving hardware")

		return
	}

	e.start(ctx, transition)
}

// start launches the sequence for the detected transition.
func (e *Engine) start(ctx context.Context, transition power.Transition) {
	cancelCtx, cancel := context.WithCancel(ctx)
	pending := &pendingSequence{
		target:    transition.To,
		direction: transition.Direction(),
		cancel:    cancel,
		done:      make(chan sequenceResult, 1),
	}
	e.pending = pending

	go func() {
		pending.done <- e.cfg.Sequencer.Run(ctx, cancelCtx, transition)
	}()
}

// finish resolves a completed or cancelled sequence: persist and announce
// on completion, never on cancellation, and journal either way.
func (e *Engine) finish(ctx context.Context, result sequenceResult) {
	e.pending.cancel()
	e.pending = nil

	if result.cancelled {
		logger.InfoKV(ctx, "Sequence cancelled, state unchanged",
			"direction", string(result.transition.Direction()))

		e.record(ctx, result, journal.OutcomeCancelled)

		return
	}

	outcome := journal.OutcomeCompleted
	if result.failures > 0 {
		outcome = journal.OutcomePartial
	}

	if err := e.cfg.Store.Save(ctx, result.transition.To); err != nil {
		// Keep running; the next cycle re-detects the transition if the
		// write never landed. Accepted, not corrected.
		logger.ErrorKV(ctx, "State store write failed", "error", err)
	} else {
		logger.InfoKV(ctx, "State change recorded",
			"state", result.transition.To.String(),
			"failed_steps", result.failures)
	}

	e.announce(ctx, result.transition.To)
	e.record(ctx, result, outcome)
}

// record writes the journal entry when a journal is wired.
func (e *Engine) record(ctx context.Context, result sequenceResult, outcome journal.Outcome) {
	if e.cfg.Journal == nil {
		return
	}

	entry := &journal.Entry{
		Direction: result.transition.Direction(),
		From:      result.transition.From,
		To:        result.transition.To,
		ColdStart: result.coldStart,
		Outcome:   outcome,
	}
	if err := e.cfg.Journal.Record(ctx, entry); err != nil {
		logger.ErrorKV(ctx, "Journal write failed", "error", err)
	}
}

// announce publishes the persisted state when an announcer is wired.
func (e *Engine) announce(ctx context.Context, current power.Signal) {
	if e.cfg.Announcer == nil {
		return
	}

	if err := e.cfg.Announcer.AnnounceState(current); err != nil {
		logger.WarnKV(ctx, "State announcement failed", "error", err)
	}
}

// announceCurrent primes the retained state topic at startup.
func (e *Engine) announceCurrent(ctx context.Context) {
	if e.cfg.Announcer == nil {
		return
	}

	current, err := e.cfg.Store.Load(ctx)
	if err != nil {
		logger.WarnKV(ctx, "State store read failed at startup", "error", err)

		return
	}

	e.announce(ctx, current)
}

// shutdown cancels and drains a pending sequence before the loop exits.
func (e *Engine) shutdown(ctx context.Context) {
	if e.pending == nil {
		logger.Info(ctx, "Context canceled, exiting")

		return
	}

	logger.Info(ctx, "Context canceled, cancelling pending sequence")
	e.pending.cancel()

	result := <-e.pending.done
	e.pending = nil

	if !result.cancelled {
		// The sequence beat the cancellation to the finish line; honor it.
		if err := e.cfg.Store.Save(ctx, result.transition.To); err != nil {
			logger.ErrorKV(ctx, "State store write failed during shutdown", "error", err)
		}
	}
}
