package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/showard/powerd/internal/domain/power"
	"github.com/showard/powerd/internal/repository/journal"
	"github.com/showard/powerd/internal/repository/state"
	"github.com/showard/powerd/internal/signal"
)

// settableSource lets the test flip the observed signal mid-run.
type settableSource struct {
	mu      sync.Mutex
	current power.Signal
	err     error
}

func (s *settableSource) Poll(_ context.Context) (power.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.err
}

func (s *settableSource) set(current power.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = current
}

var _ signal.Source = (*settableSource)(nil)

// memoryJournal records entries in order for assertions.
type memoryJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memoryJournal) Record(_ context.Context, entry *journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, *entry)

	return nil
}

func (j *memoryJournal) list() []journal.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]journal.Entry(nil), j.entries...)
}

// memoryAnnouncer records the announced signals in order.
type memoryAnnouncer struct {
	mu        sync.Mutex
	announced []power.Signal
}

func (a *memoryAnnouncer) AnnounceState(current power.Signal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.announced = append(a.announced, current)

	return nil
}

func (a *memoryAnnouncer) list() []power.Signal {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]power.Signal(nil), a.announced...)
}

// engineFixture bundles a runnable engine with its observable fakes.
type engineFixture struct {
	engine    *Engine
	source    *settableSource
	rec       *recorder
	journal   *memoryJournal
	announcer *memoryAnnouncer
	stateFile string
	cancel    context.CancelFunc
	done      chan error
}

func newEngineFixture(t *testing.T, chargeDelay time.Duration) *engineFixture {
	t.Helper()

	stateFile := filepath.Join(t.TempDir(), "state.txt")

	store, err := state.NewFileStore(stateFile)
	require.NoError(t, err)

	rec := &recorder{}
	sequencer := testSequencer(rec, nil, nil)
	sequencer.cfg.ChargeDelay = chargeDelay
	sequencer.cfg.IRGap = 0

	fixture := &engineFixture{
		source:    &settableSource{},
		rec:       rec,
		journal:   &memoryJournal{},
		announcer: &memoryAnnouncer{},
		stateFile: stateFile,
	}
	fixture.engine = NewEngine(EngineConfig{
		Source:       fixture.source,
		Store:        store,
		Sequencer:    sequencer,
		PollInterval: 2 * time.Millisecond,
		Journal:      fixture.journal,
		Announcer:    fixture.announcer,
	})

	return fixture
}

func (f *engineFixture) run() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan error, 1)

	go func() {
		f.done <- f.engine.Run(ctx)
	}()
}

func (f *engineFixture) stop(t *testing.T) {
	t.Helper()

	f.cancel()

	select {
	case err := <-f.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func (f *engineFixture) persisted(t *testing.T) string {
	t.Helper()

	contents, err := os.ReadFile(f.stateFile)
	require.NoError(t, err)

	return string(contents)
}

// TestEngine_NoChangeIsQuiet drives no devices and writes nothing while the
// signal matches the persisted state.
func TestEngine_NoChangeIsQuiet(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Millisecond)
	fixture.run()

	time.Sleep(50 * time.Millisecond)
	fixture.stop(t)

	require.Empty(t, fixture.rec.list())
	require.NoFileExists(t, fixture.stateFile)
	require.Empty(t, fixture.journal.list())
}

// TestEngine_PowerOnPersistsAndAnnounces runs the full power-on path: the
// script completes, the state file records ON, and observers hear about it.
func TestEngine_PowerOnPersistsAndAnnounces(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Millisecond)
	fixture.source.set(power.SignalOn)
	fixture.run()

	require.Eventually(t, func() bool {
		contents, err := os.ReadFile(fixture.stateFile)

		return err == nil && string(contents) == "1"
	}, 5*time.Second, 5*time.Millisecond)

	fixture.stop(t)

	require.Equal(t, []string{"pulse", "wake", "ir:1", "ir:3", "pulse"}, fixture.rec.list())

	entries := fixture.journal.list()
	require.Len(t, entries, 1)
	require.Equal(t, power.DirectionPowerOn, entries[0].Direction)
	require.Equal(t, journal.OutcomeCompleted, entries[0].Outcome)
	require.True(t, entries[0].ColdStart)

	// Startup announcement of the default OFF, then the new ON.
	require.Equal(t, []power.Signal{power.SignalOff, power.SignalOn}, fixture.announcer.list())
}

// TestEngine_ReversalCancelsPendingSequence flips the signal back during
// the charge delay: the script aborts, nothing is persisted, and the
// journal records the cancellation.
func TestEngine_ReversalCancelsPendingSequence(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Minute)
	fixture.source.set(power.SignalOn)
	fixture.run()

	// Wait for the script to reach the charge delay, then reverse.
	require.Eventually(t, func() bool {
		return len(fixture.rec.list()) == 1
	}, 5*time.Second, time.Millisecond)

	fixture.source.set(power.SignalOff)

	require.Eventually(t, func() bool {
		return len(fixture.journal.list()) == 1
	}, 5*time.Second, time.Millisecond)

	fixture.stop(t)

	require.Equal(t, []string{"pulse"}, fixture.rec.list())
	require.NoFileExists(t, fixture.stateFile)
	require.Equal(t, journal.OutcomeCancelled, fixture.journal.list()[0].Outcome)
}

// TestEngine_UnavailableSourceSkipsCycle tolerates a dead source without
// driving anything.
func TestEngine_UnavailableSourceSkipsCycle(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Millisecond)
	fixture.source.err = signal.ErrUnavailable
	fixture.run()

	time.Sleep(50 * time.Millisecond)
	fixture.stop(t)

	require.Empty(t, fixture.rec.list())
	require.NoFileExists(t, fixture.stateFile)
}

// TestEngine_DebugModeObservesOnly logs transitions without touching
// hardware or the state file.
func TestEngine_DebugModeObservesOnly(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Millisecond)
	fixture.engine.cfg.Debug = true
	fixture.source.set(power.SignalOn)
	fixture.run()

	time.Sleep(50 * time.Millisecond)
	fixture.stop(t)

	require.Empty(t, fixture.rec.list())
	require.NoFileExists(t, fixture.stateFile)
	require.Empty(t, fixture.journal.list())
}

// TestEngine_PartialOutcomeOnStepFailure persists the new state and marks
// the journal entry partial when a device call failed.
func TestEngine_PartialOutcomeOnStepFailure(t *testing.T) {
	t.Parallel()

	fixture := newEngineFixture(t, time.Millisecond)
	fixture.engine.cfg.Sequencer.cfg.IR = &fakeIR{rec: fixture.rec, err: os.ErrDeadlineExceeded}
	fixture.source.set(power.SignalOn)
	fixture.run()

	require.Eventually(t, func() bool {
		return len(fixture.journal.list()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	fixture.stop(t)

	require.Equal(t, "1", fixture.persisted(t))
	require.Equal(t, journal.OutcomePartial, fixture.journal.list()[0].Outcome)
}
