package signal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/showard/powerd/internal/domain/power"
)

var errStub = errors.New("stub failure")

// stubStateGetter reports a fixed signal or error.
type stubStateGetter struct {
	signal power.Signal
	err    error

	// module and port record the last query for assertion.
	module int
	port   int
}

// GetState returns the scripted result.
func (s *stubStateGetter) GetState(_ context.Context, module, port int) (power.Signal, error) {
	s.module = module
	s.port = port

	return s.signal, s.err
}

// TestSensorSourcePoll checks delegation and the unavailable mapping.
func TestSensorSourcePoll(t *testing.T) {
	t.Parallel()

	device := &stubStateGetter{signal: power.SignalOn}
	source := NewSensorSource(device, 1, 2)

	current, err := source.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOn, current)
	require.Equal(t, 1, device.module)
	require.Equal(t, 2, device.port)

	device.err = errStub

	_, err = source.Poll(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, errStub)
}

// TestPresenceSourcePoll flips with the watched path's existence.
func TestPresenceSourcePoll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marker")
	source := NewPresenceSource(path)

	current, err := source.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOff, current)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	current, err = source.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOn, current)
}

// TestProcessSourcePoll uses the test binary itself as the watched process.
func TestProcessSourcePoll(t *testing.T) {
	t.Parallel()

	executable, err := os.Executable()
	require.NoError(t, err)

	source := NewProcessSource(filepath.Base(executable))

	current, err := source.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOn, current)

	source = NewProcessSource("definitely-not-running-here")

	current, err = source.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOff, current)
}
