package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/showard/powerd/internal/domain/power"
)

// TestFileStore_MissingDefaultsOff verifies an absent file reads as OFF.
func TestFileStore_MissingDefaultsOff(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)

	current, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOff, current)
}

// TestFileStore_SaveLoadRoundtrip ensures Save followed by Load returns the same mark.
func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.txt")

	store, err := NewFileStore(file)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), power.SignalOn))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "1", string(contents))

	current, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOn, current)

	require.NoError(t, store.Save(context.Background(), power.SignalOff))

	current, err = store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOff, current)
}

// TestFileStore_ToleratesWhitespaceAndGarbage covers hand-edited files.
func TestFileStore_ToleratesWhitespaceAndGarbage(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.txt")

	store, err := NewFileStore(file)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte(" 1\n"), 0o600))

	current, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOn, current)

	require.NoError(t, os.WriteFile(file, []byte("banana"), 0o600))

	current, err = store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, power.SignalOff, current)
}

// TestNewFileStore_CreatesParentDirectory checks the startup directory guarantee.
func TestNewFileStore_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "nested", "deeper", "state.txt")

	store, err := NewFileStore(file)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), power.SignalOn))

	_, err = os.Stat(filepath.Dir(file))
	require.NoError(t, err)
}
