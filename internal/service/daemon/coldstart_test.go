package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestColdStart_InMemory arms per process when no marker file is configured.
func TestColdStart_InMemory(t *testing.T) {
	t.Parallel()

	c := NewColdStart("")
	require.True(t, c.Armed())

	require.NoError(t, c.Disarm())
	require.False(t, c.Armed())

	// A fresh marker re-arms, matching a process restart.
	require.True(t, NewColdStart("").Armed())
}

// TestColdStart_MarkerFilePersists keeps the disarm across instances.
func TestColdStart_MarkerFilePersists(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "nested", "coldstart.marker")

	c := NewColdStart(marker)
	require.True(t, c.Armed())

	require.NoError(t, c.Disarm())
	require.False(t, c.Armed())
	require.FileExists(t, marker)

	require.False(t, NewColdStart(marker).Armed())
}

// TestColdStart_ExistingMarkerDisarms honors a marker written by a
// previous run.
func TestColdStart_ExistingMarkerDisarms(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "coldstart.marker")
	require.NoError(t, os.WriteFile(marker, nil, 0o600))

	require.False(t, NewColdStart(marker).Armed())
}
