package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/showard/powerd/internal/config"
)

// ColdStart tracks whether the one-time first-power-on branch is still
// armed. By default the marker lives in memory, so every process start
// re-arms the branch. With a marker file configured the disarm survives
// restarts: the file existing means the branch has already run.
type ColdStart struct {
	// mu protects armed; the engine and a running sequence may both look.
	mu sync.Mutex
	// armed is true until the branch has run once.
	armed bool
	// markerPath is the optional persistence location; empty keeps the
	// marker in memory only.
	markerPath string
}

// NewColdStart creates an armed marker, honoring an existing marker file.
func NewColdStart(markerPath string) *ColdStart {
	c := &ColdStart{
		armed:      true,
		markerPath: markerPath,
	}

	if markerPath != "" {
		if _, err := os.Stat(markerPath); err == nil {
			c.armed = false
		}
	}

	return c
}

// Armed reports whether the branch has yet to run.
func (c *ColdStart) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.armed
}

// Disarm marks the branch as done. With a marker file configured the fact
// is also persisted; a write failure keeps the in-memory disarm and is
// returned so the caller can log it.
func (c *ColdStart) Disarm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.armed = false

	if c.markerPath == "" {
		return nil
	}

	if dir := filepath.Dir(filepath.Clean(c.markerPath)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create marker directory: %w", err)
		}
	}

	if err := os.WriteFile(c.markerPath, []byte("1"), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write cold-start marker: %w", err)
	}

	return nil
}
