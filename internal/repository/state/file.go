package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/domain/power"
)

// Store defines persistence operations for the last handled signal.
type Store interface {
	Load(ctx context.Context) (power.Signal, error)
	Save(ctx context.Context, current power.Signal) error
}

// dirPermissions is the permission mode for a created state directory.
const dirPermissions = 0o750

// FileStore keeps the signal mark in a single short text file. A missing
// file or unparsable content reads as OFF; that default is what makes the
// first observed ON a genuine transition on a fresh deployment.
type FileStore struct {
	// path is the filesystem location of the mark file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileStore creates a store at the provided path, creating the parent
// directory if needed. A directory that cannot be created is a startup
// failure; the daemon refuses to run without durable state.
func NewFileStore(path string) (*FileStore, error) {
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	return &FileStore{path: path}, nil
}

// Load reads the persisted mark. Absence and unparsable content both
// default to OFF without error; a real read failure is returned alongside
// the OFF default so the caller can log it.
func (s *FileStore) Load(_ context.Context) (power.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return power.SignalOff, nil
		}

		return power.SignalOff, fmt.Errorf("read state file: %w", err)
	}

	current, err := power.ParseSignal(string(contents))
	if err != nil {
		// Corrupt content re-baselines to OFF rather than wedging the loop.
		return power.SignalOff, nil
	}

	return current, nil
}

// Save overwrites the mark file with the new signal. Whole-file write then
// close is atomic enough for a one-byte value; a reader never sees a torn mark.
func (s *FileStore) Save(_ context.Context, current power.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(current.Mark()), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
