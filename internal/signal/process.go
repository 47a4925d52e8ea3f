package signal

import (
	"context"
	"fmt"

	"github.com/mitchellh/go-ps"

	"github.com/showard/powerd/internal/domain/power"
)

// ProcessSource treats a running executable as the ON proxy, for setups
// where the monitored machine runs a known player process instead of
// exporting a drive.
type ProcessSource struct {
	// executable is the process image name to look for, e.g. "kodi".
	executable string
}

// NewProcessSource creates a source watching for the named executable.
func NewProcessSource(executable string) *ProcessSource {
	return &ProcessSource{executable: executable}
}

// Poll reports ON while a process with the configured executable name runs.
func (s *ProcessSource) Poll(_ context.Context) (power.Signal, error) {
	processes, err := ps.Processes()
	if err != nil {
		return power.SignalOff, fmt.Errorf("%w: list processes: %w", ErrUnavailable, err)
	}

	for _, process := range processes {
		if process.Executable() == s.executable {
			return power.SignalOn, nil
		}
	}

	return power.SignalOff, nil
}
