package signal

import (
	"context"
	"os"

	"github.com/showard/powerd/internal/domain/power"
)

// PresenceSource treats the existence of a filesystem path as the ON proxy.
// A mounted network drive exported by the monitored machine is the usual
// deployment. Existence is a plain boolean; this source has no failure mode.
type PresenceSource struct {
	// path is the watched filesystem location.
	path string
}

// NewPresenceSource creates a source watching the given path.
func NewPresenceSource(path string) *PresenceSource {
	return &PresenceSource{path: path}
}

// Poll reports ON while the path exists.
func (s *PresenceSource) Poll(_ context.Context) (power.Signal, error) {
	if _, err := os.Stat(s.path); err != nil {
		return power.SignalOff, nil
	}

	return power.SignalOn, nil
}
