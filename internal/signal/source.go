// Package signal provides the polled sources of the observed power signal.
// Three interchangeable strategies exist: the contact sensor on the iTach
// unit, the presence of a filesystem path, and the presence of a running
// process. All of them reduce to one Poll call per cycle.
package signal

import (
	"context"
	"errors"

	"github.com/showard/powerd/internal/domain/power"
)

// ErrUnavailable indicates the source could not produce an observation this
// cycle. The orchestrator skips the cycle and keeps the prior state.
var ErrUnavailable = errors.New("signal source unavailable")

// Source produces the current power signal once per poll cycle.
type Source interface {
	Poll(ctx context.Context) (power.Signal, error)
}
