package itach

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCode is returned when an emitter is created without an infrared payload.
var ErrNoCode = errors.New("itach: no infrared code configured")

// IREmitter sends one pre-encoded infrared code to numbered connector
// ports. The same payload addressed to different ports reaches the
// separate receivers wired to the unit.
type IREmitter struct {
	// client is the transport to the unit hosting the emitters.
	client *Client
	// module addresses the emitter bank.
	module int
	// code is the payload without the "sendir,<module>:<port>," prefix.
	code string
}

// NewIREmitter creates an emitter for the given module and payload.
func NewIREmitter(client *Client, module int, code string) (*IREmitter, error) {
	if code == "" {
		return nil, ErrNoCode
	}

	return &IREmitter{
		client: client,
		module: module,
		code:   code,
	}, nil
}

// Emit sends the code to the given connector port.
func (e *IREmitter) Emit(ctx context.Context, port int) error {
	if _, err := e.client.SendIR(ctx, e.module, port, e.code); err != nil {
		return fmt.Errorf("emit port %d: %w", port, err)
	}

	return nil
}
