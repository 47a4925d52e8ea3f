// Package avr declares the capability the daemon consumes from a vendor
// receiver-control library. The concrete client is deployment-specific and
// wired in by the binary; the orchestration core only ever calls this
// interface during the cold-start branch of the power-on sequence.
package avr

import "context"

// Controller controls an audio/video receiver's standby power.
type Controller interface {
	// IsPoweredOn reports whether the receiver is already out of standby.
	IsPoweredOn(ctx context.Context) (bool, error)
	// PowerOn brings the receiver out of standby.
	PowerOn(ctx context.Context) error
}
