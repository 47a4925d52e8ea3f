package power

import (
	"errors"
	"strings"
)

// Signal is the observed binary power state of the monitored device.
type Signal bool

const (
	// SignalOff represents the OFF state, persisted as "0".
	SignalOff Signal = false
	// SignalOn represents the ON state, persisted as "1".
	SignalOn Signal = true
)

// ErrUnknownMark is returned when a stored or reported value is neither "0" nor "1".
var ErrUnknownMark = errors.New("unknown signal mark")

// Mark returns the single-character wire/storage form of the signal.
func (s Signal) Mark() string {
	if s == SignalOn {
		return "1"
	}

	return "0"
}

// String returns a human-readable name for logs.
func (s Signal) String() string {
	if s == SignalOn {
		return "on"
	}

	return "off"
}

// ParseSignal converts a stored or reported mark into a Signal.
// Surrounding whitespace is ignored.
func ParseSignal(mark string) (Signal, error) {
	switch strings.TrimSpace(mark) {
	case "0":
		return SignalOff, nil
	case "1":
		return SignalOn, nil
	default:
		return SignalOff, ErrUnknownMark
	}
}

// Direction names the two handled transition directions.
type Direction string

const (
	// DirectionPowerOn is the OFF to ON transition.
	DirectionPowerOn Direction = "power-on"
	// DirectionPowerOff is the ON to OFF transition.
	DirectionPowerOff Direction = "power-off"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == DirectionPowerOn {
		return DirectionPowerOff
	}

	return DirectionPowerOn
}

// Transition is the pair of signals observed across one poll cycle.
// It exists only within that cycle; nothing stores it.
type Transition struct {
	// From is the previously persisted signal.
	From Signal
	// To is the signal just observed.
	To Signal
}

// Direction maps the transition onto the handled direction.
func (t Transition) Direction() Direction {
	if t.To == SignalOn {
		return DirectionPowerOn
	}

	return DirectionPowerOff
}

// Occurred reports whether the pair actually represents a change.
func (t Transition) Occurred() bool {
	return t.From != t.To
}
