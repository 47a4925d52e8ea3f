// Package daemon contains the orchestration engine: the polling loop that
// turns the observed power signal into transitions, the sequencer that
// drives the device-action scripts for each direction, and the cold-start
// marker gating the one-time wake branch.
package daemon
