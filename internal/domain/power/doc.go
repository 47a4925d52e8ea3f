// Package power holds the domain model for the observed power signal:
// the Signal enumeration, its on-wire marks ("0"/"1"), and the Transition
// derived when one reading supersedes another.
package power
