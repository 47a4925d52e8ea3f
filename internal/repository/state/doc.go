// Package state persists the last handled power signal between poll cycles
// and across process restarts. The file holds a single mark, "0" or "1".
package state
