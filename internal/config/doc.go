// Package config loads, validates and saves the YAML settings file shared
// by the powerd and powerctl binaries: device endpoints, signal source
// strategy, sequence delays and optional journal/announcer wiring.
package config
