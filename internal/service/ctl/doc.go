// Package ctl implements the powerctl one-shot operations: manual relay
// and infrared actuation, wake-on-LAN, and read-only state and history
// queries. The daemon's polling loop is untouched; powerctl talks to the
// same devices and files directly.
package ctl
