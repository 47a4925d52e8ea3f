// Package itach speaks the Global Caché iTach plain-text command protocol:
// one short ASCII command per TCP connection, one response line back.
// On top of the raw transport it offers the typed device clients the
// daemon drives: a pulsed relay contact and an infrared emitter.
package itach
