// Package wol broadcasts wake-on-LAN magic packets: a single fire-and-forget
// UDP datagram of 6×0xFF followed by the 6-byte hardware address repeated
// 16 times, sent to the broadcast address on port 9.
package wol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// wolPort is the conventional discard port for magic packets.
	wolPort = "9"
	// macLength is the only hardware address length a magic packet carries.
	macLength = 6
	// headerLength is the leading run of 0xFF bytes.
	headerLength = 6
	// macRepetitions is how many times the address repeats in the payload.
	macRepetitions = 16
	// writeTimeout bounds the single datagram write.
	writeTimeout = 2 * time.Second
)

// ErrBadHardwareAddress indicates a hardware address that cannot form a magic packet.
var ErrBadHardwareAddress = errors.New("wol: bad hardware address")

// Waker sends magic packets for one target machine.
type Waker struct {
	// mac is the parsed 6-byte hardware address of the target.
	mac net.HardwareAddr
	// broadcast is the destination broadcast IP (without port).
	broadcast string
	// port is the destination port, fixed to 9 outside of tests.
	port string
}

// NewWaker validates the address pair and returns a waker.
// The hardware address accepts the usual colon, dash and dot notations.
func NewWaker(hardwareAddress, broadcastAddress string) (*Waker, error) {
	mac, err := net.ParseMAC(hardwareAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHardwareAddress, err)
	}

	if len(mac) != macLength {
		return nil, fmt.Errorf("%w: %q is %d bytes, want %d",
			ErrBadHardwareAddress, hardwareAddress, len(mac), macLength)
	}

	return &Waker{
		mac:       mac,
		broadcast: broadcastAddress,
		port:      wolPort,
	}, nil
}

// MagicPacket builds the payload for the given hardware address.
func MagicPacket(mac net.HardwareAddr) []byte {
	packet := make([]byte, 0, headerLength+macRepetitions*macLength)
	for i := 0; i < headerLength; i++ {
		packet = append(packet, 0xFF)
	}

	for i := 0; i < macRepetitions; i++ {
		packet = append(packet, mac...)
	}

	return packet
}

// Wake sends one magic packet. It never waits for a response; the target is
// asleep and cannot answer. Failure modes are socket errors only.
func (w *Waker) Wake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(w.broadcast, w.port))
	if err != nil {
		return fmt.Errorf("resolve broadcast address: %w", err)
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("open datagram socket: %w", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if err = enableBroadcast(conn); err != nil {
		return err
	}

	if err = conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	if _, err = conn.Write(MagicPacket(w.mac)); err != nil {
		return fmt.Errorf("send magic packet: %w", err)
	}

	return nil
}

// enableBroadcast sets SO_BROADCAST on the socket; without it the kernel
// rejects writes to broadcast destinations.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw socket access: %w", err)
	}

	var sockErr error

	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return fmt.Errorf("socket control: %w", err)
	}

	if sockErr != nil {
		return fmt.Errorf("enable broadcast: %w", sockErr)
	}

	return nil
}
