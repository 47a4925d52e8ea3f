package itach

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/showard/powerd/internal/domain/power"
)

var (
	// ErrTimeout indicates the device did not accept the connection or
	// answer within the configured timeout.
	ErrTimeout = errors.New("itach: timeout")
	// ErrRefused indicates the device actively refused the connection.
	ErrRefused = errors.New("itach: connection refused")
	// ErrMalformedResponse indicates the device replied with something other
	// than the expected response line. An empty reply is never a success.
	ErrMalformedResponse = errors.New("itach: malformed response")
)

// lineTerminator ends every command per the iTach API specification.
const lineTerminator = "\r\n"

// Client sends single commands to one iTach unit. A fresh connection is
// opened per command; the devices are single-command, low-rate endpoints
// and do not benefit from pooling.
type Client struct {
	// address is the TCP command endpoint, host:port.
	address string
	// timeout bounds connect and first-line read independently.
	timeout time.Duration
}

// NewClient creates a client for the unit at address (host:port).
func NewClient(address string, timeout time.Duration) *Client {
	return &Client{
		address: address,
		timeout: timeout,
	}
}

// Address returns the configured command endpoint.
func (c *Client) Address() string {
	return c.address
}

// Send opens a connection, writes one command line and returns the first
// response line with surrounding whitespace trimmed. The connection is
// closed on every exit path.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	dialer := net.Dialer{Timeout: c.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return "", classify("dial", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if err = conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("set deadline: %w", err)
	}

	if _, err = conn.Write([]byte(command + lineTerminator)); err != nil {
		return "", classify("write", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	response := strings.TrimSpace(line)

	// The unit terminates responses with CR; some firmware revisions close
	// the connection right after the payload, so data before EOF counts.
	if err != nil && response == "" {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: connection closed without reply to %q", ErrMalformedResponse, command)
		}

		return "", classify("read", err)
	}

	if response == "" {
		return "", fmt.Errorf("%w: empty reply to %q", ErrMalformedResponse, command)
	}

	return response, nil
}

// classify maps transport errors onto the package sentinels so callers can
// tell an unreachable unit from a confused one.
func classify(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%s: %w: %w", op, ErrRefused, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// GetState queries a contact input: `getstate,<module>:<port>` and expects
// `state,<module>:<port>,<0|1>` back.
func (c *Client) GetState(ctx context.Context, module, port int) (power.Signal, error) {
	response, err := c.Send(ctx, fmt.Sprintf("getstate,%d:%d", module, port))
	if err != nil {
		return power.SignalOff, err
	}

	prefix := fmt.Sprintf("state,%d:%d,", module, port)
	if !strings.HasPrefix(response, prefix) {
		return power.SignalOff, fmt.Errorf("%w: %q", ErrMalformedResponse, response)
	}

	signal, err := power.ParseSignal(strings.TrimPrefix(response, prefix))
	if err != nil {
		return power.SignalOff, fmt.Errorf("%w: %q", ErrMalformedResponse, response)
	}

	return signal, nil
}

// SetState drives a relay contact: `setstate,<module>:<port>,<0|1>`.
// The unit echoes the resulting state; the echo is returned untouched so
// callers may verify it, but any non-empty reply counts as delivered.
func (c *Client) SetState(ctx context.Context, module, port int, s power.Signal) (string, error) {
	return c.Send(ctx, fmt.Sprintf("setstate,%d:%d,%s", module, port, s.Mark()))
}

// SendIR emits a pre-encoded infrared payload on the addressed connector:
// `sendir,<module>:<port>,<code>`.
func (c *Client) SendIR(ctx context.Context, module, port int, code string) (string, error) {
	return c.Send(ctx, fmt.Sprintf("sendir,%d:%d,%s", module, port, code))
}
