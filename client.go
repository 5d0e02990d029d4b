package datetimed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// DefaultTimeout is how long a client waits for a response.
const DefaultTimeout = 1 * time.Second

// ErrTimeout is returned when no response arrives in time.
var ErrTimeout = errors.New("receiving timed out")

// ClientState is where a client is in its single exchange.
type ClientState int

const (
	StateIdle ClientState = iota
	StateSent
	StateReceived
	StateTimedOut
	StateFailed
)

func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	case StateReceived:
		return "received"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ClientState(%d)", int(s))
}

// Client sends one DT_Request per Query and waits for its DT_Response.
type Client struct {
	Timeout time.Duration

	addr  string
	state ClientState
	log   *slog.Logger
}

// NewClient creates a client for the server endpoint at host:port.
func NewClient(host string, port int, logger *slog.Logger) *Client {
	return &Client{
		Timeout: DefaultTimeout,
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		log:     logger.With("module", "client"),
	}
}

// State returns the state the last Query ended in.
func (c *Client) State() ClientState {
	return c.state
}

// Query performs exactly one request/response exchange. There are no retries.
// A response that fails to decode is returned as the decode error.
func (c *Client) Query(ctx context.Context, kind RequestKind) (*Response, error) {
	c.state = StateIdle

	if err := ctx.Err(); err != nil {
		return nil, c.fail(err)
	}

	raddr, err := net.ResolveUDPAddr("udp", c.addr)
	if err != nil {
		return nil, c.fail(err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, c.fail(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	// Unblock the read if ctx goes away first.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(EncodeRequest(kind)); err != nil {
		return nil, c.fail(err)
	}
	c.state = StateSent
	c.log.Info("Request sent", "addr", raddr, "kind", kind)

	buff := make([]byte, PacketLength)
	n, err := conn.Read(buff)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.fail(ctx.Err())
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.state = StateTimedOut
			return nil, fmt.Errorf("%w after %v", ErrTimeout, c.Timeout)
		}
		return nil, c.fail(err)
	}
	c.state = StateReceived
	c.log.Debug("Response received", "bytes", n)

	return DecodeResponse(buff[:n])
}

func (c *Client) fail(err error) error {
	c.state = StateFailed
	return err
}
