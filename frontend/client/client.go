// Package client talks to an aesdsocket server: it submits one line per
// connection and returns everything the server streams back.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryInterval = 100 * time.Millisecond
	backoffCoeff         = 2
)

// Client is a line-protocol client bound to one server address.
type Client struct {
	Addr    string
	Timeout time.Duration
	// DialRetries is how many more times a failed dial is attempted.
	DialRetries   int
	RetryInterval time.Duration
}

// NewClient returns a client for addr ("host:port").
func NewClient(addr string) *Client {
	return &Client{Addr: addr, Timeout: defaultTimeout, RetryInterval: defaultRetryInterval}
}

// Send submits line as a record (a newline is added if missing) and returns
// the server's response.
func (c *Client) Send(ctx context.Context, line []byte) ([]byte, error) {
	if !bytes.HasSuffix(line, []byte("\n")) {
		line = append(append([]byte{}, line...), '\n')
	}
	return c.roundTrip(ctx, line)
}

// SeekTo sends a seek directive and returns the log from that position.
func (c *Client) SeekTo(ctx context.Context, index, offset int) ([]byte, error) {
	line := fmt.Sprintf("%s%d,%d\n", frontend.SeekDirectivePrefix, index, offset)
	return c.roundTrip(ctx, []byte(line))
}

func (c *Client) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, errors.Wrap(err, "send")
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		return resp, errors.Wrap(err, "receive")
	}
	return resp, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var (
		d    net.Dialer
		conn net.Conn
	)
	err := NewRetryer(func(ctx context.Context) error {
		var err error
		conn, err = d.DialContext(ctx, "tcp", c.Addr)
		return Retryable(err)
	}, c.RetryInterval, backoffCoeff, c.DialRetries).Run(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.Addr)
	}
	return conn, nil
}
