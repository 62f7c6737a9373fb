package client

import (
	"fmt"
	"net"
	"time"

	"github.com/dreamware/shardkv/internal/wire"
)

// Client talks to a single handler address over TCP, opening a fresh
// connection for every request.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// New returns a Client targeting addr with the given per-request timeout.
// A zero timeout means no read/write deadline is set on the connection;
// dialing then uses a 5-second timeout.
func New(addr string, timeout time.Duration) *Client {
	return &Client{Addr: addr, Timeout: timeout}
}

// Send opens a connection, writes req, reads back the handler's response,
// and closes the connection.
func (c *Client) Send(req wire.Request) (wire.ResponseMessage, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.dialTimeout())
	if err != nil {
		return wire.ResponseMessage{}, fmt.Errorf("client: dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
	}

	if err := wire.WriteFrame(conn, wire.EncodeRequest(req)); err != nil {
		return wire.ResponseMessage{}, fmt.Errorf("client: write request: %w", err)
	}

	payload, err := wire.ReadFrame(conn)
	if err != nil {
		return wire.ResponseMessage{}, fmt.Errorf("client: read response: %w", err)
	}

	resp, err := wire.DecodeResponse(payload)
	if err != nil {
		return wire.ResponseMessage{}, fmt.Errorf("client: decode response: %w", err)
	}
	return resp, nil
}

func (c *Client) dialTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 5 * time.Second
}

// Get issues a Read with the given consistency level.
func (c *Client) Get(key wire.Key, consistency wire.Consistency) (wire.ResponseMessage, error) {
	return c.Send(wire.Request{Op: wire.OpRead, Key: key, Consistency: consistency})
}

// Put issues a Write.
func (c *Client) Put(key wire.Key, content []byte, consistency wire.Consistency) (wire.ResponseMessage, error) {
	return c.Send(wire.Request{Op: wire.OpWrite, Key: key, Content: content, Consistency: consistency})
}

// Delete issues a Delete.
func (c *Client) Delete(key wire.Key, consistency wire.Consistency) (wire.ResponseMessage, error) {
	return c.Send(wire.Request{Op: wire.OpDelete, Key: key, Consistency: consistency})
}
