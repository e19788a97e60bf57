// Package bus implements the correlated request/response channel
// between the CLI and the relay daemon.
//
// Each request carries a generated id and awaits the single response
// tagged with that id. Concurrent sends are independent; duplicate
// calls are not deduplicated. The only bound on a hung request is the
// caller-side timeout.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrRelayUnavailable means the relay endpoint could not be
	// reached at all. Callers should surface this as "start relayd
	// next to your hub session", not as a raw dial error.
	ErrRelayUnavailable = errors.New("relay unavailable")

	// ErrRelayTimeout means the relay accepted the request but no
	// response arrived within the bound.
	ErrRelayTimeout = errors.New("relay timed out")
)

// Client sends correlated requests to relayd over a websocket
type Client struct {
	url     string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan *Result
}

// NewClient creates a bus client for the given ws:// URL. The
// connection is dialed lazily on first send.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		url:     url,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]chan *Result),
	}
}

// Send posts one request and waits for its correlated response.
// A dial failure returns ErrRelayUnavailable; a missing response
// returns ErrRelayTimeout after the configured bound.
func (c *Client) Send(ctx context.Context, action, apiKey string, params map[string]any) (*Result, error) {
	conn, err := c.ensureConnected(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}

	req := Request{
		Action:    action,
		APIKey:    apiKey,
		Params:    params,
		RequestID: uuid.NewString(),
	}

	ch := make(chan *Result, 1)
	c.mu.Lock()
	c.pending[req.RequestID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
	}()

	c.mu.Lock()
	err = conn.WriteJSON(req)
	c.mu.Unlock()
	if err != nil {
		c.closeConn()
		return nil, fmt.Errorf("%w: write failed: %v", ErrRelayUnavailable, err)
	}

	c.logger.Debug("Sent relay request", "action", action, "request_id", req.RequestID)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res == nil {
			return nil, ErrRelayUnavailable
		}
		return res, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s (action %s)", ErrRelayTimeout, c.timeout, action)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close tears down the websocket connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ensureConnected dials on demand and starts the read loop
func (c *Client) ensureConnected(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	go c.readLoop(conn)

	return conn, nil
}

// readLoop dispatches responses to their pending requests by id.
// Unmatched or untagged messages are dropped with a debug log.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			c.logger.Debug("Relay connection closed", "error", err)
			c.failPending()
			return
		}

		if resp.Type != "" && resp.Type != ResponseType {
			continue
		}

		result := resp.normalize()
		if result == nil {
			c.logger.Debug("Dropping malformed relay message")
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("Dropping uncorrelated relay response", "request_id", resp.RequestID)
			continue
		}

		ch <- result
	}
}

// failPending resolves all in-flight requests with a negative result
// so callers fall back instead of hanging until their timeout.
func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = nil
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- nil
	}
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
