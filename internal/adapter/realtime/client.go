package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
)

const (
	handshakeTimeout  = 10 * time.Second
	heartbeatInterval = 30 * time.Second
	healthySession    = time.Minute
	eventBuffer       = 64
)

// Client maintains a websocket subscription to the loyalty push channel.
// Decoded events are delivered on Events; delivery is at-least-once and
// possibly out of order, so consumers must deduplicate.
type Client struct {
	url         string
	accountID   string
	maxInterval time.Duration
	logger      *slog.Logger

	events    chan model.Event
	connected atomic.Bool
}

// New creates a channel client. Accepts ws(s) URLs directly and translates
// http(s) ones.
func New(address, accountID string, maxInterval time.Duration, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported realtime url scheme %q", parsed.Scheme)
	}
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	return &Client{
		url:         parsed.String(),
		accountID:   accountID,
		maxInterval: maxInterval,
		logger:      logger,
		events:      make(chan model.Event, eventBuffer),
	}, nil
}

// Events returns the inbound event stream. The channel is closed when Run
// returns.
func (c *Client) Events() <-chan model.Event {
	return c.events
}

// Connected reports current channel connectivity. Disconnection is a
// recoverable condition, surfaced here rather than as a failure.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects and consumes the channel until ctx is cancelled, redialing
// with capped exponential backoff. The backoff resets after a session that
// stayed healthy long enough.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0

	for {
		started := time.Now()
		err := c.session(ctx)
		if ctx.Err() != nil {
			c.logger.Info("realtime channel stopped")
			return
		}
		if time.Since(started) >= healthySession {
			b.Reset()
		}

		wait := b.NextBackOff()
		c.logger.Warn("realtime channel disconnected",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", wait),
		)
		select {
		case <-ctx.Done():
			c.logger.Info("realtime channel stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", domainErrors.ErrChannelDisconnected, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(model.NewSubscribeRequest(c.accountID)); err != nil {
		return fmt.Errorf("%w: subscribe: %v", domainErrors.ErrChannelDisconnected, err)
	}

	c.connected.Store(true)
	defer c.connected.Store(false)
	c.logger.Info("realtime channel subscribed", slog.String("account", c.accountID))

	// Unblock ReadMessage on cancellation and keep the connection alive.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(handshakeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read: %v", domainErrors.ErrChannelDisconnected, err)
		}

		var event model.Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Debug("skipping malformed channel message",
				slog.String("payload", truncate(string(message), 256)),
			)
			continue
		}

		select {
		case c.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
