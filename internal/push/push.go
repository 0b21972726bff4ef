// Package push maintains the websocket channel the backend uses to announce
// dispensing state changes. Only the arrival of an event drives behavior;
// payloads are never merged into session state directly.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/apotheka/dispense-station/config"
)

// Event is the named push payload {orderId, data, message}.
type Event struct {
	OrderID string          `json:"orderId"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Config struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	PongTimeout       time.Duration
	HandshakeTimeout  time.Duration
}

func FromCentralConfig(c config.PushConfig) Config {
	cfg := Config{
		URL:               c.URL,
		ReconnectAttempts: c.ReconnectAttempts,
		ReconnectDelay:    time.Duration(c.ReconnectDelayMS) * time.Millisecond,
		PongTimeout:       time.Duration(c.PongTimeoutSeconds) * time.Second,
		HandshakeTimeout:  time.Duration(c.HandshakeTimeoutSec) * time.Second,
	}
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 30 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return cfg
}

// Channel is the station's push subscription. It also owns the station
// session ID the backend uses to address this kiosk: a fresh ID per
// connection, empty while disconnected.
type Channel struct {
	cfg    Config
	log    *slog.Logger
	events chan Event

	sessionID atomic.Value // string
}

func NewChannel(cfg Config, log *slog.Logger) *Channel {
	ch := &Channel{
		cfg:    cfg,
		log:    log,
		events: make(chan Event, 8),
	}
	ch.sessionID.Store("")
	return ch
}

func (c *Channel) Events() <-chan Event { return c.events }

func (c *Channel) SessionID() string {
	v, _ := c.sessionID.Load().(string)
	return v
}

// Run dials and reads until ctx is cancelled. Dial failures are retried up
// to ReconnectAttempts times with ReconnectDelay between tries; the counter
// resets after every successful connection.
func (c *Channel) Run(ctx context.Context) error {
	attempts := 0
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempts++
			if attempts >= c.cfg.ReconnectAttempts {
				return fmt.Errorf("push channel: giving up after %d attempts: %w", attempts, err)
			}
			c.log.Warn("push channel dial failed", "attempt", attempts, "err", err)
			if err := sleep(ctx, c.cfg.ReconnectDelay); err != nil {
				return err
			}
			continue
		}

		attempts = 0
		sid := uuid.NewString()
		c.sessionID.Store(sid)
		c.log.Info("push channel connected", "session_id", sid)

		err = c.readLoop(ctx, conn)
		c.sessionID.Store("")
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("push channel disconnected", "err", err)
		if err := sleep(ctx, c.cfg.ReconnectDelay); err != nil {
			return err
		}
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	return conn, err
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	done := make(chan struct{})
	defer close(done)

	// Keepalive pings; the read deadline only extends on pongs.
	go func() {
		ticker := time.NewTicker(c.cfg.PongTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				// Unblocks the pending ReadMessage.
				conn.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Debug("push channel: undecodable event", "err", err)
			continue
		}

		select {
		case c.events <- ev:
		default:
			// Arrival is the only signal; a full buffer means a refresh is
			// already pending, so dropping loses nothing.
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
