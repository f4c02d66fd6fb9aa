package client

import (
	"context"
	"courier/domain"
	"courier/ws"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrUnreachable is terminal: every dial attempt failed and the retry
	// budget is spent.
	ErrUnreachable = errors.New("server unreachable")
	// ErrAuthRejected is terminal: the server refused the credentials, so
	// retrying the same token is pointless.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrDisconnected is returned by Send while no channel is open. The
	// caller decides whether to retry once Run has reconnected.
	ErrDisconnected = errors.New("not connected")
)

// Conn is the subset of the WebSocket connection the client uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// DialFunc opens one connection attempt.
type DialFunc func(ctx context.Context) (Conn, error)

type Config struct {
	URL         string
	Token       string
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
	BufferSize  int
}

// Client keeps a channel open against the server, reconnecting with
// bounded exponential backoff when it drops. Every record it receives or
// confirms lands on the Timeline; delivered records are additionally
// published on Received.
type Client struct {
	log      *slog.Logger
	cfg      Config
	dial     DialFunc
	Timeline *Timeline

	Received chan domain.ConfirmedMessage
	Notices  chan ws.ErrorPayload

	mu   sync.Mutex
	conn Conn
}

func New(log *slog.Logger, cfg Config) *Client {
	c := &Client{
		log:      log,
		cfg:      cfg,
		Timeline: NewTimeline(),
		Received: make(chan domain.ConfirmedMessage, cfg.BufferSize),
		Notices:  make(chan ws.ErrorPayload, cfg.BufferSize),
	}
	c.dial = func(ctx context.Context) (Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return c
}

// NewWithDialer is used where the transport is substituted, e.g. tests.
func NewWithDialer(log *slog.Logger, cfg Config, dial DialFunc) *Client {
	c := New(log, cfg)
	c.dial = dial
	return c
}

// Run connects and reads until ctx is cancelled or a terminal failure
// occurs. Each reconnection performs the full handshake again; bindings
// on the server follow the newest channel automatically.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.connectWithBackoff(ctx)
		if err != nil {
			return err
		}
		if err := c.handshake(conn); err != nil {
			_ = conn.Close()
			if errors.Is(err, ErrAuthRejected) {
				return err
			}
			c.log.Warn("Handshake failed, will redial", "error", err)
			continue
		}

		c.setConn(conn)
		err = c.readLoop(ctx, conn)
		c.setConn(nil)
		_ = conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("Connection lost, reconnecting", "error", err)
	}
}

// connectWithBackoff dials until one attempt succeeds. The delay doubles
// from BackoffBase up to BackoffCap; after MaxAttempts failures the
// client gives up for good.
func (c *Client) connectWithBackoff(ctx context.Context) (Conn, error) {
	delay := c.cfg.BackoffBase
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		conn, err := c.dial(ctx)
		if err == nil {
			return conn, nil
		}
		c.log.Warn("Dial failed",
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"retry_in", delay,
			"error", err)

		if attempt == c.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.cfg.BackoffCap {
			delay = c.cfg.BackoffCap
		}
	}
	return nil, ErrUnreachable
}

func (c *Client) handshake(conn Conn) error {
	env, err := ws.NewEnvelope(ws.EventAuthenticate, ws.AuthenticatePayload{Token: c.cfg.Token})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(env); err != nil {
		return err
	}

	var reply ws.Envelope
	if err := conn.ReadJSON(&reply); err != nil {
		return err
	}
	switch reply.Event {
	case ws.EventAuthenticated:
		return nil
	case ws.EventError:
		var payload ws.ErrorPayload
		_ = json.Unmarshal(reply.Payload, &payload)
		return fmt.Errorf("%w: %s", ErrAuthRejected, payload.Message)
	default:
		return fmt.Errorf("unexpected handshake reply %q", reply.Event)
	}
}

// Send queues an optimistic entry and ships the event. It fails
// immediately while disconnected rather than buffering: the timeline
// must never hold entries the server was never asked about.
func (c *Client) Send(receiverID, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return "", ErrDisconnected
	}

	token := uuid.NewString()
	env, err := ws.NewEnvelope(ws.EventSendMessage, ws.SendMessagePayload{
		ReceiverID:  receiverID,
		Content:     content,
		ClientMsgID: token,
	})
	if err != nil {
		return "", err
	}

	c.Timeline.AppendPending(token, receiverID, content)
	if err := c.conn.WriteJSON(env); err != nil {
		return token, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return token, nil
}

func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	for {
		var env ws.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}

		switch env.Event {
		case ws.EventMessageSent:
			var payload ws.MessageSentPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				c.log.Error("Malformed confirmation", "error", err)
				continue
			}
			if !c.Timeline.Confirm(payload.ClientMsgID, payload.ConfirmedMessage) {
				c.log.Warn("Confirmation for unknown token", "token", payload.ClientMsgID)
			}

		case ws.EventReceiveMessage:
			var record domain.ConfirmedMessage
			if err := json.Unmarshal(env.Payload, &record); err != nil {
				c.log.Error("Malformed record", "error", err)
				continue
			}
			c.Timeline.AppendRemote(record)
			select {
			case c.Received <- record:
			case <-ctx.Done():
				return nil
			}

		case ws.EventError:
			var payload ws.ErrorPayload
			_ = json.Unmarshal(env.Payload, &payload)
			select {
			case c.Notices <- payload:
			default:
			}

		default:
			c.log.Warn("Unexpected event", "event", env.Event)
		}
	}
}

func (c *Client) setConn(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}
