package ws

import (
	"context"
	"courier/auth"
	"courier/contract"
	courerrors "courier/errors"
	"courier/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Channel owns one WebSocket connection through its whole lifecycle:
// open (unauthenticated) -> authenticated -> closed. No unauthenticated
// traffic is tolerated: a failed handshake force-closes the connection.
//
// Events from one channel are handled sequentially; concurrency exists
// only across channels. Writes are funneled through a single pump
// goroutine because the underlying connection allows one writer at a time.
type Channel struct {
	id           string
	conn         *websocket.Conn
	log          *slog.Logger
	tokens       *auth.TokenManager
	presence     contract.IPresence
	delivery     services.IDeliveryService
	sink         *Sink
	outbound     chan Envelope
	userID       uuid.UUID
	writeTimeout time.Duration
}

func newChannel(conn *websocket.Conn, s *Server) *Channel {
	return &Channel{
		id:           uuid.NewString(),
		conn:         conn,
		log:          s.log,
		tokens:       s.tokens,
		presence:     s.presence,
		delivery:     s.delivery,
		sink:         NewSink(s.bufferSize),
		outbound:     make(chan Envelope, s.bufferSize),
		writeTimeout: s.writeTimeout,
	}
}

// Serve blocks until the client disconnects or the handshake fails.
// Cleanup is unconditional: whatever the disconnect cause, the presence
// binding for this channel is removed before Serve returns.
func (c *Channel) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.close()

	// The handshake runs synchronously on this goroutine; the write pump
	// only starts once the channel is authenticated.
	if !c.handshake() {
		return
	}

	// The ack goes on the wire before Bind makes the channel reachable;
	// a record pushed right after binding can never overtake it. The
	// write pump is not running yet, so writing directly here is safe.
	ack, err := NewEnvelope(EventAuthenticated, nil)
	if err != nil {
		return
	}
	if err := c.writeNow(ack); err != nil {
		return
	}

	// A re-authentication on a fresh channel is not a resume: Bind simply
	// overwrites any entry left by a previous channel of this identity.
	c.presence.Bind(c.userID, c.id, c.sink)

	go c.writePump(ctx)
	go c.deliverPump(ctx)

	c.readLoop(ctx)
}

// handshake enforces the Open -> Authenticated transition: the very first
// frame must be a valid authenticate event. Any other frame, a missing
// token, or a failed verification emits an error and leaves the channel
// to be force-closed by the caller.
func (c *Channel) handshake() bool {
	var env Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return false
	}
	if env.Event != EventAuthenticate {
		c.writeNow(errorEnvelope("authentication required", courerrors.ErrNotAuthenticated))
		return false
	}

	var payload AuthenticatePayload
	if len(env.Payload) > 0 {
		_ = json.Unmarshal(env.Payload, &payload)
	}
	if payload.Token == "" {
		c.writeNow(errorEnvelope("authentication token required", courerrors.ErrNotAuthenticated))
		return false
	}

	userID, err := c.tokens.Verify(payload.Token)
	if err != nil {
		c.log.Warn("Channel authentication failed", "channel_id", c.id, "error", err)
		c.writeNow(errorEnvelope("authentication failed", err))
		return false
	}

	c.userID = userID
	return true
}

func (c *Channel) readLoop(ctx context.Context) {
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.log.Warn(fmt.Sprintf("Client %s disconnected", c.userID))
			return
		}

		switch env.Event {
		case EventSendMessage:
			c.handleSend(ctx, env.Payload)
		default:
			c.enqueue(ctx, errorEnvelope(fmt.Sprintf("unsupported event %q", env.Event), nil))
		}
	}
}

func (c *Channel) handleSend(ctx context.Context, raw json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.enqueue(ctx, errorEnvelope("malformed sendMessage payload", courerrors.ErrMissingFields))
		return
	}

	record, err := c.delivery.Send(ctx, c.userID, payload.ReceiverID, payload.Content)
	if err != nil {
		// Validation and delivery errors go back to the sender only and
		// never close the channel.
		c.enqueue(ctx, errorEnvelope(courerrors.Message(err), err))
		return
	}

	env, err := NewEnvelope(EventMessageSent, MessageSentPayload{
		ConfirmedMessage: record,
		ClientMsgID:      payload.ClientMsgID,
	})
	if err != nil {
		c.log.Error("Failed to encode confirmation", "message_id", record.ID, "error", err)
		return
	}
	c.enqueue(ctx, env)
}

// deliverPump turns records pushed by other users' pipelines into
// receiveMessage frames.
func (c *Channel) deliverPump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-c.sink.Records:
			env, err := NewEnvelope(EventReceiveMessage, record)
			if err != nil {
				c.log.Error("Failed to encode record", "message_id", record.ID, "error", err)
				continue
			}
			c.enqueue(ctx, env)
		}
	}
}

// writePump is the single writer on the connection.
func (c *Channel) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.outbound:
			if err := c.writeNow(env); err != nil {
				c.log.Error("Failed to push event to channel",
					"channel_id", c.id,
					"user_id", c.userID,
					"error", err)
				return
			}
		}
	}
}

func (c *Channel) enqueue(ctx context.Context, env Envelope) {
	select {
	case c.outbound <- env:
	case <-ctx.Done():
	}
}

func (c *Channel) writeNow(env Envelope) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(env)
}

// close removes the presence binding first; only then is the transition
// to Closed complete and the connection torn down.
func (c *Channel) close() {
	c.presence.Unbind(c.id)
	_ = c.conn.Close()
}

func errorEnvelope(message string, err error) Envelope {
	payload := ErrorPayload{Message: message}
	if err != nil {
		payload.Code = courerrors.CodeOf(err)
	}
	raw, _ := json.Marshal(payload)
	return Envelope{Event: EventError, Payload: raw}
}
