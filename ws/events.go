// Package ws implements the persistent bidirectional channel: the
// WebSocket endpoint, the per-channel handshake state machine, and the
// event protocol shared with clients.
package ws

import (
	"courier/domain"
	"encoding/json"
)

// Event names, client to server and server to client.
const (
	EventAuthenticate   = "authenticate"
	EventAuthenticated  = "authenticated"
	EventError          = "error"
	EventSendMessage    = "sendMessage"
	EventMessageSent    = "messageSent"
	EventReceiveMessage = "receiveMessage"
)

// Envelope is the frame every channel event travels in.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals the payload into an envelope. A nil payload yields
// an envelope with no payload field at all.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: raw}, nil
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SendMessagePayload carries a delivery request. ClientMsgID is an opaque
// correlation token generated by the client; the server echoes it in the
// matching messageSent confirmation so the client can reconcile its
// optimistic entry by token, not by list position.
type SendMessagePayload struct {
	ReceiverID  string `json:"receiverId"`
	Content     string `json:"content"`
	ClientMsgID string `json:"clientMsgId,omitempty"`
}

type MessageSentPayload struct {
	domain.ConfirmedMessage
	ClientMsgID string `json:"clientMsgId,omitempty"`
}
