// Package domain contains core concepts of the direct-message system.
// Messages are immutable once created and validated before persistence.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength is the hard cap on message content, counted in runes
// after trimming. Longer content is rejected, never truncated.
const MaxContentLength = 1000

// Message represents an immutable direct message between two users.
type Message struct {
	ID         uuid.UUID // unique identifier, assigned at persistence
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Content    string
	CreatedAt  time.Time
}

// UserRef is the minimal identity attached to a confirmed record.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// ConfirmedMessage is a message after durable persistence, carrying the
// server-assigned id and timestamp plus resolved sender/receiver names.
// This is the shape sent on the wire, both over the channel and over REST.
type ConfirmedMessage struct {
	ID        uuid.UUID `json:"id"`
	Sender    UserRef   `json:"sender"`
	Receiver  UserRef   `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
