// Package client implements the connecting side of the channel protocol:
// dialing with bounded retry, the authentication handshake, and a local
// timeline that reconciles optimistic sends with server confirmations.
package client

import (
	"courier/domain"
	"sync"
	"time"
)

// Entry is one timeline row. A pending entry holds only what the sender
// typed; once the confirmation arrives the entry is swapped in place for
// the authoritative record, so the visual position never changes.
type Entry struct {
	Token     string
	Confirmed bool
	Record    domain.ConfirmedMessage

	// Set while pending only.
	ReceiverID string
	Content    string
	QueuedAt   time.Time
}

// Timeline is the client-side view of a conversation. It is safe for use
// by the read loop and the sending goroutine concurrently.
type Timeline struct {
	mu      sync.Mutex
	entries []Entry
	byToken map[string]int
}

func NewTimeline() *Timeline {
	return &Timeline{byToken: make(map[string]int)}
}

// AppendPending records an optimistic entry under the given token.
func (t *Timeline) AppendPending(token, receiverID, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byToken[token] = len(t.entries)
	t.entries = append(t.entries, Entry{
		Token:      token,
		ReceiverID: receiverID,
		Content:    content,
		QueuedAt:   time.Now(),
	})
}

// Confirm swaps the pending entry matching token for the authoritative
// record. Confirmations may arrive in any order; each one resolves
// exactly the entry it was issued for. Unknown tokens are ignored.
func (t *Timeline) Confirm(token string, record domain.ConfirmedMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byToken[token]
	if !ok {
		return false
	}
	delete(t.byToken, token)
	t.entries[idx] = Entry{Token: token, Confirmed: true, Record: record}
	return true
}

// AppendRemote appends a record delivered by the other party.
func (t *Timeline) AppendRemote(record domain.ConfirmedMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Confirmed: true, Record: record})
}

// Pending reports how many entries still await confirmation.
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byToken)
}

// Snapshot returns a copy of the timeline in display order.
func (t *Timeline) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
