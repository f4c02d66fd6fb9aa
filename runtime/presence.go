package runtime

import (
	"courier/contract"
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	channelID string
	sink      contract.MessageSink
}

// Presence is the single source of truth for "is this user reachable now".
// It maps an authenticated identity to its one live channel. All mutation
// goes through Bind/Unbind and all reads through Lookup; no other
// component caches identity-to-channel mappings.
type Presence struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
}

func NewPresence() *Presence {
	return &Presence{entries: make(map[uuid.UUID]entry)}
}

// Bind registers the channel as the live one for the identity. It is an
// idempotent upsert: a second handshake for the same identity overwrites
// the previous entry, which is how single-device presence is enforced.
// Races between an old channel closing and a new one authenticating are
// resolved here by last-write-wins.
func (p *Presence) Bind(userID uuid.UUID, channelID string, sink contract.MessageSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[userID] = entry{channelID: channelID, sink: sink}
}

// Unbind removes the entry bound to the given channel. It is a no-op when
// the channel is unknown, and crucially also when the identity has already
// been re-bound to a newer channel: a late disconnect of the old channel
// must not make the reconnected user unreachable.
func (p *Presence) Unbind(channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, e := range p.entries {
		if e.channelID == channelID {
			delete(p.entries, userID)
			return
		}
	}
}

// Lookup returns the sink of the identity's live channel, if any.
func (p *Presence) Lookup(userID uuid.UUID) (contract.MessageSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[userID]
	if !ok {
		return nil, false
	}
	return e.sink, true
}

// Size reports the number of live bindings, for telemetry.
func (p *Presence) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
