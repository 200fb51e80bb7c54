package anim

import "sync"

// A Packet is the trace-facing view of a packet instance travelling through
// the simulated network. The UID must be stable across copies of the same
// logical packet, including the fan-out copies made for broadcast delivery,
// so that every receiver resolves to the same correlation token.
type Packet interface {
	// UID returns the stable identity of the packet instance.
	UID() string

	// ByteCount returns the size of the packet in bytes.
	ByteCount() uint32
}

// A MetadataProvider is a packet that can dump its protocol headers for
// meta records. Metadata capture is optional and off by default.
type MetadataProvider interface {
	Metadata() string
}

// CorrelationToken links a transmit event to its eventual receive events.
// Tokens are assigned monotonically and are never reused within a session.
type CorrelationToken uint64

// A Tagger assigns correlation tokens to packets. The token is kept in a
// side-channel map keyed by the packet's stable UID rather than being
// attached to the packet itself, so the core does not depend on the host
// engine's copy-propagation semantics.
type Tagger struct {
	mu        sync.Mutex
	nextToken uint64
	tokens    map[string]CorrelationToken
}

// NewTagger creates a Tagger with no tokens assigned.
func NewTagger() *Tagger {
	return &Tagger{
		tokens: make(map[string]CorrelationToken),
	}
}

// Tag returns the token of the packet, allocating the next token if the
// packet has not been tagged before. Tag is idempotent on an already-tagged
// packet.
func (t *Tagger) Tag(p Packet) CorrelationToken {
	t.mu.Lock()
	defer t.mu.Unlock()

	token, ok := t.tokens[p.UID()]
	if ok {
		return token
	}

	t.nextToken++
	token = CorrelationToken(t.nextToken)
	t.tokens[p.UID()] = token

	return token
}

// TokenOf returns the token previously assigned to the packet, without
// allocating one.
func (t *Tagger) TokenOf(p Packet) (CorrelationToken, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	token, ok := t.tokens[p.UID()]
	return token, ok
}

// Count returns the number of tokens assigned so far.
func (t *Tagger) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.nextToken
}
