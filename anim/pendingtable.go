package anim

import (
	"fmt"

	"github.com/sarchlab/animtrace/sim"
)

// A PendingRecord holds the transmit-side metadata of a packet that awaits
// one or more matching receive events.
type PendingRecord struct {
	Token          CorrelationToken
	FromNode       NodeID
	FirstBitTxTime sim.VTimeInSec
	LastBitTxTime  sim.VTimeInSec
	ByteCount      uint32
	WirelessRange  float64
	AuxInfo        string
}

// An RxRecord holds the receive-side half of a correlated packet record.
type RxRecord struct {
	ToNode         NodeID
	FirstBitRxTime sim.VTimeInSec
	LastBitRxTime  sim.VTimeInSec
}

// A PendingTable tracks the pending records of one link category. The
// completion policy of the category decides whether a matching receive
// consumes the entry (point-to-point) or leaves it for further receivers
// (broadcast).
type PendingTable struct {
	category   Category
	policy     CompletionPolicy
	timeTeller sim.TimeTeller

	records     map[CorrelationToken]PendingRecord
	purgedCount uint64
}

// NewPendingTable creates a table for the given category, using the
// category's default completion policy.
func NewPendingTable(
	category Category,
	timeTeller sim.TimeTeller,
) *PendingTable {
	return &PendingTable{
		category:   category,
		policy:     category.Policy(),
		timeTeller: timeTeller,
		records:    make(map[CorrelationToken]PendingRecord),
	}
}

// Category returns the link category the table serves.
func (t *PendingTable) Category() Category {
	return t.category
}

// RecordTransmit adds a pending record for the token. Recording a second
// transmit for a token that is still pending is an error; the existing
// entry is retained.
func (t *PendingTable) RecordTransmit(
	token CorrelationToken,
	rec PendingRecord,
) error {
	if _, exists := t.records[token]; exists {
		return fmt.Errorf("%w: %d in %s table",
			ErrDuplicateTransmit, token, t.category)
	}

	rec.Token = token
	t.records[token] = rec

	return nil
}

// IsPending returns true if the token has a pending record.
func (t *PendingTable) IsPending(token CorrelationToken) bool {
	_, exists := t.records[token]
	return exists
}

// SetLastBitTxTime updates the last-bit transmit time of a pending record.
// Technologies that report transmit-begin and transmit-end separately use
// this to close the transmit interval.
func (t *PendingTable) SetLastBitTxTime(
	token CorrelationToken,
	time sim.VTimeInSec,
) {
	rec, exists := t.records[token]
	if !exists {
		return
	}

	rec.LastBitTxTime = time
	t.records[token] = rec
}

// Consume matches a receive against the pending record of the token. Under
// ConsumeOnce the entry is removed; under ConsumeWhilePending it stays so
// that further broadcast receivers can match it too.
func (t *PendingTable) Consume(
	token CorrelationToken,
) (PendingRecord, error) {
	rec, exists := t.records[token]
	if !exists {
		return PendingRecord{}, fmt.Errorf("%w: %d in %s table",
			ErrUnmatchedReceive, token, t.category)
	}

	if t.policy == ConsumeOnce {
		delete(t.records, token)
	}

	return rec, nil
}

// Complete removes the pending record of the token. This is the explicit
// completion signal of the category's protocol collaborator, e.g. a
// transmit drop or a last-receiver notification.
func (t *PendingTable) Complete(token CorrelationToken) {
	delete(t.records, token)
}

// Purge removes every pending record whose first-bit transmit time is older
// than maxAge before the current time. It returns the number of removed
// records. Purged entries are not errors; they accumulate in a diagnostic
// counter instead.
func (t *PendingTable) Purge(maxAge sim.VTimeInSec) int {
	now := t.timeTeller.CurrentTime()
	removed := 0

	for token, rec := range t.records {
		if now-rec.FirstBitTxTime > maxAge {
			delete(t.records, token)
			removed++
		}
	}

	t.purgedCount += uint64(removed)

	return removed
}

// Reset drops every pending record. The purged-count diagnostic survives a
// reset.
func (t *PendingTable) Reset() {
	t.records = make(map[CorrelationToken]PendingRecord)
}

// PurgedCount returns the total number of records removed by purges over
// the lifetime of the table.
func (t *PendingTable) PurgedCount() uint64 {
	return t.purgedCount
}

// Len returns the number of pending records.
func (t *PendingTable) Len() int {
	return len(t.records)
}
