package anim

import "errors"

// Error values returned by the animation core. Only destination-level I/O
// failures are fatal to a session; the rest are logged and the offending
// event is dropped.
var (
	// ErrDestinationUnavailable is returned when the trace destination
	// cannot be opened or bound.
	ErrDestinationUnavailable = errors.New("trace destination unavailable")

	// ErrDuplicateTransmit is returned when a transmit is recorded twice
	// for one token in one category. The existing pending entry is kept.
	ErrDuplicateTransmit = errors.New("duplicate transmit for token")

	// ErrUnmatchedReceive is returned when a receive event carries a token
	// with no pending entry. This legitimately happens after a purge.
	ErrUnmatchedReceive = errors.New("no pending transmit for token")

	// ErrMissingPosition is returned when a position is requested for a
	// node without a cached position and random fallback is disabled.
	ErrMissingPosition = errors.New("no position known for node")

	// ErrRotationIOFailure is returned when the next file in a rotation
	// sequence cannot be opened. It is fatal to the session.
	ErrRotationIOFailure = errors.New("cannot open next trace file")

	// ErrSessionNotStarted is returned when an operation requires an
	// active capture session.
	ErrSessionNotStarted = errors.New("animation session not started")
)
