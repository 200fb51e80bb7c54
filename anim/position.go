package anim

import (
	"fmt"
	"math/rand"
	"sort"
)

// A PositionProvider reports the current position of a node. Mobility
// models of the host simulation implement this interface.
type PositionProvider interface {
	Position() Vector
}

const defaultBoundExtent = 100.0

// A PositionTracker caches the last-known position of every node, detects
// movement, and maintains the topology bounding box.
type PositionTracker struct {
	positions map[NodeID]Vector

	bounds    Bounds
	hasBounds bool

	randomFallback bool
	epsilon        float64
	rng            *rand.Rand
}

// NewPositionTracker creates an empty tracker. Random position fallback is
// disabled and movement detection is strict inequality.
func NewPositionTracker() *PositionTracker {
	return &PositionTracker{
		positions: make(map[NodeID]Vector),
		rng:       rand.New(rand.NewSource(1)),
	}
}

// SetRandomFallback enables or disables synthesizing a pseudo-random
// position for nodes that have no cached position.
func (t *PositionTracker) SetRandomFallback(enabled bool) {
	t.randomFallback = enabled
}

// SetMovementEpsilon sets the distance below which a position change does
// not count as movement. The default of zero treats any change as movement.
func (t *PositionTracker) SetMovementEpsilon(epsilon float64) {
	t.epsilon = epsilon
}

// GetPosition returns the cached position of the node. If no position is
// cached and random fallback is enabled, a pseudo-random position within
// the current topology bounds (or a default extent if no bounds exist yet)
// is synthesized, cached, and returned. Otherwise the call fails with
// ErrMissingPosition.
func (t *PositionTracker) GetPosition(node NodeID) (Vector, error) {
	pos, ok := t.positions[node]
	if ok {
		return pos, nil
	}

	if !t.randomFallback {
		return Vector{}, fmt.Errorf("%w: node %d", ErrMissingPosition, node)
	}

	bounds := t.bounds
	if !t.hasBounds {
		bounds = Bounds{MaxX: defaultBoundExtent, MaxY: defaultBoundExtent}
	}

	pos = Vector{
		X: bounds.MinX + t.rng.Float64()*(bounds.MaxX-bounds.MinX),
		Y: bounds.MinY + t.rng.Float64()*(bounds.MaxY-bounds.MinY),
	}
	t.UpdatePosition(node, pos)

	return pos, nil
}

// UpdatePosition overwrites the cached position of the node and expands the
// topology bounds to contain it. Bounds only grow here; shrinking requires
// an explicit RecalcBounds.
func (t *PositionTracker) UpdatePosition(node NodeID, pos Vector) {
	t.positions[node] = pos

	if !t.hasBounds {
		t.bounds = boundsAround(pos)
		t.hasBounds = true
		return
	}

	t.bounds = t.bounds.Expand(pos)
}

// HasMoved returns true if the new position differs from the cached one by
// more than the configured epsilon on any axis. An unknown node counts as
// moved.
func (t *PositionTracker) HasMoved(node NodeID, pos Vector) bool {
	cached, ok := t.positions[node]
	if !ok {
		return true
	}

	return abs(cached.X-pos.X) > t.epsilon ||
		abs(cached.Y-pos.Y) > t.epsilon ||
		abs(cached.Z-pos.Z) > t.epsilon
}

// RecalcBounds recomputes the bounding box from scratch over all cached
// positions and returns the nodes considered, in ascending ID order. It is
// used when a position was forcibly changed outside the normal update path.
func (t *PositionTracker) RecalcBounds() []NodeID {
	t.hasBounds = false

	nodes := make([]NodeID, 0, len(t.positions))
	for node := range t.positions {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	for _, node := range nodes {
		pos := t.positions[node]
		if !t.hasBounds {
			t.bounds = boundsAround(pos)
			t.hasBounds = true
			continue
		}
		t.bounds = t.bounds.Expand(pos)
	}

	return nodes
}

// Bounds returns the current topology bounds.
func (t *PositionTracker) Bounds() Bounds {
	return t.bounds
}

// Nodes returns the IDs of all nodes with a cached position, in ascending
// order.
func (t *PositionTracker) Nodes() []NodeID {
	nodes := make([]NodeID, 0, len(t.positions))
	for node := range t.positions {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	return nodes
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
