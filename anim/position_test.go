package anim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PositionTracker", func() {
	var tracker *PositionTracker

	BeforeEach(func() {
		tracker = NewPositionTracker()
	})

	It("should fail for a node with no cached position", func() {
		_, err := tracker.GetPosition(5)
		Expect(err).To(MatchError(ErrMissingPosition))
	})

	It("should synthesize a fallback position within the bounds", func() {
		tracker.SetRandomFallback(true)
		tracker.UpdatePosition(0, Vector{X: 10, Y: 10})
		tracker.UpdatePosition(1, Vector{X: 50, Y: 40})

		pos, err := tracker.GetPosition(2)
		Expect(err).ToNot(HaveOccurred())
		Expect(pos.X).To(And(
			BeNumerically(">=", 10), BeNumerically("<=", 50)))
		Expect(pos.Y).To(And(
			BeNumerically(">=", 10), BeNumerically("<=", 40)))

		again, err := tracker.GetPosition(2)
		Expect(err).ToNot(HaveOccurred())
		Expect(again).To(Equal(pos))
	})

	It("should fall back to the default extent with no bounds yet", func() {
		tracker.SetRandomFallback(true)

		pos, err := tracker.GetPosition(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(pos.X).To(And(
			BeNumerically(">=", 0), BeNumerically("<=", 100)))
		Expect(pos.Y).To(And(
			BeNumerically(">=", 0), BeNumerically("<=", 100)))
	})

	It("should treat any change as movement by default", func() {
		tracker.UpdatePosition(0, Vector{X: 1, Y: 1})

		Expect(tracker.HasMoved(0, Vector{X: 1, Y: 1})).To(BeFalse())
		Expect(tracker.HasMoved(0, Vector{X: 1.0000001, Y: 1})).To(BeTrue())
	})

	It("should ignore movement below the epsilon", func() {
		tracker.SetMovementEpsilon(0.5)
		tracker.UpdatePosition(0, Vector{X: 1, Y: 1})

		Expect(tracker.HasMoved(0, Vector{X: 1.4, Y: 1.2})).To(BeFalse())
		Expect(tracker.HasMoved(0, Vector{X: 1.6, Y: 1})).To(BeTrue())
	})

	It("should treat an unknown node as moved", func() {
		Expect(tracker.HasMoved(9, Vector{})).To(BeTrue())
	})

	It("should only expand the bounds on updates", func() {
		tracker.UpdatePosition(0, Vector{X: 10, Y: 10})
		tracker.UpdatePosition(1, Vector{X: 90, Y: 70})
		tracker.UpdatePosition(1, Vector{X: 20, Y: 20})

		bounds := tracker.Bounds()
		Expect(bounds).To(Equal(Bounds{
			MinX: 10, MinY: 10, MaxX: 90, MaxY: 70,
		}))
	})

	It("should shrink the bounds on an explicit recalculation", func() {
		tracker.UpdatePosition(0, Vector{X: 10, Y: 10})
		tracker.UpdatePosition(1, Vector{X: 90, Y: 70})
		tracker.UpdatePosition(1, Vector{X: 20, Y: 20})

		nodes := tracker.RecalcBounds()
		Expect(nodes).To(Equal([]NodeID{0, 1}))
		Expect(tracker.Bounds()).To(Equal(Bounds{
			MinX: 10, MinY: 10, MaxX: 20, MaxY: 20,
		}))
	})

	It("should list nodes in ascending order", func() {
		tracker.UpdatePosition(7, Vector{})
		tracker.UpdatePosition(2, Vector{})
		tracker.UpdatePosition(5, Vector{})

		Expect(tracker.Nodes()).To(Equal([]NodeID{2, 5, 7}))
	})
})

var _ = Describe("Bounds", func() {
	It("should grow by a fraction of the larger extent", func() {
		b := Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}

		grown := b.WithMargin(0.1)

		Expect(grown).To(Equal(Bounds{
			MinX: -10, MinY: -10, MaxX: 110, MaxY: 60,
		}))
	})
})
