package anim

// NodeID identifies a simulated node.
type NodeID uint32

// Vector is a position in the simulated space.
type Vector struct {
	X, Y, Z float64
}

// Bounds is the minimal bounding rectangle containing all known node
// positions.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Expand grows the bounds to contain v. It never shrinks the bounds.
func (b Bounds) Expand(v Vector) Bounds {
	if v.X < b.MinX {
		b.MinX = v.X
	}
	if v.Y < b.MinY {
		b.MinY = v.Y
	}
	if v.X > b.MaxX {
		b.MaxX = v.X
	}
	if v.Y > b.MaxY {
		b.MaxY = v.Y
	}
	return b
}

// WithMargin returns the bounds grown by fraction of the larger extent on
// every side, so that nodes on the hull do not sit on the drawing edge.
func (b Bounds) WithMargin(fraction float64) Bounds {
	w := b.MaxX - b.MinX
	h := b.MaxY - b.MinY

	extent := w
	if h > extent {
		extent = h
	}

	margin := extent * fraction
	b.MinX -= margin
	b.MinY -= margin
	b.MaxX += margin
	b.MaxY += margin

	return b
}

func boundsAround(v Vector) Bounds {
	return Bounds{MinX: v.X, MinY: v.Y, MaxX: v.X, MaxY: v.Y}
}
