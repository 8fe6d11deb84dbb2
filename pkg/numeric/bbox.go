package numeric

import "math"

// BoundingBox is an axis-aligned box. A zero-value BoundingBox is empty
// (Empty reports true, and its zero Min and Max carry no meaning) until
// the first point is included.
type BoundingBox struct {
	Min, Max Vec3
	set      bool
}

// NewBoundingBox returns an empty bounding box.
func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether the box has never had a point included.
func (b BoundingBox) Empty() bool { return !b.set }

// Include grows the box to contain p, returning the updated box.
func (b BoundingBox) Include(p Vec3) BoundingBox {
	if !b.set {
		return BoundingBox{Min: p, Max: p, set: true}
	}
	return BoundingBox{
		Min: Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)},
		Max: Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)},
		set: true,
	}
}

// BoundingBoxOf computes the bounding box of a point set in a single pass.
func BoundingBoxOf(pts []Vec3) BoundingBox {
	b := NewBoundingBox()
	for _, p := range pts {
		b = b.Include(p)
	}
	return b
}

// Extent returns Max-Min per axis; zero on an empty box.
func (b BoundingBox) Extent() Vec3 {
	if !b.set {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box; zero on an empty box.
func (b BoundingBox) Center() Vec3 {
	if !b.set {
		return Vec3{}
	}
	return Lerp(b.Min, b.Max, 0.5)
}

// MeanExtent returns the mean of the extents across the three axes, used
// by the voxel-size estimation heuristic (SPEC_FULL.md §4.4).
func (b BoundingBox) MeanExtent() float64 {
	e := b.Extent()
	return (e.X + e.Y + e.Z) / 3
}

// Contains reports whether p lies within the box, inclusive of bounds.
func (b BoundingBox) Contains(p Vec3) bool {
	return b.set &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Expand returns a box whose extent is scaled by factor around its own
// center.
func (b BoundingBox) Expand(factor float64) BoundingBox {
	if !b.set {
		return b
	}
	c := b.Center()
	halfExtent := b.Extent().Scale(factor / 2)
	return BoundingBox{Min: c.Sub(halfExtent), Max: c.Add(halfExtent), set: true}
}
