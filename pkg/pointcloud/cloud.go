// Package pointcloud implements the dynamic 3-D point list subsystem:
// append-only storage, geometric queries (nearest element, median
// distance, neighborhoods), downsampling, and the point file formats
// (XYZ and SPI/SPIRR text, LOC binary).
package pointcloud

import (
	"math"
	"sort"
	"sync"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/numeric"
)

// Cloud is a dynamic sequence of named 3-D points. Appends are safe for
// concurrent use (single lock, per SPEC_FULL.md's concurrency model);
// all other operations assume the caller has stopped appending.
type Cloud struct {
	mu     sync.Mutex
	points []numeric.Vec3
	names  []string
}

// New returns an empty cloud.
func New() *Cloud { return &Cloud{} }

// NewFromPoints wraps an existing slice of points with empty names.
func NewFromPoints(pts []numeric.Vec3) *Cloud {
	return &Cloud{points: pts, names: make([]string, len(pts))}
}

// Append adds a point with an optional name.
func (c *Cloud) Append(p numeric.Vec3, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, p)
	c.names = append(c.names, name)
}

// Len returns the number of points, which always equals the length of
// the underlying storage.
func (c *Cloud) Len() int { return len(c.points) }

// At returns the i-th point.
func (c *Cloud) At(i int) numeric.Vec3 { return c.points[i] }

// Name returns the i-th point's name, or "" if unset.
func (c *Cloud) Name(i int) string { return c.names[i] }

// SetAt overwrites the i-th point (used by in-place transforms such as
// re-centering).
func (c *Cloud) SetAt(i int, p numeric.Vec3) { c.points[i] = p }

// Points returns the underlying point slice; callers must not retain it
// across further Appends.
func (c *Cloud) Points() []numeric.Vec3 { return c.points }

// BoundingBox returns the axis-aligned bounding box of all points.
func (c *Cloud) BoundingBox() numeric.BoundingBox {
	return numeric.BoundingBoxOf(c.points)
}

// Center returns the arithmetic mean of all points; the zero vector on
// an empty cloud.
func (c *Cloud) Center() numeric.Vec3 {
	if len(c.points) == 0 {
		return numeric.Vec3{}
	}
	var sum numeric.Vec3
	for _, p := range c.points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(c.points)))
}

// SortZXY sorts points in place lexicographically by (Z, X, Y), the
// ordering pkg/solutionpoints relies on to build its per-slice index.
// Names are permuted along with points.
func (c *Cloud) SortZXY() {
	idx := make([]int, len(c.points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := c.points[idx[i]], c.points[idx[j]]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	newPoints := make([]numeric.Vec3, len(c.points))
	newNames := make([]string, len(c.names))
	for i, j := range idx {
		newPoints[i] = c.points[j]
		newNames[i] = c.names[j]
	}
	c.points, c.names = newPoints, newNames
}

// NearestIndex returns the index of the point in c closest to p by
// Euclidean distance, and that distance. Returns esierr.Degenerate on an
// empty cloud.
func (c *Cloud) NearestIndex(p numeric.Vec3) (idx int, dist float64, err error) {
	if len(c.points) == 0 {
		return 0, 0, esierr.Degenerate
	}
	best, bestDist := 0, math.Inf(1)
	for i, q := range c.points {
		d := p.DistanceTo(q)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist, nil
}

// MedianDistance returns the median, over all points, of each point's
// distance to its single nearest neighbor within the cloud — the "step"
// quantity SPEC_FULL.md's interpolation engine uses to scale its
// locality and weighting thresholds.
func (c *Cloud) MedianDistance() (float64, error) {
	n := len(c.points)
	if n < 2 {
		return 0, esierr.Degenerate
	}
	dists := make([]float64, n)
	for i, p := range c.points {
		best := math.Inf(1)
		for j, q := range c.points {
			if i == j {
				continue
			}
			if d := p.DistanceTo(q); d < best {
				best = d
			}
		}
		dists[i] = best
	}
	sort.Float64s(dists)
	if n%2 == 1 {
		return dists[n/2], nil
	}
	return (dists[n/2-1] + dists[n/2]) / 2, nil
}

// Neighborhood returns the indices of every point within radius of the
// point at idx, excluding idx itself.
func (c *Cloud) Neighborhood(idx int, radius float64) []int {
	p := c.points[idx]
	var out []int
	for i, q := range c.points {
		if i == idx {
			continue
		}
		if p.DistanceTo(q) <= radius {
			out = append(out, i)
		}
	}
	return out
}

// Downsample returns a new Cloud keeping every stride-th point (stride
// >= 1); stride == 1 returns an equivalent copy.
func (c *Cloud) Downsample(stride int) *Cloud {
	if stride < 1 {
		stride = 1
	}
	out := New()
	for i := 0; i < len(c.points); i += stride {
		out.Append(c.points[i], c.names[i])
	}
	return out
}

// Transform applies m to every point in place.
func (c *Cloud) Transform(m numeric.Mat4) {
	for i, p := range c.points {
		c.points[i] = m.Apply(p)
	}
}

// Clone returns a deep copy of c.
func (c *Cloud) Clone() *Cloud {
	out := &Cloud{
		points: append([]numeric.Vec3(nil), c.points...),
		names:  append([]string(nil), c.names...),
	}
	return out
}
