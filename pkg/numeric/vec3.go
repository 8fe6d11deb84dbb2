// Package numeric provides the dependency-free geometric and array
// primitives every other esicore package builds on: 3-D vectors, 4x4
// transforms, a generic dense 3-D array, and bounding boxes.
package numeric

import "math"

// Vec3 is a 3-D point or direction in double precision.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product v.w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// NormSquared returns the squared Euclidean length of v, avoiding a sqrt.
func (v Vec3) NormSquared() float64 { return v.Dot(v) }

// Normalized returns v scaled to unit length; the zero vector is returned
// unchanged rather than dividing by zero.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// DistanceTo returns the Euclidean distance between v and w.
func (v Vec3) DistanceTo(w Vec3) float64 { return v.Sub(w).Norm() }

// Chebyshev returns the Chebyshev (max-axis) distance between v and w,
// used by the 1-NN interpolation locality test.
func (v Vec3) Chebyshev(w Vec3) float64 {
	return math.Max(math.Abs(v.X-w.X), math.Max(math.Abs(v.Y-w.Y), math.Abs(v.Z-w.Z)))
}

// Lerp linearly interpolates between v and w at parameter t.
func Lerp(v, w Vec3, t float64) Vec3 {
	return v.Add(w.Sub(v).Scale(t))
}
