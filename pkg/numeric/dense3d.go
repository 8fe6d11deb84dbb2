package numeric

import "fmt"

// Dense3D is a linearized 3-D dense array, generic over its element type.
// Storage is row-major with the last axis (Z) varying fastest, matching
// SPEC_FULL.md's Dense3D<T> layout contract. Bounds-checked accessors
// (At/Set) are kept separate from the unchecked fast path (AtUnsafe/
// SetUnsafe) used by the inner loops of pkg/volume filters.
type Dense3D[T any] struct {
	d1, d2, d3 int
	data       []T
}

// NewDense3D allocates a zero-valued array of shape (d1,d2,d3).
func NewDense3D[T any](d1, d2, d3 int) *Dense3D[T] {
	if d1 < 0 || d2 < 0 || d3 < 0 {
		panic("numeric: negative dimension")
	}
	return &Dense3D[T]{d1: d1, d2: d2, d3: d3, data: make([]T, d1*d2*d3)}
}

// Dims returns the array's shape.
func (a *Dense3D[T]) Dims() (d1, d2, d3 int) { return a.d1, a.d2, a.d3 }

// Len returns the total number of elements, d1*d2*d3.
func (a *Dense3D[T]) Len() int { return len(a.data) }

// Data exposes the underlying linear storage for bulk operations
// (parallel loops, serialization). Callers must respect the Index layout.
func (a *Dense3D[T]) Data() []T { return a.data }

// Index linearizes (i,j,k) into a storage offset, with k varying fastest.
func (a *Dense3D[T]) Index(i, j, k int) int {
	return (i*a.d2+j)*a.d3 + k
}

// InBounds reports whether (i,j,k) is a valid index into a.
func (a *Dense3D[T]) InBounds(i, j, k int) bool {
	return i >= 0 && i < a.d1 && j >= 0 && j < a.d2 && k >= 0 && k < a.d3
}

// At returns a[i,j,k], panicking with a descriptive message if out of
// bounds. Use AtUnsafe in hot loops that have already range-checked.
func (a *Dense3D[T]) At(i, j, k int) T {
	if !a.InBounds(i, j, k) {
		panic(fmt.Sprintf("numeric: index (%d,%d,%d) out of bounds for shape (%d,%d,%d)", i, j, k, a.d1, a.d2, a.d3))
	}
	return a.data[a.Index(i, j, k)]
}

// Set assigns a[i,j,k] = v, panicking if out of bounds.
func (a *Dense3D[T]) Set(i, j, k int, v T) {
	if !a.InBounds(i, j, k) {
		panic(fmt.Sprintf("numeric: index (%d,%d,%d) out of bounds for shape (%d,%d,%d)", i, j, k, a.d1, a.d2, a.d3))
	}
	a.data[a.Index(i, j, k)] = v
}

// AtUnsafe returns a[i,j,k] without bounds checking.
func (a *Dense3D[T]) AtUnsafe(i, j, k int) T {
	return a.data[a.Index(i, j, k)]
}

// SetUnsafe assigns a[i,j,k] = v without bounds checking.
func (a *Dense3D[T]) SetUnsafe(i, j, k int, v T) {
	a.data[a.Index(i, j, k)] = v
}

// AtFlat returns the element at linear offset idx, idx = Index(i,j,k).
func (a *Dense3D[T]) AtFlat(idx int) T { return a.data[idx] }

// SetFlat assigns the element at linear offset idx.
func (a *Dense3D[T]) SetFlat(idx int, v T) { a.data[idx] = v }

// Fill sets every element to v.
func (a *Dense3D[T]) Fill(v T) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Clone returns a deep copy of a.
func (a *Dense3D[T]) Clone() *Dense3D[T] {
	out := &Dense3D[T]{d1: a.d1, d2: a.d2, d3: a.d3, data: make([]T, len(a.data))}
	copy(out.data, a.data)
	return out
}

// Resize discards content and reallocates to the new shape, per
// SPEC_FULL.md's Dense3D<T> lifecycle contract.
func (a *Dense3D[T]) Resize(d1, d2, d3 int) {
	a.d1, a.d2, a.d3 = d1, d2, d3
	a.data = make([]T, d1*d2*d3)
}

// SameShape reports whether a and b have identical dimensions.
func (a *Dense3D[T]) SameShape(b *Dense3D[T]) bool {
	return a.d1 == b.d1 && a.d2 == b.d2 && a.d3 == b.d3
}
