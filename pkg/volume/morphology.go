package volume

import (
	"github.com/esicore/esicore/pkg/gauge"
)

// structuringOffsets returns the (di,dj,dk) offsets of a spherical
// structuring element of the given diameter in voxels (radius =
// diameter/2), used by every morphological filter below.
func structuringOffsets(diameter int) [][3]int {
	if diameter < 1 {
		diameter = 1
	}
	radius := diameter / 2
	r2 := float64(radius * radius)
	var offs [][3]int
	for di := -radius; di <= radius; di++ {
		for dj := -radius; dj <= radius; dj++ {
			for dk := -radius; dk <= radius; dk++ {
				if float64(di*di+dj*dj+dk*dk) <= r2 {
					offs = append(offs, [3]int{di, dj, dk})
				}
			}
		}
	}
	if len(offs) == 0 {
		offs = [][3]int{{0, 0, 0}}
	}
	return offs
}

// neighborhoodReduce computes, for every voxel, reduce() over the
// structuring-element neighborhood of src (border voxels outside the
// array are treated as src.Background), and writes the result to a
// fresh volume — the shared engine behind Erode/Dilate/Max/Min. Each
// output voxel is written by exactly one goroutine (one per outer-axis
// slice), matching SPEC_FULL.md's concurrency contract.
func neighborhoodReduce(src *Volume, diameter int, collab *gauge.Collaborators, reduce func(values []float64) float64) (*Volume, error) {
	offs := structuringOffsets(diameter)
	d1, d2, d3 := src.Dims()
	out := src.Clone()
	scratch := make([][]float64, d1)
	for i := range scratch {
		scratch[i] = make([]float64, len(offs))
	}

	err := parallelSlices(d1, collab, func(i int) error {
		buf := scratch[i]
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				buf = buf[:0]
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					if src.Data.InBounds(ni, nj, nk) {
						buf = append(buf, src.Data.AtUnsafe(ni, nj, nk))
					} else {
						buf = append(buf, src.Background)
					}
				}
				out.Data.SetUnsafe(i, j, k, reduce(buf))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Erode shrinks foreground regions: each voxel becomes the minimum over
// its structuring-element neighborhood. Border voxels (outside the
// array) are treated as background, so foreground touching the array
// edge always shrinks.
func Erode(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	return neighborhoodReduce(src, diameter, collab, minOf)
}

// Dilate grows foreground regions: each voxel becomes the maximum over
// its structuring-element neighborhood.
func Dilate(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	return neighborhoodReduce(src, diameter, collab, maxOf)
}

// Complement swaps a binary {Background, foreground} volume's two
// values: voxels equal to Background become the detected foreground
// value and vice versa. The returned volume's own Background field is
// set to that foreground value, not left at the original's — every
// morphological filter extends a volume past the array edge using its
// own Background field, so flipping the data without also flipping
// which value Background names would make border padding inconsistent
// with the swap. When every voxel equals Background there is no
// foreground value to detect; 1 is used then, or 0 when Background is
// itself non-zero, so Complement(Complement(V)) returns V in that case
// too. With both flipped, dilate(V, r) =
// complement(erode(complement(V, r), r), r) holds pointwise, including
// at the array boundary (spec.md §8 testable property 4): Erode
// already treats an all-background exterior as "no tissue outside the
// volume" for V; Complement makes that same exterior read as
// "all-foreground outside the volume" for complement(V), which is
// exactly what erosion needs in order to not spuriously shrink
// complement(V) at the border.
func Complement(v *Volume) *Volume {
	foreground := 1.0
	if v.Background != 0 {
		foreground = 0
	}
	for _, x := range v.Data.Data() {
		if x != v.Background {
			foreground = x
			break
		}
	}
	out := v.Clone()
	data := out.Data.Data()
	for i, x := range v.Data.Data() {
		if x == v.Background {
			data[i] = foreground
		} else {
			data[i] = v.Background
		}
	}
	out.Background = foreground
	return out
}

// MaxFilter is the grayscale-field form of Dilate.
func MaxFilter(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	return Dilate(src, diameter, collab)
}

// MinFilter is the grayscale-field form of Erode.
func MinFilter(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	return Erode(src, diameter, collab)
}

// Open erodes then dilates, removing small foreground islands and thin
// protrusions without materially shrinking larger structures.
func Open(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	eroded, err := Erode(src, diameter, collab)
	if err != nil {
		return nil, err
	}
	return Dilate(eroded, diameter, collab)
}

// Close dilates then erodes, filling small background holes and gaps
// without materially growing larger structures.
func Close(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	dilated, err := Dilate(src, diameter, collab)
	if err != nil {
		return nil, err
	}
	return Erode(dilated, diameter, collab)
}

// MorphGradient returns Dilate(src)-Erode(src), highlighting boundaries.
func MorphGradient(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	dilated, err := Dilate(src, diameter, collab)
	if err != nil {
		return nil, err
	}
	eroded, err := Erode(src, diameter, collab)
	if err != nil {
		return nil, err
	}
	out := src.Clone()
	d1, _, _ := src.Dims()
	return out, parallelSlices(d1, collab, func(i int) error {
		dd := dilated.Data
		ee := eroded.Data
		_, d2, d3 := src.Dims()
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				out.Data.SetUnsafe(i, j, k, dd.AtUnsafe(i, j, k)-ee.AtUnsafe(i, j, k))
			}
		}
		return nil
	})
}

// morphGradientInternal is the internal variant used by skull-stripping:
// the gradient computed only where src is already foreground (non-
// background), zero elsewhere, avoiding gradient noise in background
// regions.
func morphGradientInternal(src *Volume, diameter int, collab *gauge.Collaborators) (*Volume, error) {
	grad, err := MorphGradient(src, diameter, collab)
	if err != nil {
		return nil, err
	}
	data := grad.Data.Data()
	srcData := src.Data.Data()
	for i := range data {
		if srcData[i] == src.Background {
			data[i] = 0
		}
	}
	return grad, nil
}

// ensureBinary is a small guard used by filters whose contract requires
// a {0, nonzero} mask input.
func ensureBinary(v *Volume) bool {
	for _, x := range v.Data.Data() {
		if x != 0 && x != 1 {
			return false
		}
	}
	return true
}
