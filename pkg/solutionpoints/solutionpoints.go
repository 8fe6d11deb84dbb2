// Package solutionpoints builds the 1-nearest-neighbor and
// 4-nearest-neighbors interpolation arrays that map a sparse cloud of
// source locations onto a dense MRI voxel grid (SPEC_FULL.md §4.6).
package solutionpoints

import (
	"math"
	"sort"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/gauge"
	"github.com/esicore/esicore/pkg/numeric"
	"github.com/esicore/esicore/pkg/pointcloud"
	"github.com/esicore/esicore/pkg/volume"
)

// SentinelIndex marks a voxel with no eligible solution point within
// range (spec.md §4.6's "max-uint16" sentinel).
const SentinelIndex = math.MaxUint16

// Doc holds a solution-point cloud pre-sorted Z-X-Y (per
// pointcloud.Cloud.SortZXY), its median inter-point distance ("step"),
// and a per-z-slice index range precomputed over a specific grid.
type Doc struct {
	Points *pointcloud.Cloud
	Step   float64

	sliceFirst, sliceLast []int // length = grid d3, built by BuildZIndex
}

// NewDoc sorts points Z-X-Y and computes the median inter-point
// distance used as the interpolation's natural length scale. A
// single-point cloud has no inter-point distance: its Step is 0, so
// Build1NN only assigns voxels that coincide with the point, and every
// 4-NN record gives that point the full weight 255.
func NewDoc(points *pointcloud.Cloud) (*Doc, error) {
	if points.Len() == 0 {
		return nil, esierr.Degenerate
	}
	points.SortZXY()
	if points.Len() == 1 {
		return &Doc{Points: points}, nil
	}
	step, err := points.MedianDistance()
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, esierr.Degenerate
	}
	return &Doc{Points: points, Step: step}, nil
}

// PreparMask dilates the grey-matter mask by one voxel (6-connectivity,
// spherical diameter 3) so border solution points are not spuriously
// rejected, and reports the fraction of solution points that fall
// outside the dilated mask. If that fraction is >= 0.25, collab.Ask is
// consulted before proceeding (spec.md §4.6's confirmation gate).
func (d *Doc) PreparMask(mask *volume.Volume, collab *gauge.Collaborators) (*volume.Volume, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	dilated, err := volume.Dilate(mask, 3, collab)
	if err != nil {
		return nil, err
	}

	outside := 0
	for i := 0; i < d.Points.Len(); i++ {
		p := d.Points.At(i)
		gi, gj, gk := voxelOf(dilated, p)
		if !dilated.Data.InBounds(gi, gj, gk) || dilated.Data.At(gi, gj, gk) == dilated.Background {
			outside++
		}
	}
	frac := float64(outside) / float64(d.Points.Len())
	if frac >= 0.25 {
		if !collab.Ask("more than 25% of solution points fall outside the dilated mask, continue?") {
			return nil, esierr.Degenerate
		}
	}
	return dilated, nil
}

// BuildZIndex precomputes, for each z-slice of grid, the [first,last)
// range of solution-point indices (in the Z-X-Y sorted order) whose Z
// coordinate lies within searchRadius of that slice's absolute Z —
// spec.md §4.6's firstSPIndex/lastSPIndex precomputation.
func (d *Doc) BuildZIndex(grid *volume.Volume, searchRadius float64) {
	_, _, d3 := grid.Dims()
	d.sliceFirst = make([]int, d3)
	d.sliceLast = make([]int, d3)
	n := d.Points.Len()
	zAt := func(i int) float64 { return d.Points.At(i).Z }
	for k := 0; k < d3; k++ {
		zAbs := grid.ToAbsolute(0, 0, k).Z
		lo := sort.Search(n, func(i int) bool { return zAt(i) >= zAbs-searchRadius })
		hi := sort.Search(n, func(i int) bool { return zAt(i) > zAbs+searchRadius })
		d.sliceFirst[k] = lo
		d.sliceLast[k] = hi
	}
}

func (d *Doc) rangeFor(k int) (int, int) {
	if d.sliceFirst == nil {
		return 0, d.Points.Len()
	}
	if k < 0 || k >= len(d.sliceFirst) {
		return 0, 0
	}
	return d.sliceFirst[k], d.sliceLast[k]
}

func voxelOf(v *volume.Volume, p numeric.Vec3) (int, int, int) {
	rel := p.Sub(v.Origin)
	return int(math.Round(rel.X / v.VoxelSize.X)),
		int(math.Round(rel.Y / v.VoxelSize.Y)),
		int(math.Round(rel.Z / v.VoxelSize.Z))
}

// Build1NN fills a uint16 Dense3D the same shape as mask: for every
// non-background voxel it stores the index of the nearest solution
// point by Chebyshev distance, or SentinelIndex if none lies within
// step*0.5*sqrt(3).
func (d *Doc) Build1NN(mask *volume.Volume, collab *gauge.Collaborators) (*numeric.Dense3D[uint16], error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	threshold := d.Step * 0.5 * math.Sqrt(3)
	d1, d2, d3 := mask.Dims()
	out := numeric.NewDense3D[uint16](d1, d2, d3)
	for i := range out.Data() {
		out.Data()[i] = SentinelIndex
	}

	for i := 0; i < d1; i++ {
		if collab.Gauge.Cancelled() {
			return nil, esierr.Cancelled
		}
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				if mask.Data.At(i, j, k) == mask.Background {
					continue
				}
				abs := mask.ToAbsolute(i, j, k)
				lo, hi := d.rangeFor(k)
				bestIdx, bestDist := -1, math.Inf(1)
				for n := lo; n < hi; n++ {
					dist := abs.Chebyshev(d.Points.At(n))
					if dist < bestDist {
						bestDist = dist
						bestIdx = n
					}
				}
				if bestIdx >= 0 && bestDist <= threshold {
					out.Set(i, j, k, uint16(bestIdx))
				}
			}
		}
		collab.Gauge.Add(1)
	}
	return out, nil
}

// FourNNRecord is one voxel's 4-nearest-neighbor interpolation record:
// indices I (ascending by distance) and 8-bit weights W with
// W[0]+W[1]+W[2]+W[3] = 255 exactly.
type FourNNRecord struct {
	I [4]uint16
	W [4]uint8
}

// Build4NN fills a FourNNRecord per non-background voxel of mask,
// computing insertion-sorted 4-nearest solution points and their
// integer interpolation weights per spec.md §4.6.
func (d *Doc) Build4NN(mask *volume.Volume, collab *gauge.Collaborators) (map[[3]int]FourNNRecord, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	d1, d2, d3 := mask.Dims()
	out := make(map[[3]int]FourNNRecord)

	for i := 0; i < d1; i++ {
		if collab.Gauge.Cancelled() {
			return nil, esierr.Cancelled
		}
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				if mask.Data.At(i, j, k) == mask.Background {
					continue
				}
				abs := mask.ToAbsolute(i, j, k)
				lo, hi := d.rangeFor(k)
				var idx [4]int
				var sq [4]float64
				n := 0
				for p := lo; p < hi; p++ {
					dist2 := abs.Sub(d.Points.At(p)).NormSquared()
					pos := n
					if pos > 4 {
						pos = 4
					}
					for pos > 0 && sq[pos-1] > dist2 {
						if pos < 4 {
							sq[pos] = sq[pos-1]
							idx[pos] = idx[pos-1]
						}
						pos--
					}
					if pos < 4 {
						sq[pos] = dist2
						idx[pos] = p
					}
					if n < 4 {
						n++
					}
				}
				if n == 0 {
					continue
				}
				out[[3]int{i, j, k}] = d.weightsFor(idx, sq, n)
			}
		}
		collab.Gauge.Add(1)
	}
	return out, nil
}

func (d *Doc) weightsFor(idx [4]int, sq [4]float64, n int) FourNNRecord {
	rec := FourNNRecord{}
	for t := 0; t < n; t++ {
		rec.I[t] = uint16(idx[t])
	}
	if sq[0] == 0 {
		rec.W[0] = 255
		return rec
	}

	dNorm := [4]float64{}
	invSum := 0.0
	for t := 0; t < n; t++ {
		dNorm[t] = math.Sqrt(sq[t]) / d.Step
		if dNorm[t] == 0 {
			dNorm[t] = 1e-12
		}
		invSum += 1 / dNorm[t]
	}
	// The last populated slot always absorbs the rounding residual
	// (255 - sum of the others), never an independently-rounded value,
	// so W[0]+W[1]+W[2]+W[3] = 255 holds exactly regardless of how many
	// neighbors n were actually found.
	last := n - 1
	if last > 3 {
		last = 3
	}
	var sumRest int
	for t := 0; t < last; t++ {
		w := int(math.Round(255 * (1 / dNorm[t]) / invSum))
		rec.W[t] = uint8(w)
		sumRest += w
	}
	rec.W[last] = uint8(255 - sumRest)
	return rec
}
