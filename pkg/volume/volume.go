// Package volume implements the 3-D scalar field and its in-place
// morphological, statistical, smoothing, shape, and region-growing
// operators (SPEC_FULL.md §4.3), parallelized data-parallel over the
// outermost array axis the way pkg/skullstrip's recipes expect.
package volume

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/gauge"
	"github.com/esicore/esicore/pkg/numeric"
)

// Volume is a Dense3D<float64> plus the metadata SPEC_FULL.md's data
// model requires: voxel size, origin, and an orientation label. The
// background value is the declared threshold below which a voxel is
// considered outside the field of view.
type Volume struct {
	Data        *numeric.Dense3D[float64]
	VoxelSize   numeric.Vec3
	Origin      numeric.Vec3
	Orientation string
	Background  float64
}

// New allocates a zero-valued volume of the given shape.
func New(d1, d2, d3 int, voxelSize numeric.Vec3) *Volume {
	return &Volume{
		Data:      numeric.NewDense3D[float64](d1, d2, d3),
		VoxelSize: voxelSize,
	}
}

// Dims returns the volume's shape.
func (v *Volume) Dims() (int, int, int) { return v.Data.Dims() }

// ToAbsolute converts a voxel index to absolute MRI-space coordinates:
// Origin + (i,j,k) scaled by VoxelSize.
func (v *Volume) ToAbsolute(i, j, k int) numeric.Vec3 {
	return v.Origin.Add(numeric.Vec3{
		X: float64(i) * v.VoxelSize.X,
		Y: float64(j) * v.VoxelSize.Y,
		Z: float64(k) * v.VoxelSize.Z,
	})
}

// Clone returns a deep copy, metadata included.
func (v *Volume) Clone() *Volume {
	return &Volume{
		Data:        v.Data.Clone(),
		VoxelSize:   v.VoxelSize,
		Origin:      v.Origin,
		Orientation: v.Orientation,
		Background:  v.Background,
	}
}

// BoundingBox returns the bounding box of non-background voxels in
// absolute coordinates.
func (v *Volume) BoundingBox() numeric.BoundingBox {
	d1, d2, d3 := v.Dims()
	bb := numeric.NewBoundingBox()
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				if v.Data.AtUnsafe(i, j, k) != v.Background {
					bb = bb.Include(v.ToAbsolute(i, j, k))
				}
			}
		}
	}
	return bb
}

// IsEmpty reports whether every voxel equals Background — the
// degenerate case skull-stripping recipes must detect and abort on.
func (v *Volume) IsEmpty() bool {
	for _, x := range v.Data.Data() {
		if x != v.Background {
			return false
		}
	}
	return true
}

// parallelSlices runs fn once per index of the outermost axis (0..d1-1)
// across a bounded worker pool, joining before returning. Each call
// reports one unit of progress and the loop stops early (returning
// esierr.Cancelled) if collab's gauge is cancelled at a slice boundary.
// The in-place contract for any filter that reads neighbors is a full
// read of `src` into per-slice output written to `dst`; callers swap
// dst into place once every slice has completed.
func parallelSlices(d1 int, collab *gauge.Collaborators, fn func(i int) error) error {
	if collab == nil {
		collab = gauge.Headless()
	}
	workers := runtime.NumCPU()
	if workers > d1 {
		workers = d1
	}
	if workers < 1 {
		workers = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := 0; i < d1; i++ {
		i := i
		g.Go(func() error {
			if collab.Gauge.Cancelled() {
				return esierr.Cancelled
			}
			if err := fn(i); err != nil {
				return err
			}
			collab.Gauge.Add(1)
			return nil
		})
	}
	return g.Wait()
}

// neighborOffsets returns the voxel offsets for the given connectivity
// (6, 18, or 26), used by region growing and the mask flood-fill.
func neighborOffsets(connectivity int) [][3]int {
	var all [][3]int
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			for dk := -1; dk <= 1; dk++ {
				if di == 0 && dj == 0 && dk == 0 {
					continue
				}
				manhattan := abs(di) + abs(dj) + abs(dk)
				switch connectivity {
				case 6:
					if manhattan == 1 {
						all = append(all, [3]int{di, dj, dk})
					}
				case 18:
					if manhattan <= 2 {
						all = append(all, [3]int{di, dj, dk})
					}
				default: // 26
					all = append(all, [3]int{di, dj, dk})
				}
			}
		}
	}
	return all
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
