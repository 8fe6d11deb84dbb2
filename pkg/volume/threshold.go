package volume

import "github.com/esicore/esicore/pkg/gauge"

// mapVoxels applies f to every voxel of src in parallel over the
// outermost axis and returns the result as a fresh volume.
func mapVoxels(src *Volume, collab *gauge.Collaborators, f func(x float64) float64) (*Volume, error) {
	out := src.Clone()
	d1, d2, d3 := src.Dims()
	err := parallelSlices(d1, collab, func(i int) error {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				out.Data.SetUnsafe(i, j, k, f(src.Data.AtUnsafe(i, j, k)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Binarize maps x>0 to 1 and everything else to 0.
func Binarize(src *Volume, collab *gauge.Collaborators) (*Volume, error) {
	return mapVoxels(src, collab, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

// ThresholdAbove zeroes every voxel at or below t, leaving voxels above
// t unchanged.
func ThresholdAbove(src *Volume, t float64, collab *gauge.Collaborators) (*Volume, error) {
	return mapVoxels(src, collab, func(x float64) float64 {
		if x > t {
			return x
		}
		return 0
	})
}

// ThresholdBelow zeroes every voxel at or above t, leaving voxels below
// t unchanged — the natural dual of ThresholdAbove (original_source's
// TFilters.Threshold.h keeps both).
func ThresholdBelow(src *Volume, t float64, collab *gauge.Collaborators) (*Volume, error) {
	return mapVoxels(src, collab, func(x float64) float64 {
		if x < t {
			return x
		}
		return 0
	})
}

// ThresholdBinarize sets every voxel in [min,max] to val and everything
// else to 0.
func ThresholdBinarize(src *Volume, min, max, val float64, collab *gauge.Collaborators) (*Volume, error) {
	return mapVoxels(src, collab, func(x float64) float64 {
		if x >= min && x <= max {
			return val
		}
		return 0
	})
}
