package volume

import "github.com/esicore/esicore/pkg/gauge"

// KCurvature estimates mean curvature at each voxel via the discrete
// Laplacian over its 6-connected neighborhood: the mean of
// (neighbor-center) across the six face neighbors. Negative values mark
// convex regions (local maxima), positive mark concave regions (local
// minima); neighbors outside the array count as Background.
func KCurvature(src *Volume, collab *gauge.Collaborators) (*Volume, error) {
	offs := neighborOffsets(6)
	d1, d2, d3 := src.Dims()
	out := src.Clone()
	err := parallelSlices(d1, collab, func(i int) error {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				center := src.Data.AtUnsafe(i, j, k)
				var sum float64
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					var v float64
					if src.Data.InBounds(ni, nj, nk) {
						v = src.Data.AtUnsafe(ni, nj, nk)
					} else {
						v = src.Background
					}
					sum += v - center
				}
				out.Data.SetUnsafe(i, j, k, sum/float64(len(offs)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
