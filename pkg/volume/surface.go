package volume

import "github.com/esicore/esicore/pkg/pointcloud"

// SurfacePoints returns the absolute-space coordinates of every
// foreground voxel that touches the background (or the array edge)
// under the given connectivity — the boundary shell of a mask, used to
// build shape descriptors and visual renderings without carrying the
// full volume around.
func SurfacePoints(src *Volume, connectivity int) *pointcloud.Cloud {
	offs := neighborOffsets(connectivity)
	d1, d2, d3 := src.Dims()
	cloud := pointcloud.New()
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				if src.Data.AtUnsafe(i, j, k) == src.Background {
					continue
				}
				isSurface := false
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					if !src.Data.InBounds(ni, nj, nk) || src.Data.AtUnsafe(ni, nj, nk) == src.Background {
						isSurface = true
						break
					}
				}
				if isSurface {
					cloud.Append(src.ToAbsolute(i, j, k), "")
				}
			}
		}
	}
	return cloud
}
