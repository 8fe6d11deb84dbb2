package volume

import (
	"math"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/gauge"
)

// RegionGrowingParams configures RegionGrowing per SPEC_FULL.md §4.3.1.
type RegionGrowingParams struct {
	// Neighborhood is the connectivity used both to find frontier
	// voxels adjacent to the current region and to count each
	// candidate's support within it: 6, 18, or 26.
	Neighborhood int
	// Tolerance bounds how far a candidate voxel's image intensity may
	// sit from the local mean of the region's intensities before it is
	// rejected, in units of the local standard deviation.
	Tolerance float64
	// LocalStatsWidth is the diameter (in voxels) of the structuring
	// element used to gather the region's local mean/SD around each
	// candidate.
	LocalStatsWidth int
	// LessNeighborsThan rejects an otherwise-accepted candidate whose
	// count of already-in-region neighbors (by Neighborhood) is below
	// this value, suppressing single-voxel spurs.
	LessNeighborsThan int
	// MaxIterations bounds the number of frontier-growth passes.
	MaxIterations int
	// Thickness0 and Thickness1 reject candidates that would leave the
	// grown region's surface thinner than one or two voxels
	// respectively, measured by the candidate's own neighbor count
	// within the updated region.
	Thickness0 bool
	Thickness1 bool
}

// RegionGrowing grows seed mask S within bounding mask B by repeatedly
// accepting frontier voxels (in B, outside S, adjacent to S) whose
// image intensity falls within params.Tolerance standard deviations of
// the local mean of the already-grown region, subject to a minimum
// neighbor-support count and optional thin-surface rejection. Growth
// runs for up to params.MaxIterations passes or until a pass accepts no
// voxel, whichever comes first; frontier evaluation each pass reads a
// fixed snapshot of the region (double-buffered) so acceptance within a
// pass never depends on the order voxels are visited in.
func RegionGrowing(image, seed, bound *Volume, params RegionGrowingParams, collab *gauge.Collaborators) (*Volume, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	d1, d2, d3 := image.Dims()
	if bd1, bd2, bd3 := seed.Dims(); bd1 != d1 || bd2 != d2 || bd3 != d3 {
		return nil, esierr.InvalidInput
	}
	if bd1, bd2, bd3 := bound.Dims(); bd1 != d1 || bd2 != d2 || bd3 != d3 {
		return nil, esierr.InvalidInput
	}

	growthOffs := neighborOffsets(params.Neighborhood)
	statOffs := structuringOffsets(params.LocalStatsWidth)

	region := make([]bool, d1*d2*d3)
	seedData := seed.Data.Data()
	for i, v := range seedData {
		region[i] = v != 0
	}
	boundData := bound.Data.Data()
	imageData := image.Data.Data()

	inBound := func(i, j, k int) bool {
		return image.Data.InBounds(i, j, k) && boundData[image.Data.Index(i, j, k)] != 0
	}

	countRegionNeighbors := func(i, j, k int, snapshot []bool) int {
		count := 0
		for _, o := range growthOffs {
			ni, nj, nk := i+o[0], j+o[1], k+o[2]
			if image.Data.InBounds(ni, nj, nk) && snapshot[image.Data.Index(ni, nj, nk)] {
				count++
			}
		}
		return count
	}

	localStats := func(i, j, k int, snapshot []bool) (mean, sd float64, n int) {
		var sum, sum2 float64
		for _, o := range statOffs {
			ni, nj, nk := i+o[0], j+o[1], k+o[2]
			if !image.Data.InBounds(ni, nj, nk) {
				continue
			}
			idx := image.Data.Index(ni, nj, nk)
			if !snapshot[idx] {
				continue
			}
			v := imageData[idx]
			sum += v
			sum2 += v * v
			n++
		}
		if n == 0 {
			return 0, 0, 0
		}
		mean = sum / float64(n)
		variance := sum2/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		return mean, math.Sqrt(variance), n
	}

	maxIterations := params.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1
	}

	for iter := 0; iter < maxIterations; iter++ {
		if collab.Gauge.Cancelled() {
			return nil, esierr.Cancelled
		}
		snapshot := append([]bool(nil), region...)
		var frontier [][3]int
		for i := 0; i < d1; i++ {
			for j := 0; j < d2; j++ {
				for k := 0; k < d3; k++ {
					idx := image.Data.Index(i, j, k)
					if snapshot[idx] || !inBound(i, j, k) {
						continue
					}
					if countRegionNeighbors(i, j, k, snapshot) > 0 {
						frontier = append(frontier, [3]int{i, j, k})
					}
				}
			}
		}
		if len(frontier) == 0 {
			break
		}

		accepted := 0
		for _, p := range frontier {
			i, j, k := p[0], p[1], p[2]
			mean, sd, n := localStats(i, j, k, snapshot)
			if n == 0 {
				continue
			}
			idx := image.Data.Index(i, j, k)
			if sd == 0 {
				if imageData[idx] != mean {
					continue
				}
			} else if math.Abs(imageData[idx]-mean) > params.Tolerance*sd {
				continue
			}
			support := countRegionNeighbors(i, j, k, snapshot)
			if support < params.LessNeighborsThan {
				continue
			}
			if params.Thickness0 && support < 1 {
				continue
			}
			if params.Thickness1 && support < 2 {
				continue
			}
			region[idx] = true
			accepted++
		}
		collab.Gauge.Add(1)
		if accepted == 0 {
			break
		}
	}

	out := seed.Clone()
	outData := out.Data.Data()
	for i, in := range region {
		if in {
			outData[i] = 1
		} else {
			outData[i] = 0
		}
	}
	out.Background = 0
	return out, nil
}
