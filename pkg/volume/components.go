package volume

import "github.com/esicore/esicore/pkg/gauge"

// ConnectedComponents labels every non-background voxel with a 1-based
// component id under the given connectivity (6, 18, or 26); background
// voxels are labeled 0. Labeling is a single global flood fill (like
// ToMask, not slice-parallel) since component membership is not a
// function of a fixed local neighborhood. Returns the label volume and
// the number of components found.
func ConnectedComponents(src *Volume, connectivity int, collab *gauge.Collaborators) (*Volume, int, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	d1, d2, d3 := src.Dims()
	labels := New(d1, d2, d3, src.VoxelSize)
	labels.Origin = src.Origin
	labels.Orientation = src.Orientation
	labelData := labels.Data.Data()
	srcData := src.Data.Data()
	offs := neighborOffsets(connectivity)

	nextLabel := 0
	type coord = [3]int
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				start := src.Data.Index(i, j, k)
				if srcData[start] == src.Background || labelData[start] != 0 {
					continue
				}
				nextLabel++
				queue := []coord{{i, j, k}}
				labelData[start] = float64(nextLabel)
				for len(queue) > 0 {
					p := queue[len(queue)-1]
					queue = queue[:len(queue)-1]
					for _, o := range offs {
						ni, nj, nk := p[0]+o[0], p[1]+o[1], p[2]+o[2]
						if !src.Data.InBounds(ni, nj, nk) {
							continue
						}
						idx := src.Data.Index(ni, nj, nk)
						if srcData[idx] == src.Background || labelData[idx] != 0 {
							continue
						}
						labelData[idx] = float64(nextLabel)
						queue = append(queue, coord{ni, nj, nk})
					}
				}
				collab.Gauge.Add(1)
			}
		}
	}
	return labels, nextLabel, nil
}

// LargestComponent keeps only the component that maximizes a
// compact-count score — component volume penalized by its surface-to-
// volume ratio, so a small, compact blob can outscore a larger, stringy
// one — and zeroes everything else. compactnessWeight controls how
// strongly surface area is penalized; 0 reduces to plain largest-by-size.
func LargestComponent(src *Volume, connectivity int, compactnessWeight float64, collab *gauge.Collaborators) (*Volume, error) {
	labels, n, err := ConnectedComponents(src, connectivity, collab)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out := src.Clone()
		for i := range out.Data.Data() {
			out.Data.Data()[i] = out.Background
		}
		return out, nil
	}

	size := make([]int, n+1)
	surface := make([]int, n+1)
	labelData := labels.Data.Data()
	d1, d2, d3 := src.Dims()
	offs := neighborOffsets(connectivity)
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				lbl := int(labelData[labels.Data.Index(i, j, k)])
				if lbl == 0 {
					continue
				}
				size[lbl]++
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					if !src.Data.InBounds(ni, nj, nk) || int(labelData[labels.Data.Index(ni, nj, nk)]) != lbl {
						surface[lbl]++
						break
					}
				}
			}
		}
	}

	best, bestScore := 1, -1.0
	for l := 1; l <= n; l++ {
		if size[l] == 0 {
			continue
		}
		score := float64(size[l]) - compactnessWeight*float64(surface[l]*surface[l])/float64(size[l])
		if score > bestScore {
			bestScore = score
			best = l
		}
	}

	out := src.Clone()
	outData := out.Data.Data()
	for i := range outData {
		if int(labelData[i]) != best {
			outData[i] = out.Background
		}
	}
	return out, nil
}
