package volume

import (
	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/gauge"
)

// ToMask binarizes src by flood-filling background from the volume's
// exterior: any voxel reachable from the boundary through values <=
// threshold is exterior and becomes 0; everything else becomes
// newValue. With carveBack, voxels below threshold that are NOT
// reachable from the exterior (concavities/holes fully enclosed by
// foreground) are carved into the foreground too, so interior holes are
// filled — the complement is exactly the voxels flood-connected to the
// box boundary. Without carveBack, only voxels already above threshold
// become newValue.
//
// The flood fill is an inherently global, order-dependent traversal, so
// unlike the other filters this one is not sliced across goroutines;
// collab is accepted for API symmetry and its gauge is still consulted
// (a cancellation check and one unit of progress) once per voxel taken
// off the flood-fill queue.
func ToMask(src *Volume, threshold, newValue float64, carveBack bool, collab *gauge.Collaborators) (*Volume, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	d1, d2, d3 := src.Dims()
	n := d1 * d2 * d3
	visited := make([]bool, n)
	exterior := make([]bool, n)

	type coord = [3]int
	var queue []coord
	seed := func(i, j, k int) {
		idx := src.Data.Index(i, j, k)
		if visited[idx] {
			return
		}
		if src.Data.AtFlat(idx) <= threshold {
			visited[idx] = true
			exterior[idx] = true
			queue = append(queue, coord{i, j, k})
		}
	}
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			seed(i, j, 0)
			seed(i, j, d3-1)
		}
	}
	for i := 0; i < d1; i++ {
		for k := 0; k < d3; k++ {
			seed(i, 0, k)
			seed(i, d2-1, k)
		}
	}
	for j := 0; j < d2; j++ {
		for k := 0; k < d3; k++ {
			seed(0, j, k)
			seed(d1-1, j, k)
		}
	}

	offs := neighborOffsets(6)
	for len(queue) > 0 {
		if collab.Gauge.Cancelled() {
			return nil, esierr.Cancelled
		}
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, o := range offs {
			ni, nj, nk := p[0]+o[0], p[1]+o[1], p[2]+o[2]
			if !src.Data.InBounds(ni, nj, nk) {
				continue
			}
			idx := src.Data.Index(ni, nj, nk)
			if visited[idx] {
				continue
			}
			if src.Data.AtFlat(idx) <= threshold {
				visited[idx] = true
				exterior[idx] = true
				queue = append(queue, coord{ni, nj, nk})
			}
		}
		collab.Gauge.Add(1)
	}

	out := src.Clone()
	outData := out.Data.Data()
	srcData := src.Data.Data()
	for idx := range outData {
		switch {
		case exterior[idx]:
			outData[idx] = 0
		case carveBack:
			outData[idx] = newValue
		case srcData[idx] > threshold:
			outData[idx] = newValue
		default:
			outData[idx] = 0
		}
	}
	out.Background = 0
	return out, nil
}
