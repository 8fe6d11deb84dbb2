package volume

import (
	"sort"

	"github.com/esicore/esicore/pkg/gauge"
)

// Rank replaces each non-background voxel with its 1-based rank among
// all non-background voxels (ties broken by linear index, so the
// operation is deterministic); background voxels are left unchanged.
// Unlike the other filters this needs one global sort (ranking is not a
// function of a single voxel's neighborhood), so only the write-back is
// parallelized over the outer axis.
func Rank(src *Volume, collab *gauge.Collaborators) (*Volume, error) {
	data := src.Data.Data()
	type entry struct {
		idx int
		val float64
	}
	entries := make([]entry, 0, len(data))
	for i, v := range data {
		if v != src.Background {
			entries = append(entries, entry{i, v})
		}
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].val < entries[b].val })

	rankOf := make(map[int]float64, len(entries))
	for r, e := range entries {
		rankOf[e.idx] = float64(r + 1)
	}

	out := src.Clone()
	outData := out.Data.Data()
	d1, d2, d3 := src.Dims()
	err := parallelSlices(d1, collab, func(i int) error {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				idx := src.Data.Index(i, j, k)
				if r, ok := rankOf[idx]; ok {
					outData[idx] = r
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
