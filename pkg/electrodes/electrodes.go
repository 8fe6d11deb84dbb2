// Package electrodes implements the point-cluster geometry subsystem:
// 3-D/2-D dual point storage, azimuthal-equidistant projection,
// auto-orientation, and Delaunay-style neighborhoods (SPEC_FULL.md
// §4.5).
package electrodes

import (
	"math"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/numeric"
	"github.com/esicore/esicore/pkg/pointcloud"
)

// ClusterType labels the geometric role of a named group of points.
type ClusterType int

const (
	ClusterPoint ClusterType = iota
	ClusterLine
	ClusterGrid
	Cluster3D
)

// Cluster is a named, typed group of point indices into a Doc's
// parallel 3-D/2-D clouds.
type Cluster struct {
	Name     string
	Type     ClusterType
	Indices  []int
	GridDims [2]int // only meaningful for ClusterGrid
}

// Doc is the electrode set: parallel 3-D and projected-2-D point
// clouds, cluster membership, detected orientation, and the
// neighborhood graph built over the 3-D cloud.
type Doc struct {
	Points3D    *pointcloud.Cloud
	Points2D    *pointcloud.Cloud
	Clusters    []Cluster
	Orientation Orientation

	neighbors [][]int // ragged adjacency, row i = neighbors of point i
}

// Build constructs a Doc from named 3-D points grouped into clusters,
// auto-orients the cloud, re-expresses it in the detected frame, and
// produces the 2-D azimuthal-equidistant projection plus neighborhoods.
func Build(names []string, points []numeric.Vec3, clusters []Cluster) (*Doc, error) {
	if len(points) == 0 {
		return nil, esierr.Degenerate
	}
	if len(names) != len(points) {
		return nil, esierr.InvalidInput
	}

	orientation := AutoOrient(names, points)
	reoriented := reorient(points, orientation)

	points3D := pointcloud.New()
	for i, p := range reoriented {
		points3D.Append(p, names[i])
	}

	doc := &Doc{
		Points3D:    points3D,
		Orientation: Orientation{Right: numeric.Vec3{X: 1}, Front: numeric.Vec3{Y: 1}, Up: numeric.Vec3{Z: 1}},
		Clusters:    clusters,
	}
	project(doc)
	if err := buildNeighborhoods(doc, clusters); err != nil {
		return nil, err
	}
	return doc, nil
}

// reorient expresses each point in the (Right, Front, Up) frame, making
// the canonical basis (+X right, +Y front, +Z up) hold afterward.
func reorient(points []numeric.Vec3, o Orientation) []numeric.Vec3 {
	out := make([]numeric.Vec3, len(points))
	for i, p := range points {
		out[i] = numeric.Vec3{X: p.Dot(o.Right), Y: p.Dot(o.Front), Z: p.Dot(o.Up)}
	}
	return out
}

// project fills Points2D with the azimuthal-equidistant projection of
// the 3-D cloud (spec.md §4.5): for each point at (x,y,z) centered on
// the cloud centroid, compute polar radius/angle in the XY plane and
// place the 2-D point at (theta*x/r, theta*y/r, 0).
func project(doc *Doc) {
	centroid := doc.Points3D.Center()
	doc.Points2D = pointcloud.New()
	for i := 0; i < doc.Points3D.Len(); i++ {
		p := doc.Points3D.At(i).Sub(centroid)
		r := math.Hypot(p.X, p.Y)
		theta := math.Atan2(r, p.Z)
		var x2, y2 float64
		if r > 1e-12 {
			x2 = theta * p.X / r
			y2 = theta * p.Y / r
		}
		doc.Points2D.Append(numeric.Vec3{X: x2, Y: y2}, doc.Points3D.Name(i))
	}
	placeNonSurfaceClusters(doc)
}

// placeNonSurfaceClusters repositions line/grid/point clusters'
// projected points at fixed offsets beside the 2-D head, arranged by
// cluster index with a step derived from the cloud's median
// inter-point distance, per spec.md §4.5.
func placeNonSurfaceClusters(doc *Doc) {
	step, err := doc.Points3D.MedianDistance()
	if err != nil || step <= 0 {
		step = 1
	}
	headRadius := 0.0
	for i := 0; i < doc.Points2D.Len(); i++ {
		p := doc.Points2D.At(i)
		if r := math.Hypot(p.X, p.Y); r > headRadius {
			headRadius = r
		}
	}
	offsetX := headRadius + step
	clusterRank := 0
	for _, c := range doc.Clusters {
		if c.Type == Cluster3D {
			continue
		}
		base := numeric.Vec3{X: offsetX + float64(clusterRank)*step*2, Y: 0}
		for j, idx := range c.Indices {
			doc.Points2D.SetAt(idx, base.Add(numeric.Vec3{Y: float64(j) * step}))
		}
		clusterRank++
	}
}

// buildNeighborhoods computes, per Cluster3D cluster, an approximate
// Delaunay neighborhood via a k-nearest-neighbor graph over the
// cluster's points (a pragmatic stand-in for full 3-D Delaunay
// triangulation, since the true tesselation only matters here insofar
// as it induces a direct-neighbor adjacency) seeded with the grid
// adjacency for ClusterGrid and a path adjacency for ClusterLine.
func buildNeighborhoods(doc *Doc, clusters []Cluster) error {
	n := doc.Points3D.Len()
	doc.neighbors = make([][]int, n)
	for _, c := range clusters {
		switch c.Type {
		case Cluster3D:
			const k = 6
			for _, idx := range c.Indices {
				doc.neighbors[idx] = kNearestWithin(doc.Points3D, idx, c.Indices, k)
			}
		case ClusterGrid:
			assignGridNeighbors(doc, c)
		case ClusterLine:
			for pos, idx := range c.Indices {
				var nb []int
				if pos > 0 {
					nb = append(nb, c.Indices[pos-1])
				}
				if pos < len(c.Indices)-1 {
					nb = append(nb, c.Indices[pos+1])
				}
				doc.neighbors[idx] = nb
			}
		case ClusterPoint:
			// Singletons have no neighbors.
		}
	}
	return nil
}

func assignGridNeighbors(doc *Doc, c Cluster) {
	rows, cols := c.GridDims[0], c.GridDims[1]
	at := func(r, col int) (int, bool) {
		if r < 0 || r >= rows || col < 0 || col >= cols {
			return 0, false
		}
		pos := r*cols + col
		if pos >= len(c.Indices) {
			return 0, false
		}
		return c.Indices[pos], true
	}
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			idx, ok := at(r, col)
			if !ok {
				continue
			}
			var nb []int
			for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				if n, ok := at(r+d[0], col+d[1]); ok {
					nb = append(nb, n)
				}
			}
			doc.neighbors[idx] = nb
		}
	}
}

func kNearestWithin(cloud *pointcloud.Cloud, from int, within []int, k int) []int {
	type pair struct {
		idx  int
		dist float64
	}
	pairs := make([]pair, 0, len(within))
	for _, idx := range within {
		if idx == from {
			continue
		}
		pairs = append(pairs, pair{idx, cloud.At(from).DistanceTo(cloud.At(idx))})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].dist < pairs[j-1].dist; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = p.idx
	}
	return out
}

// Neighbors returns the ragged adjacency row for electrode i: the
// Delaunay-edge-induced direct neighbors (first cell of the original
// C++ layout is the count; here the slice length plays that role).
func (d *Doc) Neighbors(i int) []int { return d.neighbors[i] }

// DistanceSortedNeighbors returns every other electrode's index sorted
// ascending by Euclidean distance from i, with distances normalized by
// the cloud's median inter-electrode distance.
func (d *Doc) DistanceSortedNeighbors(i int) ([]int, []float64, error) {
	step, err := d.Points3D.MedianDistance()
	if err != nil {
		return nil, nil, err
	}
	idxs := sortedByDistance(d.Points3D.Points(), i)
	dists := make([]float64, len(idxs))
	from := d.Points3D.At(i)
	for n, idx := range idxs {
		dist := from.DistanceTo(d.Points3D.At(idx))
		if step > 0 {
			dist /= step
		}
		dists[n] = dist
	}
	return idxs, dists, nil
}
