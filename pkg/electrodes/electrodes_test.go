package electrodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esicore/esicore/pkg/numeric"
)

// syntheticMontage places a small set of canonically-named electrodes
// on a unit hemisphere with their name prefixes in the semantically
// correct region (front names at +Y, back names at -Y, odd numbers at
// -X/left, even numbers at +X/right, all above the equator for +Z/up) —
// standing in for the full 10-10 montage table.
func syntheticMontage() ([]string, []numeric.Vec3) {
	type entry struct {
		name         string
		elevationDeg float64
		azimuthDeg   float64
	}
	entries := []entry{
		{"Fp1", 80, 100}, {"Fp2", 80, 80},
		{"F3", 55, 130}, {"F4", 55, 50}, {"Fz", 55, 90},
		{"FC3", 40, 140}, {"FC4", 40, 40},
		{"C3", 30, 180}, {"C4", 30, 0}, {"Cz", 0, 90},
		{"CP3", 40, 220}, {"CP4", 40, 320},
		{"P3", 55, 230}, {"P4", 55, 310}, {"Pz", 55, 270},
		{"PO3", 65, 250}, {"PO4", 65, 290},
		{"O1", 80, 260}, {"O2", 80, 280}, {"Iz", 85, 270},
		{"Nz", 85, 90},
	}
	names := make([]string, len(entries))
	points := make([]numeric.Vec3, len(entries))
	for i, e := range entries {
		elev := e.elevationDeg * math.Pi / 180
		az := e.azimuthDeg * math.Pi / 180
		r := math.Sin(elev)
		x := r * math.Cos(az)
		y := r * math.Sin(az)
		z := math.Cos(elev)
		names[i] = e.name
		points[i] = numeric.Vec3{X: x, Y: y, Z: z}
	}
	return names, points
}

func TestAutoOrientRecoversCanonicalAxesFromNames(t *testing.T) {
	names, points := syntheticMontage()
	o := AutoOrient(names, points)

	// Front names were placed at +Y, so Front should align with +Y;
	// odd-numbered (left) names were placed at -X, so Right should align
	// with +X; elevation places most points above the equator, so Up
	// aligns with +Z.
	assert.Greater(t, o.Front.Y, 0.0)
	assert.Greater(t, o.Right.X, 0.0)
	assert.Greater(t, o.Up.Z, 0.0)
}

func TestAutoOrientIdempotentOnCanonicalCloud(t *testing.T) {
	names, points := syntheticMontage()
	first := AutoOrient(names, points)
	reoriented := reorient(points, first)

	second := AutoOrient(names, reoriented)
	assert.InDelta(t, 1.0, second.Right.Dot(numeric.Vec3{X: 1}), 1e-6)
	assert.InDelta(t, 1.0, second.Front.Dot(numeric.Vec3{Y: 1}), 1e-6)
	assert.InDelta(t, 1.0, second.Up.Dot(numeric.Vec3{Z: 1}), 1e-6)
}

func TestBuildProjectsAndOrients(t *testing.T) {
	names, points := syntheticMontage()
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	clusters := []Cluster{{Name: "head", Type: Cluster3D, Indices: indices}}

	doc, err := Build(names, points, clusters)
	require.NoError(t, err)
	assert.Equal(t, len(points), doc.Points3D.Len())
	assert.Equal(t, len(points), doc.Points2D.Len())

	for i := range indices {
		assert.NotEmpty(t, doc.Neighbors(i))
	}
}

func TestBuildRejectsEmptyCloud(t *testing.T) {
	_, err := Build(nil, nil, nil)
	assert.Error(t, err)
}

func TestDistanceSortedNeighborsOrdered(t *testing.T) {
	names, points := syntheticMontage()
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	clusters := []Cluster{{Name: "head", Type: Cluster3D, Indices: indices}}
	doc, err := Build(names, points, clusters)
	require.NoError(t, err)

	idxs, dists, err := doc.DistanceSortedNeighbors(0)
	require.NoError(t, err)
	for i := 1; i < len(dists); i++ {
		assert.LessOrEqual(t, dists[i-1], dists[i])
	}
	assert.Equal(t, len(points)-1, len(idxs))
}
