package electrodes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esicore/esicore/pkg/numeric"
)

func TestELSRoundTripPreservesClustersAndPoints(t *testing.T) {
	names := []string{"Fp1", "Fp2", "Nz"}
	points := []numeric.Vec3{
		{X: -30, Y: 80, Z: 10},
		{X: 30, Y: 80, Z: 10},
		{X: 0, Y: 100, Z: 0},
	}
	clusters := []Cluster{
		{Name: "scalp", Type: ClusterPoint, Indices: []int{0, 1}},
		{Name: "fiducials", Type: ClusterPoint, Indices: []int{2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteELS(&buf, names, points, clusters))

	gotNames, gotPoints, gotClusters, err := ReadELS(&buf)
	require.NoError(t, err)
	assert.Equal(t, names, gotNames)
	assert.Equal(t, points, gotPoints)
	require.Len(t, gotClusters, 2)
	assert.Equal(t, "scalp", gotClusters[0].Name)
	assert.Equal(t, ClusterPoint, gotClusters[0].Type)
	assert.Equal(t, []int{0, 1}, gotClusters[0].Indices)
	assert.Equal(t, []int{2}, gotClusters[1].Indices)
}

func TestReadELSRejectsBadMagic(t *testing.T) {
	_, _, _, err := ReadELS(strings.NewReader("WRONG\n0\n0\n"))
	assert.Error(t, err)
}

func TestReadELSRejectsCountMismatch(t *testing.T) {
	body := "ES01\n5\n1\ngroup\n1 point\n0 0 0 p\n"
	_, _, _, err := ReadELS(strings.NewReader(body))
	assert.Error(t, err)
}

func TestReadELSRejectsUnknownClusterType(t *testing.T) {
	body := "ES01\n1\n1\ngroup\n1 hexagon\n0 0 0 p\n"
	_, _, _, err := ReadELS(strings.NewReader(body))
	assert.Error(t, err)
}

func TestReadELSParsesAllClusterTypes(t *testing.T) {
	body := "ES01\n4\n4\n" +
		"a\n1 point\n0 0 0 p0\n" +
		"b\n1 line\n1 1 1 p1\n" +
		"c\n1 grid\n2 2 2 p2\n" +
		"d\n1 3d\n3 3 3 p3\n"
	names, points, clusters, err := ReadELS(strings.NewReader(body))
	require.NoError(t, err)
	assert.Len(t, points, 4)
	assert.Len(t, names, 4)
	require.Len(t, clusters, 4)
	assert.Equal(t, []ClusterType{ClusterPoint, ClusterLine, ClusterGrid, Cluster3D}, []ClusterType{
		clusters[0].Type, clusters[1].Type, clusters[2].Type, clusters[3].Type,
	})
}
