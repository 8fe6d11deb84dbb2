package pointcloud

import (
	"strings"
	"testing"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloud_Append_IncreasesLen(t *testing.T) {
	c := New()
	c.Append(numeric.Vec3{X: 1}, "a")
	c.Append(numeric.Vec3{X: 2}, "b")
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.Name(1))
}

func TestCloud_SortZXY_OrdersLexicographically(t *testing.T) {
	c := New()
	c.Append(numeric.Vec3{X: 1, Y: 1, Z: 2}, "p2")
	c.Append(numeric.Vec3{X: 0, Y: 0, Z: 1}, "p1")
	c.Append(numeric.Vec3{X: 1, Y: 0, Z: 1}, "p1b")
	c.SortZXY()
	assert.Equal(t, "p1", c.Name(0))
	assert.Equal(t, "p1b", c.Name(1))
	assert.Equal(t, "p2", c.Name(2))
}

func TestCloud_NearestIndex_FindsClosest(t *testing.T) {
	c := New()
	c.Append(numeric.Vec3{X: 0, Y: 0, Z: 0}, "")
	c.Append(numeric.Vec3{X: 10, Y: 0, Z: 0}, "")
	idx, dist, err := c.NearestIndex(numeric.Vec3{X: 9, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0, dist, 1e-9)
}

func TestCloud_NearestIndex_EmptyIsDegenerate(t *testing.T) {
	_, _, err := New().NearestIndex(numeric.Vec3{})
	assert.ErrorIs(t, err, esierr.Degenerate)
}

func TestCloud_MedianDistance_UniformGrid(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		c.Append(numeric.Vec3{X: float64(i)}, "")
	}
	d, err := c.MedianDistance()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestCloud_Downsample_KeepsEveryStride(t *testing.T) {
	c := New()
	for i := 0; i < 10; i++ {
		c.Append(numeric.Vec3{X: float64(i)}, "")
	}
	d := c.Downsample(3)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, 9.0, d.At(3).X)
}

func TestReadWriteXYZ_RoundTrips(t *testing.T) {
	var buf strings.Builder
	c := New()
	c.Append(numeric.Vec3{X: 1, Y: 2, Z: 3}, "E1")
	c.Append(numeric.Vec3{X: 4, Y: 5, Z: 6}, "E2")
	require.NoError(t, WriteXYZ(&buf, 85, c))

	got, err := ReadXYZ(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 85.0, got.Radius)
	assert.Equal(t, 2, got.Cloud.Len())
	assert.Equal(t, "E2", got.Cloud.Name(1))
}

func TestReadXYZ_RejectsCountMismatch(t *testing.T) {
	_, err := ReadXYZ(strings.NewReader("2 85\n1 2 3 A\n"))
	assert.Error(t, err)
}

func TestReadWriteSPI_RoundTrips(t *testing.T) {
	var buf strings.Builder
	c := New()
	c.Append(numeric.Vec3{X: 1.5, Y: 2.5, Z: 3.5}, "SP1")
	require.NoError(t, WriteSPI(&buf, c))

	got, err := ReadSPI(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.InDelta(t, 1.5, got.At(0).X, 1e-9)
}
