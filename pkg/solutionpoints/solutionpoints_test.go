package solutionpoints

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esicore/esicore/pkg/gauge"
	"github.com/esicore/esicore/pkg/numeric"
	"github.com/esicore/esicore/pkg/pointcloud"
	"github.com/esicore/esicore/pkg/volume"
)

func fullMask(size int) *volume.Volume {
	m := volume.New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := range m.Data.Data() {
		m.Data.Data()[i] = 1
	}
	return m
}

func TestScenarioBFourNNExactnessAtSourcePoint(t *testing.T) {
	cloud := pointcloud.New()
	cloud.Append(numeric.Vec3{X: 10, Y: 10, Z: 10}, "sp0")
	doc, err := NewDoc(cloud)
	require.NoError(t, err)

	mask := fullMask(21)
	doc.BuildZIndex(mask, 1000)
	records, err := doc.Build4NN(mask, gauge.Headless())
	require.NoError(t, err)

	rec, ok := records[[3]int{10, 10, 10}]
	require.True(t, ok)
	assert.Equal(t, uint16(0), rec.I[0])
	assert.Equal(t, uint8(255), rec.W[0])
}

func TestFourNNWeightIntegralityAndOrdering(t *testing.T) {
	cloud := pointcloud.New()
	cloud.Append(numeric.Vec3{X: 2, Y: 10, Z: 10}, "a")
	cloud.Append(numeric.Vec3{X: 18, Y: 10, Z: 10}, "b")
	cloud.Append(numeric.Vec3{X: 10, Y: 2, Z: 10}, "c")
	cloud.Append(numeric.Vec3{X: 10, Y: 18, Z: 10}, "d")
	doc, err := NewDoc(cloud)
	require.NoError(t, err)

	mask := fullMask(21)
	doc.BuildZIndex(mask, 1000)
	records, err := doc.Build4NN(mask, gauge.Headless())
	require.NoError(t, err)

	for _, rec := range records {
		sum := int(rec.W[0]) + int(rec.W[1]) + int(rec.W[2]) + int(rec.W[3])
		assert.Equal(t, 255, sum)
		assert.GreaterOrEqual(t, rec.W[0], rec.W[1])
		assert.GreaterOrEqual(t, rec.W[1], rec.W[2])
		assert.GreaterOrEqual(t, rec.W[2], rec.W[3])
		for _, w := range rec.W {
			assert.LessOrEqual(t, w, uint8(255))
		}
	}
}

func TestFourNNWeightIntegralityWithFewerThanFourNeighbors(t *testing.T) {
	cloud := pointcloud.New()
	cloud.Append(numeric.Vec3{X: 8, Y: 10, Z: 10}, "a")
	cloud.Append(numeric.Vec3{X: 12, Y: 10, Z: 10}, "b")
	doc, err := NewDoc(cloud)
	require.NoError(t, err)

	mask := fullMask(21)
	doc.BuildZIndex(mask, 1000)
	records, err := doc.Build4NN(mask, gauge.Headless())
	require.NoError(t, err)

	require.NotEmpty(t, records)
	for _, rec := range records {
		sum := int(rec.W[0]) + int(rec.W[1]) + int(rec.W[2]) + int(rec.W[3])
		assert.Equal(t, 255, sum, "weights must sum to 255 even with only two eligible neighbors")
		assert.Zero(t, rec.W[2])
		assert.Zero(t, rec.W[3])
	}
}

func TestOneNNLocality(t *testing.T) {
	cloud := pointcloud.New()
	for x := 0.0; x < 20; x += 4 {
		for y := 0.0; y < 20; y += 4 {
			for z := 0.0; z < 20; z += 4 {
				cloud.Append(numeric.Vec3{X: x, Y: y, Z: z}, "")
			}
		}
	}
	doc, err := NewDoc(cloud)
	require.NoError(t, err)

	mask := fullMask(21)
	doc.BuildZIndex(mask, 1000)
	nn, err := doc.Build1NN(mask, gauge.Headless())
	require.NoError(t, err)

	threshold := doc.Step * 0.5 * math.Sqrt(3)
	d1, d2, d3 := mask.Dims()
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				idx := nn.At(i, j, k)
				if idx == SentinelIndex {
					continue
				}
				abs := mask.ToAbsolute(i, j, k)
				dist := abs.Chebyshev(doc.Points.At(int(idx)))
				assert.LessOrEqual(t, dist, threshold+1e-9)
			}
		}
	}
}

func TestPreparMaskDilatesAndChecksOutsideFraction(t *testing.T) {
	cloud := pointcloud.New()
	cloud.Append(numeric.Vec3{X: 10, Y: 10, Z: 10}, "")
	doc, err := NewDoc(cloud)
	require.NoError(t, err)

	mask := volume.New(21, 21, 21, numeric.Vec3{X: 1, Y: 1, Z: 1})
	mask.Data.Set(10, 10, 10, 1)

	dilated, err := doc.PreparMask(mask, gauge.Headless())
	require.NoError(t, err)
	// Dilation should extend the single-voxel mask to its 6-neighbors.
	assert.NotEqual(t, dilated.Background, dilated.Data.At(11, 10, 10))
}
