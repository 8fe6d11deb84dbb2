package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esicore/esicore/pkg/gauge"
	"github.com/esicore/esicore/pkg/numeric"
)

// sphereVolume returns a cube volume with a filled sphere of the given
// radius (value 1) centered in it, background 0 elsewhere.
func sphereVolume(size, radius int) *Volume {
	v := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	c := size / 2
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			for k := 0; k < size; k++ {
				di, dj, dk := i-c, j-c, k-c
				if di*di+dj*dj+dk*dk <= radius*radius {
					v.Data.Set(i, j, k, 1)
				}
			}
		}
	}
	return v
}

func countForeground(v *Volume) int {
	n := 0
	for _, x := range v.Data.Data() {
		if x != v.Background {
			n++
		}
	}
	return n
}

func isSubsetOf(sub, super *Volume) bool {
	sd, pd := sub.Data.Data(), super.Data.Data()
	for i := range sd {
		if sd[i] != sub.Background && pd[i] == super.Background {
			return false
		}
	}
	return true
}

func TestErodeIsSubsetOfOriginal(t *testing.T) {
	v := sphereVolume(21, 8)
	eroded, err := Erode(v, 3, gauge.Headless())
	require.NoError(t, err)
	assert.True(t, isSubsetOf(eroded, v))
	assert.Less(t, countForeground(eroded), countForeground(v))
}

func TestDilateGrowsAndErodeShrinksRelativeToOriginal(t *testing.T) {
	v := sphereVolume(21, 8)
	dilated, err := Dilate(v, 3, gauge.Headless())
	require.NoError(t, err)
	eroded, err := Erode(v, 3, gauge.Headless())
	require.NoError(t, err)
	assert.Greater(t, countForeground(dilated), countForeground(v))
	assert.Less(t, countForeground(eroded), countForeground(v))
	assert.True(t, isSubsetOf(v, dilated))
	assert.True(t, isSubsetOf(eroded, v))
}

// assertEqualVolumes compares data and Background pointwise; VoxelSize/
// Origin/Orientation are irrelevant to the morphological identities
// under test.
func assertEqualVolumes(t *testing.T, want, got *Volume) {
	t.Helper()
	assert.Equal(t, want.Background, got.Background)
	assert.Equal(t, want.Data.Data(), got.Data.Data())
}

// TestDilateErodeDuality asserts testable property 4 itself —
// dilate(V,r) = complement(erode(complement(V,r),r)) pointwise — on a
// sphere that does not touch the array boundary.
func TestDilateErodeDuality(t *testing.T) {
	v := sphereVolume(21, 8)
	dilated, err := Dilate(v, 3, gauge.Headless())
	require.NoError(t, err)

	erodedComplement, err := Erode(Complement(v), 3, gauge.Headless())
	require.NoError(t, err)
	got := Complement(erodedComplement)

	assertEqualVolumes(t, dilated, got)
}

// TestDilateErodeDualityHoldsAtArrayBoundary exercises the same
// identity on a mask that touches the array edge directly, where the
// border-padding convention is load-bearing rather than coincidental.
func TestDilateErodeDualityHoldsAtArrayBoundary(t *testing.T) {
	v := New(9, 9, 9, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			v.Data.Set(i, j, 0, 1)
			v.Data.Set(i, j, 8, 1)
		}
	}

	dilated, err := Dilate(v, 3, gauge.Headless())
	require.NoError(t, err)

	erodedComplement, err := Erode(Complement(v), 3, gauge.Headless())
	require.NoError(t, err)
	got := Complement(erodedComplement)

	assertEqualVolumes(t, dilated, got)
}

// TestDilateErodeDualityHoldsForAllBackgroundVolume covers the
// degenerate all-background case directly: both sides must reduce to
// an all-background volume, not just agree with each other by
// coincidence.
func TestDilateErodeDualityHoldsForAllBackgroundVolume(t *testing.T) {
	v := New(7, 7, 7, numeric.Vec3{X: 1, Y: 1, Z: 1})

	dilated, err := Dilate(v, 3, gauge.Headless())
	require.NoError(t, err)
	assert.True(t, dilated.IsEmpty())

	erodedComplement, err := Erode(Complement(v), 3, gauge.Headless())
	require.NoError(t, err)
	got := Complement(erodedComplement)

	assertEqualVolumes(t, dilated, got)
	assert.True(t, got.IsEmpty())
}

func TestComplementIsInvolution(t *testing.T) {
	v := sphereVolume(21, 8)
	roundTripped := Complement(Complement(v))
	assertEqualVolumes(t, v, roundTripped)
}

func TestOpenCloseDoNotGrowOrShrinkDrastically(t *testing.T) {
	v := sphereVolume(21, 8)
	opened, err := Open(v, 3, gauge.Headless())
	require.NoError(t, err)
	closed, err := Close(v, 3, gauge.Headless())
	require.NoError(t, err)
	assert.True(t, isSubsetOf(opened, v))
	assert.True(t, isSubsetOf(v, closed))
}

func TestToMaskFillsInteriorHole(t *testing.T) {
	v := sphereVolume(21, 8)
	// Carve a small hole fully inside the sphere.
	v.Data.Set(10, 10, 10, 0)
	v.Data.Set(11, 10, 10, 0)

	masked, err := ToMask(v, 0, 1, true, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(1), masked.Data.At(10, 10, 10))
	assert.Equal(t, float64(1), masked.Data.At(11, 10, 10))
	// Exterior (corner) must remain background.
	assert.Equal(t, float64(0), masked.Data.At(0, 0, 0))
}

func TestToMaskWithoutCarveBackLeavesHole(t *testing.T) {
	v := sphereVolume(21, 8)
	v.Data.Set(10, 10, 10, 0)

	masked, err := ToMask(v, 0, 1, false, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(0), masked.Data.At(10, 10, 10))
}

func TestRegionGrowingExpandsWithinBound(t *testing.T) {
	size := 15
	image := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := range image.Data.Data() {
		image.Data.Data()[i] = 100
	}
	seed := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	c := size / 2
	seed.Data.Set(c, c, c, 1)
	bound := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := range bound.Data.Data() {
		bound.Data.Data()[i] = 1
	}

	params := RegionGrowingParams{
		Neighborhood:      6,
		Tolerance:         3,
		LocalStatsWidth:   3,
		LessNeighborsThan: 1,
		MaxIterations:     5,
	}
	grown, err := RegionGrowing(image, seed, bound, params, gauge.Headless())
	require.NoError(t, err)
	assert.Greater(t, countForeground(grown), 1)
	assert.True(t, isSubsetOf(seed, grown))
}

func TestRegionGrowingRejectsOutOfTolerance(t *testing.T) {
	size := 9
	image := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	c := size / 2
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			for k := 0; k < size; k++ {
				image.Data.Set(i, j, k, 100)
			}
		}
	}
	// A single far-off outlier adjacent to the seed should never be absorbed.
	image.Data.Set(c+1, c, c, 10000)

	seed := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	seed.Data.Set(c, c, c, 1)
	bound := New(size, size, size, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := range bound.Data.Data() {
		bound.Data.Data()[i] = 1
	}

	params := RegionGrowingParams{
		Neighborhood:      6,
		Tolerance:         0.01,
		LocalStatsWidth:   3,
		LessNeighborsThan: 0,
		MaxIterations:     3,
	}
	grown, err := RegionGrowing(image, seed, bound, params, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(0), grown.Data.At(c+1, c, c))
}

func TestMorphGradientHighlightsBoundary(t *testing.T) {
	v := sphereVolume(15, 5)
	grad, err := MorphGradient(v, 3, gauge.Headless())
	require.NoError(t, err)
	c := 15 / 2
	assert.Equal(t, float64(0), grad.Data.At(c, c, c))
}

func TestRankOrdersVoxelsMonotonically(t *testing.T) {
	v := New(3, 3, 3, numeric.Vec3{X: 1, Y: 1, Z: 1})
	v.Background = -1
	vals := []float64{5, 1, 3, 2, 4}
	i := 0
	for idx := 0; idx < 5; idx++ {
		v.Data.SetFlat(idx, vals[i])
		i++
	}
	for idx := 5; idx < 27; idx++ {
		v.Data.SetFlat(idx, -1)
	}
	ranked, err := Rank(v, gauge.Headless())
	require.NoError(t, err)
	// value 1 (smallest) should get rank 1, value 5 (largest) rank 5.
	assert.Equal(t, float64(1), ranked.Data.AtFlat(1))
	assert.Equal(t, float64(5), ranked.Data.AtFlat(0))
}

func TestThresholdFamily(t *testing.T) {
	v := New(2, 2, 2, numeric.Vec3{X: 1, Y: 1, Z: 1})
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	for i, x := range vals {
		v.Data.SetFlat(i, x)
	}
	above, err := ThresholdAbove(v, 4, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(0), above.Data.AtFlat(0))
	assert.Equal(t, float64(5), above.Data.AtFlat(4))

	below, err := ThresholdBelow(v, 4, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(1), below.Data.AtFlat(0))
	assert.Equal(t, float64(0), below.Data.AtFlat(4))

	bin, err := Binarize(v, gauge.Headless())
	require.NoError(t, err)
	assert.Equal(t, float64(1), bin.Data.AtFlat(0))
	assert.Equal(t, float64(1), bin.Data.AtFlat(4))
}

func TestGaussianSmoothingPreservesConstantField(t *testing.T) {
	v := New(21, 21, 21, numeric.Vec3{X: 1, Y: 1, Z: 1})
	for i := range v.Data.Data() {
		v.Data.Data()[i] = 7
	}
	smoothed, err := Gaussian(v, 1.0, gauge.Headless())
	require.NoError(t, err)
	// Interior voxel, far enough from the border (kernel radius 3) to
	// avoid background bleed.
	assert.InDelta(t, 7, smoothed.Data.At(10, 10, 10), 1e-9)
}
