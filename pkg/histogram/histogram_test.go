package histogram

import (
	"math/rand"
	"testing"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario F: 1000 N(0,1) samples; percentilePosition(0.5) near 0 and
// the 10-90 interval close to the theoretical ~2.56.
func TestHistogram_PercentilePosition_StandardNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := make([]float64, 1000)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	h, err := New(data, Options{NumBins: 200})
	require.NoError(t, err)

	median := h.PercentilePosition(0.5)
	assert.Less(t, absf(median), 0.1)

	spread := h.PercentilePosition(0.9) - h.PercentilePosition(0.1)
	assert.GreaterOrEqual(t, spread, 2.4)
	assert.LessOrEqual(t, spread, 2.7)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Invariant 6: percentilePosition(p) brackets between the CDF samples
// whose indices bracket p.
func TestHistogram_PercentilePosition_BracketsCDF(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h, err := New(data, Options{NumBins: 5})
	require.NoError(t, err)

	for _, p := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		x := h.PercentilePosition(p)
		assert.GreaterOrEqual(t, x, h.FirstPosition())
		assert.LessOrEqual(t, x, h.LastPosition())

		// The first CDF sample at or above p closes the bracketing bin.
		i := 0
		for h.CDF()[i] < p {
			i++
		}
		assert.GreaterOrEqual(t, x, h.Edges()[i])
		assert.LessOrEqual(t, x, h.Edges()[i+1])
	}
}

func TestHistogram_PercentilePosition_EndsClampToSupport(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	h, err := New(data, Options{NumBins: 4})
	require.NoError(t, err)
	assert.Equal(t, h.FirstPosition(), h.PercentilePosition(0))
	assert.Equal(t, h.LastPosition(), h.PercentilePosition(1))
}

func TestHistogram_CDF_IsMonotoneNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := make([]float64, 500)
	for i := range data {
		data[i] = rng.Float64() * 100
	}
	h, err := New(data, Options{NumBins: 32})
	require.NoError(t, err)
	cdf := h.CDF()
	for i := 1; i < len(cdf); i++ {
		assert.GreaterOrEqual(t, cdf[i], cdf[i-1])
	}
	assert.InDelta(t, 1.0, cdf[len(cdf)-1], 1e-9)
}

func TestHistogram_New_EmptyAfterIgnoringNullsIsDegenerate(t *testing.T) {
	_, err := New([]float64{0, 0, 0}, Options{IgnoreNulls: true})
	assert.ErrorIs(t, err, esierr.Degenerate)
}

func TestHistogram_IgnoreNulls_ExcludesZeros(t *testing.T) {
	h, err := New([]float64{0, 0, 1, 2, 3}, Options{NumBins: 3, IgnoreNulls: true})
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.FirstPosition())
}
