package stats

import (
	"math/rand"

	"github.com/esicore/esicore/internal/esierr"
)

// Functional is a statistic computed over a slice of samples (e.g. Mean,
// a closure over Accumulator.Median).
type Functional func([]float64) float64

// Mean is the Functional wrapping the plain arithmetic mean.
func Mean(xs []float64) float64 { return meanOf(xs) }

// Median is the Functional wrapping the non-strict median.
func Median(xs []float64) float64 {
	acc := NewStored(len(xs), false)
	for _, x := range xs {
		acc.Add(x)
	}
	m, _ := acc.Median(false)
	return m
}

// RandomizationTest draws `draws` random subsamples of `sampleSize`
// elements without replacement from data, evaluates f on each, and
// reports the mean of f across draws — a Monte-Carlo estimate of f's
// sampling distribution location, used for significance testing without
// a parametric assumption.
func RandomizationTest(data []float64, sampleSize, draws int, rng *rand.Rand, f Functional) (float64, error) {
	if len(data) == 0 {
		return 0, esierr.NotEnoughData
	}
	if sampleSize <= 0 || sampleSize > len(data) {
		return 0, esierr.InvalidInput
	}
	if draws <= 0 {
		return 0, esierr.InvalidInput
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	scratch := make([]int, len(data))
	for i := range scratch {
		scratch[i] = i
	}
	subsample := make([]float64, sampleSize)

	var sum float64
	for d := 0; d < draws; d++ {
		partialFisherYates(scratch, sampleSize, rng)
		for i := 0; i < sampleSize; i++ {
			subsample[i] = data[scratch[i]]
		}
		sum += f(subsample)
	}
	return sum / float64(draws), nil
}

// partialFisherYates shuffles only the first k positions of idx in
// place, which is sufficient to draw k distinct indices uniformly at
// random without replacement.
func partialFisherYates(idx []int, k int, rng *rand.Rand) {
	n := len(idx)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
}
