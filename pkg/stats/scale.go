package stats

import (
	"math"
	"sort"

	"github.com/esicore/esicore/internal/esierr"
)

// qnSnScaleFactor is the consistency factor (2.2219) making Qn/Sn
// asymptotically unbiased estimates of SD under Gaussian data, per
// Rousseeuw & Croux (1993).
const qnSnScaleFactor = 2.2219

// Qn returns the Rousseeuw-Croux Qn robust scale estimate: 2.2219 times
// the first quartile of all pairwise absolute differences |xi-xj|, i<j.
//
// maxItems caps the number of stored samples considered (0 means no
// cap); the original source computes this via a linear-time selection
// algorithm over the full sample. This build instead sorts the O(n²)
// pairwise differences directly — solution-point and electrode counts in
// this domain run to a few thousand at most, where the simpler approach
// is fast enough and far easier to verify (see DESIGN.md).
func (a *Accumulator) Qn(maxItems int) (float64, error) {
	a.requireStore()
	xs := capSamples(a.data, maxItems)
	n := len(xs)
	if n < 2 {
		return 0, esierr.NotEnoughData
	}
	diffs := pairwiseAbsDiffs(xs)
	sort.Float64s(diffs)
	h := n/2 + 1
	k := h * (h - 1) / 2
	if k >= len(diffs) {
		k = len(diffs) - 1
	}
	return qnSnScaleFactor * diffs[k], nil
}

// Sn returns the Rousseeuw-Croux Sn robust scale estimate: the median
// over i of the median over j of |xi-xj|, scaled by 1.1926.
func (a *Accumulator) Sn(maxItems int) (float64, error) {
	a.requireStore()
	xs := capSamples(a.data, maxItems)
	n := len(xs)
	if n < 2 {
		return 0, esierr.NotEnoughData
	}
	const snScaleFactor = 1.1926
	medians := make([]float64, n)
	for i := range xs {
		diffs := make([]float64, 0, n-1)
		for j := range xs {
			if i == j {
				continue
			}
			diffs = append(diffs, math.Abs(xs[i]-xs[j]))
		}
		m, err := medianOf(diffs)
		if err != nil {
			return 0, err
		}
		medians[i] = m
	}
	outer, err := medianOf(medians)
	if err != nil {
		return 0, err
	}
	return snScaleFactor * outer, nil
}

func pairwiseAbsDiffs(xs []float64) []float64 {
	n := len(xs)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, math.Abs(xs[i]-xs[j]))
		}
	}
	return out
}

func capSamples(xs []float64, maxItems int) []float64 {
	if maxItems <= 0 || maxItems >= len(xs) {
		return xs
	}
	return xs[:maxItems]
}
