package stats

import (
	"math"

	"github.com/esicore/esicore/internal/esierr"
)

// defaultModeBins picks a bin count for the histogram-based mode
// estimators when the caller does not supply one: roughly sqrt(n),
// floored at 8 bins so small samples still get a usable histogram.
func defaultModeBins(n int) int {
	b := int(math.Sqrt(float64(n)))
	if b < 8 {
		b = 8
	}
	return b
}

// histogramCounts bins xs (already known non-empty) into numBins equal-
// width bins over [min,max] and returns the counts plus each bin's width
// and lower edge, for computing a bin center later.
func histogramCounts(xs []float64, numBins int) (counts []int, lo, width float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	width = (hi - lo) / float64(numBins)
	if width == 0 {
		// Degenerate: every sample identical.
		return []int{len(xs)}, lo, 1
	}
	counts = make([]int, numBins)
	for _, x := range xs {
		bin := int((x - lo) / width)
		if bin >= numBins {
			bin = numBins - 1
		}
		counts[bin]++
	}
	return counts, lo, width
}

func argmaxBinCenter(counts []int, lo, width float64) float64 {
	best, bestCount := 0, -1
	for i, c := range counts {
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	return lo + width*(float64(best)+0.5)
}

// MaxMode returns the center of the densest bin of the raw (unsmoothed)
// histogram of the stored samples, TEasyStatsFunctionMaxMode in the
// original source's enumeration.
func (a *Accumulator) MaxMode(numBins int) (float64, error) {
	a.requireStore()
	if len(a.data) == 0 {
		return 0, esierr.NotEnoughData
	}
	if numBins <= 0 {
		numBins = defaultModeBins(len(a.data))
	}
	counts, lo, width := histogramCounts(a.data, numBins)
	return argmaxBinCenter(counts, lo, width), nil
}

// MaxModeHistogram returns the center of the densest bin after smoothing
// the histogram with a 3-point moving average, reducing single-bin noise
// spikes relative to MaxMode.
func (a *Accumulator) MaxModeHistogram(numBins int) (float64, error) {
	a.requireStore()
	if len(a.data) == 0 {
		return 0, esierr.NotEnoughData
	}
	if numBins <= 0 {
		numBins = defaultModeBins(len(a.data))
	}
	counts, lo, width := histogramCounts(a.data, numBins)
	smoothed := make([]int, len(counts))
	for i := range counts {
		sum, n := counts[i], 1
		if i > 0 {
			sum += counts[i-1]
			n++
		}
		if i < len(counts)-1 {
			sum += counts[i+1]
			n++
		}
		smoothed[i] = sum / n
	}
	return argmaxBinCenter(smoothed, lo, width), nil
}

// MaxModeHSM implements the Half-Sample-Mode estimator (Bickel &
// Frühwirth): recursively restrict to the narrowest-range half of the
// sorted data until at most 2 samples remain, then return their mean.
func (a *Accumulator) MaxModeHSM() (float64, error) {
	a.requireStore()
	a.Sort()
	if len(a.data) == 0 {
		return 0, esierr.NotEnoughData
	}
	return halfSampleMode(a.data), nil
}

func halfSampleMode(sorted []float64) float64 {
	n := len(sorted)
	if n <= 2 {
		return meanOf(sorted)
	}
	w := (n + 1) / 2
	bestStart, bestRange := 0, math.Inf(1)
	for i := 0; i+w-1 < n; i++ {
		r := sorted[i+w-1] - sorted[i]
		if r < bestRange {
			bestRange, bestStart = r, i
		}
	}
	return halfSampleMode(sorted[bestStart : bestStart+w])
}

// MaxModeHRM implements the Half-Range-Mode estimator: recursively
// bisect the value range (not the sample count) and keep whichever half
// holds more points, until at most 2 samples remain, then return their
// mean. HRM and HSM behave asymptotically the same past ~128 samples.
func (a *Accumulator) MaxModeHRM() (float64, error) {
	a.requireStore()
	a.Sort()
	if len(a.data) == 0 {
		return 0, esierr.NotEnoughData
	}
	return halfRangeMode(a.data), nil
}

func halfRangeMode(sorted []float64) float64 {
	xs := sorted
	for len(xs) > 2 {
		lo, hi := xs[0], xs[len(xs)-1]
		if lo == hi {
			break
		}
		mid := (lo + hi) / 2
		var left, right []float64
		for _, x := range xs {
			if x <= mid {
				left = append(left, x)
			} else {
				right = append(right, x)
			}
		}
		if len(right) == 0 || len(left) >= len(right) {
			xs = left
		} else {
			xs = right
		}
	}
	return meanOf(xs)
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ModeRobust computes all four mode estimators (MaxMode, MaxModeHistogram,
// MaxModeHSM, MaxModeHRM) and returns their mean after rejecting any
// estimate farther than 3*MAD from the median of the four — a
// stats-of-stats value guarding against one estimator diverging on
// pathological data.
func (a *Accumulator) ModeRobust() (float64, error) {
	m1, err := a.MaxMode(0)
	if err != nil {
		return 0, err
	}
	m2, err := a.MaxModeHistogram(0)
	if err != nil {
		return 0, err
	}
	m3, err := a.MaxModeHSM()
	if err != nil {
		return 0, err
	}
	m4, err := a.MaxModeHRM()
	if err != nil {
		return 0, err
	}
	estimates := []float64{m1, m2, m3, m4}

	sub := NewStored(4, false)
	for _, e := range estimates {
		sub.Add(e)
	}
	median, _ := sub.Median(false)
	mad, _ := sub.MAD(median)

	var sum float64
	var n int
	for _, e := range estimates {
		if mad == 0 || math.Abs(e-median) <= 3*mad {
			sum += e
			n++
		}
	}
	if n == 0 {
		return median, nil
	}
	return sum / float64(n), nil
}
