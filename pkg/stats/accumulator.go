// Package stats implements the robust-statistics engine (TEasyStats):
// streaming moments, sorted-data order statistics, robust mode estimators,
// Gaussian kernel density, and a randomization-test driver, all built on
// a single Accumulator type.
//
// Two modes coexist. Streaming accumulators keep only count, sum, sum²,
// min and max (constant memory) and support only the parametric measures
// (Mean, SD, Min, Max, Range, CoV, SNR). Stored accumulators additionally
// keep every sample in a growable slice, unlocking the nonparametric
// suite (Median, Quantile, MAD, modes, density) once the slice is sorted.
package stats

import (
	"math"
	"sort"
	"sync"

	"github.com/esicore/esicore/internal/esierr"
)

// Accumulator is a single-pass statistics collector. The zero value is a
// usable streaming, non-locking accumulator; use New for the common
// cases.
type Accumulator struct {
	locking bool
	mu      sync.Mutex

	count int64
	sum   float64
	sum2  float64
	min   float64
	max   float64

	store  bool
	data   []float64
	sorted bool
}

// New returns a streaming accumulator (no sample storage). locking
// selects between the safe path (single critical section around the
// moment update) and the no-lock fast path; callers declare which based
// on whether Add is invoked from more than one goroutine.
func New(locking bool) *Accumulator {
	return &Accumulator{
		locking: locking,
		min:     math.Inf(1),
		max:     math.Inf(-1),
	}
}

// NewStored returns an accumulator that additionally retains every
// sample, with capacity pre-allocated as a sizing hint. Required for the
// order-statistic and mode operations below.
func NewStored(capacityHint int, locking bool) *Accumulator {
	a := New(locking)
	a.store = true
	a.data = make([]float64, 0, capacityHint)
	return a
}

// Add appends a new sample, updating the running moments and (in stored
// mode) the sample slice. Any Add invalidates a prior Sort.
func (a *Accumulator) Add(x float64) {
	if a.locking {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	a.count++
	a.sum += x
	a.sum2 += x * x
	if x < a.min {
		a.min = x
	}
	if x > a.max {
		a.max = x
	}
	if a.store {
		a.data = append(a.data, x)
		a.sorted = false
	}
}

// Reset returns the accumulator to empty, keeping its locking/store mode.
func (a *Accumulator) Reset() {
	if a.locking {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	a.count, a.sum, a.sum2 = 0, 0, 0
	a.min, a.max = math.Inf(1), math.Inf(-1)
	if a.store {
		a.data = a.data[:0]
		a.sorted = false
	}
}

// Count returns the number of samples seen.
func (a *Accumulator) Count() int64 { return a.count }

// Mean returns the running mean, or 0 on an empty accumulator.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Min returns the running minimum, or 0 on an empty accumulator.
func (a *Accumulator) Min() float64 {
	if a.count == 0 {
		return 0
	}
	return a.min
}

// Max returns the running maximum, or 0 on an empty accumulator.
func (a *Accumulator) Max() float64 {
	if a.count == 0 {
		return 0
	}
	return a.max
}

// Range returns Max-Min, or 0 on an empty accumulator.
func (a *Accumulator) Range() float64 {
	if a.count == 0 {
		return 0
	}
	return a.max - a.min
}

// SD returns the sample standard deviation (n-1 denominator), or 0 when
// fewer than 2 samples have been seen. sum² overflow saturates to +Inf
// the way float64 arithmetic already does; no extra guard is added.
func (a *Accumulator) SD() float64 {
	if a.count < 2 {
		return 0
	}
	n := float64(a.count)
	variance := (a.sum2 - a.sum*a.sum/n) / (n - 1)
	if variance < 0 {
		// Guards against a tiny negative value from floating-point
		// cancellation in the sum²-based formula.
		variance = 0
	}
	return math.Sqrt(variance)
}

// CoV returns the coefficient of variation, SD/Mean. 0 when Mean is 0.
func (a *Accumulator) CoV() float64 {
	m := a.Mean()
	if m == 0 {
		return 0
	}
	return a.SD() / m
}

// SNR returns the local-mean/local-SD signal-to-noise ratio used by the
// volume LogSNR filter. 0 when SD is 0.
func (a *Accumulator) SNR() float64 {
	sd := a.SD()
	if sd == 0 {
		return 0
	}
	return a.Mean() / sd
}

// ensureSorted assumes the caller already holds a.mu when a.locking.
func (a *Accumulator) ensureSorted() {
	if a.sorted {
		return
	}
	sort.Float64s(a.data)
	a.sorted = true
}

// Sort stably orders the stored samples ascending; a no-op when already
// sorted. Panics if the accumulator is not in stored mode.
func (a *Accumulator) Sort() {
	a.requireStore()
	if a.locking {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	a.ensureSorted()
}

func (a *Accumulator) requireStore() {
	if !a.store {
		panic("stats: operation requires a stored accumulator (see NewStored)")
	}
}

// Data returns the stored samples, sorted if Sort has been called. The
// returned slice aliases internal storage and must not be mutated.
func (a *Accumulator) Data() []float64 {
	a.requireStore()
	return a.data
}

// IsSorted reports whether the stored samples are currently sorted.
func (a *Accumulator) IsSorted() bool { return a.sorted }

// Median returns the median of the stored, sorted samples. On odd n it
// is the middle sample; on even n, strict=true returns the lower-middle
// sample and strict=false returns the mean of the two middles. Returns
// esierr.NotEnoughData on an empty accumulator.
func (a *Accumulator) Median(strict bool) (float64, error) {
	a.requireStore()
	a.Sort()
	n := len(a.data)
	if n == 0 {
		return 0, esierr.NotEnoughData
	}
	if n%2 == 1 {
		return a.data[n/2], nil
	}
	lo, hi := a.data[n/2-1], a.data[n/2]
	if strict {
		return lo, nil
	}
	return (lo + hi) / 2, nil
}

// Quantile returns the p-quantile (p in [0,1]) by linear interpolation
// between adjacent sorted samples, extrapolating to Min/Max at the ends.
func (a *Accumulator) Quantile(p float64) (float64, error) {
	a.requireStore()
	a.Sort()
	n := len(a.data)
	if n == 0 {
		return 0, esierr.NotEnoughData
	}
	if p <= 0 {
		return a.data[0], nil
	}
	if p >= 1 {
		return a.data[n-1], nil
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return a.data[lo], nil
	}
	frac := pos - float64(lo)
	return a.data[lo]*(1-frac) + a.data[hi]*frac, nil
}

// IQR returns the interquartile range, Quantile(0.75)-Quantile(0.25).
func (a *Accumulator) IQR() (float64, error) {
	q1, err := a.Quantile(0.25)
	if err != nil {
		return 0, err
	}
	q3, err := a.Quantile(0.75)
	if err != nil {
		return 0, err
	}
	return q3 - q1, nil
}

// MAD returns the median absolute deviation from center: median(|xi -
// center|).
func (a *Accumulator) MAD(center float64) (float64, error) {
	a.requireStore()
	if len(a.data) == 0 {
		return 0, esierr.NotEnoughData
	}
	devs := NewStored(len(a.data), false)
	for _, x := range a.data {
		devs.Add(math.Abs(x - center))
	}
	return devs.Median(false)
}

// MADAsym splits the absolute deviations from center by the sign of
// (xi-center) and returns the median of each side separately: lower is
// the MAD of samples below center, upper of samples at or above it.
func (a *Accumulator) MADAsym(center float64) (lower, upper float64, err error) {
	a.requireStore()
	var below, above []float64
	for _, x := range a.data {
		d := math.Abs(x - center)
		if x < center {
			below = append(below, d)
		} else {
			above = append(above, d)
		}
	}
	lower, err = medianOf(below)
	if err != nil {
		return 0, 0, err
	}
	upper, err = medianOf(above)
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

func medianOf(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, esierr.NotEnoughData
	}
	acc := NewStored(len(xs), false)
	for _, x := range xs {
		acc.Add(x)
	}
	return acc.Median(false)
}
