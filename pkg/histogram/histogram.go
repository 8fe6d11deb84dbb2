// Package histogram implements density estimation and percentile
// inversion over 1-D real data, optionally restricted by a 3-D mask —
// the building block the volume pipeline (pkg/skullstrip) uses to turn
// percentile-based policies into concrete thresholds.
package histogram

import (
	"math"
	"sort"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/numeric"
)

// Scale selects linear or logarithmic bin spacing.
type Scale int

const (
	Linear Scale = iota
	Log
)

// Options configures histogram construction. The zero Options value
// builds a 64-bin, linear-scale, raw (unsmoothed) histogram with no
// masking, no downsampling, and nulls (value == 0) included.
type Options struct {
	NumBins int

	// Mask, when non-nil, restricts the sampled data to voxels where
	// Mask is non-zero; Mask must have the same shape as the volume
	// passed to NewFromVolume.
	Mask *numeric.Dense3D[float64]

	// Stride downsamples the source data; 1 voxel out of every Stride
	// (along the flattened index) is sampled. 0 or 1 means no
	// downsampling.
	Stride int

	// SmoothWidth, when > 0, applies a centered moving-average of this
	// half-width to the raw bin counts before CDF/PDF derivation.
	SmoothWidth int

	Scale Scale

	// IgnoreNulls excludes exact-zero samples, matching the volume
	// pipeline's convention that 0 means background/out-of-field.
	IgnoreNulls bool
}

// Histogram is an immutable density/CDF estimate built from Options.
type Histogram struct {
	edges []float64 // len = NumBins+1
	pdf   []float64 // normalized bin densities, sums to 1
	cdf   []float64 // right-continuous cumulative at each bin's right edge
}

func defaultOptions(o Options) Options {
	if o.NumBins <= 0 {
		o.NumBins = 64
	}
	return o
}

// New builds a Histogram directly from a flat sample slice.
func New(data []float64, opts Options) (*Histogram, error) {
	opts = defaultOptions(opts)
	samples := filterSamples(data, opts)
	if len(samples) == 0 {
		return nil, esierr.Degenerate
	}
	return build(samples, opts)
}

// NewFromVolume builds a Histogram from a volume's voxels, honoring
// Options.Mask and Options.Stride.
func NewFromVolume(vol *numeric.Dense3D[float64], opts Options) (*Histogram, error) {
	opts = defaultOptions(opts)
	data := vol.Data()
	var maskData []float64
	if opts.Mask != nil {
		if !vol.SameShape(opts.Mask) {
			return nil, esierr.InvalidInput
		}
		maskData = opts.Mask.Data()
	}
	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}
	samples := make([]float64, 0, len(data)/stride+1)
	for i := 0; i < len(data); i += stride {
		if maskData != nil && maskData[i] == 0 {
			continue
		}
		if opts.IgnoreNulls && data[i] == 0 {
			continue
		}
		samples = append(samples, data[i])
	}
	if len(samples) == 0 {
		return nil, esierr.Degenerate
	}
	return build(samples, opts)
}

func filterSamples(data []float64, opts Options) []float64 {
	if !opts.IgnoreNulls {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}
	out := make([]float64, 0, len(data))
	for _, x := range data {
		if x != 0 {
			out = append(out, x)
		}
	}
	return out
}

func build(samples []float64, opts Options) (*Histogram, error) {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		// All samples identical: a single degenerate bin.
		return &Histogram{
			edges: []float64{lo, lo},
			pdf:   []float64{1},
			cdf:   []float64{1},
		}, nil
	}

	edges := make([]float64, opts.NumBins+1)
	if opts.Scale == Log {
		// Logarithmic edges require strictly positive support; shift
		// if needed so the smallest sample maps to a small positive
		// value rather than failing outright.
		shift := 0.0
		if lo <= 0 {
			shift = -lo + 1e-9
		}
		logLo, logHi := math.Log(lo+shift), math.Log(hi+shift)
		for i := range edges {
			frac := float64(i) / float64(opts.NumBins)
			edges[i] = math.Exp(logLo+(logHi-logLo)*frac) - shift
		}
	} else {
		for i := range edges {
			frac := float64(i) / float64(opts.NumBins)
			edges[i] = lo + (hi-lo)*frac
		}
	}

	counts := make([]float64, opts.NumBins)
	for _, x := range sorted {
		bin := locateBin(edges, x)
		counts[bin]++
	}

	if opts.SmoothWidth > 0 {
		counts = smooth(counts, opts.SmoothWidth)
	}

	var total float64
	for _, c := range counts {
		total += c
	}
	pdf := make([]float64, len(counts))
	cdf := make([]float64, len(counts))
	var running float64
	for i, c := range counts {
		pdf[i] = c / total
		running += c
		cdf[i] = running / total
	}

	return &Histogram{edges: edges, pdf: pdf, cdf: cdf}, nil
}

func locateBin(edges []float64, x float64) int {
	n := len(edges) - 1
	// edges is monotone increasing; binary search for the last edge <= x.
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if edges[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func smooth(counts []float64, width int) []float64 {
	out := make([]float64, len(counts))
	for i := range counts {
		var sum float64
		var n int
		for d := -width; d <= width; d++ {
			j := i + d
			if j >= 0 && j < len(counts) {
				sum += counts[j]
				n++
			}
		}
		out[i] = sum / float64(n)
	}
	return out
}

// PDF returns the normalized per-bin density (sums to 1).
func (h *Histogram) PDF() []float64 { return h.pdf }

// CDF returns the right-continuous cumulative distribution value at each
// bin's right edge; monotone non-decreasing, ending at 1.
func (h *Histogram) CDF() []float64 { return h.cdf }

// Edges returns the NumBins+1 bin boundaries.
func (h *Histogram) Edges() []float64 { return h.edges }

// FirstPosition returns the lower edge of the histogram's support.
func (h *Histogram) FirstPosition() float64 { return h.edges[0] }

// LastPosition returns the upper edge of the histogram's support.
func (h *Histogram) LastPosition() float64 { return h.edges[len(h.edges)-1] }

// PercentilePosition inverts the CDF at probability p (clamped to
// [0,1]): it returns the value x such that the fraction p of the mass
// lies at or below x, using linear interpolation between the CDF steps
// that bracket p.
func (h *Histogram) PercentilePosition(p float64) float64 {
	if p <= 0 {
		return h.FirstPosition()
	}
	if p >= 1 {
		return h.LastPosition()
	}
	if len(h.cdf) == 1 {
		return h.edges[0]
	}

	// Find i such that cdf[i-1] <= p <= cdf[i] (cdf[-1] := 0).
	idx := sort.Search(len(h.cdf), func(i int) bool { return h.cdf[i] >= p })
	if idx >= len(h.cdf) {
		idx = len(h.cdf) - 1
	}
	cdfLo := 0.0
	if idx > 0 {
		cdfLo = h.cdf[idx-1]
	}
	cdfHi := h.cdf[idx]
	xLo, xHi := h.edges[idx], h.edges[idx+1]
	if cdfHi == cdfLo {
		return xLo
	}
	frac := (p - cdfLo) / (cdfHi - cdfLo)
	return xLo + (xHi-xLo)*frac
}
