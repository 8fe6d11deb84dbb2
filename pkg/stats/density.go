package stats

import "math"

const gaussianKernelNormalizer = 0.3989422804014327 // 1/sqrt(2*pi)

// SilvermanBandwidth returns Silverman's rule-of-thumb bandwidth for
// Gaussian kernel density estimation: 0.9 * min(SD, IQR/1.34) * n^(-1/5).
// Falls back to SD alone when the IQR is degenerate (zero).
func SilvermanBandwidth(samples []float64) float64 {
	n := len(samples)
	if n < 2 {
		return 1
	}
	acc := NewStored(n, false)
	for _, x := range samples {
		acc.Add(x)
	}
	sd := acc.SD()
	spread := sd
	if iqr, err := acc.IQR(); err == nil && iqr > 0 {
		spread = math.Min(sd, iqr/1.34)
	}
	if spread <= 0 {
		spread = 1
	}
	return 0.9 * spread * math.Pow(float64(n), -0.2)
}

// Density is a Gaussian kernel density estimate over a fixed sample set.
type Density struct {
	samples   []float64
	bandwidth float64
}

// NewGaussianDensity builds a kernel density estimate over samples. A
// non-positive bandwidth selects Silverman's rule (the
// KernelDensityDefault policy).
func NewGaussianDensity(samples []float64, bandwidth float64) *Density {
	if bandwidth <= 0 {
		bandwidth = SilvermanBandwidth(samples)
	}
	cp := make([]float64, len(samples))
	copy(cp, samples)
	return &Density{samples: cp, bandwidth: bandwidth}
}

// Bandwidth returns the smoothing bandwidth in use.
func (d *Density) Bandwidth() float64 { return d.bandwidth }

// At evaluates the estimated density at x.
func (d *Density) At(x float64) float64 {
	n := len(d.samples)
	if n == 0 || d.bandwidth == 0 {
		return 0
	}
	var sum float64
	for _, s := range d.samples {
		u := (x - s) / d.bandwidth
		sum += gaussianKernelNormalizer * math.Exp(-0.5*u*u)
	}
	return sum / (float64(n) * d.bandwidth)
}

// ArgMax scans [lo,hi] at the given number of steps and returns the
// x with the highest estimated density — a smooth alternative to the
// binned MaxMode family for small or narrow-bandwidth samples.
func (d *Density) ArgMax(lo, hi float64, steps int) float64 {
	if steps < 1 {
		steps = 1
	}
	step := (hi - lo) / float64(steps)
	best, bestDensity := lo, d.At(lo)
	for i := 1; i <= steps; i++ {
		x := lo + float64(i)*step
		if v := d.At(x); v > bestDensity {
			best, bestDensity = x, v
		}
	}
	return best
}
