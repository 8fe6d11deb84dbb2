// Package maps implements the Maps subsystem: a time x channel dense
// matrix with a sampling frequency, reference transforms, normalization,
// centroid operators, frame-wise correlation, and per-channel z-scoring
// (SPEC_FULL.md §4.8).
package maps

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/stats"
)

// AtomType distinguishes scalar maps (one value per channel) from
// vectorial maps (an (x,y,z) triple per channel), mirroring the
// inverse-matrix evaluator's scalar/vectorial duality.
type AtomType int

const (
	Scalar AtomType = iota
	Vectorial
)

// ReferenceMode selects how setReference re-expresses each frame.
type ReferenceMode int

const (
	NoReference ReferenceMode = iota
	AverageReference
)

// Maps is a time x channel dense matrix plus its sampling frequency. For
// Vectorial atoms, NumChannels is the electrode count and each frame's
// row holds 3*NumChannels values (x,y,z interleaved per channel).
type Maps struct {
	Data           *mat.Dense
	SamplingFreqHz float64
	NumChannels    int
	Atom           AtomType
}

// New allocates a zeroed Maps of the given number of frames and
// channels.
func New(numFrames, numChannels int, atom AtomType, samplingFreqHz float64) (*Maps, error) {
	if numFrames <= 0 || numChannels <= 0 {
		return nil, esierr.InvalidInput
	}
	cols := numChannels
	if atom == Vectorial {
		cols = 3 * numChannels
	}
	return &Maps{
		Data:           mat.NewDense(numFrames, cols, nil),
		SamplingFreqHz: samplingFreqHz,
		NumChannels:    numChannels,
		Atom:           atom,
	}, nil
}

func (m *Maps) NumFrames() int { return m.Data.RawMatrix().Rows }

func (m *Maps) frame(t int) []float64 {
	r, c := m.Data.Dims()
	if t < 0 || t >= r {
		return nil
	}
	row := make([]float64, c)
	mat.Row(row, t, m.Data)
	return row
}

// SetReference re-expresses every frame in the given reference mode.
// AverageReference subtracts the per-frame channel mean; NoReference is
// the identity. Vectorial atoms are left untouched: re-referencing a
// dipole triple has no meaning without a scalar channel axis.
func (m *Maps) SetReference(mode ReferenceMode) {
	if mode == NoReference || m.Atom == Vectorial {
		return
	}
	rows, cols := m.Data.Dims()
	for t := 0; t < rows; t++ {
		var sum float64
		for c := 0; c < cols; c++ {
			sum += m.Data.At(t, c)
		}
		avg := sum / float64(cols)
		for c := 0; c < cols; c++ {
			m.Data.Set(t, c, m.Data.At(t, c)-avg)
		}
	}
}

// Normalize L2-normalizes every frame in place, optionally subtracting
// the frame's mean first.
func (m *Maps) Normalize(centerAverage bool) {
	rows, cols := m.Data.Dims()
	for t := 0; t < rows; t++ {
		row := m.frame(t)
		if centerAverage {
			var sum float64
			for _, x := range row {
				sum += x
			}
			avg := sum / float64(len(row))
			for i := range row {
				row[i] -= avg
			}
		}
		var normSq float64
		for _, x := range row {
			normSq += x * x
		}
		norm := math.Sqrt(normSq)
		if norm == 0 {
			continue
		}
		for c := 0; c < cols; c++ {
			m.Data.Set(t, c, row[c]/norm)
		}
	}
}

// CentroidKind selects the representative-map estimator computeCentroid
// uses.
type CentroidKind int

const (
	CentroidMean CentroidKind = iota
	CentroidMedian
	CentroidMedoid
	CentroidEigenvector
)

// ComputeCentroid returns a representative map over all frames. Polarity
// resolution, when enabled, flips the sign of each frame (by inner
// product with a running template) before accumulating, since a
// topographic map's sign is often arbitrary relative to its neighbors.
func (m *Maps) ComputeCentroid(kind CentroidKind, polarity bool) ([]float64, error) {
	if m.Data == nil {
		return nil, esierr.NotEnoughData
	}
	rows, cols := m.Data.Dims()
	if rows == 0 {
		return nil, esierr.NotEnoughData
	}
	frames := make([][]float64, rows)
	for t := 0; t < rows; t++ {
		frames[t] = m.frame(t)
	}
	if polarity {
		resolvePolarity(frames)
	}

	switch kind {
	case CentroidMean:
		return meanFrame(frames, cols), nil
	case CentroidMedian:
		return medianFrame(frames, cols)
	case CentroidMedoid:
		return medoidFrame(frames), nil
	case CentroidEigenvector:
		return eigenvectorFrame(frames, cols)
	default:
		return nil, esierr.InvalidInput
	}
}

// resolvePolarity flips each frame's sign, in order, to maximize its dot
// product with the running mean of already-resolved frames — the
// "evaluate polarity" rule for sign-ambiguous topographic maps.
func resolvePolarity(frames [][]float64) {
	if len(frames) == 0 {
		return
	}
	template := append([]float64(nil), frames[0]...)
	for i := 1; i < len(frames); i++ {
		if dot(frames[i], template) < 0 {
			for j := range frames[i] {
				frames[i][j] = -frames[i][j]
			}
		}
		for j := range template {
			template[j] = (template[j]*float64(i) + frames[i][j]) / float64(i+1)
		}
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func meanFrame(frames [][]float64, cols int) []float64 {
	out := make([]float64, cols)
	for _, f := range frames {
		for c, x := range f {
			out[c] += x
		}
	}
	for c := range out {
		out[c] /= float64(len(frames))
	}
	return out
}

func medianFrame(frames [][]float64, cols int) ([]float64, error) {
	out := make([]float64, cols)
	col := make([]float64, len(frames))
	for c := 0; c < cols; c++ {
		for t, f := range frames {
			col[t] = f[c]
		}
		out[c] = stats.Median(col)
	}
	return out, nil
}

// medoidFrame returns the frame with the smallest summed squared
// distance to every other frame.
func medoidFrame(frames [][]float64) []float64 {
	bestIdx, bestSum := 0, math.Inf(1)
	for i, a := range frames {
		var sum float64
		for j, b := range frames {
			if i == j {
				continue
			}
			sum += squaredDistance(a, b)
		}
		if sum < bestSum {
			bestSum = sum
			bestIdx = i
		}
	}
	return append([]float64(nil), frames[bestIdx]...)
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// eigenvectorFrame returns the leading eigenvector of the frames'
// covariance matrix, scaled to the frames' average norm so its units
// match a genuine map.
func eigenvectorFrame(frames [][]float64, cols int) ([]float64, error) {
	rows := len(frames)
	data := make([]float64, 0, rows*cols)
	for _, f := range frames {
		data = append(data, f...)
	}
	x := mat.NewDense(rows, cols, data)

	mean := meanFrame(frames, cols)
	for t := 0; t < rows; t++ {
		for c := 0; c < cols; c++ {
			x.Set(t, c, x.At(t, c)-mean[c])
		}
	}

	var cov mat.SymDense
	cov.SymOuterK(1, x.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return nil, esierr.Degenerate
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	leadIdx := 0
	for i, v := range values {
		if v > values[leadIdx] {
			leadIdx = i
		}
	}
	vec := mat.Col(nil, leadIdx, &vectors)

	avgNorm := 0.0
	for _, f := range frames {
		var n float64
		for _, x := range f {
			n += x * x
		}
		avgNorm += math.Sqrt(n)
	}
	avgNorm /= float64(rows)

	var vecNorm float64
	for _, v := range vec {
		vecNorm += v * v
	}
	vecNorm = math.Sqrt(vecNorm)
	if vecNorm > 0 {
		for i := range vec {
			vec[i] = vec[i] * avgNorm / vecNorm
		}
	}
	return vec, nil
}

// CorrelationKind selects the per-pair similarity measure Correlate
// computes.
type CorrelationKind int

const (
	CorrelationPearson CorrelationKind = iota
	CorrelationCosine
)

// Correlate computes the |a|x|b| matrix of frame-wise correlations
// between two Maps sharing the same channel layout. Polarity, when
// enabled, takes the absolute value of each pairwise correlation (sign
// ambiguity is immaterial to similarity).
func Correlate(a, b *Maps, kind CorrelationKind, polarity bool) (*mat.Dense, error) {
	if a.Atom != b.Atom {
		return nil, esierr.InvalidInput
	}
	ra, ca := a.Data.Dims()
	_, cb := b.Data.Dims()
	if ca != cb {
		return nil, esierr.InvalidInput
	}
	rb := b.NumFrames()
	out := mat.NewDense(ra, rb, nil)
	for i := 0; i < ra; i++ {
		fa := a.frame(i)
		for j := 0; j < rb; j++ {
			fb := b.frame(j)
			var r float64
			switch kind {
			case CorrelationPearson:
				r = pearson(fa, fb)
			case CorrelationCosine:
				r = cosine(fa, fb)
			}
			if polarity {
				r = math.Abs(r)
			}
			out.Set(i, j, r)
		}
	}
	return out, nil
}

func pearson(a, b []float64) float64 {
	ma, mb := stats.Mean(a), stats.Mean(b)
	var num, da, db float64
	for i := range a {
		xa, xb := a[i]-ma, b[i]-mb
		num += xa * xb
		da += xa * xa
		db += xb * xb
	}
	denom := math.Sqrt(da * db)
	if denom == 0 {
		return 0
	}
	return num / denom
}

func cosine(a, b []float64) float64 {
	var num, na, nb float64
	for i := range a {
		num += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na * nb)
	if denom == 0 {
		return 0
	}
	return num / denom
}

// ZScoreParams holds the per-channel location/scale estimates
// ComputeZScore derives and ApplyZScore consumes.
type ZScoreParams struct {
	Location []float64
	Scale    []float64
}

// ComputeZScore derives, per channel (or per vector component for
// Vectorial atoms), a robust location/scale pair over all frames: the
// median, and the MAD scaled by 1.4826, rather than raw mean/SD, so a
// handful of artifact frames cannot dominate the baseline. Every frame is
// used once; no resampling is done.
func (m *Maps) ComputeZScore() (ZScoreParams, error) {
	rows, cols := m.Data.Dims()
	if rows == 0 {
		return ZScoreParams{}, esierr.NotEnoughData
	}
	loc := make([]float64, cols)
	scale := make([]float64, cols)
	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		for t := 0; t < rows; t++ {
			col[t] = m.Data.At(t, c)
		}
		med := stats.Median(col)
		loc[c] = med
		scale[c] = medianAbsoluteDeviation(col, med)
	}
	return ZScoreParams{Location: loc, Scale: scale}, nil
}

func medianAbsoluteDeviation(xs []float64, center float64) float64 {
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - center)
	}
	mad := stats.Median(devs)
	const consistencyFactor = 1.4826
	return mad * consistencyFactor
}

// ApplyZScore rewrites every frame in place as (x - location) / scale,
// per channel, skipping channels whose scale is zero.
func (m *Maps) ApplyZScore(params ZScoreParams) error {
	rows, cols := m.Data.Dims()
	if len(params.Location) != cols || len(params.Scale) != cols {
		return esierr.InvalidInput
	}
	for t := 0; t < rows; t++ {
		for c := 0; c < cols; c++ {
			if params.Scale[c] == 0 {
				continue
			}
			m.Data.Set(t, c, (m.Data.At(t, c)-params.Location[c])/params.Scale[c])
		}
	}
	return nil
}
