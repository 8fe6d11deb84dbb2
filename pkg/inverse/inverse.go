// Package inverse implements the inverse-matrix evaluator: applying a
// (possibly vectorial) precomputed inverse to EEG maps under multiple
// regularization levels, with an automatic "best regularization" search
// (SPEC_FULL.md §4.7).
package inverse

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/internal/worldref"
)

// Regularization names one precomputed inverse-matrix slot.
type Regularization struct {
	Name  string
	Value float64
}

// Doc is a precomputed inverse, one gonum matrix per regularization
// level, of shape (L x E) where L = NumSolutionPoints (scalar) or
// 3*NumSolutionPoints (vectorial) and E = NumElectrodes.
type Doc struct {
	Handle            worldref.Handle
	NumElectrodes     int
	NumSolutionPoints int
	IsScalar          bool
	Regularizations   []Regularization
	matrices          []*mat.Dense
}

// New validates and wraps a set of per-regularization matrices into a
// Doc.
func New(numElectrodes, numSolutionPoints int, isScalar bool, regs []Regularization, matrices []*mat.Dense) (*Doc, error) {
	if numElectrodes <= 0 || numSolutionPoints <= 0 || len(regs) != len(matrices) || len(regs) == 0 {
		return nil, esierr.InvalidInput
	}
	expectedRows := numSolutionPoints
	if !isScalar {
		expectedRows = 3 * numSolutionPoints
	}
	for _, m := range matrices {
		rows, cols := m.Dims()
		if rows != expectedRows || cols != numElectrodes {
			return nil, esierr.InvalidInput
		}
	}
	return &Doc{
		NumElectrodes:     numElectrodes,
		NumSolutionPoints: numSolutionPoints,
		IsScalar:          isScalar,
		Regularizations:   regs,
		matrices:          matrices,
	}, nil
}

// NewFromPseudoInverse builds a single-regularization Doc from a
// forward (lead-field) matrix by Moore-Penrose pseudo-inversion — the
// TMatrixSpinvDoc construction path, folded in as an alternate loader
// for the same Doc shape (SPEC_FULL.md §5).
func NewFromPseudoInverse(forward *mat.Dense, isScalar bool, regName string, regValue float64) (*Doc, error) {
	rows, cols := forward.Dims() // rows = E, cols = L (lead field maps SP activity -> electrode readings)
	var svd mat.SVD
	if ok := svd.Factorize(forward, mat.SVDThin); !ok {
		return nil, esierr.Degenerate
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	// pinv = V * Sigma+ * U^T, Sigma+ the reciprocal of each non-zero
	// singular value (near-zero values are treated as singular and
	// dropped, the standard Moore-Penrose truncation).
	var sigmaPlus mat.Dense
	sigmaPlus.ReuseAs(v.RawMatrix().Cols, u.RawMatrix().Cols)
	for i, s := range values {
		if s > 1e-12*values[0] {
			sigmaPlus.Set(i, i, 1/s)
		}
	}
	var vSigma mat.Dense
	vSigma.Mul(&v, &sigmaPlus)
	var pinv mat.Dense
	pinv.Mul(&vSigma, u.T())

	numSP := cols
	if !isScalar {
		numSP = cols / 3
	}
	return New(rows, numSP, isScalar, []Regularization{{Name: regName, Value: regValue}}, []*mat.Dense{&pinv})
}

// Apply computes M(reg)*eegMap and returns it in either scalar (length
// NumSolutionPoints) or vectorial (length 3*NumSolutionPoints) form,
// implementing the four scalar/vectorial combination cases spec.md
// §4.7 names.
func (d *Doc) Apply(reg int, eegMap []float64, vectorialOutput bool) ([]float64, error) {
	if reg < 0 || reg >= len(d.matrices) {
		return nil, esierr.OutOfRange
	}
	if len(eegMap) != d.NumElectrodes {
		return nil, esierr.InvalidInput
	}
	m := d.matrices[reg]
	in := mat.NewVecDense(len(eegMap), eegMap)
	rows, _ := m.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(m, in)

	switch {
	case d.IsScalar && !vectorialOutput:
		return denseVecToSlice(out), nil
	case d.IsScalar && vectorialOutput:
		result := make([]float64, 3*d.NumSolutionPoints)
		for sp := 0; sp < d.NumSolutionPoints; sp++ {
			result[3*sp] = out.AtVec(sp)
		}
		return result, nil
	case !d.IsScalar && !vectorialOutput:
		result := make([]float64, d.NumSolutionPoints)
		for sp := 0; sp < d.NumSolutionPoints; sp++ {
			sx, sy, sz := out.AtVec(3*sp), out.AtVec(3*sp+1), out.AtVec(3*sp+2)
			result[sp] = math.Sqrt(sx*sx + sy*sy + sz*sz)
		}
		return result, nil
	default: // vectorial inverse, vectorial output
		return denseVecToSlice(out), nil
	}
}

func denseVecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// TimeAverageMode selects how InverseSol reduces a multi-frame window.
type TimeAverageMode int

const (
	AverageBeforeInverse TimeAverageMode = iota
	AverageAfterInverse
)

// InverseSol evaluates the inverse over a time window of EEG map
// frames: a single frame is applied directly; multiple frames are
// either averaged before applying the inverse, or applied per-frame and
// averaged after — the two differ for vectorial inverses when polarity
// varies across time (spec.md §4.7).
func (d *Doc) InverseSol(reg int, frames [][]float64, mode TimeAverageMode, vectorialOutput bool) ([]float64, error) {
	if len(frames) == 0 {
		return nil, esierr.InvalidInput
	}
	if len(frames) == 1 {
		return d.Apply(reg, frames[0], vectorialOutput)
	}

	if mode == AverageBeforeInverse {
		avg := make([]float64, d.NumElectrodes)
		for _, f := range frames {
			if len(f) != d.NumElectrodes {
				return nil, esierr.InvalidInput
			}
			for i, x := range f {
				avg[i] += x
			}
		}
		for i := range avg {
			avg[i] /= float64(len(frames))
		}
		return d.Apply(reg, avg, vectorialOutput)
	}

	var sum []float64
	for _, f := range frames {
		out, err := d.Apply(reg, f, vectorialOutput)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = make([]float64, len(out))
		}
		for i, x := range out {
			sum[i] += x
		}
	}
	for i := range sum {
		sum[i] /= float64(len(frames))
	}
	return sum, nil
}

// BestRegularizationParams configures the knee detector; Threshold is
// the empirical -0.06 cutoff spec.md §9 leaves configurable.
type BestRegularizationParams struct {
	Threshold float64
}

func defaultBestRegularizationParams() BestRegularizationParams {
	return BestRegularizationParams{Threshold: -0.06}
}

// BestRegularization scans regularizations in ascending order,
// computing the global energy S(reg) = Sum_sp |out_sp| at each, and
// returns the first index reg where a two-step decline decelerates
// back toward a plateau: Δ1 = S_{reg-1}-S_{reg-2} < 0, Δ2 =
// S_reg-S_{reg-1} < 0, and (Δ1+Δ2)/(2*S_{reg-1}) >= params.Threshold
// (a ratio at or nearer zero than the threshold means the decline has
// flattened out). Falls back to the last regularization index if the
// ratio of every declining triple stays below the threshold.
func (d *Doc) BestRegularization(eegMap []float64, params BestRegularizationParams) (int, error) {
	if params.Threshold == 0 {
		params = defaultBestRegularizationParams()
	}
	energies := make([]float64, len(d.matrices))
	for reg := range d.matrices {
		out, err := d.Apply(reg, eegMap, false)
		if err != nil {
			return 0, err
		}
		var s float64
		for _, x := range out {
			s += math.Abs(x)
		}
		energies[reg] = s
	}
	return bestRegularizationFromEnergies(energies, params.Threshold), nil
}

func bestRegularizationFromEnergies(s []float64, threshold float64) int {
	for reg := 2; reg < len(s); reg++ {
		delta1 := s[reg-1] - s[reg-2]
		delta2 := s[reg] - s[reg-1]
		if delta1 >= 0 || delta2 >= 0 {
			continue
		}
		ratio := (delta1 + delta2) / (2 * s[reg-1])
		if ratio >= threshold {
			return reg
		}
	}
	return len(s) - 1
}
