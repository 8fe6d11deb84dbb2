package volume

import (
	"math"

	"github.com/esicore/esicore/pkg/gauge"
)

// localMeanSD computes, for every voxel, the mean and (population) SD of
// its structuring-element neighborhood in src, clamping neighbors
// outside the array to src.Background the same way neighborhoodReduce
// does. Returns two parallel Dense3D-shaped float slices (mean, sd) in
// Dense3D.Index order.
func localMeanSD(src *Volume, width int, collab *gauge.Collaborators) (mean, sd []float64, err error) {
	offs := structuringOffsets(width)
	d1, d2, d3 := src.Dims()
	mean = make([]float64, d1*d2*d3)
	sd = make([]float64, d1*d2*d3)

	err = parallelSlices(d1, collab, func(i int) error {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				var sum, sum2 float64
				n := float64(len(offs))
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					var v float64
					if src.Data.InBounds(ni, nj, nk) {
						v = src.Data.AtUnsafe(ni, nj, nk)
					} else {
						v = src.Background
					}
					sum += v
					sum2 += v * v
				}
				m := sum / n
				variance := sum2/n - m*m
				if variance < 0 {
					variance = 0
				}
				idx := src.Data.Index(i, j, k)
				mean[idx] = m
				sd[idx] = math.Sqrt(variance)
			}
		}
		return nil
	})
	return mean, sd, err
}

// MeanSubtraction replaces each voxel with x - localMean(x), a
// bias-field-robust sensitivity field used by skull-stripping recipes
// 1A/1B.
func MeanSubtraction(src *Volume, width int, collab *gauge.Collaborators) (*Volume, error) {
	mean, _, err := localMeanSD(src, width, collab)
	if err != nil {
		return nil, err
	}
	out := src.Clone()
	data := out.Data.Data()
	srcData := src.Data.Data()
	for i := range data {
		data[i] = srcData[i] - mean[i]
	}
	return out, nil
}

// MeanDivision replaces each voxel with x/localMean(x) - 1, used by
// skull-stripping recipes 2/3.
func MeanDivision(src *Volume, width int, collab *gauge.Collaborators) (*Volume, error) {
	mean, _, err := localMeanSD(src, width, collab)
	if err != nil {
		return nil, err
	}
	out := src.Clone()
	data := out.Data.Data()
	srcData := src.Data.Data()
	for i := range data {
		if mean[i] == 0 {
			data[i] = 0
			continue
		}
		data[i] = srcData[i]/mean[i] - 1
	}
	return out, nil
}

// CoV replaces each voxel with the local coefficient of variation,
// localSD/localMean (0 where localMean is 0).
func CoV(src *Volume, width int, collab *gauge.Collaborators) (*Volume, error) {
	mean, sd, err := localMeanSD(src, width, collab)
	if err != nil {
		return nil, err
	}
	out := src.Clone()
	data := out.Data.Data()
	for i := range data {
		if mean[i] == 0 {
			data[i] = 0
			continue
		}
		data[i] = sd[i] / mean[i]
	}
	return out, nil
}

// PercentFullness replaces each voxel with the percentage of non-zero
// voxels in its neighborhood.
func PercentFullness(src *Volume, width int, collab *gauge.Collaborators) (*Volume, error) {
	offs := structuringOffsets(width)
	d1, d2, d3 := src.Dims()
	out := src.Clone()
	err := parallelSlices(d1, collab, func(i int) error {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				var nonZero int
				for _, o := range offs {
					ni, nj, nk := i+o[0], j+o[1], k+o[2]
					if src.Data.InBounds(ni, nj, nk) && src.Data.AtUnsafe(ni, nj, nk) != 0 {
						nonZero++
					}
				}
				out.Data.SetUnsafe(i, j, k, 100*float64(nonZero)/float64(len(offs)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LogSNR replaces each voxel with log(localMean/localSD), the bias-
// field-robust SNR field (0 where localSD is 0).
func LogSNR(src *Volume, width int, collab *gauge.Collaborators) (*Volume, error) {
	mean, sd, err := localMeanSD(src, width, collab)
	if err != nil {
		return nil, err
	}
	out := src.Clone()
	data := out.Data.Data()
	for i := range data {
		if sd[i] == 0 || mean[i] <= 0 {
			data[i] = 0
			continue
		}
		data[i] = math.Log(mean[i] / sd[i])
	}
	return out, nil
}
