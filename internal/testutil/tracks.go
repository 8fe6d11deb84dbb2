// Package testutil provides shared test fixtures: synthetic EEG track
// generators, used across pkg/ test suites.
package testutil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/esicore/esicore/pkg/maps"
)

// RandomTrack fills a scalar Maps of the given shape with independent
// uniform samples in [lo, hi] — the synthetic white-noise fixture used
// to exercise reference/normalization/z-score paths without needing a
// real recording.
func RandomTrack(numFrames, numChannels int, lo, hi float64, rng *rand.Rand) (*maps.Maps, error) {
	m, err := maps.New(numFrames, numChannels, maps.Scalar, 256)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Data.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Data.Set(r, c, lo+rng.Float64()*(hi-lo))
		}
	}
	return m, nil
}

// Dipole is one oscillating point source: a fixed 3-D direction and
// sinusoidal power envelope, located at a solution point index.
type Dipole struct {
	SolutionPointIndex int
	Direction          [3]float64
	PowerAmplitude     float64
	FrequencyHz        float64
	PhaseRad           float64
}

// OscillatingTracks runs a set of sinusoidal dipoles through a forward
// (lead-field) matrix to produce paired source and EEG maps: sourceMaps
// is vectorial (3 values per solution point), eegMaps is the forward
// projection through forward (numElectrodes x 3*numSolutionPoints).
func OscillatingTracks(forward *mat.Dense, dipoles []Dipole, numFrames int, samplingFreqHz float64) (eegMaps, sourceMaps *maps.Maps, err error) {
	numElectrodes, numSolPoints3 := forward.Dims()
	numSolPoints := numSolPoints3 / 3

	sourceMaps, err = maps.New(numFrames, numSolPoints, maps.Vectorial, samplingFreqHz)
	if err != nil {
		return nil, nil, err
	}
	eegMaps, err = maps.New(numFrames, numElectrodes, maps.Scalar, samplingFreqHz)
	if err != nil {
		return nil, nil, err
	}

	sourceVec := mat.NewVecDense(numSolPoints3, nil)
	eegVec := mat.NewVecDense(numElectrodes, nil)

	for frame := 0; frame < numFrames; frame++ {
		timeSec := float64(frame) / samplingFreqHz
		for c := 0; c < numSolPoints3; c++ {
			sourceVec.SetVec(c, 0)
		}
		for _, d := range dipoles {
			power := d.PowerAmplitude * math.Sin(timeSec*d.FrequencyHz*2*math.Pi+d.PhaseRad)
			base := 3 * d.SolutionPointIndex
			sourceVec.SetVec(base, sourceVec.AtVec(base)+d.Direction[0]*power)
			sourceVec.SetVec(base+1, sourceVec.AtVec(base+1)+d.Direction[1]*power)
			sourceVec.SetVec(base+2, sourceVec.AtVec(base+2)+d.Direction[2]*power)
		}
		eegVec.MulVec(forward, sourceVec)

		for c := 0; c < numSolPoints3; c++ {
			sourceMaps.Data.Set(frame, c, sourceVec.AtVec(c))
		}
		for c := 0; c < numElectrodes; c++ {
			eegMaps.Data.Set(frame, c, eegVec.AtVec(c))
		}
	}
	return eegMaps, sourceMaps, nil
}
