package inverse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestV3RoundTripPreservesScalarApplyResult(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 1, 0,
	})
	doc, err := New(3, 2, true, []Regularization{{Name: "reg0", Value: 0.1}}, []*mat.Dense{m})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteV3(&buf, doc))

	got, err := ReadV3(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.NumElectrodes, got.NumElectrodes)
	assert.Equal(t, doc.NumSolutionPoints, got.NumSolutionPoints)
	assert.Equal(t, doc.IsScalar, got.IsScalar)
	require.Len(t, got.Regularizations, 1)
	assert.Equal(t, "reg0", got.Regularizations[0].Name)
	assert.InDelta(t, 0.1, got.Regularizations[0].Value, 1e-12)

	eegMap := []float64{1, 2, 3}
	want, err := doc.Apply(0, eegMap, false)
	require.NoError(t, err)
	result, err := got.Apply(0, eegMap, false)
	require.NoError(t, err)
	require.Len(t, result, len(want))
	for i := range want {
		assert.InDelta(t, want[i], result[i], 1e-6, "solution point %d", i)
	}
}

func TestV3RoundTripPreservesVectorialShapeAndMultipleRegularizations(t *testing.T) {
	m0 := mat.NewDense(6, 3, make([]float64, 18))
	m1 := mat.NewDense(6, 3, make([]float64, 18))
	for i := 0; i < 6; i++ {
		m0.Set(i, i%3, 1)
		m1.Set(i, i%3, 2)
	}
	doc, err := New(3, 2, false, []Regularization{
		{Name: "low", Value: 0.01},
		{Name: "high", Value: 1.0},
	}, []*mat.Dense{m0, m1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteV3(&buf, doc))

	got, err := ReadV3(&buf)
	require.NoError(t, err)
	assert.False(t, got.IsScalar)
	require.Len(t, got.Regularizations, 2)
	assert.Equal(t, "high", got.Regularizations[1].Name)

	eegMap := []float64{1, 1, 1}
	result, err := got.Apply(1, eegMap, true)
	require.NoError(t, err)
	assert.Len(t, result, 6)
}

func TestReadV3RejectsInconsistentHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0})
	_, err := ReadV3(buf)
	assert.Error(t, err)
}

func TestReadV3RejectsTruncatedStream(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	doc, err := New(2, 2, true, []Regularization{{Name: "r", Value: 0.1}}, []*mat.Dense{m})
	require.NoError(t, err)

	var full bytes.Buffer
	require.NoError(t, WriteV3(&full, doc))
	truncated := bytes.NewReader(full.Bytes()[:full.Len()-4])
	_, err = ReadV3(truncated)
	assert.Error(t, err)
}
