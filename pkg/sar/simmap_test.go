package sar

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yvonneFtMore/mol-frame/pkg/chem"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// stubClassifier scores a fingerprint by its bit count, so removing an
// atom's environments always lowers the probability.
type stubClassifier struct{}

func (stubClassifier) Fit(X [][]float64, y []int) error { return nil }

func (stubClassifier) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		s := 0.0
		for _, v := range row {
			s += v
		}
		out[i] = s / (s + 8)
	}
	return out
}

func (s stubClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range s.PredictProba(X) {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

func TestAtomWeights(t *testing.T) {
	mol, err := chem.ParseSmiles("CCO")
	require.NoError(t, err)

	weights, err := AtomWeights(mol, stubClassifier{})
	require.NoError(t, err)
	require.Len(t, weights, mol.NumAtoms())
	for i, w := range weights {
		assert.Greater(t, w, 0.0, "atom %d contributes bits", i)
	}

	_, err = AtomWeights(mol, nil)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestSimMapFigure(t *testing.T) {
	mol, err := chem.ParseSmiles("CCO")
	require.NoError(t, err)

	_, err = SimMapFigure(mol, []float64{0.1})
	assert.Error(t, err, "weight count must match atom count")

	fig, err := SimMapFigure(mol, []float64{0.4, -0.2, 0.9})
	require.NoError(t, err)
	require.NotNil(t, fig)

	b64, err := B64Figure(fig, 0)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, raw[:8])
}

func TestAddSimMaps(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn("Smiles", []string{"CCO", "CCN"}))

	result, err := AddSimMaps(f, stubClassifier{})
	require.NoError(t, err)
	require.True(t, result.HasColumn(ColMap))
	assert.False(t, f.HasColumn(ColMap), "input is untouched")
	for i := 0; i < result.Len(); i++ {
		assert.Contains(t, result.Cell(ColMap, i), `<img src="data:image/png;base64,`)
	}

	_, err = AddSimMaps(f, nil)
	assert.ErrorIs(t, err, ErrNoModel)
}
