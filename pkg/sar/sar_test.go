package sar

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// trainingFrame is a small separable set: actives carry an oxygen,
// inactives are plain alkanes.
func trainingFrame(t *testing.T) *molframe.MolFrame {
	t.Helper()
	f := molframe.New()
	require.NoError(t, f.SetColumn("Compound_Id", []string{"1", "2", "3", "4", "5", "6"}))
	require.NoError(t, f.SetColumn("Smiles", []string{"CCO", "CCCO", "CO", "CC", "CCC", "CCCC"}))
	require.NoError(t, f.SetColumn(ColActReal, []string{"1", "1", "1", "0", "0", "0"}))
	return f
}

// quickOpts keeps the forest small and deterministic for tests. With
// bootstrap off and all features in play every tree separates the
// training set perfectly.
func quickOpts() TrainOptions {
	return TrainOptions{
		NEstimators: 9,
		RandomState: 1,
		Extra: []model.ForestOption{
			model.WithBootstrap(false),
			model.WithForestMaxFeatures(-1),
		},
	}
}

func TestConfidenceTier(t *testing.T) {
	cases := []struct {
		proba float64
		want  string
	}{
		{0.00, ConfidenceHigh},
		{0.19, ConfidenceHigh},
		{0.20, ConfidenceMedium}, // boundary falls to the weaker tier
		{0.39, ConfidenceMedium},
		{0.40, ConfidenceLow},
		{0.50, ConfidenceLow},
		{0.60, ConfidenceLow},
		{0.61, ConfidenceMedium},
		{0.80, ConfidenceMedium},
		{0.81, ConfidenceHigh},
		{1.00, ConfidenceHigh},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ConfidenceTier(c.proba, DefaultThreshold), "proba %.2f", c.proba)
	}
	// tiers scale with the threshold
	assert.Equal(t, ConfidenceHigh, ConfidenceTier(0.10, 0.3))
	assert.Equal(t, ConfidenceMedium, ConfidenceTier(0.20, 0.3))
	assert.Equal(t, ConfidenceLow, ConfidenceTier(0.30, 0.3))
	assert.Equal(t, ConfidenceHigh, ConfidenceTier(0.49, 0.3))
}

func TestTrainPredict(t *testing.T) {
	f := trainingFrame(t)
	clf, err := Train(f, quickOpts())
	require.NoError(t, err)
	require.NotNil(t, clf)

	result, err := Predict(f, clf, DefaultThreshold)
	require.NoError(t, err)
	for _, col := range []string{ColActPred, ColProb, ColConfidence} {
		assert.True(t, result.HasColumn(col), col)
	}
	// input is untouched
	assert.False(t, f.HasColumn(ColActPred))

	for i := 0; i < result.Len(); i++ {
		rec := result.Row(i)
		assert.Equal(t, rec.Get(ColActReal), rec.Get(ColActPred), "row %d", i)
		assert.Regexp(t, `^\d\.\d\d$`, rec.Get(ColProb), "row %d", i)
		assert.Equal(t, ConfidenceHigh, rec.Get(ColConfidence), "row %d", i)
	}
}

func TestTrainErrors(t *testing.T) {
	_, err := Train(molframe.New(), TrainOptions{})
	assert.Error(t, err)

	f := trainingFrame(t)
	_, err = Train(f, TrainOptions{ActClass: "Missing"})
	assert.Error(t, err)

	require.NoError(t, f.SetCell("Smiles", 1, "not-a-structure"))
	_, err = Train(f, quickOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestTrainWithValidation(t *testing.T) {
	opts := quickOpts()
	opts.ValidationFraction = 0.34
	clf, err := Train(trainingFrame(t), opts)
	require.NoError(t, err)
	require.NotNil(t, clf)

	opts.ValidationFraction = 0.999
	_, err = Train(trainingFrame(t), opts)
	assert.NoError(t, err, "clamping keeps at least one training row per class")
}

func TestPredictWithoutModel(t *testing.T) {
	_, err := Predict(trainingFrame(t), nil, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoModel)
}

// accuracyFrame builds the confusion counts tp=8 fp=2 tn=7 fn=3 plus two
// rows without a prediction, which must be ignored.
func accuracyFrame(t *testing.T) *molframe.MolFrame {
	t.Helper()
	var act, pred []string
	add := func(a, p string, n int) {
		for i := 0; i < n; i++ {
			act = append(act, a)
			pred = append(pred, p)
		}
	}
	add("1", "1", 8)
	add("0", "1", 2)
	add("0", "0", 7)
	add("1", "0", 3)
	add("1", "", 2)

	f := molframe.New()
	require.NoError(t, f.SetColumn(ColActReal, act))
	require.NoError(t, f.SetColumn(ColActPred, pred))
	return f
}

func TestComputeAccuracy(t *testing.T) {
	acc, err := ComputeAccuracy(accuracyFrame(t))
	require.NoError(t, err)

	assert.Equal(t, 20, acc.Num)
	assert.Equal(t, 8, acc.TP)
	assert.Equal(t, 2, acc.FP)
	assert.Equal(t, 7, acc.TN)
	assert.Equal(t, 3, acc.FN)
	assert.InDelta(t, 0.75, acc.Overall, 1e-9)
	assert.InDelta(t, 0.8, acc.Active, 1e-9)
	assert.InDelta(t, 0.7, acc.Inactive, 1e-9)
	// cross-check kappa against the closed form
	n := 20.0
	pe := ((8.0+2)*(8+3) + (7.0+3)*(7+2)) / (n * n)
	assert.InDelta(t, (0.75-pe)/(1-pe), acc.Kappa, 1e-9)
	assert.InDelta(t, 0.5, acc.Kappa, 1e-9)
}

func TestComputeAccuracyNoPredictions(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn(ColActReal, []string{"1", "0"}))
	_, err := ComputeAccuracy(f)
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestComputeAccuracyBadLabel(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn(ColActReal, []string{"maybe"}))
	require.NoError(t, f.SetColumn(ColActPred, []string{"1"}))
	_, err := ComputeAccuracy(f)
	assert.Error(t, err)
}

func TestConfMatrix(t *testing.T) {
	acc, err := ComputeAccuracy(accuracyFrame(t))
	require.NoError(t, err)

	abs := acc.ConfMatrix(false)
	assert.Contains(t, abs, "Pred. Active")
	assert.Contains(t, abs, "Real Inactive")
	assert.Contains(t, abs, fmt.Sprintf("%14d", 8))
	assert.Contains(t, abs, fmt.Sprintf("%14d", 20))

	rel := acc.ConfMatrix(true)
	assert.Contains(t, rel, fmt.Sprintf("%14.1f", 40.0))  // tp
	assert.Contains(t, rel, fmt.Sprintf("%14.1f", 100.0)) // grand total
}

func TestAnalyze(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn(ColActReal, []string{"1", "1", "0", "0"}))
	require.NoError(t, f.SetColumn(ColActPred, []string{"1", "0", "0", ""}))
	hits, totals := Analyze(f, "", "")
	assert.Equal(t, map[string]int{"1": 2, "0": 1}, totals)
	assert.Equal(t, map[string]int{"1": 1, "0": 1}, hits)
}

func TestSessionAnalyzeColumns(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn("Truth", []string{"1", "0", "0"}))
	require.NoError(t, f.SetColumn("Guess", []string{"1", "1", "0"}))

	s := New(f)
	hits, totals := s.Analyze("Truth", "Guess")
	assert.Equal(t, map[string]int{"1": 1, "0": 2}, totals)
	assert.Equal(t, map[string]int{"1": 1, "0": 1}, hits)

	// empty names fall back to the default columns, which are absent here
	_, totals = s.Analyze("", "")
	assert.Empty(t, totals)
}

func TestProbSummary(t *testing.T) {
	f := molframe.New()
	require.NoError(t, f.SetColumn(ColActPred, []string{"1", "1", "0", "0"}))
	require.NoError(t, f.SetColumn(ColProb, []string{"0.90", "0.70", "0.10", "0.30"}))

	groups, err := ProbSummary(f)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, 0.9}, groups["1"])
	assert.Equal(t, []float64{0.1, 0.3}, groups["0"])

	_, err = ProbSummary(molframe.New())
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestSessionTrainPredictAccuracy(t *testing.T) {
	s := New(trainingFrame(t))
	require.NoError(t, s.Train(quickOpts()))

	predicted, err := s.Predict(DefaultThreshold)
	require.NoError(t, err)
	assert.False(t, s.Molf.HasColumn(ColActPred), "session frame stays clean")

	acc, err := predicted.Accuracy()
	require.NoError(t, err)
	assert.Equal(t, 6, acc.Num)
	assert.InDelta(t, 1.0, acc.Overall, 1e-9)
	assert.InDelta(t, 1.0, acc.Kappa, 1e-9)
}

func TestSessionPredictWithoutModel(t *testing.T) {
	s := New(trainingFrame(t))
	_, err := s.Predict(DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoModel)
	_, err = s.AddSimMaps()
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestSessionOwnsCopy(t *testing.T) {
	f := trainingFrame(t)
	s := New(f)
	require.NoError(t, s.Molf.SetCell("Smiles", 0, "changed"))
	assert.Equal(t, "CCO", f.Cell("Smiles", 0))
}

func TestSessionSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sar")
	s := New(trainingFrame(t))
	require.NoError(t, s.Train(quickOpts()))
	require.NoError(t, s.SaveModel(path))
	assert.FileExists(t, path+model.ModelExt)

	fresh := New(trainingFrame(t))
	require.NoError(t, fresh.LoadModel(path, false))
	require.NotNil(t, fresh.Model)

	want, err := s.Predict(DefaultThreshold)
	require.NoError(t, err)
	got, err := fresh.Predict(DefaultThreshold)
	require.NoError(t, err)
	wantProbs, _ := want.Molf.Column(ColProb)
	gotProbs, _ := got.Molf.Column(ColProb)
	assert.Equal(t, wantProbs, gotProbs)
}

func TestSessionLoadModelKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sar")
	s := New(trainingFrame(t))
	require.NoError(t, s.Train(quickOpts()))
	require.NoError(t, s.SaveModel(path))

	existing := s.Model
	require.NoError(t, s.LoadModel(path, false))
	assert.Same(t, existing, s.Model, "without force the model stays")

	require.NoError(t, s.LoadModel(path, true))
	assert.NotSame(t, existing, s.Model)
}

func TestSessionSaveModelWithoutModel(t *testing.T) {
	s := New(trainingFrame(t))
	assert.NoError(t, s.SaveModel(filepath.Join(t.TempDir(), "none")))
}

const ethanolSDF = `ethanol


  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.8660    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
>  <AC_Real>
1

$$$$
`

func TestReadSDFMissingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mols.sdf")
	require.NoError(t, os.WriteFile(path, []byte(ethanolSDF), 0o644))

	s, err := ReadSDF(path, filepath.Join(dir, "no-such-model"))
	require.NoError(t, err, "a missing model file is only a warning here")
	assert.Nil(t, s.Model)
	assert.Equal(t, 1, s.Molf.Len())
	assert.Equal(t, "1", s.Molf.Cell(ColActReal, 0))
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mols.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Smiles\tAC_Real\nCCO\t1\n"), 0o644))
	s, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Molf.Len())

	_, err = ReadCSV(filepath.Join(dir, "missing.tsv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
