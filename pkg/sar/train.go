// Package sar implements the structure-activity-relationship workflow:
// fit a random-forest classifier over Morgan fingerprints of a molecule
// table, predict activity with confidence tiers, compute confusion and
// kappa statistics and render similarity maps and colorized result
// grids.
package sar

import (
	"github.com/pkg/errors"

	"github.com/yvonneFtMore/mol-frame/pkg/chem"
	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// Column names the workflow reads and writes.
const (
	ColActReal    = "AC_Real"
	ColActPred    = "AC_Pred"
	ColProb       = "Prob"
	ColConfidence = "Confidence"
	ColMap        = "Map"
)

// Fingerprint parameters used throughout the workflow.
const (
	FingerprintRadius = 2
	FingerprintBits   = chem.DefaultNumBits
)

// TrainOptions configures Train. Zero values fall back to the defaults
// of the interactive workflow.
type TrainOptions struct {
	ActClass     string // activity column, default AC_Real
	NEstimators  int    // default 500
	RandomState  int64  // default 1123
	ShowProgress bool
	// ValidationFraction, when positive, holds out that fraction of the
	// rows (stratified by label), reports the held-out metrics, and then
	// fits the final model on all rows.
	ValidationFraction float64
	// Extra passes additional options through to the forest.
	Extra []model.ForestOption
}

func (o *TrainOptions) setDefaults() {
	if o.ActClass == "" {
		o.ActClass = ColActReal
	}
	if o.NEstimators == 0 {
		o.NEstimators = 500
	}
	if o.RandomState == 0 {
		o.RandomState = 1123
	}
}

// fingerprintRows parses every structure of the frame and converts the
// fingerprints to numeric feature rows. A row that cannot be parsed
// fails the whole batch with its index and value.
func fingerprintRows(molf *molframe.MolFrame) ([][]float64, error) {
	parse, err := molf.MolMethod()
	if err != nil {
		return nil, err
	}
	if molf.Len() == 0 {
		return nil, errors.New("sar: no rows to fingerprint")
	}
	X := make([][]float64, 0, molf.Len())
	for i := 0; i < molf.Len(); i++ {
		value := molf.Cell(molf.UseCol, i)
		mol, err := parse(value)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d: unparseable structure %q", i, value)
		}
		fp, err := chem.MorganFingerprint(mol, FingerprintRadius, FingerprintBits)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d", i)
		}
		X = append(X, fp.ToFloat64s())
	}
	return X, nil
}

// Train fits a random forest against the activity labels of molf and
// returns the model. The frame itself is not modified.
func Train(molf *molframe.MolFrame, opts TrainOptions) (model.Classifier, error) {
	opts.setDefaults()
	if molf == nil || molf.Len() == 0 {
		return nil, errors.New("sar: train: empty molecule table")
	}
	if !molf.HasColumn(opts.ActClass) {
		return nil, errors.Errorf("sar: train: no activity column %q", opts.ActClass)
	}

	if opts.ShowProgress {
		logger.Info("  [TRAIN] calculating fingerprints")
	}
	X, err := fingerprintRows(molf)
	if err != nil {
		return nil, err
	}

	y := make([]int, molf.Len())
	for i := range y {
		label, err := molf.Row(i).Int(opts.ActClass)
		if err != nil {
			return nil, errors.Wrap(err, "sar: train: activity label")
		}
		y[i] = label
	}

	forestOpts := append([]model.ForestOption{
		model.WithNEstimators(opts.NEstimators),
		model.WithForestRandomState(opts.RandomState),
	}, opts.Extra...)

	if opts.ValidationFraction > 0 {
		if err := validate(X, y, opts, forestOpts); err != nil {
			return nil, err
		}
	}

	if opts.ShowProgress {
		logger.Infof("  [TRAIN] training RandomForest (%d estimators)", opts.NEstimators)
	}
	rf := model.NewRandomForest(forestOpts...)
	if err := rf.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "sar: train")
	}
	if opts.ShowProgress {
		logger.Info("  [TRAIN] done.")
	}
	return rf, nil
}

// validate fits a throwaway forest on a stratified subset and logs the
// held-out metrics. The final model is still trained on all rows.
func validate(X [][]float64, y []int, opts TrainOptions, forestOpts []model.ForestOption) error {
	trainIdx, testIdx := model.TrainTestSplit(y, opts.ValidationFraction, opts.RandomState)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return errors.Errorf("sar: train: validation fraction %.2f leaves no rows to fit or test",
			opts.ValidationFraction)
	}
	pick := func(idx []int) ([][]float64, []int) {
		xs := make([][]float64, len(idx))
		ys := make([]int, len(idx))
		for i, row := range idx {
			xs[i] = X[row]
			ys[i] = y[row]
		}
		return xs, ys
	}
	xTrain, yTrain := pick(trainIdx)
	xTest, yTest := pick(testIdx)

	rf := model.NewRandomForest(forestOpts...)
	if err := rf.Fit(xTrain, yTrain); err != nil {
		return errors.Wrap(err, "sar: train: validation fit")
	}
	preds := rf.Predict(xTest)
	acc := model.AccuracyInt(yTest, preds)
	prec, rec, f1 := model.PrecisionRecallF1(yTest, preds)
	logger.Infof("  [TRAIN] held-out %d rows: acc %.3f  prec %.3f  rec %.3f  f1 %.3f",
		len(testIdx), acc, prec, rec, f1)
	return nil
}
