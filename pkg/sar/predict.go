package sar

import (
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// DefaultThreshold is the classification threshold of the workflow.
const DefaultThreshold = 0.5

// Confidence tiers derived from the predicted probability.
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// ErrNoModel is returned when an operation that needs a trained model is
// called before Train.
var ErrNoModel = errors.New("sar: no suitable model found, run Train first")

// ConfidenceTier maps a predicted probability and threshold to a tier.
// The comparisons are strict: a probability sitting exactly on a tier
// boundary belongs to the less confident tier.
func ConfidenceTier(proba, threshold float64) string {
	switch {
	case proba < 0.4*threshold || proba > 1.6*threshold:
		return ConfidenceHigh
	case proba < 0.8*threshold || proba > 1.2*threshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Predict applies the classifier to every row of molf and returns a new
// frame with AC_Pred, Prob and Confidence columns added. The input frame
// is never modified. Probabilities are rounded to two decimals before
// thresholding, matching the interactive workflow.
func Predict(molf *molframe.MolFrame, clf model.Classifier, threshold float64) (*molframe.MolFrame, error) {
	if clf == nil {
		return nil, ErrNoModel
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	X, err := fingerprintRows(molf)
	if err != nil {
		return nil, err
	}
	probas := clf.PredictProba(X)

	result := molf.Copy()
	preds := make([]string, len(probas))
	probs := make([]string, len(probas))
	tiers := make([]string, len(probas))
	for i, p := range probas {
		p = math.Round(p*100) / 100
		label := 0
		if p > threshold {
			label = 1
		}
		preds[i] = strconv.Itoa(label)
		probs[i] = strconv.FormatFloat(p, 'f', 2, 64)
		tiers[i] = ConfidenceTier(p, threshold)
	}
	if err := result.SetColumn(ColActPred, preds); err != nil {
		return nil, errors.Wrap(err, "sar: predict")
	}
	if err := result.SetColumn(ColProb, probs); err != nil {
		return nil, errors.Wrap(err, "sar: predict")
	}
	if err := result.SetColumn(ColConfidence, tiers); err != nil {
		return nil, errors.Wrap(err, "sar: predict")
	}
	return result, nil
}
