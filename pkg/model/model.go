// Package model provides the binary classifier the SAR workflow fits
// over fingerprint features: a CART decision tree, a bagged random
// forest on top of it, and gob-based persistence of the opaque model.
package model

// Classifier is the capability set the SAR workflow depends on. Any
// implementation can be substituted without touching the workflow.
type Classifier interface {
	// Fit trains on feature rows X and class labels y (0/1 for the SAR
	// use case, arbitrary ints in general).
	Fit(X [][]float64, y []int) error
	// PredictProba returns p(class=1) per row.
	PredictProba(X [][]float64) []float64
	// Predict returns the majority-class label per row.
	Predict(X [][]float64) []int
}
