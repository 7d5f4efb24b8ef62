package model

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RandomForest bags DecisionTreeClassifiers over bootstrap samples. The
// predicted probability is the mean of the per-tree leaf distributions.
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 => sqrt(p), -1 => all features
	Bootstrap       bool
	RandomState     int64

	// Fitted state. Exported for gob.
	Trees []*DecisionTreeClassifier
}

// ForestOption is the functional config for RandomForest.
type ForestOption func(*RandomForest)

func WithNEstimators(n int) ForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) ForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestMaxDepth(d int) ForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForest) { rf.MinSamplesSplit = n }
}
func WithForestMaxFeatures(k int) ForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithForestRandomState(seed int64) ForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...ForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the random forest. Trees are fitted concurrently; each gets
// a seed derived from RandomState so the fit is reproducible.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return errors.New("randomforest: NEstimators must be positive")
	}

	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Sqrt(float64(len(X[0]))))
	} else if maxFeatures < 0 {
		maxFeatures = 0 // all features
	}

	rf.Trees = make([]*DecisionTreeClassifier, rf.NEstimators)
	var g errgroup.Group
	for i := 0; i < rf.NEstimators; i++ {
		i := i
		g.Go(func() error {
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			idx := make([]int, n)
			for j := range idx {
				if rf.Bootstrap {
					idx[j] = treeRand.Intn(n)
				} else {
					idx[j] = j
				}
			}
			tree := NewDecisionTreeClassifier(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMaxFeatures(maxFeatures),
				WithRandomState(seed),
			)
			if err := tree.FitIndices(X, y, idx); err != nil {
				return errors.Wrapf(err, "randomforest: tree %d", i)
			}
			rf.Trees[i] = tree
			return nil
		})
	}
	return g.Wait()
}

// PredictProba returns the mean p(class=1) across trees per row.
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return out
	}
	for _, tree := range rf.Trees {
		for i, p := range tree.PredictProba(X) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out
}

// Predict returns 1 where the averaged probability exceeds one half.
func (rf *RandomForest) Predict(X [][]float64) []int {
	return BinaryPredFromProba(rf.PredictProba(X), 0.5)
}
