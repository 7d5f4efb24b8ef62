package model

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// DecisionTreeClassifier is a CART-style classifier. It assumes numeric
// features; fingerprint bit vectors (0/1 cells) are the intended input,
// so splits compare against the midpoint between the two distinct values
// seen at a node.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth        int    // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int    // minimum samples to attempt a split
	MinSamplesLeaf  int    // minimum samples required in each leaf
	Criterion       string // "gini" (default) or "entropy"
	MaxFeatures     int    // 0 => all features, >0 => sampled per split
	RandomState     int64  // seed for feature subsampling

	// Fitted state. Exported for gob.
	Root    *TreeNode
	Classes []int // unique class labels in order of first appearance
}

// TreeNode holds one node of a fitted tree.
type TreeNode struct {
	IsLeaf    bool
	Feature   int
	Threshold float64 // x <= Threshold goes left
	Left      *TreeNode
	Right     *TreeNode

	// leaf data
	N         int
	Probas    []float64 // class distribution aligned with Classes
	PredIndex int       // majority class index
}

// Option is the functional config for DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		MaxFeatures:     0,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit trains the tree on X (n x p) and labels y.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
	}

	classMap := map[int]int{}
	t.Classes = nil
	for _, lab := range y {
		if _, ok := classMap[lab]; !ok {
			classMap[lab] = len(t.Classes)
			t.Classes = append(t.Classes, lab)
		}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, classMap, idx, 0, p, rnd)
	return nil
}

// FitIndices trains the tree on the given sample indices only; used by
// the forest for bootstrap samples without copying rows.
func (t *DecisionTreeClassifier) FitIndices(X [][]float64, y []int, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])

	classMap := map[int]int{}
	t.Classes = nil
	for _, lab := range y { // all labels, so trees in a forest agree on classes
		if _, ok := classMap[lab]; !ok {
			classMap[lab] = len(t.Classes)
			t.Classes = append(t.Classes, lab)
		}
	}

	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, classMap, append([]int(nil), idx...), 0, p, rnd)
	return nil
}

// Predict returns predicted class labels.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		probs := t.predictProbaSingle(X[i])
		maxIdx := 0
		for j := 1; j < len(probs); j++ {
			if probs[j] > probs[maxIdx] {
				maxIdx = j
			}
		}
		out[i] = t.Classes[maxIdx]
	}
	return out
}

// PredictProba returns p(class=1) per row. Rows of a binary problem sum
// to 1; when the tree never saw class 1 the probability is 0.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	pos := t.classIndex(1)
	for i := range X {
		probs := t.predictProbaSingle(X[i])
		if pos >= 0 && pos < len(probs) {
			out[i] = probs[pos]
		}
	}
	return out
}

// PredictProbaFull returns the per-class probability vectors aligned
// with Classes.
func (t *DecisionTreeClassifier) PredictProbaFull(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.predictProbaSingle(X[i])
	}
	return out
}

func (t *DecisionTreeClassifier) classIndex(label int) int {
	for i, c := range t.Classes {
		if c == label {
			return i
		}
	}
	return -1
}

func (t *DecisionTreeClassifier) buildNode(X [][]float64, y []int, classMap map[int]int, idx []int, depth, p int, rnd *rand.Rand) *TreeNode {
	node := &TreeNode{N: len(idx)}
	nClasses := len(t.Classes)

	counts := make([]int, nClasses)
	for _, ii := range idx {
		counts[classMap[y[ii]]]++
	}
	makeLeaf := func() *TreeNode {
		node.IsLeaf = true
		node.Probas = countsToProbas(counts)
		node.PredIndex = argmax(counts)
		return node
	}
	if isPure(counts) || len(idx) < t.MinSamplesSplit {
		return makeLeaf()
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return makeLeaf()
	}

	featIndices := make([]int, p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) {
			featIndices[a], featIndices[b] = featIndices[b], featIndices[a]
		})
		featIndices = featIndices[:t.MaxFeatures]
	}

	parent := t.impurity(counts)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	for _, f := range featIndices {
		gain, thr, left, right := t.bestSplitForFeature(X, y, classMap, idx, f, parent)
		if gain > bestGain {
			bestGain, bestFeature, bestThreshold = gain, f, thr
			bestLeft, bestRight = left, right
		}
	}
	if bestFeature < 0 {
		return makeLeaf()
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Left = t.buildNode(X, y, classMap, bestLeft, depth+1, p, rnd)
	node.Right = t.buildNode(X, y, classMap, bestRight, depth+1, p, rnd)
	return node
}

// bestSplitForFeature scans the sorted distinct values of feature f and
// returns the best midpoint threshold. For fingerprint bits this reduces
// to the single 0/1 split.
func (t *DecisionTreeClassifier) bestSplitForFeature(X [][]float64, y []int, classMap map[int]int, idx []int, f int, parent float64) (gain, threshold float64, left, right []int) {
	vals := map[float64]struct{}{}
	for _, ii := range idx {
		vals[X[ii][f]] = struct{}{}
	}
	if len(vals) < 2 {
		return 0, 0, nil, nil
	}
	distinct := make([]float64, 0, len(vals))
	for v := range vals {
		distinct = append(distinct, v)
	}
	sort.Float64s(distinct)

	nClasses := len(t.Classes)
	total := float64(len(idx))
	for s := 1; s < len(distinct); s++ {
		thr := (distinct[s-1] + distinct[s]) / 2
		var l, r []int
		lc := make([]int, nClasses)
		rc := make([]int, nClasses)
		for _, ii := range idx {
			if X[ii][f] <= thr {
				l = append(l, ii)
				lc[classMap[y[ii]]]++
			} else {
				r = append(r, ii)
				rc[classMap[y[ii]]]++
			}
		}
		if len(l) < t.MinSamplesLeaf || len(r) < t.MinSamplesLeaf {
			continue
		}
		weighted := float64(len(l))/total*t.impurity(lc) + float64(len(r))/total*t.impurity(rc)
		if g := parent - weighted; g > gain {
			gain, threshold, left, right = g, thr, l, r
		}
	}
	return gain, threshold, left, right
}

func (t *DecisionTreeClassifier) impurity(counts []int) float64 {
	if t.Criterion == "entropy" {
		return entropyFromCounts(counts)
	}
	return giniFromCounts(counts)
}

func (t *DecisionTreeClassifier) predictProbaSingle(x []float64) []float64 {
	if t.Root == nil {
		p := make([]float64, len(t.Classes))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return p
	}
	node := t.Root
	for !node.IsLeaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Probas
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
