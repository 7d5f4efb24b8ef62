package sar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// ErrNoPredictions is returned when no row carries both a real and a
// predicted activity class.
var ErrNoPredictions = errors.New("sar: no rows with both real and predicted class")

// Accuracy summarizes prediction quality. Immutable once computed.
// Kappa follows the chance-corrected agreement calculation from
// P. Czodrowski, J Comput Aided Mol Des 28, 1049-1055 (2014).
type Accuracy struct {
	Num      int
	TP       int
	FP       int
	TN       int
	FN       int
	Overall  float64
	Active   float64
	Inactive float64
	Kappa    float64
}

// ComputeAccuracy restricts molf to the rows where both the real and the
// predicted class are present and computes the confusion counts, rates
// and kappa. Returns ErrNoPredictions when no such row exists.
func ComputeAccuracy(molf *molframe.MolFrame) (Accuracy, error) {
	rows := lo.Filter(lo.Range(molf.Len()), func(i int, _ int) bool {
		rec := molf.Row(i)
		return rec.Has(ColActReal) && rec.Has(ColActPred)
	})
	if len(rows) == 0 {
		return Accuracy{}, ErrNoPredictions
	}

	var tp, fp, tn, fn int
	for _, i := range rows {
		rec := molf.Row(i)
		act, err := rec.Int(ColActReal)
		if err != nil {
			return Accuracy{}, errors.Wrap(err, "sar: accuracy")
		}
		pred, err := rec.Int(ColActPred)
		if err != nil {
			return Accuracy{}, errors.Wrap(err, "sar: accuracy")
		}
		switch {
		case act == 1 && pred == 1:
			tp++
		case act == 0 && pred == 0:
			tn++
		case act == 0 && pred == 1:
			fp++
		case act == 1 && pred == 0:
			fn++
		}
	}
	num := tp + fp + tn + fn
	if num == 0 {
		return Accuracy{}, ErrNoPredictions
	}

	n := float64(num)
	acc := float64(tp+tn) / n

	// expected agreement under label-marginal independence:
	// [(tp+fp)(tp+fn) + (tn+fn)(tn+fp)] / n²
	predMarginals := mat.NewVecDense(2, []float64{float64(tp + fp), float64(tn + fn)})
	realMarginals := mat.NewVecDense(2, []float64{float64(tp + fn), float64(tn + fp)})
	baseline := mat.Dot(predMarginals, realMarginals) / (n * n)

	kappa := 0.0
	if baseline != 1 {
		kappa = (acc - baseline) / (1 - baseline)
	}

	result := Accuracy{
		Num:     num,
		TP:      tp,
		FP:      fp,
		TN:      tn,
		FN:      fn,
		Overall: acc,
		Kappa:   kappa,
	}
	if tp+fp > 0 {
		result.Active = float64(tp) / float64(tp+fp)
	}
	if tn+fn > 0 {
		result.Inactive = float64(tn) / float64(tn+fn)
	}
	return result, nil
}

// ConfMatrix renders the confusion matrix as a plain-text table:
// predicted classes as rows, real classes as columns, with subtotals.
// relative switches from absolute counts to percentages of Num.
func (a Accuracy) ConfMatrix(relative bool) string {
	cell := func(v int) string {
		if relative {
			return fmt.Sprintf("%14.1f", 100*float64(v)/float64(a.Num))
		}
		return fmt.Sprintf("%14d", v)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s%14s%14s%14s\n", "", "Real Active", "Real Inactive", "Sub Total"))
	sb.WriteString(fmt.Sprintf("%-16s%s%s%s\n", "Pred. Active", cell(a.TP), cell(a.FP), cell(a.TP+a.FP)))
	sb.WriteString(fmt.Sprintf("%-16s%s%s%s\n", "Pred. Inactive", cell(a.FN), cell(a.TN), cell(a.FN+a.TN)))
	sb.WriteString(fmt.Sprintf("%-16s%s%s%s\n", "Sub Total", cell(a.TP+a.FN), cell(a.FP+a.TN), cell(a.Num)))
	return sb.String()
}

func (a Accuracy) String() string {
	return fmt.Sprintf("Accuracy{n=%d overall=%.3f active=%.3f inactive=%.3f kappa=%.3f}",
		a.Num, a.Overall, a.Active, a.Inactive, a.Kappa)
}

// Analyze counts correct predictions per activity class and logs the
// ratios. Returns hit and total counts per class label.
func Analyze(molf *molframe.MolFrame, actCol, predCol string) (hits, totals map[string]int) {
	if actCol == "" {
		actCol = ColActReal
	}
	if predCol == "" {
		predCol = ColActPred
	}
	hits = map[string]int{}
	totals = map[string]int{}
	for i := 0; i < molf.Len(); i++ {
		rec := molf.Row(i)
		if !rec.Has(actCol) || !rec.Has(predCol) {
			continue
		}
		cls := rec.Get(actCol)
		totals[cls]++
		if cls == rec.Get(predCol) {
			hits[cls]++
		}
	}
	sumTotals := lo.Sum(lo.Values(totals))
	if sumTotals == 0 {
		logger.Infof("No molecules found with both %s and %s.", actCol, predCol)
		return hits, totals
	}
	sumHits := lo.Sum(lo.Values(hits))
	logger.Infof("Number of correctly predicted molecules: %d / %d    (%.2f%%)",
		sumHits, sumTotals, 100*float64(sumHits)/float64(sumTotals))
	logger.Info("Correctly predicted molecules per Activity Class:")
	classes := lo.Keys(totals)
	sort.Strings(classes)
	for _, cls := range classes {
		logger.Infof("  %s:  %.2f", cls, 100*float64(hits[cls])/float64(totals[cls]))
	}
	return hits, totals
}

// ProbSummary groups the predicted probabilities by predicted class,
// logs mean, spread and median per class and returns the groups. Fails
// with ErrNoPredictions when the frame carries no probabilities.
func ProbSummary(molf *molframe.MolFrame) (map[string][]float64, error) {
	groups := map[string][]float64{}
	for i := 0; i < molf.Len(); i++ {
		rec := molf.Row(i)
		if !rec.Has(ColProb) || !rec.Has(ColActPred) {
			continue
		}
		p, err := rec.Float(ColProb)
		if err != nil {
			return nil, errors.Wrap(err, "sar: prob summary")
		}
		groups[rec.Get(ColActPred)] = append(groups[rec.Get(ColActPred)], p)
	}
	if len(groups) == 0 {
		return nil, ErrNoPredictions
	}
	classes := lo.Keys(groups)
	sort.Strings(classes)
	logger.Info("Predicted probability per predicted class:")
	for _, cls := range classes {
		ps := groups[cls]
		sort.Float64s(ps)
		logger.Infof("  %s:  n=%d  mean=%.3f  std=%.3f  median=%.3f",
			cls, len(ps), stat.Mean(ps, nil), stat.StdDev(ps, nil),
			stat.Quantile(0.5, stat.Empirical, ps, nil))
	}
	return groups, nil
}
