package main

import (
	"fmt"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"

	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
	"github.com/yvonneFtMore/mol-frame/pkg/sar"
)

var (
	inFile    string
	outFile   string
	modelFile string
	actClass  string
	predClass string
	nEst      int
	seed      int64
	threshold float64
	validate  float64
	highlight bool
	relative  bool
	simMaps   bool
)

// loadSession reads a .sdf table or a delimited text table, chosen by
// the file extension.
func loadSession(path string) (*sar.Session, error) {
	if path == "" {
		return nil, errors.New("missing -in file")
	}
	if strings.HasSuffix(path, ".sdf") {
		molf, err := molframe.ReadSDF(path)
		if err != nil {
			return nil, err
		}
		return sar.New(molf), nil
	}
	sep := rune('\t')
	if strings.HasSuffix(path, ".csv") {
		sep = ','
	}
	molf, err := molframe.ReadCSV(path, sep)
	if err != nil {
		return nil, err
	}
	return sar.New(molf), nil
}

func trainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runTrain,
		UsageLine: "train -in table.tsv -out sar [options]",
		Short:     "fit a random forest against the activity labels of a molecule table",
		Long: `
fit a random forest over Morgan fingerprints against the activity labels
of a molecule table and save the model

	$ sar train -in actives.tsv -act AC_Real -nest 500 -out sar
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&inFile, "in", "", "input table (.tsv, .csv or .sdf)")
	cmd.Flag.StringVar(&outFile, "out", "sar", "output model file (\".model\" appended)")
	cmd.Flag.StringVar(&actClass, "act", sar.ColActReal, "activity class column")
	cmd.Flag.IntVar(&nEst, "nest", 500, "number of trees")
	cmd.Flag.Int64Var(&seed, "seed", 1123, "random seed")
	cmd.Flag.Float64Var(&validate, "validate", 0, "held-out fraction for validation metrics")
	return cmd
}

func runTrain(cmd *commander.Command, args []string) error {
	s, err := loadSession(inFile)
	if err != nil {
		return err
	}
	err = s.Train(sar.TrainOptions{
		ActClass:           actClass,
		NEstimators:        nEst,
		RandomState:        seed,
		ShowProgress:       true,
		ValidationFraction: validate,
	})
	if err != nil {
		return err
	}
	if err := s.SaveModel(outFile); err != nil {
		return err
	}
	fmt.Printf("model written to %s\n", model.WithModelExt(outFile))
	return nil
}

func predictCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runPredict,
		UsageLine: "predict -in table.tsv -model sar -out pred.tsv [options]",
		Short:     "predict activity for the molecules of a table",
		Long: `
predict the activity class, probability and confidence tier for every
molecule of a table

	$ sar predict -in screen.tsv -model sar -threshold 0.5 -out pred.tsv
`,
		Flag: *flag.NewFlagSet("predict", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&inFile, "in", "", "input table (.tsv, .csv or .sdf)")
	cmd.Flag.StringVar(&modelFile, "model", "sar", "model file")
	cmd.Flag.StringVar(&outFile, "out", "pred.tsv", "output table")
	cmd.Flag.Float64Var(&threshold, "threshold", sar.DefaultThreshold, "classification threshold")
	cmd.Flag.BoolVar(&simMaps, "maps", false, "add similarity map images")
	return cmd
}

func runPredict(cmd *commander.Command, args []string) error {
	s, err := loadSession(inFile)
	if err != nil {
		return err
	}
	if err := s.LoadModel(modelFile, true); err != nil {
		return err
	}
	pred, err := s.Predict(threshold)
	if err != nil {
		return err
	}
	if simMaps {
		if pred, err = pred.AddSimMaps(); err != nil {
			return err
		}
	}
	if err := pred.WriteCSV(outFile, 0); err != nil {
		return err
	}
	fmt.Printf("predictions written to %s\n", outFile)
	return nil
}

func analyzeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runAnalyze,
		UsageLine: "analyze -in pred.tsv [options]",
		Short:     "print accuracy statistics of a predicted table",
		Long: `
print the per-class prediction ratios, accuracy rates, kappa and the
confusion matrix of a table holding both real and predicted classes

	$ sar analyze -in pred.tsv -relative
`,
		Flag: *flag.NewFlagSet("analyze", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&inFile, "in", "", "input table (.tsv, .csv or .sdf)")
	cmd.Flag.StringVar(&actClass, "act", sar.ColActReal, "real activity class column")
	cmd.Flag.StringVar(&predClass, "pred", sar.ColActPred, "predicted activity class column")
	cmd.Flag.BoolVar(&relative, "relative", false, "confusion matrix in percent")
	return cmd
}

func runAnalyze(cmd *commander.Command, args []string) error {
	s, err := loadSession(inFile)
	if err != nil {
		return err
	}
	s.Analyze(actClass, predClass)
	if _, err := sar.ProbSummary(s.Molf); err != nil && !errors.Is(err, sar.ErrNoPredictions) {
		return err
	}
	acc, err := s.Accuracy()
	if err != nil {
		return err
	}
	fmt.Println(acc)
	fmt.Print(acc.ConfMatrix(relative))
	return nil
}

func gridCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runGrid,
		UsageLine: "grid -in pred.tsv -out grid.html [options]",
		Short:     "render a table as an HTML grid",
		Long: `
render a molecule table as an HTML grid, optionally coloring the result
cells by prediction outcome and confidence tier

	$ sar grid -in pred.tsv -out grid.html -highlight
`,
		Flag: *flag.NewFlagSet("grid", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&inFile, "in", "", "input table (.tsv, .csv or .sdf)")
	cmd.Flag.StringVar(&outFile, "out", "grid.html", "output HTML file")
	cmd.Flag.BoolVar(&highlight, "highlight", false, "color result cells")
	return cmd
}

func runGrid(cmd *commander.Command, args []string) error {
	s, err := loadSession(inFile)
	if err != nil {
		return err
	}
	opts := sar.DefaultGridOptions()
	opts.Highlight = highlight
	if err := s.WriteGridFile(outFile, opts); err != nil {
		return err
	}
	fmt.Printf("grid written to %s\n", outFile)
	return nil
}
