package sar

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// Session is the SAR analysis container: one molecule table plus at most
// one trained model. A session operates on a copy of the frame it was
// created from; all methods return copies except Train and LoadModel,
// which replace the session's model in place.
type Session struct {
	Molf  *molframe.MolFrame
	Model model.Classifier
}

// New creates a session that owns a deep copy of molf.
func New(molf *molframe.MolFrame) *Session {
	s := &Session{}
	if molf != nil {
		s.Molf = molf.Copy()
	}
	return s
}

// Copy returns a shallow session copy: the frame is deep-copied, the
// model is shared (it is never mutated after Fit).
func (s *Session) Copy() *Session {
	out := &Session{Model: s.Model}
	if s.Molf != nil {
		out.Molf = s.Molf.Copy()
	}
	return out
}

func (s *Session) String() string {
	if s.Molf == nil {
		return "MolFrame  Rows:      0  Columns:  0   []"
	}
	return s.Molf.String()
}

// Train fits a new model against the activity labels and replaces the
// session's model.
func (s *Session) Train(opts TrainOptions) error {
	clf, err := Train(s.Molf, opts)
	if err != nil {
		return err
	}
	s.Model = clf
	return nil
}

// Predict returns a new session whose frame carries the prediction
// columns. Fails with ErrNoModel before Train.
func (s *Session) Predict(threshold float64) (*Session, error) {
	if s.Model == nil {
		return nil, ErrNoModel
	}
	molf, err := Predict(s.Molf, s.Model, threshold)
	if err != nil {
		return nil, err
	}
	result := s.Copy()
	result.Molf = molf
	return result, nil
}

// AddSimMaps returns a new session with the Map image column added.
func (s *Session) AddSimMaps() (*Session, error) {
	if s.Model == nil {
		return nil, ErrNoModel
	}
	molf, err := AddSimMaps(s.Molf, s.Model)
	if err != nil {
		return nil, err
	}
	result := s.Copy()
	result.Molf = molf
	return result, nil
}

// Accuracy computes the confusion statistics of the session's frame.
func (s *Session) Accuracy() (Accuracy, error) {
	return ComputeAccuracy(s.Molf)
}

// Analyze logs per-class prediction ratios. Empty column names fall
// back to AC_Real and AC_Pred.
func (s *Session) Analyze(actCol, predCol string) (hits, totals map[string]int) {
	return Analyze(s.Molf, actCol, predCol)
}

// SaveModel persists the session's model; a missing model is only
// reported, not an error, matching the interactive workflow.
func (s *Session) SaveModel(path string) error {
	if s.Model == nil {
		logger.Warn("No model available.")
		return nil
	}
	return model.Save(s.Model, path)
}

// LoadModel restores a model from path (".model" appended when
// missing). When the session already holds a model it refuses to
// overwrite it unless force is set; the existing model stays untouched
// and a warning is logged.
func (s *Session) LoadModel(path string, force bool) error {
	if s.Model != nil && !force {
		logger.Warn("There is already a model available. Use force to override.")
		return nil
	}
	clf, err := model.Load(path)
	if err != nil {
		return err
	}
	s.Model = clf
	if fi, err := os.Stat(model.WithModelExt(path)); err == nil {
		logger.Infof("  > model loaded (last modified: %s).", fi.ModTime().Format("2006-01-02 15:04"))
	}
	return nil
}

// WriteCSV writes the session's frame as delimited text.
func (s *Session) WriteCSV(path string, sep rune) error {
	return molframe.WriteCSV(s.Molf, path, sep)
}

// WriteGrid renders the session's frame as an HTML grid to w.
func (s *Session) WriteGrid(w io.Writer, opts GridOptions) error {
	return WriteGrid(s.Molf, w, opts)
}

// WriteGridFile renders the grid into a file.
func (s *Session) WriteGridFile(path string, opts GridOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "sar: write grid")
	}
	defer f.Close()
	return s.WriteGrid(f, opts)
}

// ReadCSV loads a delimited text file into a fresh session.
func ReadCSV(path string) (*Session, error) {
	molf, err := molframe.ReadCSV(path, 0)
	if err != nil {
		return nil, err
	}
	return &Session{Molf: molf}, nil
}

// ReadSDF loads an SDF file into a fresh session and, when modelName is
// given, tries to load the model alongside it. A missing model file is
// only a warning on this convenience path.
func ReadSDF(path string, modelName string) (*Session, error) {
	molf, err := molframe.ReadSDF(path)
	if err != nil {
		return nil, err
	}
	s := &Session{Molf: molf}
	if modelName == "" {
		logger.Info("  * No model was loaded. Please provide a name to load.")
		return s, nil
	}
	if err := s.LoadModel(modelName, false); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warnf("  * Model %s could not be found. No model was loaded", modelName)
			return s, nil
		}
		return nil, err
	}
	return s, nil
}
