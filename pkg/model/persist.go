package model

import (
	"encoding/gob"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ModelExt is appended to model file names that do not carry it.
const ModelExt = ".model"

func init() {
	gob.Register(&RandomForest{})
	gob.Register(&DecisionTreeClassifier{})
}

// WithModelExt appends the model extension when missing.
func WithModelExt(path string) string {
	if strings.HasSuffix(path, ModelExt) {
		return path
	}
	return path + ModelExt
}

// Save serializes the classifier to path (gob). The bytes are opaque;
// only Load is expected to read them back.
func Save(clf Classifier, path string) error {
	if clf == nil {
		return errors.New("model: nothing to save")
	}
	path = WithModelExt(path)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "model: save")
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err := enc.Encode(&clf); err != nil {
		return errors.Wrap(err, "model: encode")
	}
	return nil
}

// Load deserializes a classifier saved by Save. The model extension is
// appended to path when missing.
func Load(path string) (Classifier, error) {
	path = WithModelExt(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "model: load")
	}
	defer f.Close()
	var clf Classifier
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&clf); err != nil {
		return nil, errors.Wrap(err, "model: decode")
	}
	return clf, nil
}
