package cache

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
)

// FeatureFile is a feature table persisted at a fixed path. The file is not invalidated when the
// parameters that produced it change, and concurrent writers are not coordinated.
type FeatureFile struct {
	Path string
}

type tableFile struct {
	Bands    features.Bands
	Subjects []string
	Rows     [][]matrix
}

// Exists reports whether a cached table is present.
func (f FeatureFile) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// Load reads the cached table, returning ErrCacheMiss when there is none.
func (f FeatureFile) Load() (*features.Table, error) {
	r, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var tf tableFile
	if err := gob.NewDecoder(r).Decode(&tf); err != nil {
		return nil, errors.Wrapf(err, "could not decode cached features %s", f.Path)
	}
	if len(tf.Subjects) != len(tf.Rows) {
		return nil, errors.Errorf("cached features %s have %d subjects and %d rows", f.Path, len(tf.Subjects), len(tf.Rows))
	}

	t, err := features.NewTable(tf.Bands)
	if err != nil {
		return nil, err
	}
	for i, row := range tf.Rows {
		covs, err := toSyms(row)
		if err != nil {
			return nil, err
		}
		if err := t.Append(tf.Subjects[i], covs); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Save writes the table, creating parent directories as needed.
func (f FeatureFile) Save(t *features.Table) error {
	tf := tableFile{
		Bands:    t.Bands,
		Subjects: t.Subjects,
		Rows:     make([][]matrix, t.Rows()),
	}
	for i := range tf.Rows {
		tf.Rows[i] = make([]matrix, t.Cols())
		for j, c := range t.Row(i) {
			tf.Rows[i][j] = fromSym(c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0777); err != nil {
		return err
	}
	w, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(tf); err != nil {
		w.Close()
		return errors.Wrapf(err, "could not encode features to %s", f.Path)
	}
	return w.Close()
}
