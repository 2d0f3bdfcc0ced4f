// Package dataset provides the sources of brain-age problems: subject covariance features
// aligned with subject ages.
//
// Three providers exist. BIDS computes features from raw EEG recordings of an open dataset.
// Archive reads precomputed features keyed by subject. Simulated generates synthetic
// covariances with a known relationship to the target.
package dataset

import (
	"context"

	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
)

// Dataset produces a feature table and the aligned targets.
type Dataset interface {
	Name() string
	Data(ctx context.Context) (Data, error)
}

// Data is what a dataset hands to the objective. X has one row per subject and one column per
// band in Bands, in order. Y[i] is the target of row i.
type Data struct {
	X         *features.Table
	Y         []float64
	Bands     features.Bands
	NChannels int
}

// Validate checks the alignment of the table with the targets and bands.
func (d Data) Validate() error {
	if d.X == nil {
		return errors.New("dataset has no feature table")
	}
	if d.X.Rows() != len(d.Y) {
		return errors.Errorf("feature table has %d rows but there are %d targets", d.X.Rows(), len(d.Y))
	}
	if d.X.Cols() != len(d.Bands) {
		return errors.Errorf("feature table has %d columns but there are %d bands", d.X.Cols(), len(d.Bands))
	}
	for i, b := range d.Bands {
		if d.X.Bands[i].Name != b.Name {
			return errors.Errorf("column %d is %s, expected %s", i, d.X.Bands[i].Name, b.Name)
		}
	}
	return nil
}

func newData(t *features.Table, y []float64) (Data, error) {
	d := Data{
		X:         t,
		Y:         y,
		Bands:     t.Bands,
		NChannels: t.NChannels(),
	}
	return d, d.Validate()
}
