package learning

import (
	"github.com/hscells/brainage/features"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanRegressor ignores its inputs and always predicts the training mean.
type MeanRegressor struct {
	Constant float64
	fitted   bool
}

// Fit implements Regressor.
func (m *MeanRegressor) Fit(X mat.Matrix, y []float64) error {
	n, _ := X.Dims()
	if err := checkRows(n, y); err != nil {
		return err
	}
	m.Constant = stat.Mean(y, nil)
	m.fitted = true
	return nil
}

// Predict implements Regressor.
func (m *MeanRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	n, _ := X.Dims()
	return constant(n, m.Constant), nil
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Dummy is the baseline model: it predicts the mean training target for every subject.
type Dummy struct {
	Constant float64
	fitted   bool
}

// NewDummy creates an unfitted baseline model.
func NewDummy() *Dummy {
	return &Dummy{}
}

// Fit implements Model.
func (d *Dummy) Fit(t *features.Table, y []float64) error {
	if err := checkRows(t.Rows(), y); err != nil {
		return err
	}
	d.Constant = stat.Mean(y, nil)
	d.fitted = true
	return nil
}

// Predict implements Model.
func (d *Dummy) Predict(t *features.Table) ([]float64, error) {
	if !d.fitted {
		return nil, ErrNotFitted
	}
	return constant(t.Rows(), d.Constant), nil
}

// Score implements Model.
func (d *Dummy) Score(t *features.Table, y []float64) (float64, error) {
	return score(d, t, y)
}
