package learning

import (
	"github.com/hscells/brainage/eval"
	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BandSelector restricts a table to a subset of its bands before any other stage.
type BandSelector struct {
	Bands []string
}

// Apply returns the selected columns of t.
func (b BandSelector) Apply(t *features.Table) (*features.Table, error) {
	return t.Select(b.Bands...)
}

// Pipeline chains an optional band selection, a filter-bank transformer, any number of matrix
// transformers and a final regressor.
type Pipeline struct {
	Select     *BandSelector
	FilterBank TableTransformer
	Steps      []Transformer
	Regressor  Regressor

	fitted bool
}

// NewPipeline creates a pipeline without band selection.
func NewPipeline(fb TableTransformer, regressor Regressor, steps ...Transformer) *Pipeline {
	return &Pipeline{
		FilterBank: fb,
		Steps:      steps,
		Regressor:  regressor,
	}
}

func (p *Pipeline) selectBands(t *features.Table) (*features.Table, error) {
	if p.Select == nil {
		return t, nil
	}
	return p.Select.Apply(t)
}

// Fit fits every stage in order on the output of the previous one.
func (p *Pipeline) Fit(t *features.Table, y []float64) error {
	if p.FilterBank == nil || p.Regressor == nil {
		return errors.New("pipeline needs a filter bank and a regressor")
	}
	if err := checkRows(t.Rows(), y); err != nil {
		return err
	}
	p.fitted = false

	t, err := p.selectBands(t)
	if err != nil {
		return err
	}
	if err := p.FilterBank.Fit(t, y); err != nil {
		return errors.Wrap(err, "filter bank")
	}
	X, err := p.FilterBank.Transform(t)
	if err != nil {
		return errors.Wrap(err, "filter bank")
	}
	for i, step := range p.Steps {
		if err := step.Fit(X, y); err != nil {
			return errors.Wrapf(err, "pipeline step %d", i)
		}
		X, err = step.Transform(X)
		if err != nil {
			return errors.Wrapf(err, "pipeline step %d", i)
		}
	}
	if err := p.Regressor.Fit(X, y); err != nil {
		return errors.Wrap(err, "regressor")
	}
	p.fitted = true
	return nil
}

// Transform maps a table through every stage but the regressor.
func (p *Pipeline) Transform(t *features.Table) (*mat.Dense, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	t, err := p.selectBands(t)
	if err != nil {
		return nil, err
	}
	X, err := p.FilterBank.Transform(t)
	if err != nil {
		return nil, err
	}
	for _, step := range p.Steps {
		X, err = step.Transform(X)
		if err != nil {
			return nil, err
		}
	}
	return X, nil
}

// Predict returns one prediction per row of t.
func (p *Pipeline) Predict(t *features.Table) ([]float64, error) {
	X, err := p.Transform(t)
	if err != nil {
		return nil, err
	}
	return p.Regressor.Predict(X)
}

// Score is the coefficient of determination of the predictions for t.
func (p *Pipeline) Score(t *features.Table, y []float64) (float64, error) {
	return score(p, t, y)
}

func score(m Model, t *features.Table, y []float64) (float64, error) {
	if t.Rows() != len(y) {
		return 0, errors.Wrapf(ErrShape, "%d rows but %d targets", t.Rows(), len(y))
	}
	pred, err := m.Predict(t)
	if err != nil {
		return 0, err
	}
	return eval.R2.Score(y, pred), nil
}
