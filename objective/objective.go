// Package objective defines the brain-age regression objective: how a dataset is split into
// training and test subjects, what a solver is given, and how its fitted model is scored.
package objective

import (
	"math/rand"

	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/eval"
	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/learning"
	"github.com/pkg/errors"
)

// Name identifies the objective in results.
const Name = "brain_age"

// ErrNoData is returned when the objective is used before SetData.
var ErrNoData = errors.New("objective has no data")

// Problem is what a solver receives: the training subjects only.
type Problem struct {
	X         *features.Table
	Y         []float64
	Bands     features.Bands
	NChannels int
}

// Metrics are the scores of one fitted model. Value is the quantity minimised by the benchmark.
type Metrics struct {
	Value      float64 `json:"value" csv:"value"`
	ScoreTest  float64 `json:"score_test" csv:"score_test"`
	ScoreTrain float64 `json:"score_train" csv:"score_train"`
	MAE        float64 `json:"mae" csv:"mae"`
}

// Map returns the metrics keyed by name.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"value":       m.Value,
		"score_test":  m.ScoreTest,
		"score_train": m.ScoreTrain,
		"mae":         m.MAE,
	}
}

// Objective holds one train/test split of a dataset.
type Objective struct {
	TestSize float64
	Seed     int64

	bands   features.Bands
	nChans  int
	xTrain  *features.Table
	xTest   *features.Table
	yTrain  []float64
	yTest   []float64
	hasData bool
}

// Option configures an Objective.
type Option func(o *Objective)

// TestSize sets the fraction of subjects held out for testing.
func TestSize(f float64) Option {
	return func(o *Objective) {
		o.TestSize = f
	}
}

// Seed sets the seed of the train/test shuffle.
func Seed(seed int64) Option {
	return func(o *Objective) {
		o.Seed = seed
	}
}

// New creates an objective holding out a quarter of the subjects.
func New(options ...Option) *Objective {
	o := &Objective{TestSize: 0.25}
	for _, option := range options {
		option(o)
	}
	return o
}

// SetData splits a dataset into training and test subjects.
func (o *Objective) SetData(d dataset.Data) error {
	if err := d.Validate(); err != nil {
		return err
	}
	split, err := learning.TrainTestSplit(len(d.Y), o.TestSize, rand.New(rand.NewSource(o.Seed)))
	if err != nil {
		return err
	}
	xTrain, xTest, yTrain, yTest, err := split.Apply(d.X, d.Y)
	if err != nil {
		return err
	}
	o.xTrain, o.xTest, o.yTrain, o.yTest = xTrain, xTest, yTrain, yTest
	o.bands = d.Bands
	o.nChans = d.NChannels
	o.hasData = true
	return nil
}

// Sizes returns the number of training and test subjects.
func (o *Objective) Sizes() (train, test int) {
	return len(o.yTrain), len(o.yTest)
}

// Problem returns the training data for a solver.
func (o *Objective) Problem() (Problem, error) {
	if !o.hasData {
		return Problem{}, ErrNoData
	}
	return Problem{
		X:         o.xTrain,
		Y:         o.yTrain,
		Bands:     o.bands,
		NChannels: o.nChans,
	}, nil
}

// Compute scores a fitted model on the training and test subjects.
func (o *Objective) Compute(m learning.Model) (Metrics, error) {
	if !o.hasData {
		return Metrics{}, ErrNoData
	}
	train, err := m.Score(o.xTrain, o.yTrain)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "scoring training subjects")
	}
	test, err := m.Score(o.xTest, o.yTest)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "scoring test subjects")
	}
	pred, err := m.Predict(o.xTest)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{
		Value:      -test,
		ScoreTest:  test,
		ScoreTrain: train,
		MAE:        eval.MAE.Score(o.yTest, pred),
	}, nil
}

// Evaluate scores the test predictions of a fitted model with additional evaluation measures.
func (o *Objective) Evaluate(m learning.Model, evaluators ...eval.Evaluator) (map[string]float64, error) {
	if !o.hasData {
		return nil, ErrNoData
	}
	pred, err := m.Predict(o.xTest)
	if err != nil {
		return nil, err
	}
	return eval.Evaluate(evaluators, o.yTest, pred), nil
}

// OneSolution returns a baseline fitted on the training subjects.
func (o *Objective) OneSolution() (learning.Model, error) {
	if !o.hasData {
		return nil, ErrNoData
	}
	d := learning.NewDummy()
	return d, d.Fit(o.xTrain, o.yTrain)
}
