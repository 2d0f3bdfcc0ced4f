package objective_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/eval"
	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/objective"
	"gonum.org/v1/gonum/mat"
)

// nine subjects with ages 25, 30, ... 65 over theta and alpha.
func data(t *testing.T) dataset.Data {
	tab, err := features.NewTable(features.ReducedBands)
	if err != nil {
		t.Fatal(err)
	}
	y := make([]float64, 9)
	for i := range y {
		y[i] = 25 + 5*float64(i)
		v := y[i]
		if err := tab.Append(fmt.Sprintf("sub-%02d", i), []*mat.SymDense{
			mat.NewSymDense(2, []float64{v, 0, 0, 1}),
			mat.NewSymDense(2, []float64{1, 0, 0, v}),
		}); err != nil {
			t.Fatal(err)
		}
	}
	return dataset.Data{X: tab, Y: y, Bands: tab.Bands, NChannels: 2}
}

// oracle predicts the age stored on the first diagonal entry of the theta covariance.
type oracle struct{}

func (oracle) Fit(*features.Table, []float64) error { return nil }

func (oracle) Predict(t *features.Table) ([]float64, error) {
	out := make([]float64, t.Rows())
	for i := range out {
		out[i] = t.Cell(i, 0).At(0, 0)
	}
	return out, nil
}

func (o oracle) Score(t *features.Table, y []float64) (float64, error) {
	pred, _ := o.Predict(t)
	var res, tot, mean float64
	for _, v := range y {
		mean += v / float64(len(y))
	}
	for i := range y {
		res += (y[i] - pred[i]) * (y[i] - pred[i])
		tot += (y[i] - mean) * (y[i] - mean)
	}
	return 1 - res/tot, nil
}

func TestSplit(t *testing.T) {
	o := objective.New(objective.Seed(3))
	if _, err := o.Problem(); err != objective.ErrNoData {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if err := o.SetData(data(t)); err != nil {
		t.Fatal(err)
	}
	train, test := o.Sizes()
	if train+test != 9 || test != 3 {
		t.Errorf("expected a 6/3 split, got %d/%d", train, test)
	}
	p, err := o.Problem()
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Rows() != train || len(p.Y) != train || p.NChannels != 2 || len(p.Bands) != 2 {
		t.Error("the problem should hold the training subjects only")
	}
	for i, s := range p.X.Subjects {
		var idx int
		fmt.Sscanf(s, "sub-%02d", &idx)
		if p.Y[i] != 25+5*float64(idx) {
			t.Errorf("subject %s lost its target", s)
		}
	}
}

func TestComputePerfectModel(t *testing.T) {
	o := objective.New()
	if err := o.SetData(data(t)); err != nil {
		t.Fatal(err)
	}
	m, err := o.Compute(oracle{})
	if err != nil {
		t.Fatal(err)
	}
	if m.ScoreTest != 1 || m.Value != -1 || m.MAE != 0 || m.ScoreTrain != 1 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if len(m.Map()) != 4 {
		t.Error("expected four metrics")
	}
	scores, err := o.Evaluate(oracle{}, eval.RMSE, eval.MSE)
	if err != nil {
		t.Fatal(err)
	}
	if scores["RMSE"] != 0 || scores["MSE"] != 0 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestOneSolution(t *testing.T) {
	o := objective.New(objective.TestSize(0.5))
	if _, err := o.OneSolution(); err != objective.ErrNoData {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if err := o.SetData(data(t)); err != nil {
		t.Fatal(err)
	}
	model, err := o.OneSolution()
	if err != nil {
		t.Fatal(err)
	}
	m, err := o.Compute(model)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.ScoreTrain) > 1e-12 {
		t.Errorf("the mean predictor should score 0 on its training data, got %v", m.ScoreTrain)
	}
	if m.ScoreTest > 0 || m.MAE <= 0 {
		t.Errorf("unexpected baseline metrics %+v", m)
	}
}

func TestSetDataMisaligned(t *testing.T) {
	d := data(t)
	d.Y = d.Y[:5]
	if err := objective.New().SetData(d); err == nil {
		t.Error("expected an error for misaligned targets")
	}
}
