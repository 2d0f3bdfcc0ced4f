// Package solver contains the methods compared by the benchmark. A solver receives the training
// subjects of an objective, fits a model on Run and hands the fitted model back on Result.
package solver

import (
	"log"
	"strconv"
	"strings"

	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/filterbank"
	"github.com/hscells/brainage/learning"
	"github.com/hscells/brainage/objective"
	"github.com/pkg/errors"
)

// Solver fits a model to a problem.
type Solver interface {
	Name() string
	SetObjective(p objective.Problem) error
	Run(nIter int) error
	Result() learning.Model
}

// Incremental solvers are run repeatedly with growing iteration counts. Next returns the
// iteration count of the run following a run with nIter.
type Incremental interface {
	Solver
	Next(nIter int) int
}

// Factory creates a solver in its initial state. The benchmark asks for a new solver for every
// dataset so that no state is shared across runs.
type Factory func() Solver

// Dummy predicts the mean training age.
type Dummy struct {
	problem objective.Problem
	model   *learning.Dummy
}

// NewDummy creates the baseline solver.
func NewDummy() Solver {
	return &Dummy{}
}

func (d *Dummy) Name() string {
	return "dummy"
}

func (d *Dummy) SetObjective(p objective.Problem) error {
	d.problem = p
	d.model = learning.NewDummy()
	return nil
}

// Run fits the baseline on every training subject. The iteration count is ignored.
func (d *Dummy) Run(int) error {
	if d.model == nil {
		return errors.New("dummy solver has no objective")
	}
	log.Println("fitting dummy")
	return d.model.Fit(d.problem.X, d.problem.Y)
}

func (d *Dummy) Result() learning.Model {
	return d.model
}

// VarianceThreshold is the minimum feature variance kept by filter-bank pipelines.
const VarianceThreshold = 1e-10

// FilterBank fits filter bank, variance threshold, standard scaler and ridge regression.
type FilterBank struct {
	SolverName string
	Method     filterbank.Method
	Params     filterbank.ProjectionParams
	// Bands are the bands given to the filter bank. Empty means the bands of the problem.
	Bands features.Bands
	// Subset, when set, restricts the table to these bands before the filter bank.
	Subset []string

	problem objective.Problem
	model   *learning.Pipeline
}

// NewDiag creates the solver using the log-diagonal of each band covariance.
func NewDiag() *FilterBank {
	return &FilterBank{
		SolverName: "diag",
		Method:     filterbank.Diag,
	}
}

// NewSPoC creates the source power comodulation solver over the seven standard bands with full
// rank, automatic scaling and a regularisation of 1e-5.
func NewSPoC() *FilterBank {
	return &FilterBank{
		SolverName: "Source Power Comodulation (SPoC)",
		Method:     filterbank.SPoC,
		Params:     filterbank.ProjectionParams{Reg: 1e-5},
		Bands:      features.SevenBands,
	}
}

// Name includes the projection parameters of spoc and the band subset, so that every point of a
// parameter grid is named differently.
func (f *FilterBank) Name() string {
	var params []string
	if f.Method == filterbank.SPoC {
		rank, scale := "full", "auto"
		if f.Params.Rank > 0 {
			rank = strconv.Itoa(f.Params.Rank)
		}
		if f.Params.Scale > 0 {
			scale = strconv.FormatFloat(f.Params.Scale, 'g', -1, 64)
		}
		params = append(params,
			"rank="+rank,
			"reg="+strconv.FormatFloat(f.Params.Reg, 'g', -1, 64),
			"scale="+scale,
			"shrink="+strconv.FormatFloat(f.Params.Shrink, 'g', -1, 64))
	}
	if len(f.Subset) > 0 {
		params = append(params, "bands_subset="+strings.Join(f.Subset, "+"))
	}
	if len(params) == 0 {
		return f.SolverName
	}
	return f.SolverName + "[" + strings.Join(params, ",") + "]"
}

// SetObjective builds a new, unfitted pipeline for the problem.
func (f *FilterBank) SetObjective(p objective.Problem) error {
	bands := f.Bands
	if len(bands) == 0 {
		bands = p.Bands
	}
	names := bands.Names()
	if len(f.Subset) > 0 {
		names = f.Subset
	}
	fb, err := filterbank.New(names, f.Method, f.Params)
	if err != nil {
		return errors.Wrap(err, f.Name())
	}
	f.model = learning.NewPipeline(fb, learning.NewRidgeCV(),
		learning.NewVarianceThreshold(VarianceThreshold),
		learning.NewStandardScaler())
	if len(f.Subset) > 0 {
		f.model.Select = &learning.BandSelector{Bands: f.Subset}
	}
	f.problem = p
	return nil
}

// Run fits the pipeline on every training subject. The iteration count is ignored.
func (f *FilterBank) Run(int) error {
	if f.model == nil {
		return errors.Errorf("%s has no objective", f.Name())
	}
	log.Printf("fitting %s on %d subjects", f.Name(), f.problem.X.Rows())
	return f.model.Fit(f.problem.X, f.problem.Y)
}

func (f *FilterBank) Result() learning.Model {
	return f.model
}

// Subsample fits a solver on a growing prefix of the training subjects, to study how the score
// evolves with the amount of training data.
type Subsample struct {
	Solver  Solver
	problem objective.Problem
	set     bool
}

// NewSubsample wraps s.
func NewSubsample(s Solver) *Subsample {
	return &Subsample{Solver: s}
}

func (s *Subsample) Name() string {
	return s.Solver.Name() + " (subsample)"
}

func (s *Subsample) SetObjective(p objective.Problem) error {
	s.problem = p
	s.set = true
	return s.Solver.SetObjective(p)
}

// Size is the number of subjects fitted by a run with nIter.
func (s *Subsample) Size(nIter int) int {
	n := nIter + 10
	if rows := s.problem.X.Rows(); n > rows {
		n = rows
	}
	return n
}

// Run fits the wrapped solver on the first nIter+10 training subjects.
func (s *Subsample) Run(nIter int) error {
	if !s.set {
		return errors.Errorf("%s has no objective", s.Name())
	}
	n := s.Size(nIter)
	p := s.problem
	p.X = p.X.Head(n)
	p.Y = p.Y[:n]
	if err := s.Solver.SetObjective(p); err != nil {
		return err
	}
	return s.Solver.Run(nIter)
}

// Next implements Incremental.
func (s *Subsample) Next(nIter int) int {
	n := 10
	if nIter >= 10 {
		n = int(float64(nIter) * 1.5)
	}
	if rows := s.problem.X.Rows(); n > rows {
		n = rows
	}
	return n
}

func (s *Subsample) Result() learning.Model {
	return s.Solver.Result()
}
