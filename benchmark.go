// Package brainage runs brain-age regression benchmarks: every solver is fitted on every dataset
// and scored by the objective, and the results are streamed over a channel.
package brainage

import (
	"context"
	"log"
	"time"

	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/eval"
	"github.com/hscells/brainage/objective"
	"github.com/hscells/brainage/pipeline"
	"github.com/hscells/brainage/solver"
	"github.com/pkg/errors"
)

// DefaultMaxRuns bounds the number of runs of an incremental solver on one dataset.
const DefaultMaxRuns = 100

// Benchmark contains everything needed to compare solvers on datasets.
type Benchmark struct {
	Objective   *objective.Objective
	Datasets    []dataset.Dataset
	Solvers     []solver.Factory
	Evaluations []eval.Evaluator
	MaxRuns     int
}

// Datasets adds datasets to the benchmark.
func Datasets(datasets ...dataset.Dataset) func() interface{} {
	return func() interface{} {
		return datasets
	}
}

// Solvers adds solvers to the benchmark.
func Solvers(factories ...solver.Factory) func() interface{} {
	return func() interface{} {
		return factories
	}
}

// Evaluation adds evaluation measures computed on the test predictions of every run.
func Evaluation(measures ...eval.Evaluator) func() interface{} {
	return func() interface{} {
		return measures
	}
}

// MaxRuns bounds the number of runs of an incremental solver.
func MaxRuns(n int) func() interface{} {
	return func() interface{} {
		return maxRuns(n)
	}
}

type maxRuns int

// NewBenchmark creates a new benchmark. The objective is required. Additional components are
// provided via the optional functional arguments.
func NewBenchmark(o *objective.Objective, components ...func() interface{}) Benchmark {
	b := Benchmark{
		Objective: o,
		MaxRuns:   DefaultMaxRuns,
	}

	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case []dataset.Dataset:
			b.Datasets = append(b.Datasets, v...)
		case []solver.Factory:
			b.Solvers = append(b.Solvers, v...)
		case []eval.Evaluator:
			b.Evaluations = v
		case maxRuns:
			b.MaxRuns = int(v)
		}
	}

	return b
}

// Execute runs every solver on every dataset. Each dataset is loaded once and split once, and every
// solver starts from a fresh instance. Results are sent on c as they are produced; the first error
// is sent as an Error result and ends the benchmark. The channel is closed on return.
func (b Benchmark) Execute(ctx context.Context, c chan pipeline.Result) {
	defer close(c)
	log.Println("starting brainage benchmark...")

	if b.Objective == nil {
		c <- pipeline.Result{
			Error: errors.New("benchmark has no objective"),
			Type:  pipeline.Error,
		}
		return
	}

	for _, ds := range b.Datasets {
		log.Printf("loading dataset %s...", ds.Name())
		d, err := ds.Data(ctx)
		if err != nil {
			c <- pipeline.Result{
				Run:   pipeline.Run{Objective: objective.Name, Dataset: ds.Name()},
				Error: errors.Wrapf(err, "dataset %s", ds.Name()),
				Type:  pipeline.Error,
			}
			return
		}
		if err := b.Objective.SetData(d); err != nil {
			c <- pipeline.Result{
				Run:   pipeline.Run{Objective: objective.Name, Dataset: ds.Name()},
				Error: errors.Wrapf(err, "dataset %s", ds.Name()),
				Type:  pipeline.Error,
			}
			return
		}
		train, test := b.Objective.Sizes()
		c <- pipeline.Result{
			Run: pipeline.Run{Objective: objective.Name, Dataset: ds.Name()},
			Measurements: map[string]float64{
				"n_subjects": float64(d.X.Rows()),
				"n_train":    float64(train),
				"n_test":     float64(test),
				"n_channels": float64(d.NChannels),
				"n_bands":    float64(len(d.Bands)),
			},
			Type: pipeline.Measurement,
		}

		for _, factory := range b.Solvers {
			if err := ctx.Err(); err != nil {
				c <- pipeline.Result{
					Error: err,
					Type:  pipeline.Error,
				}
				return
			}
			s := factory()
			if err := b.solve(ctx, ds.Name(), s, c); err != nil {
				c <- pipeline.Result{
					Run:   pipeline.Run{Objective: objective.Name, Dataset: ds.Name(), Solver: s.Name()},
					Error: errors.Wrapf(err, "solver %s on dataset %s", s.Name(), ds.Name()),
					Type:  pipeline.Error,
				}
				return
			}
		}
	}

	c <- pipeline.Result{
		Type: pipeline.Done,
	}
}

// solve fits s once, or along its schedule when it is incremental, sending one evaluation per run.
func (b Benchmark) solve(ctx context.Context, datasetName string, s solver.Solver, c chan pipeline.Result) error {
	problem, err := b.Objective.Problem()
	if err != nil {
		return err
	}
	if err := s.SetObjective(problem); err != nil {
		return err
	}
	inc, incremental := s.(solver.Incremental)

	runs := b.MaxRuns
	if runs < 1 {
		runs = 1
	}
	nIter := 0
	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		run := pipeline.NewRun(objective.Name, datasetName, s.Name(), i, nIter)
		log.Printf("running %s", run)

		start := time.Now()
		if err := s.Run(nIter); err != nil {
			return err
		}
		run.Elapsed = time.Since(start)

		model := s.Result()
		metrics, err := b.Objective.Compute(model)
		if err != nil {
			return err
		}
		evaluations := metrics.Map()
		if len(b.Evaluations) > 0 {
			extra, err := b.Objective.Evaluate(model, b.Evaluations...)
			if err != nil {
				return err
			}
			for k, v := range extra {
				evaluations[k] = v
			}
		}
		c <- pipeline.Result{
			Run:         run,
			Evaluations: evaluations,
			Type:        pipeline.Evaluation,
		}

		if !incremental {
			break
		}
		next := inc.Next(nIter)
		if next == nIter {
			break
		}
		nIter = next
	}
	return nil
}

// Collect executes the benchmark and gathers its results. The Done result is not included.
func (b Benchmark) Collect(ctx context.Context) ([]pipeline.Result, error) {
	c := make(chan pipeline.Result)
	go b.Execute(ctx, c)

	var results []pipeline.Result
	for result := range c {
		switch result.Type {
		case pipeline.Error:
			// Drain so that Execute can return.
			for range c {
			}
			return results, result.Error
		case pipeline.Done:
			continue
		}
		results = append(results, result)
	}
	return results, nil
}
