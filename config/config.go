// Package config reads benchmark descriptions from TOML or YAML files and turns them into a
// runnable benchmark. List-valued parameters form a grid: one dataset or solver is created for
// every combination of their values.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hscells/brainage"
	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/eval"
	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/filterbank"
	"github.com/hscells/brainage/objective"
	"github.com/hscells/brainage/preprocess"
	"github.com/hscells/brainage/solver"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is a complete benchmark description.
type Config struct {
	Objective Objective `toml:"objective" yaml:"objective"`
	Datasets  []Dataset `toml:"dataset" yaml:"datasets"`
	Solvers   []Solver  `toml:"solver" yaml:"solvers"`
}

// Objective configures the train/test split and the runner.
type Objective struct {
	TestSize    float64  `toml:"test_size" yaml:"test_size"`
	Seed        int64    `toml:"seed" yaml:"seed"`
	MaxRuns     int      `toml:"max_runs" yaml:"max_runs"`
	Evaluations []string `toml:"evaluations" yaml:"evaluations"`
}

// Dataset configures one dataset provider. Name selects the provider: ds004584, camcan or
// Simulated. Fields that do not apply to the provider are ignored.
type Dataset struct {
	Name        string             `toml:"name" yaml:"name"`
	Root        string             `toml:"root" yaml:"root"`
	Archive     string             `toml:"archive" yaml:"archive"`
	Extension   string             `toml:"extension" yaml:"extension"`
	CachePath   string             `toml:"cache" yaml:"cache"`
	NJobs       int                `toml:"n_jobs" yaml:"n_jobs"`
	MaxSubjects int                `toml:"max_subjects" yaml:"max_subjects"`
	Progress    bool               `toml:"progress" yaml:"progress"`
	Bands       []features.Band    `toml:"bands" yaml:"bands"`
	Preprocess  *preprocess.Params `toml:"preprocess" yaml:"preprocess"`
	Features    *features.Params   `toml:"features" yaml:"features"`
	// Sizes are (n_samples, n_features) pairs of a simulated dataset.
	Sizes  [][]int `toml:"sizes" yaml:"sizes"`
	Seeds  []int64 `toml:"random_state" yaml:"random_state"`
	SigmaN float64 `toml:"sigma_n" yaml:"sigma_n"`
	SigmaY float64 `toml:"sigma_y" yaml:"sigma_y"`
}

// Solver configures one solver. Name selects the solver: dummy, diag or spoc. The projection
// parameters of spoc are grids. Without bands, a solver uses the bands of the dataset.
type Solver struct {
	Name      string          `toml:"name" yaml:"name"`
	Subsample bool            `toml:"subsample" yaml:"subsample"`
	Subset    []string        `toml:"bands_subset" yaml:"bands_subset"`
	Bands     []features.Band `toml:"bands" yaml:"bands"`
	Rank      []int           `toml:"rank" yaml:"rank"`
	Reg       []float64       `toml:"reg" yaml:"reg"`
	Scale     []float64       `toml:"scale" yaml:"scale"`
	Shrink    []float64       `toml:"shrink" yaml:"shrink"`
}

// Evaluators maps the names accepted in configurations to evaluation measures.
var Evaluators = map[string]eval.Evaluator{
	eval.R2.Name():   eval.R2,
	eval.MAE.Name():  eval.MAE,
	eval.MSE.Name():  eval.MSE,
	eval.RMSE.Name(): eval.RMSE,
}

// Default is the benchmark run when no configuration is given: the two simulated datasets with
// the dummy, diag and spoc solvers.
func Default() Config {
	return Config{
		Objective: Objective{TestSize: 0.25, MaxRuns: brainage.DefaultMaxRuns},
		Datasets: []Dataset{{
			Name:  "Simulated",
			Sizes: [][]int{{10, 30}, {5, 30}},
			Seeds: []int64{20},
		}},
		Solvers: []Solver{
			{Name: "dummy"},
			{Name: "diag"},
			{Name: "spoc", Reg: []float64{1e-5}},
		},
	}
}

// Load reads a configuration file. The format follows the file extension.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	c, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return c, nil
}

// Decode reads a configuration in the format named by ext (.toml, .yaml or .yml).
func Decode(r io.Reader, ext string) (Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.DecodeReader(r, &c); err != nil {
			return c, err
		}
	case ".yaml", ".yml":
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		if err := d.Decode(&c); err != nil && err != io.EOF {
			return c, err
		}
	default:
		return c, errors.Errorf("unknown configuration format %q", ext)
	}
	return c, nil
}

// Grid enumerates the cross product of dimensions with the given lengths. The last dimension
// varies fastest. A dimension of length zero contributes a single index of -1, meaning unset.
func Grid(lengths ...int) [][]int {
	points := [][]int{{}}
	for _, n := range lengths {
		var next [][]int
		values := n
		if values == 0 {
			values = 1
		}
		for _, p := range points {
			for i := 0; i < values; i++ {
				q := append(append([]int(nil), p...), i)
				if n == 0 {
					q[len(q)-1] = -1
				}
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Only keeps the solvers with the given names. No names keeps every solver.
func (c Config) Only(names ...string) Config {
	if len(names) == 0 {
		return c
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var solvers []Solver
	for _, s := range c.Solvers {
		if keep[s.Name] {
			solvers = append(solvers, s)
		}
	}
	c.Solvers = solvers
	return c
}

// Benchmark builds the benchmark described by c.
func (c Config) Benchmark() (brainage.Benchmark, error) {
	var options []objective.Option
	if c.Objective.TestSize > 0 {
		options = append(options, objective.TestSize(c.Objective.TestSize))
	}
	options = append(options, objective.Seed(c.Objective.Seed))

	var evaluators []eval.Evaluator
	for _, name := range c.Objective.Evaluations {
		e, ok := Evaluators[name]
		if !ok {
			return brainage.Benchmark{}, errors.Errorf("unknown evaluation measure %s", name)
		}
		evaluators = append(evaluators, e)
	}

	var datasets []dataset.Dataset
	for _, d := range c.Datasets {
		ds, err := d.Build()
		if err != nil {
			return brainage.Benchmark{}, err
		}
		datasets = append(datasets, ds...)
	}
	var factories []solver.Factory
	for _, s := range c.Solvers {
		f, err := s.Build()
		if err != nil {
			return brainage.Benchmark{}, err
		}
		factories = append(factories, f...)
	}
	if len(datasets) == 0 || len(factories) == 0 {
		return brainage.Benchmark{}, errors.New("configuration needs at least one dataset and one solver")
	}

	components := []func() interface{}{
		brainage.Datasets(datasets...),
		brainage.Solvers(factories...),
		brainage.Evaluation(evaluators...),
	}
	if c.Objective.MaxRuns > 0 {
		components = append(components, brainage.MaxRuns(c.Objective.MaxRuns))
	}
	return brainage.NewBenchmark(objective.New(options...), components...), nil
}

// Build creates the datasets of the grid described by d.
func (d Dataset) Build() ([]dataset.Dataset, error) {
	switch d.Name {
	case "ds004584":
		if d.Root == "" {
			return nil, errors.New("ds004584 needs a root")
		}
		b := dataset.NewDS004584(d.Root)
		if d.Extension != "" {
			b.Extension = d.Extension
		}
		if d.MaxSubjects != 0 {
			b.MaxSubjects = d.MaxSubjects
		}
		if d.NJobs > 0 {
			b.NJobs = d.NJobs
		}
		if len(d.Bands) > 0 {
			b.Bands = d.Bands
		}
		if d.Preprocess != nil {
			b.Preprocess = *d.Preprocess
		}
		if d.Features != nil {
			b.Features = *d.Features
		}
		b.CachePath = d.CachePath
		b.Progress = d.Progress
		return []dataset.Dataset{b}, nil
	case "camcan":
		if d.Root == "" || d.Archive == "" {
			return nil, errors.New("camcan needs a root and an archive")
		}
		a := dataset.NewCamCAN(d.Root, d.Archive)
		if len(d.Bands) > 0 {
			a.Bands = d.Bands
		}
		return []dataset.Dataset{a}, nil
	case "Simulated":
		var datasets []dataset.Dataset
		for _, p := range Grid(len(d.Sizes), len(d.Seeds)) {
			if p[0] < 0 {
				return nil, errors.New("Simulated needs at least one size")
			}
			size := d.Sizes[p[0]]
			if len(size) != 2 {
				return nil, errors.Errorf("simulated size %v is not an (n_samples, n_features) pair", size)
			}
			s := dataset.NewSimulated(size[0], size[1])
			if p[1] >= 0 {
				s.Seed = d.Seeds[p[1]]
			}
			s.SigmaN, s.SigmaY = d.SigmaN, d.SigmaY
			datasets = append(datasets, s)
		}
		return datasets, nil
	}
	return nil, errors.Errorf("unknown dataset %q", d.Name)
}

// Build creates the solver factories of the grid described by s.
func (s Solver) Build() ([]solver.Factory, error) {
	var factories []solver.Factory
	switch s.Name {
	case "dummy":
		factories = append(factories, solver.NewDummy)
	case "diag":
		subset, bands := s.Subset, features.Bands(s.Bands)
		factories = append(factories, func() solver.Solver {
			d := solver.NewDiag()
			d.Subset = subset
			d.Bands = bands
			return d
		})
	case "spoc":
		for _, p := range Grid(len(s.Rank), len(s.Reg), len(s.Scale), len(s.Shrink)) {
			params := filterbank.ProjectionParams{Reg: 1e-5}
			if p[0] >= 0 {
				params.Rank = s.Rank[p[0]]
			}
			if p[1] >= 0 {
				params.Reg = s.Reg[p[1]]
			}
			if p[2] >= 0 {
				params.Scale = s.Scale[p[2]]
			}
			if p[3] >= 0 {
				params.Shrink = s.Shrink[p[3]]
			}
			if err := params.Validate(); err != nil {
				return nil, err
			}
			subset, bands := s.Subset, features.Bands(s.Bands)
			factories = append(factories, func() solver.Solver {
				f := solver.NewSPoC()
				f.Params = params
				f.Subset = subset
				f.Bands = bands
				return f
			})
		}
	default:
		return nil, errors.Errorf("unknown solver %q", s.Name)
	}

	if s.Subsample {
		for i, f := range factories {
			f := f
			factories[i] = func() solver.Solver {
				return solver.NewSubsample(f())
			}
		}
	}
	return factories, nil
}
