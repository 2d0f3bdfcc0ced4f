package config_test

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hscells/brainage/config"
	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/solver"
)

const tomlConfig = `
[objective]
test_size = 0.3
seed = 7
max_runs = 5
evaluations = ["RMSE", "MAE"]

[[dataset]]
name = "Simulated"
sizes = [[20, 4], [12, 3]]
random_state = [1, 2]

[[dataset]]
name = "ds004584"
root = "/data/ds004584"
max_subjects = 4
n_jobs = 2

[dataset.preprocess]
notch_freq = 50
l_freq = 1
h_freq = 40
sfreq = 100

[[solver]]
name = "dummy"

[[solver]]
name = "spoc"
subsample = true
rank = [2, 3]
reg = [1e-5, 1e-3]
`

const yamlConfig = `
objective:
  test_size: 0.25
datasets:
  - name: Simulated
    sizes: [[10, 3]]
solvers:
  - name: diag
    bands_subset: [all]
`

func TestDecodeTOML(t *testing.T) {
	c, err := config.Decode(strings.NewReader(tomlConfig), ".toml")
	if err != nil {
		t.Fatal(err)
	}
	if c.Objective.TestSize != 0.3 || c.Objective.Seed != 7 || c.Objective.MaxRuns != 5 {
		t.Errorf("unexpected objective %+v", c.Objective)
	}
	if len(c.Datasets) != 2 || len(c.Solvers) != 2 {
		t.Fatalf("expected two datasets and two solvers, got %d and %d", len(c.Datasets), len(c.Solvers))
	}
	if p := c.Datasets[1].Preprocess; p == nil || p.NotchFreq != 50 || p.SFreq != 100 {
		t.Errorf("unexpected preprocessing %+v", p)
	}

	b, err := c.Benchmark()
	if err != nil {
		t.Fatal(err)
	}
	// Two sizes by two seeds, plus the EEG dataset.
	if len(b.Datasets) != 5 {
		t.Errorf("expected 5 datasets, got %d", len(b.Datasets))
	}
	// The dummy, plus a 2x2 spoc grid.
	if len(b.Solvers) != 5 {
		t.Errorf("expected 5 solvers, got %d", len(b.Solvers))
	}
	if b.MaxRuns != 5 || len(b.Evaluations) != 2 {
		t.Errorf("unexpected runner settings %d %v", b.MaxRuns, b.Evaluations)
	}
	if b.Objective.TestSize != 0.3 || b.Objective.Seed != 7 {
		t.Errorf("unexpected objective %+v", b.Objective)
	}

	bids, ok := b.Datasets[4].(*dataset.BIDS)
	if !ok {
		t.Fatalf("expected a BIDS dataset, got %T", b.Datasets[4])
	}
	if bids.MaxSubjects != 4 || bids.NJobs != 2 || bids.Preprocess.HighFreq != 40 {
		t.Errorf("unexpected BIDS dataset %+v", bids)
	}
	if sim, ok := b.Datasets[1].(*dataset.Simulated); !ok || sim.NSamples != 20 || sim.Seed != 2 {
		t.Errorf("unexpected simulated dataset %v", b.Datasets[1])
	}

	s := b.Solvers[1]()
	sub, ok := s.(*solver.Subsample)
	if !ok {
		t.Fatalf("expected a subsampled solver, got %T", s)
	}
	spoc, ok := sub.Solver.(*solver.FilterBank)
	if !ok {
		t.Fatalf("expected a filter bank solver, got %T", sub.Solver)
	}
	if spoc.Params.Rank != 2 || spoc.Params.Reg != 1e-5 {
		t.Errorf("unexpected first grid point %+v", spoc.Params)
	}
	last := b.Solvers[4]().(*solver.Subsample).Solver.(*solver.FilterBank)
	if last.Params.Rank != 3 || last.Params.Reg != 1e-3 {
		t.Errorf("unexpected last grid point %+v", last.Params)
	}

	datasetNames := map[string]bool{}
	for _, d := range b.Datasets {
		datasetNames[d.Name()] = true
	}
	if len(datasetNames) != len(b.Datasets) {
		t.Errorf("every dataset of the grid should have its own name, got %v", datasetNames)
	}
	solverNames := map[string]bool{}
	for _, f := range b.Solvers {
		solverNames[f().Name()] = true
	}
	if len(solverNames) != len(b.Solvers) {
		t.Errorf("every solver of the grid should have its own name, got %v", solverNames)
	}
}

func TestDecodeYAML(t *testing.T) {
	c, err := config.Decode(strings.NewReader(yamlConfig), ".yml")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Benchmark()
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Datasets) != 1 || len(b.Solvers) != 1 {
		t.Fatalf("unexpected benchmark %+v", b)
	}
	d := b.Solvers[0]().(*solver.FilterBank)
	if len(d.Subset) != 1 || d.Subset[0] != "all" {
		t.Errorf("unexpected subset %v", d.Subset)
	}

	if _, err := config.Decode(strings.NewReader("objective:\n  test_sze: 0.2\n"), ".yaml"); err == nil {
		t.Error("expected an error for an unknown field")
	}
	if _, err := config.Decode(strings.NewReader(""), ".ini"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := ioutil.WriteFile(path, []byte(yamlConfig), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Solvers) != 1 || c.Solvers[0].Name != "diag" {
		t.Errorf("unexpected solvers %+v", c.Solvers)
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestGrid(t *testing.T) {
	g := config.Grid(2, 0, 3)
	if len(g) != 6 {
		t.Fatalf("expected 6 points, got %d", len(g))
	}
	if g[0][0] != 0 || g[0][1] != -1 || g[0][2] != 0 {
		t.Errorf("unexpected first point %v", g[0])
	}
	if g[5][0] != 1 || g[5][2] != 2 {
		t.Errorf("unexpected last point %v", g[5])
	}
	if len(config.Grid()) != 1 {
		t.Error("an empty grid has a single point")
	}
}

func TestDefault(t *testing.T) {
	c := config.Default()
	b, err := c.Benchmark()
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Datasets) != 2 || len(b.Solvers) != 3 {
		t.Errorf("expected two datasets and three solvers, got %d and %d", len(b.Datasets), len(b.Solvers))
	}
	names := map[string]bool{}
	for _, f := range b.Solvers {
		names[f().Name()] = true
	}
	for _, n := range []string{"dummy", "diag", "Source Power Comodulation (SPoC)[rank=full,reg=1e-05,scale=auto,shrink=0]"} {
		if !names[n] {
			t.Errorf("missing solver %s, got %v", n, names)
		}
	}

	only := c.Only("diag")
	if len(only.Solvers) != 1 || only.Solvers[0].Name != "diag" {
		t.Errorf("unexpected solvers %+v", only.Solvers)
	}
	if len(c.Only().Solvers) != 3 {
		t.Error("no names should keep every solver")
	}
	if _, err := c.Only("svm").Benchmark(); err == nil {
		t.Error("expected an error for a benchmark without solvers")
	}
}

func TestUnknownNames(t *testing.T) {
	for _, c := range []config.Config{
		{Datasets: []config.Dataset{{Name: "tuh"}}, Solvers: []config.Solver{{Name: "dummy"}}},
		{Datasets: []config.Dataset{{Name: "Simulated", Sizes: [][]int{{10, 2}}}}, Solvers: []config.Solver{{Name: "svm"}}},
		{Datasets: []config.Dataset{{Name: "Simulated"}}, Solvers: []config.Solver{{Name: "dummy"}}},
		{Datasets: []config.Dataset{{Name: "ds004584"}}, Solvers: []config.Solver{{Name: "dummy"}}},
		{Datasets: []config.Dataset{{Name: "Simulated", Sizes: [][]int{{10, 2}}}}, Solvers: []config.Solver{{Name: "spoc", Shrink: []float64{2}}}},
		{Objective: config.Objective{Evaluations: []string{"AUC"}}, Datasets: []config.Dataset{{Name: "Simulated", Sizes: [][]int{{10, 2}}}}, Solvers: []config.Solver{{Name: "dummy"}}},
	} {
		if _, err := c.Benchmark(); err == nil {
			t.Errorf("expected an error for %+v", c)
		}
	}
}
