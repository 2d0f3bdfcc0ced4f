package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run identifies one fit of a solver on a dataset. Runs of an incremental solver share the
// dataset and solver but differ in Iteration and NIter.
type Run struct {
	ID        string
	Objective string
	Dataset   string
	Solver    string
	Iteration int
	NIter     int
	Elapsed   time.Duration
}

// NewRun creates a run with a fresh identifier.
func NewRun(objective, dataset, solver string, iteration, nIter int) Run {
	return Run{
		ID:        uuid.New().String(),
		Objective: objective,
		Dataset:   dataset,
		Solver:    solver,
		Iteration: iteration,
		NIter:     nIter,
	}
}

func (r Run) String() string {
	return fmt.Sprintf("%s/%s/%s[%d]", r.Objective, r.Dataset, r.Solver, r.NIter)
}
