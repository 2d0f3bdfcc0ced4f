// Package pipeline describes the results streamed out of a benchmark as it executes.
package pipeline

// ResultType is the type of result being returned through a pipeline channel.
type ResultType uint8

const (
	// Measurement describes a dataset once it is loaded and split (e.g. number of subjects).
	Measurement ResultType = iota
	// Evaluation holds the metrics of one solver run.
	Evaluation
	// Error indicates an error was raised.
	Error
	// Done indicates the pipeline has completed.
	Done
)

func (t ResultType) String() string {
	switch t {
	case Measurement:
		return "measurement"
	case Evaluation:
		return "evaluation"
	case Error:
		return "error"
	case Done:
		return "done"
	}
	return "unknown"
}

// Result is the output of a benchmark pipeline.
type Result struct {
	Run
	Measurements map[string]float64
	Evaluations  map[string]float64
	Type         ResultType
	Error        error
}
