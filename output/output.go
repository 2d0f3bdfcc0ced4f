// Package output provides different formats of output for benchmark results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/hscells/brainage/pipeline"
)

// ResultFormatter is used to output the evaluations of a benchmark in various formats. Results
// that are not evaluations are ignored.
type ResultFormatter func(results []pipeline.Result) (string, error)

// Formatters maps the names accepted on the command line to formatters.
var Formatters = map[string]ResultFormatter{
	"json": JsonResultFormatter,
	"csv":  CsvResultFormatter,
}

type record struct {
	ID        string             `json:"id"`
	Objective string             `json:"objective"`
	Dataset   string             `json:"dataset"`
	Solver    string             `json:"solver"`
	Iteration int                `json:"iteration"`
	NIter     int                `json:"n_iter"`
	Time      float64            `json:"time"`
	Metrics   map[string]float64 `json:"metrics"`
}

func evaluations(results []pipeline.Result) []pipeline.Result {
	var e []pipeline.Result
	for _, r := range results {
		if r.Type == pipeline.Evaluation {
			e = append(e, r)
		}
	}
	return e
}

// metricNames returns the union of metric names, sorted.
func metricNames(results []pipeline.Result) []string {
	seen := make(map[string]struct{})
	for _, r := range results {
		for k := range r.Evaluations {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// JsonResultFormatter outputs results in a JSON format.
func JsonResultFormatter(results []pipeline.Result) (string, error) {
	records := []record{}
	for _, r := range evaluations(results) {
		records = append(records, record{
			ID:        r.ID,
			Objective: r.Objective,
			Dataset:   r.Dataset,
			Solver:    r.Solver,
			Iteration: r.Iteration,
			NIter:     r.NIter,
			Time:      r.Elapsed.Seconds(),
			Metrics:   r.Evaluations,
		})
	}
	v, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvResultFormatter outputs results in CSV format, one row per run and one column per metric.
func CsvResultFormatter(results []pipeline.Result) (string, error) {
	results = evaluations(results)
	metrics := metricNames(results)

	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	h := []string{"id", "objective", "dataset", "solver", "iteration", "n_iter", "time"}
	h = append(h, metrics...)
	if err := w.Write(h); err != nil {
		return "", err
	}
	for _, r := range results {
		row := []string{
			r.ID,
			r.Objective,
			r.Dataset,
			r.Solver,
			strconv.Itoa(r.Iteration),
			strconv.Itoa(r.NIter),
			strconv.FormatFloat(r.Elapsed.Seconds(), 'f', -1, 64),
		}
		for _, m := range metrics {
			v, ok := r.Evaluations[m]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
