package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/hscells/brainage/config"
	"github.com/hscells/brainage/output"
	"github.com/hscells/brainage/pipeline"
)

var (
	name    = "brainage"
	version = "18.Oct.2026"
	author  = "Harry Scells"
)

type args struct {
	Format  string   `help:"format of the results (json/csv)" arg:"-o"`
	Write   string   `help:"file to write the results to (default stdout)" arg:"-w"`
	Solvers []string `help:"only run the solvers with these names" arg:"-s,separate"`
	Config  string   `help:"benchmark configuration (toml/yaml); the simulated benchmark when empty" arg:"positional"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
@ %s
# %s`, name, author, version)
}

func main() {
	args := args{Format: "json"}
	arg.MustParse(&args)

	if err := run(args); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, 0).ErrorStack())
		os.Exit(1)
	}
}

func run(args args) error {
	formatter, ok := output.Formatters[args.Format]
	if !ok {
		return errors.Errorf("unknown output format %s", args.Format)
	}

	c := config.Default()
	if len(args.Config) > 0 {
		var err error
		c, err = config.Load(args.Config)
		if err != nil {
			return err
		}
	}
	b, err := c.Only(args.Solvers...).Benchmark()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipelineChannel := make(chan pipeline.Result)
	go b.Execute(ctx, pipelineChannel)

	var results []pipeline.Result
	for result := range pipelineChannel {
		switch result.Type {
		case pipeline.Measurement:
			log.Printf("%s: %v\n", result.Dataset, result.Measurements)
		case pipeline.Evaluation:
			log.Printf("%s: value=%.4f (%s)\n", result.Run, result.Evaluations["value"], result.Elapsed)
			results = append(results, result)
		case pipeline.Error:
			// Drain the channel so the benchmark can finish.
			for range pipelineChannel {
			}
			return result.Error
		}
	}

	s, err := formatter(results)
	if err != nil {
		return err
	}
	if len(args.Write) > 0 {
		return ioutil.WriteFile(args.Write, []byte(s), 0644)
	}
	_, err = fmt.Fprint(os.Stdout, s)
	return err
}
