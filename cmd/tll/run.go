package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/evaluator"
	"github.com/thomasrohde/tll/pkg/parser"
	"github.com/thomasrohde/tll/pkg/runtime"
)

var resultMarker = color.New(color.FgGreen).SprintFunc()

type runFlags struct {
	json      bool
	strict    bool
	pretty    bool
	tracePath string
	format    string
	jobs      int
	runID     string
}

func (a *app) newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <file|-> [more files]",
		Short: "Evaluate programs and print their results",
		Long: `Evaluate each program against a fresh environment. Printed values go to
stdout, followed by "=> <result>". With several files, programs run
concurrently (see --jobs) and output is emitted in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return exitWith(a.runSingle(cmd.Context(), args[0], f))
			}
			return exitWith(a.runMany(cmd.Context(), args, f))
		},
	}
	cmd.Flags().BoolVar(&f.json, "json", false, "print only the result as JSON")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "validate before running")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "human-readable diagnostics")
	cmd.Flags().StringVar(&f.tracePath, "trace", "", "write NDJSON trace events to `path`")
	cmd.Flags().StringVar(&f.format, "format", "", "input format: json or yaml (default from file extension)")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "programs to run at once with several files (0 = all)")
	cmd.Flags().StringVar(&f.runID, "run-id", "cli", "run ID recorded in trace events")
	return cmd
}

// traceSink writes trace events as NDJSON.
type traceSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	err  error
}

func openTrace(path string) (*traceSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &traceSink{file: f, enc: json.NewEncoder(f)}, nil
}

func (s *traceSink) write(e evaluator.TraceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = s.enc.Encode(e)
	}
}

func (s *traceSink) Close() error {
	cerr := s.file.Close()
	if s.err != nil {
		return s.err
	}
	return cerr
}

func (a *app) runtimeOptions(f *runFlags) []runtime.Option {
	return []runtime.Option{
		runtime.WithBudget(a.cfg.EvalBudget()),
		runtime.WithStrict(f.strict),
		runtime.WithRunID(f.runID),
		runtime.WithLogger(a.logger),
	}
}

func (a *app) withTrace(f *runFlags, opts []runtime.Option) ([]runtime.Option, func(), error) {
	if f.tracePath == "" {
		return opts, func() {}, nil
	}
	sink, err := openTrace(f.tracePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := sink.Close(); err != nil {
			a.logger.Warn("writing trace failed", "path", f.tracePath, "err", err)
		}
	}
	return append(opts, runtime.WithTrace(sink.write)), closeFn, nil
}

func (a *app) runSingle(ctx context.Context, path string, f *runFlags) int {
	pretty := a.pretty(f.pretty)
	source, filename, err := a.readSource(path)
	if err != nil {
		return a.reportError(err, pretty)
	}

	format := parser.DetectFormat(filename)
	if f.format != "" {
		if format, err = parser.ParseFormat(f.format); err != nil {
			fmt.Fprintf(a.stderr, "error: %s\n", err)
			return runtime.ExitUsage
		}
	}

	opts, closeTrace, err := a.withTrace(f, a.runtimeOptions(f))
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n", err)
		return runtime.ExitUsage
	}
	defer closeTrace()

	opts = append(opts, runtime.WithOutput(evaluator.NewWriterOutput(a.stdout)))
	result, err := runtime.New(opts...).RunAs(ctx, format, source, filename)
	if err != nil {
		return a.reportError(err, pretty)
	}
	a.printResult(result.Value, f.json)
	return runtime.ExitOK
}

func (a *app) runMany(ctx context.Context, files []string, f *runFlags) int {
	pretty := a.pretty(f.pretty)
	if f.format != "" {
		fmt.Fprintln(a.stderr, "error: --format applies to a single program; batch runs use file extensions")
		return runtime.ExitUsage
	}

	opts, closeTrace, err := a.withTrace(f, a.runtimeOptions(f))
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n", err)
		return runtime.ExitUsage
	}
	defer closeTrace()

	results := runtime.New(opts...).RunBatch(ctx, files, f.jobs)
	status := runtime.ExitOK
	for _, r := range results {
		if !f.json {
			fmt.Fprintf(a.stdout, "== %s\n", r.File)
		}
		fmt.Fprint(a.stdout, r.Output)
		if r.Err != nil {
			if code := a.reportError(r.Err, pretty); code > status {
				status = code
			}
			continue
		}
		a.printResult(r.Result.Value, f.json)
	}
	return status
}

func (a *app) printResult(v evaluator.Value, asJSON bool) {
	if asJSON {
		fmt.Fprintln(a.stdout, evaluator.ValueToJSONString(v))
		return
	}
	fmt.Fprintf(a.stdout, "%s %s\n", resultMarker("=>"), evaluator.ValueToJSONString(v))
}
