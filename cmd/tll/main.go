// Command tll is the TLL evaluator CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/internal/logging"
	"github.com/thomasrohde/tll/pkg/config"
	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError carries a process exit status out of a command whose
// diagnostics were already written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitWith(code int) error {
	if code == runtime.ExitOK {
		return nil
	}
	return &exitError{code: code}
}

// app is the state shared by all commands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return runtime.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return runtime.ExitUsage
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tll",
		Short: "TLL evaluates programs written as nested instruction lists",
		Long: `tll runs programs written as nested JSON (or YAML) lists such as
["seq", ["array", "new", 2], ["set", "x", 1], ["print", ["get", "x"]]].`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")

	root.AddCommand(
		a.newRunCmd(),
		a.newCheckCmd(),
		a.newFmtCmd(),
		a.newReplCmd(),
		a.newTraceCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)
	root.SetHelpCommand(a.newHelpCmd())
	return root
}

// setup loads configuration and builds the logger. The --log-level flag
// wins over the config file and environment.
func (a *app) setup() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(a.stderr, level, cfg.Output.Pretty)
	a.logger.Debug("config loaded", "source", cfg.Source, "overrides", cfg.Overrides)
	return nil
}

// pretty reports whether human-readable diagnostics were requested by flag
// or by config.
func (a *app) pretty(flag bool) bool {
	return flag || (a.cfg != nil && a.cfg.Output.Pretty)
}

func (a *app) printDiags(diags []diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, pretty))
}

// reportError prints err as diagnostics and returns its exit status.
func (a *app) reportError(err error, pretty bool) int {
	var dErr *runtime.DiagnosticError
	var rtErr interface{ Diagnostic() diagnostics.Diagnostic }
	switch {
	case errors.As(err, &dErr):
		a.printDiags(dErr.Diagnostics, pretty)
	case errors.As(err, &rtErr):
		a.printDiags([]diagnostics.Diagnostic{rtErr.Diagnostic()}, pretty)
	default:
		fmt.Fprintf(a.stderr, "error: %s\n", err)
	}
	return runtime.ExitCode(err)
}

// readSource reads a program from path, or from stdin when path is "-".
func (a *app) readSource(path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", ioError("stdin", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", ioError(path, err)
	}
	return string(data), path, nil
}

func ioError(path string, err error) error {
	return &runtime.DiagnosticError{Diagnostics: []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read %s: %s", path, err), nil, ""),
	}}
}
