package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/diagnostics"
	"github.com/thomasrohde/tll/pkg/evaluator"
	"github.com/thomasrohde/tll/pkg/help"
	"github.com/thomasrohde/tll/pkg/parser"
)

const (
	promptMain  = "tll> "
	promptCont  = "...  "
	historyFile = ".tll_history"
)

var replError = color.New(color.FgRed).SprintFunc()

const replHelp = `Enter an instruction such as ["add", 1, 2]. Input continues over several
lines until it forms a complete program. Storage persists between inputs.

  :env     show allocated slots and bindings
  :reset   discard all storage and bindings
  :help    show this text
  :quit    leave the session
`

func (a *app) newReplCmd() *cobra.Command {
	var yamlInput bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session with a persistent environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := parser.FormatJSON
			if yamlInput {
				format = parser.FormatYAML
			}
			s := &replSession{
				ctx:    cmd.Context(),
				env:    evaluator.NewEnvironment(),
				format: format,
				budget: a.cfg.EvalBudget(),
				out:    a.stdout,
				errOut: a.stderr,
				logger: a.logger,
			}
			return exitWith(a.repl(s))
		},
	}
	cmd.Flags().BoolVar(&yamlInput, "yaml", false, "read YAML input; an empty line ends each entry")
	return cmd
}

func (a *app) repl(s *replSession) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(a.stdout, "TLL %s. Type :help for commands, :quit to exit.\n", help.Version)
	for {
		input, ok := s.read(ln.Prompt)
		if !ok {
			fmt.Fprintln(a.stdout)
			return 0
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		if quit := s.eval(input); quit {
			return 0
		}
	}
}

// replSession holds the state that survives between REPL inputs.
type replSession struct {
	ctx    context.Context
	env    *evaluator.Environment
	format parser.Format
	budget evaluator.Budget
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

// read collects lines until they form a complete program. JSON input is
// probed with the decoder; YAML input ends at an empty line. The second
// result is false at end of input.
func (s *replSession) read(prompt func(string) (string, error)) (string, bool) {
	var b strings.Builder
	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending entry.
			return "", true
		}

		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if s.format == parser.FormatYAML {
			if strings.TrimSpace(line) == "" {
				return b.String(), true
			}
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		if strings.TrimSpace(src) == "" {
			return src, true
		}
		if _, diags := parser.Parse(src, "<repl>"); parser.IsIncomplete(diags) {
			continue
		}
		return src, true
	}
}

// eval runs one input and reports whether the session should end.
func (s *replSession) eval(input string) bool {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(strings.ToLower(trimmed))
	}

	program, diags := parser.ParseAs(s.format, input, "<repl>")
	if len(diags) > 0 {
		s.printDiags(diags)
		return false
	}
	res, err := evaluator.ExecuteIn(s.ctx, s.env, program, evaluator.ExecOptions{
		Output: evaluator.NewWriterOutput(s.out),
		Budget: s.budget,
		RunID:  "repl",
	})
	if err != nil {
		var rtErr *evaluator.RuntimeError
		if errors.As(err, &rtErr) {
			s.printDiags([]diagnostics.Diagnostic{rtErr.Diagnostic()})
		} else {
			fmt.Fprintln(s.errOut, replError(err.Error()))
		}
		return false
	}
	s.logger.Debug("repl eval", "steps", res.Tracker.Steps, "cursor", s.env.Cursor())
	fmt.Fprintf(s.out, "%s %s\n", resultMarker("=>"), evaluator.ValueToJSONString(res.Value))
	return false
}

func (s *replSession) command(cmd string) bool {
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":reset":
		s.env = evaluator.NewEnvironment()
		fmt.Fprintln(s.out, "storage cleared")
	case ":env":
		s.printEnv()
	case ":help":
		fmt.Fprint(s.out, replHelp)
	default:
		fmt.Fprintf(s.out, "unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

func (s *replSession) printEnv() {
	if !s.env.Allocated() {
		fmt.Fprintln(s.out, "storage not initialized")
		return
	}
	fmt.Fprintf(s.out, "capacity %d, cursor %d\n", s.env.Capacity(), s.env.Cursor())
	slots := s.env.Slots()
	for _, name := range s.env.Names() {
		idx, _ := s.env.Binding(name)
		val := "(beyond capacity)"
		if idx < len(slots) {
			val = evaluator.ValueToJSONString(slots[idx])
		}
		fmt.Fprintf(s.out, "  %s -> [%d] %s\n", name, idx, val)
	}
}

func (s *replSession) printDiags(diags []diagnostics.Diagnostic) {
	fmt.Fprintln(s.errOut, replError(diagnostics.FormatDiagnostics(diags, true)))
}
