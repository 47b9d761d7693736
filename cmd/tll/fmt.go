package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/parser"
	"github.com/thomasrohde/tll/pkg/runtime"
)

func (a *app) newFmtCmd() *cobra.Command {
	var (
		write bool
		to    string
	)
	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Print a program in canonical form",
		Long: `Print a program in canonical form. --to converts between JSON and YAML.
Comments in YAML input are not preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(a.format(args[0], to, write))
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "rewrite the file in place")
	cmd.Flags().StringVar(&to, "to", "", "output format: json or yaml (default: same as input)")
	return cmd
}

func (a *app) format(path, to string, write bool) int {
	source, filename, err := a.readSource(path)
	if err != nil {
		return a.reportError(err, false)
	}
	if write && path == "-" {
		fmt.Fprintln(a.stderr, "error: --write needs a file")
		return runtime.ExitUsage
	}

	target := parser.DetectFormat(filename)
	if to != "" {
		if target, err = parser.ParseFormat(to); err != nil {
			fmt.Fprintf(a.stderr, "error: %s\n", err)
			return runtime.ExitUsage
		}
	}

	formatted, err := runtime.New(runtime.WithLogger(a.logger)).Format(source, filename, target)
	if err != nil {
		return a.reportError(err, false)
	}

	if write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(a.stderr, "error writing file: %s\n", err)
			return runtime.ExitUsage
		}
		a.logger.Debug("formatted", "file", path, "to", target)
		return runtime.ExitOK
	}
	fmt.Fprint(a.stdout, formatted)
	return runtime.ExitOK
}
