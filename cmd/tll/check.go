package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/runtime"
)

func (a *app) newCheckCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "check <file|->",
		Short: "Decode and validate a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(a.check(args[0], a.pretty(pretty)))
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "human-readable diagnostics")
	return cmd
}

func (a *app) check(path string, pretty bool) int {
	source, filename, err := a.readSource(path)
	if err != nil {
		return a.reportError(err, pretty)
	}

	rt := runtime.New(runtime.WithLogger(a.logger))
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		a.printDiags(diags, pretty)
		return runtime.ExitDiag
	}

	if pretty {
		fmt.Fprintln(a.stdout, "No errors found.")
	} else {
		fmt.Fprintln(a.stdout, "[]")
	}
	return runtime.ExitOK
}
