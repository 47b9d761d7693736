package main

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/help"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "tll %s (%s %s/%s)\n", help.Version, goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
		},
	}
}
