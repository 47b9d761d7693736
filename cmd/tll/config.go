package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "# source: %s\n", a.cfg.Source)
			if len(a.cfg.Overrides) > 0 {
				fmt.Fprintf(a.stdout, "# overrides: %s\n", strings.Join(a.cfg.Overrides, ", "))
			}
			fmt.Fprint(a.stdout, out)
			return nil
		},
	}
}
