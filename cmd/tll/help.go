package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/tll/pkg/help"
	"github.com/thomasrohde/tll/pkg/runtime"
)

func (a *app) newHelpCmd() *cobra.Command {
	var index bool
	cmd := &cobra.Command{
		Use:   "help [topic]",
		Short: "Show the quick reference or a help topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 1 {
				topic = args[0]
			}

			if index {
				if topic != "" && topic != "operators" {
					fmt.Fprintln(a.stderr, "error: --index is only supported for the operators topic")
					return exitWith(runtime.ExitUsage)
				}
				fmt.Fprint(a.stdout, help.OperatorIndex())
				return nil
			}

			if topic == "" {
				fmt.Fprint(a.stdout, help.QUICKREF)
				return nil
			}

			_, content, err := help.MatchTopic(topic)
			if err == nil {
				fmt.Fprint(a.stdout, content)
				return nil
			}
			// Not a topic, but a command name shows that command's usage.
			if sub, _, ferr := cmd.Root().Find([]string{topic}); ferr == nil && sub != cmd.Root() {
				return sub.Help()
			}
			fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
			return exitWith(runtime.ExitUsage)
		},
	}
	cmd.Flags().BoolVar(&index, "index", false, "list operators with their arity")
	return cmd
}
