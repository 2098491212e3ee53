package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GT-610/chaos-translator/internal/language"
)

type listOptions struct {
	eligibleOnly bool
}

func newListCmd() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			catalog := language.Default()
			fmt.Fprintln(out, "Supported Languages (* = eligible as a random hop):")
			for _, e := range catalog.Entries() {
				if opts.eligibleOnly && !e.Eligible {
					continue
				}
				mark := " "
				if e.Eligible {
					mark = "*"
				}
				fmt.Fprintf(out, "  %s %-25s [%s]\n", mark, e.Name, e.Code)
			}
			fmt.Fprintf(out, "%d languages, %d eligible hops\n", len(catalog.Entries()), len(catalog.Eligible()))
		},
	}
	cmd.Flags().BoolVar(&opts.eligibleOnly, "eligible", false, "Show only languages eligible as random hops")
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
