package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "chaos: a lost-in-translation chain runner")
			fmt.Fprintln(out, "Feeds text through random translation hops and back to its source language.")
			fmt.Fprintln(out, "https://github.com/GT-610/chaos-translator")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
