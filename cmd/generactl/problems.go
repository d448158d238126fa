package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"genera/internal/population"
	"genera/internal/problem"
)

func newProblemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "List the built-in problems and population strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, p := range problem.List() {
				optimum := "unknown"
				if p.Optimum != nil {
					if v, ok := p.Optimum(p.Params.Size); ok {
						optimum = humanize.FtoaWithDigits(v, 6)
					}
				}
				fmt.Fprintf(out, "problem=%s kind=%s size=%d optimum=%s description=%q\n",
					p.Name, p.Params.Kind, p.Params.Size, optimum, p.Description)
			}
			for _, name := range population.ListStrategies() {
				fmt.Fprintf(out, "strategy=%s\n", name)
			}
			return nil
		},
	}
}
