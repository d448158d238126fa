package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	generaapi "genera/pkg/genera"
)

// runSelector is the --run-id/--latest pair shared by the read commands.
type runSelector struct {
	runID  string
	latest bool
	limit  int
}

func (s *runSelector) bind(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().StringVar(&s.runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&s.latest, "latest", false, "use the most recent run")
	cmd.Flags().IntVar(&s.limit, "limit", defaultLimit, "max rows, 0 for all")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
}

func newRunsCmd(g *globalOptions) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Runs(cmd.Context(), generaapi.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "run_id=%s created_at=%s problem=%s strategy=%s seed=%d pop=%s gens=%s final_best_fitness=%s\n",
					item.RunID,
					item.CreatedAtUTC,
					item.Problem,
					item.Strategy,
					item.Seed,
					humanize.Comma(int64(item.Population)),
					humanize.Comma(int64(item.Generations)),
					humanize.FtoaWithDigits(item.FinalBestFitness, 6),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		sel    runSelector
		format string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the recorded statistics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			table, err := client.History(cmd.Context(), generaapi.HistoryRequest{RunID: sel.runID, Latest: sel.latest, Limit: sel.limit})
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "csv":
				return table.WriteCSV(cmd.OutOrStdout())
			case "json":
				return table.WriteJSON(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported history format: %s", format)
			}
		},
	}
	sel.bind(cmd, 0)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

func newTopCmd(g *globalOptions) *cobra.Command {
	var (
		sel     runSelector
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the fittest individuals of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			top, err := client.Top(cmd.Context(), generaapi.TopRequest{RunID: sel.runID, Latest: sel.latest, Limit: sel.limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(top)
			}
			for _, item := range top {
				fmt.Fprintf(out, "rank=%d fitness=%s solution=%s\n",
					item.Rank,
					humanize.FtoaWithDigits(item.Fitness, 6),
					item.Solution,
				)
			}
			return nil
		},
	}
	sel.bind(cmd, 5)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit individuals as JSON")
	return cmd
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		sel    runSelector
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts of a run to the exports directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Export(cmd.Context(), generaapi.ExportRequest{RunID: sel.runID, Latest: sel.latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&sel.runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&sel.latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory, defaults to --exports-dir")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	return cmd
}
