package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	generaapi "genera/pkg/genera"
)

func newCheckpointCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Save or load checkpoint files",
	}
	cmd.AddCommand(newCheckpointSaveCmd(g), newCheckpointLoadCmd(g))
	return cmd
}

func newCheckpointSaveCmd(g *globalOptions) *cobra.Command {
	var (
		runID     string
		latest    bool
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Write the latest checkpoint of a run to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.SaveCheckpoint(cmd.Context(), generaapi.SaveCheckpointRequest{
				RunID:     runID,
				Latest:    latest,
				Path:      args[0],
				Overwrite: overwrite,
			})
			if err != nil {
				return err
			}
			printCheckpoint(cmd.OutOrStdout(), "saved", summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the most recent run")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	return cmd
}

func newCheckpointLoadCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Validate a checkpoint file and add it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.LoadCheckpoint(cmd.Context(), generaapi.LoadCheckpointRequest{Path: args[0]})
			if err != nil {
				return err
			}
			printCheckpoint(cmd.OutOrStdout(), "loaded", summary)
			return nil
		},
	}
}

func printCheckpoint(w io.Writer, verb string, s generaapi.CheckpointSummary) {
	fmt.Fprintf(w, "%s checkpoint_id=%s run_id=%s problem=%s generation=%s individuals=%s best_fitness=%s path=%s\n",
		verb,
		s.ID,
		s.RunID,
		s.Problem,
		humanize.Comma(int64(s.Generation)),
		humanize.Comma(int64(s.Individuals)),
		humanize.FtoaWithDigits(s.BestFitness, 6),
		s.Path,
	)
}
