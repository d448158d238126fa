package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"genera/internal/config"
	"genera/internal/metrics"
	generaapi "genera/pkg/genera"
)

type runFlags struct {
	configPath      string
	runID           string
	problem         string
	strategy        string
	population      int
	generations     int
	period          int
	seed            int64
	workers         int
	chromosomeSize  int
	layout          string
	islands         int
	migrateProb     float64
	goal            float64
	stats           []string
	verbose         bool
	memory          bool
	checkpoint      string
	overwrite       bool
	metricsTextfile string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "run configuration file (YAML or JSON)")
	flags.StringVar(&f.runID, "run-id", "", "explicit run id")
	flags.StringVar(&f.problem, "problem", config.DefaultProblem, "problem name")
	flags.StringVar(&f.strategy, "strategy", "standard", "population strategy")
	flags.IntVar(&f.population, "pop", config.DefaultPopulation, "population size")
	flags.IntVar(&f.generations, "gens", config.DefaultGenerations, "number of transitions")
	flags.IntVar(&f.period, "period", 1, "history sampling period")
	flags.Int64Var(&f.seed, "seed", 1, "random seed")
	flags.IntVar(&f.workers, "workers", 0, "parallel fitness evaluations, 0 for GOMAXPROCS")
	flags.IntVar(&f.chromosomeSize, "size", 0, "chromosome size, 0 for the problem default")
	flags.StringVar(&f.layout, "layout", config.LayoutSingle, "species layout: empty, island or dual")
	flags.IntVar(&f.islands, "islands", 1, "number of island populations")
	flags.Float64Var(&f.migrateProb, "migrate-prob", 0.5, "migration probability between islands")
	flags.Float64Var(&f.goal, "goal", 0, "stop once the best fitness reaches this value")
	flags.StringSliceVar(&f.stats, "stats", nil, "statistics to record, e.g. best_fitness,mean_fitness")
	flags.BoolVar(&f.verbose, "verbose", false, "print one line per sampled generation")
	flags.BoolVar(&f.memory, "memory", false, "score individuals by the best state they have reached")
	flags.StringVar(&f.checkpoint, "checkpoint", "", "also write the final checkpoint to this file")
	flags.BoolVar(&f.overwrite, "overwrite", false, "allow replacing an existing checkpoint file")
	flags.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
}

// resolveRunConfig loads --config when given and lets explicitly set flags
// override it. Settings that live on the root command are taken from the
// file unless their flag was set.
func resolveRunConfig(cmd *cobra.Command, f *runFlags, g *globalOptions) (config.RunConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("run-id") {
		cfg.RunID = f.runID
	}
	if changed("problem") {
		cfg.Problem = f.problem
	}
	if changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if changed("pop") {
		cfg.Population.Size = f.population
	}
	if changed("gens") {
		cfg.Generations = f.generations
	}
	if changed("period") {
		cfg.Period = f.period
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("workers") {
		cfg.Population.Workers = f.workers
	}
	if changed("size") {
		cfg.Chromosome.Size = f.chromosomeSize
	}
	if changed("layout") {
		cfg.Species.Layout = f.layout
	}
	if changed("islands") {
		cfg.Species.Islands = f.islands
	}
	if changed("migrate-prob") {
		cfg.Species.MigrateProb = f.migrateProb
	}
	if changed("goal") {
		goal := f.goal
		cfg.FitnessGoal = &goal
	}
	if changed("stats") {
		cfg.Stats = f.stats
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("memory") {
		cfg.Memory = f.memory
	}
	if changed("checkpoint") {
		cfg.Checkpoint = f.checkpoint
	}
	if changed("overwrite") {
		cfg.Overwrite = f.overwrite
	}
	if changed("metrics-textfile") {
		cfg.MetricsTextfile = f.metricsTextfile
	}

	if f.configPath != "" {
		if !changed("store") && cfg.Store.Kind != "" {
			g.store = cfg.Store.Kind
		}
		if !changed("db-path") && cfg.Store.Path != "" {
			g.dbPath = cfg.Store.Path
		}
		if !changed("artifacts-dir") && cfg.ArtifactsDir != "" {
			g.artifactsDir = cfg.ArtifactsDir
		}
		if !changed("log-level") && cfg.Log.Level != "" {
			g.logLevel = cfg.Log.Level
		}
		if !changed("log-format") && cfg.Log.Format != "" {
			g.logFormat = cfg.Log.Format
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, err
	}
	return cfg, nil
}

func newRunCmd(g *globalOptions) *cobra.Command {
	f := &runFlags{}
	var (
		resume     string
		resumeFile string
		printCfg   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a problem and record its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveRunConfig(cmd, f, g)
			if err != nil {
				return err
			}
			if printCfg {
				data, err := cfg.Encode()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			var rec *metrics.Recorder
			if cfg.MetricsTextfile != "" {
				rec = metrics.New()
			}
			client, err := g.client(cmd, rec)
			if err != nil {
				return err
			}
			defer client.Close()

			req := generaapi.RunRequestFromConfig(cfg)
			req.Resume = resume
			req.ResumeFile = resumeFile
			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if rec != nil {
				if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s transitions=%s stopped_early=%t final_best_fitness=%s elapsed=%s artifacts=%s\n",
				summary.RunID,
				humanize.Comma(int64(summary.Generations)),
				summary.Stopped,
				humanize.FtoaWithDigits(summary.FinalBestFitness, 6),
				humanize.SIWithDigits(summary.Elapsed.Seconds(), 2, "s"),
				summary.ArtifactsDir,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "best_solution=%s\n", summary.BestSolution)
			return nil
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().StringVar(&resume, "resume", "", "continue from the latest checkpoint of this run id")
	cmd.Flags().StringVar(&resumeFile, "resume-file", "", "continue from this checkpoint file")
	cmd.Flags().BoolVar(&printCfg, "print-config", false, "print the resolved configuration and exit")
	cmd.MarkFlagsMutuallyExclusive("resume", "resume-file")
	return cmd
}

func newPerfCmd(g *globalOptions) *cobra.Command {
	f := &runFlags{}
	var (
		repeats int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "perf",
		Short: "Repeat a run with consecutive seeds and average the histories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveRunConfig(cmd, f, g)
			if err != nil {
				return err
			}
			client, err := g.client(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Perf(cmd.Context(), generaapi.PerfRequest{
				Run:     generaapi.RunRequestFromConfig(cfg),
				Repeats: repeats,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s repeats=%d mean_elapsed_ms=%s initial_best=%s final_best=%s improvement=%s\n",
				summary.RunID,
				summary.Repeats,
				humanize.FtoaWithDigits(summary.MeanElapsedMS, 2),
				humanize.FtoaWithDigits(summary.InitialBest, 6),
				humanize.FtoaWithDigits(summary.FinalBest, 6),
				humanize.FtoaWithDigits(summary.Improvement, 6),
			)
			return nil
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().IntVar(&repeats, "repeats", 5, "number of repeated runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the summary as JSON")
	return cmd
}
