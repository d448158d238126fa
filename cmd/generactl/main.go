package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"genera/internal/logging"
	"genera/internal/metrics"
	"genera/internal/storage"
	generaapi "genera/pkg/genera"
)

const serviceName = "generactl"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	store        string
	dbPath       string
	artifactsDir string
	exportsDir   string
	logLevel     string
	logFormat    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "generactl",
		Short: "Run and inspect population-based optimizations",
		Long: `generactl evolves populations and species of candidate solutions
against the built-in problems, and keeps their histories, top individuals
and checkpoints for later inspection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.store, "store", storage.DefaultStoreKind, "store backend: memory or sqlite")
	flags.StringVar(&opts.dbPath, "db-path", "genera.db", "sqlite database path")
	flags.StringVar(&opts.artifactsDir, "artifacts-dir", "runs", "directory for run artifacts")
	flags.StringVar(&opts.exportsDir, "exports-dir", "exports", "directory for exported runs")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", logging.FormatText, "log format: text or json")

	root.AddCommand(
		newRunCmd(opts),
		newPerfCmd(opts),
		newRunsCmd(opts),
		newHistoryCmd(opts),
		newTopCmd(opts),
		newExportCmd(opts),
		newCheckpointCmd(opts),
		newProblemsCmd(),
	)
	return root
}

func (o *globalOptions) logger(errOut io.Writer) (*slog.Logger, error) {
	return logging.New(logging.Config{
		Level:   o.logLevel,
		Format:  o.logFormat,
		Output:  errOut,
		Service: serviceName,
	})
}

// client opens the façade for cmd. The caller closes it.
func (o *globalOptions) client(cmd *cobra.Command, rec *metrics.Recorder) (*generaapi.Client, error) {
	logger, err := o.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return generaapi.New(generaapi.Options{
		StoreKind:    o.store,
		DBPath:       o.dbPath,
		ArtifactsDir: o.artifactsDir,
		ExportsDir:   o.exportsDir,
		Logger:       logger,
		Metrics:      rec,
		Out:          cmd.OutOrStdout(),
	})
}
