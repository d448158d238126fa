package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"genera/internal/individual"
	"genera/internal/stats"
)

const (
	DefaultNIter  = 100
	DefaultPeriod = 1
)

var ErrUnsupportedHistory = errors.New("unsupported history table")

// Model is anything that evolves generation by generation: a population or
// a species.
type Model interface {
	Init(ctx context.Context) error
	Transition(ctx context.Context, k int) error
	BestFitness() float64
	Solution() *individual.Individual
	Generation() int
}

// Control stops the run early when it returns true. It is checked after
// every transition.
type Control func(m Model) bool

// Observer receives the model after Init and after every transition.
type Observer interface {
	Observe(m Model)
}

// Goal is a control that stops once the best fitness reaches target.
func Goal(target float64) Control {
	return func(m Model) bool { return m.BestFitness() >= target }
}

// Options configures Evolve. Out receives verbose lines and defaults to
// stdout. Append extends an earlier history instead of starting a new one;
// its columns must match the labels of Stats.
type Options struct {
	NIter   int
	Period  int
	Verbose bool
	Out     io.Writer
	History bool
	Append  *stats.Table
	Stats   stats.Spec
	Control Control
	Logger  *slog.Logger
	Metrics Observer
}

type Result struct {
	History     *stats.Table
	Generations int
	Stopped     bool
	Elapsed     time.Duration
}

func (o Options) withDefaults() Options {
	if o.NIter <= 0 {
		o.NIter = DefaultNIter
	}
	if o.Period <= 0 {
		o.Period = DefaultPeriod
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Stats == nil {
		o.Stats = stats.Default()
	}
	return o
}

// Evolve initializes m and runs NIter transitions. With History it samples
// Stats after Init and then every Period generations. Rows are labelled by
// the model's generation, so appended runs continue the numbering.
func Evolve(ctx context.Context, m Model, opts Options) (Result, error) {
	opts = opts.withDefaults()
	recording := opts.History || opts.Append != nil
	sampling := recording || opts.Verbose

	var subject stats.Subject
	if sampling {
		if err := opts.Stats.Validate(); err != nil {
			return Result{}, err
		}
		s, ok := m.(stats.Subject)
		if !ok {
			return Result{}, fmt.Errorf("%w: %T does not expose statistics", ErrUnsupportedHistory, m)
		}
		subject = s
	}

	var table *stats.Table
	switch {
	case opts.Append != nil:
		if !opts.Append.SameColumns(opts.Stats.Labels()) {
			return Result{}, fmt.Errorf("%w: columns %v do not match %v", ErrUnsupportedHistory, opts.Append.Columns, opts.Stats.Labels())
		}
		table = opts.Append
	case opts.History:
		table = stats.NewTable(opts.Stats.Labels())
	}

	start := time.Now()
	log := opts.Logger.With("generations", opts.NIter, "period", opts.Period)
	log.Info("evolution started")

	if err := m.Init(ctx); err != nil {
		return Result{}, fmt.Errorf("init: %w", err)
	}
	if opts.Metrics != nil {
		opts.Metrics.Observe(m)
	}

	var row []float64
	sample := func() error {
		var err error
		row, err = opts.Stats.Sample(subject)
		return err
	}
	if sampling {
		if err := sample(); err != nil {
			return Result{}, err
		}
	}
	if opts.History && opts.Append == nil {
		if err := table.Append(m.Generation(), row); err != nil {
			return Result{}, err
		}
	}
	if opts.Verbose {
		writeHeader(opts.Out, opts.Stats.Labels())
		writeLine(opts.Out, m.Generation(), m, row)
	}

	res := Result{History: table}
	for k := 1; k <= opts.NIter; k++ {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		if err := m.Transition(ctx, k); err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("transition %d: %w", k, err)
		}
		res.Generations = k
		if opts.Metrics != nil {
			opts.Metrics.Observe(m)
		}
		log.Debug("transition", "k", k, "best_fitness", m.BestFitness())

		if sampling && (opts.Period == 1 || k%opts.Period == 0) {
			if err := sample(); err != nil {
				return res, err
			}
			if table != nil {
				if err := table.Append(m.Generation(), row); err != nil {
					return res, err
				}
			}
			if opts.Verbose {
				writeLine(opts.Out, m.Generation(), m, row)
			}
		}

		if opts.Control != nil && opts.Control(m) {
			res.Stopped = true
			break
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("evolution finished",
		"transitions", res.Generations,
		"stopped_early", res.Stopped,
		"best_fitness", m.BestFitness(),
		"elapsed", res.Elapsed)
	if opts.Verbose {
		fmt.Fprintf(opts.Out, "%s transitions in %s\n",
			humanize.Comma(int64(res.Generations)),
			humanize.SIWithDigits(res.Elapsed.Seconds(), 2, "s"))
	}
	return res, nil
}

// Ezolve initializes m and runs nIter transitions without any bookkeeping.
func Ezolve(ctx context.Context, m Model, nIter int) error {
	if nIter <= 0 {
		nIter = DefaultNIter
	}
	if err := m.Init(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	for k := 1; k <= nIter; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Transition(ctx, k); err != nil {
			return fmt.Errorf("transition %d: %w", k, err)
		}
	}
	return nil
}

func writeHeader(w io.Writer, labels []string) {
	header := "iteration\tsolution\t" + strings.Join(labels, "\t")
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		header = "\x1b[1m" + header + "\x1b[0m"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", 61))
}

func writeLine(w io.Writer, k int, m Model, row []float64) {
	values := make([]string, len(row))
	for i, v := range row {
		values[i] = humanize.FtoaWithDigits(v, 6)
	}
	solution := "-"
	if best := m.Solution(); best != nil {
		solution = best.String()
	}
	fmt.Fprintf(w, "[%s]\t%s\t%s\n", humanize.Comma(int64(k)), solution, strings.Join(values, "\t"))
}
