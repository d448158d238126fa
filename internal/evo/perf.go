package evo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genera/internal/stats"
)

// Factory builds a fresh model for the k-th repeat of a perf run.
type Factory func(k int) (Model, error)

type PerfResult struct {
	History     *stats.Table
	MeanElapsed time.Duration
	Repeats     int
}

// Perf evolves repeats fresh models with the same options and averages
// their histories. Verbose output and Append are ignored.
func Perf(ctx context.Context, factory Factory, repeats int, opts Options) (PerfResult, error) {
	if repeats <= 0 {
		return PerfResult{}, errors.New("repeats must be > 0")
	}
	opts.Verbose = false
	opts.History = true
	opts.Append = nil
	opts.Control = nil

	tables := make([]*stats.Table, 0, repeats)
	var total time.Duration
	for k := range repeats {
		m, err := factory(k)
		if err != nil {
			return PerfResult{}, fmt.Errorf("build repeat %d: %w", k, err)
		}
		res, err := Evolve(ctx, m, opts)
		if err != nil {
			return PerfResult{}, fmt.Errorf("repeat %d: %w", k, err)
		}
		tables = append(tables, res.History)
		total += res.Elapsed
	}
	mean, err := stats.Mean(tables...)
	if err != nil {
		return PerfResult{}, err
	}
	return PerfResult{
		History:     mean,
		MeanElapsed: total / time.Duration(repeats),
		Repeats:     repeats,
	}, nil
}
