package population

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"genera/internal/chromosome"
	"genera/internal/individual"
	"genera/internal/rng"
)

// Strategy is one generational algorithm. Transition receives the
// generation index k, starting at 1.
type Strategy interface {
	Name() string
	Init(ctx context.Context, p *Population) error
	Transition(ctx context.Context, p *Population, k int) error
}

const (
	StrategyPlain        = "plain"
	StrategyStandard     = "standard"
	StrategyHallOfFame   = "hall-of-fame"
	StrategyDifferential = "differential-evolution"
	StrategyDual         = "dual"
	StrategyModified     = "modified"
	StrategyAge          = "age"
	StrategyLocalSearch  = "local-search"
)

// Plain is the base genetic algorithm: select, mate, mutate.
type Plain struct{}

func (Plain) Name() string                            { return StrategyPlain }
func (Plain) Init(context.Context, *Population) error { return nil }
func (Plain) Transition(ctx context.Context, p *Population, _ int) error {
	return p.step(ctx, p.Mutate)
}

// step is select, mate and mutate with the configured probabilities.
func (p *Population) step(ctx context.Context, mutate func(float64)) error {
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	p.Select(0, 0)
	if err := p.Mate(-1); err != nil {
		return err
	}
	mutate(-1)
	return p.Evaluate(ctx)
}

// Standard adds elitism: clones of the best Config.NElders individuals of
// the previous generation are merged back after mutation, so the best
// fitness never regresses.
type Standard struct{}

func (Standard) Name() string                            { return StrategyStandard }
func (Standard) Init(context.Context, *Population) error { return nil }
func (Standard) Transition(ctx context.Context, p *Population, _ int) error {
	return p.elitist(ctx, p.Mutate)
}

func (p *Population) elitist(ctx context.Context, mutate func(float64)) error {
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	elders := p.BestIndividuals(p.cfg.elders(p.Len()), true)
	if err := p.step(ctx, mutate); err != nil {
		return err
	}
	p.Merge(elders, false)
	return nil
}

// HallOfFame is Standard plus a bounded hall of fame. Clones of the hall of
// fame join the live population before each transition, and best fitness is
// read from the hall of fame. Init keeps a restored hall of fame and only
// offers it the live individuals.
type HallOfFame struct{}

func (HallOfFame) Name() string { return StrategyHallOfFame }

func (HallOfFame) Init(ctx context.Context, p *Population) error {
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	if len(p.hof) == 0 {
		p.InitHallOfFame()
		return nil
	}
	p.UpdateHallOfFame()
	return nil
}

func (HallOfFame) Transition(ctx context.Context, p *Population, k int) error {
	p.Extend(cloneAll(p.hof))
	if err := (Standard{}).Transition(ctx, p, k); err != nil {
		return err
	}
	p.UpdateHallOfFame()
	return nil
}

// DifferentialEvolution moves every individual towards x0 + F(x1 - x2) and
// keeps the move only when it is strictly fitter. Every chromosome must
// implement chromosome.Vector.
type DifferentialEvolution struct{}

func (DifferentialEvolution) Name() string { return StrategyDifferential }

func (DifferentialEvolution) Init(ctx context.Context, p *Population) error {
	if p.Len() < 3 {
		return fmt.Errorf("%w: differential evolution needs 3 individuals, have %d", ErrTooSmall, p.Len())
	}
	for _, c := range p.individuals[0].Chromosomes() {
		if _, ok := c.(chromosome.Vector); !ok {
			return fmt.Errorf("differential evolution on %s: %w", c.Kind(), chromosome.ErrNotImplemented)
		}
	}
	return p.Evaluate(ctx)
}

func (DifferentialEvolution) Transition(ctx context.Context, p *Population, _ int) error {
	n := p.Len()
	if n < 3 {
		return fmt.Errorf("%w: differential evolution needs 3 individuals, have %d", ErrTooSmall, n)
	}
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	tests := make([]*individual.Individual, n)
	for i, ind := range p.individuals {
		picks := rng.Sample(p.rng, n, 3)
		test, err := p.differentialMove(ind, p.individuals[picks[0]], p.individuals[picks[1]], p.individuals[picks[2]])
		if err != nil {
			return err
		}
		tests[i] = test
	}
	if err := evaluate(ctx, p.cfg.Workers, tests); err != nil {
		return err
	}
	for i, test := range tests {
		if test.RawFitness() > p.individuals[i].RawFitness() {
			p.individuals[i] = test
		}
	}
	p.cache.Clear()
	return nil
}

// differentialMove blends x0 + F(x1 - x2) into a copy of ind gene by gene
// with probability Config.CrossProb, always taking one random gene.
func (p *Population) differentialMove(ind, x0, x1, x2 *individual.Individual) (*individual.Individual, error) {
	test := ind.Clone(false)
	for c, ch := range test.Chromosomes() {
		v, ok := ch.(chromosome.Vector)
		if !ok {
			return nil, fmt.Errorf("differential evolution on %s: %w", ch.Kind(), chromosome.ErrNotImplemented)
		}
		a := x0.Chromosome(c).(chromosome.Vector).Values()
		b := x1.Chromosome(c).(chromosome.Vector).Values()
		d := x2.Chromosome(c).(chromosome.Vector).Values()
		if len(a) != len(b) || len(a) != len(d) || len(a) != v.Len() {
			return nil, fmt.Errorf("%w: chromosome %d lengths differ", chromosome.ErrIncompatible, c)
		}
		trial := make([]float64, len(a))
		floats.SubTo(trial, b, d)
		floats.Scale(p.cfg.Factor, trial)
		floats.Add(trial, a)

		genes := v.Values()
		if len(genes) == 0 {
			continue
		}
		jrand := p.rng.IntN(len(genes))
		for j := range genes {
			if j == jrand || rng.Bernoulli(p.rng, p.cfg.CrossProb) {
				genes[j] = trial[j]
			}
		}
		v.SetValues(genes)
	}
	test.ClearCache()
	return test, nil
}

// Dual replaces individuals by their dual when it is fitter, then runs
// Standard.
type Dual struct{}

func (Dual) Name() string                            { return StrategyDual }
func (Dual) Init(context.Context, *Population) error { return nil }
func (Dual) Transition(ctx context.Context, p *Population, k int) error {
	if err := p.DualReplace(); err != nil {
		return err
	}
	return (Standard{}).Transition(ctx, p, k)
}

// Modified is Standard with fitness-adaptive mutation probabilities.
type Modified struct{}

func (Modified) Name() string                            { return StrategyModified }
func (Modified) Init(context.Context, *Population) error { return nil }
func (Modified) Transition(ctx context.Context, p *Population, _ int) error {
	return p.elitist(ctx, func(float64) { p.MutateAdaptive() })
}

// Age ages every individual, keeps a tournament-selected copy of the
// previous generation, runs Plain, removes old individuals at random and
// merges the copy back.
type Age struct{}

func (Age) Name() string                            { return StrategyAge }
func (Age) Init(context.Context, *Population) error { return nil }
func (Age) Transition(ctx context.Context, p *Population, k int) error {
	p.Age()
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	elder := p.Clone()
	elder.Select(0, 0)
	if err := (Plain{}).Transition(ctx, p, k); err != nil {
		return err
	}
	p.EliminateOld()
	p.Merge(elder.individuals, false)
	return nil
}

// LocalSearch runs Standard and then a random-walk local search on every
// individual.
type LocalSearch struct{}

func (LocalSearch) Name() string                            { return StrategyLocalSearch }
func (LocalSearch) Init(context.Context, *Population) error { return nil }
func (LocalSearch) Transition(ctx context.Context, p *Population, k int) error {
	if err := (Standard{}).Transition(ctx, p, k); err != nil {
		return err
	}
	p.LocalSearch(0)
	return nil
}
