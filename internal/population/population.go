// Package population implements one generation of a stochastic search and
// the strategies that move it to the next.
package population

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"genera/internal/cache"
	"genera/internal/individual"
	"genera/internal/rng"
)

// Population cache keys.
const (
	KeyBestFitness  = "best_fitness"
	KeyMeanFitness  = "mean_fitness"
	KeyStdFitness   = "std_fitness"
	KeyWorstFitness = "worst_fitness"
)

var (
	ErrEmpty    = errors.New("population is empty")
	ErrTooSmall = errors.New("population too small for strategy")
)

// Population is a multiset of individuals plus the bookkeeping of its
// strategy. It is driven by one goroutine; only fitness evaluation fans out.
type Population struct {
	id          string
	individuals []*individual.Individual
	cfg         Config
	strategy    Strategy
	rng         rng.Source
	cache       *cache.Cache
	hof         []*individual.Individual
	generation  int
}

// New wraps individuals. A nil strategy selects Standard.
func New(inds []*individual.Individual, cfg Config, strategy Strategy, r rng.Source) (*Population, error) {
	if r == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.Size == 0 {
		cfg.Size = len(inds)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		strategy = Standard{}
	}
	return &Population{
		id:          uuid.NewString(),
		individuals: inds,
		cfg:         cfg,
		strategy:    strategy,
		rng:         r,
		cache:       cache.New(),
	}, nil
}

// Random builds n individuals from bp.
func Random(bp individual.Blueprint, n int, cfg Config, strategy Strategy, r rng.Source) (*Population, error) {
	if n <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", n)
	}
	inds, err := bp.RandomN(r, n)
	if err != nil {
		return nil, err
	}
	return New(inds, cfg, strategy, r)
}

func (p *Population) ID() string             { return p.id }
func (p *Population) Len() int               { return len(p.individuals) }
func (p *Population) Config() Config         { return p.cfg }
func (p *Population) Strategy() Strategy     { return p.strategy }
func (p *Population) Rand() rng.Source       { return p.rng }
func (p *Population) Generation() int        { return p.generation }
func (p *Population) SetConfig(cfg Config)   { p.cfg = cfg }
func (p *Population) SetStrategy(s Strategy) { p.strategy = s }

// Individuals returns the live slice. Callers that change it must call
// ClearCache.
func (p *Population) Individuals() []*individual.Individual { return p.individuals }

func (p *Population) Individual(k int) *individual.Individual { return p.individuals[k] }

// HallOfFame returns the hall of fame, sorted ascending by fitness.
func (p *Population) HallOfFame() []*individual.Individual { return slices.Clone(p.hof) }

func (p *Population) Cache() map[string]float64 { return p.cache.Snapshot() }

func (p *Population) ClearCache(keys ...string) { p.cache.Clear(keys...) }

func (p *Population) SetCache(values map[string]float64) { p.cache.Set(values) }

// SetIndividuals replaces the whole population.
func (p *Population) SetIndividuals(inds []*individual.Individual) {
	p.individuals = inds
	p.cache.Clear()
}

func (p *Population) Set(k int, ind *individual.Individual) {
	p.individuals[k] = ind
	p.cache.Clear()
}

func (p *Population) Add(ind *individual.Individual) {
	p.individuals = append(p.individuals, ind)
	p.cache.Clear()
}

func (p *Population) Extend(inds []*individual.Individual) {
	p.individuals = append(p.individuals, inds...)
	p.cache.Clear()
}

// Merge appends the individuals of other. With selectAfter the merged
// population is reduced by tournament selection.
func (p *Population) Merge(other []*individual.Individual, selectAfter bool) {
	p.Extend(other)
	if selectAfter {
		p.Select(0, 0)
	}
}

// Remove drops the first occurrence of ind and reports whether it was found.
func (p *Population) Remove(ind *individual.Individual) bool {
	k := slices.Index(p.individuals, ind)
	if k < 0 {
		return false
	}
	p.individuals = slices.Delete(p.individuals, k, k+1)
	p.cache.Clear()
	return true
}

// Pop removes and returns individual k. Negative k counts from the end.
func (p *Population) Pop(k int) (*individual.Individual, error) {
	n := len(p.individuals)
	if k < 0 {
		k += n
	}
	if k < 0 || k >= n {
		return nil, fmt.Errorf("pop index %d out of range for %d individuals", k, n)
	}
	ind := p.individuals[k]
	p.individuals = slices.Delete(p.individuals, k, k+1)
	p.cache.Clear()
	return ind, nil
}

// Drop removes the n worst individuals.
func (p *Population) Drop(n int) {
	if n <= 0 {
		return
	}
	p.Sort()
	p.individuals = slices.Clone(p.individuals[min(n, len(p.individuals)):])
	p.cache.Clear()
}

// Clone deep-copies the population, keeping cached fitness values. The
// random source is shared.
func (p *Population) Clone() *Population {
	out := &Population{
		id:          uuid.NewString(),
		individuals: cloneAll(p.individuals),
		cfg:         p.cfg,
		strategy:    p.strategy,
		rng:         p.rng,
		cache:       cache.New(),
		hof:         cloneAll(p.hof),
		generation:  p.generation,
	}
	out.cache.Set(p.cache.Snapshot())
	return out
}

// Cross exchanges head and tail slices with other: p keeps its tail after a
// random cut k and receives other's head up to a cut l, and other keeps its
// tail after l and receives p's head up to k. Populations with fewer than two
// individuals are left unchanged.
func (p *Population) Cross(other *Population, r rng.Source) {
	n, m := p.Len(), other.Len()
	if n < 2 || m < 2 {
		return
	}
	k := rng.IntRange(r, 1, n/2)
	l := rng.IntRange(r, 1, m/2)
	p.CrossAt(other, k, l)
}

func (p *Population) CrossAt(other *Population, k, l int) {
	a, b := p.individuals, other.individuals
	na := append(slices.Clone(a[k:]), b[:l]...)
	nb := append(slices.Clone(b[l:]), a[:k]...)
	p.SetIndividuals(na)
	other.SetIndividuals(nb)
}

// Init prepares the population for its first transition.
func (p *Population) Init(ctx context.Context) error {
	if len(p.individuals) == 0 {
		return ErrEmpty
	}
	if err := p.Evaluate(ctx); err != nil {
		return err
	}
	for _, ind := range p.individuals {
		ind.Init()
	}
	if err := p.strategy.Init(ctx, p); err != nil {
		return fmt.Errorf("init %s: %w", p.strategy.Name(), err)
	}
	p.cache.Clear()
	return nil
}

// Transition runs one generation of the strategy. On error the population
// is left as it was at the point of failure.
func (p *Population) Transition(ctx context.Context, k int) error {
	if len(p.individuals) == 0 {
		return ErrEmpty
	}
	defer p.cache.Clear()
	if err := p.strategy.Transition(ctx, p, k); err != nil {
		return fmt.Errorf("%s transition %d: %w", p.strategy.Name(), k, err)
	}
	p.Backup()
	p.generation++
	return nil
}

// Backup offers the current state of every individual with memory to its
// memory, which keeps it only when it is fitter. It reports how many
// memories changed.
func (p *Population) Backup() int {
	n := 0
	for _, ind := range p.individuals {
		if ind.Backup(true) {
			n++
		}
	}
	if n > 0 {
		p.cache.Clear()
	}
	return n
}

// Solution returns the best individual.
func (p *Population) Solution() *individual.Individual {
	return p.BestIndividual()
}

func cloneAll(inds []*individual.Individual) []*individual.Individual {
	out := make([]*individual.Individual, len(inds))
	for k, ind := range inds {
		out[k] = ind.Clone(true)
	}
	return out
}
