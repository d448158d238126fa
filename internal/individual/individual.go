// Package individual composes chromosomes into candidate solutions that own
// a lazily evaluated, cached fitness.
package individual

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"genera/internal/cache"
	"genera/internal/chromosome"
	"genera/internal/rng"
)

var (
	ErrSizeMismatch     = errors.New("sizes do not match chromosome slots")
	ErrFixedCardinality = errors.New("individual has a fixed number of chromosomes")
	ErrNoObjective      = fmt.Errorf("objective: %w", chromosome.ErrNotImplemented)
	ErrNoChromosomes    = errors.New("individual needs at least one chromosome")
)

// Solution is the decoded form of an individual, one value per chromosome.
type Solution []any

// Objective scores a decoded solution. It must be pure.
type Objective func(Solution) float64

// Individual is one candidate solution. Fitness is derived from the
// chromosomes and cached until they change.
//
// An Individual is not safe for concurrent use, but distinct individuals may
// be evaluated concurrently.
type Individual struct {
	id          string
	chromosomes []chromosome.Chromosome
	objective   Objective
	indepProb   float64
	fixed       bool
	age         int
	cache       *cache.Cache
	memory      *cache.Memory[[]chromosome.Chromosome]
}

type Option func(*Individual)

// WithIndepProb sets the per-gene mutation probability. Zero selects each
// chromosome kind's default.
func WithIndepProb(p float64) Option {
	return func(i *Individual) { i.indepProb = p }
}

// WithMemory enables the best-ever memory used by Backup.
func WithMemory() Option {
	return func(i *Individual) { i.memory = cache.NewMemory[[]chromosome.Chromosome]() }
}

// Fixed forbids changing the number of chromosomes.
func Fixed() Option {
	return func(i *Individual) { i.fixed = true }
}

func New(objective Objective, chromosomes []chromosome.Chromosome, opts ...Option) (*Individual, error) {
	if objective == nil {
		return nil, ErrNoObjective
	}
	if len(chromosomes) == 0 {
		return nil, ErrNoChromosomes
	}
	ind := &Individual{
		id:          uuid.NewString(),
		chromosomes: chromosomes,
		objective:   objective,
		cache:       cache.New(),
	}
	for _, opt := range opts {
		opt(ind)
	}
	return ind, nil
}

func (i *Individual) ID() string { return i.id }

func (i *Individual) Len() int { return len(i.chromosomes) }

// Chromosomes returns the live chromosome slice. Callers that modify a
// chromosome in place must call ClearCache.
func (i *Individual) Chromosomes() []chromosome.Chromosome { return i.chromosomes }

func (i *Individual) Chromosome(k int) chromosome.Chromosome { return i.chromosomes[k] }

// SetChromosomes replaces every chromosome and invalidates the cache.
func (i *Individual) SetChromosomes(chs []chromosome.Chromosome) error {
	if len(chs) == 0 {
		return ErrNoChromosomes
	}
	if i.fixed && len(chs) != len(i.chromosomes) {
		return fmt.Errorf("%w: have %d, got %d", ErrFixedCardinality, len(i.chromosomes), len(chs))
	}
	i.chromosomes = chs
	i.cache.Clear()
	return nil
}

// SetChromosome replaces chromosome k and invalidates the cache.
func (i *Individual) SetChromosome(k int, c chromosome.Chromosome) error {
	if k < 0 || k >= len(i.chromosomes) {
		return fmt.Errorf("chromosome index %d out of range [0, %d)", k, len(i.chromosomes))
	}
	i.chromosomes[k] = c
	i.cache.Clear()
	return nil
}

// Fitness returns the remembered best fitness when memory is filled, and the
// cached working fitness otherwise.
func (i *Individual) Fitness() float64 {
	if i.memory != nil {
		if f, ok := i.memory.Fitness(); ok {
			return f
		}
	}
	return i.RawFitness()
}

// RawFitness is the fitness of the current chromosomes, ignoring memory.
func (i *Individual) RawFitness() float64 {
	return i.cache.GetOrCompute(cache.KeyFitness, func() float64 {
		return i.objective(i.Decode())
	})
}

// Evaluated reports whether the working fitness is cached.
func (i *Individual) Evaluated() bool {
	_, ok := i.cache.Get(cache.KeyFitness)
	return ok
}

func (i *Individual) Cache() map[string]float64 { return i.cache.Snapshot() }

func (i *Individual) ClearCache(keys ...string) { i.cache.Clear(keys...) }

func (i *Individual) SetCache(values map[string]float64) { i.cache.Set(values) }

func (i *Individual) Objective() Objective { return i.objective }

func (i *Individual) IndepProb() float64 { return i.indepProb }

func (i *Individual) IsFixed() bool { return i.fixed }

func (i *Individual) HasMemory() bool { return i.memory != nil }

func (i *Individual) Age() int { return i.age }

func (i *Individual) SetAge(age int) { i.age = age }

// Grow increments the age by one generation.
func (i *Individual) Grow() { i.age++ }

// Decode maps every chromosome to its external value.
func (i *Individual) Decode() Solution {
	out := make(Solution, len(i.chromosomes))
	for k, c := range i.chromosomes {
		out[k] = chromosome.Decode(c)
	}
	return out
}

// Cross returns a new individual whose chromosomes are the pairwise
// crossover of i and other. The child has an empty cache and memory.
func (i *Individual) Cross(other *Individual, r rng.Source) (*Individual, error) {
	if len(i.chromosomes) != len(other.chromosomes) {
		return nil, fmt.Errorf("%w: %d vs %d chromosomes", chromosome.ErrIncompatible, len(i.chromosomes), len(other.chromosomes))
	}
	chs := make([]chromosome.Chromosome, len(i.chromosomes))
	for k, c := range i.chromosomes {
		child, err := c.Cross(other.chromosomes[k], r)
		if err != nil {
			return nil, fmt.Errorf("cross chromosome %d: %w", k, err)
		}
		chs[k] = child
	}
	return i.derive(chs), nil
}

// Mutate perturbs every chromosome in place.
func (i *Individual) Mutate(r rng.Source) {
	defer i.cache.Clear()
	for _, c := range i.chromosomes {
		p := i.indepProb
		if p <= 0 {
			p = chromosome.IndepProbFor(c)
		}
		c.Mutate(p, r)
	}
}

// Clone deep-copies the individual under a new ID. With withFitness the
// cached values travel with the copy so it is not evaluated again.
func (i *Individual) Clone(withFitness bool) *Individual {
	out := i.derive(cloneAll(i.chromosomes))
	out.age = i.age
	if withFitness {
		out.cache.Set(i.cache.Snapshot())
	}
	if i.memory != nil {
		out.memory = i.memory.Clone(cloneAll)
	}
	return out
}

// Dual returns a new individual made of each chromosome's dual.
func (i *Individual) Dual() (*Individual, error) {
	chs := make([]chromosome.Chromosome, len(i.chromosomes))
	for k, c := range i.chromosomes {
		d, err := chromosome.Dual(c)
		if err != nil {
			return nil, err
		}
		chs[k] = d
	}
	return i.derive(chs), nil
}

// derive builds a sibling with the same settings and fresh state.
func (i *Individual) derive(chs []chromosome.Chromosome) *Individual {
	out := &Individual{
		id:          uuid.NewString(),
		chromosomes: chs,
		objective:   i.objective,
		indepProb:   i.indepProb,
		fixed:       i.fixed,
		cache:       cache.New(),
	}
	if i.memory != nil {
		out.memory = cache.NewMemory[[]chromosome.Chromosome]()
	}
	return out
}

func (i *Individual) String() string {
	parts := make([]string, len(i.chromosomes))
	for k, c := range i.chromosomes {
		parts[k] = c.String()
	}
	return strings.Join(parts, " | ")
}

func cloneAll(chs []chromosome.Chromosome) []chromosome.Chromosome {
	out := make([]chromosome.Chromosome, len(chs))
	for k, c := range chs {
		out[k] = c.Clone()
	}
	return out
}
