// Package species groups populations and moves genetic material between
// them.
package species

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"genera/internal/cache"
	"genera/internal/individual"
	"genera/internal/population"
	"genera/internal/rng"
)

const DefaultMigrateProb = 0.5

const (
	KindIsland = "island"
	KindDual   = "dual"
)

var ErrNoPopulations = errors.New("species needs at least one population")

type Config struct {
	MigrateProb float64
	// Partners is the number of mates each individual draws in a dual
	// species.
	Partners int
}

func DefaultConfig() Config {
	return Config{MigrateProb: DefaultMigrateProb, Partners: 1}
}

func (c Config) Validate() error {
	if c.MigrateProb < 0 || c.MigrateProb > 1 {
		return fmt.Errorf("migrate prob must be in [0,1], got %f", c.MigrateProb)
	}
	if c.Partners < 0 {
		return errors.New("partners must be >= 0")
	}
	return nil
}

// Species is an ordered collection of populations. Migration only exchanges
// individuals between populations.
type Species struct {
	populations []*population.Population
	cfg         Config
	rng         rng.Source
	cache       *cache.Cache
	generation  int
}

func New(pops []*population.Population, cfg Config, r rng.Source) (*Species, error) {
	if len(pops) == 0 {
		return nil, ErrNoPopulations
	}
	if r == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.Partners == 0 {
		cfg.Partners = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Species{populations: pops, cfg: cfg, rng: r, cache: cache.New()}, nil
}

func (s *Species) Kind() string                          { return KindIsland }
func (s *Species) Config() Config                        { return s.cfg }
func (s *Species) Populations() []*population.Population { return s.populations }
func (s *Species) Generation() int                       { return s.generation }

func (s *Species) Cache() map[string]float64          { return s.cache.Snapshot() }
func (s *Species) ClearCache(keys ...string)          { s.cache.Clear(keys...) }
func (s *Species) SetCache(values map[string]float64) { s.cache.Set(values) }

func (s *Species) Init(ctx context.Context) error {
	for k, p := range s.populations {
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("init population %d: %w", k, err)
		}
	}
	s.cache.Clear()
	return nil
}

// Transition advances every population one generation, then migrates.
func (s *Species) Transition(ctx context.Context, k int) error {
	defer s.cache.Clear()
	for i, p := range s.populations {
		if err := p.Transition(ctx, k); err != nil {
			return fmt.Errorf("population %d: %w", i, err)
		}
	}
	s.Migrate(-1)
	s.generation++
	return nil
}

// Migrate crosses each adjacent pair of populations independently with
// probability migrateProb. migrateProb < 0 uses Config.MigrateProb.
func (s *Species) Migrate(migrateProb float64) {
	if migrateProb < 0 {
		migrateProb = s.cfg.MigrateProb
	}
	for i := 0; i+1 < len(s.populations); i++ {
		if rng.Bernoulli(s.rng, migrateProb) {
			s.populations[i].Cross(s.populations[i+1], s.rng)
		}
	}
	s.cache.Clear()
}

// Len is the total number of live individuals.
func (s *Species) Len() int {
	n := 0
	for _, p := range s.populations {
		n += p.Len()
	}
	return n
}

func (s *Species) BestFitness() float64 {
	return s.cache.GetOrCompute(population.KeyBestFitness, func() float64 {
		best := math.Inf(-1)
		for _, p := range s.populations {
			best = math.Max(best, p.BestFitness())
		}
		return best
	})
}

func (s *Species) BestIndividual() *individual.Individual {
	var best *individual.Individual
	for _, p := range s.populations {
		cand := p.BestIndividual()
		if cand != nil && (best == nil || cand.Fitness() > best.Fitness()) {
			best = cand
		}
	}
	return best
}

func (s *Species) Solution() *individual.Individual { return s.BestIndividual() }

// Fitnesses pools the fitness of every live individual.
func (s *Species) Fitnesses() []float64 {
	var out []float64
	for _, p := range s.populations {
		out = append(out, p.Fitnesses()...)
	}
	return out
}

func (s *Species) MeanFitness() float64 {
	return s.cache.GetOrCompute(population.KeyMeanFitness, func() float64 {
		fs := s.Fitnesses()
		if len(fs) == 0 {
			return math.NaN()
		}
		return stat.Mean(fs, nil)
	})
}

func (s *Species) StdFitness() float64 {
	return s.cache.GetOrCompute(population.KeyStdFitness, func() float64 {
		fs := s.Fitnesses()
		if len(fs) == 0 {
			return math.NaN()
		}
		_, std := stat.PopMeanStdDev(fs, nil)
		return std
	})
}

func (s *Species) WorstFitness() float64 {
	return s.cache.GetOrCompute(population.KeyWorstFitness, func() float64 {
		worst := math.Inf(1)
		for _, p := range s.populations {
			worst = math.Min(worst, p.WorstFitness())
		}
		return worst
	})
}
