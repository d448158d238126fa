package species

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"

	"genera/internal/individual"
	"genera/internal/population"
	"genera/internal/rng"
)

// DualStrategy names the sexual mating scheme of a dual species in run
// records. It differs from population.StrategyDual, which replaces
// individuals by their duals.
const DualStrategy = "dual-species"

// Dual is a two-sex species: population 0 holds males and population 1
// females. Each individual draws partners from the other sex with
// probability proportional to the softmax of their fitness, and every
// mating adds one child to each population.
type Dual struct {
	*Species
}

func NewDual(males, females *population.Population, cfg Config, r rng.Source) (*Dual, error) {
	s, err := New([]*population.Population{males, females}, cfg, r)
	if err != nil {
		return nil, err
	}
	return &Dual{Species: s}, nil
}

func (d *Dual) Kind() string                    { return KindDual }
func (d *Dual) Males() *population.Population   { return d.populations[0] }
func (d *Dual) Females() *population.Population { return d.populations[1] }

// Transition selects within each sex, mates across sexes and mutates.
func (d *Dual) Transition(ctx context.Context, _ int) error {
	defer d.cache.Clear()
	males, females := d.Males(), d.Females()
	for _, p := range d.populations {
		if err := p.Evaluate(ctx); err != nil {
			return err
		}
		p.Select(0, 0)
	}
	if err := d.Mate(); err != nil {
		return err
	}
	males.Mutate(-1)
	females.Mutate(-1)
	for _, p := range d.populations {
		if err := p.Evaluate(ctx); err != nil {
			return err
		}
		p.Backup()
	}
	d.generation++
	return nil
}

// Mate lets every male choose females and every female choose males.
func (d *Dual) Mate() error {
	males := d.Males().Individuals()
	females := d.Females().Individuals()
	if len(males) == 0 || len(females) == 0 {
		return errors.New("dual species needs both sexes")
	}
	var toMales, toFemales []*individual.Individual
	pair := func(m, f *individual.Individual) error {
		a, err := m.Cross(f, d.rng)
		if err != nil {
			return fmt.Errorf("dual mate: %w", err)
		}
		b, err := m.Cross(f, d.rng)
		if err != nil {
			return fmt.Errorf("dual mate: %w", err)
		}
		toMales = append(toMales, a)
		toFemales = append(toFemales, b)
		return nil
	}
	for _, m := range males {
		for _, f := range d.choose(females) {
			if err := pair(m, f); err != nil {
				return err
			}
		}
	}
	for _, f := range females {
		for _, m := range d.choose(males) {
			if err := pair(m, f); err != nil {
				return err
			}
		}
	}
	d.Males().Extend(toMales)
	d.Females().Extend(toFemales)
	return nil
}

// choose draws up to Config.Partners distinct candidates weighted by the
// softmax of their fitness.
func (d *Dual) choose(candidates []*individual.Individual) []*individual.Individual {
	w := softmax(fitnessOf(candidates))
	sampler := sampleuv.NewWeighted(w, d.rng)
	out := make([]*individual.Individual, 0, d.cfg.Partners)
	for range d.cfg.Partners {
		k, ok := sampler.Take()
		if !ok {
			break
		}
		out = append(out, candidates[k])
	}
	return out
}

func fitnessOf(inds []*individual.Individual) []float64 {
	out := make([]float64, len(inds))
	for k, ind := range inds {
		out[k] = ind.Fitness()
	}
	return out
}

func softmax(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	m := floats.Max(x)
	for k, v := range x {
		out[k] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
