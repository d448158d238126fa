package population

import (
	"fmt"
	"slices"

	"genera/internal/individual"
	"genera/internal/rng"
)

// Select runs k tournaments of tournsize over a shrinking pool: every
// winner is removed from the pool, so no individual is chosen twice.
// Selection stops early once a single candidate is left. The chosen
// individuals replace the population. k <= 0 selects Config.Size and
// tournsize <= 0 uses Config.TournSize.
func (p *Population) Select(k, tournsize int) {
	if k <= 0 {
		k = p.cfg.Size
	}
	if tournsize <= 0 {
		tournsize = p.cfg.TournSize
	}
	pool := slices.Clone(p.individuals)
	chosen := make([]*individual.Individual, 0, min(k, len(pool)))
	for range k {
		if len(pool) <= 1 {
			break
		}
		var aspirants []int
		if len(pool) <= tournsize {
			aspirants = make([]int, len(pool))
			for i := range aspirants {
				aspirants[i] = i
			}
		} else {
			aspirants = rng.Sample(p.rng, len(pool), tournsize)
		}
		winner := aspirants[0]
		for _, a := range aspirants[1:] {
			if pool[a].Fitness() > pool[winner].Fitness() {
				winner = a
			}
		}
		chosen = append(chosen, pool[winner])
		pool = slices.Delete(pool, winner, winner+1)
	}
	if len(chosen) > 0 {
		p.SetIndividuals(chosen)
	}
}

// Mate pairs individuals 0-1, 2-3, ... and, with probability mateProb per
// pair, appends their offspring. An odd last individual is left unpaired.
// mateProb < 0 uses Config.MateProb.
func (p *Population) Mate(mateProb float64) error {
	if mateProb < 0 {
		mateProb = p.cfg.MateProb
	}
	var offspring []*individual.Individual
	for i := 0; i+1 < len(p.individuals); i += 2 {
		if !rng.Bernoulli(p.rng, mateProb) {
			continue
		}
		child, err := p.individuals[i].Cross(p.individuals[i+1], p.rng)
		if err != nil {
			return fmt.Errorf("mate %d and %d: %w", i, i+1, err)
		}
		offspring = append(offspring, child)
	}
	if len(offspring) > 0 {
		p.Extend(offspring)
	}
	return nil
}

// Mutate mutates every individual in place with probability mutateProb.
// mutateProb < 0 uses Config.MutateProb.
func (p *Population) Mutate(mutateProb float64) {
	if mutateProb < 0 {
		mutateProb = p.cfg.MutateProb
	}
	for _, ind := range p.individuals {
		if rng.Bernoulli(p.rng, mutateProb) {
			ind.Mutate(p.rng)
		}
	}
	p.cache.Clear()
}

// MutateAdaptive lowers the mutation probability of above-average
// individuals linearly from MutateProbUB (at the mean) to MutateProbLB (at
// the best). Others mutate with MutateProbUB.
func (p *Population) MutateAdaptive() {
	fm := p.liveBestFitness()
	fa := p.MeanFitness()
	lb, ub := p.cfg.MutateProbLB, p.cfg.MutateProbUB
	for _, ind := range p.individuals {
		prob := ub
		if f := ind.Fitness(); f > fa {
			prob = ub - (ub-lb)*(f-fa)/(fm-fa)
		}
		if rng.Bernoulli(p.rng, prob) {
			ind.Mutate(p.rng)
		}
	}
	p.cache.Clear()
}

// DualReplace swaps individuals for their dual, with probability
// Config.DualProb, when the dual is strictly fitter.
func (p *Population) DualReplace() error {
	for k, ind := range p.individuals {
		if !rng.Bernoulli(p.rng, p.cfg.DualProb) {
			continue
		}
		d, err := ind.Dual()
		if err != nil {
			return fmt.Errorf("dual of individual %d: %w", k, err)
		}
		if d.Fitness() > ind.Fitness() {
			p.individuals[k] = d
		}
	}
	p.cache.Clear()
	return nil
}

// Age increments the age of every individual.
func (p *Population) Age() {
	for _, ind := range p.individuals {
		ind.Grow()
	}
}

// EliminateOld removes each individual with probability age/LifeSpan.
func (p *Population) EliminateOld() {
	span := float64(p.cfg.LifeSpan)
	kept := p.individuals[:0:0]
	for _, ind := range p.individuals {
		if p.rng.Float64()*span < float64(ind.Age()) {
			continue
		}
		kept = append(kept, ind)
	}
	p.SetIndividuals(kept)
}

// LocalSearch moves every individual by random walk for steps proposals.
// steps <= 0 uses Config.LocalSteps.
func (p *Population) LocalSearch(steps int) {
	if steps <= 0 {
		steps = p.cfg.LocalSteps
	}
	for _, ind := range p.individuals {
		ind.RandomWalk(p.rng, steps)
	}
	p.cache.Clear()
}
