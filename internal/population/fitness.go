package population

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genera/internal/individual"
)

// Fitnesses returns the fitness of every live individual in order.
func (p *Population) Fitnesses() []float64 {
	out := make([]float64, len(p.individuals))
	for k, ind := range p.individuals {
		out[k] = ind.Fitness()
	}
	return out
}

// BestFitness reads the hall of fame when it is non-empty and the live
// population otherwise.
func (p *Population) BestFitness() float64 {
	return p.cache.GetOrCompute(KeyBestFitness, func() float64 {
		if best := p.hofBest(); best != nil {
			return best.Fitness()
		}
		return p.liveBestFitness()
	})
}

func (p *Population) liveBestFitness() float64 {
	if len(p.individuals) == 0 {
		return math.NaN()
	}
	return floats.Max(p.Fitnesses())
}

func (p *Population) MeanFitness() float64 {
	return p.cache.GetOrCompute(KeyMeanFitness, func() float64 {
		if len(p.individuals) == 0 {
			return math.NaN()
		}
		return stat.Mean(p.Fitnesses(), nil)
	})
}

// StdFitness is the population standard deviation of fitness.
func (p *Population) StdFitness() float64 {
	return p.cache.GetOrCompute(KeyStdFitness, func() float64 {
		if len(p.individuals) == 0 {
			return math.NaN()
		}
		_, std := stat.PopMeanStdDev(p.Fitnesses(), nil)
		return std
	})
}

func (p *Population) WorstFitness() float64 {
	return p.cache.GetOrCompute(KeyWorstFitness, func() float64 {
		if len(p.individuals) == 0 {
			return math.NaN()
		}
		return floats.Min(p.Fitnesses())
	})
}

// BestIndividual returns the fittest member of the hall of fame, or of the
// live population when the hall of fame is empty. Ties go to the first.
func (p *Population) BestIndividual() *individual.Individual {
	if best := p.hofBest(); best != nil {
		return best
	}
	if len(p.individuals) == 0 {
		return nil
	}
	return p.individuals[floats.MaxIdx(p.Fitnesses())]
}

func (p *Population) WorstIndividual() *individual.Individual {
	if len(p.individuals) == 0 {
		return nil
	}
	return p.individuals[floats.MinIdx(p.Fitnesses())]
}

// BestIndividuals returns the n fittest live individuals in ascending order
// of fitness, cloned with their fitness when clone is set.
func (p *Population) BestIndividuals(n int, clone bool) []*individual.Individual {
	n = min(max(n, 0), len(p.individuals))
	sorted := p.Sorted()
	best := slices.Clone(sorted[len(sorted)-n:])
	if clone {
		return cloneAll(best)
	}
	return best
}

// Sorted returns the live individuals ordered by ascending fitness.
func (p *Population) Sorted() []*individual.Individual {
	fs := p.Fitnesses()
	idx := make([]int, len(fs))
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(a, b int) bool { return fs[idx[a]] < fs[idx[b]] })
	out := make([]*individual.Individual, len(idx))
	for k, i := range idx {
		out[k] = p.individuals[i]
	}
	return out
}

// Sort orders the live population by ascending fitness.
func (p *Population) Sort() {
	p.individuals = p.Sorted()
}

func (p *Population) hofBest() *individual.Individual {
	if len(p.hof) == 0 {
		return nil
	}
	best := p.hof[0]
	for _, ind := range p.hof[1:] {
		if ind.Fitness() > best.Fitness() {
			best = ind
		}
	}
	return best
}
