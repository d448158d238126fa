package individual

import (
	"genera/internal/cache"
	"genera/internal/chromosome"
	"genera/internal/rng"
)

// Init fills an empty memory with the current state. A filled memory only
// takes the current state when it is fitter. It is a no-op for individuals
// without memory.
func (i *Individual) Init() {
	i.Backup(i.memory != nil && i.memory.Filled())
}

// Backup copies the current fitness and chromosomes into memory when check
// is false or the current fitness beats the remembered one. It reports
// whether the memory changed.
func (i *Individual) Backup(check bool) bool {
	if i.memory == nil {
		return false
	}
	return i.memory.Backup(i.RawFitness(), func() []chromosome.Chromosome {
		return cloneAll(i.chromosomes)
	}, check)
}

// Memory returns the remembered fitness, if any.
func (i *Individual) Memory() (float64, bool) {
	if i.memory == nil {
		return 0, false
	}
	return i.memory.Fitness()
}

// BestChromosomes returns a copy of the remembered chromosomes, or of the
// current ones when nothing is remembered.
func (i *Individual) BestChromosomes() []chromosome.Chromosome {
	if i.memory != nil {
		if chs, ok := i.memory.Solution(); ok {
			return cloneAll(chs)
		}
	}
	return cloneAll(i.chromosomes)
}

// RestoreMemory sets the memory content directly and enables memory.
func (i *Individual) RestoreMemory(fitness float64, chs []chromosome.Chromosome) {
	if i.memory == nil {
		WithMemory()(i)
	}
	i.memory.Restore(fitness, chs)
}

// RandomNeighbour returns a copy with one random chromosome moved to a
// neighbouring state. Kinds without a neighbourhood are mutated instead.
func (i *Individual) RandomNeighbour(r rng.Source) *Individual {
	out := i.derive(cloneAll(i.chromosomes))
	k := r.IntN(len(out.chromosomes))
	if n, ok := out.chromosomes[k].(chromosome.Neighbourer); ok {
		out.chromosomes[k] = n.RandomNeighbour(r)
	} else {
		out.chromosomes[k].Mutate(chromosome.IndepProbFor(out.chromosomes[k]), r)
	}
	return out
}

// RandomWalk tries steps random neighbours and moves to each one that is
// strictly better. It reports whether the individual changed.
func (i *Individual) RandomWalk(r rng.Source, steps int) bool {
	moved := false
	for s := 0; s < steps; s++ {
		n := i.RandomNeighbour(r)
		if nf := n.RawFitness(); nf > i.RawFitness() {
			i.chromosomes = n.chromosomes
			i.cache.Clear()
			i.cache.Put(cache.KeyFitness, nf)
			moved = true
		}
	}
	return moved
}
