package population

import (
	"slices"

	"genera/internal/individual"
)

// InitHallOfFame captures clones of the best Config.HOFSize individuals.
func (p *Population) InitHallOfFame() {
	p.hof = p.BestIndividuals(p.cfg.HOFSize, true)
	p.cache.Clear(KeyBestFitness)
}

// UpdateHallOfFame offers every live individual to the hall of fame. An
// individual strictly fitter than some member is cloned in right after the
// best member it beats, and the worst member is evicted once the hall of
// fame is full. The hall of fame stays sorted ascending and its maximum
// never decreases.
func (p *Population) UpdateHallOfFame() {
	size := p.cfg.HOFSize
	if size <= 0 {
		return
	}
	for _, ind := range p.individuals {
		f := ind.Fitness()
		pos := -1
		for k := len(p.hof) - 1; k >= 0; k-- {
			if p.hof[k].Fitness() < f {
				pos = k + 1
				break
			}
		}
		switch {
		case pos >= 0:
			p.hof = slices.Insert(p.hof, pos, ind.Clone(true))
			if len(p.hof) > size {
				p.hof = slices.Delete(p.hof, 0, 1)
			}
		case len(p.hof) < size:
			// Not better than anyone, but there is room at the bottom.
			p.hof = slices.Insert(p.hof, 0, ind.Clone(true))
		}
	}
	p.cache.Clear(KeyBestFitness)
}

// SetHallOfFame replaces the hall of fame, e.g. when restoring a
// checkpoint. Members are sorted ascending.
func (p *Population) SetHallOfFame(hof []*individual.Individual) {
	p.hof = slices.Clone(hof)
	slices.SortStableFunc(p.hof, func(a, b *individual.Individual) int {
		switch fa, fb := a.Fitness(), b.Fitness(); {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	})
	p.cache.Clear(KeyBestFitness)
}
