package species

import (
	"fmt"

	"genera/internal/individual"
	"genera/internal/model"
	"genera/internal/population"
	"genera/internal/rng"
)

func (s *Species) Snapshot() (model.SpeciesRecord, error) {
	return s.snapshot(KindIsland)
}

func (d *Dual) Snapshot() (model.SpeciesRecord, error) {
	return d.snapshot(KindDual)
}

func (s *Species) snapshot(kind string) (model.SpeciesRecord, error) {
	rec := model.SpeciesRecord{
		Kind:        kind,
		Generation:  s.generation,
		MigrateProb: s.cfg.MigrateProb,
		Partners:    s.cfg.Partners,
		Populations: make([]model.PopulationRecord, len(s.populations)),
	}
	for k, p := range s.populations {
		pr, err := p.Snapshot()
		if err != nil {
			return model.SpeciesRecord{}, fmt.Errorf("snapshot population %d: %w", k, err)
		}
		rec.Populations[k] = pr
	}
	return rec, nil
}

// Restored is the common surface of the species kinds.
type Restored interface {
	Snapshot() (model.SpeciesRecord, error)
	Populations() []*population.Population
}

// Restore rebuilds an island or dual species from its record.
func Restore(rec model.SpeciesRecord, objective individual.Objective, r rng.Source) (Restored, error) {
	pops := make([]*population.Population, len(rec.Populations))
	for k, pr := range rec.Populations {
		p, err := population.Restore(pr, objective, r)
		if err != nil {
			return nil, fmt.Errorf("restore population %d: %w", k, err)
		}
		pops[k] = p
	}
	cfg := Config{MigrateProb: rec.MigrateProb, Partners: rec.Partners}
	switch rec.Kind {
	case KindDual:
		if len(pops) != 2 {
			return nil, fmt.Errorf("dual species needs 2 populations, got %d", len(pops))
		}
		d, err := NewDual(pops[0], pops[1], cfg, r)
		if err != nil {
			return nil, err
		}
		d.generation = rec.Generation
		return d, nil
	case KindIsland, "":
		s, err := New(pops, cfg, r)
		if err != nil {
			return nil, err
		}
		s.generation = rec.Generation
		return s, nil
	default:
		return nil, fmt.Errorf("unknown species kind %q", rec.Kind)
	}
}
