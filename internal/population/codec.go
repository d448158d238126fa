package population

import (
	"fmt"

	"genera/internal/individual"
	"genera/internal/model"
	"genera/internal/rng"
)

// Snapshot converts the population into its persistent record.
func (p *Population) Snapshot() (model.PopulationRecord, error) {
	inds, err := snapshotAll(p.individuals)
	if err != nil {
		return model.PopulationRecord{}, err
	}
	hof, err := snapshotAll(p.hof)
	if err != nil {
		return model.PopulationRecord{}, err
	}
	return model.PopulationRecord{
		ID:          p.id,
		Strategy:    p.strategy.Name(),
		Generation:  p.generation,
		Params:      p.cfg.Params(),
		Individuals: inds,
		HallOfFame:  hof,
	}, nil
}

// Restore rebuilds a population from its record, resolving the strategy by
// name and attaching objective to every individual.
func Restore(rec model.PopulationRecord, objective individual.Objective, r rng.Source) (*Population, error) {
	strategy, err := ResolveStrategy(rec.Strategy)
	if err != nil {
		return nil, err
	}
	inds, err := restoreAll(rec.Individuals, objective)
	if err != nil {
		return nil, err
	}
	hof, err := restoreAll(rec.HallOfFame, objective)
	if err != nil {
		return nil, err
	}
	p, err := New(inds, ConfigFromParams(rec.Params), strategy, r)
	if err != nil {
		return nil, fmt.Errorf("restore population %s: %w", rec.ID, err)
	}
	if rec.ID != "" {
		p.id = rec.ID
	}
	p.generation = rec.Generation
	if len(hof) > 0 {
		p.SetHallOfFame(hof)
	}
	return p, nil
}

func snapshotAll(inds []*individual.Individual) ([]model.IndividualRecord, error) {
	out := make([]model.IndividualRecord, len(inds))
	for k, ind := range inds {
		rec, err := ind.Snapshot()
		if err != nil {
			return nil, err
		}
		out[k] = rec
	}
	return out, nil
}

func restoreAll(recs []model.IndividualRecord, objective individual.Objective) ([]*individual.Individual, error) {
	out := make([]*individual.Individual, len(recs))
	for k, rec := range recs {
		ind, err := individual.Restore(rec, objective)
		if err != nil {
			return nil, err
		}
		out[k] = ind
	}
	return out, nil
}
