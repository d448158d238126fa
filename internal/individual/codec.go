package individual

import (
	"fmt"

	"genera/internal/cache"
	"genera/internal/chromosome"
	"genera/internal/model"
)

// Snapshot converts the individual into its persistent record. The cached
// fitness is kept so a restored population is not evaluated again.
func (i *Individual) Snapshot() (model.IndividualRecord, error) {
	chs, err := encodeAll(i.chromosomes)
	if err != nil {
		return model.IndividualRecord{}, err
	}
	rec := model.IndividualRecord{
		ID:          i.id,
		Chromosomes: chs,
		Fixed:       i.fixed,
		Age:         i.age,
		HasMemory:   i.memory != nil,
	}
	if f, ok := i.cache.Get(cache.KeyFitness); ok {
		rec.Fitness = &f
	}
	if i.indepProb > 0 {
		p := i.indepProb
		rec.IndepProb = &p
	}
	if i.memory != nil {
		if f, ok := i.memory.Fitness(); ok {
			sol, _ := i.memory.Solution()
			best, err := encodeAll(sol)
			if err != nil {
				return model.IndividualRecord{}, err
			}
			rec.Memory = &model.MemoryRecord{Fitness: f, Chromosomes: best}
		}
	}
	return rec, nil
}

// Restore rebuilds an individual from its record. Objectives are not
// persisted and must be supplied again.
func Restore(rec model.IndividualRecord, objective Objective) (*Individual, error) {
	chs, err := restoreAll(rec.Chromosomes)
	if err != nil {
		return nil, fmt.Errorf("restore individual %s: %w", rec.ID, err)
	}
	var opts []Option
	if rec.IndepProb != nil {
		opts = append(opts, WithIndepProb(*rec.IndepProb))
	}
	if rec.HasMemory {
		opts = append(opts, WithMemory())
	}
	if rec.Fixed {
		opts = append(opts, Fixed())
	}
	ind, err := New(objective, chs, opts...)
	if err != nil {
		return nil, err
	}
	if rec.ID != "" {
		ind.id = rec.ID
	}
	ind.age = rec.Age
	if rec.Fitness != nil {
		ind.cache.Put(cache.KeyFitness, *rec.Fitness)
	}
	if rec.Memory != nil {
		best, err := restoreAll(rec.Memory.Chromosomes)
		if err != nil {
			return nil, fmt.Errorf("restore memory of %s: %w", rec.ID, err)
		}
		ind.RestoreMemory(rec.Memory.Fitness, best)
	}
	return ind, nil
}

func encodeAll(chs []chromosome.Chromosome) ([]model.ChromosomeRecord, error) {
	out := make([]model.ChromosomeRecord, len(chs))
	for k, c := range chs {
		rec, err := chromosome.Encode(c)
		if err != nil {
			return nil, err
		}
		out[k] = rec
	}
	return out, nil
}

func restoreAll(recs []model.ChromosomeRecord) ([]chromosome.Chromosome, error) {
	out := make([]chromosome.Chromosome, len(recs))
	for k, rec := range recs {
		c, err := chromosome.Restore(rec)
		if err != nil {
			return nil, err
		}
		out[k] = c
	}
	return out, nil
}
