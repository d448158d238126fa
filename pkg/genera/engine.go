package genera

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"genera/internal/config"
	"genera/internal/evo"
	"genera/internal/individual"
	"genera/internal/model"
	"genera/internal/population"
	"genera/internal/problem"
	"genera/internal/rng"
	"genera/internal/species"
	"genera/internal/stats"
	"genera/internal/storage"
)

// engine is the evolving model of a run together with the populations it
// owns. kind is empty for a single population.
type engine struct {
	model       evo.Model
	kind        string
	populations []*population.Population
	snapshot    func() (*model.PopulationRecord, *model.SpeciesRecord, error)
}

func fromPopulation(p *population.Population) engine {
	return engine{
		model:       p,
		populations: []*population.Population{p},
		snapshot: func() (*model.PopulationRecord, *model.SpeciesRecord, error) {
			rec, err := p.Snapshot()
			if err != nil {
				return nil, nil, err
			}
			return &rec, nil, nil
		},
	}
}

func fromSpecies(kind string, s species.Restored) (engine, error) {
	m, ok := s.(evo.Model)
	if !ok {
		return engine{}, fmt.Errorf("species %s cannot evolve", kind)
	}
	return engine{
		model:       m,
		kind:        kind,
		populations: s.Populations(),
		snapshot: func() (*model.PopulationRecord, *model.SpeciesRecord, error) {
			rec, err := s.Snapshot()
			if err != nil {
				return nil, nil, err
			}
			return nil, &rec, nil
		},
	}, nil
}

func (e engine) strategy() string {
	if e.kind == species.KindDual {
		return species.DualStrategy
	}
	if len(e.populations) == 0 {
		return ""
	}
	return e.populations[0].Strategy().Name()
}

func (e engine) checkpoint(runID, problemName string, size int, seed int64) (model.Checkpoint, error) {
	pop, spec, err := e.snapshot()
	if err != nil {
		return model.Checkpoint{}, err
	}
	return model.Checkpoint{
		VersionedRecord: storage.Current(),
		ID:              uuid.NewString(),
		RunID:           runID,
		Problem:         problemName,
		ProblemSize:     size,
		Generation:      e.model.Generation(),
		Seed:            seed,
		CreatedAtUTC:    time.Now().UTC().Format(timestampLayout),
		Population:      pop,
		Species:         spec,
	}, nil
}

func (c *Client) objective(obj individual.Objective) individual.Objective {
	if c.metrics == nil {
		return obj
	}
	return c.metrics.CountingObjective(obj)
}

// build creates a random model for req.
func (c *Client) build(req RunRequest, r rng.Source) (engine, problem.Problem, int, error) {
	prob, err := problem.Resolve(req.Problem)
	if err != nil {
		return engine{}, problem.Problem{}, 0, err
	}
	params, err := prob.Chromosome(req.Chromosome)
	if err != nil {
		return engine{}, problem.Problem{}, 0, err
	}
	bp, err := prob.Blueprint(req.Chromosome)
	if err != nil {
		return engine{}, problem.Problem{}, 0, err
	}
	bp = bp.WithObjective(c.objective(bp.Objective))
	bp.Memory = req.Memory
	strategy, err := population.ResolveStrategy(req.Strategy)
	if err != nil {
		return engine{}, problem.Problem{}, 0, err
	}

	random := func() (*population.Population, error) {
		return population.Random(bp, req.Population.Size, req.Population, strategy, r)
	}
	var eng engine
	switch req.Layout {
	case config.LayoutSingle:
		p, err := random()
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		eng = fromPopulation(p)
	case config.LayoutIsland:
		pops := make([]*population.Population, req.Islands)
		for k := range pops {
			if pops[k], err = random(); err != nil {
				return engine{}, problem.Problem{}, 0, fmt.Errorf("island %d: %w", k, err)
			}
		}
		s, err := species.New(pops, req.Species, r)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		eng, err = fromSpecies(species.KindIsland, s)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
	case config.LayoutDual:
		males, err := random()
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		females, err := random()
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		d, err := species.NewDual(males, females, req.Species, r)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		eng, err = fromSpecies(species.KindDual, d)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
	default:
		return engine{}, problem.Problem{}, 0, fmt.Errorf("unsupported species layout: %s", req.Layout)
	}
	return eng, prob, params.Size, nil
}

// restore rebuilds the model of a checkpoint, resolving its objective by
// problem name.
func (c *Client) restore(cp model.Checkpoint, r rng.Source) (engine, problem.Problem, int, error) {
	prob, err := problem.Resolve(cp.Problem)
	if err != nil {
		return engine{}, problem.Problem{}, 0, err
	}
	size := cp.ProblemSize
	if size <= 0 {
		size = prob.Params.Size
	}
	objective := c.objective(prob.Objective(size))

	switch {
	case cp.Population != nil:
		p, err := population.Restore(*cp.Population, objective, r)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		return fromPopulation(p), prob, size, nil
	case cp.Species != nil:
		s, err := species.Restore(*cp.Species, objective, r)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		kind := cp.Species.Kind
		if kind == "" {
			kind = species.KindIsland
		}
		eng, err := fromSpecies(kind, s)
		if err != nil {
			return engine{}, problem.Problem{}, 0, err
		}
		return eng, prob, size, nil
	default:
		return engine{}, problem.Problem{}, 0, fmt.Errorf("checkpoint %s holds neither a population nor a species", cp.ID)
	}
}

// topIndividuals ranks the live individuals of every population by
// descending fitness.
func topIndividuals(pops []*population.Population, n int) ([]stats.TopIndividual, error) {
	var all []*individual.Individual
	for _, p := range pops {
		all = append(all, p.Individuals()...)
	}
	slices.SortStableFunc(all, func(a, b *individual.Individual) int {
		return cmp.Compare(b.Fitness(), a.Fitness())
	})
	all = all[:min(n, len(all))]

	out := make([]stats.TopIndividual, 0, len(all))
	for k, ind := range all {
		rec, err := ind.Snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, stats.TopIndividual{
			Rank:       k + 1,
			Fitness:    ind.Fitness(),
			Solution:   ind.String(),
			Individual: rec,
		})
	}
	return out, nil
}

type SaveCheckpointRequest struct {
	RunID     string
	Latest    bool
	Path      string
	Overwrite bool
}

type LoadCheckpointRequest struct {
	Path string
}

type CheckpointSummary struct {
	ID          string
	RunID       string
	Problem     string
	Generation  int
	Path        string
	BestFitness float64
	Individuals int
}

// SaveCheckpoint writes the latest checkpoint of a run to a file.
func (c *Client) SaveCheckpoint(ctx context.Context, req SaveCheckpointRequest) (CheckpointSummary, error) {
	if req.Path == "" {
		return CheckpointSummary{}, errors.New("checkpoint path is required")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "checkpoint save")
	if err != nil {
		return CheckpointSummary{}, err
	}
	cp, err := c.latestCheckpoint(ctx, runID)
	if err != nil {
		return CheckpointSummary{}, err
	}
	if err := storage.SaveCheckpointFile(req.Path, cp, req.Overwrite); err != nil {
		return CheckpointSummary{}, err
	}
	return c.summarize(cp, req.Path)
}

// LoadCheckpoint reads a checkpoint file, checks that its model can be
// rebuilt and adds it to the store.
func (c *Client) LoadCheckpoint(ctx context.Context, req LoadCheckpointRequest) (CheckpointSummary, error) {
	if err := c.Init(ctx); err != nil {
		return CheckpointSummary{}, err
	}
	cp, err := storage.LoadCheckpointFile(req.Path)
	if err != nil {
		return CheckpointSummary{}, err
	}
	summary, err := c.summarize(cp, req.Path)
	if err != nil {
		return CheckpointSummary{}, err
	}
	if err := c.store.SaveCheckpoint(ctx, cp); err != nil {
		return CheckpointSummary{}, err
	}
	return summary, nil
}

func (c *Client) summarize(cp model.Checkpoint, path string) (CheckpointSummary, error) {
	eng, prob, _, err := c.restore(cp, rng.New(cp.Seed))
	if err != nil {
		return CheckpointSummary{}, err
	}
	n := 0
	for _, p := range eng.populations {
		n += p.Len()
	}
	return CheckpointSummary{
		ID:          cp.ID,
		RunID:       cp.RunID,
		Problem:     prob.Name,
		Generation:  cp.Generation,
		Path:        filepath.Clean(path),
		BestFitness: eng.model.BestFitness(),
		Individuals: n,
	}, nil
}

func (c *Client) resumeCheckpoint(ctx context.Context, req RunRequest) (model.Checkpoint, error) {
	if req.ResumeFile != "" {
		return storage.LoadCheckpointFile(req.ResumeFile)
	}
	return c.latestCheckpoint(ctx, req.Resume)
}

// latestCheckpoint returns the newest checkpoint of a run from the store,
// falling back to the copy kept with the run's artifacts.
func (c *Client) latestCheckpoint(ctx context.Context, runID string) (model.Checkpoint, error) {
	if err := c.Init(ctx); err != nil {
		return model.Checkpoint{}, err
	}
	cps, err := c.store.ListCheckpoints(ctx, runID)
	if err != nil {
		return model.Checkpoint{}, err
	}
	if len(cps) > 0 {
		return cps[len(cps)-1], nil
	}
	cp, err := storage.LoadCheckpointFile(filepath.Join(c.artifactsDir, runID, checkpointFile))
	if err != nil {
		return model.Checkpoint{}, fmt.Errorf("checkpoint for run id %s: %w", runID, err)
	}
	return cp, nil
}
