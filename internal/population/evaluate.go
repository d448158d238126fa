package population

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"genera/internal/individual"
)

// Evaluate computes the fitness of every unevaluated individual, including
// the hall of fame, in parallel. Each task writes only its own
// individual's cache.
func (p *Population) Evaluate(ctx context.Context) error {
	inds := make([]*individual.Individual, 0, len(p.individuals)+len(p.hof))
	inds = append(inds, p.individuals...)
	inds = append(inds, p.hof...)
	return evaluate(ctx, p.cfg.Workers, inds)
}

func evaluate(ctx context.Context, workers int, inds []*individual.Individual) error {
	seen := make(map[*individual.Individual]struct{}, len(inds))
	pending := make([]*individual.Individual, 0, len(inds))
	for _, ind := range inds {
		if _, ok := seen[ind]; ok || ind.Evaluated() {
			continue
		}
		seen[ind] = struct{}{}
		pending = append(pending, ind)
	}
	if len(pending) == 0 {
		return ctx.Err()
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 {
		for _, ind := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			ind.RawFitness()
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, ind := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ind.RawFitness()
			return nil
		})
	}
	return g.Wait()
}
