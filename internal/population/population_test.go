package population

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"genera/internal/chromosome"
	"genera/internal/individual"
	"genera/internal/rng"
)

// valueOf scores an individual by the single gene of its natural chromosome.
func valueOf(s individual.Solution) float64 {
	return float64(s[0].([]int)[0])
}

func onesOf(s individual.Solution) float64 {
	total := 0.0
	for _, b := range s[0].([]uint8) {
		total += float64(b)
	}
	return total
}

func knapsack(s individual.Solution) float64 {
	weights := []float64{2, 3, 4, 5}
	values := []float64{3, 4, 5, 6}
	var w, v float64
	for k, b := range s[0].([]uint8) {
		if b == 1 {
			w += weights[k]
			v += values[k]
		}
	}
	if w > 5 {
		return 0
	}
	return v
}

func negSphere(s individual.Solution) float64 {
	total := 0.0
	for _, x := range s[0].([]float64) {
		total -= x * x
	}
	return total
}

func valued(t *testing.T, values ...int) []*individual.Individual {
	t.Helper()
	out := make([]*individual.Individual, len(values))
	for k, v := range values {
		ind, err := individual.New(valueOf, []chromosome.Chromosome{chromosome.NewNatural(100, v)})
		if err != nil {
			t.Fatalf("new individual: %v", err)
		}
		out[k] = ind
	}
	return out
}

func fitnessesOf(inds []*individual.Individual) []float64 {
	out := make([]float64, len(inds))
	for k, ind := range inds {
		out[k] = ind.Fitness()
	}
	return out
}

func newBinaryPopulation(t *testing.T, seed int64, n, size int, obj individual.Objective, cfg Config, s Strategy) *Population {
	t.Helper()
	bp := individual.Homogeneous(chromosome.BinaryType{Size: size}, 1).WithObjective(obj)
	p, err := Random(bp, n, cfg, s, rng.New(seed))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return p
}

func TestSelectTournamentOverWholePool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TournSize = 5
	p, err := New(valued(t, 1, 2, 3, 4, 5), cfg, Plain{}, rng.New(1))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	p.Select(5, 0)
	got := fitnessesOf(p.Individuals())
	if len(got) < 2 || got[0] != 5 || got[1] != 4 {
		t.Fatalf("expected selection to start with 5, 4, got %v", got)
	}
	// The last remaining candidate is never drawn.
	if !slices.Equal(got, []float64{5, 4, 3, 2}) {
		t.Fatalf("expected 5 4 3 2, got %v", got)
	}
}

func TestSelectNeverChoosesTwice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TournSize = 3
	p := newBinaryPopulation(t, 4, 20, 12, onesOf, cfg, Plain{})
	p.Select(50, 0)
	seen := map[*individual.Individual]bool{}
	for _, ind := range p.Individuals() {
		if seen[ind] {
			t.Fatal("individual selected twice")
		}
		seen[ind] = true
	}
	if p.Len() != 19 {
		t.Fatalf("expected selection to stop with one candidate left, got %d", p.Len())
	}
}

func TestMatePairsConsecutively(t *testing.T) {
	p, err := New(valued(t, 1, 2, 3), DefaultConfig(), Plain{}, rng.New(1))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	if err := p.Mate(0); err != nil {
		t.Fatalf("mate: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("zero mate prob must be a no-op, got %d individuals", p.Len())
	}
	if err := p.Mate(1); err != nil {
		t.Fatalf("mate: %v", err)
	}
	if p.Len() != 4 {
		t.Fatalf("expected one offspring for three individuals, got %d individuals", p.Len())
	}
}

func TestMutateWithZeroProbabilityKeepsIndividuals(t *testing.T) {
	p := newBinaryPopulation(t, 2, 10, 16, onesOf, DefaultConfig(), Plain{})
	before := make([]string, p.Len())
	for k, ind := range p.Individuals() {
		before[k] = ind.String()
	}
	p.Mutate(0)
	for k, ind := range p.Individuals() {
		if ind.String() != before[k] || !ind.Evaluated() {
			t.Fatalf("individual %d changed under zero mutation", k)
		}
	}
}

func TestStandardElitismNeverRegresses(t *testing.T) {
	p := newBinaryPopulation(t, 3, 20, 24, onesOf, DefaultConfig(), Standard{})
	ctx := context.Background()
	for gen := 1; gen <= 30; gen++ {
		before := p.BestFitness()
		if err := p.Transition(ctx, gen); err != nil {
			t.Fatalf("transition %d: %v", gen, err)
		}
		if after := p.BestFitness(); after < before {
			t.Fatalf("generation %d regressed: %f -> %f", gen, before, after)
		}
	}
}

func TestHallOfFameIsMonotonicAndSorted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HOFSize = 3
	p := newBinaryPopulation(t, 5, 12, 20, onesOf, cfg, HallOfFame{})
	ctx := context.Background()
	prev := p.BestFitness()
	for gen := 1; gen <= 40; gen++ {
		if err := p.Transition(ctx, gen); err != nil {
			t.Fatalf("transition %d: %v", gen, err)
		}
		best := p.BestFitness()
		if best < prev {
			t.Fatalf("hall of fame best decreased at %d: %f -> %f", gen, prev, best)
		}
		prev = best
		hof := fitnessesOf(p.HallOfFame())
		if len(hof) > cfg.HOFSize || !slices.IsSorted(hof) {
			t.Fatalf("hall of fame not bounded and ascending: %v", hof)
		}
	}
}

func TestHallOfFameMembersAreFrozen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutateProb = 1
	p := newBinaryPopulation(t, 8, 10, 16, onesOf, cfg, HallOfFame{})
	before := p.HallOfFame()
	snap := make([]string, len(before))
	for k, ind := range before {
		snap[k] = ind.String()
	}
	if err := p.Transition(context.Background(), 1); err != nil {
		t.Fatalf("transition: %v", err)
	}
	for k, ind := range before {
		if ind.String() != snap[k] {
			t.Fatalf("hall of fame member %d was mutated", k)
		}
	}
}

func TestKnapsackHallOfFameReachesOptimum(t *testing.T) {
	ctx := context.Background()
	hits := 0
	for seed := int64(1); seed <= 20; seed++ {
		p := newBinaryPopulation(t, seed, 10, 4, knapsack, DefaultConfig(), HallOfFame{})
		for gen := 1; gen <= 50; gen++ {
			if err := p.Transition(ctx, gen); err != nil {
				t.Fatalf("seed %d transition %d: %v", seed, gen, err)
			}
		}
		if p.BestFitness() >= 7 {
			hits++
		}
	}
	if hits < 19 {
		t.Fatalf("expected optimum 7 in at least 19 of 20 runs, got %d", hits)
	}
}

func TestDifferentialEvolutionReplacesGreedily(t *testing.T) {
	bp := individual.Homogeneous(chromosome.FloatType{Size: 5, Lo: -2, Hi: 2}, 1).WithObjective(negSphere)
	p, err := Random(bp, 12, DefaultConfig(), DifferentialEvolution{}, rng.New(6))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for gen := 1; gen <= 20; gen++ {
		before := p.Fitnesses()
		if err := p.Transition(ctx, gen); err != nil {
			t.Fatalf("transition %d: %v", gen, err)
		}
		after := p.Fitnesses()
		for k := range before {
			if after[k] < before[k] {
				t.Fatalf("individual %d got worse at generation %d: %f -> %f", k, gen, before[k], after[k])
			}
		}
	}
}

func TestDifferentialEvolutionNeedsVectors(t *testing.T) {
	bp := individual.Homogeneous(chromosome.BinaryType{Size: 4}, 1).WithObjective(onesOf)
	p, err := Random(bp, 5, DefaultConfig(), DifferentialEvolution{}, rng.New(1))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	if err := p.Init(context.Background()); !errors.Is(err, chromosome.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestEveryStrategyRuns(t *testing.T) {
	ctx := context.Background()
	for _, name := range ListStrategies() {
		s, err := ResolveStrategy(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		var bp individual.Blueprint
		if name == StrategyDifferential {
			bp = individual.Homogeneous(chromosome.UnitFloatType{Size: 6}, 1).WithObjective(negSphere)
		} else {
			bp = individual.Homogeneous(chromosome.BinaryType{Size: 10}, 1).WithObjective(onesOf)
		}
		p, err := Random(bp, 10, DefaultConfig(), s, rng.New(9))
		if err != nil {
			t.Fatalf("%s: random population: %v", name, err)
		}
		if err := p.Init(ctx); err != nil {
			t.Fatalf("%s: init: %v", name, err)
		}
		for gen := 1; gen <= 5; gen++ {
			if err := p.Transition(ctx, gen); err != nil {
				t.Fatalf("%s: transition %d: %v", name, gen, err)
			}
		}
		if p.Len() == 0 || p.Generation() != 5 {
			t.Fatalf("%s: unexpected state len=%d generation=%d", name, p.Len(), p.Generation())
		}
	}
	if _, err := ResolveStrategy("annealing"); !errors.Is(err, ErrStrategyNotFound) {
		t.Fatalf("expected ErrStrategyNotFound, got %v", err)
	}
}

func TestCrossAtExchangesHeadsAndTails(t *testing.T) {
	a, _ := New(valued(t, 0, 1, 2, 3), DefaultConfig(), nil, rng.New(1))
	b, _ := New(valued(t, 10, 11, 12, 13), DefaultConfig(), nil, rng.New(1))
	a.CrossAt(b, 1, 2)
	if got := fitnessesOf(a.Individuals()); !slices.Equal(got, []float64{1, 2, 3, 10, 11}) {
		t.Fatalf("unexpected first population %v", got)
	}
	if got := fitnessesOf(b.Individuals()); !slices.Equal(got, []float64{12, 13, 0}) {
		t.Fatalf("unexpected second population %v", got)
	}

	single, _ := New(valued(t, 5), DefaultConfig(), nil, rng.New(1))
	a.Cross(single, rng.New(2))
	if single.Len() != 1 || a.Len() != 5 {
		t.Fatal("cross with a single-individual population must be a no-op")
	}
}

func TestCacheFollowsStructuralChanges(t *testing.T) {
	p, err := New(valued(t, 3, 1, 5, 4), DefaultConfig(), nil, rng.New(1))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	if f := p.BestFitness(); f != 5 {
		t.Fatalf("expected best 5, got %f", f)
	}
	if p.Cache()[KeyBestFitness] != 5 {
		t.Fatal("expected best fitness to be cached")
	}
	if !p.Remove(p.BestIndividual()) {
		t.Fatal("expected best individual to be removed")
	}
	if f := p.BestFitness(); f != 4 {
		t.Fatalf("expected best 4 after remove, got %f", f)
	}
	if _, err := p.Pop(-1); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if f := p.MeanFitness(); f != 2 {
		t.Fatalf("expected mean 2 after pop, got %f", f)
	}
	best := fitnessesOf(p.BestIndividuals(2, false))
	if !slices.Equal(best, []float64{1, 3}) {
		t.Fatalf("expected ascending best individuals, got %v", best)
	}
}

func TestEvaluateComputesEachIndividualOnce(t *testing.T) {
	var calls atomic.Int64
	obj := func(s individual.Solution) float64 {
		calls.Add(1)
		return onesOf(s)
	}
	bp := individual.Homogeneous(chromosome.BinaryType{Size: 8}, 1).WithObjective(obj)
	cfg := DefaultConfig()
	cfg.Workers = 4
	p, err := Random(bp, 16, cfg, nil, rng.New(3))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	p.Add(p.Individual(0))
	if err := p.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := calls.Load(); got != 16 {
		t.Fatalf("expected 16 evaluations, got %d", got)
	}
	if err := p.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := calls.Load(); got != 16 {
		t.Fatalf("expected cached fitness to be reused, got %d evaluations", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Individual(1).ClearCache()
	if err := p.Evaluate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSnapshotRestoreKeepsHallOfFame(t *testing.T) {
	p := newBinaryPopulation(t, 7, 8, 10, onesOf, DefaultConfig(), HallOfFame{})
	if err := p.Transition(context.Background(), 1); err != nil {
		t.Fatalf("transition: %v", err)
	}
	rec, err := p.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	out, err := Restore(rec, onesOf, rng.New(1))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Strategy().Name() != StrategyHallOfFame || out.Generation() != 1 || out.Len() != p.Len() {
		t.Fatalf("unexpected restored population: strategy=%s generation=%d len=%d", out.Strategy().Name(), out.Generation(), out.Len())
	}
	if out.BestFitness() != p.BestFitness() {
		t.Fatalf("expected best %f, got %f", p.BestFitness(), out.BestFitness())
	}
}

func TestInitKeepsBetterRememberedState(t *testing.T) {
	ind, err := individual.New(valueOf, []chromosome.Chromosome{chromosome.NewNatural(100, 90)}, individual.WithMemory())
	if err != nil {
		t.Fatalf("new individual: %v", err)
	}
	p, err := New([]*individual.Individual{ind}, DefaultConfig(), Plain{}, rng.New(1))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := ind.SetChromosome(0, chromosome.NewNatural(100, 10)); err != nil {
		t.Fatalf("set chromosome: %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if f, ok := ind.Memory(); !ok || f != 90 {
		t.Fatalf("expected remembered 90 after a second init, got %f ok=%v", f, ok)
	}

	if err := ind.SetChromosome(0, chromosome.NewNatural(100, 95)); err != nil {
		t.Fatalf("set chromosome: %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("third init: %v", err)
	}
	if f, _ := ind.Memory(); f != 95 {
		t.Fatalf("expected a fitter state to be remembered, got %f", f)
	}
}

func TestTransitionsKeepMemoryAtBestObserved(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutateProb = 1
	bp := individual.Homogeneous(chromosome.BinaryType{Size: 16}, 1).WithObjective(onesOf)
	bp.Memory = true
	p, err := Random(bp, 10, cfg, Plain{}, rng.New(11))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for gen := 1; gen <= 20; gen++ {
		if err := p.Transition(ctx, gen); err != nil {
			t.Fatalf("transition %d: %v", gen, err)
		}
		for k, ind := range p.Individuals() {
			m, ok := ind.Memory()
			if !ok {
				t.Fatalf("generation %d: individual %d has no memory", gen, k)
			}
			if raw := ind.RawFitness(); raw > m {
				t.Fatalf("generation %d: current fitness %f beats remembered %f", gen, raw, m)
			}
		}
	}
}

func TestHallOfFameInitKeepsRestoredMembers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HOFSize = 3
	p := newBinaryPopulation(t, 9, 8, 24, onesOf, cfg, HallOfFame{})

	ones := func(n int) *individual.Individual {
		bits := make([]uint8, 24)
		for k := 0; k < n; k++ {
			bits[k] = 1
		}
		ind, err := individual.New(onesOf, []chromosome.Chromosome{chromosome.NewBinary(bits...)})
		if err != nil {
			t.Fatalf("new individual: %v", err)
		}
		return ind
	}
	p.SetHallOfFame([]*individual.Individual{ones(24), ones(23)})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	hof := fitnessesOf(p.HallOfFame())
	if len(hof) != 3 || hof[1] != 23 || hof[2] != 24 {
		t.Fatalf("expected restored members 23 and 24 to survive init, got %v", hof)
	}
	if p.BestFitness() != 24 {
		t.Fatalf("expected best 24, got %f", p.BestFitness())
	}
}
