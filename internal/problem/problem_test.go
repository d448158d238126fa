package problem

import (
	"context"
	"errors"
	"math"
	"testing"

	"genera/internal/chromosome"
	"genera/internal/individual"
	"genera/internal/population"
	"genera/internal/rng"
)

func TestRegistryListsBuiltins(t *testing.T) {
	var names []string
	for _, p := range List() {
		names = append(names, p.Name)
	}
	want := []string{"knapsack", "onemax", "sphere", "tsp-ring"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for k := range want {
		if names[k] != want[k] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
	if _, err := Resolve("nope"); !errors.Is(err, ErrProblemNotFound) {
		t.Fatalf("expected ErrProblemNotFound, got %v", err)
	}
	if err := Register(OneMax()); !errors.Is(err, ErrProblemExists) {
		t.Fatalf("expected ErrProblemExists, got %v", err)
	}
	if err := Register(Problem{Name: "empty"}); !errors.Is(err, chromosome.ErrNotImplemented) {
		t.Fatalf("expected a missing objective error, got %v", err)
	}
}

func TestChromosomeOverride(t *testing.T) {
	p := Sphere()
	params, err := p.Chromosome(chromosome.Params{Size: 3, Sigma: 0.5})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if params.Size != 3 || params.Sigma != 0.5 || params.Lo != -5 || params.Hi != 5 {
		t.Fatalf("unexpected params %+v", params)
	}
	if _, err := p.Chromosome(chromosome.Params{Kind: chromosome.KindBinary}); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestTSPRingOptimumIsRingOrder(t *testing.T) {
	p := TSPRing()
	obj := p.Objective(6)
	ring := obj(individual.Solution{[]int{0, 1, 2, 3, 4, 5}})
	want, ok := p.Optimum(6)
	if !ok || math.Abs(ring-want) > 1e-9 {
		t.Fatalf("ring tour %f, optimum %f", ring, want)
	}
	if crossed := obj(individual.Solution{[]int{0, 3, 1, 4, 2, 5}}); crossed >= ring {
		t.Fatalf("crossing tour %f should be worse than ring %f", crossed, ring)
	}
}

func TestKnapsackPenalizesOverweight(t *testing.T) {
	inst := NewKnapsackInstance(8)
	if again := NewKnapsackInstance(8); again.Capacity != inst.Capacity || again.Weights[3] != inst.Weights[3] {
		t.Fatal("instances must be deterministic in their size")
	}
	all := make([]uint8, 8)
	for k := range all {
		all[k] = 1
	}
	if inst.Evaluate(all) >= 0 {
		t.Fatal("packing every item must exceed the capacity")
	}
	if inst.Evaluate(make([]uint8, 8)) != 0 {
		t.Fatal("empty knapsack must be worth 0")
	}
}

func TestOneMaxSolvedByStandardStrategy(t *testing.T) {
	p, _ := Resolve("onemax")
	bp, err := p.Blueprint(chromosome.Params{Size: 12})
	if err != nil {
		t.Fatalf("blueprint: %v", err)
	}
	pop, err := population.Random(bp, 30, population.DefaultConfig(), population.Standard{}, rng.New(1))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	ctx := context.Background()
	if err := pop.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for gen := 1; gen <= 60; gen++ {
		if err := pop.Transition(ctx, gen); err != nil {
			t.Fatalf("transition %d: %v", gen, err)
		}
	}
	optimum, _ := p.Optimum(12)
	if pop.BestFitness() < optimum-2 {
		t.Fatalf("expected near-optimal onemax, got %f of %f", pop.BestFitness(), optimum)
	}
}
