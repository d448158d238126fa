// Package problem holds the demonstration objectives the CLI can run by
// name. Each problem fixes its chromosome kind and builds its objective for
// a given size.
package problem

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"genera/internal/chromosome"
	"genera/internal/individual"
	"genera/internal/rng"
)

var (
	ErrProblemExists   = errors.New("problem already registered")
	ErrProblemNotFound = errors.New("problem not found")
)

type Problem struct {
	Name        string
	Description string
	// Params is the default chromosome; its Kind cannot be overridden.
	Params    chromosome.Params
	Objective func(size int) individual.Objective
	// Optimum reports the best attainable fitness when it is known.
	Optimum func(size int) (float64, bool)
}

// Chromosome merges the non-zero fields of override into the problem's
// default chromosome parameters.
func (p Problem) Chromosome(override chromosome.Params) (chromosome.Params, error) {
	out := p.Params
	if override.Kind != "" && override.Kind != out.Kind {
		return chromosome.Params{}, fmt.Errorf("problem %s requires %s chromosomes, got %s", p.Name, out.Kind, override.Kind)
	}
	if override.Size > 0 {
		out.Size = override.Size
	}
	if override.UB > 0 {
		out.UB = override.UB
	}
	if override.Hi > override.Lo {
		out.Lo, out.Hi = override.Lo, override.Hi
	}
	if override.Sigma > 0 {
		out.Sigma = override.Sigma
	}
	if override.Period > 0 {
		out.Period = override.Period
	}
	if override.Rows > 0 {
		out.Rows = override.Rows
	}
	if override.Cols > 0 {
		out.Cols = override.Cols
	}
	return out, nil
}

// Blueprint builds single-chromosome individuals for the problem.
func (p Problem) Blueprint(override chromosome.Params) (individual.Blueprint, error) {
	params, err := p.Chromosome(override)
	if err != nil {
		return individual.Blueprint{}, err
	}
	t, err := chromosome.NewType(params)
	if err != nil {
		return individual.Blueprint{}, err
	}
	return individual.Homogeneous(t, 1).WithObjective(p.Objective(params.Size)), nil
}

var problemRegistry = struct {
	mu sync.RWMutex
	m  map[string]Problem
}{
	m: make(map[string]Problem),
}

func init() {
	for _, p := range []Problem{OneMax(), Knapsack(), Sphere(), TSPRing()} {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}

func Register(p Problem) error {
	if p.Name == "" {
		return errors.New("problem name is required")
	}
	if p.Objective == nil {
		return fmt.Errorf("problem %s: %w", p.Name, individual.ErrNoObjective)
	}
	problemRegistry.mu.Lock()
	defer problemRegistry.mu.Unlock()
	if _, exists := problemRegistry.m[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrProblemExists, p.Name)
	}
	problemRegistry.m[p.Name] = p
	return nil
}

func Resolve(name string) (Problem, error) {
	problemRegistry.mu.RLock()
	defer problemRegistry.mu.RUnlock()
	p, ok := problemRegistry.m[name]
	if !ok {
		return Problem{}, fmt.Errorf("%w: %s", ErrProblemNotFound, name)
	}
	return p, nil
}

func List() []Problem {
	problemRegistry.mu.RLock()
	defer problemRegistry.mu.RUnlock()
	out := make([]Problem, 0, len(problemRegistry.m))
	for _, p := range problemRegistry.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func OneMax() Problem {
	return Problem{
		Name:        "onemax",
		Description: "maximize the number of set bits",
		Params:      chromosome.Params{Kind: chromosome.KindBinary, Size: 32},
		Objective: func(int) individual.Objective {
			return func(s individual.Solution) float64 {
				total := 0.0
				for _, b := range s[0].([]uint8) {
					total += float64(b)
				}
				return total
			}
		},
		Optimum: func(size int) (float64, bool) { return float64(size), true },
	}
}

// KnapsackInstance is a 0/1 knapsack drawn deterministically from its size.
type KnapsackInstance struct {
	Weights  []float64
	Values   []float64
	Capacity float64
}

func NewKnapsackInstance(size int) KnapsackInstance {
	r := rng.New(int64(size))
	inst := KnapsackInstance{Weights: make([]float64, size), Values: make([]float64, size)}
	total := 0.0
	for k := range size {
		inst.Weights[k] = float64(rng.IntRange(r, 1, 20))
		inst.Values[k] = float64(rng.IntRange(r, 1, 30))
		total += inst.Weights[k]
	}
	inst.Capacity = math.Floor(total / 2)
	return inst
}

// Evaluate returns the packed value, or the negative overweight when the
// capacity is exceeded.
func (k KnapsackInstance) Evaluate(bits []uint8) float64 {
	var w, v float64
	for i, b := range bits {
		if b == 1 {
			w += k.Weights[i]
			v += k.Values[i]
		}
	}
	if w > k.Capacity {
		return k.Capacity - w
	}
	return v
}

func Knapsack() Problem {
	return Problem{
		Name:        "knapsack",
		Description: "0/1 knapsack with a seeded instance of the given size",
		Params:      chromosome.Params{Kind: chromosome.KindBinary, Size: 20},
		Objective: func(size int) individual.Objective {
			inst := NewKnapsackInstance(size)
			return func(s individual.Solution) float64 {
				return inst.Evaluate(s[0].([]uint8))
			}
		},
		Optimum: func(int) (float64, bool) { return 0, false },
	}
}

func Sphere() Problem {
	return Problem{
		Name:        "sphere",
		Description: "maximize -sum(x^2) over [-5, 5]^n",
		Params:      chromosome.Params{Kind: chromosome.KindFloat, Size: 8, Lo: -5, Hi: 5, Sigma: 0.1},
		Objective: func(int) individual.Objective {
			return func(s individual.Solution) float64 {
				total := 0.0
				for _, x := range s[0].([]float64) {
					total -= x * x
				}
				return total
			}
		},
		Optimum: func(int) (float64, bool) { return 0, true },
	}
}

// TSPRing places the cities evenly on the unit circle, so visiting them in
// ring order is optimal.
func TSPRing() Problem {
	return Problem{
		Name:        "tsp-ring",
		Description: "shortest closed tour through cities on the unit circle",
		Params:      chromosome.Params{Kind: chromosome.KindPermutation, Size: 10},
		Objective: func(size int) individual.Objective {
			xs := make([]float64, size)
			ys := make([]float64, size)
			for k := range size {
				theta := 2 * math.Pi * float64(k) / float64(size)
				xs[k], ys[k] = math.Cos(theta), math.Sin(theta)
			}
			return func(s individual.Solution) float64 {
				tour := s[0].([]int)
				length := 0.0
				for i, a := range tour {
					b := tour[(i+1)%len(tour)]
					length += math.Hypot(xs[a]-xs[b], ys[a]-ys[b])
				}
				return -length
			}
		},
		Optimum: func(size int) (float64, bool) {
			if size < 3 {
				return 0, false
			}
			return -2 * float64(size) * math.Sin(math.Pi/float64(size)), true
		},
	}
}
