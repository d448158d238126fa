package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"genera/internal/individual"
)

var ErrUnknownStat = errors.New("unknown statistic")

// Subject is what statistics are sampled from: a population or a species.
type Subject interface {
	BestFitness() float64
	MeanFitness() float64
	StdFitness() float64
	WorstFitness() float64
	Len() int
	Generation() int
}

type Func func(Subject) float64

// Stat is a labelled statistic: either a known Name or a custom Fn.
type Stat struct {
	Label string
	Name  string
	Fn    Func
}

func Named(label, name string) Stat {
	return Stat{Label: label, Name: name}
}

func Custom(label string, fn Func) Stat {
	return Stat{Label: label, Fn: fn}
}

var known = map[string]Func{
	"best_fitness":  func(s Subject) float64 { return s.BestFitness() },
	"mean_fitness":  func(s Subject) float64 { return s.MeanFitness() },
	"fitness":       func(s Subject) float64 { return s.MeanFitness() },
	"std_fitness":   func(s Subject) float64 { return s.StdFitness() },
	"worst_fitness": func(s Subject) float64 { return s.WorstFitness() },
	"n_individuals": func(s Subject) float64 { return float64(s.Len()) },
	"generation":    func(s Subject) float64 { return float64(s.Generation()) },
	"hof_best":      hofBest,
}

func hofBest(s Subject) float64 {
	h, ok := s.(interface {
		HallOfFame() []*individual.Individual
	})
	if !ok {
		return math.NaN()
	}
	best := math.NaN()
	for _, ind := range h.HallOfFame() {
		if f := ind.Fitness(); math.IsNaN(best) || f > best {
			best = f
		}
	}
	return best
}

// KnownStats lists the names accepted by Named.
func KnownStats() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Stat) resolve() (Func, error) {
	if s.Fn != nil {
		return s.Fn, nil
	}
	fn, ok := known[s.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStat, s.Name)
	}
	return fn, nil
}

// Spec is an ordered list of statistics; it defines the columns of a
// history table.
type Spec []Stat

// Default samples best, mean and std fitness and the population size.
func Default() Spec {
	return Spec{
		Named("Best Fitness", "best_fitness"),
		Named("Mean Fitness", "mean_fitness"),
		Named("STD Fitness", "std_fitness"),
		Named("Population", "n_individuals"),
	}
}

// ParseSpec builds a spec of known stats labelled by their names.
func ParseSpec(names []string) (Spec, error) {
	spec := make(Spec, len(names))
	for k, name := range names {
		spec[k] = Named(name, name)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s Spec) Validate() error {
	if len(s) == 0 {
		return errors.New("at least one statistic is required")
	}
	seen := make(map[string]struct{}, len(s))
	for _, st := range s {
		if st.Label == "" {
			return errors.New("statistic label is required")
		}
		if _, dup := seen[st.Label]; dup {
			return fmt.Errorf("duplicate statistic label %q", st.Label)
		}
		seen[st.Label] = struct{}{}
		if _, err := st.resolve(); err != nil {
			return err
		}
	}
	return nil
}

func (s Spec) Labels() []string {
	out := make([]string, len(s))
	for k, st := range s {
		out[k] = st.Label
	}
	return out
}

// Sample evaluates every statistic on subject in order.
func (s Spec) Sample(subject Subject) ([]float64, error) {
	row := make([]float64, len(s))
	for k, st := range s {
		fn, err := st.resolve()
		if err != nil {
			return nil, err
		}
		row[k] = fn(subject)
	}
	return row, nil
}
