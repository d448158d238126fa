package population

import (
	"errors"
	"fmt"

	"genera/internal/model"
)

// Config holds the per-population parameters. Strategies read only the
// fields they need.
type Config struct {
	// Size is the nominal population size and the default selection count.
	// Zero means the initial number of individuals.
	Size       int
	MateProb   float64
	MutateProb float64
	TournSize  int
	// NElders is a count when >= 1 and a fraction of the population when in
	// (0, 1).
	NElders float64
	HOFSize int
	// Workers bounds parallel fitness evaluation. Zero means GOMAXPROCS.
	Workers int

	DualProb     float64
	MutateProbLB float64
	MutateProbUB float64
	LifeSpan     int
	Factor       float64
	CrossProb    float64
	LocalSteps   int
}

func DefaultConfig() Config {
	return Config{
		MateProb:     0.7,
		MutateProb:   0.2,
		TournSize:    5,
		NElders:      0.5,
		HOFSize:      2,
		DualProb:     0.2,
		MutateProbLB: 0.1,
		MutateProbUB: 0.5,
		LifeSpan:     100,
		Factor:       0.5,
		CrossProb:    0.75,
		LocalSteps:   10,
	}
}

func (c Config) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"mate prob", c.MateProb},
		{"mutate prob", c.MutateProb},
		{"dual prob", c.DualProb},
		{"mutate prob lower bound", c.MutateProbLB},
		{"mutate prob upper bound", c.MutateProbUB},
		{"cross prob", c.CrossProb},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %f", p.name, p.v)
		}
	}
	switch {
	case c.Size < 0:
		return errors.New("population size must be >= 0")
	case c.TournSize <= 0:
		return errors.New("tournament size must be > 0")
	case c.NElders < 0:
		return errors.New("n elders must be >= 0")
	case c.HOFSize < 0:
		return errors.New("hall of fame size must be >= 0")
	case c.Workers < 0:
		return errors.New("workers must be >= 0")
	case c.MutateProbLB > c.MutateProbUB:
		return errors.New("mutate prob lower bound exceeds upper bound")
	case c.LifeSpan < 0:
		return errors.New("life span must be >= 0")
	case c.Factor < 0:
		return errors.New("differential factor must be >= 0")
	case c.LocalSteps < 0:
		return errors.New("local steps must be >= 0")
	}
	return nil
}

// elders resolves NElders against a population of n individuals.
func (c Config) elders(n int) int {
	switch {
	case c.NElders <= 0 || n == 0:
		return 0
	case c.NElders < 1:
		return max(1, int(c.NElders*float64(n)))
	default:
		return min(n, int(c.NElders))
	}
}

func (c Config) Params() model.PopulationParams {
	return model.PopulationParams{
		Size:         c.Size,
		MateProb:     c.MateProb,
		MutateProb:   c.MutateProb,
		TournSize:    c.TournSize,
		NElders:      c.NElders,
		HOFSize:      c.HOFSize,
		Workers:      c.Workers,
		DualProb:     c.DualProb,
		MutateProbLB: c.MutateProbLB,
		MutateProbUB: c.MutateProbUB,
		LifeSpan:     c.LifeSpan,
		Factor:       c.Factor,
		CrossProb:    c.CrossProb,
		LocalSteps:   c.LocalSteps,
	}
}

func ConfigFromParams(p model.PopulationParams) Config {
	return Config{
		Size:         p.Size,
		MateProb:     p.MateProb,
		MutateProb:   p.MutateProb,
		TournSize:    p.TournSize,
		NElders:      p.NElders,
		HOFSize:      p.HOFSize,
		Workers:      p.Workers,
		DualProb:     p.DualProb,
		MutateProbLB: p.MutateProbLB,
		MutateProbUB: p.MutateProbUB,
		LifeSpan:     p.LifeSpan,
		Factor:       p.Factor,
		CrossProb:    p.CrossProb,
		LocalSteps:   p.LocalSteps,
	}
}
