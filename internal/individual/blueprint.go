package individual

import (
	"fmt"

	"genera/internal/chromosome"
	"genera/internal/rng"
)

// Blueprint describes how to build random individuals: one chromosome Type
// per slot, optional per-slot sizes, and the objective.
type Blueprint struct {
	Types     []chromosome.Type
	Sizes     []int
	Objective Objective
	IndepProb float64
	Memory    bool
	Fixed     bool
}

// Homogeneous repeats t over n slots. A single size applies to every slot.
func Homogeneous(t chromosome.Type, n int, sizes ...int) Blueprint {
	types := make([]chromosome.Type, n)
	for k := range types {
		types[k] = t
	}
	if len(sizes) == 1 && n > 1 {
		s := sizes[0]
		sizes = make([]int, n)
		for k := range sizes {
			sizes[k] = s
		}
	}
	return Blueprint{Types: types, Sizes: sizes}
}

// Mixed fixes a heterogeneous tuple of chromosome types.
func Mixed(types ...chromosome.Type) Blueprint {
	return Blueprint{Types: types, Fixed: true}
}

func (b Blueprint) WithObjective(f Objective) Blueprint {
	b.Objective = f
	return b
}

func (b Blueprint) Validate() error {
	if len(b.Types) == 0 {
		return ErrNoChromosomes
	}
	if b.Objective == nil {
		return ErrNoObjective
	}
	if len(b.Sizes) != 0 && len(b.Sizes) != len(b.Types) {
		return fmt.Errorf("%w: %d sizes for %d chromosomes", ErrSizeMismatch, len(b.Sizes), len(b.Types))
	}
	if b.IndepProb < 0 || b.IndepProb > 1 {
		return fmt.Errorf("indep prob must be in [0,1], got %f", b.IndepProb)
	}
	return nil
}

func (b Blueprint) Options() []Option {
	var opts []Option
	if b.IndepProb > 0 {
		opts = append(opts, WithIndepProb(b.IndepProb))
	}
	if b.Memory {
		opts = append(opts, WithMemory())
	}
	if b.Fixed {
		opts = append(opts, Fixed())
	}
	return opts
}

// Random samples every chromosome independently.
func (b Blueprint) Random(r rng.Source) (*Individual, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	chs := make([]chromosome.Chromosome, len(b.Types))
	for k, t := range b.Types {
		size := 0
		if len(b.Sizes) > 0 {
			size = b.Sizes[k]
		}
		c, err := t.Random(size, r)
		if err != nil {
			return nil, fmt.Errorf("chromosome %d: %w", k, err)
		}
		chs[k] = c
	}
	return New(b.Objective, chs, b.Options()...)
}

// RandomN builds n random individuals.
func (b Blueprint) RandomN(r rng.Source, n int) ([]*Individual, error) {
	out := make([]*Individual, 0, n)
	for k := 0; k < n; k++ {
		ind, err := b.Random(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, nil
}
