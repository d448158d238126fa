package chromosome

import (
	"fmt"
	"strconv"
	"strings"

	"genera/internal/gene"
	"genera/internal/rng"
)

const KindNatural = "natural"

// Natural holds integers in [0, UB]. Mutation resamples a gene.
type Natural struct {
	Genes []int
	UB    int
}

func NewNatural(ub int, genes ...int) *Natural {
	return &Natural{Genes: append([]int(nil), genes...), UB: ub}
}

func (c *Natural) Kind() string { return KindNatural }
func (c *Natural) Len() int     { return len(c.Genes) }

func (c *Natural) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Natural)
	if !ok {
		return nil, fmt.Errorf("%w: natural vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	if c.Len() < 2 {
		return c.Clone(), nil
	}
	return &Natural{Genes: splice(c.Genes, o.Genes, cutPoint(r, c.Len())), UB: c.UB}, nil
}

func (c *Natural) Mutate(indepProb float64, r rng.Source) {
	d := gene.Natural{UB: c.UB}
	for i := range c.Genes {
		if rng.Bernoulli(r, indepProb) {
			c.Genes[i] = d.Sample(r)
		}
	}
}

func (c *Natural) Dual() Chromosome {
	out := make([]int, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = c.UB - g
	}
	return &Natural{Genes: out, UB: c.UB}
}

func (c *Natural) RandomNeighbour(r rng.Source) Chromosome {
	out := c.Clone().(*Natural)
	if len(out.Genes) > 0 {
		out.Genes[r.IntN(len(out.Genes))] = gene.Natural{UB: c.UB}.Sample(r)
	}
	return out
}

func (c *Natural) Decode() any {
	return append([]int(nil), c.Genes...)
}

func (c *Natural) Clone() Chromosome {
	return NewNatural(c.UB, c.Genes...)
}

func (c *Natural) String() string {
	parts := make([]string, len(c.Genes))
	for i, g := range c.Genes {
		parts[i] = strconv.Itoa(g)
	}
	if c.UB <= 9 {
		return strings.Join(parts, "")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

type NaturalType struct {
	Size int
	UB   int
}

// DigitType is NaturalType over 0..9.
func DigitType(size int) NaturalType {
	return NaturalType{Size: size, UB: gene.Digit().UB}
}

func (t NaturalType) Kind() string     { return KindNatural }
func (t NaturalType) DefaultSize() int { return t.Size }

func (t NaturalType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindNatural, err)
	}
	if t.UB < 0 {
		return nil, fmt.Errorf("random %s: upper bound must be >= 0", KindNatural)
	}
	return &Natural{Genes: gene.SampleN[int](gene.Natural{UB: t.UB}, r, n), UB: t.UB}, nil
}
