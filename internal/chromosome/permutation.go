package chromosome

import (
	"fmt"
	"slices"

	"genera/internal/rng"
)

const KindPermutation = "permutation"

// Permutation is an ordering of 0..n-1.
type Permutation struct {
	Genes []int
}

func NewPermutation(order ...int) *Permutation {
	return &Permutation{Genes: append([]int(nil), order...)}
}

func (c *Permutation) Kind() string { return KindPermutation }
func (c *Permutation) Len() int     { return len(c.Genes) }

// Cross keeps a random prefix of c and appends the remaining genes in the
// order they appear in other.
func (c *Permutation) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Permutation)
	if !ok {
		return nil, fmt.Errorf("%w: permutation vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	if c.Len() < 2 {
		return c.Clone(), nil
	}
	return c.CrossAt(o, cutPoint(r, c.Len())), nil
}

func (c *Permutation) CrossAt(other *Permutation, k int) *Permutation {
	out := make([]int, 0, len(c.Genes))
	out = append(out, c.Genes[:k]...)
	seen := make(map[int]struct{}, k)
	for _, g := range out {
		seen[g] = struct{}{}
	}
	for _, g := range other.Genes {
		if _, ok := seen[g]; !ok {
			out = append(out, g)
		}
	}
	return &Permutation{Genes: out}
}

// Mutate swaps each position, with probability indepProb, with another
// random position.
func (c *Permutation) Mutate(indepProb float64, r rng.Source) {
	n := len(c.Genes)
	if n < 2 {
		return
	}
	for i := range c.Genes {
		if rng.Bernoulli(r, indepProb) {
			j := r.IntN(n - 1)
			if j >= i {
				j++
			}
			c.Genes[i], c.Genes[j] = c.Genes[j], c.Genes[i]
		}
	}
}

func (c *Permutation) Dual() Chromosome {
	out := NewPermutation(c.Genes...)
	slices.Reverse(out.Genes)
	return out
}

func (c *Permutation) RandomNeighbour(r rng.Source) Chromosome {
	out := NewPermutation(c.Genes...)
	if len(out.Genes) >= 2 {
		i, j := rng.Pair(r, 0, len(out.Genes)-1)
		out.Genes[i], out.Genes[j] = out.Genes[j], out.Genes[i]
	}
	return out
}

func (c *Permutation) Decode() any {
	return append([]int(nil), c.Genes...)
}

func (c *Permutation) Clone() Chromosome {
	return NewPermutation(c.Genes...)
}

func (c *Permutation) String() string {
	return fmt.Sprint(c.Genes)
}

type PermutationType struct {
	Size int
}

func (t PermutationType) Kind() string     { return KindPermutation }
func (t PermutationType) DefaultSize() int { return t.Size }

func (t PermutationType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindPermutation, err)
	}
	return &Permutation{Genes: r.Perm(n)}, nil
}
