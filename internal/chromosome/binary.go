package chromosome

import (
	"fmt"
	"strings"

	"genera/internal/gene"
	"genera/internal/rng"
)

const KindBinary = "binary"

// Binary is a sequence of bits.
type Binary struct {
	Genes []uint8
}

func NewBinary(bits ...uint8) *Binary {
	return &Binary{Genes: append([]uint8(nil), bits...)}
}

func (c *Binary) Kind() string { return KindBinary }
func (c *Binary) Len() int     { return len(c.Genes) }

func (c *Binary) DefaultIndepProb() float64 { return 0.5 }

func (c *Binary) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Binary)
	if !ok {
		return nil, fmt.Errorf("%w: binary vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	if c.Len() < 2 {
		return c.Clone(), nil
	}
	return c.CrossAt(o, cutPoint(r, c.Len())), nil
}

// CrossAt returns c[:k] ++ other[k:].
func (c *Binary) CrossAt(other *Binary, k int) *Binary {
	return &Binary{Genes: splice(c.Genes, other.Genes, k)}
}

func (c *Binary) Mutate(indepProb float64, r rng.Source) {
	for i := range c.Genes {
		if rng.Bernoulli(r, indepProb) {
			c.Genes[i] ^= 1
		}
	}
}

func (c *Binary) Dual() Chromosome {
	out := make([]uint8, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = 1 - g
	}
	return &Binary{Genes: out}
}

func (c *Binary) RandomNeighbour(r rng.Source) Chromosome {
	out := c.Clone().(*Binary)
	if len(out.Genes) > 0 {
		out.Genes[r.IntN(len(out.Genes))] ^= 1
	}
	return out
}

func (c *Binary) Decode() any {
	return append([]uint8(nil), c.Genes...)
}

func (c *Binary) Clone() Chromosome {
	return NewBinary(c.Genes...)
}

func (c *Binary) String() string {
	var b strings.Builder
	for _, g := range c.Genes {
		b.WriteByte('0' + g)
	}
	return b.String()
}

// BinaryType builds random bit strings.
type BinaryType struct {
	Size int
}

func (t BinaryType) Kind() string     { return KindBinary }
func (t BinaryType) DefaultSize() int { return t.Size }

func (t BinaryType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindBinary, err)
	}
	return &Binary{Genes: gene.SampleN[uint8](gene.Bit{}, r, n)}, nil
}
