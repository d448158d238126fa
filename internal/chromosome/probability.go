package chromosome

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"genera/internal/rng"
)

const KindProbability = "probability"

// crossEpsilon keeps every component of a crossed simplex point positive.
const crossEpsilon = 0.001

// Probability is a point of the probability simplex: non-negative genes
// summing to 1.
type Probability struct {
	Genes []float64
	Sigma float64
}

func NewProbability(sigma float64, genes ...float64) *Probability {
	c := &Probability{Sigma: sigma}
	c.SetValues(genes)
	return c
}

func (c *Probability) Kind() string { return KindProbability }
func (c *Probability) Len() int     { return len(c.Genes) }

func (c *Probability) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Probability)
	if !ok {
		return nil, fmt.Errorf("%w: probability vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	genes := crossFloats(c.Genes, o.Genes, r)
	floats.AddConst(crossEpsilon, genes)
	normalize(genes)
	return &Probability{Genes: genes, Sigma: c.Sigma}, nil
}

func (c *Probability) Mutate(indepProb float64, r rng.Source) {
	perturb(c.Genes, indepProb, c.Sigma, r)
	normalize(c.Genes)
}

// RandomNeighbour moves a random share of one gene's mass onto another.
func (c *Probability) RandomNeighbour(r rng.Source) Chromosome {
	out := NewProbability(c.Sigma, c.Genes...)
	if len(out.Genes) < 2 {
		return out
	}
	i, j := rng.Pair(r, 0, len(out.Genes)-1)
	amount := out.Genes[i] * r.Float64()
	out.Genes[i] -= amount
	out.Genes[j] += amount
	return out
}

func (c *Probability) Values() []float64 { return append([]float64(nil), c.Genes...) }

func (c *Probability) SetValues(v []float64) {
	c.Genes = append(c.Genes[:0], v...)
	normalize(c.Genes)
}

func (c *Probability) Decode() any       { return c.Values() }
func (c *Probability) Clone() Chromosome { return NewProbability(c.Sigma, c.Genes...) }
func (c *Probability) String() string    { return formatFloats(c.Genes) }

// normalize clamps v at zero and rescales it to sum 1. An all-zero vector
// becomes uniform.
func normalize(v []float64) {
	if len(v) == 0 {
		return
	}
	for i, g := range v {
		if g < 0 {
			v[i] = 0
		}
	}
	sum := floats.Sum(v)
	if sum <= 0 {
		for i := range v {
			v[i] = 1 / float64(len(v))
		}
		return
	}
	floats.Scale(1/sum, v)
}

type ProbabilityType struct {
	Size  int
	Sigma float64
}

func (t ProbabilityType) Kind() string     { return KindProbability }
func (t ProbabilityType) DefaultSize() int { return t.Size }

func (t ProbabilityType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindProbability, err)
	}
	return NewProbability(sigmaOr(t.Sigma, DefaultSigma), rng.FlatDirichlet(r, n)...), nil
}
