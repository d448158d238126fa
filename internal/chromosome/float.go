package chromosome

import (
	"fmt"
	"strconv"
	"strings"

	"genera/internal/gene"
	"genera/internal/rng"
)

const (
	KindFloat     = "float"
	KindUnitFloat = "unit-float"
	KindCircle    = "circle"
)

// Float is an unbounded real vector perturbed with Gaussian noise.
type Float struct {
	Genes []float64
	Sigma float64
}

func NewFloat(sigma float64, genes ...float64) *Float {
	return &Float{Genes: append([]float64(nil), genes...), Sigma: sigma}
}

func (c *Float) Kind() string { return KindFloat }
func (c *Float) Len() int     { return len(c.Genes) }

func (c *Float) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Float)
	if !ok {
		return nil, fmt.Errorf("%w: float vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	return &Float{Genes: crossFloats(c.Genes, o.Genes, r), Sigma: c.Sigma}, nil
}

func (c *Float) Mutate(indepProb float64, r rng.Source) {
	perturb(c.Genes, indepProb, c.Sigma, r)
}

func (c *Float) RandomNeighbour(r rng.Source) Chromosome {
	out := NewFloat(c.Sigma, c.Genes...)
	perturb(out.Genes, 1, c.Sigma, r)
	return out
}

func (c *Float) Values() []float64     { return append([]float64(nil), c.Genes...) }
func (c *Float) SetValues(v []float64) { c.Genes = append(c.Genes[:0], v...) }
func (c *Float) Decode() any           { return c.Values() }
func (c *Float) Clone() Chromosome     { return NewFloat(c.Sigma, c.Genes...) }
func (c *Float) String() string        { return formatFloats(c.Genes) }

// UnitFloat is a real vector kept inside [0, 1].
type UnitFloat struct {
	Genes []float64
	Sigma float64
}

func NewUnitFloat(sigma float64, genes ...float64) *UnitFloat {
	c := &UnitFloat{Sigma: sigma}
	c.SetValues(genes)
	return c
}

func (c *UnitFloat) Kind() string { return KindUnitFloat }
func (c *UnitFloat) Len() int     { return len(c.Genes) }

func (c *UnitFloat) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*UnitFloat)
	if !ok {
		return nil, fmt.Errorf("%w: unit-float vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	return &UnitFloat{Genes: crossFloats(c.Genes, o.Genes, r), Sigma: c.Sigma}, nil
}

func (c *UnitFloat) Mutate(indepProb float64, r rng.Source) {
	perturb(c.Genes, indepProb, c.Sigma, r)
	c.clamp()
}

func (c *UnitFloat) Dual() Chromosome {
	out := make([]float64, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = 1 - g
	}
	return &UnitFloat{Genes: out, Sigma: c.Sigma}
}

func (c *UnitFloat) RandomNeighbour(r rng.Source) Chromosome {
	out := NewUnitFloat(c.Sigma, c.Genes...)
	perturb(out.Genes, 1, c.Sigma, r)
	out.clamp()
	return out
}

func (c *UnitFloat) Values() []float64 { return append([]float64(nil), c.Genes...) }

func (c *UnitFloat) SetValues(v []float64) {
	c.Genes = append(c.Genes[:0], v...)
	c.clamp()
}

func (c *UnitFloat) clamp() {
	for i, g := range c.Genes {
		c.Genes[i] = gene.Clamp(g, 0, 1)
	}
}

func (c *UnitFloat) Decode() any       { return c.Values() }
func (c *UnitFloat) Clone() Chromosome { return NewUnitFloat(c.Sigma, c.Genes...) }
func (c *UnitFloat) String() string    { return formatFloats(c.Genes) }

// Circle holds angles in [0, Period). Perturbed genes wrap around.
type Circle struct {
	Genes  []float64
	Period float64
	Sigma  float64
}

func NewCircle(period, sigma float64, genes ...float64) *Circle {
	c := &Circle{Period: period, Sigma: sigma}
	c.SetValues(genes)
	return c
}

func (c *Circle) Kind() string { return KindCircle }
func (c *Circle) Len() int     { return len(c.Genes) }

func (c *Circle) Cross(other Chromosome, r rng.Source) (Chromosome, error) {
	o, ok := other.(*Circle)
	if !ok {
		return nil, fmt.Errorf("%w: circle vs %s", ErrIncompatible, other.Kind())
	}
	if err := checkCompatible(c, o); err != nil {
		return nil, err
	}
	return &Circle{Genes: crossFloats(c.Genes, o.Genes, r), Period: c.Period, Sigma: c.Sigma}, nil
}

func (c *Circle) Mutate(indepProb float64, r rng.Source) {
	perturb(c.Genes, indepProb, c.Sigma, r)
	c.wrap()
}

// Dual rotates every angle by half a period.
func (c *Circle) Dual() Chromosome {
	out := NewCircle(c.Period, c.Sigma, c.Genes...)
	for i := range out.Genes {
		out.Genes[i] += c.Period / 2
	}
	out.wrap()
	return out
}

func (c *Circle) RandomNeighbour(r rng.Source) Chromosome {
	out := NewCircle(c.Period, c.Sigma, c.Genes...)
	perturb(out.Genes, 1, c.Sigma, r)
	out.wrap()
	return out
}

func (c *Circle) Values() []float64 { return append([]float64(nil), c.Genes...) }

func (c *Circle) SetValues(v []float64) {
	c.Genes = append(c.Genes[:0], v...)
	c.wrap()
}

func (c *Circle) wrap() {
	d := gene.Circle{Period: c.Period}
	for i, g := range c.Genes {
		c.Genes[i] = d.Wrap(g)
	}
}

func (c *Circle) Decode() any       { return c.Values() }
func (c *Circle) Clone() Chromosome { return NewCircle(c.Period, c.Sigma, c.Genes...) }
func (c *Circle) String() string    { return formatFloats(c.Genes) }

func crossFloats(a, b []float64, r rng.Source) []float64 {
	if len(a) < 2 {
		return append([]float64(nil), a...)
	}
	return splice(a, b, cutPoint(r, len(a)))
}

func perturb(genes []float64, indepProb, sigma float64, r rng.Source) {
	for i := range genes {
		if rng.Bernoulli(r, indepProb) {
			genes[i] += rng.Normal(r, 0, sigma)
		}
	}
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, g := range v {
		parts[i] = strconv.FormatFloat(g, 'g', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FloatType samples genes uniformly from [Lo, Hi), or [0, 1) when the
// interval is empty.
type FloatType struct {
	Size  int
	Lo    float64
	Hi    float64
	Sigma float64
}

func (t FloatType) Kind() string     { return KindFloat }
func (t FloatType) DefaultSize() int { return t.Size }

func (t FloatType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindFloat, err)
	}
	d := gene.Interval{Lo: t.Lo, Hi: t.Hi}
	if t.Hi <= t.Lo {
		d = gene.Unit()
	}
	return &Float{Genes: gene.SampleN[float64](d, r, n), Sigma: sigmaOr(t.Sigma, DefaultSigma)}, nil
}

type UnitFloatType struct {
	Size  int
	Sigma float64
}

func (t UnitFloatType) Kind() string     { return KindUnitFloat }
func (t UnitFloatType) DefaultSize() int { return t.Size }

func (t UnitFloatType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindUnitFloat, err)
	}
	return &UnitFloat{Genes: gene.SampleN[float64](gene.Unit(), r, n), Sigma: sigmaOr(t.Sigma, DefaultSigma)}, nil
}

type CircleType struct {
	Size   int
	Period float64
	Sigma  float64
}

func (t CircleType) Kind() string     { return KindCircle }
func (t CircleType) DefaultSize() int { return t.Size }

func (t CircleType) Random(size int, r rng.Source) (Chromosome, error) {
	n, err := resolveSize(size, t.Size)
	if err != nil {
		return nil, fmt.Errorf("random %s: %w", KindCircle, err)
	}
	if t.Period <= 0 {
		return nil, fmt.Errorf("random %s: period must be > 0", KindCircle)
	}
	return &Circle{
		Genes:  gene.SampleN[float64](gene.Circle{Period: t.Period}, r, n),
		Period: t.Period,
		Sigma:  sigmaOr(t.Sigma, DefaultSigma),
	}, nil
}

func sigmaOr(sigma, fallback float64) float64 {
	if sigma > 0 {
		return sigma
	}
	return fallback
}
