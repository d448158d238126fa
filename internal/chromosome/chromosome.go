// Package chromosome implements fixed-length gene sequences and their
// genetic operators.
//
// Every kind preserves its length under Cross and Mutate. Optional
// capabilities (Decoder, Dualer, Vector, Neighbourer) are discovered with type
// assertions rather than assumed.
package chromosome

import (
	"errors"
	"fmt"

	"genera/internal/rng"
)

const (
	// DefaultIndepProb is the per-gene mutation probability used when an
	// individual does not configure one.
	DefaultIndepProb = 0.1
	DefaultSigma     = 0.05
	MatrixSigma      = 0.1
)

var (
	ErrUnknownSize    = errors.New("chromosome size is not specified")
	ErrIncompatible   = errors.New("incompatible chromosomes")
	ErrNotImplemented = errors.New("operator not implemented for this chromosome kind")
)

// Chromosome is one slice of an encoded solution.
type Chromosome interface {
	Kind() string
	Len() int
	// Cross returns a new chromosome recombined from the receiver and other.
	Cross(other Chromosome, r rng.Source) (Chromosome, error)
	// Mutate perturbs each gene independently with probability indepProb.
	Mutate(indepProb float64, r rng.Source)
	Clone() Chromosome
	String() string
}

// Decoder maps a chromosome to its externally meaningful value.
type Decoder interface {
	Decode() any
}

// Dualer returns the dual (complement, reversal, ...) of a chromosome.
type Dualer interface {
	Dual() Chromosome
}

// Vector is implemented by real-valued chromosomes that support arithmetic.
// SetValues re-applies the kind's normalization.
type Vector interface {
	Chromosome
	Values() []float64
	SetValues(v []float64)
}

// Neighbourer proposes a random neighbour for local search.
type Neighbourer interface {
	RandomNeighbour(r rng.Source) Chromosome
}

// IndepProber overrides DefaultIndepProb for a kind.
type IndepProber interface {
	DefaultIndepProb() float64
}

// Decode returns c.Decode() when supported and c itself otherwise.
func Decode(c Chromosome) any {
	if d, ok := c.(Decoder); ok {
		return d.Decode()
	}
	return c
}

// Dual returns the dual of c or ErrNotImplemented.
func Dual(c Chromosome) (Chromosome, error) {
	d, ok := c.(Dualer)
	if !ok {
		return nil, fmt.Errorf("dual of %s: %w", c.Kind(), ErrNotImplemented)
	}
	return d.Dual(), nil
}

func IndepProbFor(c Chromosome) float64 {
	if p, ok := c.(IndepProber); ok {
		return p.DefaultIndepProb()
	}
	return DefaultIndepProb
}

func checkCompatible(a, b Chromosome) error {
	if a.Kind() != b.Kind() {
		return fmt.Errorf("%w: kind %s vs %s", ErrIncompatible, a.Kind(), b.Kind())
	}
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: length %d vs %d", ErrIncompatible, a.Len(), b.Len())
	}
	return nil
}

// cutPoint picks k uniformly from [1, n-1].
func cutPoint(r rng.Source, n int) int {
	return rng.IntRange(r, 1, n-1)
}

// splice returns a[:k] ++ b[k:].
func splice[T any](a, b []T, k int) []T {
	out := make([]T, 0, len(a))
	out = append(out, a[:k]...)
	return append(out, b[k:]...)
}

func resolveSize(size, fallback int) (int, error) {
	if size > 0 {
		return size, nil
	}
	if fallback > 0 {
		return fallback, nil
	}
	return 0, ErrUnknownSize
}
