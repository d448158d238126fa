// Package rng provides the random primitives the engine relies on: uniform
// reals and integers, Gaussian and Dirichlet samples, and sampling without
// replacement.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the minimal generator contract. *rand.Rand from math/rand/v2
// satisfies it, and because it embeds rand.Source it can also feed gonum
// samplers directly.
//
// A Source is not safe for concurrent use.
type Source interface {
	rand.Source
	Float64() float64
	IntN(n int) int
	NormFloat64() float64
	Perm(n int) []int
}

// New returns a PCG-backed generator seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// IntRange returns a uniform integer in [lo, hi].
func IntRange(r Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Normal draws one sample from N(mu, sigma²).
func Normal(r Source, mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r}.Rand()
}

// Dirichlet draws one point of the probability simplex with the given
// concentration parameters.
func Dirichlet(r Source, alpha []float64) []float64 {
	if len(alpha) == 0 {
		return nil
	}
	d := distmv.NewDirichlet(alpha, r)
	return d.Rand(nil)
}

// FlatDirichlet draws a uniform point of the n-simplex.
func FlatDirichlet(r Source, n int) []float64 {
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = 1
	}
	return Dirichlet(r, alpha)
}

// Sample returns k distinct indices from [0, n) in the order they were drawn.
// When k >= n it returns a permutation of all n indices.
func Sample(r Source, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// Pair returns two distinct integers in [lo, hi].
func Pair(r Source, lo, hi int) (int, int) {
	if hi <= lo {
		return lo, lo
	}
	picked := Sample(r, hi-lo+1, 2)
	return lo + picked[0], lo + picked[1]
}

// Bernoulli reports whether an event of probability p happened.
func Bernoulli(r Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}
