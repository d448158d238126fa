// Package gene defines the value domains genes are drawn from.
package gene

import (
	"math"

	"golang.org/x/exp/constraints"

	"genera/internal/rng"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Domain samples gene values and reports membership.
type Domain[T Number] interface {
	Sample(r rng.Source) T
	Contains(v T) bool
}

// Bit is the {0, 1} domain.
type Bit struct{}

func (Bit) Sample(r rng.Source) uint8 {
	return uint8(r.IntN(2))
}

func (Bit) Contains(v uint8) bool {
	return v <= 1
}

// Natural is the integer domain [0, UB].
type Natural struct {
	UB int
}

// Digit is the decimal digit domain.
func Digit() Natural {
	return Natural{UB: 9}
}

func (d Natural) Sample(r rng.Source) int {
	return r.IntN(d.UB + 1)
}

func (d Natural) Contains(v int) bool {
	return v >= 0 && v <= d.UB
}

// Interval is the real domain [Lo, Hi).
type Interval struct {
	Lo float64
	Hi float64
}

// Unit is the real domain [0, 1).
func Unit() Interval {
	return Interval{Lo: 0, Hi: 1}
}

func (d Interval) Sample(r rng.Source) float64 {
	return d.Lo + (d.Hi-d.Lo)*r.Float64()
}

func (d Interval) Contains(v float64) bool {
	return v >= d.Lo && v < d.Hi
}

// Circle is the angle domain [0, Period).
type Circle struct {
	Period float64
}

func (d Circle) Sample(r rng.Source) float64 {
	return d.Period * r.Float64()
}

func (d Circle) Contains(v float64) bool {
	return v >= 0 && v < d.Period
}

// Wrap maps v back onto [0, Period).
func (d Circle) Wrap(v float64) float64 {
	if d.Period <= 0 {
		return v
	}
	w := math.Mod(v, d.Period)
	if w < 0 {
		w += d.Period
	}
	return w
}

// SampleN draws n independent values from d.
func SampleN[T Number](d Domain[T], r rng.Source, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = d.Sample(r)
	}
	return out
}

func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
