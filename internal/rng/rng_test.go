package rng

import (
	"math"
	"testing"
)

func TestSampleReturnsDistinctIndices(t *testing.T) {
	r := New(7)
	for trial := 0; trial < 50; trial++ {
		got := Sample(r, 10, 4)
		if len(got) != 4 {
			t.Fatalf("expected 4 indices, got %d", len(got))
		}
		seen := map[int]struct{}{}
		for _, idx := range got {
			if idx < 0 || idx >= 10 {
				t.Fatalf("index out of range: %d", idx)
			}
			if _, dup := seen[idx]; dup {
				t.Fatalf("duplicate index %d in %v", idx, got)
			}
			seen[idx] = struct{}{}
		}
	}
}

func TestSampleClampsToPopulation(t *testing.T) {
	got := Sample(New(1), 3, 8)
	if len(got) != 3 {
		t.Fatalf("expected full permutation of 3, got %v", got)
	}
	if Sample(New(1), 3, 0) != nil {
		t.Fatal("expected nil sample for k=0")
	}
}

func TestIntRangeInclusive(t *testing.T) {
	r := New(3)
	seenLo, seenHi := false, false
	for i := 0; i < 500; i++ {
		v := IntRange(r, 1, 3)
		if v < 1 || v > 3 {
			t.Fatalf("value out of range: %d", v)
		}
		seenLo = seenLo || v == 1
		seenHi = seenHi || v == 3
	}
	if !seenLo || !seenHi {
		t.Fatal("expected both bounds to be reachable")
	}
	if IntRange(r, 4, 4) != 4 {
		t.Fatal("expected degenerate range to return its bound")
	}
}

func TestDirichletOnSimplex(t *testing.T) {
	r := New(11)
	p := FlatDirichlet(r, 5)
	if len(p) != 5 {
		t.Fatalf("expected 5 components, got %d", len(p))
	}
	sum := 0.0
	for _, v := range p {
		if v < 0 {
			t.Fatalf("negative component: %v", p)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected components to sum to 1, got %f", sum)
	}
}

func TestNormalZeroSigmaIsDeterministic(t *testing.T) {
	if Normal(New(1), 2.5, 0) != 2.5 {
		t.Fatal("expected mean for zero sigma")
	}
}

func TestPairDistinct(t *testing.T) {
	r := New(5)
	for i := 0; i < 100; i++ {
		a, b := Pair(r, 0, 4)
		if a == b {
			t.Fatalf("expected distinct pair, got %d %d", a, b)
		}
	}
}

func TestBernoulliZeroNeverFires(t *testing.T) {
	r := New(9)
	for i := 0; i < 100; i++ {
		if Bernoulli(r, 0) {
			t.Fatal("zero probability event fired")
		}
	}
}
