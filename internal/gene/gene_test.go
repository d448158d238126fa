package gene

import (
	"testing"

	"genera/internal/rng"
)

func TestDomainsSampleWithinBounds(t *testing.T) {
	r := rng.New(1)
	for i := 0; i < 200; i++ {
		if v := (Bit{}).Sample(r); !(Bit{}).Contains(v) {
			t.Fatalf("bit out of domain: %d", v)
		}
		if v := Digit().Sample(r); !Digit().Contains(v) {
			t.Fatalf("digit out of domain: %d", v)
		}
		iv := Interval{Lo: -2, Hi: 3}
		if v := iv.Sample(r); !iv.Contains(v) {
			t.Fatalf("interval sample out of domain: %f", v)
		}
		c := Circle{Period: 6}
		if v := c.Sample(r); !c.Contains(v) {
			t.Fatalf("circle sample out of domain: %f", v)
		}
	}
}

func TestCircleWrap(t *testing.T) {
	c := Circle{Period: 2}
	cases := map[float64]float64{2.5: 0.5, -0.5: 1.5, 1: 1, 4: 0}
	for in, want := range cases {
		if got := c.Wrap(in); got != want {
			t.Fatalf("wrap(%f): want %f got %f", in, want, got)
		}
	}
}

func TestSampleNAndClamp(t *testing.T) {
	vals := SampleN[float64](Unit(), rng.New(4), 8)
	if len(vals) != 8 {
		t.Fatalf("expected 8 values, got %d", len(vals))
	}
	if Clamp(1.5, 0.0, 1.0) != 1 || Clamp(-3, 0, 9) != 0 || Clamp(4, 0, 9) != 4 {
		t.Fatal("unexpected clamp result")
	}
}
