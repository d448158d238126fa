package stats

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

type fakeSubject struct {
	best, mean, std, worst float64
	n, gen                 int
}

func (f fakeSubject) BestFitness() float64  { return f.best }
func (f fakeSubject) MeanFitness() float64  { return f.mean }
func (f fakeSubject) StdFitness() float64   { return f.std }
func (f fakeSubject) WorstFitness() float64 { return f.worst }
func (f fakeSubject) Len() int              { return f.n }
func (f fakeSubject) Generation() int       { return f.gen }

func TestDefaultSpecSamplesInOrder(t *testing.T) {
	spec := Default()
	if got := strings.Join(spec.Labels(), ","); got != "Best Fitness,Mean Fitness,STD Fitness,Population" {
		t.Fatalf("unexpected labels %q", got)
	}
	row, err := spec.Sample(fakeSubject{best: 9, mean: 5, std: 2, worst: 1, n: 10})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	want := []float64{9, 5, 2, 10}
	for k := range want {
		if row[k] != want[k] {
			t.Fatalf("row %v, want %v", row, want)
		}
	}
}

func TestSpecValidation(t *testing.T) {
	if _, err := ParseSpec([]string{"best_fitness", "nope"}); !errors.Is(err, ErrUnknownStat) {
		t.Fatalf("expected ErrUnknownStat, got %v", err)
	}
	if err := (Spec{Named("a", "best_fitness"), Named("a", "mean_fitness")}).Validate(); err == nil {
		t.Fatal("expected duplicate label error")
	}
	if err := (Spec{}).Validate(); err == nil {
		t.Fatal("expected empty spec error")
	}
	custom := Spec{Custom("Spread", func(s Subject) float64 { return s.BestFitness() - s.WorstFitness() })}
	row, err := custom.Sample(fakeSubject{best: 4, worst: 1})
	if err != nil || row[0] != 3 {
		t.Fatalf("custom stat: row=%v err=%v", row, err)
	}
}

func TestHofBestWithoutHallOfFameIsNaN(t *testing.T) {
	spec, err := ParseSpec([]string{"hof_best"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	row, _ := spec.Sample(fakeSubject{})
	if !math.IsNaN(row[0]) {
		t.Fatalf("expected NaN, got %v", row[0])
	}
}

func TestTableCSVRoundTrip(t *testing.T) {
	table := NewTable([]string{"Best Fitness", "Population"})
	_ = table.Append(0, []float64{1.5, 10})
	_ = table.Append(5, []float64{2.25, 10})
	if err := table.Append(6, []float64{1}); err == nil {
		t.Fatal("expected row width error")
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "generation,Best Fitness,Population\n0,1.5,10\n") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if got.Len() != 2 || got.Generations[1] != 5 {
		t.Fatalf("unexpected table %+v", got)
	}
	last, ok := got.Last()
	if !ok || last[0] != 2.25 {
		t.Fatalf("unexpected last row %v", last)
	}
	if _, ok := got.Column("missing"); ok {
		t.Fatal("expected missing column")
	}
}

func TestMeanAveragesCells(t *testing.T) {
	a := NewTable([]string{"x"})
	b := NewTable([]string{"x"})
	_ = a.Append(0, []float64{1})
	_ = a.Append(1, []float64{3})
	_ = b.Append(0, []float64{3})
	_ = b.Append(1, []float64{5})
	m, err := Mean(a, b)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	col, _ := m.Column("x")
	if col[0] != 2 || col[1] != 4 {
		t.Fatalf("unexpected mean column %v", col)
	}
	if a.Rows[0][0] != 1 {
		t.Fatal("mean must not modify its inputs")
	}

	c := NewTable([]string{"y"})
	_ = c.Append(0, []float64{1})
	_ = c.Append(1, []float64{1})
	if _, err := Mean(a, c); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
