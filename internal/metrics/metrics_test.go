package metrics

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genera/internal/chromosome"
	"genera/internal/evo"
	"genera/internal/individual"
	"genera/internal/population"
	"genera/internal/rng"
)

func onesOf(s individual.Solution) float64 {
	total := 0.0
	for _, b := range s[0].([]uint8) {
		total += float64(b)
	}
	return total
}

func TestRecorderObservesEvolution(t *testing.T) {
	rec := New()
	bp := individual.Homogeneous(chromosome.BinaryType{Size: 10}, 1).WithObjective(rec.CountingObjective(onesOf))
	p, err := population.Random(bp, 12, population.DefaultConfig(), population.Standard{}, rng.New(1))
	require.NoError(t, err)

	_, err = evo.Evolve(context.Background(), p, evo.Options{
		NIter:   5,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: rec,
	})
	require.NoError(t, err)

	assert.Equal(t, 5.0, testutil.ToFloat64(rec.generations))
	assert.GreaterOrEqual(t, testutil.ToFloat64(rec.evaluations), 12.0)
	assert.Equal(t, p.BestFitness(), testutil.ToFloat64(rec.bestFitness))
	assert.Equal(t, p.MeanFitness(), testutil.ToFloat64(rec.meanFitness))
	assert.Equal(t, float64(p.Len()), testutil.ToFloat64(rec.populationSize))
	n, err := testutil.GatherAndCount(rec.Registry())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestRecorderStartsNewRunOnLowerGeneration(t *testing.T) {
	rec := New()
	m := &fake{gen: 3}
	rec.Observe(m)
	m.gen = 1
	rec.Observe(m)
	m.gen = 2
	rec.Observe(m)
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.generations))
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.Observe(&fake{gen: 2, best: 7})
	path := filepath.Join(t.TempDir(), "genera.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "genera_generations_total 2"), text)
	assert.True(t, strings.Contains(text, "genera_best_fitness 7"), text)
}

type fake struct {
	gen  int
	best float64
}

func (f *fake) Init(context.Context) error            { return nil }
func (f *fake) Transition(context.Context, int) error { return nil }
func (f *fake) BestFitness() float64                  { return f.best }
func (f *fake) Solution() *individual.Individual      { return nil }
func (f *fake) Generation() int                       { return f.gen }
