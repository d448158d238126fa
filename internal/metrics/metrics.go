// Package metrics exports evolution progress as Prometheus collectors on a
// private registry.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"genera/internal/evo"
	"genera/internal/individual"
	"genera/internal/stats"
)

const namespace = "genera"

type Recorder struct {
	registry *prometheus.Registry

	generations    prometheus.Counter
	evaluations    prometheus.Counter
	bestFitness    prometheus.Gauge
	meanFitness    prometheus.Gauge
	populationSize prometheus.Gauge
	transition     prometheus.Histogram

	mu       sync.Mutex
	lastGen  int
	lastSeen time.Time
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total transitions completed",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total objective evaluations",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best fitness of the observed model",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness of the observed model",
		}),
		populationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_size",
			Help:      "Number of live individuals",
		}),
		transition: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_seconds",
			Help:      "Wall time between consecutive observations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	r.registry.MustRegister(r.generations, r.evaluations, r.bestFitness, r.meanFitness, r.populationSize, r.transition)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe updates the gauges from m and counts the generations it advanced
// since the previous observation. A generation lower than the last one
// starts a new run.
func (r *Recorder) Observe(m evo.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	gen := m.Generation()
	if gen > r.lastGen {
		r.generations.Add(float64(gen - r.lastGen))
		if !r.lastSeen.IsZero() {
			r.transition.Observe(now.Sub(r.lastSeen).Seconds())
		}
	}
	r.lastGen = gen
	r.lastSeen = now

	r.bestFitness.Set(m.BestFitness())
	if s, ok := m.(stats.Subject); ok {
		r.meanFitness.Set(s.MeanFitness())
		r.populationSize.Set(float64(s.Len()))
	}
}

// CountingObjective wraps objective so every call is counted. It is safe
// for the parallel evaluation of a population.
func (r *Recorder) CountingObjective(objective individual.Objective) individual.Objective {
	return func(s individual.Solution) float64 {
		r.evaluations.Inc()
		return objective(s)
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
