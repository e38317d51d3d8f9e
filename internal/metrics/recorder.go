// Package metrics exposes Prometheus instrumentation for evolution runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Recorder owns a private registry so several runs in one process never
// collide on metric registration. All methods are safe on a nil receiver.
type Recorder struct {
	registry *prometheus.Registry

	matches            prometheus.Counter
	illegalMoves       prometheus.Counter
	generations        prometheus.Counter
	generationDuration prometheus.Histogram
	survivors          prometheus.Gauge
	bestFitness        prometheus.Gauge
	medianFitness      prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		matches: factory.NewCounter(prometheus.CounterOpts{
			Name: "ipdevo_matches_total",
			Help: "Total matches played by the payoff engine",
		}),
		illegalMoves: factory.NewCounter(prometheus.CounterOpts{
			Name: "ipdevo_illegal_moves_total",
			Help: "Matches aborted because a strategy produced an illegal move",
		}),
		generations: factory.NewCounter(prometheus.CounterOpts{
			Name: "ipdevo_generations_total",
			Help: "Completed generations",
		}),
		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ipdevo_generation_duration_seconds",
			Help:    "Wall time per generation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}),
		survivors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ipdevo_survivors",
			Help: "Survivors selected in the latest generation",
		}),
		bestFitness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ipdevo_best_fitness",
			Help: "Best perturbed fitness in the latest generation",
		}),
		medianFitness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ipdevo_median_fitness",
			Help: "Selection threshold (median perturbed fitness) of the latest generation",
		}),
	}
}

func (r *Recorder) AddMatches(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.matches.Add(float64(n))
}

func (r *Recorder) IllegalMove() {
	if r == nil {
		return
	}
	r.illegalMoves.Inc()
}

func (r *Recorder) ObserveGeneration(elapsed time.Duration, survivors int, best, median float64) {
	if r == nil {
		return
	}
	r.generations.Inc()
	r.generationDuration.Observe(elapsed.Seconds())
	r.survivors.Set(float64(survivors))
	r.bestFitness.Set(best)
	r.medianFitness.Set(median)
}

func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	if r == nil {
		return nil, nil
	}
	return r.registry.Gather()
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
