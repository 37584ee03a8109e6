package dse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the exploration counters, shared by every explorer built
// with them.
type Metrics struct {
	States             prometheus.Counter
	Duplicates         prometheus.Counter
	FiredActivations   prometheus.Counter
	Backtracks         prometheus.Counter
	FitnessEvaluations prometheus.Counter
	Solutions          prometheus.Counter
	Running            prometheus.Gauge
}

// NewMetrics registers the counters in registerer. A nil registerer gives
// working but unregistered metrics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "refinery",
			Subsystem: "dse",
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		States:             counter("states_total", "New states reached"),
		Duplicates:         counter("duplicates_total", "States discarded as equivalent to a known one"),
		FiredActivations:   counter("fired_activations_total", "Activations fired"),
		Backtracks:         counter("backtracks_total", "Backtracks performed"),
		FitnessEvaluations: counter("fitness_evaluations_total", "Fitness evaluations"),
		Solutions:          counter("solutions_total", "Solutions accepted"),
		Running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "refinery",
			Subsystem: "dse",
			Name:      "running_explorations",
			Help:      "Explorations in progress",
		}),
	}
}
