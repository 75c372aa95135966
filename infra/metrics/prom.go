package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve events in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
}

// NewPromSink registers planning metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_solves_total",
		Help: "Total number of planning runs",
	}, []string{"solver", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_solve_duration_seconds",
		Help:    "Wall time spent inside the solver backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"solver", "status"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_objective_cost",
		Help: "Objective value of the last completed run",
	}, []string{"solver"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, duration: duration, objective: objective}, nil
}

// RecordSolve updates the counters and histograms for the event.
func (s *PromSink) RecordSolve(ev SolveEvent) error {
	s.solves.WithLabelValues(ev.Solver, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Solver, ev.Status).Observe(ev.Duration.Seconds())
	if ev.Status == "optimal" {
		s.objective.WithLabelValues(ev.Solver).Set(ev.Objective)
	}
	return nil
}
