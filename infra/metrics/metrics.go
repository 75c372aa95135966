// Package metrics records planning runs for observability backends.
package metrics

import (
	"time"
)

// SolveEvent describes one completed (or failed) planning run.
type SolveEvent struct {
	RunID       string
	Solver      string
	Status      string
	Objective   float64
	Variables   int
	Constraints int
	Duration    time.Duration
	SolvedAt    time.Time
}

// Sink records solve events for observability purposes.
type Sink interface {
	RecordSolve(ev SolveEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error { return nil }

// Config selects and parameterizes the metrics backends.
type Config struct {
	PromEnabled  bool   `json:"prom_enabled"`
	PromAddr     string `json:"prom_addr"`
	InfluxURL    string `json:"influx_url"`
	InfluxToken  string `json:"influx_token"`
	InfluxOrg    string `json:"influx_org"`
	InfluxBucket string `json:"influx_bucket"`
}
