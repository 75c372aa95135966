package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromSink_RecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	ev := SolveEvent{
		RunID:       "run-1",
		Solver:      "simplex",
		Status:      "optimal",
		Objective:   30,
		Variables:   12,
		Constraints: 20,
		Duration:    150 * time.Millisecond,
		SolvedAt:    time.Now(),
	}
	if err := sink.RecordSolve(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP planner_solves_total Total number of planning runs
# TYPE planner_solves_total counter
planner_solves_total{solver="simplex",status="optimal"} 1
`
	if err := testutil.CollectAndCompare(sink.solves, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	gauge := `
# HELP planner_objective_cost Objective value of the last completed run
# TYPE planner_objective_cost gauge
planner_objective_cost{solver="simplex"} 30
`
	if err := testutil.CollectAndCompare(sink.objective, strings.NewReader(gauge)); err != nil {
		t.Errorf("unexpected objective gauge: %v", err)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if first.solves != second.solves {
		t.Errorf("expected second sink to reuse registered counter")
	}
}
