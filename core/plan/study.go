package plan

import (
	"context"
	"fmt"

	"github.com/enersys/microplan/core/logger"
	"github.com/enersys/microplan/core/model"
	"github.com/enersys/microplan/core/solver"
)

// Study ties a loaded system to build options and retains the results of
// the most recent successful solve. Concurrent solves must use separate
// Study instances; a Study holds no shared mutable state beyond its own
// results.
type Study struct {
	sys     *model.System
	opts    Options
	log     logger.Logger
	results *Results
}

// NewStudy validates the system against the options and returns a Study
// ready to solve.
func NewStudy(sys *model.System, opts Options, log logger.Logger) (*Study, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(sys.Buses()); err != nil {
		return nil, err
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Study{sys: sys, opts: opts, log: log}, nil
}

// System returns the study's input tables.
func (s *Study) System() *model.System { return s.sys }

// Options returns the study's build configuration.
func (s *Study) Options() Options { return s.opts }

// Solve builds the program, hands it to the backend and extracts results.
// Infeasible, unbounded or unavailable terminations surface as errors from
// the backend and are never recorded as results.
func (s *Study) Solve(ctx context.Context, sv solver.Solver) (*Results, error) {
	p, err := Build(s.sys, s.opts)
	if err != nil {
		return nil, err
	}
	m := p.Model()
	s.log.Debugw("model assembled", map[string]any{
		"variables":   m.NumVars(),
		"constraints": m.NumConstraints(),
		"binaries":    len(m.BinaryVars()),
		"solver":      sv.Name(),
	})

	sol, err := sv.Solve(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("solve with %s: %w", sv.Name(), err)
	}
	r := p.Extract(sol)
	s.log.Infof("solve %s finished: status=%s objective=%g", r.RunID, r.Status, r.Objective)
	s.results = r
	return r, nil
}

// Results returns the outcome of the last successful solve, or ErrNoResults
// when none exists yet.
func (s *Study) Results() (*Results, error) {
	if s.results == nil {
		return nil, ErrNoResults
	}
	return s.results, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
