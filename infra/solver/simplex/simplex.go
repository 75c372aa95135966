// Package simplex is the in-memory solver backend. Linear relaxations run
// on the gonum simplex implementation; binary variables are handled by
// branch and bound with incumbent pruning. It needs no external process
// and is the default backend.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/enersys/microplan/core/logger"
	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/solver"
)

// Solver solves MILPs with simplex relaxations and branch and bound.
type Solver struct {
	// Tol is the simplex pivot tolerance.
	Tol float64
	// IntTol is the integrality tolerance: a binary relaxation value
	// within IntTol of 0 or 1 counts as integral.
	IntTol float64
	// MaxNodes bounds the search tree size.
	MaxNodes int

	log logger.Logger
}

// New returns a Solver with default tolerances.
func New(log logger.Logger) *Solver {
	return &Solver{Tol: 1e-7, IntTol: 1e-6, MaxNodes: 200000, log: log}
}

// Name identifies the backend.
func (s *Solver) Name() string { return "simplex" }

type node struct {
	fixes []fix
}

// Solve minimizes the model. On context expiry the best known incumbent is
// returned with StatusLimit; without an incumbent the timeout surfaces as
// an error.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*solver.Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrUnavailable, err)
	}
	low := lower(m)
	bins := m.BinaryVars()

	var best *solver.Solution
	bestObj := math.Inf(1)
	stack := []node{{}}
	nodes := 0

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			if best != nil {
				best.Status = solver.StatusLimit
				if s.log != nil {
					s.log.Warnf("time limit reached after %d nodes, returning incumbent %g", nodes, best.Objective)
				}
				return best, nil
			}
			return nil, fmt.Errorf("%w: %v", solver.ErrTimeout, ctx.Err())
		default:
		}
		nodes++
		if nodes > s.MaxNodes {
			if best != nil {
				best.Status = solver.StatusLimit
				return best, nil
			}
			return nil, fmt.Errorf("%w: node limit %d exhausted", solver.ErrTimeout, s.MaxNodes)
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, obj, err := low.solve(nd.fixes, s.Tol)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			// Children only exist once the root relaxation solved to a
			// finite value, and fixing binaries inside [0,1] cannot
			// unbound a bounded program. An unbounded child is a
			// numerical failure of that node, not a property of the
			// model.
			if len(nd.fixes) > 0 {
				if s.log != nil {
					s.log.Warnf("pruning node with %d fixes: relaxation misreported unbounded", len(nd.fixes))
				}
				continue
			}
			return nil, solver.ErrUnbounded
		case err != nil:
			return nil, fmt.Errorf("simplex: %w", err)
		}

		if obj >= bestObj-1e-9 {
			continue
		}

		branch, frac := -1, s.IntTol
		for _, id := range bins {
			f := math.Abs(x[id] - math.Round(x[id]))
			if f > frac {
				branch, frac = id, f
			}
		}
		if branch < 0 {
			for _, id := range bins {
				x[id] = math.Round(x[id])
			}
			best = &solver.Solution{Status: solver.StatusOptimal, Objective: obj, Values: x}
			bestObj = obj
			continue
		}

		// Explore the rounding-nearest child first.
		near, far := 1.0, 0.0
		if x[branch] < 0.5 {
			near, far = 0, 1
		}
		stack = append(stack,
			node{fixes: appendFix(nd.fixes, fix{branch, far})},
			node{fixes: appendFix(nd.fixes, fix{branch, near})},
		)
	}

	if best == nil {
		return nil, solver.ErrInfeasible
	}
	if s.log != nil {
		s.log.Debugf("branch and bound explored %d nodes", nodes)
	}
	return best, nil
}

func appendFix(fixes []fix, f fix) []fix {
	out := make([]fix, len(fixes), len(fixes)+1)
	copy(out, fixes)
	return append(out, f)
}
