// Package solver defines the contract between the planning model and the
// numeric backends that solve it.
package solver

import (
	"context"
	"errors"

	"github.com/enersys/microplan/core/milp"
)

// Status is the termination condition reported by a backend.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	// StatusLimit marks a solve cut short by a time or node limit for which
	// a feasible incumbent is still available.
	StatusLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusLimit:
		return "limit"
	}
	return "error"
}

// ErrInfeasible indicates the program has no feasible solution.
var ErrInfeasible = errors.New("solver: problem is infeasible")

// ErrUnbounded indicates the objective can decrease without bound.
var ErrUnbounded = errors.New("solver: problem is unbounded")

// ErrUnavailable indicates the backend itself could not be reached or run.
var ErrUnavailable = errors.New("solver: backend unavailable")

// ErrTimeout indicates the wall-clock limit expired before any feasible
// solution was found.
var ErrTimeout = errors.New("solver: timed out without incumbent")

// Solution carries the variable assignment returned by a backend. Values is
// indexed by variable ID. Backends snap near-integral binary values to 0/1;
// tolerance handling belongs here, not in the model builder.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Value returns the assignment of the given variable.
func (s *Solution) Value(varID int) float64 { return s.Values[varID] }

// Solver is a synchronous, blocking solve invocation. Implementations honor
// ctx cancellation where their backend allows it.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *milp.Model) (*Solution, error)
}
