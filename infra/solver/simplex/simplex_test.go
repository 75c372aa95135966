package simplex

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/solver"
)

func TestSolveLP(t *testing.T) {
	m := milp.New()
	x := m.AddVar("x", 0, 4)
	y := m.AddVar("y", 0, 3)
	var cap milp.Expr
	cap.Add(x, 1).Add(y, 1)
	m.AddConstraint("cap", cap, milp.LE, 6)
	var obj milp.Expr
	obj.Add(x, -1).Add(y, -1)
	m.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != solver.StatusOptimal {
		t.Fatalf("status: %v", sol.Status)
	}
	if math.Abs(sol.Objective-(-6)) > 1e-6 {
		t.Errorf("objective: got %g, want -6", sol.Objective)
	}
	if math.Abs(sol.Value(x)+sol.Value(y)-6) > 1e-6 {
		t.Errorf("x+y: got %g", sol.Value(x)+sol.Value(y))
	}
}

func TestSolveEquality(t *testing.T) {
	m := milp.New()
	x := m.AddVar("x", 0, 10)
	y := m.AddVar("y", 0, 10)
	var e milp.Expr
	e.Add(x, 1).Add(y, 1)
	m.AddConstraint("sum", e, milp.EQ, 5)
	var obj milp.Expr
	obj.Add(x, 1)
	m.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Value(x)) > 1e-6 || math.Abs(sol.Value(y)-5) > 1e-6 {
		t.Errorf("got x=%g y=%g, want x=0 y=5", sol.Value(x), sol.Value(y))
	}
}

func TestSolveBinaryBranching(t *testing.T) {
	// The relaxation packs 1.5 units; the integer optimum packs one.
	m := milp.New()
	a := m.AddBinary("a")
	b := m.AddBinary("b")
	var cap milp.Expr
	cap.Add(a, 1).Add(b, 1)
	m.AddConstraint("cap", cap, milp.LE, 1.5)
	var obj milp.Expr
	obj.Add(a, -3).Add(b, -2)
	m.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-(-3)) > 1e-6 {
		t.Errorf("objective: got %g, want -3", sol.Objective)
	}
	if sol.Value(a) != 1 || sol.Value(b) != 0 {
		t.Errorf("got a=%g b=%g, want a=1 b=0", sol.Value(a), sol.Value(b))
	}
}

func TestSolveWideCostMagnitudes(t *testing.T) {
	// Penalty-sized coefficients next to unit costs must neither upset
	// the pivot tolerance nor leak the normalization into the reported
	// objective.
	m := milp.New()
	p := m.AddVar("p", 0, 10)
	sl := m.AddVar("sl", 0, 1)
	var bal milp.Expr
	bal.Add(p, 1).Add(sl, 4)
	m.AddConstraint("bal", bal, milp.EQ, 4)
	var obj milp.Expr
	obj.Add(p, 2).Add(sl, 1e6)
	m.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-8) > 1e-6 {
		t.Errorf("objective: got %g, want 8", sol.Objective)
	}
	if math.Abs(sol.Value(p)-4) > 1e-6 || math.Abs(sol.Value(sl)) > 1e-6 {
		t.Errorf("got p=%g sl=%g, want p=4 sl=0", sol.Value(p), sol.Value(sl))
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := milp.New()
	x := m.AddVar("x", 0, 1)
	var e milp.Expr
	e.Add(x, 1)
	m.AddConstraint("low", e, milp.GE, 2)
	var obj milp.Expr
	obj.Add(x, 1)
	m.SetObjective(obj)

	_, err := New(nil).Solve(context.Background(), m)
	if !errors.Is(err, solver.ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestSolveTimeoutWithoutIncumbent(t *testing.T) {
	m := milp.New()
	x := m.AddVar("x", 0, 1)
	var obj milp.Expr
	obj.Add(x, 1)
	m.SetObjective(obj)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Solve(ctx, m)
	if !errors.Is(err, solver.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
