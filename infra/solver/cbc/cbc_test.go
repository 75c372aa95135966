package cbc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/solver"
)

func twoVarModel(t *testing.T) *milp.Model {
	t.Helper()
	m := milp.New()
	x := m.AddVar("x", 0, 10)
	y := m.AddBinary("y")
	var obj milp.Expr
	obj.Add(x, 2).Add(y, 3)
	m.SetObjective(obj)
	var row milp.Expr
	row.Add(x, 1).Add(y, 1)
	m.AddConstraint("cap", row, milp.LE, 5)
	return m
}

func TestParseSolutionOptimal(t *testing.T) {
	m := twoVarModel(t)
	text := strings.Join([]string{
		"Optimal - objective value 11.00000000",
		"      0 cap                       5                       0",
		"      0 x0                        4                       2",
		"      1 x1                        0.9999997               3",
		"",
	}, "\n")

	s := New("", false, nil)
	sol, err := s.parseSolution(strings.NewReader(text), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 4.0, sol.Value(0), 1e-9)
	assert.Equal(t, 1.0, sol.Value(1), "binary should be snapped to integrality")
	assert.InDelta(t, 11.0, sol.Objective, 1e-9)
}

func TestParseSolutionInfeasible(t *testing.T) {
	m := twoVarModel(t)
	s := New("", false, nil)
	_, err := s.parseSolution(strings.NewReader("Infeasible - objective value 0\n"), m)
	assert.ErrorIs(t, err, solver.ErrInfeasible)
}

func TestParseSolutionUnbounded(t *testing.T) {
	m := twoVarModel(t)
	s := New("", false, nil)
	_, err := s.parseSolution(strings.NewReader("Unbounded\n"), m)
	assert.ErrorIs(t, err, solver.ErrUnbounded)
}

func TestParseSolutionStopped(t *testing.T) {
	m := twoVarModel(t)
	s := New("", false, nil)
	_, err := s.parseSolution(strings.NewReader("Stopped on time - objective value 3\n"), m)
	assert.ErrorIs(t, err, solver.ErrTimeout)
}

func TestParseSolutionUnknownHeader(t *testing.T) {
	m := twoVarModel(t)
	s := New("", false, nil)
	_, err := s.parseSolution(strings.NewReader("gibberish\n"), m)
	require.Error(t, err)
	assert.False(t, errors.Is(err, solver.ErrInfeasible))
}

func TestSolveMissingBinary(t *testing.T) {
	s := New("definitely-not-a-cbc-binary", false, nil)
	_, err := s.Solve(context.Background(), twoVarModel(t))
	assert.ErrorIs(t, err, solver.ErrUnavailable)
}

func TestName(t *testing.T) {
	assert.Equal(t, "cbc", New("", false, nil).Name())
}
