// Package cbc runs the COIN-OR cbc command-line solver on an LP
// interchange file and parses its solution file back into variable
// assignments.
package cbc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/enersys/microplan/core/logger"
	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/solver"
	"github.com/enersys/microplan/infra/solver/lpfile"
)

// Solver invokes an external cbc binary.
type Solver struct {
	// Path is the cbc executable, looked up on PATH when empty.
	Path string
	// Verbose forwards solver output to the process stdout.
	Verbose bool
	// IntTol snaps near-integral binary values when reading solutions.
	IntTol float64

	log logger.Logger
}

// New returns a cbc-backed Solver.
func New(path string, verbose bool, log logger.Logger) *Solver {
	if path == "" {
		path = "cbc"
	}
	return &Solver{Path: path, Verbose: verbose, IntTol: 1e-6, log: log}
}

// Name identifies the backend.
func (s *Solver) Name() string { return "cbc" }

// Solve writes the model to a temporary LP file, runs cbc and parses the
// solution. A missing binary surfaces as ErrUnavailable.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*solver.Solution, error) {
	bin, err := exec.LookPath(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: cbc binary %q not found", solver.ErrUnavailable, s.Path)
	}

	dir, err := os.MkdirTemp("", "cbc-solve-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	f, err := os.Create(lpPath)
	if err != nil {
		return nil, err
	}
	if err := lpfile.Write(f, m); err != nil {
		f.Close()
		return nil, fmt.Errorf("write lp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, lpPath, "solve", "printingOptions", "all", "solution", solPath)
	if s.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", solver.ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: cbc run failed: %v", solver.ErrUnavailable, err)
	}

	sf, err := os.Open(solPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cbc produced no solution file", solver.ErrUnavailable)
	}
	defer sf.Close()
	return s.parseSolution(sf, m)
}

// parseSolution reads a cbc solution file: a status header line followed
// by one line per row and column with index, name, value and dual.
func (s *Solver) parseSolution(r io.Reader, m *milp.Model) (*solver.Solution, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: empty solution file", solver.ErrUnavailable)
	}
	header := strings.ToLower(sc.Text())
	switch {
	case strings.HasPrefix(header, "optimal"):
	case strings.Contains(header, "infeasible"):
		return nil, solver.ErrInfeasible
	case strings.Contains(header, "unbounded"):
		return nil, solver.ErrUnbounded
	case strings.Contains(header, "stopped"):
		return nil, fmt.Errorf("%w: cbc stopped before optimality", solver.ErrTimeout)
	default:
		return nil, fmt.Errorf("cbc: unrecognized termination %q", strings.TrimSpace(header))
	}

	values := make([]float64, m.NumVars())
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		id, ok := lpfile.ParseVarName(fields[1])
		if !ok || id >= len(values) {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("cbc: bad value for %s: %w", fields[1], err)
		}
		values[id] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, id := range m.BinaryVars() {
		if d := values[id] - float64(int(values[id]+0.5)); d < s.IntTol && d > -s.IntTol {
			values[id] = float64(int(values[id] + 0.5))
		}
	}

	sol := &solver.Solution{
		Status: solver.StatusOptimal,
		// The LP file cannot carry the objective constant, so the
		// objective is re-evaluated from the assignment.
		Objective: m.Objective().Eval(values),
		Values:    values,
	}
	if s.log != nil {
		s.log.Debugf("cbc solution parsed, objective %g", sol.Objective)
	}
	return sol, nil
}

// Available reports whether the configured cbc binary can be found.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.Path)
	return err == nil
}
