package simplex

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/enersys/microplan/core/milp"
)

// lowering is the dense general-form image of a milp.Model: minimize c·x
// subject to Gx <= h and Ax = b. Variable bounds become inequality rows so
// the conversion to standard form can treat every variable as free.
type lowering struct {
	n        int
	c        []float64
	cScale   float64
	objConst float64
	gRows    [][]float64
	h        []float64
	aRows    [][]float64
	b        []float64
}

// fix pins one variable to a value, used for branching.
type fix struct {
	varID int
	value float64
}

func lower(m *milp.Model) *lowering {
	n := m.NumVars()
	l := &lowering{n: n, c: make([]float64, n), cScale: 1, objConst: m.Objective().Const}
	for _, t := range m.Objective().Terms {
		l.c[t.Var] += t.Coef
	}

	// Shedding penalties put coefficients of 1e6 next to unit costs of a
	// few units. The simplex pivot tolerance is absolute, so that spread
	// makes it misread bounded problems as unbounded. Normalize the cost
	// vector to unit max magnitude and recover the objective through
	// cScale.
	var cMax float64
	for _, v := range l.c {
		if a := math.Abs(v); a > cMax {
			cMax = a
		}
	}
	if cMax > 1 {
		l.cScale = cMax
		for i := range l.c {
			l.c[i] /= cMax
		}
	}

	row := func(e milp.Expr, negate bool) []float64 {
		r := make([]float64, n)
		for _, t := range e.Terms {
			if negate {
				r[t.Var] -= t.Coef
			} else {
				r[t.Var] += t.Coef
			}
		}
		return r
	}
	for _, con := range m.Constraints() {
		rhs := con.RHS - con.Expr.Const
		switch con.Rel {
		case milp.LE:
			l.gRows = append(l.gRows, row(con.Expr, false))
			l.h = append(l.h, rhs)
		case milp.GE:
			l.gRows = append(l.gRows, row(con.Expr, true))
			l.h = append(l.h, -rhs)
		case milp.EQ:
			l.aRows = append(l.aRows, row(con.Expr, false))
			l.b = append(l.b, rhs)
		}
	}

	for _, v := range m.Vars() {
		if !math.IsInf(v.Upper, 1) {
			r := make([]float64, n)
			r[v.ID] = 1
			l.gRows = append(l.gRows, r)
			l.h = append(l.h, v.Upper)
		}
		if !math.IsInf(v.Lower, -1) {
			r := make([]float64, n)
			r[v.ID] = -1
			l.gRows = append(l.gRows, r)
			l.h = append(l.h, -v.Lower)
		}
	}
	return l
}

// solve runs the simplex algorithm on the relaxation with the given branch
// fixes applied and returns the variable assignment and objective value.
func (l *lowering) solve(fixes []fix, tol float64) ([]float64, float64, error) {
	gr := len(l.gRows) + 2*len(fixes)
	var g mat.Matrix
	h := make([]float64, 0, gr)
	if gr > 0 {
		data := make([]float64, 0, gr*l.n)
		for i, r := range l.gRows {
			data = append(data, r...)
			h = append(h, l.h[i])
		}
		for _, f := range fixes {
			up := make([]float64, l.n)
			up[f.varID] = 1
			data = append(data, up...)
			h = append(h, f.value)
			dn := make([]float64, l.n)
			dn[f.varID] = -1
			data = append(data, dn...)
			h = append(h, -f.value)
		}
		g = mat.NewDense(gr, l.n, data)
	}

	var a mat.Matrix
	if len(l.aRows) > 0 {
		data := make([]float64, 0, len(l.aRows)*l.n)
		for _, r := range l.aRows {
			data = append(data, r...)
		}
		a = mat.NewDense(len(l.aRows), l.n, data)
	}

	cStd, aStd, bStd := lp.Convert(l.c, g, h, a, l.b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, 0, err
	}

	// Standard form splits every variable into positive and negative parts;
	// the original assignment is their difference.
	x := make([]float64, l.n)
	obj := l.objConst
	for i := range x {
		x[i] = sol[i] - sol[l.n+i]
		obj += l.cScale * l.c[i] * x[i]
	}
	return x, obj, nil
}
