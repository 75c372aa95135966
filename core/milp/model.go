// Package milp holds a solver-independent description of a mixed-integer
// linear program: variables with bounds and domains, linear expressions,
// constraints and a minimization objective. Backends lower this structure
// into whatever form their solver consumes.
package milp

import (
	"fmt"
	"math"
)

// Domain classifies a decision variable.
type Domain int

const (
	Continuous Domain = iota
	Binary
)

// Relation is the comparison of a constraint row against its bound.
type Relation int

const (
	LE Relation = iota
	GE
	EQ
)

func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	}
	return "?"
}

// Var is a decision variable. Lower and Upper may be ±Inf for unbounded
// continuous variables. Binary variables are implicitly bounded in [0,1].
type Var struct {
	ID     int
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// Term is a coefficient on a variable inside a linear expression.
type Term struct {
	Var  int
	Coef float64
}

// Expr is a linear expression: sum of terms plus a constant offset.
type Expr struct {
	Terms []Term
	Const float64
}

// Add appends coef*x to the expression. Zero coefficients are skipped.
func (e *Expr) Add(varID int, coef float64) *Expr {
	if coef != 0 {
		e.Terms = append(e.Terms, Term{Var: varID, Coef: coef})
	}
	return e
}

// AddConst adds a constant to the expression.
func (e *Expr) AddConst(c float64) *Expr {
	e.Const += c
	return e
}

// AddExpr appends all terms and the constant of other, each scaled by coef.
func (e *Expr) AddExpr(other Expr, coef float64) *Expr {
	for _, t := range other.Terms {
		e.Add(t.Var, coef*t.Coef)
	}
	e.Const += coef * other.Const
	return e
}

// Eval computes the value of the expression for the given variable assignment.
func (e Expr) Eval(values []float64) float64 {
	v := e.Const
	for _, t := range e.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}

// Constraint relates a linear expression to a right-hand side.
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Model is the assembled program. The objective is always minimized.
type Model struct {
	vars []Var
	cons []Constraint
	obj  Expr
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// AddVar registers a continuous variable and returns its ID.
func (m *Model) AddVar(name string, lower, upper float64) int {
	return m.add(Var{Name: name, Domain: Continuous, Lower: lower, Upper: upper})
}

// AddBinary registers a binary variable and returns its ID.
func (m *Model) AddBinary(name string) int {
	return m.add(Var{Name: name, Domain: Binary, Lower: 0, Upper: 1})
}

// AddDomainVar registers a variable whose domain depends on a configuration
// choice: Binary yields a 0/1 variable, Continuous a relaxed variable bounded
// in [lower,upper].
func (m *Model) AddDomainVar(name string, dom Domain, lower, upper float64) int {
	if dom == Binary {
		return m.AddBinary(name)
	}
	return m.AddVar(name, lower, upper)
}

func (m *Model) add(v Var) int {
	v.ID = len(m.vars)
	m.vars = append(m.vars, v)
	return v.ID
}

// AddConstraint appends a constraint row.
func (m *Model) AddConstraint(name string, expr Expr, rel Relation, rhs float64) {
	m.cons = append(m.cons, Constraint{Name: name, Expr: expr, Rel: rel, RHS: rhs})
}

// SetObjective sets the expression to minimize.
func (m *Model) SetObjective(e Expr) { m.obj = e }

// Objective returns the minimized expression.
func (m *Model) Objective() Expr { return m.obj }

// Vars returns the registered variables in ID order.
func (m *Model) Vars() []Var { return m.vars }

// Var returns the variable with the given ID.
func (m *Model) Var(id int) Var { return m.vars[id] }

// Constraints returns the constraint rows in insertion order.
func (m *Model) Constraints() []Constraint { return m.cons }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraint rows.
func (m *Model) NumConstraints() int { return len(m.cons) }

// BinaryVars returns the IDs of all binary variables.
func (m *Model) BinaryVars() []int {
	var ids []int
	for _, v := range m.vars {
		if v.Domain == Binary {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Validate reports structural defects: out-of-range variable references and
// inverted bounds.
func (m *Model) Validate() error {
	for _, v := range m.vars {
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %s: lower bound %g above upper %g", v.Name, v.Lower, v.Upper)
		}
	}
	check := func(e Expr, where string) error {
		for _, t := range e.Terms {
			if t.Var < 0 || t.Var >= len(m.vars) {
				return fmt.Errorf("%s references unknown variable %d", where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%s has non-finite coefficient on variable %d", where, t.Var)
			}
		}
		return nil
	}
	if err := check(m.obj, "objective"); err != nil {
		return err
	}
	for _, c := range m.cons {
		if err := check(c.Expr, "constraint "+c.Name); err != nil {
			return err
		}
	}
	return nil
}
