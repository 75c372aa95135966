// Package lpfile lowers a milp.Model into CPLEX LP interchange text, the
// format consumed by external solver processes and remote solve services.
// Variables are emitted as x<id> and constraint rows as c<index> so that
// solution files can be mapped back without a name table.
package lpfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/enersys/microplan/core/milp"
)

// VarName returns the LP-file name of a model variable.
func VarName(id int) string { return "x" + strconv.Itoa(id) }

// ParseVarName maps an LP-file column name back to a variable ID. The
// second return is false for row names and foreign tokens.
func ParseVarName(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'x' {
		return 0, false
	}
	id, err := strconv.Atoi(name[1:])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Write emits the model in CPLEX LP format. The objective constant is not
// representable in the format; callers re-evaluate the objective from the
// returned variable values instead of trusting the solver's reported one.
func Write(w io.Writer, m *milp.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Minimize")
	fmt.Fprint(bw, " obj:")
	writeTerms(bw, m.Objective())
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Subject To")
	for i, con := range m.Constraints() {
		fmt.Fprintf(bw, " c%d:", i)
		writeTerms(bw, con.Expr)
		rhs := con.RHS - con.Expr.Const
		switch con.Rel {
		case milp.LE:
			fmt.Fprintf(bw, " <= %s\n", num(rhs))
		case milp.GE:
			fmt.Fprintf(bw, " >= %s\n", num(rhs))
		case milp.EQ:
			fmt.Fprintf(bw, " = %s\n", num(rhs))
		}
	}

	fmt.Fprintln(bw, "Bounds")
	for _, v := range m.Vars() {
		if v.Domain == milp.Binary {
			continue
		}
		lo, hi := v.Lower, v.Upper
		switch {
		case lo == 0 && math.IsInf(hi, 1):
			// LP-format default.
		case math.IsInf(lo, -1) && math.IsInf(hi, 1):
			fmt.Fprintf(bw, " %s free\n", VarName(v.ID))
		case math.IsInf(lo, -1):
			fmt.Fprintf(bw, " -infinity <= %s <= %s\n", VarName(v.ID), num(hi))
		case math.IsInf(hi, 1):
			fmt.Fprintf(bw, " %s >= %s\n", VarName(v.ID), num(lo))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", num(lo), VarName(v.ID), num(hi))
		}
	}

	if bins := m.BinaryVars(); len(bins) > 0 {
		fmt.Fprintln(bw, "Binary")
		for _, id := range bins {
			fmt.Fprintf(bw, " %s\n", VarName(id))
		}
	}

	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

// writeTerms prints the signed linear terms, accumulating duplicate
// variable references first.
func writeTerms(w io.Writer, e milp.Expr) {
	coefs := make(map[int]float64, len(e.Terms))
	order := make([]int, 0, len(e.Terms))
	for _, t := range e.Terms {
		if _, seen := coefs[t.Var]; !seen {
			order = append(order, t.Var)
		}
		coefs[t.Var] += t.Coef
	}
	wrote := false
	for _, id := range order {
		c := coefs[id]
		if c == 0 {
			continue
		}
		sign := "+"
		if c < 0 {
			sign = "-"
			c = -c
		}
		fmt.Fprintf(w, " %s %s %s", sign, num(c), VarName(id))
		wrote = true
	}
	if !wrote {
		fmt.Fprint(w, " 0 x0")
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
