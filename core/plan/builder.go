// Package plan builds the investment and operation program for one study
// and reshapes solved values into queryable results. The builder only
// produces the algebraic description; solving is delegated to a backend
// behind the core/solver interface.
package plan

import (
	"fmt"
	"math"

	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/model"
)

// Plan is one assembled program together with the variable bookkeeping
// needed to interpret a solution.
type Plan struct {
	sys  *model.System
	opts Options
	m    *milp.Model

	vars planVars

	// Cost expressions kept for the objective breakdown report.
	invExpr  milp.Expr
	oprExpr  milp.Expr
	shedExpr milp.Expr
}

// planVars indexes every decision variable group. Operational groups are
// unit × period × scenario (or bus/line × period × scenario); investment
// groups are one variable per candidate unit.
type planVars struct {
	pcg, qcg [][][]int // candidate conventional dispatch
	peg, qeg [][][]int // existing conventional dispatch
	pcs, qcs [][][]int // candidate solar dispatch
	pes, qes [][][]int // existing solar dispatch
	pcw, qcw [][][]int // candidate wind dispatch
	pew, qew [][][]int // existing wind dispatch

	pbc, pbd, qbd [][][]int // battery charge, discharge, reactive
	soc           [][][]int // battery state of charge

	pds, pss, pws [][][]int // demand shed fraction, solar/wind curtailment
	vol           [][][]int // bus voltage magnitude
	pel, qel      [][][]int // line active/reactive flow

	xg, xs, xw, xb []int // investment status per candidate unit

	cu, eu [][][]int // conventional commitment status
}

// Build validates the system against the options and assembles the full
// program: variables, objective, and all constraint families.
func Build(sys *model.System, opts Options) (*Plan, error) {
	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if err := opts.validate(sys.Buses()); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	p := &Plan{sys: sys, opts: opts, m: milp.New()}
	p.addVariables()
	p.addObjective()
	p.addBalanceConstraints()
	p.addCapacityConstraints()
	p.addBatteryConstraints()
	p.addCurtailmentConstraints()
	p.addNetworkConstraints()
	p.addInvestmentConstraints()

	if err := p.m.Validate(); err != nil {
		return nil, fmt.Errorf("build: internal model defect: %w", err)
	}
	return p, nil
}

// Model exposes the assembled program for a backend.
func (p *Plan) Model() *milp.Model { return p.m }

// Options returns the build configuration.
func (p *Plan) Options() Options { return p.opts }

func (p *Plan) dims() (nt, no int) { return p.sys.Periods(), p.sys.Scenarios() }

// grid3 allocates an n × periods × scenarios variable group.
func (p *Plan) grid3(n int, name string, mk func(name string) int) [][][]int {
	nt, no := p.dims()
	out := make([][][]int, n)
	for i := 0; i < n; i++ {
		out[i] = make([][]int, nt)
		for t := 0; t < nt; t++ {
			out[i][t] = make([]int, no)
			for o := 0; o < no; o++ {
				out[i][t][o] = mk(fmt.Sprintf("%s_%d_%d_%d", name, i, t, o))
			}
		}
	}
	return out
}

func (p *Plan) addVariables() {
	m := p.m
	inf := math.Inf(1)

	nonneg := func(name string) int { return m.AddVar(name, 0, inf) }
	free := func(name string) int { return m.AddVar(name, -inf, inf) }

	// Investment and commitment domains follow one parameterized path:
	// binary when the corresponding flag is set, relaxed [0,1] otherwise.
	invDom, comDom := milp.Continuous, milp.Continuous
	if p.opts.InvestBinary {
		invDom = milp.Binary
	}
	if p.opts.CommitBinary {
		comDom = milp.Binary
	}
	invest := func(name string) int {
		if p.opts.OperationOnly {
			// Candidates cannot be installed in operation-only mode.
			return m.AddVar(name, 0, 0)
		}
		return m.AddDomainVar(name, invDom, 0, 1)
	}
	commit := func(name string) int { return m.AddDomainVar(name, comDom, 0, 1) }
	shed := func(name string) int {
		switch p.opts.Shedding {
		case ShedBlackout:
			return m.AddBinary(name)
		case ShedDisabled:
			return m.AddVar(name, 0, 0)
		default:
			return m.AddVar(name, 0, 1)
		}
	}

	s, v := p.sys, &p.vars

	v.pcg = p.grid3(len(s.CandConv), "pcg", nonneg)
	v.qcg = p.grid3(len(s.CandConv), "qcg", nonneg)
	v.peg = p.grid3(len(s.ExistConv), "peg", nonneg)
	v.qeg = p.grid3(len(s.ExistConv), "qeg", nonneg)

	v.pcs = p.grid3(len(s.CandSolar), "pcs", nonneg)
	v.qcs = p.grid3(len(s.CandSolar), "qcs", free)
	v.pes = p.grid3(len(s.ExistSolar), "pes", nonneg)
	v.qes = p.grid3(len(s.ExistSolar), "qes", free)

	v.pcw = p.grid3(len(s.CandWind), "pcw", nonneg)
	v.qcw = p.grid3(len(s.CandWind), "qcw", free)
	v.pew = p.grid3(len(s.ExistWind), "pew", nonneg)
	v.qew = p.grid3(len(s.ExistWind), "qew", free)

	v.pbc = p.grid3(len(s.Batteries), "pbc", nonneg)
	v.pbd = p.grid3(len(s.Batteries), "pbd", nonneg)
	v.qbd = p.grid3(len(s.Batteries), "qbd", free)
	nt, no := p.dims()
	v.soc = make([][][]int, len(s.Batteries))
	for i, b := range s.Batteries {
		v.soc[i] = make([][]int, nt)
		for t := 0; t < nt; t++ {
			v.soc[i][t] = make([]int, no)
			for o := 0; o < no; o++ {
				v.soc[i][t][o] = m.AddVar(fmt.Sprintf("soc_%d_%d_%d", i, t, o), 0, b.EMax)
			}
		}
	}

	v.pds = p.grid3(s.Buses(), "pds", shed)
	v.pss = p.grid3(s.Buses(), "pss", nonneg)
	v.pws = p.grid3(s.Buses(), "pws", nonneg)

	v.vol = p.grid3(s.Buses(), "vol", func(name string) int {
		return m.AddVar(name, p.opts.VMin, p.opts.VMax)
	})
	v.pel = p.grid3(len(s.Lines), "pel", free)
	v.qel = p.grid3(len(s.Lines), "qel", free)

	single := func(n int, name string) []int {
		out := make([]int, n)
		for i := 0; i < n; i++ {
			out[i] = invest(fmt.Sprintf("%s_%d", name, i))
		}
		return out
	}
	v.xg = single(len(s.CandConv), "xg")
	v.xs = single(len(s.CandSolar), "xs")
	v.xw = single(len(s.CandWind), "xw")
	v.xb = single(len(s.Batteries), "xb")

	v.cu = p.grid3(len(s.CandConv), "cu", commit)
	v.eu = p.grid3(len(s.ExistConv), "eu", commit)
}

func (p *Plan) addObjective() {
	s, v := p.sys, &p.vars
	sf := p.opts.ScalingFactor
	sb := s.BasePower
	nt, no := p.dims()

	var inv milp.Expr
	for i, u := range s.CandConv {
		inv.Add(v.xg[i], sf*u.InvestCost*u.PMax)
	}
	for i, u := range s.CandSolar {
		inv.Add(v.xs[i], sf*u.InvestCost*u.PMax)
	}
	for i, u := range s.CandWind {
		inv.Add(v.xw[i], sf*u.InvestCost*u.PMax)
	}
	for i, b := range s.Batteries {
		inv.Add(v.xb[i], sf*b.InvestCost*b.PMax)
	}

	var opr, shedOnly milp.Expr
	dispatch := func(ids [][][]int, cost func(i int) float64) {
		for i := range ids {
			c := cost(i)
			for t := 0; t < nt; t++ {
				for o := 0; o < no; o++ {
					opr.Add(ids[i][t][o], sf*sb*s.Durations[o]*c)
				}
			}
		}
	}
	dispatch(v.pcg, func(i int) float64 { return s.CandConv[i].OperCost })
	dispatch(v.peg, func(i int) float64 { return s.ExistConv[i].OperCost })
	dispatch(v.pcs, func(i int) float64 { return s.CandSolar[i].OperCost })
	dispatch(v.pes, func(i int) float64 { return s.ExistSolar[i].OperCost })
	dispatch(v.pcw, func(i int) float64 { return s.CandWind[i].OperCost })
	dispatch(v.pew, func(i int) float64 { return s.ExistWind[i].OperCost })

	for b := 0; b < s.Buses(); b++ {
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				dt := s.Durations[o]
				shedOnly.Add(v.pds[b][t][o], sf*sb*dt*p.opts.DemandShedCost*s.DemandP[t][b]*s.MultP[t][o])
				shedOnly.Add(v.pss[b][t][o], sf*sb*dt*p.opts.RenewShedCost)
				shedOnly.Add(v.pws[b][t][o], sf*sb*dt*p.opts.RenewShedCost)
			}
		}
	}
	opr.AddExpr(shedOnly, 1)

	p.invExpr = inv
	p.oprExpr = opr
	p.shedExpr = shedOnly

	var obj milp.Expr
	obj.AddExpr(inv, 1)
	obj.AddExpr(opr, 1)
	p.m.SetObjective(obj)
}
