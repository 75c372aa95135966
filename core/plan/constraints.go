package plan

import (
	"fmt"

	"github.com/enersys/microplan/core/milp"
)

// addBalanceConstraints ties injections, line flows, demand, shedding and
// curtailment together at every (bus, period, scenario). The network is a
// linear per-phase relaxation: injections and demand are divided by the
// phase count.
func (p *Plan) addBalanceConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()
	ph := 1.0 / float64(p.opts.PhaseCount)

	for b := 0; b < s.Buses(); b++ {
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				demP := s.DemandP[t][b] * s.MultP[t][o] * ph
				demQ := s.DemandQ[t][b] * s.MultQ[t][o] * ph

				var act milp.Expr
				addAtBus := func(ids [][][]int, buses func(i int) int, coef float64) {
					for i := range ids {
						if buses(i) == b {
							act.Add(ids[i][t][o], coef)
						}
					}
				}
				addAtBus(v.pcg, func(i int) int { return s.CandConv[i].Bus }, ph)
				addAtBus(v.peg, func(i int) int { return s.ExistConv[i].Bus }, ph)
				addAtBus(v.pcs, func(i int) int { return s.CandSolar[i].Bus }, ph)
				addAtBus(v.pes, func(i int) int { return s.ExistSolar[i].Bus }, ph)
				addAtBus(v.pcw, func(i int) int { return s.CandWind[i].Bus }, ph)
				addAtBus(v.pew, func(i int) int { return s.ExistWind[i].Bus }, ph)
				addAtBus(v.pbd, func(i int) int { return s.Batteries[i].Bus }, ph)
				addAtBus(v.pbc, func(i int) int { return s.Batteries[i].Bus }, -ph)
				for l, ln := range s.Lines {
					if ln.To == b {
						act.Add(v.pel[l][t][o], 1)
					}
					if ln.From == b {
						act.Add(v.pel[l][t][o], -1)
					}
				}
				// Shed demand stays on the left: dem*(1-pds) moved across.
				act.Add(v.pds[b][t][o], demP)
				act.Add(v.pss[b][t][o], -1)
				act.Add(v.pws[b][t][o], -1)
				p.m.AddConstraint(fmt.Sprintf("act_bal_%d_%d_%d", b, t, o), act, milp.EQ, demP)

				var rea milp.Expr
				addQ := func(ids [][][]int, buses func(i int) int) {
					for i := range ids {
						if buses(i) == b {
							rea.Add(ids[i][t][o], ph)
						}
					}
				}
				addQ(v.qcg, func(i int) int { return s.CandConv[i].Bus })
				addQ(v.qeg, func(i int) int { return s.ExistConv[i].Bus })
				addQ(v.qcs, func(i int) int { return s.CandSolar[i].Bus })
				addQ(v.qes, func(i int) int { return s.ExistSolar[i].Bus })
				addQ(v.qcw, func(i int) int { return s.CandWind[i].Bus })
				addQ(v.qew, func(i int) int { return s.ExistWind[i].Bus })
				addQ(v.qbd, func(i int) int { return s.Batteries[i].Bus })
				for l, ln := range s.Lines {
					if ln.To == b {
						rea.Add(v.qel[l][t][o], 1)
					}
					if ln.From == b {
						rea.Add(v.qel[l][t][o], -1)
					}
				}
				rea.Add(v.pds[b][t][o], demQ)
				p.m.AddConstraint(fmt.Sprintf("rea_bal_%d_%d_%d", b, t, o), rea, milp.EQ, demQ)
			}
		}
	}
}

// addCapacityConstraints bounds dispatch by the gating status: commitment
// for conventional units, investment or plain existence for renewables.
func (p *Plan) addCapacityConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()

	// gated emits lo*status <= x <= hi*status for a per-period status
	// variable, or constant bounds when status < 0 (existing renewables).
	gated := func(name string, x [][][]int, status func(i, t, o int) int, lo, hi func(i int) float64) {
		for i := range x {
			for t := 0; t < nt; t++ {
				for o := 0; o < no; o++ {
					st := status(i, t, o)
					var lower, upper milp.Expr
					lower.Add(x[i][t][o], 1)
					upper.Add(x[i][t][o], 1)
					if st >= 0 {
						lower.Add(st, -lo(i))
						upper.Add(st, -hi(i))
						p.m.AddConstraint(fmt.Sprintf("min_%s_%d_%d_%d", name, i, t, o), lower, milp.GE, 0)
						p.m.AddConstraint(fmt.Sprintf("max_%s_%d_%d_%d", name, i, t, o), upper, milp.LE, 0)
					} else {
						p.m.AddConstraint(fmt.Sprintf("min_%s_%d_%d_%d", name, i, t, o), lower, milp.GE, lo(i))
						p.m.AddConstraint(fmt.Sprintf("max_%s_%d_%d_%d", name, i, t, o), upper, milp.LE, hi(i))
					}
				}
			}
		}
	}
	commitStatus := func(ids [][][]int) func(i, t, o int) int {
		return func(i, t, o int) int { return ids[i][t][o] }
	}
	investStatus := func(ids []int) func(i, t, o int) int {
		return func(i, t, o int) int { return ids[i] }
	}
	existing := func(i, t, o int) int { return -1 }

	// Conventional active/reactive, gated by commitment.
	gated("act_cgen", v.pcg, commitStatus(v.cu),
		func(i int) float64 { return s.CandConv[i].PMin },
		func(i int) float64 { return s.CandConv[i].PMax })
	gated("act_egen", v.peg, commitStatus(v.eu),
		func(i int) float64 { return s.ExistConv[i].PMin },
		func(i int) float64 { return s.ExistConv[i].PMax })
	gated("rea_cgen", v.qcg, commitStatus(v.cu),
		func(i int) float64 { return s.CandConv[i].QMin },
		func(i int) float64 { return s.CandConv[i].QMax })
	gated("rea_egen", v.qeg, commitStatus(v.eu),
		func(i int) float64 { return s.ExistConv[i].QMin },
		func(i int) float64 { return s.ExistConv[i].QMax })

	// Renewable active minimums and reactive bands; the active maxima are
	// the availability constraints below.
	gated("act_csol", v.pcs, investStatus(v.xs),
		func(i int) float64 { return s.CandSolar[i].PMin },
		func(i int) float64 { return s.CandSolar[i].PMax })
	gated("rea_csol", v.qcs, investStatus(v.xs),
		func(i int) float64 { return s.CandSolar[i].QMin },
		func(i int) float64 { return s.CandSolar[i].QMax })
	gated("rea_esol", v.qes, existing,
		func(i int) float64 { return s.ExistSolar[i].QMin },
		func(i int) float64 { return s.ExistSolar[i].QMax })
	gated("act_cwin", v.pcw, investStatus(v.xw),
		func(i int) float64 { return s.CandWind[i].PMin },
		func(i int) float64 { return s.CandWind[i].PMax })
	gated("rea_cwin", v.qcw, investStatus(v.xw),
		func(i int) float64 { return s.CandWind[i].QMin },
		func(i int) float64 { return s.CandWind[i].QMax })
	gated("rea_ewin", v.qew, existing,
		func(i int) float64 { return s.ExistWind[i].QMin },
		func(i int) float64 { return s.ExistWind[i].QMax })

	// Existing renewable active minimums.
	for i, u := range s.ExistSolar {
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				var e milp.Expr
				e.Add(v.pes[i][t][o], 1)
				p.m.AddConstraint(fmt.Sprintf("min_act_esol_%d_%d_%d", i, t, o), e, milp.GE, u.PMin)
			}
		}
	}
	for i, u := range s.ExistWind {
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				var e milp.Expr
				e.Add(v.pew[i][t][o], 1)
				p.m.AddConstraint(fmt.Sprintf("min_act_ewin_%d_%d_%d", i, t, o), e, milp.GE, u.PMin)
			}
		}
	}

	// Availability caps on renewable dispatch per (period, scenario).
	avail := func(name string, x [][][]int, status []int, av [][]float64) {
		for i := range x {
			for t := 0; t < nt; t++ {
				for o := 0; o < no; o++ {
					var e milp.Expr
					e.Add(x[i][t][o], 1)
					if status != nil {
						e.Add(status[i], -av[t][o])
						p.m.AddConstraint(fmt.Sprintf("avail_%s_%d_%d_%d", name, i, t, o), e, milp.LE, 0)
					} else {
						p.m.AddConstraint(fmt.Sprintf("avail_%s_%d_%d_%d", name, i, t, o), e, milp.LE, av[t][o])
					}
				}
			}
		}
	}
	avail("csol", v.pcs, v.xs, s.SolarAvail)
	avail("esol", v.pes, nil, s.SolarAvail)
	avail("cwin", v.pcw, v.xw, s.WindAvail)
	avail("ewin", v.pew, nil, s.WindAvail)

	// Battery charge/discharge/reactive bounds, gated by investment.
	gated("cbat", v.pbc, investStatus(v.xb),
		func(i int) float64 { return s.Batteries[i].PMin },
		func(i int) float64 { return s.Batteries[i].PMax })
	gated("dbat", v.pbd, investStatus(v.xb),
		func(i int) float64 { return s.Batteries[i].PMin },
		func(i int) float64 { return s.Batteries[i].PMax })
	gated("rea_bat", v.qbd, investStatus(v.xb),
		func(i int) float64 { return s.Batteries[i].QMin },
		func(i int) float64 { return s.Batteries[i].QMax })
}

// addBatteryConstraints tracks state of charge recursively per step and
// closes the cycle within each scenario. The recursive form is
// feasibility-equivalent to a running sum over all preceding periods but
// keeps the constraint count linear in the horizon.
func (p *Plan) addBatteryConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()

	for i, b := range s.Batteries {
		for o := 0; o < no; o++ {
			for t := 0; t < nt; t++ {
				var step milp.Expr
				step.Add(v.soc[i][t][o], 1)
				step.Add(v.pbc[i][t][o], -b.ChargeEff)
				step.Add(v.pbd[i][t][o], 1/b.DischargeEff)
				if t == 0 {
					step.Add(v.xb[i], -b.EIni)
				} else {
					step.Add(v.soc[i][t-1][o], -1)
				}
				p.m.AddConstraint(fmt.Sprintf("soc_step_%d_%d_%d", i, t, o), step, milp.EQ, 0)

				var lo, hi milp.Expr
				lo.Add(v.soc[i][t][o], 1)
				lo.Add(v.xb[i], -b.EMin)
				p.m.AddConstraint(fmt.Sprintf("soc_min_%d_%d_%d", i, t, o), lo, milp.GE, 0)
				hi.Add(v.soc[i][t][o], 1)
				hi.Add(v.xb[i], -b.EMax)
				p.m.AddConstraint(fmt.Sprintf("soc_max_%d_%d_%d", i, t, o), hi, milp.LE, 0)
			}

			// Closed cycle: charged and discharged energy match over the
			// horizon, independently in every scenario.
			var cyc milp.Expr
			for t := 0; t < nt; t++ {
				cyc.Add(v.pbc[i][t][o], b.ChargeEff)
				cyc.Add(v.pbd[i][t][o], -1/b.DischargeEff)
			}
			p.m.AddConstraint(fmt.Sprintf("soc_cycle_%d_%d", i, o), cyc, milp.EQ, 0)
		}
	}
}

// addCurtailmentConstraints pins curtailment at each bus to available
// renewable power minus dispatched power. Curtailment is fully determined,
// not a free decision.
func (p *Plan) addCurtailmentConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()

	kind := func(name string, curt [][][]int, cand, exist [][][]int, status []int,
		candBus, existBus func(i int) int, av [][]float64) {
		for b := 0; b < s.Buses(); b++ {
			for t := 0; t < nt; t++ {
				for o := 0; o < no; o++ {
					var e milp.Expr
					e.Add(curt[b][t][o], 1)
					rhs := 0.0
					for i := range cand {
						if candBus(i) == b {
							e.Add(status[i], -av[t][o])
							e.Add(cand[i][t][o], 1)
						}
					}
					for i := range exist {
						if existBus(i) == b {
							rhs += av[t][o]
							e.Add(exist[i][t][o], 1)
						}
					}
					p.m.AddConstraint(fmt.Sprintf("curt_%s_%d_%d_%d", name, b, t, o), e, milp.EQ, rhs)
				}
			}
		}
	}
	kind("sol", v.pss, v.pcs, v.pes, v.xs,
		func(i int) int { return s.CandSolar[i].Bus },
		func(i int) int { return s.ExistSolar[i].Bus },
		s.SolarAvail)
	kind("win", v.pws, v.pcw, v.pew, v.xw,
		func(i int) int { return s.CandWind[i].Bus },
		func(i int) int { return s.ExistWind[i].Bus },
		s.WindAvail)
}

// addNetworkConstraints applies the linearized flow relation, thermal
// limits and the reference bus voltage pin.
func (p *Plan) addNetworkConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()

	for l, ln := range s.Lines {
		inService := 0.0
		if ln.InService {
			inService = 1
		}
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				// Voltage drop equals R*P + X*Q along the line.
				var drop milp.Expr
				drop.Add(v.vol[ln.From][t][o], 1)
				drop.Add(v.vol[ln.To][t][o], -1)
				drop.Add(v.pel[l][t][o], -ln.Res)
				drop.Add(v.qel[l][t][o], -ln.Rea)
				p.m.AddConstraint(fmt.Sprintf("flow_%d_%d_%d", l, t, o), drop, milp.EQ, 0)

				limit := func(name string, id int, lim float64) {
					var up, dn milp.Expr
					up.Add(id, 1)
					p.m.AddConstraint(fmt.Sprintf("max_%s_%d_%d_%d", name, l, t, o), up, milp.LE, lim*inService)
					dn.Add(id, 1)
					p.m.AddConstraint(fmt.Sprintf("min_%s_%d_%d_%d", name, l, t, o), dn, milp.GE, -lim*inService)
				}
				limit("pel", v.pel[l][t][o], ln.PMax)
				limit("qel", v.qel[l][t][o], ln.QMax)
			}
		}
	}

	for t := 0; t < nt; t++ {
		for o := 0; o < no; o++ {
			var ref milp.Expr
			ref.Add(v.vol[p.opts.RefBus][t][o], 1)
			p.m.AddConstraint(fmt.Sprintf("vol_ref_%d_%d", t, o), ref, milp.EQ, 1)
		}
	}
}

// addInvestmentConstraints couples commitment to investment and, when the
// policy toggle is on, caps battery installations by renewable ones.
func (p *Plan) addInvestmentConstraints() {
	s, v := p.sys, &p.vars
	nt, no := p.dims()

	for i := range s.CandConv {
		for t := 0; t < nt; t++ {
			for o := 0; o < no; o++ {
				var e milp.Expr
				e.Add(v.cu[i][t][o], 1)
				e.Add(v.xg[i], -1)
				p.m.AddConstraint(fmt.Sprintf("commit_invest_%d_%d_%d", i, t, o), e, milp.LE, 0)
			}
		}
	}

	if p.opts.CoupleBatteryToRenewables && len(s.Batteries) > 0 {
		var e milp.Expr
		for i := range s.Batteries {
			e.Add(v.xb[i], 1)
		}
		for i := range s.CandSolar {
			e.Add(v.xs[i], -1)
		}
		for i := range s.CandWind {
			e.Add(v.xw[i], -1)
		}
		p.m.AddConstraint("bat_renewable_cap", e, milp.LE, 0)
	}
}
