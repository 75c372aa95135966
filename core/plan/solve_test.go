package plan

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/enersys/microplan/core/model"
	"github.com/enersys/microplan/core/solver"
	"github.com/enersys/microplan/infra/solver/simplex"
)

func solveStudy(t *testing.T, sys *model.System, o Options) *Results {
	t.Helper()
	st, err := NewStudy(sys, o, nil)
	if err != nil {
		t.Fatalf("new study: %v", err)
	}
	r, err := st.Solve(context.Background(), simplex.New(nil))
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return r
}

func TestSolveSingleBusDispatch(t *testing.T) {
	sys := &model.System{
		ExistConv:  []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 5}},
		DemandP:    [][]float64{{6}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	r := solveStudy(t, sys, options())

	if r.Status != solver.StatusOptimal {
		t.Fatalf("unexpected status %v", r.Status)
	}
	if math.Abs(r.Objective-30) > 1e-6 {
		t.Errorf("objective: got %g want 30", r.Objective)
	}
	if r.Invest != 0 {
		t.Errorf("no candidates, investment cost should be zero, got %g", r.Invest)
	}
	if got := r.ExistConvP.Rows[0][0]; math.Abs(got-6) > 1e-6 {
		t.Errorf("dispatch: got %g want 6", got)
	}
	if got := r.DemandShed.Rows[0][0]; got != 0 {
		t.Errorf("shedding should be zero, got %g", got)
	}
}

func TestSolveInfeasibleWhenLineLimited(t *testing.T) {
	sys := &model.System{
		ExistConv: []model.Unit{{Bus: 0, PMax: 20, QMax: 20, OperCost: 5}},
		Lines: []model.Line{{
			From: 0, To: 1, InService: true,
			Res: 0.001, Rea: 0.001, PMax: 5, QMax: 5,
		}},
		DemandP:    [][]float64{{0, 8}},
		DemandQ:    [][]float64{{0, 0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	o := options()
	o.Shedding = ShedDisabled

	st, err := NewStudy(sys, o, nil)
	if err != nil {
		t.Fatalf("new study: %v", err)
	}
	_, err = st.Solve(context.Background(), simplex.New(nil))
	if !errors.Is(err, solver.ErrInfeasible) {
		t.Fatalf("expected infeasible, got %v", err)
	}
	if _, err := st.Results(); !errors.Is(err, ErrNoResults) {
		t.Errorf("failed solve must not record results")
	}
}

func TestSolveOperationOnlyIgnoresCandidates(t *testing.T) {
	sys := &model.System{
		ExistConv:  []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 5}},
		CandConv:   []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 1, InvestCost: 1}},
		DemandP:    [][]float64{{6}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	o := options()
	o.OperationOnly = true
	r := solveStudy(t, sys, o)

	if got := r.CandConvP.Rows[0][0]; got != 0 {
		t.Errorf("candidate dispatch should be zero in operation mode, got %g", got)
	}
	if got := r.InvestConv.Rows[0][0]; got != 0 {
		t.Errorf("investment should be zero in operation mode, got %g", got)
	}
	if math.Abs(r.Objective-30) > 1e-6 {
		t.Errorf("objective: got %g want 30", r.Objective)
	}
}

// minFloorSystem pairs a cheap candidate with a commitment floor against
// an expensive existing unit, under demand below the candidate's floor.
// The default shedding penalty keeps million-sized coefficients in the
// objective next to unit costs.
func minFloorSystem() *model.System {
	return &model.System{
		ExistConv:  []model.Unit{{Bus: 0, PMin: 2, PMax: 10, QMax: 10, OperCost: 9}},
		CandConv:   []model.Unit{{Bus: 0, PMin: 3, PMax: 10, QMax: 10, OperCost: 1, InvestCost: 1}},
		DemandP:    [][]float64{{2}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
}

func TestSolveRelaxedCommitmentScalesMinimum(t *testing.T) {
	r := solveStudy(t, minFloorSystem(), options())

	// Relaxed commitment lets the candidate carry all demand at a
	// fractional status: cu = xg = 2/10, cost 10*0.2 + 1*2.
	if math.Abs(r.Objective-4) > 1e-6 {
		t.Errorf("objective: got %g want 4", r.Objective)
	}
	pcg := r.CandConvP.Rows[0][0]
	if math.Abs(pcg-2) > 1e-6 {
		t.Errorf("candidate dispatch: got %g want 2", pcg)
	}
	if got := r.InvestConv.Rows[0][0]; math.Abs(got-0.2) > 1e-6 {
		t.Errorf("investment: got %g want 0.2", got)
	}
	if cu := r.CandCommit.Rows[0][0]; pcg+1e-6 < 3*cu {
		t.Errorf("dispatch %g below scaled floor %g", pcg, 3*cu)
	}
	if got := r.ExistConvP.Rows[0][0]; got != 0 {
		t.Errorf("existing dispatch should be zero, got %g", got)
	}
}

func TestSolveBinaryCommitmentHoldsMinimum(t *testing.T) {
	o := options()
	o.CommitBinary = true
	r := solveStudy(t, minFloorSystem(), o)

	// Demand sits below the candidate's floor, so committing it would
	// overshoot the balance. The existing unit runs instead, committed
	// at exactly its own minimum output.
	if math.Abs(r.Objective-18) > 1e-6 {
		t.Errorf("objective: got %g want 18", r.Objective)
	}
	if got := r.ExistCommit.Rows[0][0]; got != 1 {
		t.Errorf("existing commitment: got %g want 1", got)
	}
	if got := r.ExistConvP.Rows[0][0]; math.Abs(got-2) > 1e-6 {
		t.Errorf("existing dispatch: got %g want 2", got)
	}
	if got := r.CandCommit.Rows[0][0]; got != 0 {
		t.Errorf("candidate commitment: got %g want 0", got)
	}
	if got := r.CandConvP.Rows[0][0]; math.Abs(got) > 1e-6 {
		t.Errorf("candidate dispatch: got %g want 0", got)
	}
}

func TestSolveBalanceResidualIsZero(t *testing.T) {
	p, err := Build(smallSystem(), options())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sol, err := simplex.New(nil).Solve(context.Background(), p.Model())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	checked := 0
	for _, c := range p.Model().Constraints() {
		if !strings.HasPrefix(c.Name, "act_bal_") && !strings.HasPrefix(c.Name, "rea_bal_") {
			continue
		}
		if res := c.Expr.Eval(sol.Values) - c.RHS; math.Abs(res) > 1e-6 {
			t.Errorf("%s: residual %g", c.Name, res)
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("no balance rows found")
	}
}

func TestSolveBatteryShiftsEnergyAndClosesCycle(t *testing.T) {
	sys := &model.System{
		ExistConv: []model.Unit{{Bus: 0, PMax: 4, QMax: 4, OperCost: 5}},
		Batteries: []model.Battery{{
			Bus: 0, EMax: 5, PMax: 2,
			ChargeEff: 0.9, DischargeEff: 0.9,
		}},
		DemandP:    [][]float64{{1}, {5}},
		DemandQ:    [][]float64{{0}, {0}},
		MultP:      [][]float64{{1}, {1}},
		MultQ:      [][]float64{{1}, {1}},
		SolarAvail: [][]float64{{0}, {0}},
		WindAvail:  [][]float64{{0}, {0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	r := solveStudy(t, sys, options())

	// The peak period exceeds the generator limit, so the battery must
	// discharge exactly the shortfall.
	if got := r.ExistConvP.Rows[1][0]; math.Abs(got-4) > 1e-6 {
		t.Errorf("peak dispatch: got %g want 4", got)
	}
	if got := r.BatteryDischarge.Rows[1][0]; math.Abs(got-1) > 1e-6 {
		t.Errorf("peak discharge: got %g want 1", got)
	}

	var in, out float64
	for tt := 0; tt < 2; tt++ {
		in += 0.9 * r.BatteryCharge.Rows[tt][0]
		out += r.BatteryDischarge.Rows[tt][0] / 0.9
	}
	if math.Abs(in-out) > 1e-6 {
		t.Errorf("cycle not closed: stored %g released %g", in, out)
	}

	want := 5 * (6 + (1/0.81-1)) // extra generation covers round-trip losses
	if math.Abs(r.Objective-want) > 1e-3 {
		t.Errorf("objective: got %g want %g", r.Objective, want)
	}
}

func TestSolveCurtailmentIsDetermined(t *testing.T) {
	sys := &model.System{
		ExistSolar: []model.Unit{{Bus: 0, PMax: 3}},
		DemandP:    [][]float64{{1}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{2}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	r := solveStudy(t, sys, options())

	// pes - pss = demand and pss = avail - pes pin both values.
	if got := r.ExistSolarP.Rows[0][0]; math.Abs(got-1.5) > 1e-6 {
		t.Errorf("solar dispatch: got %g want 1.5", got)
	}
	if got := r.SolarCurt.Rows[0][0]; math.Abs(got-0.5) > 1e-6 {
		t.Errorf("solar curtailment: got %g want 0.5", got)
	}
	if math.Abs(r.Shedding-250) > 1e-6 {
		t.Errorf("shedding cost: got %g want 250", r.Shedding)
	}
}

func TestSolveBinaryInvestmentCoupling(t *testing.T) {
	sys := &model.System{
		ExistConv:  []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 10}},
		CandConv:   []model.Unit{{Bus: 0, PMax: 10, QMax: 10, OperCost: 1, InvestCost: 1}},
		DemandP:    [][]float64{{6}},
		DemandQ:    [][]float64{{0}},
		MultP:      [][]float64{{1}},
		MultQ:      [][]float64{{1}},
		SolarAvail: [][]float64{{0}},
		WindAvail:  [][]float64{{0}},
		Durations:  []float64{1},
		BasePower:  1,
	}
	o := options()
	o.InvestBinary = true
	r := solveStudy(t, sys, o)

	if got := r.InvestConv.Rows[0][0]; got != 1 {
		t.Errorf("investment decision: got %g want 1", got)
	}
	if got := r.CandConvP.Rows[0][0]; math.Abs(got-6) > 1e-6 {
		t.Errorf("candidate dispatch: got %g want 6", got)
	}
	if cu, xg := r.CandCommit.Rows[0][0], r.InvestConv.Rows[0][0]; cu > xg+1e-6 {
		t.Errorf("commitment %g exceeds investment %g", cu, xg)
	}
	if math.Abs(r.Objective-16) > 1e-6 {
		t.Errorf("objective: got %g want 16", r.Objective)
	}
}
