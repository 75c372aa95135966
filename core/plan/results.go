package plan

import (
	"errors"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/enersys/microplan/core/solver"
)

// ErrNoResults is returned when results are requested before a
// successful solve.
var ErrNoResults = errors.New("plan: no results available, run a successful solve first")

// Table is one reshaped variable group: a row per (period, scenario) pair
// with the scenario varying fastest, and a column per unit. Investment
// tables carry a single row.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]float64
}

// Results holds the solved study, immutable once extracted.
type Results struct {
	RunID     string
	Status    solver.Status
	Objective float64
	Invest    float64
	Operation float64
	Shedding  float64

	InvestConv    Table
	InvestSolar   Table
	InvestWind    Table
	InvestBattery Table

	CandCommit  Table
	ExistCommit Table

	CandConvP  Table
	CandConvQ  Table
	ExistConvP Table
	ExistConvQ Table

	CandSolarP  Table
	CandSolarQ  Table
	ExistSolarP Table
	ExistSolarQ Table

	CandWindP  Table
	CandWindQ  Table
	ExistWindP Table
	ExistWindQ Table

	BatteryCharge    Table
	BatteryDischarge Table
	BatteryReactive  Table

	DemandShed Table
	SolarCurt  Table
	WindCurt   Table

	Voltage Table
	FlowP   Table
	FlowQ   Table

	// Nameplate capacities and bus locations retained for the installed
	// capacity accessors, rescaled out of per-unit.
	convCap, solarCap, windCap, batCap []capInfo
}

type capInfo struct {
	bus      int
	capacity float64
}

// CapacityRow reports the installed capacity of one candidate unit.
type CapacityRow struct {
	Unit     int
	Bus      int
	Capacity float64
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Extract reshapes a backend solution into Results. Operational values are
// rounded to six decimal digits; investment decisions are reported as
// returned by the backend.
func (p *Plan) Extract(sol *solver.Solution) *Results {
	s, v := p.sys, &p.vars
	r := &Results{
		RunID:     uuid.NewString(),
		Status:    sol.Status,
		Objective: round6(sol.Objective),
		Invest:    round6(p.invExpr.Eval(sol.Values)),
		Operation: round6(p.oprExpr.Eval(sol.Values)),
		Shedding:  round6(p.shedExpr.Eval(sol.Values)),
	}

	r.InvestConv = p.investTable("xg", v.xg, sol)
	r.InvestSolar = p.investTable("xs", v.xs, sol)
	r.InvestWind = p.investTable("xw", v.xw, sol)
	r.InvestBattery = p.investTable("xb", v.xb, sol)

	r.CandCommit = p.operTable("cu", v.cu, sol)
	r.ExistCommit = p.operTable("eu", v.eu, sol)

	r.CandConvP = p.operTable("pcg", v.pcg, sol)
	r.CandConvQ = p.operTable("qcg", v.qcg, sol)
	r.ExistConvP = p.operTable("peg", v.peg, sol)
	r.ExistConvQ = p.operTable("qeg", v.qeg, sol)

	r.CandSolarP = p.operTable("pcs", v.pcs, sol)
	r.CandSolarQ = p.operTable("qcs", v.qcs, sol)
	r.ExistSolarP = p.operTable("pes", v.pes, sol)
	r.ExistSolarQ = p.operTable("qes", v.qes, sol)

	r.CandWindP = p.operTable("pcw", v.pcw, sol)
	r.CandWindQ = p.operTable("qcw", v.qcw, sol)
	r.ExistWindP = p.operTable("pew", v.pew, sol)
	r.ExistWindQ = p.operTable("qew", v.qew, sol)

	r.BatteryCharge = p.operTable("pbc", v.pbc, sol)
	r.BatteryDischarge = p.operTable("pbd", v.pbd, sol)
	r.BatteryReactive = p.operTable("qcd", v.qbd, sol)

	r.DemandShed = p.operTable("pds", v.pds, sol)
	r.SolarCurt = p.operTable("pss", v.pss, sol)
	r.WindCurt = p.operTable("pws", v.pws, sol)

	r.Voltage = p.operTable("vol", v.vol, sol)
	r.FlowP = p.operTable("pel", v.pel, sol)
	r.FlowQ = p.operTable("qel", v.qel, sol)

	for _, u := range s.CandConv {
		r.convCap = append(r.convCap, capInfo{bus: u.Bus, capacity: u.PMax * s.BasePower})
	}
	for _, u := range s.CandSolar {
		r.solarCap = append(r.solarCap, capInfo{bus: u.Bus, capacity: u.PMax * s.BasePower})
	}
	for _, u := range s.CandWind {
		r.windCap = append(r.windCap, capInfo{bus: u.Bus, capacity: u.PMax * s.BasePower})
	}
	for _, b := range s.Batteries {
		r.batCap = append(r.batCap, capInfo{bus: b.Bus, capacity: b.PMax * s.BasePower})
	}
	return r
}

func (p *Plan) investTable(name string, ids []int, sol *solver.Solution) Table {
	t := Table{Name: name, Columns: make([]string, len(ids))}
	row := make([]float64, len(ids))
	for i, id := range ids {
		t.Columns[i] = strconv.Itoa(i)
		row[i] = sol.Value(id)
	}
	t.Rows = [][]float64{row}
	return t
}

func (p *Plan) operTable(name string, ids [][][]int, sol *solver.Solution) Table {
	nt, no := p.dims()
	t := Table{Name: name, Columns: make([]string, len(ids))}
	for i := range ids {
		t.Columns[i] = strconv.Itoa(i)
	}
	t.Rows = make([][]float64, 0, nt*no)
	for tt := 0; tt < nt; tt++ {
		for o := 0; o < no; o++ {
			row := make([]float64, len(ids))
			for i := range ids {
				row[i] = round6(sol.Value(ids[i][tt][o]))
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func installed(caps []capInfo, invest Table) []CapacityRow {
	out := make([]CapacityRow, len(caps))
	for i, c := range caps {
		out[i] = CapacityRow{Unit: i, Bus: c.bus, Capacity: c.capacity * invest.Rows[0][i]}
	}
	return out
}

// InstalledConv returns installed conventional capacity per candidate unit.
func (r *Results) InstalledConv() []CapacityRow { return installed(r.convCap, r.InvestConv) }

// InstalledSolar returns installed solar capacity per candidate unit.
func (r *Results) InstalledSolar() []CapacityRow { return installed(r.solarCap, r.InvestSolar) }

// InstalledWind returns installed wind capacity per candidate unit.
func (r *Results) InstalledWind() []CapacityRow { return installed(r.windCap, r.InvestWind) }

// InstalledBattery returns installed battery power capacity per candidate unit.
func (r *Results) InstalledBattery() []CapacityRow { return installed(r.batCap, r.InvestBattery) }

// CurtailmentSummary groups the shedding and curtailment tables.
type CurtailmentSummary struct {
	DemandShed Table
	SolarCurt  Table
	WindCurt   Table
}

// Curtailment returns the shedding and curtailment tables.
func (r *Results) Curtailment() CurtailmentSummary {
	return CurtailmentSummary{DemandShed: r.DemandShed, SolarCurt: r.SolarCurt, WindCurt: r.WindCurt}
}

// OperationalTables lists every per-(period,scenario) table in a stable
// order, keyed by its output file stem.
func (r *Results) OperationalTables() []Table {
	return []Table{
		r.CandCommit, r.ExistCommit,
		r.CandConvP, r.CandConvQ, r.ExistConvP, r.ExistConvQ,
		r.CandSolarP, r.CandSolarQ, r.ExistSolarP, r.ExistSolarQ,
		r.CandWindP, r.CandWindQ, r.ExistWindP, r.ExistWindQ,
		r.BatteryCharge, r.BatteryDischarge, r.BatteryReactive,
		r.DemandShed, r.SolarCurt, r.WindCurt,
		r.Voltage, r.FlowP, r.FlowQ,
	}
}

// InvestmentTables lists the one-row investment tables.
func (r *Results) InvestmentTables() []Table {
	return []Table{r.InvestConv, r.InvestSolar, r.InvestWind, r.InvestBattery}
}
