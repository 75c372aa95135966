// Package model holds the asset, network and scenario data one planning
// study operates on. Entities are read-only after load; all power and
// energy quantities are expressed in per-unit of a single base power.
package model

// Unit describes a dispatchable generating unit. The same shape covers
// conventional generators, solar and wind units, both candidate and
// existing: candidates carry an investment cost, existing units do not.
type Unit struct {
	Bus        int
	PMin, PMax float64
	QMin, QMax float64
	// InvestCost is the investment cost per unit of nameplate capacity.
	// Zero for existing units.
	InvestCost float64
	// OperCost is the operating cost per unit of dispatched energy.
	OperCost float64
}

// Battery describes a candidate storage unit.
type Battery struct {
	Bus              int
	EMin, EMax, EIni float64
	PMin, PMax       float64
	QMin, QMax       float64
	// ChargeEff and DischargeEff are the charge/discharge efficiencies
	// in (0,1].
	ChargeEff    float64
	DischargeEff float64
	InvestCost   float64
}

// Line is a branch of the distribution network.
type Line struct {
	From, To  int
	InService bool
	Res, Rea  float64
	// PMax and QMax are the thermal limits on active and reactive flow.
	PMax, QMax float64
}

// System aggregates all tables of one planning study. Matrices indexed
// period × bus or period × scenario are stored row-major by period.
type System struct {
	CandConv  []Unit
	ExistConv []Unit

	CandSolar  []Unit
	ExistSolar []Unit

	CandWind  []Unit
	ExistWind []Unit

	Batteries []Battery

	Lines []Line

	// DemandP and DemandQ are baseline active/reactive demand, period × bus.
	DemandP [][]float64
	DemandQ [][]float64

	// MultP and MultQ are scenario multipliers on demand, period × scenario.
	MultP [][]float64
	MultQ [][]float64

	// SolarAvail and WindAvail are available renewable power per
	// (period, scenario), already in per-unit.
	SolarAvail [][]float64
	WindAvail  [][]float64

	// Durations weights each scenario by its share of the horizon.
	Durations []float64

	// BasePower is the value all power quantities were divided by at load.
	BasePower float64
}

// Buses returns the number of network buses.
func (s *System) Buses() int {
	if len(s.DemandP) == 0 {
		return 0
	}
	return len(s.DemandP[0])
}

// Periods returns the number of representative periods.
func (s *System) Periods() int { return len(s.MultP) }

// Scenarios returns the number of weighted scenarios.
func (s *System) Scenarios() int { return len(s.Durations) }
