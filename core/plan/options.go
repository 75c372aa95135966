package plan

import "fmt"

// ShedMode selects how demand shedding enters the model. The reference
// formulations disagreed between a fractional multiplier and an
// all-or-nothing blackout flag, so the choice is an explicit knob rather
// than being tied to the commitment flag.
type ShedMode int

const (
	// ShedFractional models shedding as a continuous fraction of bus
	// demand in [0,1].
	ShedFractional ShedMode = iota
	// ShedBlackout models shedding as a binary all-or-nothing decision
	// per (bus, period, scenario).
	ShedBlackout
	// ShedDisabled removes shedding entirely: demand must be served.
	ShedDisabled
)

func (m ShedMode) String() string {
	switch m {
	case ShedFractional:
		return "fractional"
	case ShedBlackout:
		return "blackout"
	case ShedDisabled:
		return "disabled"
	}
	return "unknown"
}

// ParseShedMode converts a configuration string into a ShedMode.
func ParseShedMode(s string) (ShedMode, error) {
	switch s {
	case "", "fractional":
		return ShedFractional, nil
	case "blackout":
		return ShedBlackout, nil
	case "disabled":
		return ShedDisabled, nil
	}
	return 0, fmt.Errorf("unknown shedding mode %q", s)
}

// Options configures one model build.
type Options struct {
	// RefBus is the bus whose voltage is fixed to 1.0 per-unit.
	RefBus int
	// PhaseCount divides injections and demand in the per-phase balance.
	PhaseCount int
	// VMin and VMax bound bus voltage magnitude in per-unit.
	VMin, VMax float64
	// DemandShedCost and RenewShedCost penalize shedding and curtailment
	// in the operating cost.
	DemandShedCost float64
	RenewShedCost  float64
	// ScalingFactor scales both cost components of the objective.
	ScalingFactor float64
	// InvestBinary makes investment decisions 0/1 instead of relaxed [0,1].
	InvestBinary bool
	// CommitBinary makes conventional commitment 0/1 instead of relaxed [0,1].
	CommitBinary bool
	// OperationOnly fixes every investment decision to zero.
	OperationOnly bool
	// Shedding selects the demand shedding formulation.
	Shedding ShedMode
	// CoupleBatteryToRenewables caps the total battery investment count by
	// the total solar plus wind investment count. A sizing policy, not a
	// physical law; off by default.
	CoupleBatteryToRenewables bool
}

// DefaultOptions mirrors the customary planning settings: three-phase
// balance, wide voltage band, prohibitive demand shedding cost.
func DefaultOptions() Options {
	return Options{
		RefBus:         0,
		PhaseCount:     3,
		VMin:           0.85,
		VMax:           1.15,
		DemandShedCost: 1e6,
		RenewShedCost:  500,
		ScalingFactor:  1,
		Shedding:       ShedFractional,
	}
}

func (o Options) validate(buses int) error {
	if o.RefBus < 0 || o.RefBus >= buses {
		return fmt.Errorf("reference bus %d out of range [0,%d)", o.RefBus, buses)
	}
	if o.PhaseCount < 1 {
		return fmt.Errorf("phase count must be at least 1, got %d", o.PhaseCount)
	}
	if o.VMin > o.VMax {
		return fmt.Errorf("vmin %g above vmax %g", o.VMin, o.VMax)
	}
	if o.VMin > 1 || o.VMax < 1 {
		return fmt.Errorf("voltage band [%g,%g] excludes the 1.0 reference value", o.VMin, o.VMax)
	}
	if o.ScalingFactor <= 0 {
		return fmt.Errorf("scaling factor must be positive, got %g", o.ScalingFactor)
	}
	if o.DemandShedCost < 0 || o.RenewShedCost < 0 {
		return fmt.Errorf("shedding costs must be nonnegative")
	}
	return nil
}
