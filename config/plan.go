package config

import (
	"fmt"

	"github.com/enersys/microplan/core/plan"
)

// PlanConfig exposes the model-building knobs.
type PlanConfig struct {
	RefBus         int     `json:"ref_bus"`
	PhaseCount     int     `json:"phase_count"`
	VMin           float64 `json:"vmin"`
	VMax           float64 `json:"vmax"`
	DemandShedCost float64 `json:"demand_shed_cost"`
	RenewShedCost  float64 `json:"renew_shed_cost"`
	ScalingFactor  float64 `json:"scaling_factor"`
	InvestBinary   bool    `json:"invest_binary"`
	CommitBinary   bool    `json:"commit_binary"`
	OperationOnly  bool    `json:"operation_only"`
	// Shedding is one of "fractional", "blackout" or "disabled".
	Shedding        string `json:"shedding"`
	CoupleBatteries bool   `json:"couple_batteries"`
}

// SetDefaults fills unset numeric fields from the customary planning
// settings.
func (c *PlanConfig) SetDefaults() {
	def := plan.DefaultOptions()
	if c.PhaseCount == 0 {
		c.PhaseCount = def.PhaseCount
	}
	if c.VMin == 0 {
		c.VMin = def.VMin
	}
	if c.VMax == 0 {
		c.VMax = def.VMax
	}
	if c.DemandShedCost == 0 {
		c.DemandShedCost = def.DemandShedCost
	}
	if c.RenewShedCost == 0 {
		c.RenewShedCost = def.RenewShedCost
	}
	if c.ScalingFactor == 0 {
		c.ScalingFactor = def.ScalingFactor
	}
}

// Validate checks the fields that do not need the study dimensions.
func (c PlanConfig) Validate() error {
	if _, err := plan.ParseShedMode(c.Shedding); err != nil {
		return err
	}
	if c.PhaseCount < 1 {
		return fmt.Errorf("phase_count must be at least 1, got %d", c.PhaseCount)
	}
	return nil
}

// Options converts the section into build options.
func (c PlanConfig) Options() (plan.Options, error) {
	mode, err := plan.ParseShedMode(c.Shedding)
	if err != nil {
		return plan.Options{}, err
	}
	return plan.Options{
		RefBus:                    c.RefBus,
		PhaseCount:                c.PhaseCount,
		VMin:                      c.VMin,
		VMax:                      c.VMax,
		DemandShedCost:            c.DemandShedCost,
		RenewShedCost:             c.RenewShedCost,
		ScalingFactor:             c.ScalingFactor,
		InvestBinary:              c.InvestBinary,
		CommitBinary:              c.CommitBinary,
		OperationOnly:             c.OperationOnly,
		Shedding:                  mode,
		CoupleBatteryToRenewables: c.CoupleBatteries,
	}, nil
}
