package config

import "fmt"

// StudyConfig locates the input study and the results destination.
type StudyConfig struct {
	// DataDir holds the study CSV tables.
	DataDir string `json:"data_dir"`
	// ResultsDir receives the result CSV files.
	ResultsDir string `json:"results_dir"`
	// BasePowerKVA converts unit ratings to per-unit values.
	BasePowerKVA float64 `json:"base_power_kva"`
}

// SetDefaults applies sane defaults.
func (c *StudyConfig) SetDefaults() {
	if c.ResultsDir == "" {
		c.ResultsDir = "results"
	}
	if c.BasePowerKVA == 0 {
		c.BasePowerKVA = 1000
	}
}

// Validate checks mandatory fields.
func (c StudyConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("study data_dir is required")
	}
	if c.BasePowerKVA <= 0 {
		return fmt.Errorf("base power must be positive, got %g", c.BasePowerKVA)
	}
	return nil
}
