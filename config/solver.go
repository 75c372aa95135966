package config

import (
	"fmt"

	"github.com/enersys/microplan/infra/solver/remote"
)

// SolverConfig selects and parameterizes the solver backend.
type SolverConfig struct {
	// Backend is one of "simplex", "cbc" or "remote".
	Backend string `json:"backend"`
	// TimeoutS bounds the whole solve, zero means no limit.
	TimeoutS int `json:"timeout_s"`
	// CBCPath overrides the cbc executable location.
	CBCPath string `json:"cbc_path"`
	// CBCVerbose forwards solver chatter to stdout.
	CBCVerbose bool `json:"cbc_verbose"`
	// Remote configures the HTTP solve service backend.
	Remote remote.Config `json:"remote"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "simplex"
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	switch c.Backend {
	case "simplex", "cbc":
	case "remote":
		if c.Remote.URL == "" {
			return fmt.Errorf("remote backend requires remote.url")
		}
	default:
		return fmt.Errorf("unknown solver backend %q", c.Backend)
	}
	if c.TimeoutS < 0 {
		return fmt.Errorf("timeout_s must be nonnegative, got %d", c.TimeoutS)
	}
	return nil
}
