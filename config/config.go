// Package config loads and validates the planner configuration from YAML
// or JSON files, with environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/enersys/microplan/infra/metrics"
)

type Config struct {
	Study   StudyConfig    `json:"study"`
	Plan    PlanConfig     `json:"plan"`
	Solver  SolverConfig   `json:"solver"`
	Metrics metrics.Config `json:"metrics"`
	API     APIConfig      `json:"api"`
}

// Load reads the file at path, applies MP_-prefixed environment
// overrides (MP_SOLVER__BACKEND=cbc sets solver.backend) and validates
// every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("MP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "mp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Study.SetDefaults()
	cfg.Plan.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Study.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Plan.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
