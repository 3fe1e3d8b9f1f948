// Package isoconfig provides the YAML-backed configuration shared by
// the toolkit's CLI binaries, following the teacher's pkg/dungeon
// config pattern: a single struct with yaml tags, a deterministic
// Hash() digest, and an explicit Validate().
package isoconfig

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SizeCfg bounds the generated/loaded world dimensions.
type SizeCfg struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DistrictingCfg configures pkg/districting.
type DistrictingCfg struct {
	Districts      int  `yaml:"districts" json:"districts"`
	FillRoadTiles  bool `yaml:"fillRoadTiles" json:"fillRoadTiles"`
	IncludeWater   bool `yaml:"includeWater" json:"includeWater"`
}

// ErosionCfg configures pkg/erosion.
type ErosionCfg struct {
	Enabled          bool    `yaml:"enabled" json:"enabled"`
	RiversEnabled    bool    `yaml:"riversEnabled" json:"riversEnabled"`
	ThermalIterations int    `yaml:"thermalIterations" json:"thermalIterations"`
	ThermalTalus     float64 `yaml:"thermalTalus" json:"thermalTalus"`
	ThermalRate      float64 `yaml:"thermalRate" json:"thermalRate"`
	RiverMinAccum    int     `yaml:"riverMinAccum" json:"riverMinAccum"`
	RiverCarve       float64 `yaml:"riverCarve" json:"riverCarve"`
	RiverCarvePower  float64 `yaml:"riverCarvePower" json:"riverCarvePower"`
	SmoothIterations int     `yaml:"smoothIterations" json:"smoothIterations"`
	SmoothRate       float64 `yaml:"smoothRate" json:"smoothRate"`
	QuantizeScale    int     `yaml:"quantizeScale" json:"quantizeScale"`
}

// RunoffCfg configures pkg/runoff.
type RunoffCfg struct {
	DilutionExponent       float64 `yaml:"dilutionExponent" json:"dilutionExponent"`
	HighExposureThreshold01 float64 `yaml:"highExposureThreshold01" json:"highExposureThreshold01"`
	ParksToAdd             int     `yaml:"parksToAdd" json:"parksToAdd"`
	MinSeparation          int     `yaml:"minSeparation" json:"minSeparation"`
}

// PolicyOptCfg configures pkg/policyopt.
type PolicyOptCfg struct {
	Method      string `yaml:"method" json:"method"` // "exhaustive" | "cem"
	EvalDays    int    `yaml:"evalDays" json:"evalDays"`
	Iterations  int    `yaml:"iterations" json:"iterations"`
	Population  int    `yaml:"population" json:"population"`
	Elites      int    `yaml:"elites" json:"elites"`
	Threads     int    `yaml:"threads" json:"threads"`
	RNGSeed     uint64 `yaml:"rngSeed" json:"rngSeed"`
	TopK        int    `yaml:"topK" json:"topK"`
}

// Config is the top-level configuration for all CLI binaries.
type Config struct {
	Seed        uint64         `yaml:"seed" json:"seed"`
	Size        SizeCfg        `yaml:"size" json:"size"`
	Districting DistrictingCfg `yaml:"districting" json:"districting"`
	Erosion     ErosionCfg     `yaml:"erosion" json:"erosion"`
	Runoff      RunoffCfg      `yaml:"runoff" json:"runoff"`
	PolicyOpt   PolicyOptCfg   `yaml:"policyOpt" json:"policyOpt"`
}

// Default returns a Config with conservative, spec-matching defaults.
func Default() Config {
	return Config{
		Seed: 1,
		Size: SizeCfg{Width: 64, Height: 64},
		Districting: DistrictingCfg{
			Districts:     4,
			FillRoadTiles: true,
			IncludeWater:  false,
		},
		Erosion: ErosionCfg{
			Enabled:           true,
			RiversEnabled:     true,
			ThermalIterations: 20,
			ThermalTalus:      0.02,
			ThermalRate:       0.50,
			RiverCarve:        0.055,
			RiverCarvePower:   0.60,
			SmoothIterations:  1,
			SmoothRate:        0.25,
			QuantizeScale:     4096,
		},
		Runoff: RunoffCfg{
			DilutionExponent:        1.0,
			HighExposureThreshold01: 0.65,
			ParksToAdd:              12,
			MinSeparation:           3,
		},
		PolicyOpt: PolicyOptCfg{
			Method:     "cem",
			EvalDays:   60,
			Iterations: 25,
			Population: 64,
			Elites:     8,
			RNGSeed:    1,
			TopK:       32,
		},
	}
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("isoconfig: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("isoconfig: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("isoconfig: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks structural invariants, returning a descriptive error
// for the first violation found (spec.md §7: configuration errors are
// reported at parse time).
func (c Config) Validate() error {
	if c.Size.Width <= 0 || c.Size.Height <= 0 {
		return fmt.Errorf("size must be positive, got %dx%d", c.Size.Width, c.Size.Height)
	}
	if c.Districting.Districts < 1 {
		return fmt.Errorf("districting.districts must be >= 1, got %d", c.Districting.Districts)
	}
	if c.Erosion.ThermalIterations < 0 {
		return fmt.Errorf("erosion.thermalIterations must be >= 0")
	}
	if c.Runoff.ParksToAdd < 0 {
		return fmt.Errorf("runoff.parksToAdd must be >= 0")
	}
	if c.PolicyOpt.Method != "exhaustive" && c.PolicyOpt.Method != "cem" {
		return fmt.Errorf("policyOpt.method must be 'exhaustive' or 'cem', got %q", c.PolicyOpt.Method)
	}
	return nil
}

// Hash returns a stable SHA-256 digest of the config's canonical YAML
// encoding. It has the form pkg/dmath.NewRNG takes as its configHash
// argument; the packages and CLI tools in this module call NewRNG with
// a nil configHash, so no stage seed depends on it.
func (c Config) Hash() []byte {
	data, err := yaml.Marshal(c)
	if err != nil {
		// yaml.Marshal over a plain struct of scalars cannot fail; if it
		// somehow did, fall back to hashing the config's %#v rendering so
		// callers always get a stable, non-nil digest.
		data = []byte(fmt.Sprintf("%#v", c))
	}
	sum := sha256.Sum256(data)
	return sum[:]
}
