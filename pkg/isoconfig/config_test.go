package isoconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, `
seed: 12345
size:
  width: 96
  height: 64
districting:
  districts: 6
  fillRoadTiles: true
  includeWater: true
erosion:
  enabled: true
  thermalIterations: 30
runoff:
  parksToAdd: 20
policyOpt:
  method: exhaustive
  evalDays: 30
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Seed != 12345 {
		t.Errorf("Seed = %d, want 12345", cfg.Seed)
	}
	if cfg.Size.Width != 96 || cfg.Size.Height != 64 {
		t.Errorf("Size = %+v, want 96x64", cfg.Size)
	}
	if cfg.Districting.Districts != 6 || !cfg.Districting.FillRoadTiles || !cfg.Districting.IncludeWater {
		t.Errorf("Districting = %+v, unexpected", cfg.Districting)
	}
	if cfg.Erosion.ThermalIterations != 30 {
		t.Errorf("Erosion.ThermalIterations = %d, want 30", cfg.Erosion.ThermalIterations)
	}
	if cfg.Runoff.ParksToAdd != 20 {
		t.Errorf("Runoff.ParksToAdd = %d, want 20", cfg.Runoff.ParksToAdd)
	}
	if cfg.PolicyOpt.Method != "exhaustive" || cfg.PolicyOpt.EvalDays != 30 {
		t.Errorf("PolicyOpt = %+v, unexpected", cfg.PolicyOpt)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "seed: [this is not valid\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero size", func() Config { c := Default(); c.Size.Width = 0; return c }()},
		{"zero districts", func() Config { c := Default(); c.Districting.Districts = 0; return c }()},
		{"negative thermal iterations", func() Config { c := Default(); c.Erosion.ThermalIterations = -1; return c }()},
		{"negative parks", func() Config { c := Default(); c.Runoff.ParksToAdd = -1; return c }()},
		{"bad policy method", func() Config { c := Default(); c.PolicyOpt.Method = "bogus"; return c }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestHashIsStableAndSensitiveToChanges(t *testing.T) {
	a := Default()
	b := Default()
	if string(a.Hash()) != string(b.Hash()) {
		t.Fatal("Hash() should be stable for identical configs")
	}
	b.Seed = a.Seed + 1
	if string(a.Hash()) == string(b.Hash()) {
		t.Fatal("Hash() should differ when config changes")
	}
}
