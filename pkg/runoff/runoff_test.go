package runoff

import (
	"testing"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// descendingRampWorld builds a 4x1 strictly descending-height world so
// hydrology routes mass deterministically left-to-right (mirrors
// pkg/hydrology's own TestFlowField_DescendingRamp fixture).
func descendingRampWorld(t *testing.T, overlays [4]isoworld.Overlay, occupants [4]int32) *isoworld.World {
	t.Helper()
	world := isoworld.NewWorld(4, 1, 1)
	heights := make([]float32, 4)
	for x := 0; x < 4; x++ {
		heights[x] = float32(3 - x)
		if err := world.Set(x, 0, isoworld.Tile{
			Terrain:   isoworld.TerrainGrass,
			Overlay:   overlays[x],
			Occupants: occupants[x],
			Height:    heights[x],
		}); err != nil {
			t.Fatalf("Set(%d,0): %v", x, err)
		}
	}
	return world
}

// TestComputeRunoffPollution_DownhillIndustrialRaisesResidentExposure
// checks the core routing invariant: pollutant mass generated uphill
// at an industrial tile increases concentration at residential tiles
// downhill of it, relative to the same world with no industrial load.
// Pollution01 is normalized by each world's own MaxConcentration, so
// resident exposure is compared after scaling back to concentration.
func TestComputeRunoffPollution_DownhillIndustrialRaisesResidentExposure(t *testing.T) {
	baseline := descendingRampWorld(t,
		[4]isoworld.Overlay{isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayResidential},
		[4]int32{0, 0, 0, 10})
	withIndustry := descendingRampWorld(t,
		[4]isoworld.Overlay{isoworld.OverlayIndustrial, isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayResidential},
		[4]int32{0, 0, 0, 10})

	cfg := DefaultConfig()
	base := ComputeRunoffPollution(baseline, cfg, nil)
	withInd := ComputeRunoffPollution(withIndustry, cfg, nil)

	if base.ResidentPopulation != 10 || withInd.ResidentPopulation != 10 {
		t.Fatalf("resident population = %d/%d, want 10/10", base.ResidentPopulation, withInd.ResidentPopulation)
	}
	if withInd.Concentration[3] <= base.Concentration[3] {
		t.Fatalf("concentration at resident tile with upstream industry (%v) should exceed baseline (%v)",
			withInd.Concentration[3], base.Concentration[3])
	}
	baseExposure := base.ResidentAvgPollution01 * base.MaxConcentration
	indExposure := withInd.ResidentAvgPollution01 * withInd.MaxConcentration
	if indExposure <= baseExposure {
		t.Fatalf("resident exposure with upstream industry (%v) should exceed baseline (%v)",
			indExposure, baseExposure)
	}
}

// TestComputeRunoffPollution_NoResidentsZeroExposure checks the
// degenerate case: a world with no residential tiles reports zero
// population and zero average exposure rather than dividing by zero.
func TestComputeRunoffPollution_NoResidentsZeroExposure(t *testing.T) {
	world := descendingRampWorld(t,
		[4]isoworld.Overlay{isoworld.OverlayIndustrial, isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayNone},
		[4]int32{0, 0, 0, 0})
	result := ComputeRunoffPollution(world, DefaultConfig(), nil)
	if result.ResidentPopulation != 0 {
		t.Fatalf("ResidentPopulation = %d, want 0", result.ResidentPopulation)
	}
	if result.ResidentAvgPollution01 != 0 || result.ResidentHighExposureFrac != 0 {
		t.Fatalf("expected zero-valued exposure stats, got avg=%v highFrac=%v",
			result.ResidentAvgPollution01, result.ResidentHighExposureFrac)
	}
}

// TestSuggestRunoffMitigationParks_ReducesObjective checks that the
// planner never proposes a plan that makes pollution exposure worse:
// ObjectiveAfter must not exceed ObjectiveBefore.
func TestSuggestRunoffMitigationParks_ReducesObjective(t *testing.T) {
	world := descendingRampWorld(t,
		[4]isoworld.Overlay{isoworld.OverlayIndustrial, isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayResidential},
		[4]int32{0, 0, 0, 10})

	cfg := DefaultMitigationConfig()
	cfg.ParksToAdd = 1
	cfg.MinSeparation = 1
	result := SuggestRunoffMitigationParks(world, cfg)

	if result.ObjectiveAfter > result.ObjectiveBefore {
		t.Fatalf("ObjectiveAfter (%v) should not exceed ObjectiveBefore (%v)", result.ObjectiveAfter, result.ObjectiveBefore)
	}
	if result.ObjectiveReduction < 0 {
		t.Fatalf("ObjectiveReduction = %v, want >= 0", result.ObjectiveReduction)
	}
}

// TestApplyRunoffMitigationParks_WritesParkOverlay checks that
// applying a mitigation plan actually rewrites the chosen tiles to
// OverlayPark.
func TestApplyRunoffMitigationParks_WritesParkOverlay(t *testing.T) {
	world := descendingRampWorld(t,
		[4]isoworld.Overlay{isoworld.OverlayIndustrial, isoworld.OverlayNone, isoworld.OverlayNone, isoworld.OverlayResidential},
		[4]int32{0, 0, 0, 10})

	cfg := DefaultMitigationConfig()
	cfg.ParksToAdd = 1
	cfg.MinSeparation = 1
	result := SuggestRunoffMitigationParks(world, cfg)
	if len(result.Placements) == 0 {
		t.Fatal("expected at least one placement suggestion")
	}

	applied := ApplyRunoffMitigationParks(world, result)
	if applied != len(result.Placements) {
		t.Fatalf("ApplyRunoffMitigationParks applied %d, want %d", applied, len(result.Placements))
	}
	for _, p := range result.Placements {
		tile := world.AtIndex(isoworld.Idx(p.Tile.X, p.Tile.Y, world.Width()))
		if tile.Overlay != isoworld.OverlayPark {
			t.Errorf("tile (%d,%d) overlay = %v, want OverlayPark", p.Tile.X, p.Tile.Y, tile.Overlay)
		}
	}
}
