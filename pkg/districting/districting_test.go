package districting

import (
	"testing"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// TestTwoIsolatedBlocksTwoDistricts mirrors spec.md §8 scenario 6: two
// isolated blocks with no connecting road; requesting 2 districts
// should assign each block its own district (infinite distance seed
// selection) rather than splitting either block.
func TestTwoIsolatedBlocksTwoDistricts(t *testing.T) {
	// 7x1 world: [Grass,Grass,Grass, Water, Grass,Grass,Grass]
	w := isoworld.NewWorld(7, 1, 1)
	for x := 0; x < 7; x++ {
		terrain := isoworld.TerrainGrass
		if x == 3 {
			terrain = isoworld.TerrainWater
		}
		if err := w.Set(x, 0, isoworld.Tile{Terrain: terrain}); err != nil {
			t.Fatal(err)
		}
	}

	res := AssignDistrictsByBlocks(w, Config{Districts: 2, FillRoadTiles: true, IncludeWater: false}, nil)
	if res.DistrictsUsed != 2 {
		t.Fatalf("expected 2 districts used, got %d", res.DistrictsUsed)
	}

	leftD := w.At(0, 0).District
	rightD := w.At(6, 0).District
	if leftD == rightD {
		t.Errorf("expected the two isolated blocks to get different districts, both got %d", leftD)
	}
	for x := 0; x < 3; x++ {
		if w.At(x, 0).District != leftD {
			t.Errorf("tile %d: expected district %d (uniform within block), got %d", x, leftD, w.At(x, 0).District)
		}
	}
	for x := 4; x < 7; x++ {
		if w.At(x, 0).District != rightD {
			t.Errorf("tile %d: expected district %d (uniform within block), got %d", x, rightD, w.At(x, 0).District)
		}
	}
}
