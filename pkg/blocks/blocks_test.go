package blocks

import (
	"testing"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
	"pgregory.net/rapid"
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

func setTile(t fataler, w *isoworld.World, x, y int, terrain isoworld.Terrain, overlay isoworld.Overlay, level int) {
	t.Helper()
	if err := w.Set(x, y, isoworld.Tile{Terrain: terrain, Overlay: overlay, Level: uint8(level)}); err != nil {
		t.Fatalf("Set(%d,%d): %v", x, y, err)
	}
}

func TestBuildCityBlocks_SingleBlock3x3(t *testing.T) {
	w := isoworld.NewWorld(3, 3, 1)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			setTile(t, w, x, y, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
		}
	}

	res := BuildCityBlocks(w)
	if len(res.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(res.Blocks))
	}
	b := res.Blocks[0]
	if b.Area != 9 {
		t.Errorf("expected area 9, got %d", b.Area)
	}
	if b.OutsideEdges != 12 {
		t.Errorf("expected outsideEdges 12, got %d", b.OutsideEdges)
	}
	if b.RoadEdges != 0 {
		t.Errorf("expected roadEdges 0, got %d", b.RoadEdges)
	}
	if b.RoadAdjTiles != 0 {
		t.Errorf("expected roadAdjTiles 0, got %d", b.RoadAdjTiles)
	}
	for i, bid := range res.TileToBlock {
		if bid != 0 {
			t.Errorf("tileToBlock[%d] = %d, want 0", i, bid)
		}
	}
}

func TestBuildCityBlocks_RoadBisecting(t *testing.T) {
	w := isoworld.NewWorld(5, 1, 1)
	setTile(t, w, 0, 0, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
	setTile(t, w, 1, 0, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
	setTile(t, w, 2, 0, isoworld.TerrainGrass, isoworld.OverlayRoad, 2)
	setTile(t, w, 3, 0, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
	setTile(t, w, 4, 0, isoworld.TerrainGrass, isoworld.OverlayNone, 0)

	res := BuildCityBlocks(w)
	if len(res.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(res.Blocks))
	}
	for _, b := range res.Blocks {
		if b.Area != 2 {
			t.Errorf("expected area 2, got %d", b.Area)
		}
	}
	want := []int{0, 0, -1, 1, 1}
	for i, w := range want {
		if res.TileToBlock[i] != w {
			t.Errorf("tileToBlock[%d] = %d, want %d", i, res.TileToBlock[i], w)
		}
	}

	graph := BuildCityBlockGraph(w, &res)
	if len(graph.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(graph.Edges))
	}
	e := graph.Edges[0]
	if e.A != 0 || e.B != 1 {
		t.Errorf("expected edge (0,1), got (%d,%d)", e.A, e.B)
	}
	if e.TouchingRoadTiles != 1 {
		t.Errorf("expected touchingRoadTiles 1, got %d", e.TouchingRoadTiles)
	}
	if e.TouchingRoadTilesByLevel != [4]int{0, 0, 1, 0} {
		t.Errorf("expected touchingRoadTilesByLevel [0,0,1,0], got %v", e.TouchingRoadTilesByLevel)
	}
}

// TestProperty_TileToBlockInvariant checks the §8 invariant:
// tileToBlock[i] == -1 iff tile is water or road, and sum of block
// areas equals the count of non-water non-road tiles.
func TestProperty_TileToBlockInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 12).Draw(rt, "w")
		h := rapid.IntRange(1, 12).Draw(rt, "h")
		world := isoworld.NewWorld(w, h, 1)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				kind := rapid.IntRange(0, 2).Draw(rt, "kind")
				switch kind {
				case 0:
					setTile(rt, world, x, y, isoworld.TerrainWater, isoworld.OverlayNone, 0)
				case 1:
					lvl := rapid.IntRange(1, 3).Draw(rt, "lvl")
					setTile(rt, world, x, y, isoworld.TerrainGrass, isoworld.OverlayRoad, lvl)
				default:
					setTile(rt, world, x, y, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
				}
			}
		}

		res := BuildCityBlocks(world)

		nonBlockCount := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				tl := world.At(x, y)
				i := isoworld.Idx(x, y, w)
				isNonBlock := tl.Terrain == isoworld.TerrainWater || tl.Overlay == isoworld.OverlayRoad
				if isNonBlock {
					nonBlockCount++
					if res.TileToBlock[i] != -1 {
						rt.Fatalf("tileToBlock[%d] = %d, want -1 for water/road tile", i, res.TileToBlock[i])
					}
				} else if res.TileToBlock[i] < 0 {
					rt.Fatalf("tileToBlock[%d] = %d, want >= 0 for block tile", i, res.TileToBlock[i])
				}
			}
		}

		sumArea := 0
		for _, b := range res.Blocks {
			sumArea += b.Area
		}
		if sumArea != w*h-nonBlockCount {
			rt.Fatalf("sum(area)=%d, want %d", sumArea, w*h-nonBlockCount)
		}
	})
}

// TestProperty_GraphEdgesSortedAscending checks the §8 invariant that
// BuildCityBlockGraph emits edges with a<b in strictly ascending
// (a,b) order, with sorted incidence lists.
func TestProperty_GraphEdgesSortedAscending(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(2, 14).Draw(rt, "w")
		h := rapid.IntRange(2, 14).Draw(rt, "h")
		world := isoworld.NewWorld(w, h, 1)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				kind := rapid.IntRange(0, 3).Draw(rt, "kind")
				switch kind {
				case 0:
					setTile(rt, world, x, y, isoworld.TerrainWater, isoworld.OverlayNone, 0)
				case 1:
					lvl := rapid.IntRange(1, 3).Draw(rt, "lvl")
					setTile(rt, world, x, y, isoworld.TerrainGrass, isoworld.OverlayRoad, lvl)
				default:
					setTile(rt, world, x, y, isoworld.TerrainGrass, isoworld.OverlayNone, 0)
				}
			}
		}

		graph := BuildCityBlockGraph(world, nil)
		for i := 1; i < len(graph.Edges); i++ {
			prev, cur := graph.Edges[i-1], graph.Edges[i]
			prevKey := pairKey(prev.A, prev.B)
			curKey := pairKey(cur.A, cur.B)
			if prevKey >= curKey {
				rt.Fatalf("edges not strictly ascending at %d: %v then %v", i, prev, cur)
			}
		}
		for _, e := range graph.Edges {
			if e.A >= e.B {
				rt.Fatalf("edge with a>=b: %v", e)
			}
		}
		for _, inc := range graph.BlockToEdges {
			for i := 1; i < len(inc); i++ {
				if inc[i-1] > inc[i] {
					rt.Fatalf("incidence list not sorted: %v", inc)
				}
			}
		}
	})
}
