package roadgraph

import (
	"testing"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
	"pgregory.net/rapid"
)

func TestBuildRoadGraph_StraightRoadTwoNodesOneEdge(t *testing.T) {
	w := isoworld.NewWorld(5, 1, 1)
	for x := 0; x < 5; x++ {
		if err := w.Set(x, 0, isoworld.Tile{Terrain: isoworld.TerrainGrass, Overlay: isoworld.OverlayRoad, Level: 1}); err != nil {
			t.Fatal(err)
		}
	}

	g := BuildRoadGraph(w, WeightSteps)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes (dead ends), got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	e := g.Edges[0]
	if e.Length != 4 {
		t.Errorf("expected edge length 4 (5 tiles, 4 steps), got %d", e.Length)
	}
	if len(e.Tiles) != 5 {
		t.Errorf("expected 5 tiles on the polyline, got %d", len(e.Tiles))
	}
}

func TestBuildRoadGraph_TJunctionThreeNodes(t *testing.T) {
	// A 3x3 T-shape: horizontal arm y=1 x=0..2, vertical arm x=1 y=0..1.
	w := isoworld.NewWorld(3, 3, 1)
	road := func(x, y int) {
		if err := w.Set(x, y, isoworld.Tile{Terrain: isoworld.TerrainGrass, Overlay: isoworld.OverlayRoad, Level: 1}); err != nil {
			t.Fatal(err)
		}
	}
	road(0, 1)
	road(1, 1)
	road(2, 1)
	road(1, 0)

	g := BuildRoadGraph(w, WeightSteps)
	// Center (1,1) has degree 3 -> node. The three arm tips are dead ends -> nodes.
	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 3 {
		t.Fatalf("expected 3 edges radiating from the center, got %d", len(g.Edges))
	}
}

// TestProperty_RoadGraphStructurallyValid checks that every edge's
// endpoints are valid node indices and every node's incident edge list
// references edges that actually touch it.
func TestProperty_RoadGraphStructurallyValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(2, 16).Draw(rt, "w")
		h := rapid.IntRange(2, 16).Draw(rt, "h")
		world := isoworld.NewWorld(w, h, 1)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if rapid.Bool().Draw(rt, "isRoad") {
					lvl := rapid.IntRange(1, 3).Draw(rt, "lvl")
					if err := world.Set(x, y, isoworld.Tile{Terrain: isoworld.TerrainGrass, Overlay: isoworld.OverlayRoad, Level: uint8(lvl)}); err != nil {
						rt.Fatal(err)
					}
				}
			}
		}

		g := BuildRoadGraph(world, WeightTravelTimeMilli)
		for _, e := range g.Edges {
			if e.A < 0 || e.A >= len(g.Nodes) || e.B < 0 || e.B >= len(g.Nodes) {
				rt.Fatalf("edge endpoint out of range: %+v", e)
			}
			if len(e.Tiles) < 1 {
				rt.Fatalf("edge has no tiles: %+v", e)
			}
		}
		for ni, n := range g.Nodes {
			for _, ei := range n.IncidentEdges {
				e := g.Edges[ei]
				if e.A != ni && e.B != ni {
					rt.Fatalf("node %d incident edge %d does not touch it: %+v", ni, ei, e)
				}
			}
		}
	})
}
