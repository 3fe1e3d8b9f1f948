package roadgraph

import "github.com/masterblaster1999/isocity/pkg/isoworld"

// HealthConfig controls ComputeRoadHealth (spec.md §4.6).
type HealthConfig struct {
	WeightMode            EdgeWeightMode
	MaxSources            int // 0 = auto
	AutoExactMaxNodes      int
	AutoSampleSources      int
	IncludeNodeCentrality  bool
	ArticulationVulnerabilityBase float64
	IncludeBypass          bool
	Bypass                 BypassConfig
}

// DefaultHealthConfig mirrors original_source/RoadHealth.hpp's defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		WeightMode:                    WeightTravelTimeMilli,
		MaxSources:                    0,
		AutoExactMaxNodes:             650,
		AutoSampleSources:             256,
		IncludeNodeCentrality:         true,
		ArticulationVulnerabilityBase: 0.70,
		IncludeBypass:                 true,
		Bypass:                        DefaultBypassConfig(),
	}
}

// HealthResult is the per-tile road health analysis: congestion
// centrality, failure vulnerability, and optional bypass suggestions
// (spec.md §4.6).
type HealthResult struct {
	W, H        int
	Nodes, Edges int
	SourcesUsed int

	BridgeEdges        []int
	ArticulationNodes  []int

	Centrality01   []float64 // per tile, 0..1
	Vulnerability01 []float64 // per tile, 0..1

	BypassMask []uint8
	Bypasses   []BypassSuggestion
}

var crossDX = [5]int{0, -1, 1, 0, 0}
var crossDY = [5]int{0, 0, 0, -1, 1}

func stampCross(field []float64, w, h, x, y int, v float64) {
	for k := 0; k < 5; k++ {
		nx, ny := x+crossDX[k], y+crossDY[k]
		if nx < 0 || ny < 0 || nx >= w || ny >= h {
			continue
		}
		i := isoworld.Idx(nx, ny, w)
		if v > field[i] {
			field[i] = v
		}
	}
}

// ComputeRoadHealth builds the road graph for world, runs resilience
// and (auto exact-or-sampled) centrality analysis over it, and stamps
// the results onto per-tile fields. Graphs with more nodes than
// cfg.AutoExactMaxNodes fall back to a deterministic subsample of
// cfg.AutoSampleSources source nodes rather than running centrality
// from every node, following original_source/RoadHealth.cpp's
// auto-switch so dense road networks stay tractable.
func ComputeRoadHealth(world *isoworld.World, cfg HealthConfig, traffic *isoworld.TrafficResult) HealthResult {
	w, h := world.Width(), world.Height()
	out := HealthResult{W: w, H: h}
	if w <= 0 || h <= 0 {
		return out
	}

	g := BuildRoadGraph(world, cfg.WeightMode)
	out.Nodes = len(g.Nodes)
	out.Edges = len(g.Edges)
	if len(g.Nodes) == 0 {
		out.Centrality01 = make([]float64, w*h)
		out.Vulnerability01 = make([]float64, w*h)
		out.BypassMask = make([]uint8, w*h)
		return out
	}

	resilience := ComputeRoadGraphResilience(&g)
	out.BridgeEdges = resilience.BridgeEdges
	out.ArticulationNodes = resilience.ArticulationNodes

	sources := cfg.MaxSources
	autoExactMax := cfg.AutoExactMaxNodes
	if autoExactMax <= 0 {
		autoExactMax = 650
	}
	autoSample := cfg.AutoSampleSources
	if autoSample <= 0 {
		autoSample = 256
	}

	var sourceIDs []int
	switch {
	case sources > 0:
		sourceIDs = SampleSourceNodes(len(g.Nodes), sources, world.Seed())
	case len(g.Nodes) <= autoExactMax:
		sourceIDs = make([]int, len(g.Nodes))
		for i := range sourceIDs {
			sourceIDs[i] = i
		}
	default:
		sourceIDs = SampleSourceNodes(len(g.Nodes), autoSample, world.Seed())
	}
	out.SourcesUsed = len(sourceIDs)

	nodeCentrality, edgeCentrality := ComputeRoadGraphCentrality(&g, sourceIDs)

	centrality := make([]float64, w*h)
	vulnerability := make([]float64, w*h)

	for ei, e := range g.Edges {
		c := edgeCentrality[ei]
		for _, p := range e.Tiles {
			i := isoworld.Idx(p.X, p.Y, w)
			if c > centrality[i] {
				centrality[i] = c
			}
		}
		if resilience.IsBridgeEdge[ei] {
			sizeA, sizeB := resilience.BridgeSubtreeNodes[ei], resilience.BridgeOtherNodes[ei]
			impact := 0.0
			if sizeA+sizeB > 0 {
				minSide := sizeA
				if sizeB < minSide {
					minSide = sizeB
				}
				impact = 2 * float64(minSide) / float64(sizeA+sizeB)
			}
			for _, p := range e.Tiles {
				stampCross(vulnerability, w, h, p.X, p.Y, impact)
			}
		}
	}

	if cfg.IncludeNodeCentrality {
		for ni, c := range nodeCentrality {
			p := g.Nodes[ni].Pos
			i := isoworld.Idx(p.X, p.Y, w)
			if c > centrality[i] {
				centrality[i] = c
			}
		}
	}

	articBase := cfg.ArticulationVulnerabilityBase
	if articBase <= 0 {
		articBase = 0.70
	}
	for _, ni := range resilience.ArticulationNodes {
		c01 := nodeCentrality[ni]
		v := articBase
		if alt := 0.5 + 0.5*c01; alt > v {
			v = alt
		}
		p := g.Nodes[ni].Pos
		stampCross(vulnerability, w, h, p.X, p.Y, v)
	}

	out.Centrality01 = centrality
	out.Vulnerability01 = vulnerability

	bypassMask := make([]uint8, w*h)
	if cfg.IncludeBypass {
		suggestions := SuggestRoadResilienceBypasses(world, &g, &resilience, cfg.Bypass, traffic)
		out.Bypasses = suggestions
		for _, s := range suggestions {
			for _, p := range s.Path {
				bypassMask[isoworld.Idx(p.X, p.Y, w)] = 1
			}
		}
	}
	out.BypassMask = bypassMask

	return out
}
