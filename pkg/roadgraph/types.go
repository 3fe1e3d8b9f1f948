// Package roadgraph compresses a tile grid's road network into a
// node/edge graph and provides resilience (bridge/articulation),
// betweenness-based road health, and A*-based bypass-path synthesis
// over it (spec.md §4.4-§4.6).
package roadgraph

import "github.com/masterblaster1999/isocity/pkg/isoworld"

// EdgeWeightMode selects how RoadGraph edges are weighted for
// centrality/shortest-path purposes.
type EdgeWeightMode uint8

const (
	WeightTravelTimeMilli EdgeWeightMode = iota
	WeightSteps
)

// Node is a road-graph junction/endpoint: a road tile with degree != 2,
// or a dead end / isolated road tile.
type Node struct {
	Pos          isoworld.Point
	IncidentEdges []int
}

// Edge is a maximal polyline of road tiles between two nodes.
type Edge struct {
	A, B   int // node indices
	Tiles  []isoworld.Point // ordered polyline, A's tile first, B's tile last
	Length int
	Weight int // per spec.md §3.2, an integer weight (travel-time-milli or steps, per graph-wide mode)
}

// Graph is the compressed road network.
type Graph struct {
	Nodes []Node
	Edges []Edge
	Mode  EdgeWeightMode
}

func tileIdx(p isoworld.Point, w int) int { return isoworld.Idx(p.X, p.Y, w) }

func travelTimeMilli(level uint8) int {
	switch level {
	case 1:
		return 1000 // Street: slowest
	case 2:
		return 650 // Avenue
	case 3:
		return 400 // Highway: fastest
	default:
		return 1000
	}
}
