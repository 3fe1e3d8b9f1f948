package export

import (
	"fmt"
	"os"
	"strings"
)

// DotNode is one node of a rendered Graphviz graph.
type DotNode struct {
	ID        string
	Label     string
	FillColor string
}

// DotEdge is one undirected edge of a rendered Graphviz graph.
type DotEdge struct {
	A, B  string
	Label string
	Width float64
}

// DotGraph is a generic undirected Graphviz graph, assembled by
// callers from whichever component's adjacency they're exporting
// (city-block graph, road graph, ...).
type DotGraph struct {
	Name  string
	Nodes []DotNode
	Edges []DotEdge
}

// districtPalette mirrors the original CLIs' small stable per-district
// color table (original_source/src/cli/blockdistricts.cpp's
// DistrictColor).
var districtPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
	"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
}

// DistrictColor returns the stable palette color for district d,
// falling back to black beyond the palette size.
func DistrictColor(d int) string {
	if d >= 0 && d < len(districtPalette) {
		return districtPalette[d]
	}
	return "#000000"
}

// RenderDot writes g as an undirected Graphviz "graph" document.
func RenderDot(g DotGraph) []byte {
	var b strings.Builder
	name := g.Name
	if name == "" {
		name = "g"
	}
	fmt.Fprintf(&b, "graph %s {\n", name)
	b.WriteString("  overlap=false;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\", fontsize=10];\n")
	b.WriteString("  edge [color=\"#777777\", fontname=\"Helvetica\", fontsize=9];\n\n")

	for _, n := range g.Nodes {
		fill := n.FillColor
		if fill == "" {
			fill = "#ffffff"
		}
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q];\n", n.ID, n.Label, fill)
	}
	b.WriteString("\n")
	for _, e := range g.Edges {
		width := e.Width
		if width <= 0 {
			width = 1
		}
		fmt.Fprintf(&b, "  %s -- %s [label=%q, penwidth=%.3f];\n", e.A, e.B, e.Label, width)
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

// SaveDotToFile renders g and writes it to filepath.
func SaveDotToFile(g DotGraph, filepath string) error {
	return os.WriteFile(filepath, RenderDot(g), 0644)
}
