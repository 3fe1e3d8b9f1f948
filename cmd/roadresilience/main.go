// Command roadresilience computes the road network's bridge/
// articulation structure, betweenness-based health fields, and bypass
// suggestions, grounded on original_source/src/cli/roadresilience.cpp
// and roadhealth.cpp.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masterblaster1999/isocity/internal/clicommon"
	"github.com/masterblaster1999/isocity/pkg/export"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
	"github.com/masterblaster1999/isocity/pkg/roadgraph"
)

const version = "1.0.0"

var (
	loadPath          = flag.String("load", "", "Path to a saved world (xor --seed/--size)")
	seedFlag          = flag.Uint64("seed", 1, "World seed, used with --size when --load is empty")
	sizeFlag          = flag.String("size", "", "World size WxH, used with --seed when --load is empty")
	weightMode        = flag.String("weight-mode", "traveltime", "Edge weight: traveltime or steps")
	suggestBypasses   = flag.Bool("suggest-bypasses", true, "Suggest bypass roads around bridge edges")
	bypassTop         = flag.Int("bypass-top", 5, "Max bypass suggestions to return")
	bypassAllowBridges = flag.Bool("bypass-allow-bridges", false, "Allow bypass paths to cross water")
	bypassTargetLevel = flag.Int("bypass-target-level", 1, "Road level to build for bypass suggestions")
	jsonOut           = flag.String("json", "", "Write a JSON analysis report to this path")
	bridgesCSV        = flag.String("bridges-csv", "", "Write bridge edges as CSV to this path")
	articulationsCSV  = flag.String("articulations-csv", "", "Write articulation nodes as CSV to this path")
	highlightBridges  = flag.String("highlight-bridges", "", "Write a PPM highlighting bridge tiles")
	highlightBypasses = flag.String("highlight-bypasses", "", "Write a PPM highlighting suggested bypass tiles")
	writeSave         = flag.String("write-save", "", "Write the (possibly generated) world to this path")
	verbose           = flag.Bool("verbose", false, "Enable verbose output")
	help              = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()
	if *help {
		printHelp()
		os.Exit(clicommon.ExitOK)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func run() error {
	start := time.Now()
	world, err := clicommon.LoadOrGenerate(*loadPath, *seedFlag, *sizeFlag)
	if err != nil {
		return usageErr{err}
	}

	mode := roadgraph.WeightTravelTimeMilli
	if *weightMode == "steps" {
		mode = roadgraph.WeightSteps
	} else if *weightMode != "traveltime" {
		return usageErr{fmt.Errorf("invalid --weight-mode %q, want traveltime or steps", *weightMode)}
	}

	g := roadgraph.BuildRoadGraph(world, mode)
	resilience := roadgraph.ComputeRoadGraphResilience(&g)

	healthCfg := roadgraph.DefaultHealthConfig()
	healthCfg.WeightMode = mode
	healthCfg.Bypass.Top = *bypassTop
	healthCfg.Bypass.AllowBridges = *bypassAllowBridges
	healthCfg.Bypass.TargetLevel = *bypassTargetLevel
	healthCfg.IncludeBypass = *suggestBypasses
	health := roadgraph.ComputeRoadHealth(world, healthCfg, nil)

	if *verbose {
		fmt.Printf("Nodes: %d  Edges: %d  Bridges: %d  Articulations: %d  Bypasses: %d\n",
			len(g.Nodes), len(g.Edges), len(resilience.BridgeEdges), len(resilience.ArticulationNodes), len(health.Bypasses))
	}

	if *bridgesCSV != "" {
		if err := writeBridgesCSV(*bridgesCSV, g, resilience); err != nil {
			return err
		}
	}
	if *articulationsCSV != "" {
		if err := writeArticulationsCSV(*articulationsCSV, g, resilience); err != nil {
			return err
		}
	}
	if *highlightBridges != "" {
		if err := writeBridgeHighlightPPM(*highlightBridges, world, g, resilience); err != nil {
			return err
		}
	}
	if *highlightBypasses != "" {
		if err := writeBypassHighlightPPM(*highlightBypasses, world, health); err != nil {
			return err
		}
	}
	if *jsonOut != "" {
		if err := writeJSONReport(*jsonOut, world, g, resilience, health); err != nil {
			return err
		}
	}
	if err := clicommon.WriteSaveIfRequested(*writeSave, world); err != nil {
		return err
	}

	fmt.Printf("roadresilience: %d nodes, %d edges, %d bridges, %d articulations (%v)\n",
		len(g.Nodes), len(g.Edges), len(resilience.BridgeEdges), len(resilience.ArticulationNodes), time.Since(start))
	return nil
}

func writeBridgesCSV(path string, g roadgraph.Graph, r roadgraph.Result) error {
	headers := []string{"edge", "a", "b", "length", "weight"}
	var rows [][]string
	for _, ei := range r.BridgeEdges {
		e := g.Edges[ei]
		rows = append(rows, []string{itoa(ei), itoa(e.A), itoa(e.B), itoa(e.Length), itoa(e.Weight)})
	}
	return export.SaveCSVToFile(path, headers, rows)
}

func writeArticulationsCSV(path string, g roadgraph.Graph, r roadgraph.Result) error {
	headers := []string{"node", "x", "y", "incidentEdges"}
	var rows [][]string
	for _, ni := range r.ArticulationNodes {
		n := g.Nodes[ni]
		rows = append(rows, []string{itoa(ni), itoa(n.Pos.X), itoa(n.Pos.Y), itoa(len(n.IncidentEdges))})
	}
	return export.SaveCSVToFile(path, headers, rows)
}

func writeBridgeHighlightPPM(path string, world *isoworld.World, g roadgraph.Graph, r roadgraph.Result) error {
	w, h := world.Width(), world.Height()
	mask := make([]float32, w*h)
	for _, ei := range r.BridgeEdges {
		for _, p := range g.Edges[ei].Tiles {
			mask[isoworld.Idx(p.X, p.Y, w)] = 1
		}
	}
	return export.SavePPMToFile(path, w, h, export.GrayscaleToRGB(mask))
}

func writeBypassHighlightPPM(path string, world *isoworld.World, health roadgraph.HealthResult) error {
	w, h := world.Width(), world.Height()
	mask := make([]float32, w*h)
	for i, v := range health.BypassMask {
		if v != 0 {
			mask[i] = 1
		}
	}
	return export.SavePPMToFile(path, w, h, export.GrayscaleToRGB(mask))
}

type jsonReport struct {
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	Nodes             int      `json:"nodes"`
	Edges             int      `json:"edges"`
	BridgeEdges       []int    `json:"bridgeEdges"`
	ArticulationNodes []int    `json:"articulationNodes"`
	SourcesUsed       int      `json:"sourcesUsed"`
	Bypasses          []bypass `json:"bypasses,omitempty"`
}

type bypass struct {
	BridgeEdge int `json:"bridgeEdge"`
	CutSize    int `json:"cutSize"`
	MoneyCost  int `json:"moneyCost"`
	NewTiles   int `json:"newTiles"`
}

func writeJSONReport(path string, world *isoworld.World, g roadgraph.Graph, r roadgraph.Result, health roadgraph.HealthResult) error {
	report := jsonReport{
		Width: world.Width(), Height: world.Height(),
		Nodes: len(g.Nodes), Edges: len(g.Edges),
		BridgeEdges: r.BridgeEdges, ArticulationNodes: r.ArticulationNodes,
		SourcesUsed: health.SourcesUsed,
	}
	for _, b := range health.Bypasses {
		report.Bypasses = append(report.Bypasses, bypass{BridgeEdge: b.BridgeEdge, CutSize: b.CutSize, MoneyCost: b.MoneyCost, NewTiles: b.NewTiles})
	}
	return export.SaveJSONToFile(report, path)
}

func itoa(v int) string { return fmt.Sprintf("%d", v) }

type usageErr struct{ err error }

func (u usageErr) Error() string { return u.err.Error() }

func exitCodeFor(err error) int {
	if _, ok := err.(usageErr); ok {
		return clicommon.ExitUsage
	}
	return clicommon.ExitRuntime
}

func printHelp() {
	fmt.Printf("roadresilience version %s\n\n", version)
	fmt.Println("Computes bridge/articulation resilience, betweenness-based road")
	fmt.Println("health, and bypass-road suggestions (spec.md §4.4-§4.6).")
	fmt.Println("\nUsage:")
	fmt.Println("  roadresilience --seed <u64> --size WxH [options]")
	fmt.Println("  roadresilience --load <world.bin> [options]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
}
