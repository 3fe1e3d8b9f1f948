// Command blockstool decomposes a world into city blocks, builds the
// block adjacency graph, and optionally districts it, grounded on
// original_source/src/cli/blocks.cpp and blockdistricts.cpp.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masterblaster1999/isocity/internal/clicommon"
	"github.com/masterblaster1999/isocity/pkg/blocks"
	"github.com/masterblaster1999/isocity/pkg/districting"
	"github.com/masterblaster1999/isocity/pkg/export"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

const version = "1.0.0"

var (
	loadPath   = flag.String("load", "", "Path to a saved world (xor --seed/--size)")
	seedFlag   = flag.Uint64("seed", 1, "World seed, used with --size when --load is empty")
	sizeFlag   = flag.String("size", "", "World size WxH, used with --seed when --load is empty")
	districts  = flag.Int("districts", 4, "Number of districts to assign (1..8); 0 disables districting")
	fillRoads  = flag.Bool("fill-roads", false, "Assign districts to road tiles too")
	includeWater = flag.Bool("include-water", false, "Also assign districts to water tiles from neighboring land (written to the world and --write-save)")
	configPath = flag.String("config", "", "Load districting defaults from a YAML config file (pkg/isoconfig)")
	jsonOut    = flag.String("json", "", "Write a JSON analysis report to this path")
	dotOut     = flag.String("dot", "", "Write the block adjacency graph as Graphviz DOT to this path")
	blocksCSV  = flag.String("blocks-csv", "", "Write per-block metrics as CSV to this path")
	edgesCSV   = flag.String("edges-csv", "", "Write per-edge metrics as CSV to this path")
	districtPPM = flag.String("district-ppm", "", "Write a district-colored PPM image to this path")
	writeSave  = flag.String("write-save", "", "Write the (possibly generated) world to this path")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	help       = flag.Bool("help", false, "Show help message")
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

	explicit := clicommon.ExplicitFlags()
	fileCfg, haveFileCfg, err := clicommon.LoadConfigFile(*configPath)
	if err != nil {
		return usageErr{err}
	}
	if haveFileCfg {
		if !explicit["districts"] {
			*districts = fileCfg.Districting.Districts
		}
		if !explicit["fill-roads"] {
			*fillRoads = fileCfg.Districting.FillRoadTiles
		}
		if !explicit["include-water"] {
			*includeWater = fileCfg.Districting.IncludeWater
		}
	}

	world, err := clicommon.LoadOrGenerate(*loadPath, *seedFlag, *sizeFlag)
	if err != nil {
		return usageErr{err}
	}
	if *verbose {
		fmt.Printf("World %dx%d seed=%d loaded in %v\n", world.Width(), world.Height(), world.Seed(), time.Since(start))
	}

	blockResult := blocks.BuildCityBlocks(world)
	graphResult := blocks.BuildCityBlockGraph(world, &blockResult)

	var dres districting.Result
	if *districts > 0 {
		cfg := districting.Config{Districts: *districts, FillRoadTiles: *fillRoads, IncludeWater: *includeWater}
		dres = districting.AssignDistrictsByBlocks(world, cfg, &graphResult)
	}

	if *verbose {
		fmt.Printf("Blocks: %d  Edges: %d  Districts used: %d\n", len(graphResult.Blocks.Blocks), len(graphResult.Edges), dres.DistrictsUsed)
	}

	if *blocksCSV != "" {
		if err := writeBlocksCSV(*blocksCSV, graphResult, dres); err != nil {
			return err
		}
	}
	if *edgesCSV != "" {
		if err := writeEdgesCSV(*edgesCSV, graphResult, dres); err != nil {
			return err
		}
	}
	if *dotOut != "" {
		if err := writeDot(*dotOut, graphResult, dres); err != nil {
			return err
		}
	}
	if *districtPPM != "" {
		if err := writeDistrictPPM(*districtPPM, world, blockResult, dres); err != nil {
			return err
		}
	}
	if *jsonOut != "" {
		if err := writeJSONReport(*jsonOut, world, graphResult, dres); err != nil {
			return err
		}
	}
	if err := clicommon.WriteSaveIfRequested(*writeSave, world); err != nil {
		return err
	}

	fmt.Printf("blockstool: %d blocks, %d edges, %d districts (%v)\n", len(graphResult.Blocks.Blocks), len(graphResult.Edges), dres.DistrictsUsed, time.Since(start))
	return nil
}

func blockDistrict(dres districting.Result, id int) int {
	if id >= 0 && id < len(dres.BlockToDistrict) {
		return int(dres.BlockToDistrict[id])
	}
	return 0
}

func writeBlocksCSV(path string, g blocks.CityBlockGraphResult, dres districting.Result) error {
	headers := []string{
		"blockId", "district", "area", "minX", "minY", "maxX", "maxY",
		"roadAdjTiles", "roadEdges", "waterEdges", "outsideEdges",
		"parks", "residential", "commercial", "industrial", "other",
		"roadEdgesL1", "roadEdgesL2", "roadEdgesL3",
		"roadAdjTilesL1", "roadAdjTilesL2", "roadAdjTilesL3",
	}
	rows := make([][]string, 0, len(g.Blocks.Blocks))
	for i, b := range g.Blocks.Blocks {
		fr := g.Frontage[i]
		rows = append(rows, []string{
			itoa(b.ID), itoa(blockDistrict(dres, i)), itoa(b.Area),
			itoa(b.MinX), itoa(b.MinY), itoa(b.MaxX), itoa(b.MaxY),
			itoa(b.RoadAdjTiles), itoa(b.RoadEdges), itoa(b.WaterEdges), itoa(b.OutsideEdges),
			itoa(b.Parks), itoa(b.Residential), itoa(b.Commercial), itoa(b.Industrial), itoa(b.Other),
			itoa(fr.RoadEdgesByLevel[1]), itoa(fr.RoadEdgesByLevel[2]), itoa(fr.RoadEdgesByLevel[3]),
			itoa(fr.RoadAdjTilesByLevel[1]), itoa(fr.RoadAdjTilesByLevel[2]), itoa(fr.RoadAdjTilesByLevel[3]),
		})
	}
	return export.SaveCSVToFile(path, headers, rows)
}

func writeEdgesCSV(path string, g blocks.CityBlockGraphResult, dres districting.Result) error {
	headers := []string{"a", "b", "districtA", "districtB", "touchingRoadTiles", "touchingRoadTilesL1", "touchingRoadTilesL2", "touchingRoadTilesL3"}
	rows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		rows = append(rows, []string{
			itoa(e.A), itoa(e.B), itoa(blockDistrict(dres, e.A)), itoa(blockDistrict(dres, e.B)),
			itoa(e.TouchingRoadTiles),
			itoa(e.TouchingRoadTilesByLevel[1]), itoa(e.TouchingRoadTilesByLevel[2]), itoa(e.TouchingRoadTilesByLevel[3]),
		})
	}
	return export.SaveCSVToFile(path, headers, rows)
}

func writeDot(path string, g blocks.CityBlockGraphResult, dres districting.Result) error {
	dg := export.DotGraph{Name: "blockdistricts"}
	for i, b := range g.Blocks.Blocks {
		d := blockDistrict(dres, i)
		dg.Nodes = append(dg.Nodes, export.DotNode{
			ID:        fmt.Sprintf("b%d", b.ID),
			Label:     fmt.Sprintf("%d\nA=%d", b.ID, b.Area),
			FillColor: export.DistrictColor(d),
		})
	}
	maxContact := 1
	for _, e := range g.Edges {
		if e.TouchingRoadTiles > maxContact {
			maxContact = e.TouchingRoadTiles
		}
	}
	for _, e := range g.Edges {
		w := e.TouchingRoadTiles
		if w < 1 {
			w = 1
		}
		pen := 1.0 + 4.0*(float64(w)/float64(maxContact))
		dg.Edges = append(dg.Edges, export.DotEdge{
			A: fmt.Sprintf("b%d", e.A), B: fmt.Sprintf("b%d", e.B),
			Label: itoa(w), Width: pen,
		})
	}
	return export.SaveDotToFile(dg, path)
}

func writeDistrictPPM(path string, world *isoworld.World, br blocks.CityBlocksResult, dres districting.Result) error {
	w, h := world.Width(), world.Height()
	rgb := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		bid := -1
		if i < len(br.TileToBlock) {
			bid = br.TileToBlock[i]
		}
		var hexColor string
		if bid >= 0 {
			hexColor = export.DistrictColor(blockDistrict(dres, bid))
		} else {
			hexColor = "#202020"
		}
		r, g, b := hexToRGB(hexColor)
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = r, g, b
	}
	return export.SavePPMToFile(path, w, h, rgb)
}

func hexToRGB(hex string) (byte, byte, byte) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	var r, g, b int64
	fmt.Sscanf(hex[1:3], "%02x", &r)
	fmt.Sscanf(hex[3:5], "%02x", &g)
	fmt.Sscanf(hex[5:7], "%02x", &b)
	return byte(r), byte(g), byte(b)
}

type jsonReport struct {
	Width              int                `json:"width"`
	Height             int                `json:"height"`
	Seed               uint64             `json:"seed"`
	DistrictsRequested int                `json:"districtsRequested"`
	DistrictsUsed      int                `json:"districtsUsed"`
	Blocks             []jsonBlock        `json:"blocks"`
	Edges              []jsonEdge         `json:"edges,omitempty"`
}

type jsonBlock struct {
	ID          int `json:"id"`
	District    int `json:"district"`
	Area        int `json:"area"`
	RoadAdjTiles int `json:"roadAdjTiles"`
	Parks       int `json:"parks"`
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
	Industrial  int `json:"industrial"`
}

type jsonEdge struct {
	A                 int `json:"a"`
	B                 int `json:"b"`
	TouchingRoadTiles int `json:"touchingRoadTiles"`
}

func writeJSONReport(path string, world *isoworld.World, g blocks.CityBlockGraphResult, dres districting.Result) error {
	report := jsonReport{
		Width: world.Width(), Height: world.Height(), Seed: world.Seed(),
		DistrictsRequested: *districts, DistrictsUsed: dres.DistrictsUsed,
	}
	for i, b := range g.Blocks.Blocks {
		report.Blocks = append(report.Blocks, jsonBlock{
			ID: b.ID, District: blockDistrict(dres, i), Area: b.Area,
			RoadAdjTiles: b.RoadAdjTiles, Parks: b.Parks,
			Residential: b.Residential, Commercial: b.Commercial, Industrial: b.Industrial,
		})
	}
	for _, e := range g.Edges {
		report.Edges = append(report.Edges, jsonEdge{A: e.A, B: e.B, TouchingRoadTiles: e.TouchingRoadTiles})
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
	fmt.Printf("blockstool version %s\n\n", version)
	fmt.Println("Decomposes a world into city blocks, builds the block adjacency")
	fmt.Println("graph, and optionally districts it (spec.md §4.1-§4.3).")
	fmt.Println("\nUsage:")
	fmt.Println("  blockstool --seed <u64> --size WxH [options]")
	fmt.Println("  blockstool --load <world.bin> [options]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
}
