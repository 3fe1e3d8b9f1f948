// Command hydrotool runs flow direction/accumulation, river masking,
// basin segmentation, contour extraction, and (optionally) erosion
// over a world's heightfield, grounded on
// original_source/src/cli/contours.cpp and the Hydrology/Erosion
// headers referenced throughout original_source.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masterblaster1999/isocity/internal/clicommon"
	"github.com/masterblaster1999/isocity/pkg/contours"
	"github.com/masterblaster1999/isocity/pkg/erosion"
	"github.com/masterblaster1999/isocity/pkg/export"
	"github.com/masterblaster1999/isocity/pkg/hydrology"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

const version = "1.0.0"

var (
	loadPath    = flag.String("load", "", "Path to a saved world (xor --seed/--size)")
	seedFlag    = flag.Uint64("seed", 1, "World seed, used with --size when --load is empty")
	sizeFlag    = flag.String("size", "", "World size WxH, used with --seed when --load is empty")
	applyErosion = flag.Bool("erosion", false, "Apply thermal/river/smoothing erosion before analysis")
	erosionSeed = flag.Uint64("erosion-seed", 0, "Erosion RNG seed override (0 = world seed)")
	levels      = flag.String("levels", "", "Comma-separated contour levels (default: auto min/max/count)")
	levelCount  = flag.Int("count", 5, "Auto contour level count when --levels is empty")
	minLevel    = flag.Float64("min-level", 0, "Auto contour min level")
	maxLevel    = flag.Float64("max-level", 1, "Auto contour max level")
	heightScale = flag.Float64("height-scale", 1, "Corner heightfield scale factor")
	riverMinAccum = flag.Int("river-min-accum", 0, "River mask threshold (0 = auto)")
	configPath  = flag.String("config", "", "Load erosion defaults from a YAML config file (pkg/isoconfig)")
	svgOut      = flag.String("svg", "", "Write extracted contours as SVG to this path")
	ppmOut      = flag.String("ppm", "", "Write a grayscale height/river PPM to this path")
	jsonOut     = flag.String("json", "", "Write a JSON analysis report to this path")
	writeSave   = flag.String("write-save", "", "Write the (possibly eroded) world to this path")
	verbose     = flag.Bool("verbose", false, "Enable verbose output")
	help        = flag.Bool("help", false, "Show help message")
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
	erosionCfg := erosion.DefaultConfig()
	if haveFileCfg {
		ec := fileCfg.Erosion
		if !explicit["erosion"] {
			*applyErosion = ec.Enabled
		}
		erosionCfg = erosion.Config{
			Enabled: ec.Enabled, RiversEnabled: ec.RiversEnabled,
			ThermalIterations: ec.ThermalIterations, ThermalTalus: ec.ThermalTalus, ThermalRate: ec.ThermalRate,
			RiverMinAccum: ec.RiverMinAccum, RiverCarve: ec.RiverCarve, RiverCarvePower: ec.RiverCarvePower,
			SmoothIterations: ec.SmoothIterations, SmoothRate: ec.SmoothRate, QuantizeScale: ec.QuantizeScale,
		}
	}

	world, err := clicommon.LoadOrGenerate(*loadPath, *seedFlag, *sizeFlag)
	if err != nil {
		return usageErr{err}
	}
	w, h := world.Width(), world.Height()

	if *applyErosion {
		heights := heightsFloat64(world)
		seed := *erosionSeed
		if seed == 0 {
			seed = world.Seed()
		}
		erosion.ApplyErosion(heights, w, h, erosionCfg, seed)
		f32 := make([]float32, len(heights))
		for i, v := range heights {
			f32[i] = float32(v)
		}
		if err := world.SetHeights(f32); err != nil {
			return err
		}
		if *verbose {
			fmt.Println("Applied erosion pass")
		}
	}

	heights := heightsFloat64(world)
	field := hydrology.BuildHydrologyField(heights, w, h)
	riverThreshold := *riverMinAccum
	if riverThreshold <= 0 {
		riverThreshold = hydrology.AutoRiverMinAccum(w * h)
	}
	riverMask := hydrology.BuildRiverMask(field.Accum, riverThreshold)
	basins := hydrology.SegmentBasins(field.Dir, w, h)

	if *verbose {
		fmt.Printf("Flow field built; max accumulation %d; %d basins; river threshold %d\n", field.MaxAccum, len(basins.Basins), riverThreshold)
	}

	levelValues := parseLevels(*levels, *minLevel, *maxLevel, *levelCount)
	corners := contours.BuildCornerHeightGrid(world, *heightScale)
	extracted := contours.ExtractContours(corners, w+1, h+1, levelValues, contours.DefaultConfig())

	if *svgOut != "" {
		if err := writeContoursSVG(*svgOut, w, h, extracted); err != nil {
			return err
		}
	}
	if *ppmOut != "" {
		if err := writeHeightRiverPPM(*ppmOut, w, h, heights, riverMask); err != nil {
			return err
		}
	}
	if *jsonOut != "" {
		if err := writeJSONReport(*jsonOut, world, field, basins, extracted); err != nil {
			return err
		}
	}
	if err := clicommon.WriteSaveIfRequested(*writeSave, world); err != nil {
		return err
	}

	fmt.Printf("hydrotool: %dx%d, max accum %d, %d basins, %d contour levels (%v)\n", w, h, field.MaxAccum, len(basins.Basins), len(extracted), time.Since(start))
	return nil
}

func heightsFloat64(world *isoworld.World) []float64 {
	h := world.Heights()
	out := make([]float64, len(h))
	for i, v := range h {
		out[i] = float64(v)
	}
	return out
}

func parseLevels(csv string, lo, hi float64, count int) []float64 {
	if csv != "" {
		var out []float64
		start := 0
		for i := 0; i <= len(csv); i++ {
			if i == len(csv) || csv[i] == ',' {
				var v float64
				fmt.Sscanf(csv[start:i], "%g", &v)
				out = append(out, v)
				start = i + 1
			}
		}
		return out
	}
	if count < 1 {
		count = 1
	}
	out := make([]float64, count)
	if count == 1 {
		out[0] = (lo + hi) / 2
		return out
	}
	step := (hi - lo) / float64(count-1)
	for i := 0; i < count; i++ {
		out[i] = lo + step*float64(i)
	}
	return out
}

func writeContoursSVG(path string, w, h int, levelsOut []contours.Level) error {
	spec := export.RenderSpec{Width: w, Height: h}
	for _, lv := range levelsOut {
		for _, line := range lv.Lines {
			pts := make([]export.PointF, len(line.Points))
			for i, p := range line.Points {
				pts[i] = export.PointF{X: p.X, Y: p.Y}
			}
			spec.Polylines = append(spec.Polylines, export.Polyline{
				Name: fmt.Sprintf("contour-%.3f", lv.Value), Points: pts, Color: "#2266aa", Closed: line.Closed,
			})
		}
	}
	return export.SaveSVGToFile(spec, path, export.DefaultSVGOptions())
}

func writeHeightRiverPPM(path string, w, h int, heights []float64, riverMask []bool) error {
	rgb := make([]byte, w*h*3)
	for i, v := range heights {
		g := byte(clamp01(v) * 255)
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = g, g, g
		if riverMask[i] {
			rgb[i*3], rgb[i*3+1], rgb[i*3+2] = 30, 90, 220
		}
	}
	return export.SavePPMToFile(path, w, h, rgb)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type jsonReport struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	MaxAccum      int     `json:"maxFlowAccumulation"`
	BasinCount    int     `json:"basinCount"`
	ContourLevels []float64 `json:"contourLevels"`
	ContourLineCounts []int `json:"contourLineCounts"`
}

func writeJSONReport(path string, world *isoworld.World, field hydrology.Field, basins hydrology.BasinSegmentation, extracted []contours.Level) error {
	report := jsonReport{Width: world.Width(), Height: world.Height(), MaxAccum: field.MaxAccum, BasinCount: len(basins.Basins)}
	for _, lv := range extracted {
		report.ContourLevels = append(report.ContourLevels, lv.Value)
		report.ContourLineCounts = append(report.ContourLineCounts, len(lv.Lines))
	}
	return export.SaveJSONToFile(report, path)
}

type usageErr struct{ err error }

func (u usageErr) Error() string { return u.err.Error() }

func exitCodeFor(err error) int {
	if _, ok := err.(usageErr); ok {
		return clicommon.ExitUsage
	}
	return clicommon.ExitRuntime
}

func printHelp() {
	fmt.Printf("hydrotool version %s\n\n", version)
	fmt.Println("Computes flow direction/accumulation, river masks, drainage")
	fmt.Println("basins, contour lines, and optional erosion (spec.md §4.7-§4.9).")
	fmt.Println("\nUsage:")
	fmt.Println("  hydrotool --seed <u64> --size WxH [options]")
	fmt.Println("  hydrotool --load <world.bin> [options]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
}
