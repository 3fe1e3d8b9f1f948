// Command economytool computes the deterministic per-day sector/
// district/trade economy snapshot for a world, grounded on
// original_source/Economy.hpp and TradeMarket.hpp (no dedicated CLI
// driver survived in original_source/src/cli; flag naming follows the
// sibling hydrotool/policyopt tools' conventions instead).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masterblaster1999/isocity/internal/clicommon"
	"github.com/masterblaster1999/isocity/pkg/economy"
	"github.com/masterblaster1999/isocity/pkg/export"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

const version = "1.0.0"

var (
	loadPath        = flag.String("load", "", "Path to a saved world (xor --seed/--size)")
	seedFlag        = flag.Uint64("seed", 1, "World seed, used with --size when --load is empty")
	sizeFlag        = flag.String("size", "", "World size WxH, used with --seed when --load is empty")
	day             = flag.Int("day", 0, "Simulated day to evaluate")
	daysToTrace     = flag.Int("trace-days", 0, "Also report a day-by-day trace of this many days starting at --day")
	sectorCount     = flag.Int("sectors", 6, "Number of economic sectors to model")
	macroPeriodDays = flag.Float64("macro-period-days", 180, "Macro business-cycle period in days")
	jsonOut         = flag.String("json", "", "Write a JSON economy report to this path")
	csvOut          = flag.String("csv", "", "Write a per-district CSV report to this path")
	writeSave       = flag.String("write-save", "", "Write the (unmodified) source world to this path")
	verbose         = flag.Bool("verbose", false, "Enable verbose output")
	help            = flag.Bool("help", false, "Show help message")
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

	cfg := economy.DefaultConfig()
	cfg.SectorCount = *sectorCount
	cfg.MacroPeriodDays = *macroPeriodDays

	snap := economy.ComputeEconomySnapshot(world, *day, cfg)
	if *verbose {
		fmt.Printf("Day %d: economyIndex=%.3f inflation=%.3f cityWealth=%.3f activeEvent=%v\n",
			snap.Day, snap.EconomyIndex, snap.Inflation, snap.CityWealth, snap.ActiveEvent.Kind)
	}

	var trace []economy.Snapshot
	if *daysToTrace > 0 {
		trace = make([]economy.Snapshot, 0, *daysToTrace)
		for d := *day; d < *day+*daysToTrace; d++ {
			trace = append(trace, economy.ComputeEconomySnapshot(world, d, cfg))
		}
	}

	if *jsonOut != "" {
		if err := writeJSONReport(*jsonOut, world, snap, trace); err != nil {
			return err
		}
	}
	if *csvOut != "" {
		if err := writeDistrictCSV(*csvOut, snap); err != nil {
			return err
		}
	}
	if err := clicommon.WriteSaveIfRequested(*writeSave, world); err != nil {
		return err
	}

	fmt.Printf("economytool: day %d, economyIndex %.3f, cityWealth %.3f (%v)\n", snap.Day, snap.EconomyIndex, snap.CityWealth, time.Since(start))
	return nil
}

func writeDistrictCSV(path string, snap economy.Snapshot) error {
	headers := []string{"district", "dominantSector", "wealth", "productivity", "taxBaseMult", "industrialSupplyMult", "commercialDemandMult"}
	rows := make([][]string, 0, len(snap.Districts))
	for i, d := range snap.Districts {
		rows = append(rows, []string{
			itoa(i), itoa(d.DominantSector), ftoa(d.Wealth), ftoa(d.Productivity),
			ftoa(d.TaxBaseMult), ftoa(d.IndustrialSupplyMult), ftoa(d.CommercialDemandMult),
		})
	}
	return export.SaveCSVToFile(path, headers, rows)
}

type jsonReport struct {
	Day          int               `json:"day"`
	EconomyIndex float64           `json:"economyIndex"`
	Inflation    float64           `json:"inflation"`
	CityWealth   float64           `json:"cityWealth"`
	ActiveEvent  string            `json:"activeEvent"`
	Sectors      []jsonSector      `json:"sectors"`
	Districts    []jsonDistrict    `json:"districts"`
	Trace        []jsonTraceEntry  `json:"trace,omitempty"`
}

type jsonSector struct {
	Name               string  `json:"name"`
	IndustrialAffinity float64 `json:"industrialAffinity"`
	CommercialAffinity float64 `json:"commercialAffinity"`
	Volatility         float64 `json:"volatility"`
}

type jsonDistrict struct {
	DominantSector int     `json:"dominantSector"`
	Wealth         float64 `json:"wealth"`
	Productivity   float64 `json:"productivity"`
}

type jsonTraceEntry struct {
	Day          int     `json:"day"`
	EconomyIndex float64 `json:"economyIndex"`
	Inflation    float64 `json:"inflation"`
}

func writeJSONReport(path string, world *isoworld.World, snap economy.Snapshot, trace []economy.Snapshot) error {
	report := jsonReport{
		Day: snap.Day, EconomyIndex: snap.EconomyIndex, Inflation: snap.Inflation,
		CityWealth: snap.CityWealth, ActiveEvent: fmt.Sprintf("%v", snap.ActiveEvent.Kind),
	}
	for _, s := range snap.Sectors {
		report.Sectors = append(report.Sectors, jsonSector{
			Name: s.Name, IndustrialAffinity: s.IndustrialAffinity,
			CommercialAffinity: s.CommercialAffinity, Volatility: s.Volatility,
		})
	}
	for _, d := range snap.Districts {
		report.Districts = append(report.Districts, jsonDistrict{
			DominantSector: d.DominantSector, Wealth: d.Wealth, Productivity: d.Productivity,
		})
	}
	for _, t := range trace {
		report.Trace = append(report.Trace, jsonTraceEntry{Day: t.Day, EconomyIndex: t.EconomyIndex, Inflation: t.Inflation})
	}
	return export.SaveJSONToFile(report, path)
}

func itoa(v int) string { return fmt.Sprintf("%d", v) }
func ftoa(v float64) string { return fmt.Sprintf("%.4f", v) }

type usageErr struct{ err error }

func (u usageErr) Error() string { return u.err.Error() }

func exitCodeFor(err error) int {
	if _, ok := err.(usageErr); ok {
		return clicommon.ExitUsage
	}
	return clicommon.ExitRuntime
}

func printHelp() {
	fmt.Printf("economytool version %s\n\n", version)
	fmt.Println("Computes the deterministic per-day sector/district economy")
	fmt.Println("snapshot for a world (spec.md §4.13-§4.14).")
	fmt.Println("\nUsage:")
	fmt.Println("  economytool --seed <u64> --size WxH [options]")
	fmt.Println("  economytool --load <world.bin> [options]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
}
