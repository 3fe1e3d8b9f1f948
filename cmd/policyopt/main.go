// Command policyopt searches the tax/maintenance policy space for the
// setting that maximizes a configurable objective over repeated
// simulated days, grounded on original_source/src/cli/policyopt.cpp.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/masterblaster1999/isocity/internal/clicommon"
	"github.com/masterblaster1999/isocity/internal/demosim"
	"github.com/masterblaster1999/isocity/pkg/export"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
	"github.com/masterblaster1999/isocity/pkg/policyopt"
)

const version = "1.0.0"

var (
	loadPath    = flag.String("load", "", "Path to a saved world (xor --seed/--size)")
	seedFlag    = flag.Uint64("seed", 1, "World seed, used with --size when --load is empty")
	sizeFlag    = flag.String("size", "", "World size WxH, used with --seed when --load is empty")
	method      = flag.String("method", "cem", "Search method: exhaustive or cem")
	evalDays    = flag.Int("eval-days", 60, "Simulated days per candidate evaluation")
	iterations  = flag.Int("iterations", 25, "CEM iterations")
	population  = flag.Int("population", 64, "CEM population per iteration")
	elites      = flag.Int("elites", 8, "CEM elite count per iteration")
	exploreProb = flag.Float64("explore-prob", 0.10, "CEM per-sample uniform exploration probability")
	rngSeed     = flag.Uint64("rng-seed", 1, "Optimizer RNG seed")
	threads     = flag.Int("threads", 0, "Worker count (0 = auto)")
	topK        = flag.Int("top-k", 32, "Candidates to retain in the --json top list")
	configPath  = flag.String("config", "", "Load search defaults from a YAML config file (pkg/isoconfig)")
	wMoney      = flag.Float64("w-money", 1.0, "Objective weight: money delta")
	wPopulation = flag.Float64("w-population", 0, "Objective weight: ending population")
	wHappy      = flag.Float64("w-happy", 0, "Objective weight: happy population")
	wUnemployed = flag.Float64("w-unemployed", 0, "Objective weight: unemployed population (penalty)")
	wCongestion = flag.Float64("w-congestion", 0, "Objective weight: congested population (penalty)")
	jsonOut     = flag.String("json", "", "Write a JSON optimization report to this path")
	apply       = flag.Bool("apply", false, "Print the best policy's tax and maintenance levels (taxRes=.. taxCom=.. taxInd=.. maintRoad=.. maintPark=..)")
	writeSave   = flag.String("write-save", "", "Write the (unmodified) source world to this path")
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
	if haveFileCfg {
		pc := fileCfg.PolicyOpt
		if !explicit["method"] {
			*method = pc.Method
		}
		if !explicit["eval-days"] {
			*evalDays = pc.EvalDays
		}
		if !explicit["iterations"] {
			*iterations = pc.Iterations
		}
		if !explicit["population"] {
			*population = pc.Population
		}
		if !explicit["elites"] {
			*elites = pc.Elites
		}
		if !explicit["threads"] {
			*threads = pc.Threads
		}
		if !explicit["rng-seed"] {
			*rngSeed = pc.RNGSeed
		}
		if !explicit["top-k"] {
			*topK = pc.TopK
		}
	}

	world, err := clicommon.LoadOrGenerate(*loadPath, *seedFlag, *sizeFlag)
	if err != nil {
		return usageErr{err}
	}

	cfg := policyopt.DefaultConfig()
	switch *method {
	case "exhaustive":
		cfg.Method = policyopt.MethodExhaustive
	case "cem":
		cfg.Method = policyopt.MethodCEM
	default:
		return usageErr{fmt.Errorf("invalid --method %q, want exhaustive or cem", *method)}
	}
	cfg.EvalDays = *evalDays
	cfg.Iterations = *iterations
	cfg.Population = *population
	cfg.Elites = *elites
	cfg.ExploreProb = *exploreProb
	cfg.RNGSeed = *rngSeed
	cfg.Threads = *threads
	cfg.TopK = *topK
	cfg.Objective = policyopt.Objective{
		WMoneyDelta: *wMoney, WPopulation: *wPopulation, WHappyPop: *wHappy,
		WUnemployed: *wUnemployed, WCongestionPop: *wCongestion,
		MinMoneyEnd: cfg.Objective.MinMoneyEnd,
	}

	baseSimCfg := isoworld.SimConfig{TaxResidential: 3, TaxCommercial: 3, TaxIndustrial: 3, MaintenanceRoad: 1, MaintenancePark: 1}

	var progress policyopt.Progress
	sim := demosim.New()
	result, err := policyopt.OptimizePolicies(context.Background(), world, baseSimCfg, policyopt.DefaultSearchSpace(), cfg, sim, &progress)
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Printf("Method used: %v  Candidates evaluated: %d  Best score: %.4f\n",
			result.MethodUsed, result.CandidatesEvaluated, result.Best.Score)
	}

	if *apply {
		p := result.Best.Policy
		fmt.Printf("Best policy: taxRes=%d taxCom=%d taxInd=%d maintRoad=%d maintPark=%d\n",
			p.TaxResidential, p.TaxCommercial, p.TaxIndustrial, p.MaintenanceRoad, p.MaintenancePark)
	}
	if *jsonOut != "" {
		if err := writeJSONReport(*jsonOut, world, result); err != nil {
			return err
		}
	}
	if err := clicommon.WriteSaveIfRequested(*writeSave, world); err != nil {
		return err
	}

	fmt.Printf("policyopt: %d candidates evaluated, best score %.4f (%v)\n", result.CandidatesEvaluated, result.Best.Score, time.Since(start))
	return nil
}

type jsonReport struct {
	Width               int           `json:"width"`
	Height              int           `json:"height"`
	MethodUsed          string        `json:"methodUsed"`
	CandidatesEvaluated int           `json:"candidatesEvaluated"`
	IterationsCompleted int           `json:"iterationsCompleted"`
	BestPolicy          jsonPolicy    `json:"bestPolicy"`
	BestScore           float64       `json:"bestScore"`
	BestMetrics         jsonMetrics   `json:"bestMetrics"`
	Top                 []jsonTopItem `json:"top,omitempty"`
}

type jsonPolicy struct {
	TaxResidential  int `json:"taxResidential"`
	TaxCommercial   int `json:"taxCommercial"`
	TaxIndustrial   int `json:"taxIndustrial"`
	MaintenanceRoad int `json:"maintenanceRoad"`
	MaintenancePark int `json:"maintenancePark"`
}

type jsonMetrics struct {
	MoneyDelta   int64   `json:"moneyDelta"`
	PopulationEnd int    `json:"populationEnd"`
	AvgHappiness float64 `json:"avgHappiness"`
}

type jsonTopItem struct {
	Policy jsonPolicy `json:"policy"`
	Score  float64    `json:"score"`
}

func toJSONPolicy(p isoworld.PolicyCandidate) jsonPolicy {
	return jsonPolicy{
		TaxResidential: p.TaxResidential, TaxCommercial: p.TaxCommercial, TaxIndustrial: p.TaxIndustrial,
		MaintenanceRoad: p.MaintenanceRoad, MaintenancePark: p.MaintenancePark,
	}
}

func writeJSONReport(path string, world *isoworld.World, r policyopt.Result) error {
	report := jsonReport{
		Width: world.Width(), Height: world.Height(),
		MethodUsed:          methodName(r.MethodUsed),
		CandidatesEvaluated: r.CandidatesEvaluated,
		IterationsCompleted: r.IterationsCompleted,
		BestPolicy:          toJSONPolicy(r.Best.Policy),
		BestScore:           r.Best.Score,
		BestMetrics: jsonMetrics{
			MoneyDelta: r.Best.Metrics.MoneyDelta, PopulationEnd: r.Best.Metrics.PopulationEnd,
			AvgHappiness: r.Best.Metrics.AvgHappiness,
		},
	}
	for _, t := range r.Top {
		report.Top = append(report.Top, jsonTopItem{Policy: toJSONPolicy(t.Policy), Score: t.Score})
	}
	return export.SaveJSONToFile(report, path)
}

func methodName(m policyopt.Method) string {
	if m == policyopt.MethodExhaustive {
		return "exhaustive"
	}
	return "cem"
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
	fmt.Printf("policyopt version %s\n\n", version)
	fmt.Println("Searches the tax/maintenance policy space for the setting")
	fmt.Println("maximizing a configurable simulated objective (spec.md §4.12).")
	fmt.Println("\nUsage:")
	fmt.Println("  policyopt --seed <u64> --size WxH [options]")
	fmt.Println("  policyopt --load <world.bin> [options]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
}
