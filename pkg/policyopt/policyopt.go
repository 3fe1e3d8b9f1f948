// Package policyopt searches the small integer policy-tuple space (tax
// and maintenance levers) for the setting that maximizes a configurable
// objective, evaluated by repeated N-day simulation through the
// isoworld.Simulator collaborator (spec.md §4.12).
//
// Two search methods are supported: Exhaustive enumeration (used
// automatically whenever the search space is small enough) and the
// cross-entropy method (CEM), an iterative fit-and-resample scheme.
// PolicyOptimizer is the one component in this toolkit that
// intentionally parallelizes (spec.md §5): a work-stealing worker pool
// indexed by an atomic counter evaluates a batch of candidates, sharing
// one mutex-guarded memoization cache.
package policyopt

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/masterblaster1999/isocity/pkg/dmath"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// tieEps is the score-equality tolerance used by Better (spec.md §4.12:
// "better" = strictly higher score, >ε).
const tieEps = 1e-9

// Method selects the search strategy.
type Method uint8

const (
	MethodExhaustive Method = iota
	MethodCEM
)

// SearchSpace bounds each policy field's admissible integer range.
type SearchSpace struct {
	TaxResMin, TaxResMax     int
	TaxComMin, TaxComMax     int
	TaxIndMin, TaxIndMax     int
	MaintRoadMin, MaintRoadMax int
	MaintParkMin, MaintParkMax int
}

// DefaultSearchSpace mirrors original_source/PolicyOptimizer.hpp's defaults.
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		TaxResMin: 0, TaxResMax: 6,
		TaxComMin: 0, TaxComMax: 8,
		TaxIndMin: 0, TaxIndMax: 8,
		MaintRoadMin: 0, MaintRoadMax: 4,
		MaintParkMin: 0, MaintParkMax: 4,
	}
}

// candidateCount returns the exhaustive candidate count, saturating at
// math.MaxUint64 on overflow (used only to decide exhaustive vs CEM).
func (s SearchSpace) candidateCount() uint64 {
	span := func(mn, mx int) uint64 {
		if mx < mn {
			return 0
		}
		return uint64(mx - mn + 1)
	}
	a, b, c, d, e := span(s.TaxResMin, s.TaxResMax), span(s.TaxComMin, s.TaxComMax),
		span(s.TaxIndMin, s.TaxIndMax), span(s.MaintRoadMin, s.MaintRoadMax), span(s.MaintParkMin, s.MaintParkMax)
	if a == 0 || b == 0 || c == 0 || d == 0 || e == 0 {
		return 0
	}
	prod := float64(a) * float64(b) * float64(c) * float64(d) * float64(e)
	if prod > math.MaxUint64 {
		return math.MaxUint64
	}
	return a * b * c * d * e
}

// Objective weights the score linear combination and sets hard
// constraints (spec.md §4.12).
type Objective struct {
	WMoneyDelta    float64
	WPopulation    float64
	WHappyPop      float64
	WUnemployed    float64
	WCongestionPop float64

	MinHappiness float64
	MinMoneyEnd  int64
}

// DefaultObjective weights raw money delta only, with no hard floors.
func DefaultObjective() Objective {
	return Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}
}

// Config controls OptimizePolicies.
type Config struct {
	Method     Method
	EvalDays   int
	Iterations int // CEM only
	Population int // CEM only
	Elites     int // CEM only
	ExploreProb float64 // CEM only: per-sample uniform exploration probability

	RNGSeed uint64
	Threads int // 0 = GOMAXPROCS-ish auto

	MaxExhaustiveCandidates uint64
	TopK                    int

	Objective Objective
}

// DefaultConfig mirrors original_source/PolicyOptimizer.hpp's defaults.
func DefaultConfig() Config {
	return Config{
		Method:                  MethodCEM,
		EvalDays:                60,
		Iterations:              25,
		Population:              64,
		Elites:                  8,
		ExploreProb:             0.10,
		RNGSeed:                 1,
		MaxExhaustiveCandidates: 500000,
		TopK:                    32,
		Objective:               DefaultObjective(),
	}
}

// EvalMetrics records end-of-horizon and per-day-averaged simulation
// metrics for one evaluated candidate (spec.md §4.12).
type EvalMetrics struct {
	DaysSimulated int

	MoneyStart int64
	MoneyEnd   int64
	MoneyDelta int64

	PopulationEnd             int
	EmployedEnd               int
	JobsCapacityAccessibleEnd int

	HappinessEnd      float64
	AvgHappiness      float64
	DemandResidentialEnd float64
	AvgLandValueEnd   float64

	AvgCommuteTimeEnd float64
	TrafficCongestionEnd float64

	AvgNetPerDay float64
}

// EvalResult is the scored outcome of evaluating one PolicyCandidate.
type EvalResult struct {
	Policy  isoworld.PolicyCandidate
	Metrics EvalMetrics
	Score   float64
}

// Distribution is the CEM sampling distribution's per-field mean/stdev.
type Distribution struct {
	MeanTaxResidential, StdTaxResidential float64
	MeanTaxCommercial, StdTaxCommercial   float64
	MeanTaxIndustrial, StdTaxIndustrial   float64
	MeanMaintRoad, StdMaintRoad           float64
	MeanMaintPark, StdMaintPark           float64
}

// Result is the outcome of OptimizePolicies.
type Result struct {
	Best       EvalResult
	MethodUsed Method
	Top        []EvalResult // descending score, at most cfg.TopK

	CandidatesEvaluated int
	IterationsCompleted int

	BestByIteration []EvalResult   // CEM trace; 1 entry for exhaustive
	DistByIteration []Distribution // CEM trace only
}

// Progress holds atomic counters a caller may poll from another
// goroutine while OptimizePolicies runs (spec.md §5's "optional
// progress channel").
type Progress struct {
	IterationsTotal     atomic.Int64
	IterationsCompleted atomic.Int64
	CandidatesEvaluated atomic.Int64
	Exhaustive          atomic.Bool
	Done                atomic.Bool
}

// ExtractPolicyFromSimConfig reads the editable policy subset out of a
// SimConfig.
func ExtractPolicyFromSimConfig(cfg isoworld.SimConfig) isoworld.PolicyCandidate {
	return isoworld.PolicyCandidate{
		TaxResidential:  cfg.TaxResidential,
		TaxCommercial:   cfg.TaxCommercial,
		TaxIndustrial:   cfg.TaxIndustrial,
		MaintenanceRoad: cfg.MaintenanceRoad,
		MaintenancePark: cfg.MaintenancePark,
	}
}

// ApplyPolicyToSimConfig writes the policy subset onto cfg, leaving
// every other field untouched.
func ApplyPolicyToSimConfig(p isoworld.PolicyCandidate, cfg *isoworld.SimConfig) {
	cfg.TaxResidential = p.TaxResidential
	cfg.TaxCommercial = p.TaxCommercial
	cfg.TaxIndustrial = p.TaxIndustrial
	cfg.MaintenanceRoad = p.MaintenanceRoad
	cfg.MaintenancePark = p.MaintenancePark
}

func lexLess(a, b isoworld.PolicyCandidate) bool {
	if a.TaxResidential != b.TaxResidential {
		return a.TaxResidential < b.TaxResidential
	}
	if a.TaxCommercial != b.TaxCommercial {
		return a.TaxCommercial < b.TaxCommercial
	}
	if a.TaxIndustrial != b.TaxIndustrial {
		return a.TaxIndustrial < b.TaxIndustrial
	}
	if a.MaintenanceRoad != b.MaintenanceRoad {
		return a.MaintenanceRoad < b.MaintenanceRoad
	}
	return a.MaintenancePark < b.MaintenancePark
}

// Better implements the strict weak order spec.md §4.12 requires:
// higher score wins outright; near-ties (within tieEps) fall back to
// lexicographically-smallest policy.
func Better(a, b EvalResult) bool {
	if a.Score > b.Score+tieEps {
		return true
	}
	if b.Score > a.Score+tieEps {
		return false
	}
	return lexLess(a.Policy, b.Policy)
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sampleClampedNormalI(r *dmath.RNG, mean, stdDev float64, lo, hi int) int {
	if stdDev < 1e-6 {
		stdDev = 1e-6
	}
	x := mean + stdDev*r.NormFloat64()
	return clampI(int(math.Round(x)), lo, hi)
}

func sampleUniformI(r *dmath.RNG, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return r.IntRange(lo, hi)
}

func sampleCandidate(r *dmath.RNG, s SearchSpace, dist Distribution, exploreProb float64) isoworld.PolicyCandidate {
	if r.Float64() < exploreProb {
		return isoworld.PolicyCandidate{
			TaxResidential:  sampleUniformI(r, s.TaxResMin, s.TaxResMax),
			TaxCommercial:   sampleUniformI(r, s.TaxComMin, s.TaxComMax),
			TaxIndustrial:   sampleUniformI(r, s.TaxIndMin, s.TaxIndMax),
			MaintenanceRoad: sampleUniformI(r, s.MaintRoadMin, s.MaintRoadMax),
			MaintenancePark: sampleUniformI(r, s.MaintParkMin, s.MaintParkMax),
		}
	}
	return isoworld.PolicyCandidate{
		TaxResidential:  sampleClampedNormalI(r, dist.MeanTaxResidential, dist.StdTaxResidential, s.TaxResMin, s.TaxResMax),
		TaxCommercial:   sampleClampedNormalI(r, dist.MeanTaxCommercial, dist.StdTaxCommercial, s.TaxComMin, s.TaxComMax),
		TaxIndustrial:   sampleClampedNormalI(r, dist.MeanTaxIndustrial, dist.StdTaxIndustrial, s.TaxIndMin, s.TaxIndMax),
		MaintenanceRoad: sampleClampedNormalI(r, dist.MeanMaintRoad, dist.StdMaintRoad, s.MaintRoadMin, s.MaintRoadMax),
		MaintenancePark: sampleClampedNormalI(r, dist.MeanMaintPark, dist.StdMaintPark, s.MaintParkMin, s.MaintParkMax),
	}
}

func initialDist(s SearchSpace) Distribution {
	mid := func(lo, hi int) float64 { return 0.5 * float64(lo+hi) }
	span := func(lo, hi int) float64 {
		n := hi - lo + 1
		if n < 1 {
			n = 1
		}
		return float64(n)
	}
	return Distribution{
		MeanTaxResidential: mid(s.TaxResMin, s.TaxResMax), StdTaxResidential: 0.5 * span(s.TaxResMin, s.TaxResMax),
		MeanTaxCommercial: mid(s.TaxComMin, s.TaxComMax), StdTaxCommercial: 0.5 * span(s.TaxComMin, s.TaxComMax),
		MeanTaxIndustrial: mid(s.TaxIndMin, s.TaxIndMax), StdTaxIndustrial: 0.5 * span(s.TaxIndMin, s.TaxIndMax),
		MeanMaintRoad: mid(s.MaintRoadMin, s.MaintRoadMax), StdMaintRoad: 0.5 * span(s.MaintRoadMin, s.MaintRoadMax),
		MeanMaintPark: mid(s.MaintParkMin, s.MaintParkMax), StdMaintPark: 0.5 * span(s.MaintParkMin, s.MaintParkMax),
	}
}

func fitDist(elites []EvalResult) Distribution {
	var d Distribution
	if len(elites) == 0 {
		return d
	}
	meanStd := func(get func(isoworld.PolicyCandidate) int) (float64, float64) {
		n := float64(len(elites))
		mean := 0.0
		for _, e := range elites {
			mean += float64(get(e.Policy))
		}
		mean /= n
		vr := 0.0
		for _, e := range elites {
			dv := float64(get(e.Policy)) - mean
			vr += dv * dv
		}
		vr /= n
		return mean, math.Sqrt(math.Max(1e-12, vr))
	}
	m0, s0 := meanStd(func(p isoworld.PolicyCandidate) int { return p.TaxResidential })
	m1, s1 := meanStd(func(p isoworld.PolicyCandidate) int { return p.TaxCommercial })
	m2, s2 := meanStd(func(p isoworld.PolicyCandidate) int { return p.TaxIndustrial })
	m3, s3 := meanStd(func(p isoworld.PolicyCandidate) int { return p.MaintenanceRoad })
	m4, s4 := meanStd(func(p isoworld.PolicyCandidate) int { return p.MaintenancePark })
	d.MeanTaxResidential, d.StdTaxResidential = m0, math.Max(0.5, s0)
	d.MeanTaxCommercial, d.StdTaxCommercial = m1, math.Max(0.5, s1)
	d.MeanTaxIndustrial, d.StdTaxIndustrial = m2, math.Max(0.5, s2)
	d.MeanMaintRoad, d.StdMaintRoad = m3, math.Max(0.5, s3)
	d.MeanMaintPark, d.StdMaintPark = m4, math.Max(0.5, s4)
	return d
}

func scoreFromMetrics(m EvalMetrics, o Objective) float64 {
	if m.HappinessEnd < o.MinHappiness {
		return math.Inf(-1)
	}
	if m.MoneyEnd < o.MinMoneyEnd {
		return math.Inf(-1)
	}
	moneyDelta := float64(m.MoneyDelta)
	pop := float64(m.PopulationEnd)
	happyPop := m.AvgHappiness * pop
	unemployed := float64(m.PopulationEnd - m.EmployedEnd)
	if unemployed < 0 {
		unemployed = 0
	}
	congestionPop := m.TrafficCongestionEnd * pop
	return o.WMoneyDelta*moneyDelta + o.WPopulation*pop + o.WHappyPop*happyPop -
		o.WUnemployed*unemployed - o.WCongestionPop*congestionPop
}

// EvaluatePolicyCandidate simulates cfg.EvalDays days from a clone of
// baseWorld under cand's policy and scores the outcome (spec.md §4.12).
// It never mutates baseWorld (spec.md §5).
func EvaluatePolicyCandidate(ctx context.Context, baseWorld *isoworld.World, baseSimCfg isoworld.SimConfig, cand isoworld.PolicyCandidate, cfg Config, sim isoworld.Simulator) (EvalResult, error) {
	r := EvalResult{Policy: cand}

	w := baseWorld.Clone()
	simCfg := baseSimCfg
	ApplyPolicyToSimConfig(cand, &simCfg)

	days := cfg.EvalDays
	if days < 0 {
		days = 0
	}
	r.Metrics.DaysSimulated = days

	start, err := sim.RefreshDerivedStats(ctx, w, simCfg)
	if err != nil {
		return r, err
	}
	r.Metrics.MoneyStart = start.Money

	var sumHappy, sumNet float64
	for d := 0; d < days; d++ {
		if err := sim.StepOnce(ctx, w, simCfg); err != nil {
			return r, err
		}
		st, err := sim.RefreshDerivedStats(ctx, w, simCfg)
		if err != nil {
			return r, err
		}
		sumHappy += float64(st.Happiness)
		sumNet += float64(st.Income - st.Expenses)
	}

	final, err := sim.RefreshDerivedStats(ctx, w, simCfg)
	if err != nil {
		return r, err
	}
	if days == 0 {
		sumHappy = float64(final.Happiness)
	}

	r.Metrics.MoneyEnd = final.Money
	r.Metrics.MoneyDelta = final.Money - r.Metrics.MoneyStart
	r.Metrics.PopulationEnd = final.Population
	r.Metrics.EmployedEnd = final.Employed
	r.Metrics.JobsCapacityAccessibleEnd = final.JobsCapacityAccessible
	r.Metrics.HappinessEnd = float64(final.Happiness)
	denomDays := days
	if denomDays < 1 {
		denomDays = 1
	}
	r.Metrics.AvgHappiness = sumHappy / float64(denomDays)
	r.Metrics.DemandResidentialEnd = float64(final.DemandResidential)
	r.Metrics.AvgLandValueEnd = float64(final.AvgLandValue)
	r.Metrics.AvgCommuteTimeEnd = float64(final.AvgCommuteTime)
	r.Metrics.TrafficCongestionEnd = float64(final.TrafficCongestion)
	if days > 0 {
		r.Metrics.AvgNetPerDay = sumNet / float64(days)
	}

	r.Score = scoreFromMetrics(r.Metrics, cfg.Objective)
	return r, nil
}

// packPolicyKey packs the 5 small non-negative policy fields into a
// 60-bit memoization key, 12 bits each (spec.md §4.12).
func packPolicyKey(p isoworld.PolicyCandidate) uint64 {
	mask := func(v int) uint64 { return uint64(uint32(v)) & 0xFFF }
	return mask(p.TaxResidential) | mask(p.TaxCommercial)<<12 | mask(p.TaxIndustrial)<<24 |
		mask(p.MaintenanceRoad)<<36 | mask(p.MaintenancePark)<<48
}

type evalCache struct {
	mu sync.Mutex
	m  map[uint64]EvalResult
}

func (c *evalCache) evaluate(ctx context.Context, baseWorld *isoworld.World, baseSimCfg isoworld.SimConfig, cand isoworld.PolicyCandidate, cfg Config, sim isoworld.Simulator) (EvalResult, error) {
	key := packPolicyKey(cand)

	c.mu.Lock()
	if cached, ok := c.m[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	r, err := EvaluatePolicyCandidate(ctx, baseWorld, baseSimCfg, cand, cfg, sim)
	if err != nil {
		return r, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.m[key]; !ok || Better(r, existing) {
		c.m[key] = r
	} else {
		r = existing
	}
	return r, nil
}

// evaluateBatch runs cands through the cache using a work-stealing pool
// of goroutines indexed by an atomic counter (spec.md §5).
func evaluateBatch(ctx context.Context, baseWorld *isoworld.World, baseSimCfg isoworld.SimConfig, cands []isoworld.PolicyCandidate, cfg Config, cache *evalCache, sim isoworld.Simulator, progress *Progress) ([]EvalResult, error) {
	out := make([]EvalResult, len(cands))
	errs := make([]error, len(cands))

	threads := cfg.Threads
	if threads <= 0 {
		threads = maxParallelism()
	}
	if threads > len(cands) {
		threads = len(cands)
	}
	if threads <= 1 {
		for i, c := range cands {
			r, err := cache.evaluate(ctx, baseWorld, baseSimCfg, c, cfg, sim)
			out[i], errs[i] = r, err
			if progress != nil {
				progress.CandidatesEvaluated.Add(1)
			}
		}
	} else {
		var next atomic.Int64
		var wg sync.WaitGroup
		wg.Add(threads)
		for t := 0; t < threads; t++ {
			go func() {
				defer wg.Done()
				for {
					i := int(next.Add(1)) - 1
					if i >= len(cands) {
						return
					}
					r, err := cache.evaluate(ctx, baseWorld, baseSimCfg, cands[i], cfg, sim)
					out[i], errs[i] = r, err
					if progress != nil {
						progress.CandidatesEvaluated.Add(1)
					}
				}
			}()
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func maxParallelism() int {
	n := defaultParallelism()
	if n <= 0 {
		return 1
	}
	return n
}

func insertTopK(top []EvalResult, r EvalResult, k int) []EvalResult {
	if k <= 0 {
		return top
	}
	if len(top) < k {
		top = append(top, r)
		sort.SliceStable(top, func(i, j int) bool { return Better(top[i], top[j]) })
		return top
	}
	if !Better(r, top[len(top)-1]) {
		return top
	}
	top = append(top, r)
	sort.SliceStable(top, func(i, j int) bool { return Better(top[i], top[j]) })
	return top[:k]
}

// OptimizePolicies searches space for the best-scoring policy
// candidate, using exhaustive enumeration when the space is small
// enough (or explicitly requested) and CEM sampling otherwise
// (spec.md §4.12). progress may be nil.
func OptimizePolicies(ctx context.Context, baseWorld *isoworld.World, baseSimCfg isoworld.SimConfig, space SearchSpace, cfg Config, sim isoworld.Simulator, progress *Progress) (Result, error) {
	var out Result

	total := space.candidateCount()
	canExhaustive := total > 0 && total <= cfg.MaxExhaustiveCandidates
	method := cfg.Method
	if method == MethodExhaustive || canExhaustive {
		method = MethodExhaustive
	}
	out.MethodUsed = method

	if progress != nil {
		progress.Exhaustive.Store(method == MethodExhaustive)
		defer progress.Done.Store(true)
	}

	cache := &evalCache{m: make(map[uint64]EvalResult, 2048)}

	best := EvalResult{Score: math.Inf(-1)}
	var top []EvalResult

	if method == MethodExhaustive {
		if progress != nil {
			progress.IterationsTotal.Store(1)
		}
		for tr := space.TaxResMin; tr <= space.TaxResMax; tr++ {
			for tc := space.TaxComMin; tc <= space.TaxComMax; tc++ {
				for ti := space.TaxIndMin; ti <= space.TaxIndMax; ti++ {
					for mr := space.MaintRoadMin; mr <= space.MaintRoadMax; mr++ {
						for mp := space.MaintParkMin; mp <= space.MaintParkMax; mp++ {
							cand := isoworld.PolicyCandidate{
								TaxResidential: tr, TaxCommercial: tc, TaxIndustrial: ti,
								MaintenanceRoad: mr, MaintenancePark: mp,
							}
							r, err := cache.evaluate(ctx, baseWorld, baseSimCfg, cand, cfg, sim)
							if err != nil {
								return out, err
							}
							out.CandidatesEvaluated++
							if progress != nil {
								progress.CandidatesEvaluated.Add(1)
							}
							if Better(r, best) {
								best = r
							}
							top = insertTopK(top, r, cfg.TopK)
						}
					}
				}
			}
		}
		out.Best = best
		out.Top = top
		out.IterationsCompleted = 1
		out.BestByIteration = []EvalResult{best}
		if progress != nil {
			progress.IterationsCompleted.Store(1)
		}
		return out, nil
	}

	rng := dmath.NewRNG(cfg.RNGSeed, "policyopt", nil)
	dist := initialDist(space)

	iterations := cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}
	popN := cfg.Population
	if popN < 1 {
		popN = 1
	}
	eliteN := clampI(cfg.Elites, 1, popN)

	if progress != nil {
		progress.IterationsTotal.Store(int64(iterations))
	}

	for it := 0; it < iterations; it++ {
		cands := make([]isoworld.PolicyCandidate, 0, popN)
		if it > 0 && !math.IsInf(best.Score, -1) {
			cands = append(cands, best.Policy)
		}
		for len(cands) < popN {
			cands = append(cands, sampleCandidate(rng, space, dist, cfg.ExploreProb))
		}

		evaluated, err := evaluateBatch(ctx, baseWorld, baseSimCfg, cands, cfg, cache, sim, progress)
		if err != nil {
			return out, err
		}
		out.CandidatesEvaluated += len(evaluated)

		sort.SliceStable(evaluated, func(i, j int) bool { return Better(evaluated[i], evaluated[j]) })

		if len(evaluated) > 0 && Better(evaluated[0], best) {
			best = evaluated[0]
		}
		for _, r := range evaluated {
			top = insertTopK(top, r, cfg.TopK)
		}

		eliteCount := eliteN
		if eliteCount > len(evaluated) {
			eliteCount = len(evaluated)
		}
		dist = fitDist(evaluated[:eliteCount])

		out.BestByIteration = append(out.BestByIteration, best)
		out.DistByIteration = append(out.DistByIteration, dist)
		out.IterationsCompleted = it + 1
		if progress != nil {
			progress.IterationsCompleted.Store(int64(it + 1))
		}
	}

	out.Best = best
	out.Top = top
	return out, nil
}
