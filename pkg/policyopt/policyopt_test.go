package policyopt

import (
	"context"
	"math"
	"testing"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// fakeSimulator is a deterministic stand-in for the opaque per-day
// simulator collaborator (spec.md §6): money grows by a fixed amount
// per day scaled down by higher taxes, happiness decreases with tax
// burden. Good enough to exercise scoring/search without a concrete
// economy model.
type fakeSimulator struct {
	money      int64
	population int
	employed   int
	day        int
}

func (s *fakeSimulator) StepOnce(ctx context.Context, w *isoworld.World, cfg isoworld.SimConfig) error {
	s.day++
	taxSum := cfg.TaxResidential + cfg.TaxCommercial + cfg.TaxIndustrial
	s.money += int64(100 + taxSum*5 - cfg.MaintenanceRoad*3 - cfg.MaintenancePark*2)
	return nil
}

func (s *fakeSimulator) RefreshDerivedStats(ctx context.Context, w *isoworld.World, cfg isoworld.SimConfig) (isoworld.WorldStats, error) {
	taxSum := cfg.TaxResidential + cfg.TaxCommercial + cfg.TaxIndustrial
	happiness := 1.0 - float32(taxSum)*0.03
	if happiness < 0 {
		happiness = 0
	}
	return isoworld.WorldStats{
		Money:                  s.money,
		Population:             s.population,
		Employed:               s.employed,
		Happiness:              happiness,
		JobsCapacityAccessible: s.employed,
	}, nil
}

func newFakeWorld() *isoworld.World {
	return isoworld.NewWorld(4, 4, 7)
}

func TestExtractApplyPolicyRoundTrip(t *testing.T) {
	cfg := isoworld.SimConfig{TaxResidential: 1, TaxCommercial: 2, TaxIndustrial: 3, MaintenanceRoad: 4, MaintenancePark: 5}
	p := ExtractPolicyFromSimConfig(cfg)
	var out isoworld.SimConfig
	ApplyPolicyToSimConfig(p, &out)
	if out != cfg {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, cfg)
	}
}

func TestEvaluatePolicyCandidateDoesNotMutateBaseWorld(t *testing.T) {
	base := newFakeWorld()
	base.SetOverlay(0, 0, isoworld.OverlayRoad)
	snapshotBefore := base.At(0, 0)

	sim := &fakeSimulator{money: 1000, population: 50, employed: 40}
	cfg := DefaultConfig()
	cfg.EvalDays = 10

	_, err := EvaluatePolicyCandidate(context.Background(), base, isoworld.SimConfig{}, isoworld.PolicyCandidate{TaxResidential: 2}, cfg, sim)
	if err != nil {
		t.Fatal(err)
	}
	if base.At(0, 0) != snapshotBefore {
		t.Fatalf("base world tile mutated by evaluation")
	}
}

func TestEvaluatePolicyCandidateScoresHigherMoneyDeltaHigher(t *testing.T) {
	base := newFakeWorld()
	cfg := DefaultConfig()
	cfg.EvalDays = 20
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}

	lowTax := isoworld.PolicyCandidate{TaxResidential: 0, TaxCommercial: 0, TaxIndustrial: 0}
	highTax := isoworld.PolicyCandidate{TaxResidential: 6, TaxCommercial: 8, TaxIndustrial: 8}

	rLow, err := EvaluatePolicyCandidate(context.Background(), base, isoworld.SimConfig{}, lowTax, cfg, &fakeSimulator{})
	if err != nil {
		t.Fatal(err)
	}
	rHigh, err := EvaluatePolicyCandidate(context.Background(), base, isoworld.SimConfig{}, highTax, cfg, &fakeSimulator{})
	if err != nil {
		t.Fatal(err)
	}
	if rHigh.Score <= rLow.Score {
		t.Fatalf("expected higher-tax policy (more money per day) to score higher: low=%v high=%v", rLow.Score, rHigh.Score)
	}
}

func TestHardConstraintMinHappinessYieldsNegInf(t *testing.T) {
	base := newFakeWorld()
	cfg := DefaultConfig()
	cfg.EvalDays = 5
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinHappiness: 0.99, MinMoneyEnd: math.MinInt64}

	r, err := EvaluatePolicyCandidate(context.Background(), base, isoworld.SimConfig{}, isoworld.PolicyCandidate{TaxResidential: 6, TaxCommercial: 8, TaxIndustrial: 8}, cfg, &fakeSimulator{})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(r.Score, -1) {
		t.Fatalf("expected -Inf score under violated happiness floor, got %v", r.Score)
	}
}

func TestBetterIsStrictWeakOrderWithLexTieBreak(t *testing.T) {
	a := EvalResult{Score: 5.0, Policy: isoworld.PolicyCandidate{TaxResidential: 1}}
	b := EvalResult{Score: 5.0 + tieEps/2, Policy: isoworld.PolicyCandidate{TaxResidential: 2}}
	// within tieEps of each other: neither score "wins", lexicographically smaller policy wins.
	if !Better(a, b) {
		t.Fatalf("expected near-tie to break lexicographically in favor of a")
	}
	if Better(b, a) {
		t.Fatalf("Better must be asymmetric")
	}
}

func TestOptimizePoliciesExhaustiveFindsGlobalBestOverTinySpace(t *testing.T) {
	base := newFakeWorld()
	space := SearchSpace{
		TaxResMin: 0, TaxResMax: 2,
		TaxComMin: 0, TaxComMax: 2,
		TaxIndMin: 0, TaxIndMax: 2,
		MaintRoadMin: 0, MaintRoadMax: 1,
		MaintParkMin: 0, MaintParkMax: 1,
	}
	cfg := DefaultConfig()
	cfg.Method = MethodExhaustive
	cfg.EvalDays = 10
	cfg.TopK = 5
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}

	res, err := OptimizePolicies(context.Background(), base, isoworld.SimConfig{}, space, cfg, &fakeSimulator{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.MethodUsed != MethodExhaustive {
		t.Fatalf("expected exhaustive method for tiny space, got %v", res.MethodUsed)
	}
	wantCandidates := 3 * 3 * 3 * 2 * 2
	if res.CandidatesEvaluated != wantCandidates {
		t.Fatalf("expected %d candidates evaluated, got %d", wantCandidates, res.CandidatesEvaluated)
	}
	// Best is max taxes, zero maintenance, under this fake simulator.
	want := isoworld.PolicyCandidate{TaxResidential: 2, TaxCommercial: 2, TaxIndustrial: 2, MaintenanceRoad: 0, MaintenancePark: 0}
	if res.Best.Policy != want {
		t.Fatalf("expected global best %+v, got %+v (score %v)", want, res.Best.Policy, res.Best.Score)
	}
	for i := 1; i < len(res.Top); i++ {
		if Better(res.Top[i], res.Top[i-1]) {
			t.Fatalf("Top must be sorted descending by Better")
		}
	}
	if len(res.Top) > cfg.TopK {
		t.Fatalf("Top must be capped at TopK=%d, got %d", cfg.TopK, len(res.Top))
	}
}

func TestOptimizePoliciesBestScoreDominatesAllEvaluated(t *testing.T) {
	base := newFakeWorld()
	space := DefaultSearchSpace()
	cfg := DefaultConfig()
	cfg.Method = MethodCEM
	cfg.EvalDays = 5
	cfg.Iterations = 4
	cfg.Population = 12
	cfg.RNGSeed = 42
	cfg.TopK = 10
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}
	// The default space has 7*9*9*5*5 = 14175 candidates; a cap below
	// that keeps OptimizePolicies from switching to exhaustive search.
	cfg.MaxExhaustiveCandidates = 1000

	res, err := OptimizePolicies(context.Background(), base, isoworld.SimConfig{}, space, cfg, &fakeSimulator{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.MethodUsed != MethodCEM {
		t.Fatalf("expected CEM for a search space above MaxExhaustiveCandidates, got %v", res.MethodUsed)
	}
	for _, r := range res.Top {
		if r.Score > res.Best.Score+tieEps {
			t.Fatalf("best score %v is not >= evaluated score %v", res.Best.Score, r.Score)
		}
	}
	if len(res.BestByIteration) != cfg.Iterations {
		t.Fatalf("expected %d bestByIteration entries, got %d", cfg.Iterations, len(res.BestByIteration))
	}
	if len(res.DistByIteration) != cfg.Iterations {
		t.Fatalf("expected %d distByIteration entries, got %d", cfg.Iterations, len(res.DistByIteration))
	}
}

func TestOptimizePoliciesDeterministicAcrossRuns(t *testing.T) {
	base := newFakeWorld()
	space := DefaultSearchSpace()
	cfg := DefaultConfig()
	cfg.EvalDays = 5
	cfg.Iterations = 3
	cfg.Population = 10
	cfg.RNGSeed = 99
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}

	r1, err := OptimizePolicies(context.Background(), base, isoworld.SimConfig{}, space, cfg, &fakeSimulator{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := OptimizePolicies(context.Background(), base, isoworld.SimConfig{}, space, cfg, &fakeSimulator{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Best.Policy != r2.Best.Policy || r1.Best.Score != r2.Best.Score {
		t.Fatalf("expected deterministic result across runs with identical seed, got %+v vs %+v", r1.Best, r2.Best)
	}
}

func TestProgressReflectsCompletion(t *testing.T) {
	base := newFakeWorld()
	space := SearchSpace{TaxResMin: 0, TaxResMax: 1, TaxComMin: 0, TaxComMax: 1, TaxIndMin: 0, TaxIndMax: 1, MaintRoadMin: 0, MaintRoadMax: 0, MaintParkMin: 0, MaintParkMax: 0}
	cfg := DefaultConfig()
	cfg.Method = MethodExhaustive
	cfg.EvalDays = 2
	cfg.Objective = Objective{WMoneyDelta: 1.0, MinMoneyEnd: math.MinInt64}

	var progress Progress
	_, err := OptimizePolicies(context.Background(), base, isoworld.SimConfig{}, space, cfg, &fakeSimulator{}, &progress)
	if err != nil {
		t.Fatal(err)
	}
	if !progress.Done.Load() {
		t.Fatalf("expected progress.Done to be set after completion")
	}
	if !progress.Exhaustive.Load() {
		t.Fatalf("expected progress.Exhaustive to be true for the exhaustive method")
	}
	if progress.CandidatesEvaluated.Load() != 8 {
		t.Fatalf("expected 8 candidates evaluated, got %d", progress.CandidatesEvaluated.Load())
	}
}
