package runoff

import (
	"math"
	"sort"

	"github.com/masterblaster1999/isocity/pkg/hydrology"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// DemandMode selects which tiles' pollution exposure the mitigation
// planner optimizes for (spec.md §4.11).
type DemandMode uint8

const (
	DemandResidentialOccupants DemandMode = iota
	DemandAllOccupants
	DemandResidentialTiles
	DemandZoneTiles
)

// MitigationConfig controls SuggestRunoffMitigationParks.
type MitigationConfig struct {
	Runoff            Config
	DemandMode        DemandMode
	ParksToAdd        int
	MinSeparation     int
	AllowReplaceRoad  bool
	AllowReplaceZones bool
	ExcludeWater      bool
}

// DefaultMitigationConfig mirrors original_source/RunoffMitigation.hpp's defaults.
func DefaultMitigationConfig() MitigationConfig {
	return MitigationConfig{
		Runoff:            DefaultConfig(),
		DemandMode:        DemandResidentialOccupants,
		ParksToAdd:        12,
		MinSeparation:     3,
		AllowReplaceRoad:  false,
		AllowReplaceZones: false,
		ExcludeWater:      true,
	}
}

// Placement is one suggested new park tile and its estimated
// objective-reduction benefit.
type Placement struct {
	Tile    isoworld.Point
	Benefit float64
}

// MitigationResult is a park-placement plan and its before/after
// pollution objective.
type MitigationResult struct {
	W, H           int
	Cfg            MitigationConfig
	CandidateCount int

	PriorityRaw []float64
	Priority01  []float64
	PlanMask    []uint8
	Placements  []Placement

	ObjectiveBefore    float64
	ObjectiveAfter     float64
	ObjectiveReduction float64
}

func demandWeight(mode DemandMode, t isoworld.Tile) float64 {
	switch mode {
	case DemandResidentialOccupants:
		if t.Overlay == isoworld.OverlayResidential {
			return float64(t.Occupants)
		}
		return 0
	case DemandAllOccupants:
		if t.Overlay.IsZone() {
			return float64(t.Occupants)
		}
		return 0
	case DemandResidentialTiles:
		if t.Overlay == isoworld.OverlayResidential {
			return 1
		}
		return 0
	case DemandZoneTiles:
		if t.Overlay.IsZone() {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func weightedObjective(world *isoworld.World, mode DemandMode, concentration []float64) float64 {
	n := world.Width() * world.Height()
	sum := 0.0
	for i := 0; i < n; i++ {
		weight := demandWeight(mode, world.AtIndex(i))
		if weight != 0 {
			sum += weight * concentration[i]
		}
	}
	return sum
}

func manhattan(a, b isoworld.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// SuggestRunoffMitigationParks ranks every eligible tile by its
// estimated reduction in the pollution objective if converted to a
// park, using a single reverse (adjoint) pass over the flow DAG rather
// than re-simulating full downhill routing once per candidate tile.
// It then greedily selects cfg.ParksToAdd of the highest-benefit tiles
// subject to cfg.MinSeparation (Manhattan distance) between picks, and
// finally re-simulates the full pollution model once more with those
// picks applied to report an exact ObjectiveAfter — the adjoint
// estimate that drives ranking/selection is first-order (it assumes
// candidates don't interact) and would drift for picks close enough
// that one's upstream routing passes through another.
func SuggestRunoffMitigationParks(world *isoworld.World, cfg MitigationConfig) MitigationResult {
	w, h := world.Width(), world.Height()
	n := w * h
	out := MitigationResult{W: w, H: h, Cfg: cfg}
	if n == 0 {
		return out
	}

	base := ComputeRunoffPollution(world, cfg.Runoff, nil)
	out.ObjectiveBefore = weightedObjective(world, cfg.DemandMode, base.Concentration)

	heights := heightsFloat64(world)
	field := hydrology.BuildHydrologyField(heights, w, h)
	order := routingOrderDescending(heights)

	retain := make([]float64, n)
	for i := 0; i < n; i++ {
		retain[i] = retainFor(cfg.Runoff, world.AtIndex(i))
	}

	weight := make([]float64, n)
	for i := 0; i < n; i++ {
		weight[i] = demandWeight(cfg.DemandMode, world.AtIndex(i))
	}

	denom := make([]float64, n)
	for i := 0; i < n; i++ {
		denom[i] = math.Pow(min1(field.Accum[i]), cfg.Runoff.DilutionExponent)
	}

	// Forward pass: replay routed mass so each candidate's
	// pre-conversion mass[i] is available for the benefit estimate.
	mass := append([]float64{}, base.LocalLoad...)
	for _, i := range order {
		outflow := mass[i] * (1 - retain[i])
		if d := field.Dir[i]; d >= 0 {
			mass[d] += outflow
		}
	}

	// Reverse (adjoint) pass: g[i] = d(objective)/d(outflow[i]),
	// a[i] = d(objective)/d(mass[i]). Processing order is the reverse
	// of the forward routing order, i.e. downstream (low) cells first.
	g := make([]float64, n)
	a := make([]float64, n)
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		gi := weight[i] / denom[i]
		if d := field.Dir[i]; d >= 0 {
			gi += a[d]
		}
		g[i] = gi
		a[i] = (1 - retain[i]) * gi
	}

	excludeOverlay := func(t isoworld.Tile) bool {
		if t.Overlay == isoworld.OverlayPark {
			return true
		}
		if t.Overlay == isoworld.OverlayRoad && !cfg.AllowReplaceRoad {
			return true
		}
		if t.Overlay.IsZone() && !cfg.AllowReplaceZones {
			return true
		}
		if t.Overlay.IsCivic() {
			return true
		}
		if cfg.ExcludeWater && t.Terrain == isoworld.TerrainWater {
			return true
		}
		return false
	}

	type candidate struct {
		idx     int
		benefit float64
	}
	var candidates []candidate
	priorityRaw := make([]float64, n)

	for i := 0; i < n; i++ {
		t := world.AtIndex(i)
		if excludeOverlay(t) {
			continue
		}
		outflowOld := mass[i] * (1 - retain[i])
		massNew := mass[i] - base.LocalLoad[i] // park generates no local load
		outflowNew := massNew * (1 - cfg.Runoff.FilterPark)
		benefit := g[i] * (outflowOld - outflowNew)
		priorityRaw[i] = benefit
		candidates = append(candidates, candidate{idx: i, benefit: benefit})
	}
	out.CandidateCount = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].benefit != candidates[j].benefit {
			return candidates[i].benefit > candidates[j].benefit
		}
		return candidates[i].idx < candidates[j].idx
	})

	maxRaw := 0.0
	for _, c := range candidates {
		if c.benefit > maxRaw {
			maxRaw = c.benefit
		}
	}
	priority01 := make([]float64, n)
	if maxRaw > 0 {
		for i, v := range priorityRaw {
			if v > 0 {
				priority01[i] = v / maxRaw
			}
		}
	}
	out.PriorityRaw = priorityRaw
	out.Priority01 = priority01

	planMask := make([]uint8, n)
	var chosen []isoworld.Point
	var placements []Placement
	minSep := cfg.MinSeparation
	if minSep < 0 {
		minSep = 0
	}
	for _, c := range candidates {
		if len(chosen) >= cfg.ParksToAdd {
			break
		}
		x, y := isoworld.XY(c.idx, w)
		p := isoworld.Point{X: x, Y: y}
		tooClose := false
		for _, other := range chosen {
			if manhattan(p, other) < minSep {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		chosen = append(chosen, p)
		placements = append(placements, Placement{Tile: p, Benefit: c.benefit})
		planMask[c.idx] = 1
	}
	out.PlanMask = planMask
	out.Placements = placements

	after := simulateWithParks(world, cfg.Runoff, chosen)
	out.ObjectiveAfter = weightedObjective(world, cfg.DemandMode, after.Concentration)
	out.ObjectiveReduction = out.ObjectiveBefore - out.ObjectiveAfter

	return out
}

// simulateWithParks clones world, applies park conversions at picks,
// and re-runs the full pollution model to get an exact
// post-mitigation objective.
func simulateWithParks(world *isoworld.World, cfg Config, picks []isoworld.Point) Result {
	clone := world.Clone()
	for _, p := range picks {
		_ = clone.SetOverlay(p.X, p.Y, isoworld.OverlayPark)
	}
	return ComputeRunoffPollution(clone, cfg, nil)
}

// ApplyRunoffMitigationParks writes a mitigation plan's placements
// onto world as Park overlay, skipping any tile that has since become
// water.
func ApplyRunoffMitigationParks(world *isoworld.World, result MitigationResult) int {
	applied := 0
	for _, p := range result.Placements {
		if world.At(p.Tile.X, p.Tile.Y).Terrain == isoworld.TerrainWater {
			continue
		}
		if err := world.SetOverlay(p.Tile.X, p.Tile.Y, isoworld.OverlayPark); err == nil {
			applied++
		}
	}
	return applied
}
