// Package runoff computes downhill pollutant routing over a world's
// hydrology and, on top of that, adjoint-based park-placement
// mitigation planning (spec.md §4.10-§4.11).
package runoff

import (
	"math"
	"sort"

	"github.com/masterblaster1999/isocity/pkg/hydrology"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// Config tunes local pollutant load generation and filtration.
// Defaults are a direct translation of
// original_source/RunoffPollution.hpp's tuning constants.
type Config struct {
	RoadBase                float64
	RoadClassBoost          float64
	RoadTrafficBoost        float64
	ResidentialLoad         float64
	CommercialLoad          float64
	IndustrialLoad          float64
	CivicLoad               float64
	OccupantBoost           float64
	OccupantScale           float64
	ClampLoad               float64
	FallbackCommuteTraffic01 float64
	DilutionExponent        float64
	FilterPark              float64
	FilterGrass             float64
	FilterSand              float64
	FilterRoad              float64
	WaterIsSink             bool
	FilterWater             float64
	HighExposureThreshold01 float64
}

// DefaultConfig mirrors original_source/RunoffPollution.hpp's defaults.
func DefaultConfig() Config {
	return Config{
		RoadBase:                 0.10,
		RoadClassBoost:           0.05,
		RoadTrafficBoost:         0.55,
		ResidentialLoad:          0.05,
		CommercialLoad:           0.18,
		IndustrialLoad:           0.70,
		CivicLoad:                0.08,
		OccupantBoost:            0.10,
		OccupantScale:            60,
		ClampLoad:                1.0,
		FallbackCommuteTraffic01: 0.12,
		DilutionExponent:         1.0,
		FilterPark:               0.50,
		FilterGrass:              0.05,
		FilterSand:               0.02,
		FilterRoad:               0.00,
		WaterIsSink:              true,
		FilterWater:              0.95,
		HighExposureThreshold01:  0.65,
	}
}

// Result is the full per-tile pollutant routing analysis plus a
// residential exposure summary.
type Result struct {
	FlowAccum    []int
	MaxFlowAccum int

	LocalLoad   []float64
	LocalLoad01 []float64

	Concentration   []float64
	Pollution01     []float64
	MaxLocalLoad    float64
	MaxConcentration float64

	ResidentialTileCount      int
	ResidentPopulation        int
	ResidentAvgPollution01    float64
	ResidentHighExposureFrac  float64
}

func clamp01(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func min1(a int) float64 {
	if a < 1 {
		return 1
	}
	return float64(a)
}

// localLoadFor computes a tile's own pollutant generation before
// clamping.
func localLoadFor(cfg Config, t isoworld.Tile, traffic01 float64) float64 {
	switch {
	case t.Overlay == isoworld.OverlayRoad:
		lvl := float64(t.Level)
		if lvl < 1 {
			lvl = 1
		}
		return cfg.RoadBase + cfg.RoadClassBoost*(lvl-1) + cfg.RoadTrafficBoost*traffic01
	case t.Overlay == isoworld.OverlayResidential:
		return cfg.ResidentialLoad + cfg.OccupantBoost*occupancy01(cfg, t)
	case t.Overlay == isoworld.OverlayCommercial:
		return cfg.CommercialLoad + cfg.OccupantBoost*occupancy01(cfg, t)
	case t.Overlay == isoworld.OverlayIndustrial:
		return cfg.IndustrialLoad + cfg.OccupantBoost*occupancy01(cfg, t)
	case t.Overlay.IsCivic():
		return cfg.CivicLoad
	default:
		return 0
	}
}

func occupancy01(cfg Config, t isoworld.Tile) float64 {
	scale := cfg.OccupantScale
	if scale <= 0 {
		scale = 1
	}
	v := float64(t.Occupants) / scale
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// retainFor returns the fraction of incoming pollutant mass a tile
// filters out rather than passing downstream. Built-form tiles other
// than Park (roads and zoned/civic lots) are treated as impervious
// like roads; Park and the bare terrain classes use their own filter
// constants.
func retainFor(cfg Config, t isoworld.Tile) float64 {
	switch {
	case t.Overlay == isoworld.OverlayRoad:
		return cfg.FilterRoad
	case t.Overlay == isoworld.OverlayPark:
		return cfg.FilterPark
	case t.Overlay == isoworld.OverlayNone:
		switch t.Terrain {
		case isoworld.TerrainWater:
			if cfg.WaterIsSink {
				return cfg.FilterWater
			}
			return 0
		case isoworld.TerrainSand:
			return cfg.FilterSand
		default:
			return cfg.FilterGrass
		}
	default: // zoned or civic built tiles: impervious, like roads
		return cfg.FilterRoad
	}
}

func heightsFloat64(world *isoworld.World) []float64 {
	h := world.Heights()
	out := make([]float64, len(h))
	for i, v := range h {
		out[i] = float64(v)
	}
	return out
}

// routingOrderDescending returns tile indices sorted by descending
// height (ties broken by ascending index), matching
// original_source/RunoffPollution.cpp's stable downhill routing order.
func routingOrderDescending(heights []float64) []int {
	order := make([]int, len(heights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return heights[order[i]] > heights[order[j]] })
	return order
}

// ComputeRunoffPollution computes per-tile pollutant load, downhill
// routing, and filtered concentration over world, then summarizes
// residential exposure. traffic may be nil, in which case road tiles
// fall back to cfg.FallbackCommuteTraffic01.
func ComputeRunoffPollution(world *isoworld.World, cfg Config, traffic *isoworld.TrafficResult) Result {
	w, h := world.Width(), world.Height()
	n := w * h
	var out Result
	if n == 0 {
		return out
	}

	heights := heightsFloat64(world)
	field := hydrology.BuildHydrologyField(heights, w, h)
	out.FlowAccum = field.Accum
	out.MaxFlowAccum = field.MaxAccum

	localLoad := make([]float64, n)
	retain := make([]float64, n)
	maxTraffic := 1
	if traffic != nil && traffic.MaxTraffic > 0 {
		maxTraffic = traffic.MaxTraffic
	}

	for i := 0; i < n; i++ {
		t := world.AtIndex(i)
		tr01 := cfg.FallbackCommuteTraffic01
		if traffic != nil && i < len(traffic.RoadTraffic) {
			tr01 = float64(traffic.RoadTraffic[i]) / float64(maxTraffic)
		}
		localLoad[i] = clamp01(localLoadFor(cfg, t, tr01), cfg.ClampLoad)
		retain[i] = retainFor(cfg, t)
	}

	mass := append([]float64{}, localLoad...)
	concentration := make([]float64, n)
	order := routingOrderDescending(heights)

	for _, i := range order {
		outflow := mass[i] * (1 - retain[i])
		denom := math.Pow(min1(field.Accum[i]), cfg.DilutionExponent)
		concentration[i] = outflow / denom
		if d := field.Dir[i]; d >= 0 {
			mass[d] += outflow
		}
	}

	out.LocalLoad = localLoad
	out.Concentration = concentration
	out.MaxLocalLoad = maxOf(localLoad)
	out.MaxConcentration = maxOf(concentration)
	out.LocalLoad01 = normalizeBy(localLoad, out.MaxLocalLoad)
	out.Pollution01 = normalizeBy(concentration, out.MaxConcentration)

	population, count := 0, 0
	weightedSum, highExposure := 0.0, 0
	for i := 0; i < n; i++ {
		t := world.AtIndex(i)
		if t.Overlay != isoworld.OverlayResidential {
			continue
		}
		count++
		occ := int(t.Occupants)
		population += occ
		weightedSum += float64(occ) * out.Pollution01[i]
		if out.Pollution01[i] >= cfg.HighExposureThreshold01 {
			highExposure += occ
		}
	}
	out.ResidentialTileCount = count
	out.ResidentPopulation = population
	if population > 0 {
		out.ResidentAvgPollution01 = weightedSum / float64(population)
		out.ResidentHighExposureFrac = float64(highExposure) / float64(population)
	}

	return out
}

func maxOf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

func normalizeBy(v []float64, max float64) []float64 {
	out := make([]float64, len(v))
	if max <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / max
	}
	return out
}
