// Package erosion applies thermal, river-carving, and smoothing passes
// to a heightfield in place (spec.md §4.9).
package erosion

import (
	"math"

	"github.com/masterblaster1999/isocity/pkg/dmath"
	"github.com/masterblaster1999/isocity/pkg/hydrology"
)

// Config tunes every erosion pass. A zero ThermalIterations,
// SmoothIterations or QuantizeScale skips that pass, and a zero
// RiverMinAccum selects the automatic threshold; DefaultConfig is the
// usual base.
type Config struct {
	Enabled           bool
	RiversEnabled     bool
	ThermalIterations int
	ThermalTalus      float64
	ThermalRate       float64
	RiverMinAccum     int // 0 = auto via hydrology.AutoRiverMinAccum
	RiverCarve        float64
	RiverCarvePower   float64
	SmoothIterations  int
	SmoothRate        float64
	QuantizeScale     int // 0 = no quantization
}

// DefaultConfig mirrors original_source/Erosion.hpp's defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RiversEnabled:     true,
		ThermalIterations: 20,
		ThermalTalus:      0.02,
		ThermalRate:       0.50,
		RiverMinAccum:     0,
		RiverCarve:        0.055,
		RiverCarvePower:   0.60,
		SmoothIterations:  1,
		SmoothRate:        0.25,
		QuantizeScale:     4096,
	}
}

var dx4 = [4]int{-1, 1, 0, 0}
var dy4 = [4]int{0, 0, -1, 1}

func idx(x, y, w int) int { return y*w + x }

// ApplyErosion runs thermal erosion, then river carving, then
// smoothing, then quantization, each gated by cfg, mutating heights in
// place. seed only affects the traversal order of the thermal pass
// (material transfer amounts are still computed from a full-grid
// snapshot each iteration, so results stay order-independent within a
// pass; the shuffle exists only so repeated calls with different seeds
// don't all erode the exact same corner of the map first on partial
// runs cut short by a future time budget).
func ApplyErosion(heights []float64, w, h int, cfg Config, seed uint64) {
	if !cfg.Enabled || w <= 0 || h <= 0 {
		return
	}
	n := w * h

	applyThermal(heights, w, h, cfg, seed)

	if cfg.RiversEnabled {
		applyRiverCarve(heights, w, h, cfg)
	}

	applySmoothing(heights, w, h, cfg)

	if cfg.QuantizeScale > 0 {
		q := float64(cfg.QuantizeScale)
		for i := 0; i < n; i++ {
			heights[i] = math.Round(heights[i]*q) / q
		}
	}
}

func applyThermal(heights []float64, w, h int, cfg Config, seed uint64) {
	if cfg.ThermalIterations <= 0 {
		return
	}
	n := w * h
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	rng := dmath.NewRNG(seed, "erosion-thermal-order", nil)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	delta := make([]float64, n)
	for iter := 0; iter < cfg.ThermalIterations; iter++ {
		for i := range delta {
			delta[i] = 0
		}
		for _, i := range order {
			x, y := i%w, i/w
			lowest := -1
			lowestHeight := heights[i]
			for k := 0; k < 4; k++ {
				nx, ny := x+dx4[k], y+dy4[k]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := idx(nx, ny, w)
				if heights[j] < lowestHeight {
					lowest = j
					lowestHeight = heights[j]
				}
			}
			if lowest < 0 {
				continue
			}
			diff := heights[i] - lowestHeight
			if diff <= cfg.ThermalTalus {
				continue
			}
			amount := cfg.ThermalRate * (diff - cfg.ThermalTalus)
			delta[i] -= amount
			delta[lowest] += amount
		}
		for i := 0; i < n; i++ {
			heights[i] += delta[i]
		}
	}
}

func applyRiverCarve(heights []float64, w, h int, cfg Config) {
	field := hydrology.BuildHydrologyField(heights, w, h)
	if field.Empty() || field.MaxAccum <= 0 {
		return
	}

	minAccum := cfg.RiverMinAccum
	if minAccum <= 0 {
		minAccum = hydrology.AutoRiverMinAccum(w * h)
	}

	for i, a := range field.Accum {
		if a < minAccum {
			continue
		}
		norm := float64(a) / float64(field.MaxAccum)
		carve := cfg.RiverCarve * math.Pow(norm, cfg.RiverCarvePower)
		heights[i] -= carve
	}
}

func applySmoothing(heights []float64, w, h int, cfg Config) {
	if cfg.SmoothIterations <= 0 {
		return
	}
	n := w * h
	buf := make([]float64, n)

	for iter := 0; iter < cfg.SmoothIterations; iter++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := idx(x, y, w)
				sum, count := 0.0, 0
				for k := 0; k < 4; k++ {
					nx, ny := x+dx4[k], y+dy4[k]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					sum += heights[idx(nx, ny, w)]
					count++
				}
				if count == 0 {
					buf[i] = heights[i]
					continue
				}
				avg := sum / float64(count)
				buf[i] = heights[i]*(1-cfg.SmoothRate) + avg*cfg.SmoothRate
			}
		}
		copy(heights, buf)
	}
}
