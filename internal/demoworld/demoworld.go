// Package demoworld synthesizes a placeholder World from (seed, size)
// for the CLI tools' `--seed`/`--size` input path (spec.md §6: "accepts
// `--load <path>` xor `--seed <u64>` + `--size WxH`"). World generation
// itself is out of the toolkit's scope (spec.md §1: the World/Tile grid
// is a "given" plain data model) and the original's own generator
// (`ProcGen.hpp`) was not among the retrieved original_source files, so
// this is a small from-scratch placeholder — a coarse height field plus
// a road lattice and zone scatter — good enough to exercise every
// analysis component end to end, not a port of anything.
package demoworld

import (
	"github.com/masterblaster1999/isocity/pkg/dmath"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// Config tunes the synthetic world.
type Config struct {
	RoadSpacing int // tiles between road lattice lines; <=0 disables roads
	WaterLevel  float32
	SandLevel   float32
}

// DefaultConfig returns a reasonable city-shaped default.
func DefaultConfig() Config {
	return Config{RoadSpacing: 8, WaterLevel: 0.32, SandLevel: 0.38}
}

// Generate builds a w*h World seeded deterministically from seed.
func Generate(w, h int, seed uint64, cfg Config) *isoworld.World {
	world := isoworld.NewWorld(w, h, seed)

	heights := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			heights[y*w+x] = synthHeight(x, y, w, h, seed)
		}
	}
	world.SetHeights(heights)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			switch {
			case t.Height < cfg.WaterLevel:
				t.Terrain = isoworld.TerrainWater
			case t.Height < cfg.SandLevel:
				t.Terrain = isoworld.TerrainSand
			default:
				t.Terrain = isoworld.TerrainGrass
			}
			world.Set(x, y, t)
		}
	}

	if cfg.RoadSpacing > 0 {
		layRoadLattice(world, cfg.RoadSpacing)
	}
	scatterZones(world, seed)

	return world
}

// synthHeight is a cheap, deterministic, libm-avoiding height function:
// a sum of two Q16 pseudo-sine terms at different periods plus
// coordinate-hashed noise, matching the toolkit's own no-libm
// convention (spec.md §5) for anything that must be bitwise-stable.
func synthHeight(x, y, w, h int, seed uint64) float32 {
	cx, cy := w/2, h/2
	dx, dy := x-cx, y-cy
	radial := dx*dx + dy*dy

	a := dmath.Q16ToFloat(dmath.PseudoSineQ16(int64(x+y), 37, int64(seed%37)))
	b := dmath.Q16ToFloat(dmath.PseudoSineQ16(int64(x-y+1000), 23, int64((seed/7)%23)))
	n := dmath.Q16ToFloat(dmath.NoiseQ16FromU32(uint32(x)*2654435761 ^ uint32(y)*40503 ^ uint32(seed)))

	base := 0.5 + 0.18*a + 0.12*b + 0.06*n
	falloff := float64(radial) / float64(1+w*w+h*h)
	v := base - 0.35*falloff

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return float32(v)
}

func layRoadLattice(world *isoworld.World, spacing int) {
	w, h := world.Width(), world.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			onLine := x%spacing == 0 || y%spacing == 0
			if !onLine {
				continue
			}
			t := world.At(x, y)
			if t.Terrain == isoworld.TerrainWater {
				continue
			}
			t.Overlay = isoworld.OverlayRoad
			t.Level = 1
			world.Set(x, y, t)
		}
	}
}

func scatterZones(world *isoworld.World, seed uint64) {
	rng := dmath.NewRNG(seed, "demoworld-zones", nil)
	w, h := world.Width(), world.Height()
	zoneKinds := []isoworld.Overlay{isoworld.OverlayResidential, isoworld.OverlayCommercial, isoworld.OverlayIndustrial, isoworld.OverlayPark}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			if t.Overlay != isoworld.OverlayNone || t.Terrain == isoworld.TerrainWater {
				continue
			}
			if !adjacentToRoad(world, x, y) {
				continue
			}
			if rng.Float64() > 0.55 {
				continue
			}
			kind := zoneKinds[rng.IntRange(0, len(zoneKinds)-1)]
			t.Overlay = kind
			if kind != isoworld.OverlayPark {
				t.Level = uint8(rng.IntRange(1, 3))
				t.Occupants = int32(rng.IntRange(0, 8)) * int32(t.Level)
			}
			world.Set(x, y, t)
		}
	}
}

func adjacentToRoad(world *isoworld.World, x, y int) bool {
	deltas := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, d := range deltas {
		nx, ny := x+d[0], y+d[1]
		if !world.InBounds(nx, ny) {
			continue
		}
		if world.At(nx, ny).Overlay == isoworld.OverlayRoad {
			return true
		}
	}
	return false
}
