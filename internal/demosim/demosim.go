// Package demosim is a minimal isoworld.Simulator for exercising
// cmd/policyopt end to end. The per-day simulation is named in
// spec.md §1 as an opaque external collaborator ("stepOnce ... is
// consumed as an opaque black box with a specified interface") and is
// out of this toolkit's scope, so this is a from-scratch placeholder,
// not a port: a deterministic tax/maintenance-sensitive growth model,
// not a claim about how the real simulation computes WorldStats.
package demosim

import (
	"context"
	"sync"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// Simulator tracks accumulated treasury per world (keyed by pointer
// identity) since isoworld.World itself carries no money field; each
// PolicyOptimizer worker clones its own World, so distinct clones
// never contend on the same entry.
type Simulator struct {
	mu    sync.Mutex
	money map[*isoworld.World]int64
}

// New returns a ready-to-use demo simulator.
func New() *Simulator {
	return &Simulator{money: make(map[*isoworld.World]int64)}
}

var _ isoworld.Simulator = (*Simulator)(nil)

func census(world *isoworld.World) (population, jobsCapacity, residential, commercial, industrial int) {
	n := world.Width() * world.Height()
	for i := 0; i < n; i++ {
		t := world.AtIndex(i)
		switch t.Overlay {
		case isoworld.OverlayResidential:
			population += int(t.Occupants)
			residential++
		case isoworld.OverlayCommercial:
			jobsCapacity += 8 * int(t.Level)
			commercial++
		case isoworld.OverlayIndustrial:
			jobsCapacity += 12 * int(t.Level)
			industrial++
		}
	}
	return
}

// netPerDay computes a tax/maintenance-sensitive daily net income,
// positive tax rates and zone counts producing revenue, maintenance
// levels producing cost.
func netPerDay(world *isoworld.World, cfg isoworld.SimConfig, residential, commercial, industrial int) int64 {
	revenue := int64(cfg.TaxResidential)*int64(residential)*3 +
		int64(cfg.TaxCommercial)*int64(commercial)*5 +
		int64(cfg.TaxIndustrial)*int64(industrial)*6
	roadTiles, parkTiles := 0, 0
	n := world.Width() * world.Height()
	for i := 0; i < n; i++ {
		switch world.AtIndex(i).Overlay {
		case isoworld.OverlayRoad:
			roadTiles++
		case isoworld.OverlayPark:
			parkTiles++
		}
	}
	cost := int64(cfg.MaintenanceRoad)*int64(roadTiles) + int64(cfg.MaintenancePark)*int64(parkTiles)
	return revenue - cost
}

// StepOnce advances population toward a tax-sensitive equilibrium (higher
// tax burden slows growth) and accrues one day's net income.
func (s *Simulator) StepOnce(ctx context.Context, world *isoworld.World, cfg isoworld.SimConfig) error {
	population, jobsCapacity, residential, commercial, industrial := census(world)

	taxBurden := cfg.TaxResidential + cfg.TaxCommercial + cfg.TaxIndustrial
	growthRate := 0.04 - 0.003*float64(taxBurden)
	if growthRate < -0.02 {
		growthRate = -0.02
	}

	n := world.Width() * world.Height()
	for i := 0; i < n; i++ {
		t := world.AtIndex(i)
		if t.Overlay != isoworld.OverlayResidential {
			continue
		}
		capacity := 8 * int32(t.Level)
		delta := int32(growthRate * float64(capacity))
		if delta == 0 && growthRate > 0 {
			delta = 1
		}
		t.Occupants += delta
		if t.Occupants < 0 {
			t.Occupants = 0
		}
		if t.Occupants > capacity {
			t.Occupants = capacity
		}
		x, y := isoworld.XY(i, world.Width())
		_ = world.Set(x, y, t)
	}

	net := netPerDay(world, cfg, residential, commercial, industrial)
	_ = population
	_ = jobsCapacity

	s.mu.Lock()
	s.money[world] += net
	s.mu.Unlock()
	return nil
}

// RefreshDerivedStats recomputes reported metrics from the current
// tile census without advancing the simulation.
func (s *Simulator) RefreshDerivedStats(ctx context.Context, world *isoworld.World, cfg isoworld.SimConfig) (isoworld.WorldStats, error) {
	population, jobsCapacity, residential, commercial, industrial := census(world)

	employed := population
	if jobsCapacity < employed {
		employed = jobsCapacity
	}

	s.mu.Lock()
	money := s.money[world]
	s.mu.Unlock()

	net := netPerDay(world, cfg, residential, commercial, industrial)

	happiness := float32(0.75)
	taxBurden := cfg.TaxResidential + cfg.TaxCommercial + cfg.TaxIndustrial
	happiness -= float32(taxBurden) * 0.01
	if cfg.MaintenanceRoad+cfg.MaintenancePark > 0 {
		happiness += float32(cfg.MaintenanceRoad+cfg.MaintenancePark) * 0.01
	}
	if happiness < 0 {
		happiness = 0
	}
	if happiness > 1 {
		happiness = 1
	}

	congestion := float32(0)
	if jobsCapacity > 0 {
		congestion = float32(population) / float32(jobsCapacity+population)
	}

	return isoworld.WorldStats{
		Money:                  money,
		Income:                 maxI64(net, 0),
		Expenses:               maxI64(-net, 0),
		Population:             population,
		Employed:               employed,
		Happiness:              happiness,
		JobsCapacityAccessible: jobsCapacity,
		DemandResidential:      1 - happiness,
		AvgLandValue:           happiness,
		AvgCommuteTime:         1 + congestion,
		TrafficCongestion:      congestion,
	}, nil
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
