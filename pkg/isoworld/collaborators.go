package isoworld

import "context"

// RoadPlacementCoster mirrors the collaborator RoadPlacementCost (spec.md §6):
// the per-tile money cost of building/upgrading a road.
type RoadPlacementCoster interface {
	RoadPlacementCost(currentLevel, targetLevel int, alreadyRoad, isBridge bool) int
}

// RoadApplier mirrors World.applyRoad (spec.md §6): the transactional
// road-build/upgrade primitive used by roadgraph.ApplyRoadResilienceBypass.
type RoadApplier interface {
	ApplyRoad(x, y, level int) (ApplyRoadResult, error)
}

// TrafficResult is the collaborator ComputeCommuteTraffic's output
// (spec.md §6): per-tile traffic plus routing metadata.
type TrafficResult struct {
	RoadTraffic []uint16 // size W*H, 0 off-road
	MaxTraffic  int
}

// CommuteTrafficComputer mirrors ComputeCommuteTraffic.
type CommuteTrafficComputer interface {
	ComputeCommuteTraffic(ctx context.Context, world *World, employedShare float64) (*TrafficResult, error)
}

// PathConfig configures the road-build A* collaborator.
type PathConfig struct {
	TargetLevel   int
	AllowBridges  bool
	MoneyObjective bool
	MaxPrimaryCost int // 0 = no limit
}

// PathResult is the outcome of a road-build A* search.
type PathResult struct {
	Path         []Point
	PrimaryCost  int
	MoneyCost    int
	NewTiles     int
	Steps        int
	Found        bool
}

// Pathfinder mirrors FindRoadBuildPathBetweenSets (spec.md §6): an A*
// search over buildable tiles between two node sets, honoring a set of
// forbidden directed moves (packed as (fromIdx<<32)|toIdx keys).
type Pathfinder interface {
	FindRoadBuildPathBetweenSets(world *World, starts, goals []Point, cfg PathConfig, blockedMoves map[uint64]struct{}) (PathResult, error)
}

// SimConfig is the subset of simulation configuration the policy
// optimizer is allowed to read/modify (spec.md §4.12).
type SimConfig struct {
	TaxResidential  int
	TaxCommercial   int
	TaxIndustrial   int
	MaintenanceRoad int
	MaintenancePark int
}

// Simulator mirrors the opaque per-day simulation (spec.md §6).
type Simulator interface {
	// StepOnce advances the world by one simulated day in place.
	StepOnce(ctx context.Context, world *World, cfg SimConfig) error
	// RefreshDerivedStats recomputes reported metrics without stepping.
	RefreshDerivedStats(ctx context.Context, world *World, cfg SimConfig) (WorldStats, error)
}
