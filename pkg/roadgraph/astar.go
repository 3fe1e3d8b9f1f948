package roadgraph

import (
	"container/heap"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// buildCostPerLevel is the money cost of laying one new road tile at a
// given target level, grounded on original_source/RoadResilienceBypass.hpp's
// EstimateMoneyCostForRoadPath convention (higher-capacity roads cost more).
var buildCostPerLevel = [4]int{0, 20, 60, 150}

const bridgeCostMultiplier = 4

// astarNode is a search-queue entry ordered by f = g + h.
type astarNode struct {
	f, g int
	tile isoworld.Point
}
type astarPQ []astarNode

func (h astarPQ) Len() int            { return len(h) }
func (h astarPQ) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h astarPQ) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *astarPQ) Push(x interface{}) { *h = append(*h, x.(astarNode)) }
func (h *astarPQ) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
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

// AStarPathfinder implements isoworld.Pathfinder with a tile-grid A*
// search that prefers reusing existing road tiles and charges
// construction cost for new ones.
type AStarPathfinder struct{}

// FindRoadBuildPathBetweenSets runs A* over the tile grid from any tile
// in starts to any tile in goals. blockedMoves (as produced by
// BuildBlockedMovesForRoadGraphEdge) excludes a severed bridge's
// tile-to-tile steps so the search is forced around it (spec.md §4.5).
func (AStarPathfinder) FindRoadBuildPathBetweenSets(world *isoworld.World, starts, goals []isoworld.Point, cfg isoworld.PathConfig, blockedMoves map[uint64]struct{}) (isoworld.PathResult, error) {
	w, h := world.Width(), world.Height()
	if w <= 0 || h <= 0 || len(starts) == 0 || len(goals) == 0 {
		return isoworld.PathResult{}, nil
	}

	goalSet := make(map[isoworld.Point]bool, len(goals))
	for _, g := range goals {
		goalSet[g] = true
	}

	level := cfg.TargetLevel
	if level < 1 || level > 3 {
		level = 1
	}
	buildCost := buildCostPerLevel[level]

	stepCost := func(from, to isoworld.Point) (cost int, newTile bool, blocked bool) {
		t := world.At(to.X, to.Y)
		if t.Overlay == isoworld.OverlayRoad {
			return travelTimeMilli(t.Level), false, false
		}
		if t.Terrain == isoworld.TerrainWater {
			if !cfg.AllowBridges {
				return 0, false, true
			}
			return travelTimeMilli(uint8(level)) * bridgeCostMultiplier, true, false
		}
		if t.Overlay != isoworld.OverlayNone {
			return 0, false, true // zoned/civic tiles are not bulldozable by a bypass
		}
		return travelTimeMilli(uint8(level)), true, false
	}

	nodeCost := func(from, to isoworld.Point) int {
		_, newTile, _ := stepCost(from, to)
		if cfg.MoneyObjective {
			if newTile {
				return buildCost
			}
			return 1 // negligible money cost for reusing an existing road tile
		}
		c, _, _ := stepCost(from, to)
		return c
	}

	heuristic := func(p isoworld.Point) int {
		best := -1
		for _, g := range goals {
			d := manhattan(p, g)
			if best < 0 || d < best {
				best = d
			}
		}
		if cfg.MoneyObjective {
			return best * 1
		}
		return best * travelTimeMilli(uint8(level))
	}

	gScore := make(map[isoworld.Point]int)
	cameFrom := make(map[isoworld.Point]isoworld.Point)
	visited := make(map[isoworld.Point]bool)

	pqh := &astarPQ{}
	heap.Init(pqh)
	for _, s := range starts {
		if !world.InBounds(s.X, s.Y) {
			continue
		}
		if _, ok := gScore[s]; !ok {
			gScore[s] = 0
			heap.Push(pqh, astarNode{f: heuristic(s), g: 0, tile: s})
		}
	}

	var found isoworld.Point
	ok := false

	for pqh.Len() > 0 {
		cur := heap.Pop(pqh).(astarNode)
		if visited[cur.tile] {
			continue
		}
		if cur.g != gScore[cur.tile] {
			continue
		}
		visited[cur.tile] = true

		if goalSet[cur.tile] {
			found = cur.tile
			ok = true
			break
		}

		for k := 0; k < 4; k++ {
			nx, ny := cur.tile.X+dx4[k], cur.tile.Y+dy4[k]
			if !world.InBounds(nx, ny) {
				continue
			}
			next := isoworld.Point{X: nx, Y: ny}
			if visited[next] {
				continue
			}
			fromIdx := tileIdx(cur.tile, w)
			toIdx := tileIdx(next, w)
			if blockedMoves != nil {
				if _, blocked := blockedMoves[packMove(fromIdx, toIdx)]; blocked {
					continue
				}
			}
			_, _, blocked := stepCost(cur.tile, next)
			if blocked {
				continue
			}
			step := nodeCost(cur.tile, next)
			ng := cur.g + step
			if cfg.MaxPrimaryCost > 0 && ng > cfg.MaxPrimaryCost {
				continue
			}
			if existing, seen := gScore[next]; !seen || ng < existing {
				gScore[next] = ng
				cameFrom[next] = cur.tile
				heap.Push(pqh, astarNode{f: ng + heuristic(next), g: ng, tile: next})
			}
		}
	}

	if !ok {
		return isoworld.PathResult{Found: false}, nil
	}

	var path []isoworld.Point
	cur := found
	path = append(path, cur)
	for {
		prev, has := cameFrom[cur]
		if !has {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	newTiles := CountNewRoadTilesInPath(world, path)
	money := EstimateMoneyCostForRoadPath(world, path, level, cfg.AllowBridges)

	return isoworld.PathResult{
		Path:        path,
		PrimaryCost: gScore[found],
		MoneyCost:   money,
		NewTiles:    newTiles,
		Steps:       len(path) - 1,
		Found:       true,
	}, nil
}

var _ isoworld.Pathfinder = AStarPathfinder{}

// CountNewRoadTilesInPath counts path tiles that are not already road
// (spec.md §4.5).
func CountNewRoadTilesInPath(world *isoworld.World, path []isoworld.Point) int {
	count := 0
	for _, p := range path {
		if world.At(p.X, p.Y).Overlay != isoworld.OverlayRoad {
			count++
		}
	}
	return count
}

// EstimateMoneyCostForRoadPath sums construction cost for every
// non-road tile in path, charging a bridge multiplier for water tiles
// (spec.md §4.5).
func EstimateMoneyCostForRoadPath(world *isoworld.World, path []isoworld.Point, targetLevel int, allowBridges bool) int {
	if targetLevel < 1 || targetLevel > 3 {
		targetLevel = 1
	}
	base := buildCostPerLevel[targetLevel]
	total := 0
	for _, p := range path {
		t := world.At(p.X, p.Y)
		if t.Overlay == isoworld.OverlayRoad {
			continue
		}
		if t.Terrain == isoworld.TerrainWater {
			if allowBridges {
				total += base * bridgeCostMultiplier
			}
			continue
		}
		total += base
	}
	return total
}
