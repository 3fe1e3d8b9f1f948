// Package districting implements farthest-point-seeded multi-source
// Dijkstra districting over the city-block adjacency graph (spec.md §4.3).
package districting

import (
	"container/heap"
	"math"

	"github.com/masterblaster1999/isocity/pkg/blocks"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

const infDist = math.MaxInt32 / 4

// Config controls district count and tile-writeback behavior.
type Config struct {
	Districts     int
	FillRoadTiles bool
	IncludeWater  bool
}

// Result is the per-block and per-district districting outcome.
type Result struct {
	DistrictsRequested int
	DistrictsUsed       int

	SeedBlockID []int
	BlockToDistrict []uint8

	BlocksPerDistrict [isoworld.MaxDistrictCount]int
	TilesPerDistrict  [isoworld.MaxDistrictCount]int
}

func clampDistrictCount(d int) int {
	if d < 1 {
		return 1
	}
	if d > isoworld.MaxDistrictCount {
		return isoworld.MaxDistrictCount
	}
	return d
}

// bfsDist returns unweighted hop distance from start to every block on
// the block adjacency graph.
func bfsDist(g *blocks.CityBlockGraphResult, start int) []int {
	n := len(g.Blocks.Blocks)
	dist := make([]int, n)
	for i := range dist {
		dist[i] = infDist
	}
	if start < 0 || start >= n {
		return dist
	}

	queue := make([]int, 0, n)
	dist[start] = 0
	queue = append(queue, start)

	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		du := dist[u]
		for _, ei := range g.BlockToEdges[u] {
			if ei < 0 || ei >= len(g.Edges) {
				continue
			}
			e := g.Edges[ei]
			v := e.B
			if e.A != u {
				v = e.A
			}
			if v < 0 || v >= n || du >= infDist-1 {
				continue
			}
			nd := du + 1
			if nd < dist[v] {
				dist[v] = nd
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// item is a priority-queue entry ordered by (dist asc, district asc, node asc).
type item struct {
	dist     int
	district int
	node     int
}

type itemHeap []item

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	if h[i].district != h[j].district {
		return h[i].district < h[j].district
	}
	return h[i].node < h[j].node
}
func (h itemHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

func computeFromGraph(g *blocks.CityBlockGraphResult, cfg Config) Result {
	var out Result
	n := len(g.Blocks.Blocks)
	out.DistrictsRequested = clampDistrictCount(cfg.Districts)
	if n <= 0 {
		return out
	}

	K := out.DistrictsRequested
	if K > n {
		K = n
	}
	out.DistrictsUsed = K

	// --- Seed selection: farthest-point sampling ---
	seeds := make([]int, 0, K)

	first := 0
	bestArea := g.Blocks.Blocks[0].Area
	for i := 1; i < n; i++ {
		a := g.Blocks.Blocks[i].Area
		if a > bestArea {
			bestArea = a
			first = i
		}
	}
	seeds = append(seeds, first)

	minDist := make([]int, n)
	for i := range minDist {
		minDist[i] = infDist
	}
	foldMin := func(start int) {
		d := bfsDist(g, start)
		for i := 0; i < n; i++ {
			if d[i] < minDist[i] {
				minDist[i] = d[i]
			}
		}
	}
	foldMin(first)

	isSeed := func(id int) bool {
		for _, s := range seeds {
			if s == id {
				return true
			}
		}
		return false
	}

	for len(seeds) < K {
		best, bestD, bestA := -1, -1, -1
		for i := 0; i < n; i++ {
			if isSeed(i) {
				continue
			}
			d := minDist[i]
			a := g.Blocks.Blocks[i].Area
			if best < 0 || d > bestD || (d == bestD && a > bestA) || (d == bestD && a == bestA && i < best) {
				best, bestD, bestA = i, d, a
			}
		}
		if best < 0 {
			break
		}
		seeds = append(seeds, best)
		foldMin(best)
	}
	out.SeedBlockID = seeds

	// --- Multi-source Dijkstra, lexicographic (dist, district) ---
	dist := make([]int, n)
	owner := make([]int, n)
	for i := range dist {
		dist[i] = infDist
		owner[i] = isoworld.MaxDistrictCount
	}

	pq := &itemHeap{}
	heap.Init(pq)
	for d, b := range seeds {
		dist[b] = 0
		owner[b] = d
		heap.Push(pq, item{dist: 0, district: d, node: b})
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		u := cur.node
		if u < 0 || u >= n {
			continue
		}
		du, ou := dist[u], owner[u]
		if cur.dist != du || cur.district != ou {
			continue // stale
		}

		for _, ei := range g.BlockToEdges[u] {
			if ei < 0 || ei >= len(g.Edges) {
				continue
			}
			e := g.Edges[ei]
			v := e.B
			if e.A != u {
				v = e.A
			}
			if v < 0 || v >= n || du >= infDist-1 {
				continue
			}
			nd := du + 1
			no := ou
			if nd < dist[v] || (nd == dist[v] && no < owner[v]) {
				dist[v] = nd
				owner[v] = no
				heap.Push(pq, item{dist: nd, district: no, node: v})
			}
		}
	}

	out.BlockToDistrict = make([]uint8, n)
	for i := 0; i < n; i++ {
		d := owner[i]
		if d < 0 || d >= isoworld.MaxDistrictCount {
			d = 0
		}
		out.BlockToDistrict[i] = uint8(d)
		out.BlocksPerDistrict[d]++
		out.TilesPerDistrict[d] += g.Blocks.Blocks[i].Area
	}

	return out
}

// ComputeBlockDistricts computes a districting result without mutating
// the world. If precomputedGraph is non-nil, it is reused.
func ComputeBlockDistricts(world *isoworld.World, cfg Config, precomputedGraph *blocks.CityBlockGraphResult) Result {
	var graph blocks.CityBlockGraphResult
	if precomputedGraph != nil {
		graph = *precomputedGraph
	} else {
		graph = blocks.BuildCityBlockGraph(world, nil)
	}
	return computeFromGraph(&graph, cfg)
}

// AssignDistrictsByBlocks computes districts and writes the `district`
// field back onto every tile (spec.md §4.3 tile writeback), the sole
// mutating operation of this package.
func AssignDistrictsByBlocks(world *isoworld.World, cfg Config, precomputedGraph *blocks.CityBlockGraphResult) Result {
	var graph blocks.CityBlockGraphResult
	if precomputedGraph != nil {
		graph = *precomputedGraph
	} else {
		graph = blocks.BuildCityBlockGraph(world, nil)
	}

	out := computeFromGraph(&graph, cfg)
	w, h := world.Width(), world.Height()
	if w <= 0 || h <= 0 {
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := isoworld.Idx(x, y, w)
			bid := -1
			if idx < len(graph.Blocks.TileToBlock) {
				bid = graph.Blocks.TileToBlock[idx]
			}
			if bid >= 0 && bid < len(out.BlockToDistrict) {
				_ = world.SetDistrict(x, y, out.BlockToDistrict[bid])
				continue
			}

			t := world.At(x, y)

			if cfg.FillRoadTiles && t.Overlay == isoworld.OverlayRoad {
				var counts [isoworld.MaxDistrictCount]int
				bestD, bestC := 0, -1
				for k := 0; k < 4; k++ {
					nx, ny := x+ndx[k], y+ndy[k]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nIdx := isoworld.Idx(nx, ny, w)
					nb := -1
					if nIdx < len(graph.Blocks.TileToBlock) {
						nb = graph.Blocks.TileToBlock[nIdx]
					}
					if nb < 0 || nb >= len(out.BlockToDistrict) {
						continue
					}
					d := int(out.BlockToDistrict[nb])
					if d < 0 || d >= isoworld.MaxDistrictCount {
						continue
					}
					counts[d]++
				}
				for d := 0; d < isoworld.MaxDistrictCount; d++ {
					if counts[d] > bestC {
						bestC, bestD = counts[d], d
					}
				}
				_ = world.SetDistrict(x, y, uint8(bestD))
				continue
			}

			if cfg.IncludeWater && t.Terrain == isoworld.TerrainWater {
				var counts [isoworld.MaxDistrictCount]int
				bestD, bestC := int(t.District), -1
				for k := 0; k < 4; k++ {
					nx, ny := x+ndx[k], y+ndy[k]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := world.At(nx, ny)
					if n.Terrain == isoworld.TerrainWater {
						continue
					}
					d := int(n.District)
					if d < 0 || d >= isoworld.MaxDistrictCount {
						continue
					}
					counts[d]++
				}
				for d := 0; d < isoworld.MaxDistrictCount; d++ {
					if counts[d] > bestC {
						bestC, bestD = counts[d], d
					}
				}
				_ = world.SetDistrict(x, y, uint8(bestD))
				continue
			}
		}
	}

	// Recompute per-district tile counts from the world.
	out.TilesPerDistrict = [isoworld.MaxDistrictCount]int{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			if !cfg.IncludeWater && t.Terrain == isoworld.TerrainWater {
				continue
			}
			d := int(t.District)
			if d < 0 || d >= isoworld.MaxDistrictCount {
				continue
			}
			out.TilesPerDistrict[d]++
		}
	}

	return out
}

var ndx = [4]int{-1, 1, 0, 0}
var ndy = [4]int{0, 0, -1, 1}
