package blocks

import (
	"sort"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// CityBlockFrontage holds per-block frontage metrics broken down by
// road level. Index 0 is unused; road levels use the 1=Street,
// 2=Avenue, 3=Highway convention.
type CityBlockFrontage struct {
	RoadEdgesByLevel    [4]int
	RoadAdjTilesByLevel [4]int
}

// CityBlockAdjacency is an undirected edge between two blocks sharing
// at least one common road-tile neighbor.
type CityBlockAdjacency struct {
	A, B int

	TouchingRoadTiles        int
	TouchingRoadTilesByLevel [4]int
}

// CityBlockGraphResult is the output of BuildCityBlockGraph.
type CityBlockGraphResult struct {
	Blocks CityBlocksResult

	Frontage []CityBlockFrontage // size == len(Blocks.Blocks)
	Edges    []CityBlockAdjacency // sorted by (a,b)

	BlockToEdges [][]int // per-block incident edge indices, sorted ascending
}

func (r *CityBlockGraphResult) Empty() bool { return r.Blocks.Empty() }

func clampRoadLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 3 {
		return 3
	}
	return level
}

func pairKey(a, b int) uint64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return (uint64(uint32(lo)) << 32) | uint64(uint32(hi))
}

// BuildCityBlockGraph builds block adjacency and frontage metrics for
// a world. If precomputed is non-nil, it is used as the block
// segmentation instead of recomputing it.
func BuildCityBlockGraph(world *isoworld.World, precomputed *CityBlocksResult) CityBlockGraphResult {
	var out CityBlockGraphResult
	if precomputed != nil {
		out.Blocks = *precomputed
	} else {
		out.Blocks = BuildCityBlocks(world)
	}

	w, h := out.Blocks.W, out.Blocks.H
	if w <= 0 || h <= 0 {
		return out
	}

	blockCount := len(out.Blocks.Blocks)
	out.Frontage = make([]CityBlockFrontage, blockCount)

	// --- Frontage metrics ---
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := isoworld.Idx(x, y, w)
			bid := -1
			if idx < len(out.Blocks.TileToBlock) {
				bid = out.Blocks.TileToBlock[idx]
			}
			if bid < 0 || bid >= blockCount {
				continue
			}

			var adjLevel [4]bool
			for k := 0; k < 4; k++ {
				nx, ny := x+dx4[k], y+dy4[k]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := world.At(nx, ny)
				if n.Overlay != isoworld.OverlayRoad {
					continue
				}
				lvl := clampRoadLevel(int(n.Level))
				out.Frontage[bid].RoadEdgesByLevel[lvl]++
				adjLevel[lvl] = true
			}
			for lvl := 1; lvl <= 3; lvl++ {
				if adjLevel[lvl] {
					out.Frontage[bid].RoadAdjTilesByLevel[lvl]++
				}
			}
		}
	}

	// --- Adjacency edges, ordered map keyed by (min<<32)|max for determinism ---
	edgeMap := make(map[uint64]*CityBlockAdjacency)
	var edgeKeys []uint64

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			if t.Overlay != isoworld.OverlayRoad {
				continue
			}

			var adjBlocks []int
			for k := 0; k < 4; k++ {
				nx, ny := x+dx4[k], y+dy4[k]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				nIdx := isoworld.Idx(nx, ny, w)
				bid := -1
				if nIdx < len(out.Blocks.TileToBlock) {
					bid = out.Blocks.TileToBlock[nIdx]
				}
				if bid < 0 || bid >= blockCount {
					continue
				}
				exists := false
				for _, b := range adjBlocks {
					if b == bid {
						exists = true
						break
					}
				}
				if !exists && len(adjBlocks) < 4 {
					adjBlocks = append(adjBlocks, bid)
				}
			}

			if len(adjBlocks) < 2 {
				continue
			}
			sort.Ints(adjBlocks)

			roadLvl := clampRoadLevel(int(t.Level))

			for i := 0; i < len(adjBlocks); i++ {
				for j := i + 1; j < len(adjBlocks); j++ {
					a, b := adjBlocks[i], adjBlocks[j]
					if a == b {
						continue
					}
					key := pairKey(a, b)
					e, ok := edgeMap[key]
					if !ok {
						lo, hi := a, b
						if lo > hi {
							lo, hi = hi, lo
						}
						e = &CityBlockAdjacency{A: lo, B: hi}
						edgeMap[key] = e
						edgeKeys = append(edgeKeys, key)
					}
					e.TouchingRoadTiles++
					e.TouchingRoadTilesByLevel[roadLvl]++
				}
			}
		}
	}

	sort.Slice(edgeKeys, func(i, j int) bool { return edgeKeys[i] < edgeKeys[j] })
	out.Edges = make([]CityBlockAdjacency, 0, len(edgeKeys))
	for _, k := range edgeKeys {
		out.Edges = append(out.Edges, *edgeMap[k])
	}

	out.BlockToEdges = make([][]int, blockCount)
	for ei, e := range out.Edges {
		if e.A >= 0 && e.A < blockCount {
			out.BlockToEdges[e.A] = append(out.BlockToEdges[e.A], ei)
		}
		if e.B >= 0 && e.B < blockCount {
			out.BlockToEdges[e.B] = append(out.BlockToEdges[e.B], ei)
		}
	}
	for _, v := range out.BlockToEdges {
		sort.Ints(v)
	}

	return out
}
