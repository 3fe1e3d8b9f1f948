// Package blocks implements city-block decomposition (4-connected
// components of non-road land) and the block adjacency graph built
// through shared road tiles (spec.md §4.1, §4.2).
package blocks

import "github.com/masterblaster1999/isocity/pkg/isoworld"

// CityBlock is a maximal 4-connected region of land tiles with
// overlay != Road and terrain != Water.
type CityBlock struct {
	ID   int
	Area int

	MinX, MinY, MaxX, MaxY int

	RoadEdges    int
	WaterEdges   int
	OutsideEdges int
	RoadAdjTiles int

	Parks       int
	Residential int
	Commercial  int
	Industrial  int
	Other       int
}

// CityBlocksResult is the output of BuildCityBlocks.
type CityBlocksResult struct {
	W, H       int
	Blocks     []CityBlock
	TileToBlock []int // size W*H; -1 for road/water tiles
}

func (r *CityBlocksResult) Empty() bool { return r.W <= 0 || r.H <= 0 }

// neighbor enumeration order fixed to {left, right, up, down} per spec.md §4.1.
var dx4 = [4]int{-1, 1, 0, 0}
var dy4 = [4]int{0, 0, -1, 1}

// BuildCityBlocks scans the grid row-major and flood-fills each
// not-yet-visited block tile using an explicit LIFO stack (no
// recursion), assigning sequential ids in discovery order.
func BuildCityBlocks(world *isoworld.World) CityBlocksResult {
	w, h := world.Width(), world.Height()
	out := CityBlocksResult{W: w, H: h}
	if w <= 0 || h <= 0 {
		return out
	}

	n := w * h
	out.TileToBlock = make([]int, n)
	for i := range out.TileToBlock {
		out.TileToBlock[i] = -1
	}

	isBlockTile := func(x, y int) bool {
		t := world.At(x, y)
		return t.Terrain != isoworld.TerrainWater && t.Overlay != isoworld.OverlayRoad
	}

	var stack []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			startIdx := isoworld.Idx(x, y, w)
			if out.TileToBlock[startIdx] != -1 || !isBlockTile(x, y) {
				continue
			}

			id := len(out.Blocks)
			blk := CityBlock{ID: id, MinX: x, MinY: y, MaxX: x, MaxY: y}

			stack = stack[:0]
			stack = append(stack, startIdx)
			out.TileToBlock[startIdx] = id

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				cx, cy := isoworld.XY(cur, w)
				t := world.At(cx, cy)

				blk.Area++
				if cx < blk.MinX {
					blk.MinX = cx
				}
				if cx > blk.MaxX {
					blk.MaxX = cx
				}
				if cy < blk.MinY {
					blk.MinY = cy
				}
				if cy > blk.MaxY {
					blk.MaxY = cy
				}

				switch t.Overlay {
				case isoworld.OverlayPark:
					blk.Parks++
				case isoworld.OverlayResidential:
					blk.Residential++
				case isoworld.OverlayCommercial:
					blk.Commercial++
				case isoworld.OverlayIndustrial:
					blk.Industrial++
				default:
					if t.Overlay != isoworld.OverlayRoad {
						blk.Other++
					}
				}

				roadAdjacent := false
				for k := 0; k < 4; k++ {
					nx, ny := cx+dx4[k], cy+dy4[k]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						blk.OutsideEdges++
						continue
					}
					nt := world.At(nx, ny)
					if nt.Terrain == isoworld.TerrainWater {
						blk.WaterEdges++
						continue
					}
					if nt.Overlay == isoworld.OverlayRoad {
						blk.RoadEdges++
						roadAdjacent = true
						continue
					}

					nIdx := isoworld.Idx(nx, ny, w)
					if out.TileToBlock[nIdx] == -1 {
						out.TileToBlock[nIdx] = id
						stack = append(stack, nIdx)
					}
				}
				if roadAdjacent {
					blk.RoadAdjTiles++
				}
			}

			out.Blocks = append(out.Blocks, blk)
		}
	}

	return out
}
