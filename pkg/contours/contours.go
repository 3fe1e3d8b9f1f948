// Package contours extracts iso-height contour lines from a corner
// heightfield via marching squares, with deterministic saddle
// resolution and Douglas-Peucker simplification (spec.md §4.8).
package contours

import (
	"math"
	"sort"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// Point is a contour vertex in corner-grid space (not tile space).
type Point struct {
	X, Y float64
}

// Polyline is one traced contour line, open or closed.
type Polyline struct {
	Points []Point
	Closed bool
}

// Level holds every polyline extracted at one iso-value.
type Level struct {
	Value float64
	Lines []Polyline
}

// Config tunes extraction determinism and output density.
type Config struct {
	Quantize             float64
	UseAsymptoticDecider  bool
	SimplifyTolerance     float64
	MinPoints             int
}

// DefaultConfig mirrors original_source/Contours.hpp's defaults.
func DefaultConfig() Config {
	return Config{
		Quantize:             1e-6,
		UseAsymptoticDecider: true,
		SimplifyTolerance:    0.0,
		MinPoints:            2,
	}
}

// BuildCornerHeightGrid samples a (W+1)x(H+1) corner grid from a
// W x H tile heightfield, each corner averaging the heights of the up
// to 4 tiles touching it (edge/corner corners average fewer).
func BuildCornerHeightGrid(world *isoworld.World, heightScale float64) []float64 {
	w, h := world.Width(), world.Height()
	if w <= 0 || h <= 0 {
		return nil
	}
	if heightScale == 0 {
		heightScale = 1.0
	}

	cw, ch := w+1, h+1
	out := make([]float64, cw*ch)

	tileHeight := func(x, y int) (float64, bool) {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0, false
		}
		return float64(world.At(x, y).Height), true
	}

	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			sum, n := 0.0, 0
			for _, d := range [4][2]int{{cx - 1, cy - 1}, {cx, cy - 1}, {cx - 1, cy}, {cx, cy}} {
				if v, ok := tileHeight(d[0], d[1]); ok {
					sum += v
					n++
				}
			}
			if n > 0 {
				out[cy*cw+cx] = (sum / float64(n)) * heightScale
			}
		}
	}
	return out
}

type edgeID uint8

const (
	edgeTop edgeID = iota
	edgeRight
	edgeBottom
	edgeLeft
)

type segment struct {
	a, b Point
}

// ExtractContours runs marching squares over a cornerW x cornerH
// corner grid for every requested level.
func ExtractContours(cornerValues []float64, cornerW, cornerH int, levels []float64, cfg Config) []Level {
	out := make([]Level, 0, len(levels))
	for _, lv := range levels {
		out = append(out, Level{Value: lv, Lines: extractOneLevel(cornerValues, cornerW, cornerH, lv, cfg)})
	}
	return out
}

func extractOneLevel(v []float64, cw, ch int, level float64, cfg Config) []Polyline {
	if cw < 2 || ch < 2 {
		return nil
	}
	var segs []segment

	at := func(cx, cy int) float64 { return v[cy*cw+cx] }

	for cy := 0; cy+1 < ch; cy++ {
		for cx := 0; cx+1 < cw; cx++ {
			a := at(cx, cy)     // top-left
			b := at(cx+1, cy)   // top-right
			c := at(cx+1, cy+1) // bottom-right
			d := at(cx, cy+1)   // bottom-left

			caseIdx := 0
			if a > level {
				caseIdx |= 8
			}
			if b > level {
				caseIdx |= 4
			}
			if c > level {
				caseIdx |= 2
			}
			if d > level {
				caseIdx |= 1
			}
			if caseIdx == 0 || caseIdx == 15 {
				continue
			}

			fx, fy := float64(cx), float64(cy)
			pt := func(e edgeID) Point {
				switch e {
				case edgeTop:
					return Point{X: fx + lerp(a, b, level), Y: fy}
				case edgeRight:
					return Point{X: fx + 1, Y: fy + lerp(b, c, level)}
				case edgeBottom:
					return Point{X: fx + lerp(d, c, level), Y: fy + 1}
				default: // edgeLeft
					return Point{X: fx, Y: fy + lerp(a, d, level)}
				}
			}

			addPair := func(e1, e2 edgeID) {
				segs = append(segs, segment{a: pt(e1), b: pt(e2)})
			}

			switch caseIdx {
			case 1:
				addPair(edgeLeft, edgeBottom)
			case 2:
				addPair(edgeBottom, edgeRight)
			case 3:
				addPair(edgeLeft, edgeRight)
			case 4:
				addPair(edgeRight, edgeTop)
			case 5:
				if saddleHigh(a, b, c, d, level, cfg) {
					addPair(edgeTop, edgeLeft)
					addPair(edgeBottom, edgeRight)
				} else {
					addPair(edgeRight, edgeTop)
					addPair(edgeLeft, edgeBottom)
				}
			case 6:
				addPair(edgeTop, edgeBottom)
			case 7:
				addPair(edgeLeft, edgeTop)
			case 8:
				addPair(edgeTop, edgeLeft)
			case 9:
				addPair(edgeTop, edgeBottom)
			case 10:
				if saddleHigh(a, b, c, d, level, cfg) {
					addPair(edgeRight, edgeTop)
					addPair(edgeLeft, edgeBottom)
				} else {
					addPair(edgeTop, edgeLeft)
					addPair(edgeBottom, edgeRight)
				}
			case 11:
				addPair(edgeRight, edgeTop)
			case 12:
				addPair(edgeLeft, edgeRight)
			case 13:
				addPair(edgeBottom, edgeRight)
			case 14:
				addPair(edgeLeft, edgeBottom)
			}
		}
	}

	lines := stitch(segs, cfg)

	if cfg.SimplifyTolerance > 0 {
		for i := range lines {
			lines[i].Points = douglasPeucker(lines[i].Points, cfg.SimplifyTolerance, lines[i].Closed)
		}
	}

	minPts := cfg.MinPoints
	if minPts <= 0 {
		minPts = 2
	}
	filtered := lines[:0]
	for _, l := range lines {
		if len(l.Points) >= minPts {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func lerp(v0, v1, level float64) float64 {
	if v1 == v0 {
		return 0.5
	}
	t := (level - v0) / (v1 - v0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t
}

// saddleHigh resolves the case 5/10 ambiguity via the asymptotic
// decider: the bilinear saddle value at the cell center is
// (a*c - b*d)/(a - b + c - d) in the classic marching-squares
// derivation (Lorensen & Cline); when that's unavailable (degenerate
// denominator) the plain corner average is used instead. With the
// decider off it always reports true, so the segments wrap around the
// low corners. Matches original_source/Contours.hpp's
// useAsymptoticDecider contract.
func saddleHigh(a, b, c, d, level float64, cfg Config) bool {
	if !cfg.UseAsymptoticDecider {
		return true
	}
	denom := a - b + c - d
	if math.Abs(denom) < 1e-12 {
		avg := (a + b + c + d) / 4
		return avg > level
	}
	center := (a*c - b*d) / denom
	return center > level
}

type quantKey struct{ x, y int64 }

func quantize(p Point, q float64) quantKey {
	if q <= 0 {
		q = 1e-6
	}
	return quantKey{x: int64(math.Round(p.X / q)), y: int64(math.Round(p.Y / q))}
}

// stitch links marching-squares segments that share a quantized
// endpoint into maximal polylines, open chains first (from degree-1
// endpoints) then any remaining closed loops.
func stitch(segs []segment, cfg Config) []Polyline {
	type node struct {
		pt    Point
		edges []int // segment indices touching this node
	}
	nodes := make(map[quantKey]*node)
	keyOf := func(p Point) quantKey { return quantize(p, cfg.Quantize) }

	segKeys := make([][2]quantKey, len(segs))
	for i, s := range segs {
		ka, kb := keyOf(s.a), keyOf(s.b)
		segKeys[i] = [2]quantKey{ka, kb}
		if _, ok := nodes[ka]; !ok {
			nodes[ka] = &node{pt: s.a}
		}
		if _, ok := nodes[kb]; !ok {
			nodes[kb] = &node{pt: s.b}
		}
		nodes[ka].edges = append(nodes[ka].edges, i)
		nodes[kb].edges = append(nodes[kb].edges, i)
	}

	visited := make([]bool, len(segs))
	otherEnd := func(segIdx int, from quantKey) (quantKey, Point) {
		k := segKeys[segIdx]
		if k[0] == from {
			return k[1], segs[segIdx].b
		}
		return k[0], segs[segIdx].a
	}

	// Deterministic node visitation order.
	orderedKeys := make([]quantKey, 0, len(nodes))
	for k := range nodes {
		orderedKeys = append(orderedKeys, k)
	}
	sort.Slice(orderedKeys, func(i, j int) bool {
		if orderedKeys[i].y != orderedKeys[j].y {
			return orderedKeys[i].y < orderedKeys[j].y
		}
		return orderedKeys[i].x < orderedKeys[j].x
	})

	var lines []Polyline

	walkFrom := func(startKey quantKey) Polyline {
		cur := startKey
		pts := []Point{nodes[cur].pt}
		for {
			n := nodes[cur]
			next := -1
			for _, ei := range n.edges {
				if !visited[ei] {
					next = ei
					break
				}
			}
			if next < 0 {
				break
			}
			visited[next] = true
			nk, np := otherEnd(next, cur)
			pts = append(pts, np)
			cur = nk
		}
		return Polyline{Points: pts, Closed: false}
	}

	// Open chains: start only from nodes with exactly one edge.
	for _, k := range orderedKeys {
		if len(nodes[k].edges) == 1 {
			var unvisited int
			for _, ei := range nodes[k].edges {
				if !visited[ei] {
					unvisited++
				}
			}
			if unvisited > 0 {
				lines = append(lines, walkFrom(k))
			}
		}
	}

	// Remaining segments form closed loops.
	for i, s := range segs {
		if visited[i] {
			continue
		}
		visited[i] = true
		start := segKeys[i][0]
		pts := []Point{segs[i].a, segs[i].b}
		cur := segKeys[i][1]
		for {
			n := nodes[cur]
			next := -1
			for _, ei := range n.edges {
				if !visited[ei] {
					next = ei
					break
				}
			}
			if next < 0 {
				break
			}
			visited[next] = true
			nk, np := otherEnd(next, cur)
			pts = append(pts, np)
			cur = nk
			if cur == start {
				break
			}
		}
		lines = append(lines, Polyline{Points: pts, Closed: true})
		_ = s
	}

	return lines
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		ddx, ddy := p.X-a.X, p.Y-a.Y
		return math.Hypot(ddx, ddy)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	projX, projY := a.X+t*dx, a.Y+t*dy
	return math.Hypot(p.X-projX, p.Y-projY)
}

// douglasPeucker simplifies pts to within tolerance. Closed polylines
// are simplified as an open chain with the start point appended at the
// end, then the duplicate is dropped.
func douglasPeucker(pts []Point, tolerance float64, closed bool) []Point {
	if len(pts) < 3 {
		return pts
	}
	working := pts
	if closed {
		working = append(append([]Point{}, pts...), pts[0])
	}

	kept := make([]bool, len(working))
	kept[0] = true
	kept[len(working)-1] = true

	var recurse func(lo, hi int)
	recurse = func(lo, hi int) {
		if hi <= lo+1 {
			return
		}
		maxDist, maxIdx := -1.0, -1
		for i := lo + 1; i < hi; i++ {
			d := distToSegment(working[i], working[lo], working[hi])
			if d > maxDist {
				maxDist, maxIdx = d, i
			}
		}
		if maxDist > tolerance {
			kept[maxIdx] = true
			recurse(lo, maxIdx)
			recurse(maxIdx, hi)
		}
	}
	recurse(0, len(working)-1)

	out := make([]Point, 0, len(working))
	for i, k := range kept {
		if k {
			out = append(out, working[i])
		}
	}
	if closed && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out
}
