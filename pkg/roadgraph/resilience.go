package roadgraph

import "sort"

// Result is the full bridge/articulation resilience analysis of a
// Graph, plus the connected-component partition it falls out of
// (spec.md §4.4).
type Result struct {
	IsArticulationNode []bool
	IsBridgeEdge        []bool

	NodeComponent []int
	ComponentSize []int

	ArticulationNodes []int
	BridgeEdges        []int

	// BridgeSubtreeNodes and BridgeOtherNodes map a bridge edge index to
	// the node counts on each side of the cut it induces: the subtree
	// rooted at the edge's deeper (later-discovered) endpoint, and the
	// rest of that edge's connected component. BridgeSubtreeNodes[e] +
	// BridgeOtherNodes[e] == the edge's component size (spec.md §4.4).
	BridgeSubtreeNodes map[int]int
	BridgeOtherNodes   map[int]int
}

type tarjanFrame struct {
	node       int
	parentEdge int
	cursor     int
}

// ComputeRoadGraphResilience runs iterative Tarjan bridge/articulation
// detection over g. Iterative rather than recursive so arbitrarily long
// road chains never blow the call stack; parallel edges between the
// same two nodes are handled correctly because the traversal excludes
// the specific edge index it arrived on, not merely the parent node.
func ComputeRoadGraphResilience(g *Graph) Result {
	n := len(g.Nodes)
	var out Result
	out.IsArticulationNode = make([]bool, n)
	out.IsBridgeEdge = make([]bool, len(g.Edges))
	out.NodeComponent = make([]int, n)
	for i := range out.NodeComponent {
		out.NodeComponent[i] = -1
	}
	out.BridgeSubtreeNodes = make(map[int]int)
	out.BridgeOtherNodes = make(map[int]int)

	disc := make([]int, n)
	low := make([]int, n)
	subtreeSize := make([]int, n)
	visited := make([]bool, n)
	timer := 0
	component := 0

	type bridgeHit struct {
		edgeIdx     int
		subtreeSize int
	}

	otherEnd := func(e Edge, u int) int {
		if e.A == u {
			return e.B
		}
		return e.A
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		compID := component
		component++
		compSize := 0

		rootChildren := 0
		stack := []tarjanFrame{{node: start, parentEdge: -1, cursor: 0}}
		visited[start] = true
		disc[start] = timer
		low[start] = timer
		subtreeSize[start] = 1
		timer++
		out.NodeComponent[start] = compID
		compSize++

		var componentBridges []bridgeHit

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			u := top.node

			if top.cursor >= len(g.Nodes[u].IncidentEdges) {
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					parent := &stack[len(stack)-1]
					p := parent.node
					if low[u] < low[p] {
						low[p] = low[u]
					}
					if low[u] > disc[p] {
						out.IsBridgeEdge[top.parentEdge] = true
						componentBridges = append(componentBridges, bridgeHit{edgeIdx: top.parentEdge, subtreeSize: subtreeSize[u]})
					}
					if p != start && low[u] >= disc[p] {
						out.IsArticulationNode[p] = true
					}
					subtreeSize[p] += subtreeSize[u]
				}
				continue
			}

			edgeIdx := g.Nodes[u].IncidentEdges[top.cursor]
			top.cursor++
			if edgeIdx == top.parentEdge {
				continue
			}
			e := g.Edges[edgeIdx]
			v := otherEnd(e, u)

			if !visited[v] {
				visited[v] = true
				disc[v] = timer
				low[v] = timer
				subtreeSize[v] = 1
				timer++
				out.NodeComponent[v] = compID
				compSize++
				if u == start {
					rootChildren++
				}
				stack = append(stack, tarjanFrame{node: v, parentEdge: edgeIdx, cursor: 0})
			} else if disc[v] < low[u] {
				low[u] = disc[v]
			}
		}

		if rootChildren > 1 {
			out.IsArticulationNode[start] = true
		}
		out.ComponentSize = append(out.ComponentSize, compSize)
		for _, b := range componentBridges {
			out.BridgeSubtreeNodes[b.edgeIdx] = b.subtreeSize
			out.BridgeOtherNodes[b.edgeIdx] = compSize - b.subtreeSize
		}
	}

	for i, is := range out.IsArticulationNode {
		if is {
			out.ArticulationNodes = append(out.ArticulationNodes, i)
		}
	}
	for i, is := range out.IsBridgeEdge {
		if is {
			out.BridgeEdges = append(out.BridgeEdges, i)
		}
	}
	sort.Ints(out.ArticulationNodes)
	sort.Ints(out.BridgeEdges)

	return out
}

// BridgeCut is the two-sided node partition produced by removing a
// single bridge edge.
type BridgeCut struct {
	SideA []int
	SideB []int
}

// ComputeRoadGraphBridgeCut partitions the nodes reachable from each
// endpoint of edgeIndex with that edge removed. It returns false if
// edgeIndex is out of range or not actually a bridge (both endpoints
// stay connected without it).
func ComputeRoadGraphBridgeCut(g *Graph, edgeIndex int, out *BridgeCut) bool {
	if edgeIndex < 0 || edgeIndex >= len(g.Edges) || out == nil {
		return false
	}
	e := g.Edges[edgeIndex]

	reach := func(start int) []int {
		n := len(g.Nodes)
		seen := make([]bool, n)
		seen[start] = true
		queue := []int{start}
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			for _, ei := range g.Nodes[u].IncidentEdges {
				if ei == edgeIndex {
					continue
				}
				ed := g.Edges[ei]
				v := ed.B
				if ed.A != u {
					v = ed.A
				}
				if !seen[v] {
					seen[v] = true
					queue = append(queue, v)
				}
			}
		}
		return queue
	}

	sideA := reach(e.A)
	for _, n := range sideA {
		if n == e.B {
			return false // not actually a bridge
		}
	}
	sideB := reach(e.B)

	sort.Ints(sideA)
	sort.Ints(sideB)
	out.SideA = sideA
	out.SideB = sideB
	return true
}

// BuildBlockedMovesForRoadGraphEdge returns the set of directed tile
// moves along edgeIndex's polyline, packed as (fromTileIdx<<32)|toTileIdx,
// sorted and deduped, for use as an A* exclusion set when synthesizing
// a bypass around a severed bridge (spec.md §4.5).
func BuildBlockedMovesForRoadGraphEdge(g *Graph, edgeIndex int, worldWidth int) []uint64 {
	if edgeIndex < 0 || edgeIndex >= len(g.Edges) {
		return nil
	}
	e := g.Edges[edgeIndex]
	var moves []uint64
	for i := 0; i+1 < len(e.Tiles); i++ {
		a := tileIdx(e.Tiles[i], worldWidth)
		b := tileIdx(e.Tiles[i+1], worldWidth)
		moves = append(moves, packMove(a, b), packMove(b, a))
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i] < moves[j] })
	return dedupSortedUint64(moves)
}

func packMove(from, to int) uint64 {
	return (uint64(uint32(from)) << 32) | uint64(uint32(to))
}

func dedupSortedUint64(s []uint64) []uint64 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
