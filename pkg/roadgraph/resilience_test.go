package roadgraph

import "testing"

// buildPathGraph constructs a 3-node path a--b--c graph directly,
// bypassing BuildRoadGraph, to exercise ComputeRoadGraphResilience in
// isolation against spec.md §8 scenario 3.
func buildPathGraph() Graph {
	g := Graph{
		Nodes: []Node{{}, {}, {}},
		Edges: []Edge{
			{A: 0, B: 1, Length: 1, Weight: 1000},
			{A: 1, B: 2, Length: 1, Weight: 1000},
		},
	}
	g.Nodes[0].IncidentEdges = []int{0}
	g.Nodes[1].IncidentEdges = []int{0, 1}
	g.Nodes[2].IncidentEdges = []int{1}
	return g
}

func TestResilience_PathGraphBothEdgesBridgesMiddleArticulation(t *testing.T) {
	g := buildPathGraph()
	res := ComputeRoadGraphResilience(&g)

	if len(res.BridgeEdges) != 2 {
		t.Fatalf("expected 2 bridge edges, got %d (%v)", len(res.BridgeEdges), res.BridgeEdges)
	}
	if !res.IsBridgeEdge[0] || !res.IsBridgeEdge[1] {
		t.Errorf("expected both edges to be bridges, got %v", res.IsBridgeEdge)
	}
	if !res.IsArticulationNode[1] {
		t.Errorf("expected node 1 to be an articulation point")
	}
	if res.IsArticulationNode[0] || res.IsArticulationNode[2] {
		t.Errorf("expected endpoints not to be articulation points, got %v", res.IsArticulationNode)
	}

	var cut BridgeCut
	if !ComputeRoadGraphBridgeCut(&g, 0, &cut) {
		t.Fatalf("expected edge 0 to be a valid bridge cut")
	}
	if len(cut.SideA) != 1 || cut.SideA[0] != 0 {
		t.Errorf("expected sideA=[0], got %v", cut.SideA)
	}
	if len(cut.SideB) != 2 || cut.SideB[0] != 1 || cut.SideB[1] != 2 {
		t.Errorf("expected sideB=[1,2], got %v", cut.SideB)
	}

	// The DFS starts at a, so edge 1 (b--c) is discovered second and the
	// subtree below it is the single leaf node c: subtreeNodes=1.
	if res.BridgeSubtreeNodes[1] != 1 {
		t.Errorf("expected edge 1 subtree size 1, got %d", res.BridgeSubtreeNodes[1])
	}
	compSize := res.ComponentSize[res.NodeComponent[0]]
	if res.BridgeSubtreeNodes[0]+res.BridgeOtherNodes[0] != compSize {
		t.Errorf("bridgeSubtreeNodes(%d) + bridgeOtherNodes(%d) != componentSize(%d)",
			res.BridgeSubtreeNodes[0], res.BridgeOtherNodes[0], compSize)
	}
	if res.BridgeSubtreeNodes[1]+res.BridgeOtherNodes[1] != compSize {
		t.Errorf("bridgeSubtreeNodes(%d) + bridgeOtherNodes(%d) != componentSize(%d)",
			res.BridgeSubtreeNodes[1], res.BridgeOtherNodes[1], compSize)
	}
}

// buildTriangleGraph is a 3-cycle: no bridges, no articulation points.
func buildTriangleGraph() Graph {
	g := Graph{
		Nodes: []Node{{}, {}, {}},
		Edges: []Edge{
			{A: 0, B: 1, Length: 1, Weight: 1000},
			{A: 1, B: 2, Length: 1, Weight: 1000},
			{A: 2, B: 0, Length: 1, Weight: 1000},
		},
	}
	g.Nodes[0].IncidentEdges = []int{0, 2}
	g.Nodes[1].IncidentEdges = []int{0, 1}
	g.Nodes[2].IncidentEdges = []int{1, 2}
	return g
}

func TestResilience_TriangleHasNoBridgesOrArticulation(t *testing.T) {
	g := buildTriangleGraph()
	res := ComputeRoadGraphResilience(&g)
	if len(res.BridgeEdges) != 0 {
		t.Errorf("expected no bridges in a cycle, got %v", res.BridgeEdges)
	}
	if len(res.ArticulationNodes) != 0 {
		t.Errorf("expected no articulation points in a cycle, got %v", res.ArticulationNodes)
	}
	if res.ComponentSize[0] != 3 {
		t.Errorf("expected single component of size 3, got %v", res.ComponentSize)
	}
}

func TestCentrality_PathGraphMiddleNodeHighestCentrality(t *testing.T) {
	g := buildPathGraph()
	nodeC, edgeC := ComputeRoadGraphCentrality(&g, []int{0, 1, 2})
	if nodeC[1] <= nodeC[0] || nodeC[1] <= nodeC[2] {
		t.Errorf("expected middle node to have the highest centrality, got %v", nodeC)
	}
	for _, c := range edgeC {
		if c < 0 || c > 1.0001 {
			t.Errorf("edge centrality out of [0,1] range: %v", edgeC)
		}
	}
}
