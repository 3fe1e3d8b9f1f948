package hydrology

import (
	"testing"

	"pgregory.net/rapid"
)

// TestFlowField_DescendingRamp mirrors spec.md §8 scenario 4: a 4x1
// descending ramp [3,2,1,0] drains monotonically rightward.
func TestFlowField_DescendingRamp(t *testing.T) {
	heights := []float64{3, 2, 1, 0}
	field := BuildHydrologyField(heights, 4, 1)

	wantDir := []int{1, 2, 3, -1}
	for i, d := range wantDir {
		if field.Dir[i] != d {
			t.Errorf("dir[%d] = %d, want %d", i, field.Dir[i], d)
		}
	}
	wantAccum := []int{1, 2, 3, 4}
	for i, a := range wantAccum {
		if field.Accum[i] != a {
			t.Errorf("accum[%d] = %d, want %d", i, field.Accum[i], a)
		}
	}
	if field.MaxAccum != 4 {
		t.Errorf("maxAccum = %d, want 4", field.MaxAccum)
	}
}

func TestSegmentBasins_SingleSinkWholeGridOneBasin(t *testing.T) {
	heights := []float64{3, 2, 1, 0}
	dir := ComputeFlowDir4(heights, 4, 1)
	seg := SegmentBasins(dir, 4, 1)
	if len(seg.Basins) != 1 {
		t.Fatalf("expected 1 basin, got %d", len(seg.Basins))
	}
	if seg.Basins[0].Area != 4 {
		t.Errorf("expected basin area 4, got %d", seg.Basins[0].Area)
	}
	if seg.Basins[0].SinkIndex != 3 {
		t.Errorf("expected sink index 3, got %d", seg.Basins[0].SinkIndex)
	}
	for i, b := range seg.BasinID {
		if b != 0 {
			t.Errorf("basinID[%d] = %d, want 0", i, b)
		}
	}
}

// TestProperty_FlowAccumulationMonotoneAndConservative checks three
// invariants: every cell accumulates at least 1 (itself), every cell's
// downstream neighbor accumulates strictly more than it does, and the
// accum values at the sinks of the tree-shaped (acyclic) flow field
// traced from random heights sum to n — every unit of mass is
// conserved, none created or lost.
func TestProperty_FlowAccumulationMonotoneAndConservative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 10).Draw(rt, "w")
		h := rapid.IntRange(1, 10).Draw(rt, "h")
		n := w * h
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = rapid.Float64Range(0, 100).Draw(rt, "height")
		}

		field := BuildHydrologyField(heights, w, h)
		for i, a := range field.Accum {
			if a < 1 {
				rt.Fatalf("accum[%d] = %d, want >= 1", i, a)
			}
		}
		for i := 0; i < n; i++ {
			if d := field.Dir[i]; d >= 0 && field.Accum[d] <= field.Accum[i] {
				rt.Fatalf("accum[%d] = %d not above upstream accum[%d] = %d", d, field.Accum[d], i, field.Accum[i])
			}
		}

		sinkTotal := 0
		for i := 0; i < n; i++ {
			if field.Dir[i] < 0 {
				sinkTotal += field.Accum[i]
			}
		}
		// Every unit of mass terminates at exactly one sink.
		if sinkTotal != n {
			rt.Fatalf("sum of accum at sinks = %d, want %d", sinkTotal, n)
		}
	})
}

func TestProperty_BasinAreasSumToGridSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 10).Draw(rt, "w")
		h := rapid.IntRange(1, 10).Draw(rt, "h")
		n := w * h
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = rapid.Float64Range(0, 100).Draw(rt, "height")
		}

		dir := ComputeFlowDir4(heights, w, h)
		seg := SegmentBasins(dir, w, h)

		sum := 0
		for _, b := range seg.Basins {
			sum += b.Area
		}
		if sum != n {
			rt.Fatalf("sum(basin areas)=%d, want %d", sum, n)
		}
		for i := 1; i < len(seg.Basins); i++ {
			if seg.Basins[i-1].Area < seg.Basins[i].Area {
				rt.Fatalf("basins not sorted by descending area: %v", seg.Basins)
			}
		}
	})
}
