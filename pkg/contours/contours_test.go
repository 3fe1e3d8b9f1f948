package contours

import (
	"math"
	"testing"
)

// TestExtractContours_SingleCellCase6 mirrors spec.md §8 scenario 5: a
// single marching-squares cell with corners [0,10,10,0] (TL,TR,BR,BL)
// at level 5 is case 6 (TR,BR high) and must produce one open polyline
// crossing the top and bottom edges at their midpoints.
func TestExtractContours_SingleCellCase6(t *testing.T) {
	// 2x2 corner grid: TL=0, TR=10, BL=0, BR=10.
	corners := []float64{0, 10, 0, 10}
	levels := ExtractContours(corners, 2, 2, []float64{5}, DefaultConfig())
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	lines := levels[0].Lines
	if len(lines) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(lines))
	}
	line := lines[0]
	if line.Closed {
		t.Errorf("expected an open polyline")
	}
	if len(line.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(line.Points))
	}
	for _, p := range line.Points {
		if p.Y != 0 && p.Y != 1 {
			t.Errorf("expected points on the top (y=0) or bottom (y=1) edge, got %+v", p)
		}
		if math.Abs(p.X-0.5) > 1e-9 {
			t.Errorf("expected x=0.5 (midpoint), got %+v", p)
		}
	}
}

func TestExtractContours_UniformGridHasNoContours(t *testing.T) {
	corners := make([]float64, 9)
	for i := range corners {
		corners[i] = 5
	}
	levels := ExtractContours(corners, 3, 3, []float64{5}, DefaultConfig())
	if len(levels[0].Lines) != 0 {
		t.Errorf("expected no contour lines on a uniform grid, got %d", len(levels[0].Lines))
	}
}

func TestExtractContours_ConeProducesClosedLoop(t *testing.T) {
	// 5x5 corner grid shaped like a cone peaking at the center; a
	// mid-height level should close into a single loop around the peak.
	cw, ch := 5, 5
	corners := make([]float64, cw*ch)
	cx, cy := 2.0, 2.0
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			corners[y*cw+x] = 10 - d*3
		}
	}
	levels := ExtractContours(corners, cw, ch, []float64{5}, DefaultConfig())
	foundClosed := false
	for _, l := range levels[0].Lines {
		if l.Closed {
			foundClosed = true
		}
	}
	if !foundClosed {
		t.Errorf("expected at least one closed contour loop around the cone peak")
	}
}

func TestDouglasPeucker_CollapsesCollinearPoints(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0.001}, {2, 0}, {3, 0}}
	out := douglasPeucker(pts, 0.01, false)
	if len(out) != 2 {
		t.Errorf("expected collinear points to collapse to 2, got %d: %v", len(out), out)
	}
}
