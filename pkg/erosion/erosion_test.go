package erosion

import (
	"math"
	"testing"
)

func TestApplyErosion_ThermalSmoothsASpike(t *testing.T) {
	// 5x5 flat plane with a single tall spike in the center.
	w, h := 5, 5
	heights := make([]float64, w*h)
	heights[idx(2, 2, w)] = 10

	cfg := DefaultConfig()
	cfg.RiversEnabled = false
	cfg.SmoothIterations = 0
	cfg.QuantizeScale = 0
	ApplyErosion(heights, w, h, cfg, 42)

	if heights[idx(2, 2, w)] >= 10 {
		t.Errorf("expected the spike to lose height after thermal erosion, got %f", heights[idx(2, 2, w)])
	}
	for k := 0; k < 4; k++ {
		nx, ny := 2+dx4[k], 2+dy4[k]
		if heights[idx(nx, ny, w)] <= 0 {
			t.Errorf("expected neighbor (%d,%d) to gain height from the spike, got %f", nx, ny, heights[idx(nx, ny, w)])
		}
	}
}

func TestApplyErosion_Disabled_NoOp(t *testing.T) {
	w, h := 3, 3
	heights := make([]float64, w*h)
	for i := range heights {
		heights[i] = float64(i)
	}
	original := append([]float64{}, heights...)

	cfg := DefaultConfig()
	cfg.Enabled = false
	ApplyErosion(heights, w, h, cfg, 1)

	for i := range heights {
		if heights[i] != original[i] {
			t.Errorf("expected no change when disabled, index %d: %f != %f", i, heights[i], original[i])
		}
	}
}

func TestApplyErosion_QuantizeSnapsToGrid(t *testing.T) {
	w, h := 2, 2
	heights := []float64{0.123456789, 1.0, 2.0, 3.0}
	cfg := Config{Enabled: true, QuantizeScale: 1000}
	ApplyErosion(heights, w, h, cfg, 1)

	for _, v := range heights {
		scaled := v * 1000
		if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Errorf("expected height quantized to 1/1000 steps, got %f", v)
		}
	}
}

func TestApplyErosion_RiverCarvingLowersHighFlowCells(t *testing.T) {
	w, h := 4, 1
	heights := []float64{3, 2, 1, 0}
	original := append([]float64{}, heights...)

	cfg := Config{
		Enabled:         true,
		RiversEnabled:   true,
		RiverMinAccum:   2,
		RiverCarve:      0.5,
		RiverCarvePower: 1.0,
	}
	ApplyErosion(heights, w, h, cfg, 1)

	// Cells with flow accumulation >= 2 (indices 1,2,3 on this ramp)
	// should have been carved lower than their originals.
	for i := 1; i < 4; i++ {
		if heights[i] >= original[i] {
			t.Errorf("expected index %d to be carved lower: %f >= %f", i, heights[i], original[i])
		}
	}
}
