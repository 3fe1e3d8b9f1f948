package export

import (
	"bytes"
	"testing"
)

func TestEncodePPMHeaderAndLength(t *testing.T) {
	rgb := GrayscaleToRGB([]float32{0, 0.5, 1, 0.25})
	data, err := EncodePPM(2, 2, rgb)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("P6\n2 2\n255\n")) {
		t.Fatalf("unexpected PPM header: %q", data[:minInt(len(data), 20)])
	}
	if len(data) != len("P6\n2 2\n255\n")+2*2*3 {
		t.Fatalf("unexpected PPM length %d", len(data))
	}
}

func TestEncodePPMRejectsMismatchedBufferLength(t *testing.T) {
	if _, err := EncodePPM(2, 2, []byte{0, 0, 0}); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}

func TestGrayscaleToRGBClampsOutOfRangeValues(t *testing.T) {
	rgb := GrayscaleToRGB([]float32{-1, 2})
	if rgb[0] != 0 || rgb[3] != 255 {
		t.Fatalf("expected clamping to [0,255], got %v", rgb)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
