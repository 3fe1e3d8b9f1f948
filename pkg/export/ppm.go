package export

import (
	"bytes"
	"fmt"
	"os"
)

// EncodePPM encodes an RGB pixel buffer (row-major, 3 bytes per pixel,
// width*height*3 long) as a binary (P6) PPM image — the simplest
// raster format a writer flag can emit without a codec dependency
// (spec.md §6 lists `--ppm` among the writer flags; heatmap-style
// outputs like runoff exposure or traffic congestion are the natural
// callers).
func EncodePPM(width, height int, rgb []byte) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("export: EncodePPM requires positive width/height, got %dx%d", width, height)
	}
	want := width * height * 3
	if len(rgb) != want {
		return nil, fmt.Errorf("export: EncodePPM buffer length %d, want %d for %dx%d RGB", len(rgb), want, width, height)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", width, height)
	buf.Write(rgb)
	return buf.Bytes(), nil
}

// SavePPMToFile encodes and writes a PPM image to filepath (0644 permissions).
func SavePPMToFile(filepath string, width, height int, rgb []byte) error {
	data, err := EncodePPM(width, height, rgb)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// GrayscaleToRGB expands a row-major [0,1]-clamped grayscale field into
// an RGB buffer suitable for EncodePPM, used to render scalar heatmaps
// (runoff exposure, traffic congestion, land value) without a palette
// dependency: value maps linearly from black to white.
func GrayscaleToRGB(values []float32) []byte {
	out := make([]byte, len(values)*3)
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		b := byte(v*255 + 0.5)
		out[i*3] = b
		out[i*3+1] = b
		out[i*3+2] = b
	}
	return out
}
