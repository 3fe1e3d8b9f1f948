package export

import (
	"bytes"
	"fmt"
	"os"

	svg "github.com/ajstarks/svgo"
)

// SVGOptions configures layered SVG export, generalized from the
// teacher's dungeon-graph renderer to tile-grid layer rendering
// (blocks, road overlays, contour polylines, runoff heatmaps).
type SVGOptions struct {
	CellSize   int    // pixels per tile cell (default: 12)
	Margin     int    // canvas margin in pixels (default: 20)
	Title      string // optional title drawn above the grid
	ShowLegend bool   // draw a legend of layer colors
}

// DefaultSVGOptions returns sensible default SVG export options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{CellSize: 12, Margin: 20, ShowLegend: true}
}

// CellLayer paints one RGB-hex color per grid cell, e.g. a district ID
// palette, a road overlay mask, or a quantized heatmap.
type CellLayer struct {
	Name  string
	Width, Height int
	// Colors[i] is an SVG fill color ("" means transparent/skip) for
	// cell i in row-major order; must be len Width*Height when set.
	Colors []string
}

// Polyline is a single open or closed line in tile-grid coordinate
// space (fractional cell units), used for contour lines and road/bypass
// paths.
type Polyline struct {
	Name   string
	Points []PointF
	Color  string
	Width  float64
	Closed bool
}

// PointF is a floating-point tile-grid coordinate.
type PointF struct{ X, Y float64 }

// RenderSpec is everything ExportSVG needs to draw one figure: a
// background cell layer, overlay cell layers, and a set of polylines,
// in draw order.
type RenderSpec struct {
	Width, Height int
	Background    CellLayer   // optional; Colors may be nil
	Overlays      []CellLayer // drawn in order, later layers on top
	Polylines     []Polyline
}

// ExportSVG renders spec as a layered SVG: a background layer (if any),
// each overlay cell layer, then polylines, optionally with a legend.
func ExportSVG(spec RenderSpec, opts SVGOptions) ([]byte, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("export: RenderSpec requires positive Width/Height, got %dx%d", spec.Width, spec.Height)
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 12
	}
	if opts.Margin <= 0 {
		opts.Margin = 20
	}

	gridW := spec.Width * opts.CellSize
	gridH := spec.Height * opts.CellSize
	headerH := 0
	if opts.Title != "" {
		headerH = 30
	}
	legendW := 0
	if opts.ShowLegend && (len(spec.Overlays) > 0 || len(spec.Polylines) > 0) {
		legendW = 160
	}

	canvasW := gridW + 2*opts.Margin + legendW
	canvasH := gridH + 2*opts.Margin + headerH

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(canvasW, canvasH)
	canvas.Rect(0, 0, canvasW, canvasH, "fill:#0f1220")

	if opts.Title != "" {
		canvas.Text(canvasW/2, 20, opts.Title, "text-anchor:middle;font-size:16px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
	}

	originX := opts.Margin
	originY := opts.Margin + headerH

	drawCellLayer(canvas, spec.Background, spec.Width, spec.Height, originX, originY, opts.CellSize)
	for _, layer := range spec.Overlays {
		drawCellLayer(canvas, layer, spec.Width, spec.Height, originX, originY, opts.CellSize)
	}
	for _, pl := range spec.Polylines {
		drawPolyline(canvas, pl, originX, originY, opts.CellSize)
	}

	if legendW > 0 {
		drawLegend(canvas, spec, originX+gridW+20, originY)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveSVGToFile renders spec and writes it to filepath (0644 permissions).
func SaveSVGToFile(spec RenderSpec, filepath string, opts SVGOptions) error {
	data, err := ExportSVG(spec, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

func drawCellLayer(canvas *svg.SVG, layer CellLayer, width, height, originX, originY, cellSize int) {
	if len(layer.Colors) == 0 {
		return
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if i >= len(layer.Colors) {
				continue
			}
			color := layer.Colors[i]
			if color == "" {
				continue
			}
			canvas.Rect(originX+x*cellSize, originY+y*cellSize, cellSize, cellSize, fmt.Sprintf("fill:%s", color))
		}
	}
}

func drawPolyline(canvas *svg.SVG, pl Polyline, originX, originY, cellSize int) {
	if len(pl.Points) < 2 {
		return
	}
	width := pl.Width
	if width <= 0 {
		width = 1.5
	}
	color := pl.Color
	if color == "" {
		color = "#e2e8f0"
	}
	xs := make([]int, len(pl.Points))
	ys := make([]int, len(pl.Points))
	for i, p := range pl.Points {
		xs[i] = originX + int(p.X*float64(cellSize))
		ys[i] = originY + int(p.Y*float64(cellSize))
	}
	style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f;stroke-linejoin:round", color, width)
	if pl.Closed {
		canvas.Polygon(xs, ys, style)
		return
	}
	canvas.Polyline(xs, ys, style)
}

func drawLegend(canvas *svg.SVG, spec RenderSpec, x, y int) {
	canvas.Text(x, y, "Layers", "font-size:13px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
	y += 20
	seen := map[string]bool{}
	swatch := func(name, color string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		canvas.Rect(x, y-10, 12, 12, fmt.Sprintf("fill:%s", color))
		canvas.Text(x+18, y, name, "font-size:11px;fill:#cbd5e0;font-family:monospace")
		y += 18
	}
	if spec.Background.Name != "" {
		swatch(spec.Background.Name, "#4a5568")
	}
	for _, l := range spec.Overlays {
		swatch(l.Name, firstNonEmpty(l.Colors, "#4299e1"))
	}
	for _, pl := range spec.Polylines {
		c := pl.Color
		if c == "" {
			c = "#e2e8f0"
		}
		swatch(pl.Name, c)
	}
}

func firstNonEmpty(colors []string, fallback string) string {
	for _, c := range colors {
		if c != "" {
			return c
		}
	}
	return fallback
}
