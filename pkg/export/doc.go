// Package export writes analysis results to the file formats the CLI
// tools accept via their writer flags (spec.md §6): JSON, CSV, PPM, and
// layered SVG. None of the writers know about any particular component;
// callers hand them a plain Go value (JSON), a header/row table (CSV), a
// pixel buffer (PPM), or a RenderSpec of named layers and polylines
// (SVG) assembled from whichever component's result they're exporting.
package export
