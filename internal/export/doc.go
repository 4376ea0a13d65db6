// Package export renders particle frames, preview canvases and metric
// series as SVG.
package export
