// Package camera maps the local nautical frame onto a screen viewport.
//
// World coordinates are metres with North pointing up the screen and East to
// the right, so a north offset moves a point towards smaller screen y.
package camera

import "math"

// Camera controls the viewport onto the chart.
type Camera struct {
	// North, East is the chart position at the viewport centre, metres.
	North, East float32

	// Zoom is screen pixels per metre.
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centred on the frame origin at one pixel per metre.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		Zoom:      1,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   0.001,
		MaxZoom:   50,
	}
}

// WorldToScreen converts a chart position to screen coordinates.
func (c *Camera) WorldToScreen(north, east float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (east-c.East)*c.Zoom
	sy = c.ViewportH/2 - (north-c.North)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to a chart position.
func (c *Camera) ScreenToWorld(sx, sy float32) (north, east float32) {
	east = c.East + (sx-c.ViewportW/2)/c.Zoom
	north = c.North - (sy-c.ViewportH/2)/c.Zoom
	return north, east
}

// Length converts a chart distance to pixels.
func (c *Camera) Length(metres float32) float32 { return metres * c.Zoom }

// IsVisible returns true if a circle at (north, east) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(north, east, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(east-c.East) <= halfW && absf(north-c.North) <= halfH
}

// Resize updates the viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the view by a drag of (dx, dy) screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.East -= dx / c.Zoom
	c.North += dy / c.Zoom
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the chart point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	north, east := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	c.East = east - (sx-c.ViewportW/2)/c.Zoom
	c.North = north + (sy-c.ViewportH/2)/c.Zoom
}

// Fit centres the view on a bounding box and zooms so it fills the viewport
// less margin pixels on every side.
func (c *Camera) Fit(minNorth, minEast, maxNorth, maxEast, margin float32) {
	c.North = (minNorth + maxNorth) / 2
	c.East = (minEast + maxEast) / 2

	w := c.ViewportW - 2*margin
	h := c.ViewportH - 2*margin
	spanE := maxEast - minEast
	spanN := maxNorth - minNorth
	if w <= 0 || h <= 0 || (spanE <= 0 && spanN <= 0) {
		return
	}
	zoom := float32(math.Inf(1))
	if spanE > 0 {
		zoom = w / spanE
	}
	if spanN > 0 {
		zoom = min(zoom, h/spanN)
	}
	c.SetZoom(zoom)
}

// VisibleWorldBounds returns the chart bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minNorth, minEast, maxNorth, maxEast float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.North - halfH, c.East - halfW, c.North + halfH, c.East + halfW
}

// GridStep picks a grid spacing in metres (1, 2 or 5 times a power of ten)
// so that adjacent lines are at least minPixels apart.
func (c *Camera) GridStep(minPixels float32) float32 {
	raw := float64(minPixels / c.Zoom)
	if raw <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if base*m >= raw {
			return float32(base * m)
		}
	}
	return float32(base * 10)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
