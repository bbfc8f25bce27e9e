package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNew(t *testing.T) {
	cam := New(1280, 720)
	if cam.North != 0 || cam.East != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.North, cam.East)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreen_Orientation(t *testing.T) {
	cam := New(1280, 720)

	sx, sy := cam.WorldToScreen(0, 0)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("origin at (%f, %f), want screen centre", sx, sy)
	}

	// North is up.
	_, sy = cam.WorldToScreen(100, 0)
	if !near(sy, 260) {
		t.Errorf("100 m north at y=%f, want 260", sy)
	}
	// East is right.
	sx, _ = cam.WorldToScreen(0, 100)
	if !near(sx, 740) {
		t.Errorf("100 m east at x=%f, want 740", sx)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720)
	cam.North, cam.East = 500, -200
	cam.SetZoom(0.25)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		n, e := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(n, e)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, n, e, sx, sy)
		}
	}
}

func TestPan_FollowsDrag(t *testing.T) {
	cam := New(1280, 720)
	n, e := float32(50), float32(80)
	sx0, sy0 := cam.WorldToScreen(n, e)

	cam.Pan(30, -20)
	sx1, sy1 := cam.WorldToScreen(n, e)
	if !near(sx1-sx0, 30) || !near(sy1-sy0, -20) {
		t.Errorf("point moved by (%f, %f), want (30, -20)", sx1-sx0, sy1-sy0)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720)

	cam.SetZoom(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.SetZoom(0)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
}

func TestZoomAt_KeepsCursorPoint(t *testing.T) {
	cam := New(1280, 720)
	n0, e0 := cam.ScreenToWorld(900, 200)

	cam.ZoomAt(900, 200, 2)
	n1, e1 := cam.ScreenToWorld(900, 200)
	if !near(n0, n1) || !near(e0, e1) {
		t.Errorf("cursor point moved from (%f,%f) to (%f,%f)", n0, e0, n1, e1)
	}
	if cam.Zoom != 2 {
		t.Errorf("zoom = %f, want 2", cam.Zoom)
	}
}

func TestFit(t *testing.T) {
	cam := New(1000, 500)
	cam.Fit(0, -1000, 2000, 1000, 50)

	if !near(cam.North, 1000) || !near(cam.East, 0) {
		t.Errorf("centre = (%f, %f), want (1000, 0)", cam.North, cam.East)
	}
	// 900 px over 2000 m east, 400 px over 2000 m north: north limits.
	if !near(cam.Zoom, 0.2) {
		t.Errorf("zoom = %f, want 0.2", cam.Zoom)
	}
	for _, p := range [][2]float32{{0, -1000}, {2000, 1000}} {
		if !cam.IsVisible(p[0], p[1], 0) {
			t.Errorf("corner %v not visible after fit", p)
		}
	}
}

func TestVisibleWorldBounds(t *testing.T) {
	cam := New(1280, 720)
	cam.SetZoom(2)
	minN, minE, maxN, maxE := cam.VisibleWorldBounds()
	if !near(minN, -180) || !near(maxN, 180) || !near(minE, -320) || !near(maxE, 320) {
		t.Errorf("bounds = (%f,%f,%f,%f)", minN, minE, maxN, maxE)
	}
}

func TestGridStep(t *testing.T) {
	tests := []struct {
		zoom float32
		want float32
	}{
		{1, 50},      // 50 px -> 50 m
		{0.1, 500},   // 50 px -> 500 m
		{0.03, 2000}, // 50 px -> 1667 m
		{10, 5},
	}
	for _, tt := range tests {
		cam := New(1280, 720)
		cam.SetZoom(tt.zoom)
		if got := cam.GridStep(50); math.Abs(float64(got-tt.want)) > 1e-3*float64(tt.want) {
			t.Errorf("zoom %v: step = %v, want %v", tt.zoom, got, tt.want)
		}
	}
}
