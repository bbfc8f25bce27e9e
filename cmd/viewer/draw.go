package main

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/telemetry"
	"github.com/pthm-cable/colav/ui"
)

const (
	timelineHeight = 40
	velocitySecs   = 60 // velocity vectors show one minute of travel
	headingRay     = 40 // px
)

var (
	seaColor      = rl.Color{R: 8, G: 20, B: 34, A: 255}
	gridColor     = rl.Color{R: 24, G: 44, B: 64, A: 255}
	ownColor      = rl.Color{R: 240, G: 240, B: 240, A: 255}
	trackColor    = rl.Color{R: 200, G: 200, B: 200, A: 120}
	routeColor    = rl.Color{R: 120, G: 200, B: 120, A: 200}
	cpaColor      = rl.Color{R: 230, G: 90, B: 200, A: 200}
	velocityColor = rl.Color{R: 120, G: 200, B: 255, A: 200}
)

// toScreen maps a local-frame position to screen coordinates.
func (v *viewer) toScreen(north, east float64) rl.Vector2 {
	sx, sy := v.cam.WorldToScreen(float32(north), float32(east))
	return rl.Vector2{X: sx, Y: sy}
}

// drawChart renders the world view for the current frame.
func (v *viewer) drawChart() {
	own := v.rp.Own[v.frame]
	targets := v.rp.Targets(v.frame)

	if v.overlays.IsEnabled(ui.OverlayGrid) {
		v.drawGrid()
	}
	if v.overlays.IsEnabled(ui.OverlayWaypoints) {
		v.drawRoute()
	}
	if v.overlays.IsEnabled(ui.OverlayOwnTrack) {
		v.drawOwnTrack()
	}
	if v.overlays.IsEnabled(ui.OverlayTrails) {
		for _, id := range v.rp.TargetIDs() {
			v.drawTrail(v.rp.Track(id, own.Tick), trackColor)
		}
	}

	for _, t := range targets {
		if v.overlays.IsEnabled(ui.OverlaySafety) && t.Safety > 0 {
			rl.DrawCircleLinesV(v.toScreen(t.X, t.Y), v.cam.Length(float32(t.Safety)), ui.StateColor(t.State))
		}
		if v.overlays.IsEnabled(ui.OverlayCPA) {
			v.drawCPA(own, t)
		}
		if v.overlays.IsEnabled(ui.OverlayVelocity) {
			v.drawVelocity(t.X, t.Y, t.Heading, t.Speed)
		}
		v.drawShip(t.X, t.Y, t.Heading, 8, ui.StateColor(t.State))
		if v.overlays.IsEnabled(ui.OverlayLabels) {
			p := v.toScreen(t.X, t.Y)
			rl.DrawText(fmt.Sprintf("TS%d %.2f", t.Target, t.Risk), int32(p.X)+10, int32(p.Y)-6, 12, rl.LightGray)
		}
	}

	if v.overlays.IsEnabled(ui.OverlayVelocity) {
		v.drawVelocity(own.X, own.Y, own.Heading, own.Speed)
	}
	if v.overlays.IsEnabled(ui.OverlayHeadings) {
		v.drawHeadingRays(own)
	}
	v.drawShip(own.X, own.Y, own.Heading, 10, ownColor)
}

// drawGrid draws north/east grid lines at a round spacing.
func (v *viewer) drawGrid() {
	step := v.cam.GridStep(80)
	minN, minE, maxN, maxE := v.cam.VisibleWorldBounds()
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())

	for n := float32(math.Floor(float64(minN/step))) * step; n <= maxN; n += step {
		_, sy := v.cam.WorldToScreen(n, 0)
		rl.DrawLineV(rl.Vector2{X: 0, Y: sy}, rl.Vector2{X: w, Y: sy}, gridColor)
	}
	for e := float32(math.Floor(float64(minE/step))) * step; e <= maxE; e += step {
		sx, _ := v.cam.WorldToScreen(0, e)
		rl.DrawLineV(rl.Vector2{X: sx, Y: 0}, rl.Vector2{X: sx, Y: h}, gridColor)
	}
	rl.DrawText(fmt.Sprintf("grid %.0f m", step), int32(w)-110, int32(h)-timelineHeight-20, 12, rl.Gray)
}

// drawRoute draws the planned legs and waypoint markers.
func (v *viewer) drawRoute() {
	for i, p := range v.route {
		s := v.toScreen(p.X, p.Y)
		if i > 0 {
			prev := v.route[i-1]
			rl.DrawLineV(v.toScreen(prev.X, prev.Y), s, routeColor)
		}
		rl.DrawCircleLinesV(s, 5, routeColor)
	}
}

// drawOwnTrack draws the own-ship path up to the current frame, colored by
// the avoidance state at each point.
func (v *viewer) drawOwnTrack() {
	for i := 1; i <= v.frame; i++ {
		a, b := v.rp.Own[i-1], v.rp.Own[i]
		color := trackColor
		if b.MaxState != "clear" && b.MaxState != "" {
			color = ui.StateColor(b.MaxState)
		}
		rl.DrawLineV(v.toScreen(a.X, a.Y), v.toScreen(b.X, b.Y), color)
	}
}

func (v *viewer) drawTrail(rows []telemetry.EncounterRow, color rl.Color) {
	for i := 1; i < len(rows); i++ {
		rl.DrawLineV(v.toScreen(rows[i-1].X, rows[i-1].Y), v.toScreen(rows[i].X, rows[i].Y), color)
	}
}

// drawCPA connects the own-ship and target positions at closest approach.
func (v *viewer) drawCPA(own telemetry.OwnShipRow, t telemetry.EncounterRow) {
	tcpa := float64(t.TCPA)
	if math.IsInf(tcpa, 0) || math.IsNaN(tcpa) || tcpa <= 0 {
		return
	}
	op := nav.Vec2{X: own.X, Y: own.Y}.Add(nav.FromPolar(own.Speed*tcpa, nav.Rad(own.Heading)))
	tp := nav.Vec2{X: t.X, Y: t.Y}.Add(nav.FromPolar(t.Speed*tcpa, nav.Rad(t.Heading)))
	a, b := v.toScreen(op.X, op.Y), v.toScreen(tp.X, tp.Y)
	rl.DrawLineV(a, b, cpaColor)
	rl.DrawCircleV(a, 3, cpaColor)
	rl.DrawCircleV(b, 3, cpaColor)
}

func (v *viewer) drawVelocity(north, east, headingDeg, speed float64) {
	end := nav.Vec2{X: north, Y: east}.Add(nav.FromPolar(speed*velocitySecs, nav.Rad(headingDeg)))
	rl.DrawLineV(v.toScreen(north, east), v.toScreen(end.X, end.Y), velocityColor)
}

// drawHeadingRays shows the actual, desired and commanded headings.
func (v *viewer) drawHeadingRays(own telemetry.OwnShipRow) {
	origin := v.toScreen(own.X, own.Y)
	ray := func(deg float64, color rl.Color) {
		r := nav.Rad(deg)
		end := rl.Vector2{X: origin.X + headingRay*float32(math.Sin(r)), Y: origin.Y - headingRay*float32(math.Cos(r))}
		rl.DrawLineV(origin, end, color)
	}
	ray(own.Desired, routeColor)
	ray(own.Commanded, rl.Orange)
}

// drawShip draws a triangle pointing along heading, sized in pixels so it
// stays visible at any zoom.
func (v *viewer) drawShip(north, east, headingDeg float64, size float32, color rl.Color) {
	c := v.toScreen(north, east)
	h := nav.Rad(headingDeg)
	point := func(angle float64, r float32) rl.Vector2 {
		return rl.Vector2{X: c.X + r*float32(math.Sin(angle)), Y: c.Y - r*float32(math.Cos(angle))}
	}
	bow := point(h, size)
	port := point(h-2.5, size*0.7)
	stbd := point(h+2.5, size*0.7)
	rl.DrawTriangle(bow, port, stbd, color)
}

// drawPanels renders the HUD, own-ship panel, target table and event list.
func (v *viewer) drawPanels() {
	own := v.rp.Own[v.frame]
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())

	v.hud.Draw(ui.HUDData{
		Title:    "COLAV replay",
		Scenario: v.cfg.Scenario.ID,
		Tick:     own.Tick,
		Ticks:    v.rp.Own[len(v.rp.Own)-1].Tick + 1,
		Time:     own.Time,
		Speed:    v.speed,
		FPS:      rl.GetFPS(),
		Paused:   !v.playing,
	})

	bottom := v.controls.Draw(v.overlays)
	v.renderer.DrawPanelDescriptor(10, bottom+10, v.own, own)

	v.targets.SetPosition(w-440, 10)
	listTop := v.targets.Draw(v.rp.Targets(v.frame)) + 10
	v.bookmarks.SetPosition(w-310, listTop)
	v.bookmarks.Draw(v.rp.Bookmarks, own.Tick)

	if v.showPerf {
		stats := v.perf.Stats()
		v.perfPanel.SetPosition(w-260, h-timelineHeight-60)
		v.perfPanel.Draw(ui.PerfPanelData{
			FrameDuration: stats.FrameDuration,
			FPS:           stats.FPS,
			LoadDuration:  v.loadDuration,
			Rows:          v.rp.Frames(),
		})
	}
	v.hud.DrawControls(w, h-timelineHeight, controlsLegend)
}

// drawTimeline renders the play button, frame slider and bookmark ticks.
func (v *viewer) drawTimeline() {
	w := float32(rl.GetScreenWidth())
	y := float32(rl.GetScreenHeight()) - timelineHeight + 10

	label := "Play"
	if v.playing {
		label = "Pause"
	}
	if gui.Button(rl.Rectangle{X: 10, Y: y, Width: 60, Height: 20}, label) {
		v.togglePlay()
	}

	last := float32(v.rp.Frames() - 1)
	bar := rl.Rectangle{X: 120, Y: y, Width: w - 200, Height: 20}
	own := v.rp.Own[v.frame]
	pos := gui.SliderBar(bar, fmt.Sprintf("%.0fs", own.Time), fmt.Sprintf("%.0fs", v.rp.Own[len(v.rp.Own)-1].Time), float32(v.frame), 0, max(last, 1))
	if f := int(pos + 0.5); f != v.frame {
		v.seek(f)
	}

	if last <= 0 {
		return
	}
	for _, b := range v.rp.Bookmarks {
		x := bar.X + bar.Width*float32(v.rp.FrameOf(b.Tick))/last
		rl.DrawLineV(rl.Vector2{X: x, Y: y - 4}, rl.Vector2{X: x, Y: y}, rl.Yellow)
	}
}
