package main

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

const controlsLegend = "[Space] play/pause  [,/.] step  [-/+] speed  [wheel] zoom  [right drag] pan  [F] fit  [N] next event  [Tab] overlays  [P] perf"

// handleInput processes keyboard and mouse input.
func (v *viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		v.togglePlay()
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		v.seek(v.frame - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.seek(v.frame + 1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.seek(0)
	}
	if rl.IsKeyPressed(rl.KeyEnd) {
		v.seek(v.rp.Frames() - 1)
	}
	if (rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd)) && v.speed < 64 {
		v.speed *= 2
	}
	if (rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract)) && v.speed > 1 {
		v.speed /= 2
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.fit()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPerf = !v.showPerf
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.seekNextBookmark()
	}

	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}

	v.handleCameraInput()
}

// handleResize propagates window size changes.
func (v *viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	v.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
}

// handleCameraInput processes camera pan/zoom controls.
func (v *viewer) handleCameraInput() {
	mouse := rl.GetMousePosition()
	if mouse.Y > float32(rl.GetScreenHeight())-timelineHeight {
		return
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && v.controls.HandleClick(v.overlays, mouse.X, mouse.Y) {
		return
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(d.X, d.Y)
	}
}

func (v *viewer) togglePlay() {
	if !v.playing && v.frame >= v.rp.Frames()-1 {
		v.frame = 0
	}
	v.playing = !v.playing
}

// seek jumps to a frame, clamped to the run.
func (v *viewer) seek(frame int) {
	v.frame = min(max(frame, 0), v.rp.Frames()-1)
}

// seekNextBookmark jumps to the first bookmark after the current tick.
func (v *viewer) seekNextBookmark() {
	tick := v.rp.Own[v.frame].Tick
	for _, b := range v.rp.Bookmarks {
		if b.Tick > tick {
			v.seek(v.rp.FrameOf(b.Tick))
			return
		}
	}
}
