package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Scenario string
	Tick     int
	Ticks    int
	Time     float64
	Speed    int // playback ticks per frame
	FPS      int32
	Paused   bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Scenario: %s", data.Scenario), 10, 35, 16, rl.LightGray)
	rl.DrawText(
		fmt.Sprintf("Tick: %d/%d | t=%s | Speed: %dx | FPS: %d",
			data.Tick, max(data.Ticks-1, 0), formatClock(data.Time), data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Playing"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// formatClock renders seconds as m:ss.s.
func formatClock(sec float64) string {
	m := int(sec) / 60
	return fmt.Sprintf("%d:%04.1f", m, sec-float64(m*60))
}

// PerfPanelData holds viewer timing for display.
type PerfPanelData struct {
	FrameDuration time.Duration
	FPS           float64
	LoadDuration  time.Duration
	Rows          int
}

// PerfPanel renders the viewer performance panel.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x, y := p.x, p.y
	rl.DrawText("Viewer Performance", x, y, 16, rl.White)
	y += 20

	color := rl.LightGray
	if data.FPS > 0 && data.FPS < 30 {
		color = rl.Orange
	}
	rl.DrawText(fmt.Sprintf("Frame: %s (%.0f fps)", data.FrameDuration.Round(time.Microsecond), data.FPS), x, y, 12, color)
	y += 14
	rl.DrawText(fmt.Sprintf("Loaded %d rows in %s", data.Rows, data.LoadDuration.Round(time.Millisecond)), x, y, 12, rl.LightGray)
}
