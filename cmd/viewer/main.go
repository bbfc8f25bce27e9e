// Command viewer replays a recorded run from its output directory.
package main

import (
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/colav/camera"
	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/telemetry"
	"github.com/pthm-cable/colav/ui"
)

func main() {
	runDir := flag.String("dir", "", "Run output directory (ownship.csv, encounters.csv)")
	width := flag.Int("width", 1400, "Window width")
	height := flag.Int("height", 900, "Window height")
	fps := flag.Int("fps", 60, "Target frame rate")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *runDir == "" {
		fatal("--dir is required")
	}

	loadStart := time.Now()
	rp, err := telemetry.LoadReplay(*runDir)
	if err != nil {
		fatal("failed to load run", "dir", *runDir, "error", err)
	}
	loadDuration := time.Since(loadStart)

	cfg, err := runConfig(*runDir)
	if err != nil {
		fatal("failed to load run config", "error", err)
	}

	var route []nav.Vec2
	provider := scenario.Chain{scenario.Builtin{}, scenario.FileProvider{Dir: cfg.Scenario.Dir}}
	if sc, err := provider.Scenario(cfg.Scenario.ID); err != nil {
		logger.Warn("route unavailable", "scenario", cfg.Scenario.ID, "error", err)
	} else {
		route = append([]nav.Vec2{sc.Own.Pos}, sc.Waypoints...)
	}

	logger.Info("replay loaded",
		"dir", *runDir,
		"scenario", cfg.Scenario.ID,
		"frames", rp.Frames(),
		"targets", len(rp.TargetIDs()),
		"bookmarks", len(rp.Bookmarks),
		"load", loadDuration,
	)

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(*width), int32(*height), "colav replay: "+cfg.Scenario.ID)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(*fps))

	v := newViewer(rp, cfg, route, camera.New(float32(*width), float32(*height)))
	v.loadDuration = loadDuration
	v.fit()

	for !rl.WindowShouldClose() {
		v.handleInput()
		v.update()

		rl.BeginDrawing()
		rl.ClearBackground(seaColor)
		v.drawChart()
		v.drawPanels()
		v.drawTimeline()
		rl.EndDrawing()

		v.perf.RecordFrame()
	}
}

// runConfig loads the config snapshot written next to the CSVs, falling
// back to the defaults for runs recorded without one.
func runConfig(dir string) (*config.Config, error) {
	path := filepath.Join(dir, telemetry.ConfigFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// viewer holds replay and presentation state.
type viewer struct {
	rp    *telemetry.Replay
	cfg   *config.Config
	route []nav.Vec2
	cam   *camera.Camera

	overlays  *ui.OverlayRegistry
	renderer  *ui.Renderer
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	own       ui.PanelDescriptor
	targets   *ui.TargetTable
	bookmarks *ui.BookmarkList
	perfPanel *ui.PerfPanel
	perf      *telemetry.PerfCollector

	frame        int
	playing      bool
	speed        int // frames advanced per rendered frame
	showPerf     bool
	loadDuration time.Duration
}

func newViewer(rp *telemetry.Replay, cfg *config.Config, route []nav.Vec2, cam *camera.Camera) *viewer {
	r := ui.NewRenderer()
	r.MonitorThreshold = float32(cfg.Avoidance.MonitorThreshold)
	r.ActionThreshold = float32(cfg.Avoidance.ActionThreshold)
	return &viewer{
		rp:        rp,
		cfg:       cfg,
		route:     route,
		cam:       cam,
		overlays:  ui.NewOverlayRegistry(),
		renderer:  r,
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 100, 220),
		own:       ui.OwnShipPanel(float32(cfg.Actuator.MaxRudderDeg)),
		targets:   ui.NewTargetTable(0, 10, 430),
		bookmarks: ui.NewBookmarkList(0, 0, 300, 8),
		perfPanel: ui.NewPerfPanel(10, 0),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		speed:     1,
	}
}

// update advances playback.
func (v *viewer) update() {
	if !v.playing {
		return
	}
	v.frame += v.speed
	if v.frame >= v.rp.Frames()-1 {
		v.frame = v.rp.Frames() - 1
		v.playing = false
	}
}

// fit zooms the camera onto the whole run.
func (v *viewer) fit() {
	minN, minE, maxN, maxE := v.rp.Bounds()
	for _, p := range v.route {
		minN, maxN = min(minN, p.X), max(maxN, p.X)
		minE, maxE = min(minE, p.Y), max(maxE, p.Y)
	}
	pad := v.cfg.Risk.SafetyDistance
	v.cam.Fit(float32(minN-pad), float32(minE-pad), float32(maxN+pad), float32(maxE+pad), 40)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
