package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/geo"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/sim"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func headOnRun(t *testing.T) RunInput {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.HorizonS = 30
	cfg.Simulation.DTS = 0.5
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(cfg, scenario.HeadOn(), sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	origin, err := geo.NewOrigin(59.9, 10.7)
	if err != nil {
		t.Fatal(err)
	}
	return RunInput{
		Summary: s.Summary("baseline"),
		History: h,
		DT:      cfg.Simulation.DTS,
		Origin:  origin,
		Config:  "simulation:\n  dt_s: 0.5\n",
	}
}

// ---------- SaveRun ----------

func TestSaveRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	in := headOnRun(t)

	id, err := s.SaveRun(ctx, in)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := s.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Scenario != in.Summary.Scenario || run.Label != "baseline" || run.Ticks != in.History.Len() {
		t.Errorf("run = %+v", run)
	}
	if run.MinSeparation == nil || math.Abs(*run.MinSeparation-in.Summary.MinSeparation) > 1e-9 {
		t.Errorf("min separation = %v, want %v", run.MinSeparation, in.Summary.MinSeparation)
	}
	if !strings.HasPrefix(run.Track, "LINESTRING") {
		t.Errorf("track = %q", run.Track)
	}
	if run.Config != in.Config {
		t.Errorf("config = %q", run.Config)
	}

	ticks, err := s.Ticks(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != in.History.Len() {
		t.Fatalf("tick rows = %d, want %d", len(ticks), in.History.Len())
	}
	for i, row := range ticks {
		if row.Tick != i {
			t.Fatalf("row %d has tick %d", i, row.Tick)
		}
	}
	if math.Abs(ticks[0].Lat-59.9) > 1e-6 {
		t.Errorf("first lat = %v, want origin", ticks[0].Lat)
	}

	targets, err := s.Targets(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != in.History.Len() {
		t.Errorf("target rows = %d, want one per tick", len(targets))
	}
	if targets[0].TCPA == nil || *targets[0].TCPA <= 0 {
		t.Errorf("closing target should have a positive TCPA, got %v", targets[0].TCPA)
	}
}

func TestSaveRun_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	sum := sim.Summary{Scenario: "empty", MinSeparation: math.Inf(1)}
	id, err := s.SaveRun(ctx, RunInput{Summary: sum})
	if err != nil {
		t.Fatal(err)
	}
	run, err := s.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.MinSeparation != nil {
		t.Errorf("infinite separation stored as %v", *run.MinSeparation)
	}
}

// ---------- queries ----------

func TestRuns_FilterAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	in := headOnRun(t)

	first, err := s.SaveRun(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	other := in
	other.Summary.Scenario = "other"
	if _, err := s.SaveRun(ctx, other); err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveRun(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := s.Runs(ctx, in.Summary.Scenario)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Errorf("runs = %+v", runs)
	}
	all, err := s.Runs(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all runs = %d, want 3", len(all))
	}

	if err := s.DeleteRun(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(ctx, first); !errors.Is(err, ErrNoRun) {
		t.Errorf("deleted run: err = %v", err)
	}
	if ticks, _ := s.Ticks(ctx, first); len(ticks) != 0 {
		t.Errorf("deleted run kept %d tick rows", len(ticks))
	}
	if err := s.DeleteRun(ctx, first); !errors.Is(err, ErrNoRun) {
		t.Errorf("second delete: err = %v", err)
	}
}
