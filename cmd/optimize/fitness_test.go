package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/sim"
)

func TestParamVector_RoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}

	cfg := config.Default()
	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Default {
			t.Errorf("%s: config default %v, spec default %v", spec.Name, got[i], spec.Default)
		}
	}
}

func TestParamVector_ApplyClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{90, 0.1, -1, 5})

	if cfg.Avoidance.AvoidanceAngleDeg != 60 || cfg.Avoidance.ActionThreshold != 0.35 ||
		cfg.Avoidance.Hysteresis != 0 || cfg.Avoidance.ReleaseFactor != 2 {
		t.Errorf("avoidance = %+v", cfg.Avoidance)
	}
	if err := cfg.Finalize(); err != nil {
		t.Errorf("clamped corner does not validate: %v", err)
	}
}

func TestCrossTrack(t *testing.T) {
	a, b := nav.Vec2{}, nav.Vec2{X: 1000}
	tests := []struct {
		p    nav.Vec2
		want float64
	}{
		{nav.Vec2{X: 500}, 0},
		{nav.Vec2{X: 500, Y: 120}, 120},
		{nav.Vec2{X: -50, Y: -30}, 30},
	}
	for _, tt := range tests {
		if got := crossTrack(tt.p, a, b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("crossTrack(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := crossTrack(nav.Vec2{X: 3, Y: 4}, a, a); got != 5 {
		t.Errorf("degenerate leg = %v, want 5", got)
	}
}

func TestCaseFitness(t *testing.T) {
	cfg := config.Default()
	fe := &FitnessEvaluator{}

	clean := caseResult{summary: sim.Summary{Ticks: 100, MinSeparation: 2000}}
	closeIn := caseResult{summary: sim.Summary{Ticks: 100, MinSeparation: 250}}
	turning := caseResult{summary: sim.Summary{Ticks: 100, MinSeparation: 2000, TurnTicks: 50}}
	failed := caseResult{err: dynamics.ErrNonFinite}

	if f := fe.caseFitness(cfg, clean); f != 0 {
		t.Errorf("clean run fitness = %v, want 0", f)
	}
	if f := fe.caseFitness(cfg, closeIn); math.Abs(f-weightSeparation*0.25) > 1e-9 {
		t.Errorf("half safety distance fitness = %v", f)
	}
	if f := fe.caseFitness(cfg, turning); math.Abs(f-weightTurns*0.5) > 1e-9 {
		t.Errorf("turning fitness = %v", f)
	}
	if f := fe.caseFitness(cfg, failed); f != abortPenalty {
		t.Errorf("failed run fitness = %v", f)
	}
}

func TestEvaluate_HeadOn(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.HorizonS = 120
	cfg.Simulation.DTS = 0.5
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, []*scenario.Scenario{scenario.HeadOn(), scenario.CrossingPort()}, cfg, nil)

	f := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(f) || f < 0 || f >= abortPenalty {
		t.Fatalf("fitness = %v", f)
	}
	last := fe.Last()
	if len(last) != 2 || last[0].scenario != "head-on" || last[1].scenario != "crossing-port" {
		t.Fatalf("results = %+v", last)
	}
	if last[0].summary.TurnTicks == 0 {
		t.Error("head-on run never turned")
	}
	if last[0].deviation <= 0 {
		t.Error("head-on run never left the planned leg")
	}
	if len(fe.Best()) != 2 {
		t.Error("best not recorded")
	}
}
