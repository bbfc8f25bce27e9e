package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if cfg.Derived.Steps != 4500 {
		t.Errorf("Steps = %d, want 4500", cfg.Derived.Steps)
	}
	if math.Abs(cfg.Derived.MaxRudder-35*math.Pi/180) > 1e-12 {
		t.Errorf("MaxRudder = %v", cfg.Derived.MaxRudder)
	}
	if cfg.Advisory.Timeout != 2*time.Second {
		t.Errorf("advisory timeout = %v, want 2s", cfg.Advisory.Timeout)
	}
	if cfg.Derived.StatsWindowTicks != 100 {
		t.Errorf("StatsWindowTicks = %d, want 100", cfg.Derived.StatsWindowTicks)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	overlay := "simulation:\n  dt_s: 0.05\navoidance:\n  avoidance_angle_deg: 45\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.DTS != 0.05 || cfg.Simulation.HorizonS != 450 {
		t.Errorf("overlay not merged: %+v", cfg.Simulation)
	}
	if cfg.Derived.Steps != 9000 || math.Abs(cfg.Derived.AvoidanceAngle-math.Pi/4) > 1e-12 {
		t.Errorf("derived not recomputed: %+v", cfg.Derived)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Simulation.DTS = 0 }},
		{"dt too large", func(c *Config) { c.Simulation.DTS = 2 }},
		{"negative horizon", func(c *Config) { c.Simulation.HorizonS = -1 }},
		{"unknown integrator", func(c *Config) { c.Simulation.Integrator = "midpoint" }},
		{"thresholds out of order", func(c *Config) { c.Avoidance.ActionThreshold = 0.2 }},
		{"hysteresis too wide", func(c *Config) { c.Avoidance.Hysteresis = 0.4 }},
		{"rudder limit", func(c *Config) { c.Actuator.MaxRudderDeg = 95 }},
		{"speed bounds", func(c *Config) { c.Actuator.MinSpeed = 60 }},
		{"clear factor", func(c *Config) { c.Risk.ClearFactor = 1 }},
		{"advisory timeout", func(c *Config) {
			c.Advisory.Enabled = true
			c.Advisory.Timeout = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Finalize(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidate_IntegratorSpelling(t *testing.T) {
	for _, name := range []string{"rk4", "RK4", " Euler ", "euler"} {
		cfg := Default()
		cfg.Simulation.Integrator = name
		if err := cfg.Finalize(); err != nil {
			t.Errorf("integrator %q rejected: %v", name, err)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	heading := 30.0
	cfg.OwnShip.HeadingDeg = &heading
	cfg.Advisory.Timeout = 750 * time.Millisecond

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if got.Advisory.Timeout != cfg.Advisory.Timeout {
		t.Errorf("timeout = %v, want %v", got.Advisory.Timeout, cfg.Advisory.Timeout)
	}
	if got.OwnShip.HeadingDeg == nil || *got.OwnShip.HeadingDeg != 30 {
		t.Errorf("heading override lost")
	}

	clone := cfg.Clone()
	*clone.OwnShip.HeadingDeg = 10
	if *cfg.OwnShip.HeadingDeg != 30 {
		t.Error("Clone shares the heading override")
	}
}
