// Package config provides configuration loading and validation for a run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/colav/dynamics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all run configuration. It is not mutated once a run starts.
type Config struct {
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Simulation SimulationConfig `yaml:"simulation"`
	OwnShip    OwnShipConfig    `yaml:"own_ship"`
	Dynamics   DynamicsConfig   `yaml:"dynamics"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	Controller ControllerConfig `yaml:"controller"`
	Guidance   GuidanceConfig   `yaml:"guidance"`
	Risk       RiskConfig       `yaml:"risk"`
	Avoidance  AvoidanceConfig  `yaml:"avoidance"`
	Advisory   AdvisoryConfig   `yaml:"advisory"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Store      StoreConfig      `yaml:"store"`
	Geo        GeoConfig        `yaml:"geo"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScenarioConfig selects the encounter.
type ScenarioConfig struct {
	ID  string `yaml:"id"`
	Dir string `yaml:"dir"` // directory searched for <id>.yaml
}

// SimulationConfig holds the time base.
type SimulationConfig struct {
	HorizonS   float64 `yaml:"horizon_s"`
	DTS        float64 `yaml:"dt_s"`
	Integrator string  `yaml:"integrator"` // rk4 | euler
}

// OwnShipConfig fills in own-ship values the scenario leaves at zero.
type OwnShipConfig struct {
	Length      float64  `yaml:"length"`
	Beam        float64  `yaml:"beam"`
	CruiseSpeed float64  `yaml:"cruise_speed"`          // overrides the scenario when > 0
	HeadingDeg  *float64 `yaml:"heading_deg,omitempty"` // overrides the scenario initial heading
}

// DynamicsConfig holds the maneuvering model coefficients.
type DynamicsConfig struct {
	NomotoGain    float64 `yaml:"nomoto_gain"`
	NomotoTime    float64 `yaml:"nomoto_time"`
	YawCubic      float64 `yaml:"yaw_cubic"`
	SideslipGain  float64 `yaml:"sideslip_gain"`
	SideslipLag   float64 `yaml:"sideslip_lag"`
	SpeedLag      float64 `yaml:"speed_lag"`
	TurnSpeedLoss float64 `yaml:"turn_speed_loss"`
	MinSteerSpeed float64 `yaml:"min_steer_speed"`
}

// ActuatorConfig holds the physical actuator bounds.
type ActuatorConfig struct {
	MaxRudderDeg      float64 `yaml:"max_rudder_deg"`
	MaxRudderRateDegS float64 `yaml:"max_rudder_rate_deg_s"`
	MinSpeed          float64 `yaml:"min_speed"`
	MaxSpeed          float64 `yaml:"max_speed"`
}

// ControllerConfig holds the heading loop gains.
type ControllerConfig struct {
	Kp               float64 `yaml:"kp"`
	Ki               float64 `yaml:"ki"`
	Kd               float64 `yaml:"kd"`
	IntegralLimitDeg float64 `yaml:"integral_limit_deg"`
}

// GuidanceConfig holds waypoint sequencing parameters.
type GuidanceConfig struct {
	ArrivalRadius float64 `yaml:"arrival_radius"`
}

// RiskConfig holds the risk policy.
type RiskConfig struct {
	SafetyDistance   float64 `yaml:"safety_distance"`
	ClearFactor      float64 `yaml:"clear_factor"`
	TCPAUrgentS      float64 `yaml:"tcpa_urgent_s"`
	TCPAHorizonS     float64 `yaml:"tcpa_horizon_s"`
	RangeNear        float64 `yaml:"range_near"`
	RangeFar         float64 `yaml:"range_far"`
	MinRelativeSpeed float64 `yaml:"min_relative_speed"`
}

// AvoidanceConfig holds the decision thresholds and maneuver geometry.
type AvoidanceConfig struct {
	MonitorThreshold       float64 `yaml:"monitor_threshold"`
	ActionThreshold        float64 `yaml:"action_threshold"`
	EmergencyThreshold     float64 `yaml:"emergency_threshold"`
	Hysteresis             float64 `yaml:"hysteresis"`
	MinDCPA                float64 `yaml:"min_dcpa"`
	AvoidanceAngleDeg      float64 `yaml:"avoidance_angle_deg"`
	EmergencyAngleDeg      float64 `yaml:"emergency_angle_deg"`
	ReleaseFactor          float64 `yaml:"release_factor"`
	HeadOnSectorDeg        float64 `yaml:"head_on_sector_deg"`
	ReciprocalToleranceDeg float64 `yaml:"reciprocal_tolerance_deg"`
	SternSectorDeg         float64 `yaml:"stern_sector_deg"`
}

// AdvisoryConfig holds the external advisor settings.
type AdvisoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	IntervalTicks int           `yaml:"interval_ticks"`
	APIKeyEnv     string        `yaml:"api_key_env"` // environment variable holding the API key
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // seconds of sim time per window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StoreConfig holds the run archive settings.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file; empty disables archiving
}

// GeoConfig anchors the local frame on the globe.
type GeoConfig struct {
	OriginLat float64 `yaml:"origin_lat"`
	OriginLon float64 `yaml:"origin_lon"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Steps            int     // ticks in the horizon
	MaxRudder        float64 // rad
	MaxRudderRate    float64 // rad/s
	IntegralLimit    float64 // rad
	AvoidanceAngle   float64 // rad
	EmergencyAngle   float64 // rad
	HeadOnSector     float64 // rad
	Reciprocal       float64 // rad
	SternSector      float64 // rad
	StatsWindowTicks int
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize recomputes derived values and validates. Call it after changing
// fields by hand.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.OwnShip.HeadingDeg != nil {
		h := *c.OwnShip.HeadingDeg
		out.OwnShip.HeadingDeg = &h
	}
	return &out
}

func (c *Config) computeDerived() {
	d := &c.Derived
	if c.Simulation.DTS > 0 {
		d.Steps = int(math.Round(c.Simulation.HorizonS / c.Simulation.DTS))
		d.StatsWindowTicks = max(1, int(math.Round(c.Telemetry.StatsWindow/c.Simulation.DTS)))
	}
	d.MaxRudder = rad(c.Actuator.MaxRudderDeg)
	d.MaxRudderRate = rad(c.Actuator.MaxRudderRateDegS)
	d.IntegralLimit = rad(c.Controller.IntegralLimitDeg)
	d.AvoidanceAngle = rad(c.Avoidance.AvoidanceAngleDeg)
	d.EmergencyAngle = rad(c.Avoidance.EmergencyAngleDeg)
	d.HeadOnSector = rad(c.Avoidance.HeadOnSectorDeg)
	d.Reciprocal = rad(c.Avoidance.ReciprocalToleranceDeg)
	d.SternSector = rad(c.Avoidance.SternSectorDeg)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// Validate checks every range constraint. All problems are reported; each
// wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	s := c.Simulation
	check(s.DTS > 0 && s.DTS <= 1, "simulation.dt_s must be in (0, 1], got %v", s.DTS)
	check(s.HorizonS > 0, "simulation.horizon_s must be positive, got %v", s.HorizonS)
	check(s.HorizonS >= s.DTS, "simulation.horizon_s (%v) shorter than dt_s (%v)", s.HorizonS, s.DTS)
	_, err := dynamics.ParseMethod(s.Integrator)
	check(err == nil, "simulation.integrator: %v", err)

	a := c.Avoidance
	check(0 <= a.MonitorThreshold && a.MonitorThreshold < a.ActionThreshold &&
		a.ActionThreshold <= a.EmergencyThreshold && a.EmergencyThreshold <= 1,
		"avoidance thresholds must satisfy 0 <= monitor < action <= emergency <= 1, got %v/%v/%v",
		a.MonitorThreshold, a.ActionThreshold, a.EmergencyThreshold)
	check(a.Hysteresis >= 0, "avoidance.hysteresis must be >= 0, got %v", a.Hysteresis)
	check(a.MonitorThreshold == 0 || a.Hysteresis < a.MonitorThreshold,
		"avoidance.hysteresis (%v) must be below monitor_threshold (%v)", a.Hysteresis, a.MonitorThreshold)
	check(a.MinDCPA >= 0, "avoidance.min_dcpa must be >= 0, got %v", a.MinDCPA)
	check(a.AvoidanceAngleDeg > 0 && a.AvoidanceAngleDeg < 180, "avoidance.avoidance_angle_deg must be in (0, 180), got %v", a.AvoidanceAngleDeg)
	check(a.EmergencyAngleDeg > 0 && a.EmergencyAngleDeg < 180, "avoidance.emergency_angle_deg must be in (0, 180), got %v", a.EmergencyAngleDeg)
	check(a.ReleaseFactor >= 1, "avoidance.release_factor must be >= 1, got %v", a.ReleaseFactor)
	check(a.SternSectorDeg > 90 && a.SternSectorDeg < 180, "avoidance.stern_sector_deg must be in (90, 180), got %v", a.SternSectorDeg)

	r := c.Risk
	check(r.SafetyDistance > 0, "risk.safety_distance must be positive, got %v", r.SafetyDistance)
	check(r.ClearFactor > 1, "risk.clear_factor must be > 1, got %v", r.ClearFactor)
	check(r.TCPAUrgentS >= 0 && r.TCPAUrgentS < r.TCPAHorizonS, "risk.tcpa_urgent_s must be in [0, tcpa_horizon_s), got %v", r.TCPAUrgentS)
	check(r.RangeNear >= 0 && r.RangeNear < r.RangeFar, "risk.range_near must be in [0, range_far), got %v", r.RangeNear)

	ac := c.Actuator
	check(ac.MaxRudderDeg > 0 && ac.MaxRudderDeg < 90, "actuator.max_rudder_deg must be in (0, 90), got %v", ac.MaxRudderDeg)
	check(ac.MaxRudderRateDegS > 0, "actuator.max_rudder_rate_deg_s must be positive, got %v", ac.MaxRudderRateDegS)
	check(ac.MinSpeed >= 0 && ac.MinSpeed <= ac.MaxSpeed, "actuator speeds must satisfy 0 <= min <= max, got %v/%v", ac.MinSpeed, ac.MaxSpeed)

	check(c.Guidance.ArrivalRadius > 0, "guidance.arrival_radius must be positive, got %v", c.Guidance.ArrivalRadius)
	check(c.Dynamics.NomotoTime > 0 && c.Dynamics.SideslipLag > 0 && c.Dynamics.SpeedLag > 0,
		"dynamics time constants must be positive")
	check(c.OwnShip.Length > 0, "own_ship.length must be positive, got %v", c.OwnShip.Length)

	if c.Advisory.Enabled {
		check(c.Advisory.Timeout > 0, "advisory.timeout must be positive when enabled, got %v", c.Advisory.Timeout)
		check(c.Advisory.IntervalTicks > 0, "advisory.interval_ticks must be positive when enabled, got %v", c.Advisory.IntervalTicks)
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
