package main

import (
	"github.com/pthm-cable/colav/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the avoidance policy search space. The action
// threshold stays between the default monitor and emergency thresholds and
// the hysteresis band below the monitor threshold, so every point validates.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "avoidance_angle_deg", Path: "avoidance.avoidance_angle_deg", Min: 10, Max: 60, Default: 30},
			{Name: "action_threshold", Path: "avoidance.action_threshold", Min: 0.35, Max: 0.75, Default: 0.5},
			{Name: "hysteresis", Path: "avoidance.hysteresis", Min: 0, Max: 0.25, Default: 0.05},
			{Name: "release_factor", Path: "avoidance.release_factor", Min: 1.0, Max: 2.0, Default: 1.2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Avoidance.AvoidanceAngleDeg = clamped[0]
	cfg.Avoidance.ActionThreshold = clamped[1]
	cfg.Avoidance.Hysteresis = clamped[2]
	cfg.Avoidance.ReleaseFactor = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Avoidance.AvoidanceAngleDeg,
		cfg.Avoidance.ActionThreshold,
		cfg.Avoidance.Hysteresis,
		cfg.Avoidance.ReleaseFactor,
	}
}

// Named pairs parameter names with values for JSON output.
func (pv *ParamVector) Named(values []float64) map[string]float64 {
	m := make(map[string]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		m[spec.Name] = values[i]
	}
	return m
}
