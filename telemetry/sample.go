// Package telemetry turns the per-tick simulation feed into windowed stats,
// bookmarks, timing data and CSV outputs.
package telemetry

import (
	"github.com/pthm-cable/colav/avoidance"
)

// TargetSample is one target at one tick.
type TargetSample struct {
	ID             int
	X, Y           float64
	Heading        float64 // rad
	Speed          float64
	Range          float64
	DCPA           float64
	TCPA           float64 // +Inf when the pair is not approaching
	RelBearing     float64 // rad
	Risk           float64
	SafetyDistance float64
	State          avoidance.State
	Encounter      avoidance.Encounter
}

// Breached reports whether the target is inside its safety distance.
func (t TargetSample) Breached() bool {
	return t.SafetyDistance > 0 && t.Range < t.SafetyDistance
}

// Sample is the flattened view of one simulation tick.
type Sample struct {
	Tick int
	Time float64

	X, Y     float64
	Heading  float64 // rad
	YawRate  float64 // rad/s
	Sideslip float64 // rad
	Speed    float64

	Desired   float64 // rad
	Commanded float64 // rad
	Rudder    float64 // rad
	SpeedRef  float64

	Bias      avoidance.Bias
	Source    avoidance.Source
	MaxState  avoidance.State
	MaxRisk   float64
	TriggerID int

	Saturated bool
	Consulted bool
	Fallback  bool

	Targets []TargetSample
}

// Maneuvering reports whether a turn bias is applied.
func (s Sample) Maneuvering() bool { return s.Bias.Turning() }

// MinRange returns the smallest target range, or +Inf without targets.
func (s Sample) MinRange() float64 {
	m := inf
	for _, t := range s.Targets {
		if t.Range < m {
			m = t.Range
		}
	}
	return m
}
