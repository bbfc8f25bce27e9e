package avoidance

import "github.com/pthm-cable/colav/risk"

// State is the avoidance state of one own-ship/target pair.
type State uint8

const (
	Clear State = iota
	Monitoring
	GiveWay
	StandOn
	Emergency
)

func (s State) String() string {
	switch s {
	case Monitoring:
		return "monitoring"
	case GiveWay:
		return "give-way"
	case StandOn:
		return "stand-on"
	case Emergency:
		return "emergency"
	default:
		return "clear"
	}
}

// Acting reports whether the pair is at or above the action threshold.
func (s State) Acting() bool { return s >= GiveWay }

// Thresholds drive the per-pair state machine.
type Thresholds struct {
	Monitor    float64
	Action     float64
	Emergency  float64
	Hysteresis float64 // exit thresholds are lowered by this much
	MinDCPA    float64 // m; an approaching target with DCPA below this is an emergency
}

// Next returns the state for the current sample. Only prev is used, and only
// to apply the hysteresis band.
func (t Thresholds) Next(prev State, r float64, m risk.Metrics, e Encounter) State {
	monitor, action, emergency := t.Monitor, t.Action, t.Emergency
	if prev >= Monitoring {
		monitor -= t.Hysteresis
	}
	if prev.Acting() {
		action -= t.Hysteresis
	}
	if prev == Emergency {
		emergency -= t.Hysteresis
	}

	switch {
	case r >= emergency:
		return Emergency
	case t.MinDCPA > 0 && m.Approaching() && m.DCPA < t.MinDCPA && r >= monitor:
		return Emergency
	case r >= action:
		if e.GiveWay() {
			return GiveWay
		}
		return StandOn
	case r >= monitor:
		return Monitoring
	}
	return Clear
}
