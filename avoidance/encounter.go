package avoidance

import (
	"math"

	"github.com/pthm-cable/colav/advisory"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/risk"
)

// Encounter is the COLREGs situation between own ship and one target.
type Encounter uint8

const (
	EncounterNone Encounter = iota
	HeadOn
	CrossingStarboard
	CrossingPort
	Overtaking // own ship overtakes the target
	Overtaken  // the target overtakes own ship
)

func (e Encounter) String() string {
	switch e {
	case HeadOn:
		return "head-on"
	case CrossingStarboard:
		return "crossing-starboard"
	case CrossingPort:
		return "crossing-port"
	case Overtaking:
		return "overtaking"
	case Overtaken:
		return "overtaken"
	default:
		return "none"
	}
}

// GiveWay reports whether own ship must keep out of the way.
func (e Encounter) GiveWay() bool {
	return e == HeadOn || e == CrossingStarboard || e == Overtaking
}

// Sectors bounds the encounter classes. All angles in radians.
type Sectors struct {
	HeadOn     float64 // half-width of the bow sector for head-on
	Reciprocal float64 // tolerance on reciprocal headings for head-on
	Stern      float64 // relative bearing magnitude beyond which a vessel is astern (112.5 deg)
}

// Aspect is the bearing of own ship as seen from the target, relative to the
// target's heading.
func Aspect(m risk.Metrics) float64 {
	return nav.WrapAngle(m.RelBearing + math.Pi - m.RelHeading)
}

// Classify returns the encounter class for a metrics sample.
func Classify(m risk.Metrics, s Sectors) Encounter {
	rb := m.RelBearing
	abs := math.Abs(rb)
	aspect := math.Abs(Aspect(m))

	switch {
	case abs <= s.HeadOn && math.Abs(nav.WrapAngle(m.RelHeading-math.Pi)) <= s.Reciprocal:
		return HeadOn
	case abs > s.Stern && aspect > s.Stern:
		return EncounterNone
	case abs > s.Stern:
		return Overtaken
	case aspect > s.Stern:
		return Overtaking
	case rb >= 0:
		return CrossingStarboard
	default:
		return CrossingPort
	}
}

// GiveWayTurn is the conventional turn for a give-way encounter.
func GiveWayTurn(e Encounter, m risk.Metrics) advisory.Bias {
	switch e {
	case HeadOn, CrossingStarboard:
		return advisory.TurnStarboard
	case Overtaking:
		if m.RelBearing >= 0 {
			return advisory.TurnPort
		}
		return advisory.TurnStarboard
	}
	return advisory.StandOn
}

// EmergencyTurn picks the forced turn: starboard, unless the target closes
// from the starboard quarter.
func EmergencyTurn(m risk.Metrics) advisory.Bias {
	if m.RelBearing > math.Pi/2 {
		return advisory.TurnPort
	}
	return advisory.TurnStarboard
}
