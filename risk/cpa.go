// Package risk computes closest-point-of-approach kinematics and turns them
// into a normalized collision risk per target.
package risk

import (
	"math"

	"github.com/pthm-cable/colav/nav"
)

// NoApproach is the TCPA reported when the relative speed is effectively
// zero and the vessels never get closer than they are now.
var NoApproach = math.Inf(1)

// MinRelativeSpeed is the relative speed (m/s) below which CPA treats the
// pair as moving in formation.
const MinRelativeSpeed = 1e-3

// Metrics describes one own-ship/target pair at one instant.
type Metrics struct {
	Range       float64 // current separation, m
	DCPA        float64 // distance at closest point of approach, m
	TCPA        float64 // time to CPA, s; positive = still closing; +Inf = no approach
	RelSpeed    float64 // |v_target - v_own|, m/s
	TrueBearing float64 // bearing own -> target, rad
	RelBearing  float64 // bearing relative to own heading, rad, + = starboard
	RelHeading  float64 // target heading minus own heading, rad
	RelCourse   float64 // direction of the relative velocity, rad
}

// Approaching reports whether the pair is still closing.
func (m Metrics) Approaching() bool {
	return m.TCPA > 0 && !math.IsInf(m.TCPA, 1)
}

// Oriented fills in the heading-relative fields.
func (m Metrics) Oriented(ownHeading, targetHeading float64) Metrics {
	m.RelBearing = nav.WrapAngle(m.TrueBearing - ownHeading)
	m.RelHeading = nav.WrapAngle(targetHeading - ownHeading)
	return m
}

// CPA computes the closest point of approach from two consecutive position
// samples of each vessel taken dt apart. Velocities come from the finite
// difference of the samples.
func CPA(ownPrev, ownCur, targetPrev, targetCur nav.Vec2, dt float64) Metrics {
	if dt <= 0 {
		return CPAFromVelocity(ownCur, nav.Vec2{}, targetCur, nav.Vec2{})
	}
	ownVel := ownCur.Sub(ownPrev).Scale(1 / dt)
	targetVel := targetCur.Sub(targetPrev).Scale(1 / dt)
	return CPAFromVelocity(ownCur, ownVel, targetCur, targetVel)
}

// CPAFromVelocity computes the closest point of approach from current
// positions and known velocity vectors.
func CPAFromVelocity(ownPos, ownVel, targetPos, targetVel nav.Vec2) Metrics {
	return cpa(ownPos, ownVel, targetPos, targetVel, MinRelativeSpeed)
}

func cpa(ownPos, ownVel, targetPos, targetVel nav.Vec2, minSpeed float64) Metrics {
	p := targetPos.Sub(ownPos)
	v := targetVel.Sub(ownVel)
	rng := p.Norm()

	m := Metrics{
		Range:       rng,
		RelSpeed:    v.Norm(),
		TrueBearing: p.Heading(),
		RelCourse:   v.Heading(),
	}

	if m.RelSpeed < minSpeed {
		m.TCPA = NoApproach
		m.DCPA = rng
		return m
	}

	m.TCPA = -p.Dot(v) / v.NormSq()
	m.DCPA = p.Add(v.Scale(m.TCPA)).Norm()
	return m
}
