package risk

import (
	"math"
	"testing"

	"github.com/pthm-cable/colav/nav"
)

func TestCPAParallelEqualSpeed(t *testing.T) {
	dt := 0.1
	ownPrev, ownCur := nav.Vec2{X: 0, Y: 0}, nav.Vec2{X: 1, Y: 0}
	tgtPrev, tgtCur := nav.Vec2{X: 0, Y: 300}, nav.Vec2{X: 1, Y: 300}

	m := CPA(ownPrev, ownCur, tgtPrev, tgtCur, dt)
	if !math.IsInf(m.TCPA, 1) {
		t.Errorf("TCPA = %v, want +Inf", m.TCPA)
	}
	if math.Abs(m.DCPA-300) > 1e-9 || math.Abs(m.Range-300) > 1e-9 {
		t.Errorf("DCPA = %v, range = %v, want 300", m.DCPA, m.Range)
	}
	if m.Approaching() {
		t.Error("parallel pair should not be approaching")
	}
}

func TestCPAHeadOnCollisionCourse(t *testing.T) {
	// Own heading north at 5 m/s, target heading south at 5 m/s, 2000 m apart.
	own := nav.Vec2{}
	tgt := nav.Vec2{X: 2000}
	ownVel := nav.FromPolar(5, 0)
	tgtVel := nav.FromPolar(5, math.Pi)
	dt := 1.0

	prevTCPA := math.Inf(1)
	for step := 0; step < 150; step++ {
		nextOwn := own.Add(ownVel.Scale(dt))
		nextTgt := tgt.Add(tgtVel.Scale(dt))
		m := CPA(own, nextOwn, tgt, nextTgt, dt)

		if m.DCPA > 1e-6 {
			t.Fatalf("step %d: DCPA = %v, want ~0", step, m.DCPA)
		}
		if m.TCPA <= 0 {
			t.Fatalf("step %d: TCPA = %v, want > 0", step, m.TCPA)
		}
		if m.TCPA >= prevTCPA {
			t.Fatalf("step %d: TCPA %v did not decrease from %v", step, m.TCPA, prevTCPA)
		}
		if math.Abs(m.RelSpeed-10) > 1e-9 {
			t.Fatalf("step %d: relative speed %v, want 10", step, m.RelSpeed)
		}
		prevTCPA = m.TCPA
		own, tgt = nextOwn, nextTgt
	}
}

func TestCPAKnownGeometry(t *testing.T) {
	// Target 1000 m north, crossing west->east at 10 m/s from 1000 m west,
	// own stationary.
	m := CPAFromVelocity(nav.Vec2{}, nav.Vec2{}, nav.Vec2{X: 1000, Y: -1000}, nav.Vec2{Y: 10})
	if math.Abs(m.TCPA-100) > 1e-9 {
		t.Errorf("TCPA = %v, want 100", m.TCPA)
	}
	if math.Abs(m.DCPA-1000) > 1e-9 {
		t.Errorf("DCPA = %v, want 1000", m.DCPA)
	}
	if math.Abs(m.Range-math.Sqrt2*1000) > 1e-9 {
		t.Errorf("range = %v", m.Range)
	}
}

func TestCPADiverging(t *testing.T) {
	m := CPAFromVelocity(nav.Vec2{}, nav.FromPolar(5, 0), nav.Vec2{X: -500}, nav.FromPolar(5, math.Pi))
	if m.TCPA >= 0 {
		t.Errorf("TCPA = %v, want negative for diverging pair", m.TCPA)
	}
}

func TestOriented(t *testing.T) {
	m := CPAFromVelocity(nav.Vec2{}, nav.Vec2{}, nav.Vec2{X: 100, Y: 100}, nav.Vec2{}).Oriented(0, math.Pi)
	if math.Abs(m.RelBearing-math.Pi/4) > 1e-12 {
		t.Errorf("relative bearing = %v, want pi/4", m.RelBearing)
	}
	if math.Abs(m.RelHeading-math.Pi) > 1e-12 {
		t.Errorf("relative heading = %v, want pi", m.RelHeading)
	}
}
