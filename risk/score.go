package risk

import "math"

// Policy maps CPA metrics to a risk in [0, 1].
//
// Three Z-shaped membership terms are combined as
//
//	risk = zD(dcpa) * max(zT(tcpa), zR(range))
//
// Each term is continuous and non-increasing, so the product is too. Once
// TCPA <= 0 the closest future separation is the current range, so the DCPA
// term uses range and the TCPA term saturates.
type Policy struct {
	SafetyDistance float64 // DCPA at or below this scores full risk, m
	ClearFactor    float64 // DCPA at or beyond SafetyDistance*ClearFactor scores zero
	TCPAUrgent     float64 // s, TCPA at or below is fully urgent
	TCPAHorizon    float64 // s, TCPA at or beyond contributes nothing
	RangeNear      float64 // m, range at or below is fully urgent
	RangeFar       float64 // m, range at or beyond contributes nothing
}

// WithSafetyDistance returns a copy with the DCPA band re-anchored on d.
func (p Policy) WithSafetyDistance(d float64) Policy {
	if d > 0 {
		p.SafetyDistance = d
	}
	return p
}

// ClearDistance is the DCPA beyond which the pair carries no risk.
func (p Policy) ClearDistance() float64 {
	return p.SafetyDistance * p.ClearFactor
}

// Score returns the risk for the given DCPA, TCPA and current range.
func (p Policy) Score(dcpa, tcpa, rng float64) float64 {
	if math.IsNaN(dcpa) || math.IsNaN(tcpa) || math.IsNaN(rng) {
		return 0
	}
	if tcpa <= 0 {
		dcpa, tcpa = rng, 0
	}

	zd := zmf(math.Abs(dcpa), p.SafetyDistance, p.ClearDistance())
	if zd == 0 {
		return 0
	}
	zt := zmf(tcpa, p.TCPAUrgent, p.TCPAHorizon)
	zr := zmf(rng, p.RangeNear, p.RangeFar)

	r := zd * math.Max(zt, zr)
	return math.Max(0, math.Min(1, r))
}

// Assess scores a metrics sample.
func (p Policy) Assess(m Metrics) float64 {
	return p.Score(m.DCPA, m.TCPA, m.Range)
}

// zmf is the Z-shaped membership function: 1 at or below a, 0 at or above b,
// joined by two quadratic arcs.
func zmf(x, a, b float64) float64 {
	switch {
	case x <= a:
		return 1
	case x >= b:
		return 0
	case b <= a:
		return 0
	}
	mid := (a + b) / 2
	if x < mid {
		d := (x - a) / (b - a)
		return 1 - 2*d*d
	}
	d := (x - b) / (b - a)
	return 2 * d * d
}
