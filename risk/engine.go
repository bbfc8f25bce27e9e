package risk

import (
	"github.com/pthm-cable/colav/nav"
)

// Own is the own-ship sample fed to the engine.
type Own struct {
	Pos     nav.Vec2
	Vel     nav.Vec2
	Heading float64
}

// Target is one target-vessel sample fed to the engine.
type Target struct {
	ID             int
	Pos            nav.Vec2
	Vel            nav.Vec2
	Heading        float64
	SafetyDistance float64 // 0 = policy default
}

// TargetRisk is the engine output for one target.
type TargetRisk struct {
	ID             int
	Metrics        Metrics
	Risk           float64
	SafetyDistance float64
}

// Assessment is the engine output for one tick.
type Assessment struct {
	Targets []TargetRisk
	Max     float64
	MaxID   int // -1 when there are no targets
}

// Engine computes CPA and risk for every target each tick. It keeps the
// previous position of every vessel so velocities can be taken from finite
// differences; the first sample of a vessel uses its known velocity.
type Engine struct {
	policy   Policy
	minSpeed float64

	ownPrev   nav.Vec2
	havePrev  bool
	targetPrv map[int]nav.Vec2
}

// NewEngine creates a risk engine.
func NewEngine(p Policy, minRelSpeed float64) *Engine {
	if minRelSpeed <= 0 {
		minRelSpeed = MinRelativeSpeed
	}
	return &Engine{
		policy:    p,
		minSpeed:  minRelSpeed,
		targetPrv: make(map[int]nav.Vec2),
	}
}

// Policy returns the base policy.
func (e *Engine) Policy() Policy { return e.policy }

// Reset drops the previous-position buffers.
func (e *Engine) Reset() {
	e.havePrev = false
	e.targetPrv = make(map[int]nav.Vec2)
}

// Assess computes metrics and risk for every target. Targets keep their
// input order in the result.
func (e *Engine) Assess(own Own, targets []Target, dt float64) Assessment {
	out := Assessment{
		Targets: make([]TargetRisk, 0, len(targets)),
		MaxID:   -1,
	}

	ownVel := own.Vel
	if e.havePrev && dt > 0 {
		ownVel = own.Pos.Sub(e.ownPrev).Scale(1 / dt)
	}

	for _, t := range targets {
		tVel := t.Vel
		if prev, ok := e.targetPrv[t.ID]; ok && e.havePrev && dt > 0 {
			tVel = t.Pos.Sub(prev).Scale(1 / dt)
		}

		m := cpa(own.Pos, ownVel, t.Pos, tVel, e.minSpeed).Oriented(own.Heading, t.Heading)
		p := e.policy.WithSafetyDistance(t.SafetyDistance)
		r := p.Assess(m)

		out.Targets = append(out.Targets, TargetRisk{
			ID:             t.ID,
			Metrics:        m,
			Risk:           r,
			SafetyDistance: p.SafetyDistance,
		})
		if out.MaxID < 0 || r > out.Max {
			out.Max = r
			out.MaxID = t.ID
		}
		e.targetPrv[t.ID] = t.Pos
	}

	e.ownPrev = own.Pos
	e.havePrev = true
	return out
}
