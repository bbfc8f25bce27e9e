// Package avoidance turns per-target risk into a steering decision. Each
// own-ship/target pair runs a small state machine; the engine combines the
// pairs into one turn bias, optionally overridden by an external advisor.
package avoidance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/colav/advisory"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/risk"
)

// Bias is the turn direction applied on top of the desired heading.
type Bias = advisory.Bias

// Source says where the applied bias came from.
type Source uint8

const (
	SourceRules Source = iota
	SourceAdvisory
)

func (s Source) String() string {
	if s == SourceAdvisory {
		return "advisory"
	}
	return "rules"
}

// Params configures an engine. Angles in radians.
type Params struct {
	Thresholds
	Sectors
	AvoidanceAngle float64
	EmergencyAngle float64
	ReleaseFactor  float64 // maneuver ends once separation >= safety * ReleaseFactor

	AdvisoryInterval int           // ticks between consults; <= 0 disables the advisor
	AdvisoryTimeout  time.Duration // deadline for one consult
}

// Options holds optional engine collaborators.
type Options struct {
	Advisor advisory.Advisor
	Logger  *slog.Logger
}

// OwnShip is the own-ship sample an engine decides for.
type OwnShip struct {
	Pos     nav.Vec2
	Heading float64
	Speed   float64
	YawRate float64
}

// Input is everything the engine looks at for one tick.
type Input struct {
	Tick       int
	Time       float64
	Desired    float64
	Own        OwnShip
	Targets    []risk.Target
	Assessment risk.Assessment
}

// Pair is the per-target result of one tick.
type Pair struct {
	ID        int
	State     State
	Encounter Encounter
	Risk      float64
}

// Decision is the engine output for one tick.
type Decision struct {
	Desired   float64
	Commanded float64
	Bias      Bias
	RuleBias  Bias
	Source    Source
	MaxState  State
	TriggerID int // target that holds the current maneuver, -1 if none
	Pairs     []Pair

	Consulted   bool   // advisor was asked this tick
	AdvisoryRaw string // raw answer of this tick's consult
	AdvisoryErr error  // wraps advisory.ErrUnavailable or advisory.ErrInvalidResponse
}

// Fallback reports whether a consult failed this tick or an earlier failure
// still keeps the advisor out of the decision.
func (d Decision) Fallback() bool { return d.AdvisoryErr != nil }

type pairMemory struct {
	state     State
	encounter Encounter
	turn      Bias
}

type maneuver struct {
	active    bool
	bias      Bias
	emergency bool
	triggerID int
}

// Engine holds per-pair memory and the current maneuver. Not safe for
// concurrent use; every run owns its own engine.
type Engine struct {
	params  Params
	advisor advisory.Advisor
	logger  *slog.Logger

	pairs map[int]*pairMemory
	hold  maneuver

	advValid    bool
	advBias     Bias
	advErr      error
	lastConsult int
	consulted   bool
	fallbackRun int
}

// New creates an engine.
func New(p Params, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{params: p, advisor: opts.Advisor, logger: logger}
	e.Reset()
	return e
}

// Params returns the engine parameters.
func (e *Engine) Params() Params { return e.params }

// AdvisoryEnabled reports whether an advisor is configured.
func (e *Engine) AdvisoryEnabled() bool {
	return e.advisor != nil && e.params.AdvisoryInterval > 0
}

// Reset clears all pair memory and any maneuver in progress.
func (e *Engine) Reset() {
	e.pairs = make(map[int]*pairMemory)
	e.hold = maneuver{triggerID: -1}
	e.resetAdvisory()
}

func (e *Engine) resetAdvisory() {
	e.advValid = false
	e.advErr = nil
	e.consulted = false
	e.fallbackRun = 0
}

// Decide runs the state machines and returns the commanded heading.
func (e *Engine) Decide(ctx context.Context, in Input) Decision {
	d := Decision{
		Desired:   in.Desired,
		Commanded: in.Desired,
		TriggerID: -1,
		Pairs:     make([]Pair, 0, len(in.Assessment.Targets)),
	}

	byID := make(map[int]risk.TargetRisk, len(in.Assessment.Targets))
	for _, tr := range in.Assessment.Targets {
		byID[tr.ID] = tr
		d.Pairs = append(d.Pairs, e.updatePair(in.Tick, tr))
		if s := d.Pairs[len(d.Pairs)-1].State; s > d.MaxState {
			d.MaxState = s
		}
	}

	e.release(byID, d.MaxState)
	ruleBias, emergency, trigger := e.ruleBias(d.Pairs, byID)
	if !ruleBias.Turning() && e.hold.active {
		ruleBias, emergency, trigger = e.hold.bias, e.hold.emergency, e.hold.triggerID
	}
	d.RuleBias = ruleBias
	d.Bias = ruleBias

	if e.AdvisoryEnabled() {
		e.consultAdvisor(ctx, in, &d, ruleBias)
		// An emergency turn is never cancelled by an advisory stand-on.
		if e.advValid && !(emergency && !e.advBias.Turning()) {
			d.Bias = e.advBias
			d.Source = SourceAdvisory
			if trigger < 0 {
				trigger = in.Assessment.MaxID
			}
		}
	}

	if d.Bias.Turning() {
		e.hold = maneuver{active: true, bias: d.Bias, emergency: emergency, triggerID: trigger}
		angle := e.params.AvoidanceAngle
		if emergency {
			angle = e.params.EmergencyAngle
		}
		d.Commanded = nav.WrapAngle(in.Desired + d.Bias.Sign()*angle)
		d.TriggerID = trigger
	} else {
		e.hold = maneuver{triggerID: -1}
	}
	return d
}

func (e *Engine) updatePair(tick int, tr risk.TargetRisk) Pair {
	mem, ok := e.pairs[tr.ID]
	if !ok {
		mem = &pairMemory{}
		e.pairs[tr.ID] = mem
	}

	enc := mem.encounter
	if !mem.state.Acting() {
		enc = Classify(tr.Metrics, e.params.Sectors)
	}
	next := e.params.Next(mem.state, tr.Risk, tr.Metrics, enc)

	if next.Acting() && !mem.state.Acting() {
		mem.turn = GiveWayTurn(enc, tr.Metrics)
	}
	if next == Emergency && mem.state != Emergency {
		mem.turn = EmergencyTurn(tr.Metrics)
	}
	if next != mem.state {
		e.logger.Debug("avoidance transition",
			"tick", tick,
			"target", tr.ID,
			"from", mem.state.String(),
			"to", next.String(),
			"encounter", enc.String(),
			"risk", tr.Risk,
		)
	}
	mem.state = next
	mem.encounter = enc
	return Pair{ID: tr.ID, State: next, Encounter: enc, Risk: tr.Risk}
}

// ruleBias picks the riskiest emergency pair, else the riskiest give-way pair.
func (e *Engine) ruleBias(pairs []Pair, byID map[int]risk.TargetRisk) (Bias, bool, int) {
	best, bestEmergency := -1, false
	bestRisk := -1.0
	for i, p := range pairs {
		switch p.State {
		case Emergency:
			if !bestEmergency || p.Risk > bestRisk {
				best, bestEmergency, bestRisk = i, true, p.Risk
			}
		case GiveWay:
			if !bestEmergency && p.Risk > bestRisk {
				best, bestRisk = i, p.Risk
			}
		}
	}
	if best < 0 {
		return advisory.StandOn, false, -1
	}
	id := pairs[best].ID
	turn := e.pairs[id].turn
	if !turn.Turning() {
		turn = EmergencyTurn(byID[id].Metrics)
	}
	return turn, bestEmergency, id
}

// release ends the current maneuver once every pair is clear or the
// triggering target has opened to a safe separation.
func (e *Engine) release(byID map[int]risk.TargetRisk, maxState State) {
	if !e.hold.active {
		return
	}
	if maxState == Clear {
		e.hold = maneuver{triggerID: -1}
		return
	}
	tr, ok := byID[e.hold.triggerID]
	if !ok {
		return
	}
	sep := tr.Metrics.Range
	if tr.Metrics.Approaching() {
		sep = tr.Metrics.DCPA
	}
	if sep >= tr.SafetyDistance*e.params.ReleaseFactor {
		e.hold = maneuver{triggerID: -1}
	}
}

func (e *Engine) consultAdvisor(ctx context.Context, in Input, d *Decision, rule Bias) {
	if d.MaxState < Monitoring {
		e.resetAdvisory()
		return
	}

	if e.consulted && in.Tick-e.lastConsult < e.params.AdvisoryInterval {
		d.AdvisoryErr = e.advErr
		return
	}

	b, raw, err := advisory.Consult(ctx, e.advisor, buildRequest(in, d, rule), e.params.AdvisoryTimeout)
	e.consulted = true
	e.lastConsult = in.Tick
	d.Consulted = true
	d.AdvisoryRaw = raw

	if err != nil {
		e.advValid = false
		e.advErr = err
		d.AdvisoryErr = err
		if e.fallbackRun == 0 {
			e.logger.Warn("advisory fallback to rules",
				"tick", in.Tick,
				"unavailable", errors.Is(err, advisory.ErrUnavailable),
				"error", err,
			)
		}
		e.fallbackRun++
		return
	}
	e.advValid = true
	e.advBias = b
	e.advErr = nil
	e.fallbackRun = 0
}

func buildRequest(in Input, d *Decision, rule Bias) advisory.Request {
	req := advisory.Request{
		Tick: in.Tick,
		Time: in.Time,
		Own: advisory.OwnShip{
			X:       in.Own.Pos.X,
			Y:       in.Own.Pos.Y,
			Heading: nav.Deg(in.Own.Heading),
			Speed:   in.Own.Speed,
			YawRate: nav.Deg(in.Own.YawRate),
		},
		Targets:   make([]advisory.Target, 0, len(in.Targets)),
		RuleBased: rule.String(),
	}
	for i, t := range in.Targets {
		at := advisory.Target{
			ID:      t.ID,
			X:       t.Pos.X,
			Y:       t.Pos.Y,
			Heading: nav.Deg(t.Heading),
			Speed:   t.Vel.Norm(),
		}
		if i < len(in.Assessment.Targets) && in.Assessment.Targets[i].ID == t.ID {
			tr := in.Assessment.Targets[i]
			at.Range = tr.Metrics.Range
			at.DCPA = tr.Metrics.DCPA
			at.RelBearing = nav.Deg(tr.Metrics.RelBearing)
			at.Risk = tr.Risk
			if !math.IsInf(tr.Metrics.TCPA, 0) {
				tcpa := tr.Metrics.TCPA
				at.TCPA = &tcpa
			}
		}
		if i < len(d.Pairs) && d.Pairs[i].ID == t.ID {
			at.State = d.Pairs[i].State.String()
			at.Encounter = d.Pairs[i].Encounter.String()
		}
		req.Targets = append(req.Targets, at)
	}
	return req
}
