package sim

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/scenario"
)

// riskSimilarBand is the max-risk difference under which two runs are
// considered equally risky.
const riskSimilarBand = 0.1

// Summary condenses one run.
type Summary struct {
	Scenario string  `json:"scenario"`
	Label    string  `json:"label"`
	Ticks    int     `json:"ticks"`
	Duration float64 `json:"duration_s"`

	TurnTicks      int `json:"turn_ticks"`
	PortTicks      int `json:"port_ticks"`
	StarboardTicks int `json:"starboard_ticks"`

	MaxRisk          float64 `json:"max_risk"`
	MeanPositiveRisk float64 `json:"mean_positive_risk"`

	MinSeparation       float64 `json:"min_separation"` // +Inf without targets
	MinSeparationTarget int     `json:"min_separation_target"`
	MinSeparationTime   float64 `json:"min_separation_time"`
	BreachTicks         int     `json:"breach_ticks"`

	FinalDistance float64 `json:"final_distance"` // straight-line distance from the start position, m
	PathLength    float64 `json:"path_length"`

	FallbackTicks   int `json:"fallback_ticks"`
	AdvisoryTicks   int `json:"advisory_ticks"`
	SaturationTicks int `json:"saturation_ticks"`

	Arrived bool   `json:"arrived"`
	Aborted string `json:"aborted,omitempty"`

	// Directions holds the turn sign of every tick: +1 starboard, -1 port.
	Directions []int8 `json:"-"`
}

// MarshalJSON encodes an infinite minimum separation as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		MinSeparation *float64 `json:"min_separation"`
	}{plain: plain(s)}
	if !math.IsInf(s.MinSeparation, 0) && !math.IsNaN(s.MinSeparation) {
		out.MinSeparation = &s.MinSeparation
	}
	return json.Marshal(out)
}

// Summarize computes a summary from a history.
func Summarize(scenarioID, label string, h *History) Summary {
	s := Summary{
		Scenario:            scenarioID,
		Label:               label,
		Ticks:               h.Len(),
		MinSeparation:       math.Inf(1),
		MinSeparationTarget: -1,
		Directions:          make([]int8, 0, h.Len()),
	}

	var positive []float64
	var start, prev nav.Vec2
	for i := range h.records {
		r := &h.records[i]
		pos := r.Own.Position()
		if i == 0 {
			start = pos
		} else {
			s.PathLength += pos.Dist(prev)
		}
		prev = pos
		s.Duration = r.Time

		dir := int8(r.Bias.Sign())
		s.Directions = append(s.Directions, dir)
		switch {
		case dir > 0:
			s.TurnTicks++
			s.StarboardTicks++
		case dir < 0:
			s.TurnTicks++
			s.PortTicks++
		}

		s.MaxRisk = math.Max(s.MaxRisk, r.MaxRisk)
		if r.MaxRisk > 0 {
			positive = append(positive, r.MaxRisk)
		}

		for _, t := range r.Targets {
			if t.Metrics.Range < s.MinSeparation {
				s.MinSeparation = t.Metrics.Range
				s.MinSeparationTarget = t.ID
				s.MinSeparationTime = r.Time
			}
		}
		if breached(r) {
			s.BreachTicks++
		}

		if r.Fallback() {
			s.FallbackTicks++
		}
		if r.Source == avoidance.SourceAdvisory {
			s.AdvisoryTicks++
		}
		if r.Flags.Has(ActuatorSaturation) {
			s.SaturationTicks++
		}
	}
	s.FinalDistance = prev.Dist(start)
	if len(positive) > 0 {
		s.MeanPositiveRisk = stat.Mean(positive, nil)
	}
	return s
}

func breached(r *Record) bool {
	for _, t := range r.Targets {
		if t.SafetyDistance > 0 && t.Metrics.Range < t.SafetyDistance {
			return true
		}
	}
	return false
}

// Summary summarizes the run so far.
func (s *Sim) Summary(label string) Summary {
	sum := Summarize(s.scenario.ID, label, &s.history)
	sum.Arrived = s.guide.Arrived()
	if s.err != nil {
		sum.Aborted = s.err.Error()
	}
	return sum
}

// Comparison contrasts a baseline run with an advisory-guided run.
type Comparison struct {
	Baseline Summary `json:"baseline"`
	Advisory Summary `json:"advisory"`

	TurnAgreement      float64 `json:"turn_agreement"`       // fraction of common ticks with the same turn sign
	PathEfficiencyDiff float64 `json:"path_efficiency_diff"` // % change of final distance, advisory vs baseline
	Behaviour          string  `json:"behaviour"`
	RiskVerdict        string  `json:"risk_verdict"`

	BaselineHistory *History `json:"-"`
	AdvisoryHistory *History `json:"-"`
}

// Compare contrasts two summaries.
func Compare(base, adv Summary) Comparison {
	c := Comparison{Baseline: base, Advisory: adv}

	n := min(len(base.Directions), len(adv.Directions))
	if n > 0 {
		same := 0
		for i := 0; i < n; i++ {
			if base.Directions[i] == adv.Directions[i] {
				same++
			}
		}
		c.TurnAgreement = float64(same) / float64(n)
	}

	if base.FinalDistance > 0 {
		c.PathEfficiencyDiff = (adv.FinalDistance - base.FinalDistance) / base.FinalDistance * 100
	}

	switch {
	case adv.TurnTicks > base.TurnTicks:
		c.Behaviour = "more conservative"
	case adv.TurnTicks < base.TurnTicks:
		c.Behaviour = "more aggressive"
	default:
		c.Behaviour = "similar"
	}

	switch {
	case adv.MaxRisk < base.MaxRisk:
		c.RiskVerdict = "better"
	case math.Abs(adv.MaxRisk-base.MaxRisk) < riskSimilarBand:
		c.RiskVerdict = "similar"
	default:
		c.RiskVerdict = "more risky"
	}
	return c
}

// LogValue implements slog.LogValuer for structured logging.
func (c Comparison) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scenario", c.Baseline.Scenario),
		slog.Float64("turn_agreement", c.TurnAgreement),
		slog.Float64("path_efficiency_diff", c.PathEfficiencyDiff),
		slog.String("behaviour", c.Behaviour),
		slog.String("risk_verdict", c.RiskVerdict),
		slog.Int("baseline_turns", c.Baseline.TurnTicks),
		slog.Int("advisory_turns", c.Advisory.TurnTicks),
		slog.Float64("baseline_max_risk", c.Baseline.MaxRisk),
		slog.Float64("advisory_max_risk", c.Advisory.MaxRisk),
		slog.Int("advisory_fallback_ticks", c.Advisory.FallbackTicks),
	)
}

// RunComparison runs the scenario twice on fresh component instances: once
// with the advisory disabled and once with it enabled. A fatal error in
// either run is returned joined with the other, next to the comparison of
// whatever was recorded.
func RunComparison(ctx context.Context, cfg *config.Config, sc *scenario.Scenario, baseOpts, advOpts Options) (*Comparison, error) {
	baseCfg := cfg.Clone()
	baseCfg.Advisory.Enabled = false
	advCfg := cfg.Clone()
	advCfg.Advisory.Enabled = true

	baseSim, err := New(baseCfg, sc, baseOpts)
	if err != nil {
		return nil, err
	}
	advSim, err := New(advCfg, sc, advOpts)
	if err != nil {
		return nil, err
	}

	baseHist, baseErr := baseSim.Run(ctx)
	advHist, advErr := advSim.Run(ctx)

	c := Compare(baseSim.Summary("baseline"), advSim.Summary("advisory"))
	c.BaselineHistory = baseHist
	c.AdvisoryHistory = advHist
	return &c, errors.Join(baseErr, advErr)
}
