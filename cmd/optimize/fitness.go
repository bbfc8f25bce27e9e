package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/sim"
)

// Fitness weights. Lower fitness is better.
const (
	weightSeparation = 10.0 // quadratic shortfall below the safety distance
	weightDeviation  = 1.0  // max cross-track error over the safety distance
	weightTurns      = 0.5  // fraction of ticks spent turning
	abortPenalty     = 100.0
)

// caseResult is one scenario run under one parameter vector.
type caseResult struct {
	scenario  string
	summary   sim.Summary
	deviation float64 // max cross-track distance from the planned leg, m
	err       error
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	cases      []*scenario.Scenario
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	last        []caseResult
	bestFitness float64
	best        []caseResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, cases []*scenario.Scenario, baseCfg *config.Config, logger *slog.Logger) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		cases:       cases,
		baseConfig:  baseCfg,
		logger:      logger,
		bestFitness: math.Inf(1),
	}
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Cases run in parallel on independent simulations.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]caseResult, len(fe.cases))
	var wg sync.WaitGroup
	for i, sc := range fe.cases {
		wg.Add(1)
		go func(idx int, sc *scenario.Scenario) {
			defer wg.Done()
			results[idx] = fe.runCase(cfg, sc)
		}(i, sc)
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		total += fe.caseFitness(cfg, r)
	}
	fitness := total / float64(len(results))

	fe.mu.Lock()
	fe.last = results
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.best = results
	}
	fe.mu.Unlock()
	return fitness
}

func (fe *FitnessEvaluator) runCase(cfg *config.Config, sc *scenario.Scenario) caseResult {
	res := caseResult{scenario: sc.ID}
	s, err := sim.New(cfg, sc, sim.Options{Logger: fe.logger})
	if err != nil {
		res.err = err
		return res
	}
	h, err := s.Run(context.Background())
	res.err = err
	res.summary = s.Summary("optimize")
	if len(sc.Waypoints) > 0 {
		a, b := sc.Own.Pos, sc.Waypoints[len(sc.Waypoints)-1]
		for _, r := range h.Records() {
			res.deviation = math.Max(res.deviation, crossTrack(r.Own.Position(), a, b))
		}
	}
	return res
}

// caseFitness scores a run: separation shortfall dominates, then deviation
// from the planned leg, then time spent turning.
func (fe *FitnessEvaluator) caseFitness(cfg *config.Config, r caseResult) float64 {
	if r.err != nil || r.summary.Ticks == 0 {
		return abortPenalty
	}
	d := cfg.Risk.SafetyDistance
	var f float64
	if !math.IsInf(r.summary.MinSeparation, 1) && r.summary.MinSeparation < d {
		short := (d - r.summary.MinSeparation) / d
		f += weightSeparation * short * short
	}
	f += weightDeviation * r.deviation / d
	f += weightTurns * float64(r.summary.TurnTicks) / float64(r.summary.Ticks)
	return f
}

// crossTrack is the distance from p to the line through a and b.
func crossTrack(p, a, b nav.Vec2) float64 {
	ab := b.Sub(a)
	n := ab.Norm()
	if n == 0 {
		return p.Dist(a)
	}
	ap := p.Sub(a)
	return math.Abs(ab.X*ap.Y-ab.Y*ap.X) / n
}

// Last returns the per-case results of the most recent evaluation.
func (fe *FitnessEvaluator) Last() []caseResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Best returns the per-case results of the best evaluation so far.
func (fe *FitnessEvaluator) Best() []caseResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best
}

// minSeparation is the smallest separation over a result set.
func minSeparation(rs []caseResult) float64 {
	m := math.Inf(1)
	for _, r := range rs {
		m = math.Min(m, r.summary.MinSeparation)
	}
	return m
}

// turnTicks sums turn ticks over a result set.
func turnTicks(rs []caseResult) int {
	n := 0
	for _, r := range rs {
		n += r.summary.TurnTicks
	}
	return n
}
