// Package sim runs the own ship through an encounter: targets, risk,
// avoidance, control, integration and guidance, one tick at a time.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colav/advisory"
	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/components"
	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/control"
	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/guidance"
	"github.com/pthm-cable/colav/risk"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/systems"
	"github.com/pthm-cable/colav/telemetry"
)

// saturationWarnSeconds is how long the actuator may stay saturated before
// a warning is logged.
const saturationWarnSeconds = 10.0

// Observer receives every record right after it is appended.
type Observer interface {
	Observe(r *Record) error
}

// Options holds optional collaborators of a run.
type Options struct {
	// Advisor overrides the HTTP client built from the advisory config. It is
	// only consulted when advisory is enabled.
	Advisor  advisory.Advisor
	Logger   *slog.Logger
	Observer Observer
	Perf     *telemetry.PerfCollector
}

// Sim is one run. Every component instance is owned by the Sim, so runs
// never share state.
type Sim struct {
	cfg      *config.Config
	scenario *scenario.Scenario
	logger   *slog.Logger
	observer Observer
	perf     *telemetry.PerfCollector

	model  *dynamics.Model
	method dynamics.Method
	ctrl   *control.Heading
	guide  *guidance.Tracker
	risk   *risk.Engine
	avoid  *avoidance.Engine

	world   *ecs.World
	traffic *systems.TrafficSystem
	targets []systems.TargetState

	own      dynamics.VesselState
	applied  dynamics.Command // actuator state after the last tick
	speedRef float64
	tick     int
	satRun   int
	done     bool
	err      *Error
	history  History
}

// New validates the configuration and scenario and builds the components.
// The configuration is cloned; later changes by the caller do not affect
// the run.
func New(cfg *config.Config, sc *scenario.Scenario, opts Options) (*Sim, error) {
	if cfg == nil || sc == nil {
		return nil, &Error{Kind: Configuration, Tick: -1, Err: fmt.Errorf("%w: missing config or scenario", config.ErrInvalid)}
	}
	cfg = cfg.Clone()
	if err := cfg.Finalize(); err != nil {
		return nil, &Error{Kind: Configuration, Tick: -1, Err: err}
	}
	if err := sc.Validate(); err != nil {
		return nil, &Error{Kind: Configuration, Tick: -1, Err: err}
	}
	method, err := dynamics.ParseMethod(cfg.Simulation.Integrator)
	if err != nil {
		return nil, &Error{Kind: Configuration, Tick: -1, Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perf := opts.Perf
	if perf == nil {
		perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	}
	perf.SetStep(cfg.Simulation.DTS)

	var adv advisory.Advisor
	if cfg.Advisory.Enabled {
		adv = opts.Advisor
		if adv == nil {
			adv = advisory.NewClient(cfg.Advisory.Endpoint, os.Getenv(cfg.Advisory.APIKeyEnv))
		}
	}

	own := ownShip(cfg, sc)
	limits := actuatorLimits(cfg)

	s := &Sim{
		cfg:      cfg,
		scenario: sc,
		logger:   logger.With("scenario", sc.ID),
		observer: opts.Observer,
		perf:     perf,
		model:    dynamics.NewModel(dynamicsParams(cfg, own), limits),
		method:   method,
		ctrl:     control.NewHeading(controllerGains(cfg), limits),
		guide:    guidance.NewTracker(sc.Waypoints, cfg.Guidance.ArrivalRadius),
		risk:     risk.NewEngine(riskPolicy(cfg), cfg.Risk.MinRelativeSpeed),
		world:    ecs.NewWorld(),
		own: dynamics.VesselState{
			X:   own.Pos.X,
			Y:   own.Pos.Y,
			Psi: own.Heading,
			U:   own.Speed,
		},
		speedRef: own.CruiseSpeed,
	}
	s.avoid = avoidance.New(avoidanceParams(cfg), avoidance.Options{Advisor: adv, Logger: s.logger})
	s.traffic = systems.NewTrafficSystem(s.world)
	for _, t := range sc.Targets {
		s.traffic.Spawn(
			components.Vessel{ID: t.ID, Name: t.Name},
			components.Position{X: t.Pos.X, Y: t.Pos.Y},
			components.Motion{Heading: t.Heading, Speed: t.Speed, TurnRate: t.TurnRate},
			components.Hull{Length: t.Length, Beam: t.Beam, SafetyDistance: t.SafetyDistance},
		)
	}
	return s, nil
}

// Config returns the effective configuration of the run.
func (s *Sim) Config() *config.Config { return s.cfg }

// Scenario returns the scenario the run was built from.
func (s *Sim) Scenario() *scenario.Scenario { return s.scenario }

// History returns the records so far.
func (s *Sim) History() *History { return &s.history }

// Perf returns the tick timing collector.
func (s *Sim) Perf() *telemetry.PerfCollector { return s.perf }

// Tick returns the index of the next tick.
func (s *Sim) Tick() int { return s.tick }

// Own returns the current own-ship state.
func (s *Sim) Own() dynamics.VesselState { return s.own }

// Done reports whether the run has terminated.
func (s *Sim) Done() bool { return s.done }

// Arrived reports whether the final waypoint was reached.
func (s *Sim) Arrived() bool { return s.guide.Arrived() }

// Run steps until the horizon elapses, the own ship arrives or a fatal
// error occurs. The history is returned in every case; on abort it ends at
// the last valid tick and the error is a *Error.
func (s *Sim) Run(ctx context.Context) (*History, error) {
	s.logger.Info("run start",
		"targets", s.traffic.Len(),
		"waypoints", len(s.scenario.Waypoints),
		"steps", s.cfg.Derived.Steps,
		"dt", s.cfg.Simulation.DTS,
		"advisory", s.avoid.AdvisoryEnabled(),
	)
	for {
		done, err := s.Step(ctx)
		if err != nil {
			return &s.history, err
		}
		if done {
			break
		}
	}
	s.logger.Info("run finished",
		"ticks", s.history.Len(),
		"arrived", s.guide.Arrived(),
		"time", float64(s.tick)*s.cfg.Simulation.DTS,
	)
	return &s.history, nil
}

// Step executes one tick and reports whether the run is over.
func (s *Sim) Step(ctx context.Context) (bool, error) {
	if s.done {
		if s.err != nil {
			return true, s.err
		}
		return true, nil
	}

	dt := s.cfg.Simulation.DTS
	now := float64(s.tick) * dt

	s.perf.StartTick()
	defer s.perf.EndTick()

	// Targets are brought to the time of this tick.
	s.perf.StartPhase(telemetry.PhaseTargets)
	if s.tick > 0 {
		s.traffic.Update(dt)
	}
	s.targets = s.traffic.Snapshot(s.targets)

	s.perf.StartPhase(telemetry.PhaseRisk)
	inputs := make([]risk.Target, len(s.targets))
	for i, t := range s.targets {
		inputs[i] = risk.Target{
			ID:             t.ID,
			Pos:            t.Pos,
			Vel:            t.Vel(),
			Heading:        t.Heading,
			SafetyDistance: t.SafetyDistance,
		}
	}
	pos := s.own.Position()
	assessment := s.risk.Assess(risk.Own{Pos: pos, Vel: s.own.Velocity(), Heading: s.own.Psi}, inputs, dt)

	s.perf.StartPhase(telemetry.PhaseAvoidance)
	cursor := s.guide.Cursor()
	decision := s.avoid.Decide(ctx, avoidance.Input{
		Tick:    s.tick,
		Time:    now,
		Desired: s.guide.Desired(pos),
		Own: avoidance.OwnShip{
			Pos:     pos,
			Heading: s.own.Psi,
			Speed:   s.own.U,
			YawRate: s.own.R,
		},
		Targets:    inputs,
		Assessment: assessment,
	})

	s.perf.StartPhase(telemetry.PhaseControl)
	out := s.ctrl.Update(decision.Commanded, s.own.Psi, s.own.R, s.speedRef, dt)

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	applied, limited := s.model.Apply(s.applied, out.Command, dt)
	if limited {
		out.Command, out.Saturated = applied, true
	}
	next, err := s.model.Advance(s.method, s.own, applied, dt)
	if err == nil && !next.IsFinite() {
		err = fmt.Errorf("%w: own-ship state", dynamics.ErrNonFinite)
	}
	if err != nil {
		return true, s.fail(NumericalInstability, err)
	}

	s.perf.StartPhase(telemetry.PhaseGuidance)
	arrived := s.guide.Advance(next.Position())

	s.perf.StartPhase(telemetry.PhaseRecord)
	rec := s.record(now, cursor, out, assessment, decision)
	s.history.append(rec)
	s.watchSaturation(out.Saturated)
	if s.observer != nil {
		r := rec.clone()
		if err := s.observer.Observe(&r); err != nil {
			s.done = true
			return true, fmt.Errorf("observer at tick %d: %w", s.tick, err)
		}
	}

	s.own = next
	s.applied = applied
	s.tick++
	s.done = arrived || s.tick >= s.cfg.Derived.Steps
	return s.done, nil
}

func (s *Sim) fail(kind Kind, err error) *Error {
	s.done = true
	s.err = &Error{Kind: kind, Tick: s.tick, Err: err}
	s.logger.Error("run aborted",
		"tick", s.tick,
		"time", float64(s.tick)*s.cfg.Simulation.DTS,
		"kind", kind.String(),
		"error", err,
	)
	return s.err
}

func (s *Sim) watchSaturation(saturated bool) {
	if !saturated {
		s.satRun = 0
		return
	}
	s.satRun++
	if s.satRun == int(math.Round(saturationWarnSeconds/s.cfg.Simulation.DTS)) {
		s.logger.Warn("actuator saturated",
			"tick", s.tick,
			"seconds", saturationWarnSeconds,
		)
	}
}

func (s *Sim) record(now float64, cursor int, out control.Output, a risk.Assessment, d avoidance.Decision) Record {
	rec := Record{
		Tick:        s.tick,
		Time:        now,
		Own:         s.own,
		Command:     out.Command,
		Desired:     d.Desired,
		Commanded:   d.Commanded,
		Cursor:      cursor,
		Bias:        d.Bias,
		RuleBias:    d.RuleBias,
		Source:      d.Source,
		MaxState:    d.MaxState,
		MaxRisk:     a.Max,
		TriggerID:   d.TriggerID,
		Targets:     make([]TargetRecord, len(s.targets)),
		Consulted:   d.Consulted,
		AdvisoryRaw: d.AdvisoryRaw,
		AdvisoryErr: d.AdvisoryErr,
	}
	if out.Saturated {
		rec.Flags = rec.Flags.With(ActuatorSaturation)
	}
	if d.Fallback() {
		rec.Flags = rec.Flags.With(advisoryKind(d.AdvisoryErr))
	}

	// Assessment and decision pairs keep the target input order.
	for i, t := range s.targets {
		tr := TargetRecord{
			ID:             t.ID,
			Name:           t.Name,
			Pos:            t.Pos,
			Heading:        t.Heading,
			Speed:          t.Speed,
			SafetyDistance: a.Targets[i].SafetyDistance,
			Metrics:        a.Targets[i].Metrics,
			Risk:           a.Targets[i].Risk,
		}
		if i < len(d.Pairs) {
			tr.State = d.Pairs[i].State
			tr.Encounter = d.Pairs[i].Encounter
		}
		rec.Targets[i] = tr
	}
	return rec
}
