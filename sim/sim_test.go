package sim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/pthm-cable/colav/advisory"
	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/scenario"
)

func testConfig(t *testing.T, horizon, dt float64) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.HorizonS = horizon
	cfg.Simulation.DTS = dt
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func run(t *testing.T, cfg *config.Config, sc *scenario.Scenario, opts Options) *History {
	t.Helper()
	s, err := New(cfg, sc, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return h
}

// ---------- construction ----------

func TestNew_ConfigurationErrors(t *testing.T) {
	noWaypoints := scenario.HeadOn()
	noWaypoints.Waypoints = nil

	badDT := config.Default()
	badDT.Simulation.DTS = 2

	zeroHorizon := config.Default()
	zeroHorizon.Simulation.HorizonS = 0

	tests := []struct {
		name string
		cfg  *config.Config
		sc   *scenario.Scenario
		is   error
	}{
		{"empty waypoints", config.Default(), noWaypoints, scenario.ErrNoWaypoints},
		{"step size out of range", badDT, scenario.HeadOn(), config.ErrInvalid},
		{"non-positive horizon", zeroHorizon, scenario.HeadOn(), config.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.sc, Options{})
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a *sim.Error", err)
			}
			if se.Kind != Configuration || se.Tick != -1 {
				t.Errorf("kind %v tick %d, want configuration at -1", se.Kind, se.Tick)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("error %v does not wrap %v", err, tt.is)
			}
		})
	}
}

func TestNew_ConfigIsolated(t *testing.T) {
	cfg := testConfig(t, 10, 0.1)
	s, err := New(cfg, scenario.HeadOn(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.DTS = 0.5
	if s.Config().Simulation.DTS != 0.1 {
		t.Error("run config changed with the caller's copy")
	}
}

// ---------- end-to-end scenarios ----------

func TestRun_HeadOn(t *testing.T) {
	cfg := testConfig(t, 400, 0.1)
	h := run(t, cfg, scenario.HeadOn(), Options{})

	if h.Len() == 0 {
		t.Fatal("empty history")
	}

	firstAct := -1
	minRange := math.Inf(1)
	for _, r := range h.Records() {
		tr, ok := r.Target(1)
		if !ok {
			t.Fatalf("tick %d: target 1 missing", r.Tick)
		}
		minRange = math.Min(minRange, tr.Metrics.Range)
		if firstAct < 0 && tr.State.Acting() {
			firstAct = r.Tick
			if tr.State != avoidance.GiveWay && tr.State != avoidance.Emergency {
				t.Errorf("first acting state = %v, want give-way or emergency", tr.State)
			}
			if tr.Metrics.Range <= cfg.Risk.SafetyDistance {
				t.Errorf("acted at range %.0f, inside safety distance %.0f", tr.Metrics.Range, cfg.Risk.SafetyDistance)
			}
			if r.Bias != advisory.TurnStarboard {
				t.Errorf("first turn = %v, want turn-starboard", r.Bias)
			}
			if d := nav.HeadingError(r.Commanded, r.Desired); d <= 0 {
				t.Errorf("commanded offset %.3f rad, want starboard", d)
			}
		}
		if r.Bias == advisory.TurnPort {
			t.Fatalf("tick %d: turned to port in a head-on encounter", r.Tick)
		}
	}
	if firstAct < 0 {
		t.Fatal("own ship never acted")
	}
	if minRange <= cfg.Avoidance.MinDCPA {
		t.Errorf("min range %.1f m below min DCPA %.1f m", minRange, cfg.Avoidance.MinDCPA)
	}
}

func TestRun_CrossingFromPortStandsOn(t *testing.T) {
	cfg := testConfig(t, 1200, 0.1)
	h := run(t, cfg, scenario.CrossingPort(), Options{})

	for _, r := range h.Records() {
		if r.MaxState > avoidance.Monitoring {
			t.Fatalf("tick %d: state %v, want clear or monitoring", r.Tick, r.MaxState)
		}
		if r.Bias != advisory.StandOn {
			t.Fatalf("tick %d: bias %v, want stand-on", r.Tick, r.Bias)
		}
		if r.Commanded != r.Desired {
			t.Fatalf("tick %d: commanded %.4f != desired %.4f", r.Tick, r.Commanded, r.Desired)
		}
		if math.Abs(nav.HeadingError(r.Desired, r.Own.Psi)) > 1e-6 {
			t.Fatalf("tick %d: heading %.4f off desired %.4f", r.Tick, r.Own.Psi, r.Desired)
		}
	}
}

func TestRun_StopsOnArrival(t *testing.T) {
	cfg := testConfig(t, 400, 0.1)
	sc := &scenario.Scenario{
		ID:        "short-leg",
		Own:       scenario.Own{Speed: 5, CruiseSpeed: 5, Length: 30, Beam: 8},
		Waypoints: []nav.Vec2{{X: 300}},
	}
	s, err := New(cfg, sc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Arrived() {
		t.Fatal("did not arrive")
	}
	if h.Len() >= cfg.Derived.Steps {
		t.Errorf("ran %d ticks, expected to stop before %d", h.Len(), cfg.Derived.Steps)
	}
	if d := s.Own().Position().Dist(nav.Vec2{X: 300}); d > cfg.Guidance.ArrivalRadius {
		t.Errorf("stopped %.1f m from the waypoint", d)
	}
	if done, err := s.Step(context.Background()); !done || err != nil {
		t.Errorf("Step after arrival = %v, %v", done, err)
	}
}

func TestRun_ImazuCase(t *testing.T) {
	sc, err := scenario.Builtin{}.Scenario("imazu-1")
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, 60, 0.5)
	h := run(t, cfg, sc, Options{})
	if h.Len() != cfg.Derived.Steps {
		t.Errorf("len = %d, want %d", h.Len(), cfg.Derived.Steps)
	}
	last, _ := h.Last()
	if last.Own.U <= 0 {
		t.Errorf("own ship did not gain speed: %v", last.Own.U)
	}
}

// ---------- determinism and fallback ----------

func TestRun_Deterministic(t *testing.T) {
	cfg := testConfig(t, 300, 0.1)
	a := run(t, cfg, scenario.HeadOn(), Options{})
	b := run(t, cfg, scenario.HeadOn(), Options{})
	if !reflect.DeepEqual(a.Records(), b.Records()) {
		t.Error("two runs with identical configuration differ")
	}
}

// stripAdvisory removes the advisory annotations of a history.
func stripAdvisory(rs []Record) []Record {
	for i := range rs {
		rs[i].Flags &^= Flags(0).With(AdvisoryUnavailable).With(AdvisoryInvalidResponse)
		rs[i].Consulted = false
		rs[i].AdvisoryRaw = ""
		rs[i].AdvisoryErr = nil
	}
	return rs
}

func TestRun_AdvisoryTimeoutMatchesDisabled(t *testing.T) {
	base := testConfig(t, 100, 0.5)
	disabled := run(t, base, scenario.HeadOn(), Options{})

	adv := base.Clone()
	adv.Advisory.Enabled = true
	adv.Advisory.IntervalTicks = 5
	adv.Advisory.Timeout = time.Millisecond
	blocking := advisory.Func(func(ctx context.Context, _ advisory.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	timedOut := run(t, adv, scenario.HeadOn(), Options{Advisor: blocking})

	fallbacks := 0
	for _, r := range timedOut.Records() {
		if r.Fallback() {
			fallbacks++
			if !r.Flags.Has(AdvisoryUnavailable) {
				t.Fatalf("tick %d: fallback without advisory-unavailable flag", r.Tick)
			}
			if !errors.Is(r.AdvisoryErr, advisory.ErrUnavailable) {
				t.Fatalf("tick %d: advisory error %v", r.Tick, r.AdvisoryErr)
			}
		}
	}
	if fallbacks == 0 {
		t.Fatal("no fallback recorded")
	}

	if !reflect.DeepEqual(stripAdvisory(disabled.Records()), stripAdvisory(timedOut.Records())) {
		t.Error("timed-out advisory run differs from the disabled run beyond annotations")
	}
}

func TestRun_InvalidAdvisoryFlagged(t *testing.T) {
	cfg := testConfig(t, 20, 0.5)
	cfg.Advisory.Enabled = true
	cfg.Advisory.IntervalTicks = 4
	garbage := advisory.Func(func(context.Context, advisory.Request) (string, error) {
		return "full astern", nil
	})
	h := run(t, cfg, scenario.HeadOn(), Options{Advisor: garbage})

	r := h.At(0)
	if !r.Consulted || !r.Flags.Has(AdvisoryInvalidResponse) || r.AdvisoryRaw != "full astern" {
		t.Errorf("tick 0 = consulted %v flags %v raw %q", r.Consulted, r.Flags.Kinds(), r.AdvisoryRaw)
	}
	if r.Source != avoidance.SourceRules || r.Bias != advisory.TurnStarboard {
		t.Errorf("tick 0 decision %v from %v, want rule-based turn-starboard", r.Bias, r.Source)
	}
}

func TestRun_AdvisoryOverridesRules(t *testing.T) {
	cfg := testConfig(t, 20, 0.5)
	cfg.Advisory.Enabled = true
	cfg.Advisory.IntervalTicks = 4
	port := advisory.Func(func(context.Context, advisory.Request) (string, error) {
		return "Rule 14 (head-on), Action: Give-way, turn to port", nil
	})
	h := run(t, cfg, scenario.HeadOn(), Options{Advisor: port})

	acting := 0
	for _, r := range h.Records() {
		if r.MaxState < avoidance.Monitoring {
			continue
		}
		if r.Source != avoidance.SourceAdvisory || r.Bias != advisory.TurnPort {
			t.Fatalf("tick %d: %v from %v, want advisory turn-port", r.Tick, r.Bias, r.Source)
		}
		if r.Consulted != (r.Tick%4 == 0) {
			t.Fatalf("tick %d: consulted = %v", r.Tick, r.Consulted)
		}
		// Turning away opens the CPA, so the rules stop asking for a turn
		// once the pair leaves give-way.
		if !r.Targets[0].State.Acting() {
			continue
		}
		acting++
		if r.RuleBias != advisory.TurnStarboard {
			t.Fatalf("tick %d: rule bias %v, want turn-starboard", r.Tick, r.RuleBias)
		}
	}
	if acting == 0 {
		t.Fatal("own ship never acted on the head-on target")
	}
}

func TestRun_RudderRateLimitedFromFirstTick(t *testing.T) {
	cfg := testConfig(t, 10, 0.1)
	heading := 90.0
	cfg.OwnShip.HeadingDeg = &heading
	h := run(t, cfg, scenario.HeadOn(), Options{})

	step := nav.Rad(cfg.Actuator.MaxRudderRateDegS)*cfg.Simulation.DTS + 1e-12
	prev := 0.0
	for _, r := range h.Records() {
		if d := math.Abs(r.Command.Rudder - prev); d > step {
			t.Fatalf("tick %d: rudder moved %v rad, limit %v", r.Tick, d, step)
		}
		prev = r.Command.Rudder
	}
	if r := h.At(0); r.Command.Rudder == 0 {
		t.Error("tick 0: no rudder despite a 90 degree heading error")
	}
}

// ---------- numerical instability ----------

func TestRun_NumericalInstabilityAborts(t *testing.T) {
	cfg := testConfig(t, 120, 0.1)
	cfg.Dynamics.YawCubic = -1e6 // destabilizing yaw term
	heading := 90.0
	cfg.OwnShip.HeadingDeg = &heading

	s, err := New(cfg, scenario.HeadOn(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background())

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("Run error = %v, want *sim.Error", err)
	}
	if se.Kind != NumericalInstability || !se.Kind.Fatal() {
		t.Errorf("kind = %v", se.Kind)
	}
	if !errors.Is(err, dynamics.ErrNonFinite) {
		t.Errorf("error %v does not wrap ErrNonFinite", err)
	}
	if se.Tick <= 0 || h.Len() != se.Tick {
		t.Errorf("abort tick %d with %d records", se.Tick, h.Len())
	}
	for _, r := range h.Records() {
		if !r.Own.IsFinite() {
			t.Fatalf("tick %d: recorded non-finite state", r.Tick)
		}
	}
	if done, again := s.Step(context.Background()); !done || again != err {
		t.Errorf("Step after abort = %v, %v", done, again)
	}
}

// ---------- history ----------

func TestHistory_ReadOnly(t *testing.T) {
	h := run(t, testConfig(t, 5, 0.5), scenario.HeadOn(), Options{})
	r := h.At(0)
	r.Targets[0].Risk = -1
	r.Tick = 99
	if got := h.At(0); got.Tick != 0 || got.Targets[0].Risk < 0 {
		t.Error("mutating a returned record changed the history")
	}
}

func TestFlags(t *testing.T) {
	f := Flags(0).With(ActuatorSaturation).With(AdvisoryInvalidResponse)
	if !f.Has(ActuatorSaturation) || f.Has(AdvisoryUnavailable) {
		t.Errorf("flags = %b", f)
	}
	if got := f.Kinds(); !reflect.DeepEqual(got, []Kind{ActuatorSaturation, AdvisoryInvalidResponse}) {
		t.Errorf("kinds = %v", got)
	}
}
