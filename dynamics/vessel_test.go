package dynamics

import (
	"math"
	"testing"
)

func testModel() *Model {
	return NewModel(Params{
		Length:        30,
		Beam:          16,
		NomotoGain:    1.5,
		NomotoTime:    2,
		YawCubic:      0.5,
		SideslipGain:  0.3,
		SideslipLag:   5,
		SpeedLag:      20,
		TurnSpeedLoss: 2,
	}, Limits{
		MaxRudder:     35 * math.Pi / 180,
		MaxRudderRate: 10 * math.Pi / 180,
		MinSpeed:      0,
		MaxSpeed:      50,
	})
}

func TestStraightRunKeepsHeading(t *testing.T) {
	m := testModel()
	s := VesselState{U: 10}
	cmd := Command{Rudder: 0, Speed: 10}

	for i := 0; i < 1000; i++ {
		var err error
		s, err = m.Advance(RK4, s, cmd, 0.1)
		if err != nil {
			t.Fatal(err)
		}
	}

	// 100 s at 10 m/s due north.
	if math.Abs(s.X-1000) > 1e-6 || math.Abs(s.Y) > 1e-9 {
		t.Errorf("position = (%v, %v), want (1000, 0)", s.X, s.Y)
	}
	if s.Psi != 0 || s.R != 0 {
		t.Errorf("heading drifted: psi=%v r=%v", s.Psi, s.R)
	}
}

func TestStarboardRudderTurnsStarboard(t *testing.T) {
	m := testModel()
	s := VesselState{U: 10}
	cmd := Command{Rudder: 0.2, Speed: 10}

	for i := 0; i < 50; i++ {
		var err error
		s, err = m.Advance(RK4, s, cmd, 0.1)
		if err != nil {
			t.Fatal(err)
		}
	}
	if s.R <= 0 || s.Psi <= 0 {
		t.Errorf("positive rudder should yaw to starboard: r=%v psi=%v", s.R, s.Psi)
	}
	if s.Y <= 0 {
		t.Errorf("starboard turn should move east, y=%v", s.Y)
	}
	if s.Beta >= 0 {
		t.Errorf("sideslip in a starboard turn should be negative, got %v", s.Beta)
	}
}

func TestHeadingStaysWrapped(t *testing.T) {
	m := testModel()
	s := VesselState{U: 10}
	cmd := Command{Rudder: m.Limits().MaxRudder, Speed: 10}
	for i := 0; i < 5000; i++ {
		var err error
		s, err = m.Advance(RK4, s, cmd, 0.1)
		if err != nil {
			t.Fatal(err)
		}
		if s.Psi <= -math.Pi || s.Psi > math.Pi {
			t.Fatalf("tick %d: heading %v not wrapped", i, s.Psi)
		}
	}
}

func TestDerivativeClampsCommand(t *testing.T) {
	m := testModel()
	x := VesselState{U: 10}.Vector()

	over := m.Derivative(x, Command{Rudder: 3, Speed: 500})
	atLimit := m.Derivative(x, Command{Rudder: m.Limits().MaxRudder, Speed: m.Limits().MaxSpeed})
	for i := range over {
		if over[i] != atLimit[i] {
			t.Errorf("component %d: over-limit %v != at-limit %v", i, over[i], atLimit[i])
		}
	}
}

func TestApplyRateLimit(t *testing.T) {
	m := testModel()
	dt := 0.1
	maxStep := m.Limits().MaxRudderRate * dt

	got, sat := m.Apply(Command{}, Command{Rudder: 0.5, Speed: 10}, dt)
	if !sat {
		t.Error("expected saturation flag")
	}
	if math.Abs(got.Rudder-maxStep) > 1e-12 {
		t.Errorf("rudder = %v, want %v", got.Rudder, maxStep)
	}

	got, sat = m.Apply(Command{Rudder: 0.1}, Command{Rudder: 0.1 + maxStep/2, Speed: 10}, dt)
	if sat {
		t.Error("small change should not saturate")
	}
	if math.Abs(got.Rudder-(0.1+maxStep/2)) > 1e-12 {
		t.Errorf("rudder = %v", got.Rudder)
	}
}

func TestAdvanceNonFiniteCommand(t *testing.T) {
	m := testModel()
	s := VesselState{U: 10}
	_, err := m.Advance(RK4, s, Command{Rudder: math.NaN(), Speed: 10}, 0.1)
	if err == nil {
		t.Fatal("expected error for NaN rudder")
	}
}
