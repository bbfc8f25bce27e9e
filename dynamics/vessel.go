package dynamics

import (
	"math"

	"github.com/pthm-cable/colav/nav"
)

// State vector layout.
const (
	IdxX = iota
	IdxY
	IdxPsi
	IdxR
	IdxBeta
	IdxU
	StateDim
)

// VesselState is the own-ship state.
type VesselState struct {
	X, Y float64 // position, metres (x north, y east)
	Psi  float64 // heading, rad, wrapped to (-Pi, Pi]
	R    float64 // yaw rate, rad/s
	Beta float64 // sideslip (course minus heading), rad
	U    float64 // forward speed, m/s
}

// Vector packs the state into the integrator layout.
func (s VesselState) Vector() []float64 {
	v := make([]float64, StateDim)
	v[IdxX], v[IdxY], v[IdxPsi] = s.X, s.Y, s.Psi
	v[IdxR], v[IdxBeta], v[IdxU] = s.R, s.Beta, s.U
	return v
}

// StateFromVector unpacks an integrator vector. The heading is wrapped.
func StateFromVector(v []float64) VesselState {
	return VesselState{
		X:    v[IdxX],
		Y:    v[IdxY],
		Psi:  nav.WrapAngle(v[IdxPsi]),
		R:    v[IdxR],
		Beta: v[IdxBeta],
		U:    v[IdxU],
	}
}

// Position returns the (x, y) position.
func (s VesselState) Position() nav.Vec2 { return nav.Vec2{X: s.X, Y: s.Y} }

// Velocity returns the velocity over ground along the course psi+beta.
func (s VesselState) Velocity() nav.Vec2 { return nav.FromPolar(s.U, s.Psi+s.Beta) }

// IsFinite reports whether every component is finite.
func (s VesselState) IsFinite() bool { return firstNonFinite(s.Vector()) < 0 }

// Command is the actuator command: rudder angle and speed reference.
type Command struct {
	Rudder float64 // rad, positive turns to starboard
	Speed  float64 // m/s
}

// Limits are the physical actuator bounds.
type Limits struct {
	MaxRudder     float64 // rad
	MaxRudderRate float64 // rad/s
	MinSpeed      float64 // m/s
	MaxSpeed      float64 // m/s
}

// Params are the fixed hull and hydrodynamic coefficients.
//
// Yaw follows a first-order nonlinear Nomoto response
//
//	T r' + r + a r^3 = K delta,  K = K0 u/L,  T = T0 L/u
//
// with sideslip lagging the turn and speed bleeding off in tight turns.
type Params struct {
	Length        float64 // m
	Beam          float64 // m
	NomotoGain    float64 // K0, dimensionless
	NomotoTime    float64 // T0, dimensionless
	YawCubic      float64 // a, s^2
	SideslipGain  float64 // steady drift per unit non-dimensional yaw rate
	SideslipLag   float64 // s
	SpeedLag      float64 // s, surge response to the speed reference
	TurnSpeedLoss float64 // s, surge damping from yaw
	MinSteerSpeed float64 // m/s, floor used in speed-scaled coefficients
}

// Model maps (state, command) to the state derivative.
type Model struct {
	p Params
	l Limits
}

// NewModel creates a vessel model.
func NewModel(p Params, l Limits) *Model {
	if p.MinSteerSpeed <= 0 {
		p.MinSteerSpeed = 0.5
	}
	return &Model{p: p, l: l}
}

// Params returns the hull parameters.
func (m *Model) Params() Params { return m.p }

// Limits returns the actuator limits.
func (m *Model) Limits() Limits { return m.l }

// Clamp enforces the amplitude and speed bounds. The returned flag is true
// when any component had to be changed.
func (l Limits) Clamp(c Command) (Command, bool) {
	out := c
	out.Rudder = clamp(c.Rudder, -l.MaxRudder, l.MaxRudder)
	out.Speed = clamp(c.Speed, l.MinSpeed, l.MaxSpeed)
	return out, out != c
}

// Apply enforces amplitude and rate bounds relative to the previously applied
// command. The rudder starts amidships, so the zero Command is the prev of
// the first tick.
func (l Limits) Apply(prev, c Command, dt float64) (Command, bool) {
	out, saturated := l.Clamp(c)
	if l.MaxRudderRate > 0 && dt > 0 {
		maxStep := l.MaxRudderRate * dt
		limited := clamp(out.Rudder, prev.Rudder-maxStep, prev.Rudder+maxStep)
		if limited != out.Rudder {
			out.Rudder = limited
			saturated = true
		}
	}
	return out, saturated
}

// Clamp enforces the model's amplitude and speed bounds.
func (m *Model) Clamp(c Command) (Command, bool) { return m.l.Clamp(c) }

// Apply enforces the model's amplitude and rate bounds. It is a pure
// function; the caller keeps prev.
func (m *Model) Apply(prev, c Command, dt float64) (Command, bool) { return m.l.Apply(prev, c, dt) }

// Derivative returns dx/dt for the given state vector and command. The
// command is clamped to the amplitude and speed bounds first.
func (m *Model) Derivative(x []float64, c Command) []float64 {
	c, _ = m.Clamp(c)
	p := m.p

	psi, r, beta, u := x[IdxPsi], x[IdxR], x[IdxBeta], x[IdxU]
	ueff := math.Max(math.Abs(u), p.MinSteerSpeed)

	k := p.NomotoGain * ueff / p.Length
	t := p.NomotoTime * p.Length / ueff
	course := psi + beta

	d := make([]float64, StateDim)
	d[IdxX] = u * math.Cos(course)
	d[IdxY] = u * math.Sin(course)
	d[IdxPsi] = r
	d[IdxR] = (k*c.Rudder - r - p.YawCubic*r*r*r) / t
	d[IdxBeta] = (-p.SideslipGain*r*p.Length/ueff - beta) / p.SideslipLag
	d[IdxU] = (c.Speed-u)/p.SpeedLag - p.TurnSpeedLoss*u*r*r
	return d
}

// Func binds a command to produce an integrator Derivative.
func (m *Model) Func(c Command) Derivative {
	return func(x []float64) []float64 { return m.Derivative(x, c) }
}

// Advance integrates the state one step under command c.
func (m *Model) Advance(method Method, s VesselState, c Command, dt float64) (VesselState, error) {
	next, err := Step(method, s.Vector(), m.Func(c), dt)
	if err != nil {
		return s, err
	}
	return StateFromVector(next), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
