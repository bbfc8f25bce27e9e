package nav

import "math"

// Vec2 is a point or displacement in the local north/east frame, in metres.
type Vec2 struct {
	X, Y float64
}

// FromPolar returns the vector of length r along heading psi.
func FromPolar(r, psi float64) Vec2 {
	return Vec2{X: r * math.Cos(psi), Y: r * math.Sin(psi)}
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) NormSq() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Norm() }
func (v Vec2) Heading() float64 { return math.Atan2(v.Y, v.X) }
func (v Vec2) IsFinite() bool { return finite(v.X) && finite(v.Y) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
