// Package components defines ECS components for target vessels.
package components

// Vessel identifies a target vessel.
type Vessel struct {
	ID   int
	Name string
}

// Position is the vessel position in the local frame (x north, y east), m.
type Position struct {
	X, Y float64
}

// Motion is the kinematic state of a target vessel.
type Motion struct {
	Heading  float64 // rad, clockwise from north
	Speed    float64 // m/s
	TurnRate float64 // rad/s, 0 = straight line
}

// Hull holds vessel dimensions and the CPA safety distance.
type Hull struct {
	Length         float64 // m
	Beam           float64 // m
	SafetyDistance float64 // m
}
