// Package systems contains ECS systems for the simulation.
package systems

import (
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colav/components"
	"github.com/pthm-cable/colav/nav"
)

// TargetState is a read-only snapshot of one target vessel.
type TargetState struct {
	ID             int
	Name           string
	Pos            nav.Vec2
	Heading        float64
	Speed          float64
	TurnRate       float64
	Length         float64
	Beam           float64
	SafetyDistance float64
}

// Vel returns the velocity vector.
func (t TargetState) Vel() nav.Vec2 { return nav.FromPolar(t.Speed, t.Heading) }

// TrafficSystem advances target vessels kinematically.
type TrafficSystem struct {
	mapper *ecs.Map4[components.Vessel, components.Position, components.Motion, components.Hull]
	filter *ecs.Filter4[components.Vessel, components.Position, components.Motion, components.Hull]
	count  int
}

// NewTrafficSystem creates a traffic system on w.
func NewTrafficSystem(w *ecs.World) *TrafficSystem {
	return &TrafficSystem{
		mapper: ecs.NewMap4[components.Vessel, components.Position, components.Motion, components.Hull](w),
		filter: ecs.NewFilter4[components.Vessel, components.Position, components.Motion, components.Hull](w),
	}
}

// Spawn adds a target vessel. Must not be called during Update.
func (s *TrafficSystem) Spawn(v components.Vessel, p components.Position, m components.Motion, h components.Hull) ecs.Entity {
	s.count++
	return s.mapper.NewEntity(&v, &p, &m, &h)
}

// Len returns the number of target vessels.
func (s *TrafficSystem) Len() int { return s.count }

// Update advances every target by dt seconds.
func (s *TrafficSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		_, pos, mot, _ := query.Get()
		p, h := advance(nav.Vec2{X: pos.X, Y: pos.Y}, mot.Heading, mot.Speed, mot.TurnRate, dt)
		pos.X, pos.Y = p.X, p.Y
		mot.Heading = h
	}
}

// Snapshot appends the state of every target to dst, ordered by ID.
func (s *TrafficSystem) Snapshot(dst []TargetState) []TargetState {
	dst = dst[:0]
	query := s.filter.Query()
	for query.Next() {
		v, pos, mot, hull := query.Get()
		dst = append(dst, TargetState{
			ID:             v.ID,
			Name:           v.Name,
			Pos:            nav.Vec2{X: pos.X, Y: pos.Y},
			Heading:        mot.Heading,
			Speed:          mot.Speed,
			TurnRate:       mot.TurnRate,
			Length:         hull.Length,
			Beam:           hull.Beam,
			SafetyDistance: hull.SafetyDistance,
		})
	}
	slices.SortFunc(dst, func(a, b TargetState) int { return a.ID - b.ID })
	return dst
}
