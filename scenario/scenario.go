// Package scenario provides the initial traffic picture and own-ship plan
// for a named encounter.
package scenario

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/colav/nav"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrNoWaypoints     = errors.New("scenario has no waypoints")
)

// Own is the own-ship initial condition.
type Own struct {
	Pos         nav.Vec2
	Heading     float64 // rad
	Speed       float64 // m/s at t=0
	CruiseSpeed float64 // m/s speed reference
	Length      float64 // m
	Beam        float64 // m
}

// Target is the initial state of one target vessel.
type Target struct {
	ID             int
	Name           string
	Pos            nav.Vec2
	Heading        float64 // rad
	Speed          float64 // m/s
	TurnRate       float64 // rad/s
	Length         float64 // m
	Beam           float64 // m
	SafetyDistance float64 // m; 0 uses the risk policy default
}

// Scenario is everything a run needs from the provider.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Own         Own
	Waypoints   []nav.Vec2
	Targets     []Target
}

// Validate checks the scenario is usable.
func (s *Scenario) Validate() error {
	if len(s.Waypoints) == 0 {
		return fmt.Errorf("scenario %q: %w", s.ID, ErrNoWaypoints)
	}
	if !s.Own.Pos.IsFinite() {
		return fmt.Errorf("scenario %q: own ship position not finite", s.ID)
	}
	seen := make(map[int]bool, len(s.Targets))
	for _, t := range s.Targets {
		if seen[t.ID] {
			return fmt.Errorf("scenario %q: duplicate target id %d", s.ID, t.ID)
		}
		seen[t.ID] = true
		if !t.Pos.IsFinite() || t.Speed < 0 {
			return fmt.Errorf("scenario %q: target %d has invalid kinematics", s.ID, t.ID)
		}
	}
	return nil
}

// Provider resolves a scenario identifier.
type Provider interface {
	Scenario(id string) (*Scenario, error)
}

// Chain tries each provider in turn, skipping those that do not know id.
type Chain []Provider

func (c Chain) Scenario(id string) (*Scenario, error) {
	for _, p := range c {
		s, err := p.Scenario(id)
		if errors.Is(err, ErrUnknownScenario) {
			continue
		}
		return s, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
}
