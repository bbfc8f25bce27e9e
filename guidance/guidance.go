// Package guidance sequences waypoints and produces the desired heading.
package guidance

import (
	"github.com/pthm-cable/colav/nav"
)

// SelectWaypoint advances cursor by one when pos lies within radius of
// waypoints[cursor]. When that waypoint is the last one the cursor stays on
// it and arrived is reported instead. The cursor never moves backwards and
// never advances by more than one per call.
func SelectWaypoint(pos nav.Vec2, waypoints []nav.Vec2, cursor int, radius float64) (next int, arrived bool) {
	n := len(waypoints)
	if n == 0 {
		return 0, true
	}
	if cursor >= n {
		return n - 1, true
	}
	if cursor < 0 {
		cursor = 0
	}
	if pos.Dist(waypoints[cursor]) > radius {
		return cursor, false
	}
	if cursor == n-1 {
		return cursor, true
	}
	return cursor + 1, false
}

// DesiredHeading returns the bearing from pos to the active waypoint. Once
// arrived (or with the cursor past the end) it returns the bearing of the
// last leg so the commanded heading freezes.
func DesiredHeading(pos nav.Vec2, waypoints []nav.Vec2, cursor int, arrived bool) float64 {
	n := len(waypoints)
	if n == 0 {
		return 0
	}
	if arrived || cursor >= n {
		return LastLegBearing(pos, waypoints)
	}
	if cursor < 0 {
		cursor = 0
	}
	return nav.Bearing(pos, waypoints[cursor])
}

// LastLegBearing is the bearing of the final leg. With a single waypoint the
// leg starts at pos.
func LastLegBearing(pos nav.Vec2, waypoints []nav.Vec2) float64 {
	n := len(waypoints)
	if n >= 2 {
		return nav.Bearing(waypoints[n-2], waypoints[n-1])
	}
	return nav.Bearing(pos, waypoints[0])
}

// Tracker holds a waypoint plan and its cursor for one run.
type Tracker struct {
	waypoints []nav.Vec2
	radius    float64
	cursor    int
	arrived   bool
	frozen    float64
}

// NewTracker creates a tracker starting at the first waypoint.
func NewTracker(waypoints []nav.Vec2, radius float64) *Tracker {
	wps := make([]nav.Vec2, len(waypoints))
	copy(wps, waypoints)
	return &Tracker{waypoints: wps, radius: radius}
}

// Cursor returns the index of the active waypoint.
func (t *Tracker) Cursor() int { return t.cursor }

// Arrived reports whether the final waypoint has been reached.
func (t *Tracker) Arrived() bool { return t.arrived }

// Waypoints returns a copy of the plan.
func (t *Tracker) Waypoints() []nav.Vec2 {
	out := make([]nav.Vec2, len(t.waypoints))
	copy(out, t.waypoints)
	return out
}

// Desired returns the desired heading from pos.
func (t *Tracker) Desired(pos nav.Vec2) float64 {
	if t.arrived {
		return t.frozen
	}
	return DesiredHeading(pos, t.waypoints, t.cursor, false)
}

// Advance moves the cursor if pos is inside the arrival radius and returns
// whether the plan is complete.
func (t *Tracker) Advance(pos nav.Vec2) bool {
	if t.arrived {
		return true
	}
	next, arrived := SelectWaypoint(pos, t.waypoints, t.cursor, t.radius)
	t.cursor = next
	if arrived {
		t.arrived = true
		t.frozen = LastLegBearing(pos, t.waypoints)
	}
	return t.arrived
}
