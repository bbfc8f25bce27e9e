package systems

import (
	"math"

	"github.com/pthm-cable/colav/nav"
)

// minTurnRate is the turn rate below which a target moves in a straight line.
const minTurnRate = 1e-9

// advance moves a vessel at constant speed and turn rate for dt seconds.
// Turning vessels follow the exact circular arc.
func advance(pos nav.Vec2, heading, speed, turnRate, dt float64) (nav.Vec2, float64) {
	if math.Abs(turnRate) < minTurnRate {
		return pos.Add(nav.FromPolar(speed*dt, heading)), heading
	}
	next := heading + turnRate*dt
	radius := speed / turnRate
	pos.X += radius * (math.Sin(next) - math.Sin(heading))
	pos.Y -= radius * (math.Cos(next) - math.Cos(heading))
	return pos, nav.WrapAngle(next)
}
