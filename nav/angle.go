// Package nav holds the planar geometry shared by every stage of the
// decision loop: angle wrapping, bearings and 2-D vectors.
//
// Frame convention: x points north, y points east, headings are measured
// clockwise from north. A positive heading change is a turn to starboard.
package nav

import "math"

const twoPi = 2 * math.Pi

// WrapAngle wraps an angle to (-Pi, Pi].
//
// Heading error, relative bearing and stored headings all go through this
// function so that the ±Pi seam is handled identically everywhere.
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	w := math.Remainder(a, twoPi)
	if w <= -math.Pi {
		w += twoPi
	}
	return w
}

// HeadingError returns the shortest signed rotation from current to desired.
// Positive means the desired heading lies to starboard.
func HeadingError(desired, current float64) float64 {
	return WrapAngle(desired - current)
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Bearing returns the true bearing from a to b.
func Bearing(a, b Vec2) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// RelativeBearing returns the bearing of b as seen from a vessel at a with
// the given heading. Positive values are on the starboard side.
func RelativeBearing(a Vec2, heading float64, b Vec2) float64 {
	return WrapAngle(Bearing(a, b) - heading)
}
