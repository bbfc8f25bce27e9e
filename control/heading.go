// Package control converts a commanded heading into a rudder command.
package control

import (
	"math"

	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/nav"
)

// Gains for the heading loop. The derivative term acts on the measured yaw
// rate rather than on the error, so heading steps do not kick the rudder.
type Gains struct {
	Kp            float64 // rad rudder per rad error
	Ki            float64 // rad rudder per rad·s error
	Kd            float64 // rad rudder per rad/s yaw rate
	IntegralLimit float64 // clamp on the integral term contribution, rad
}

// Output is one controller update.
type Output struct {
	Command   dynamics.Command
	Error     float64 // wrapped heading error, rad
	Saturated bool    // amplitude or rate limit was active
}

// Heading is a PID heading controller. It owns its integral and previous
// output; create one per run.
type Heading struct {
	gains  Gains
	limits dynamics.Limits

	integral float64
	prev     dynamics.Command // last output; the zero value is rudder amidships
}

// NewHeading creates a heading controller.
func NewHeading(g Gains, l dynamics.Limits) *Heading {
	return &Heading{gains: g, limits: l}
}

// Reset clears the integral and rate-limit memory.
func (h *Heading) Reset() {
	h.integral = 0
	h.prev = dynamics.Command{}
}

// Update computes the rudder command for the desired heading. speedRef is
// passed through (clamped) as the speed reference.
func (h *Heading) Update(desired, heading, yawRate, speedRef, dt float64) Output {
	e := nav.HeadingError(desired, heading)

	raw := h.gains.Kp*e + h.gains.Ki*h.integral - h.gains.Kd*yawRate
	cmd, saturated := h.saturate(dynamics.Command{Rudder: raw, Speed: speedRef}, dt)

	// Conditional integration: only accumulate while the output is not
	// pinned against a limit in the direction the error would push it.
	if !(saturated && sameSign(e, raw)) {
		h.integral += e * dt
		if h.gains.Ki > 0 && h.gains.IntegralLimit > 0 {
			lim := h.gains.IntegralLimit / h.gains.Ki
			h.integral = math.Max(-lim, math.Min(lim, h.integral))
		}
	}

	h.prev = cmd
	return Output{Command: cmd, Error: e, Saturated: saturated}
}

// saturate applies the actuator amplitude, speed and rudder-rate limits,
// rate-limited against the previous output from the first tick on.
func (h *Heading) saturate(c dynamics.Command, dt float64) (dynamics.Command, bool) {
	return h.limits.Apply(h.prev, c, dt)
}

func sameSign(a, b float64) bool { return a*b > 0 }
