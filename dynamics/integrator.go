// Package dynamics integrates the own-ship equations of motion.
//
// The integrator is a pure fixed-step stepper over a state vector; the vessel
// model supplies the derivative. Neither keeps hidden state between calls.
package dynamics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrNonFinite is returned when a step produces NaN or Inf.
var ErrNonFinite = errors.New("non-finite state")

// Method selects the integration scheme.
type Method string

const (
	RK4   Method = "rk4"   // classic fourth-order Runge-Kutta
	Euler Method = "euler" // explicit first-order, cheaper and less accurate
)

// ParseMethod converts a config string into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case RK4, "":
		return RK4, nil
	case Euler:
		return Euler, nil
	}
	return "", fmt.Errorf("unknown integrator %q (want rk4 or euler)", s)
}

// Derivative returns dx/dt at x. Inputs held constant over the step
// (zero-order hold) are captured by the closure.
type Derivative func(x []float64) []float64

// Step advances x by exactly one step of size h and returns the new state.
// x is not modified.
func Step(m Method, x []float64, f Derivative, h float64) ([]float64, error) {
	var out []float64
	switch m {
	case Euler:
		out = eulerStep(x, f, h)
	case RK4, "":
		out = rk4Step(x, f, h)
	default:
		return nil, fmt.Errorf("unknown integrator %q", m)
	}

	if i := firstNonFinite(out); i >= 0 {
		return nil, fmt.Errorf("%w: component %d = %v after %s step (h=%g)", ErrNonFinite, i, out[i], m, h)
	}
	return out, nil
}

func eulerStep(x []float64, f Derivative, h float64) []float64 {
	out := make([]float64, len(x))
	floats.AddScaledTo(out, x, h, f(x))
	return out
}

func rk4Step(x []float64, f Derivative, h float64) []float64 {
	n := len(x)
	tmp := make([]float64, n)

	k1 := f(x)
	floats.AddScaledTo(tmp, x, h/2, k1)
	k2 := f(tmp)
	floats.AddScaledTo(tmp, x, h/2, k2)
	k3 := f(tmp)
	floats.AddScaledTo(tmp, x, h, k3)
	k4 := f(tmp)

	// out = x + h/6 * (k1 + 2k2 + 2k3 + k4)
	sum := make([]float64, n)
	copy(sum, k1)
	floats.AddScaled(sum, 2, k2)
	floats.AddScaled(sum, 2, k3)
	floats.Add(sum, k4)

	out := make([]float64, n)
	floats.AddScaledTo(out, x, h/6, sum)
	return out
}

// firstNonFinite returns the index of the first NaN/Inf component, or -1.
func firstNonFinite(v []float64) int {
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}
	return -1
}
