package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/colav/advisory"
)

// Kind classifies run errors and per-tick annotations.
type Kind uint8

const (
	// Fatal kinds.
	NumericalInstability Kind = iota + 1
	Configuration

	// Non-fatal kinds, recorded in Record.Flags.
	ActuatorSaturation
	AdvisoryUnavailable
	AdvisoryInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case NumericalInstability:
		return "numerical-instability"
	case Configuration:
		return "configuration"
	case ActuatorSaturation:
		return "actuator-saturation"
	case AdvisoryUnavailable:
		return "advisory-unavailable"
	case AdvisoryInvalidResponse:
		return "advisory-invalid-response"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Fatal reports whether the kind aborts a run.
func (k Kind) Fatal() bool { return k == NumericalInstability || k == Configuration }

// Error is a fatal run failure. Tick is -1 for failures at construction.
type Error struct {
	Kind Kind
	Tick int
	Err  error
}

func (e *Error) Error() string {
	if e.Tick < 0 {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at tick %d: %v", e.Kind, e.Tick, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Flags is the set of non-fatal annotations on one tick.
type Flags uint8

// Has reports whether k is set.
func (f Flags) Has(k Kind) bool { return f&(1<<k) != 0 }

// With returns f with k set.
func (f Flags) With(k Kind) Flags { return f | 1<<k }

// Kinds lists the set annotations in ascending order.
func (f Flags) Kinds() []Kind {
	var out []Kind
	for k := ActuatorSaturation; k <= AdvisoryInvalidResponse; k++ {
		if f.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// advisoryKind maps a failed consult onto its annotation.
func advisoryKind(err error) Kind {
	if errors.Is(err, advisory.ErrInvalidResponse) {
		return AdvisoryInvalidResponse
	}
	return AdvisoryUnavailable
}
