// Package advisory is the contract with an optional external decision
// oracle that recommends a turn direction during an encounter.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable means the advisor could not be reached in time.
	ErrUnavailable = errors.New("advisory unavailable")
	// ErrInvalidResponse means the advisor answered outside the closed set.
	ErrInvalidResponse = errors.New("advisory response invalid")
)

// Bias is a turn recommendation.
type Bias uint8

const (
	StandOn Bias = iota
	TurnStarboard
	TurnPort
)

func (b Bias) String() string {
	switch b {
	case TurnStarboard:
		return "turn-starboard"
	case TurnPort:
		return "turn-port"
	default:
		return "stand-on"
	}
}

// Sign is +1 for starboard, -1 for port and 0 for stand-on.
func (b Bias) Sign() float64 {
	switch b {
	case TurnStarboard:
		return 1
	case TurnPort:
		return -1
	}
	return 0
}

// Turning reports whether the bias alters course.
func (b Bias) Turning() bool { return b != StandOn }

// OwnShip is the own-ship part of a request. Angles in degrees.
type OwnShip struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading_deg"`
	Speed   float64 `json:"speed"`
	YawRate float64 `json:"yaw_rate_deg_s"`
}

// Target summarises one target vessel and its CPA metrics. TCPA is nil when
// the pair never approaches.
type Target struct {
	ID         int      `json:"id"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Heading    float64  `json:"heading_deg"`
	Speed      float64  `json:"speed"`
	Range      float64  `json:"range"`
	DCPA       float64  `json:"dcpa"`
	TCPA       *float64 `json:"tcpa"`
	RelBearing float64  `json:"relative_bearing_deg"`
	Risk       float64  `json:"risk"`
	State      string   `json:"state"`
	Encounter  string   `json:"encounter"`
}

// Request is what the advisor is asked about.
type Request struct {
	Tick      int      `json:"tick"`
	Time      float64  `json:"time"`
	Own       OwnShip  `json:"own"`
	Targets   []Target `json:"targets"`
	RuleBased string   `json:"rule_based"`
}

// Advisor returns a raw recommendation. Implementations must honour ctx.
type Advisor interface {
	Advise(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Advisor.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Advise(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// DefaultTimeout bounds a consult when no positive timeout is given.
const DefaultTimeout = 2 * time.Second

type answer struct {
	raw string
	err error
}

// Consult asks a with a deadline of timeout and validates the answer. It
// returns when the deadline passes even if a ignores ctx; a late answer is
// discarded. Every failure wraps ErrUnavailable or ErrInvalidResponse.
func Consult(ctx context.Context, a Advisor, req Request, timeout time.Duration) (Bias, string, error) {
	if a == nil {
		return StandOn, "", ErrUnavailable
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan answer, 1)
	go func() {
		raw, err := a.Advise(ctx, req)
		done <- answer{raw, err}
	}()

	var ans answer
	select {
	case ans = <-done:
		if ans.err == nil && ctx.Err() != nil {
			ans.err = ctx.Err()
		}
	case <-ctx.Done():
		return StandOn, "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}

	if ans.err != nil {
		if errors.Is(ans.err, ErrInvalidResponse) || errors.Is(ans.err, ErrUnavailable) {
			return StandOn, ans.raw, ans.err
		}
		return StandOn, ans.raw, fmt.Errorf("%w: %w", ErrUnavailable, ans.err)
	}

	b, err := ParseBias(ans.raw)
	if err != nil {
		return StandOn, ans.raw, err
	}
	return b, ans.raw, nil
}
