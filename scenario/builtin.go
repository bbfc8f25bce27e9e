package scenario

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/colav/nav"
)

// NauticalMile in metres.
const NauticalMile = 1852.0

// Imazu suite constants.
const (
	ImazuCruiseSpeed  = 43.3
	ImazuTargetSpeed  = 18.52
	ImazuTargetLength = 80.0
	ImazuTargetBeam   = 30.0
	ImazuOwnLength    = 30.0
	ImazuOwnBeam      = 16.0
	ImazuCases        = 23
)

type imazuTarget struct {
	x, y    float64 // nmi
	heading float64 // deg
}

var imazu = [ImazuCases][]imazuTarget{
	{{6, 0, 180}},
	{{5, -2.14, 90}},
	{{3, 0, 0}},
	{{3.44, 1.63, 295}},
	{{5, -2.14, 90}, {6.95, 0, 180}},
	{{3.4, -1.47, 45}, {3, -0.39, 10}},
	{{3, 0, 0}, {3.4, -1.49, 45}},
	{{5, -2.13, 90}, {7, 0, 180}},
	{{3.4, -1.47, 45}, {5, -2.15, 90}},
	{{3, 0.35, 350}, {4.4, -1.9, 90}},
	{{5, 2.1, -90}, {3.4, -1.5, 45}},
	{{7, 0, 180}, {3, 0.35, -10}, {3.44, -1.5, 45}},
	{{6, 0, 180}, {3, 0.35, 350}, {3.4, 1.55, 295}},
	{{3.4, -1.5, 45}, {3, -0.4, 10}, {5, -2.15, 90}},
	{{3, 0, 0}, {3.4, -1.5, 45}, {5, -2.15, 90}},
	{{3.4, 1.47, -45}, {5, 2.14, -90}, {5, -2.15, 90}},
	{{3, 0, 0}, {3, 0.35, -10}, {3.4, -1.5, 45}},
	{{3.3, -0.4, 10}, {3.4, -1.45, 45}, {6.5, -1.5, 135}},
	{{3, -0.37, 10}, {3, 0.35, -10}, {6.5, -1.53, 135}},
	{{3, 0, 0}, {3, -0.35, 10}, {4.4, -1.85, 90}},
	{{2.7, -0.35, 10}, {2.7, 0.32, -10}, {4.4, -1.9, 90}},
	{{3, 0, 0}, {3.94, -1.73, 45}, {5, -2.16, 90}},
	{{4.243, 2.243, -75}},
}

// Builtin serves the Imazu encounter suite ("1".."23", "case-7",
// "imazu-7") and the two reference encounters "head-on" and
// "crossing-port".
type Builtin struct{}

// IDs lists every built-in scenario identifier.
func (Builtin) IDs() []string {
	ids := []string{"head-on", "crossing-port"}
	for i := 1; i <= ImazuCases; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

func (Builtin) Scenario(id string) (*Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "head-on":
		return HeadOn(), nil
	case "crossing-port":
		return CrossingPort(), nil
	}
	n, ok := imazuNumber(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return Imazu(n)
}

func imazuNumber(id string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(id))
	s = strings.TrimPrefix(s, "imazu-")
	s = strings.TrimPrefix(s, "case-")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > ImazuCases {
		return 0, false
	}
	return n, true
}

// Imazu returns Imazu case n (1-based). Own ship starts at rest at the
// origin heading north with a plan 40 nmi up the x axis.
func Imazu(n int) (*Scenario, error) {
	if n < 1 || n > ImazuCases {
		return nil, fmt.Errorf("%w: imazu case %d", ErrUnknownScenario, n)
	}
	s := &Scenario{
		ID:   strconv.Itoa(n),
		Name: fmt.Sprintf("Imazu case %d", n),
		Own: Own{
			CruiseSpeed: ImazuCruiseSpeed,
			Length:      ImazuOwnLength,
			Beam:        ImazuOwnBeam,
		},
		Waypoints: []nav.Vec2{{}, {X: 40 * NauticalMile}},
	}
	for i, t := range imazu[n-1] {
		s.Targets = append(s.Targets, Target{
			ID:             i + 1,
			Name:           fmt.Sprintf("TS%d", i+1),
			Pos:            nav.Vec2{X: t.x * NauticalMile, Y: t.y * NauticalMile},
			Heading:        nav.WrapAngle(nav.Rad(t.heading)),
			Speed:          ImazuTargetSpeed,
			Length:         ImazuTargetLength,
			Beam:           ImazuTargetBeam,
			SafetyDistance: ImazuTargetLength,
		})
	}
	if len(s.Targets) == 1 {
		s.Description = "single target"
	} else {
		s.Description = fmt.Sprintf("%d targets", len(s.Targets))
	}
	return s, nil
}

// HeadOn is a single target on a reciprocal course 2000 m dead ahead,
// closing at 10 m/s.
func HeadOn() *Scenario {
	return &Scenario{
		ID:          "head-on",
		Name:        "Head-on",
		Description: "reciprocal courses, 2000 m, 10 m/s closing",
		Own:         Own{Speed: 5, CruiseSpeed: 5, Length: 30, Beam: 8},
		Waypoints:   []nav.Vec2{{X: 6000}},
		Targets: []Target{{
			ID: 1, Name: "TS1",
			Pos:     nav.Vec2{X: 2000},
			Heading: math.Pi,
			Speed:   5,
			Length:  50, Beam: 10,
		}},
	}
}

// CrossingPort is a target crossing from the port side that crosses the
// own ship's track about 3 km ahead.
func CrossingPort() *Scenario {
	return &Scenario{
		ID:          "crossing-port",
		Name:        "Crossing from port",
		Description: "target crosses from port, DCPA above the safety distance",
		Own:         Own{Speed: 5, CruiseSpeed: 5, Length: 30, Beam: 8},
		Waypoints:   []nav.Vec2{{X: 20000}},
		Targets: []Target{{
			ID: 1, Name: "TS1",
			Pos:     nav.Vec2{X: 6000, Y: -3000},
			Heading: math.Pi / 2,
			Speed:   5,
			Length:  50, Beam: 10,
		}},
	}
}
