package telemetry

import (
	"math"

	"github.com/pthm-cable/colav/avoidance"
)

// Collector accumulates samples within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int
	dt                  float64

	windowStartTick int

	ticks      int
	byState    [avoidance.Emergency + 1]int
	maneuver   int
	saturation int
	fallback   int
	advisory   int
	consults   int
	risks      []float64
	minRange   float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	c := &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
	c.reset(0)
	return c
}

// Record adds one tick to the current window.
func (c *Collector) Record(s Sample) {
	c.ticks++
	if int(s.MaxState) < len(c.byState) {
		c.byState[s.MaxState]++
	}
	if s.Maneuvering() {
		c.maneuver++
	}
	if s.Saturated {
		c.saturation++
	}
	if s.Fallback {
		c.fallback++
	}
	if s.Source == avoidance.SourceAdvisory {
		c.advisory++
	}
	if s.Consulted {
		c.consults++
	}
	c.risks = append(c.risks, s.MaxRisk)
	c.minRange = math.Min(c.minRange, s.MinRange())
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Pending reports whether the current window holds unflushed ticks.
func (c *Collector) Pending() bool { return c.ticks > 0 }

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int) WindowStats {
	p50, p90 := Quantiles(c.risks)
	var maxRisk float64
	for _, r := range c.risks {
		maxRisk = math.Max(maxRisk, r)
	}
	minRange := c.minRange
	if math.IsInf(minRange, 1) {
		minRange = 0
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Ticks:           c.ticks,

		ClearTicks:      c.byState[avoidance.Clear],
		MonitoringTicks: c.byState[avoidance.Monitoring],
		GiveWayTicks:    c.byState[avoidance.GiveWay],
		StandOnTicks:    c.byState[avoidance.StandOn],
		EmergencyTicks:  c.byState[avoidance.Emergency],

		ManeuverTicks:   c.maneuver,
		SaturationTicks: c.saturation,
		FallbackTicks:   c.fallback,
		AdvisoryTicks:   c.advisory,
		Consults:        c.consults,

		MaxRisk: maxRisk,
		RiskP50: p50,
		RiskP90: p90,

		MinRange: minRange,
	}

	c.reset(currentTick)
	return stats
}

func (c *Collector) reset(tick int) {
	c.windowStartTick = tick
	c.ticks = 0
	c.byState = [avoidance.Emergency + 1]int{}
	c.maneuver = 0
	c.saturation = 0
	c.fallback = 0
	c.advisory = 0
	c.consults = 0
	c.risks = c.risks[:0]
	c.minRange = inf
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}
