package telemetry

import (
	"math"
	"sort"

	"github.com/pthm-cable/colav/avoidance"
)

// EncounterStats tracks one target over the whole run.
type EncounterStats struct {
	TargetID         int     `csv:"target"`
	Encounter        string  `csv:"encounter"` // class when the pair first acted, else the first seen
	SafetyDistance   float64 `csv:"safety_distance"`
	FirstMonitorTick int     `csv:"first_monitor_tick"` // -1 = never
	FirstActionTick  int     `csv:"first_action_tick"`  // -1 = never
	MinRange         float64 `csv:"min_range"`
	MinRangeTime     float64 `csv:"min_range_time"`
	MaxRisk          float64 `csv:"max_risk"`
	ClearTicks       int     `csv:"clear"`
	MonitoringTicks  int     `csv:"monitoring"`
	GiveWayTicks     int     `csv:"give_way"`
	StandOnTicks     int     `csv:"stand_on"`
	EmergencyTicks   int     `csv:"emergency"`
	BreachTicks      int     `csv:"breach_ticks"`
}

// Breached reports whether the target ever came inside its safety distance.
func (es *EncounterStats) Breached() bool { return es.BreachTicks > 0 }

// EncounterTracker accumulates EncounterStats per target id.
type EncounterTracker struct {
	stats map[int]*EncounterStats
}

// NewEncounterTracker creates an empty tracker.
func NewEncounterTracker() *EncounterTracker {
	return &EncounterTracker{stats: make(map[int]*EncounterStats)}
}

// Record folds one sample into the per-target stats.
func (et *EncounterTracker) Record(s Sample) {
	for _, t := range s.Targets {
		es := et.stats[t.ID]
		if es == nil {
			es = &EncounterStats{
				TargetID:         t.ID,
				Encounter:        t.Encounter.String(),
				SafetyDistance:   t.SafetyDistance,
				FirstMonitorTick: -1,
				FirstActionTick:  -1,
				MinRange:         math.Inf(1),
			}
			et.stats[t.ID] = es
		}

		switch t.State {
		case avoidance.Clear:
			es.ClearTicks++
		case avoidance.Monitoring:
			es.MonitoringTicks++
		case avoidance.GiveWay:
			es.GiveWayTicks++
		case avoidance.StandOn:
			es.StandOnTicks++
		case avoidance.Emergency:
			es.EmergencyTicks++
		}
		if t.State >= avoidance.Monitoring && es.FirstMonitorTick < 0 {
			es.FirstMonitorTick = s.Tick
		}
		if t.State.Acting() && es.FirstActionTick < 0 {
			es.FirstActionTick = s.Tick
			es.Encounter = t.Encounter.String()
		}
		if t.Range < es.MinRange {
			es.MinRange = t.Range
			es.MinRangeTime = s.Time
		}
		es.MaxRisk = math.Max(es.MaxRisk, t.Risk)
		if t.Breached() {
			es.BreachTicks++
		}
	}
}

// Get returns the stats for a target, or nil if it was never seen.
func (et *EncounterTracker) Get(id int) *EncounterStats {
	return et.stats[id]
}

// All returns the stats sorted by target id.
func (et *EncounterTracker) All() []EncounterStats {
	out := make([]EncounterStats, 0, len(et.stats))
	for _, es := range et.stats {
		out = append(out, *es)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out
}

// Count returns the number of tracked targets.
func (et *EncounterTracker) Count() int {
	return len(et.stats)
}
