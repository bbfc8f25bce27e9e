package sim

import (
	"slices"

	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/risk"
)

// TargetRecord is one target vessel at one tick.
type TargetRecord struct {
	ID             int
	Name           string
	Pos            nav.Vec2
	Heading        float64
	Speed          float64
	SafetyDistance float64
	Metrics        risk.Metrics
	Risk           float64
	State          avoidance.State
	Encounter      avoidance.Encounter
}

// Record is the snapshot of one tick. Own is the state the decision was
// taken from; the integrated state appears in the next record.
type Record struct {
	Tick int
	Time float64

	Own       dynamics.VesselState
	Command   dynamics.Command
	Desired   float64
	Commanded float64
	Cursor    int

	Bias      avoidance.Bias
	RuleBias  avoidance.Bias
	Source    avoidance.Source
	MaxState  avoidance.State
	MaxRisk   float64
	TriggerID int

	Targets []TargetRecord

	Flags       Flags
	Consulted   bool
	AdvisoryRaw string
	AdvisoryErr error
}

// Fallback reports whether the advisor was out of the decision on this tick.
func (r *Record) Fallback() bool {
	return r.Flags.Has(AdvisoryUnavailable) || r.Flags.Has(AdvisoryInvalidResponse)
}

// Target returns the record of target id.
func (r *Record) Target(id int) (TargetRecord, bool) {
	for _, t := range r.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return TargetRecord{}, false
}

func (r Record) clone() Record {
	r.Targets = slices.Clone(r.Targets)
	return r
}

// History is the append-only record sequence of a run. Accessors return
// copies, so callers cannot alter recorded ticks.
type History struct {
	records []Record
}

// Len returns the number of recorded ticks.
func (h *History) Len() int { return len(h.records) }

// At returns the record at index i.
func (h *History) At(i int) Record { return h.records[i].clone() }

// Last returns the most recent record.
func (h *History) Last() (Record, bool) {
	if len(h.records) == 0 {
		return Record{}, false
	}
	return h.At(len(h.records) - 1), true
}

// Records returns a copy of every record.
func (h *History) Records() []Record {
	out := make([]Record, len(h.records))
	for i := range h.records {
		out[i] = h.records[i].clone()
	}
	return out
}

func (h *History) append(r Record) { h.records = append(h.records, r) }
