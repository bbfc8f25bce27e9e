package telemetry

import (
	"testing"

	"github.com/pthm-cable/colav/avoidance"
)

func TestEncounterTracker(t *testing.T) {
	et := NewEncounterTracker()

	et.Record(sampleAt(1, 3000, 0.1, avoidance.Clear))
	et.Record(sampleAt(2, 2500, 0.4, avoidance.Monitoring))
	et.Record(sampleAt(3, 2000, 0.7, avoidance.GiveWay))
	et.Record(sampleAt(4, 75, 0.9, avoidance.Emergency))
	et.Record(sampleAt(5, 400, 0.2, avoidance.Clear))

	if et.Count() != 1 {
		t.Fatalf("count = %d, want 1", et.Count())
	}
	es := et.Get(1)
	if es == nil {
		t.Fatal("target 1 not tracked")
	}
	if es.FirstMonitorTick != 2 || es.FirstActionTick != 3 {
		t.Errorf("first monitor/action = %d/%d, want 2/3", es.FirstMonitorTick, es.FirstActionTick)
	}
	if es.MinRange != 75 || es.MaxRisk != 0.9 {
		t.Errorf("min range %v max risk %v", es.MinRange, es.MaxRisk)
	}
	if es.ClearTicks != 2 || es.GiveWayTicks != 1 || es.EmergencyTicks != 1 {
		t.Errorf("state ticks = %+v", es)
	}
	if !es.Breached() || es.BreachTicks != 1 {
		t.Errorf("breach ticks = %d", es.BreachTicks)
	}
	if es.Encounter != avoidance.HeadOn.String() {
		t.Errorf("encounter = %q", es.Encounter)
	}
	if et.Get(2) != nil {
		t.Error("unknown target should be nil")
	}
}

func TestEncounterTracker_AllSorted(t *testing.T) {
	et := NewEncounterTracker()
	s := sampleAt(1, 1000, 0.1, avoidance.Clear)
	s.Targets = append(s.Targets, s.Targets[0], s.Targets[0])
	s.Targets[0].ID, s.Targets[1].ID, s.Targets[2].ID = 3, 1, 2
	et.Record(s)

	all := et.All()
	for i, es := range all {
		if es.TargetID != i+1 {
			t.Errorf("all[%d].TargetID = %d", i, es.TargetID)
		}
		if es.FirstMonitorTick != -1 || es.FirstActionTick != -1 {
			t.Errorf("target %d never monitored but first ticks = %d/%d", es.TargetID, es.FirstMonitorTick, es.FirstActionTick)
		}
	}
}
