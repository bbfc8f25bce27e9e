package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseRisk)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseAvoidance)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseRisk]; !ok {
		t.Error("expected risk phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseAvoidance]; !ok {
		t.Error("expected avoidance phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseRisk)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseTargets)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct[PhaseTargets]
	slowPct := stats.PhasePct[PhaseIntegrate]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond) // viewer frame at 60 fps
	// Second call measures duration
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}

	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}

	// With 16ms frames, expect ~60 FPS (allow range 40-80)
	if stats.FPS < 40 || stats.FPS > 80 {
		t.Errorf("expected FPS between 40-80 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		PhasePct:        map[string]float64{PhaseRisk: 40, PhaseIntegrate: 35},
		TicksPerSecond:  4000,
	}
	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 {
		t.Errorf("row = %+v", row)
	}
	if row.RiskPct != 40 || row.IntegratePct != 35 || row.ControlPct != 0 {
		t.Errorf("phase pct = %v/%v/%v", row.RiskPct, row.IntegratePct, row.ControlPct)
	}
}

func TestPerfCollector_UnknownPhaseIgnored(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase("render")
	time.Sleep(50 * time.Microsecond)
	pc.StartPhase(PhaseRisk)
	pc.EndTick()

	stats := pc.Stats()
	if _, ok := stats.PhaseAvg["render"]; ok {
		t.Error("unknown phase should not be tracked")
	}
	if stats.AvgTickDuration <= 0 {
		t.Error("tick still timed")
	}
}

func TestPerfCollector_RealTimeFactor(t *testing.T) {
	pc := NewPerfCollector(4)
	if s := pc.Stats(); s.RealTimeFactor != 0 {
		t.Errorf("factor before any tick = %v", s.RealTimeFactor)
	}

	// A 1 ms step is slower than real time once a tick sleeps 2 ms.
	pc.SetStep(0.001)
	for i := 0; i < 2; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}
	stats := pc.Stats()
	if stats.SlowTicks != 2 {
		t.Errorf("slow ticks = %d, want 2", stats.SlowTicks)
	}
	if stats.RealTimeFactor <= 0 || stats.RealTimeFactor >= 1 {
		t.Errorf("realtime factor = %v, want in (0, 1)", stats.RealTimeFactor)
	}
}
