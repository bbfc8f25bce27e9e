package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation step.
const (
	PhaseTargets   = "targets"
	PhaseRisk      = "risk"
	PhaseAvoidance = "avoidance"
	PhaseControl   = "control"
	PhaseIntegrate = "integrate"
	PhaseGuidance  = "guidance"
	PhaseRecord    = "record"
)

var phaseNames = [...]string{
	PhaseTargets, PhaseRisk, PhaseAvoidance, PhaseControl,
	PhaseIntegrate, PhaseGuidance, PhaseRecord,
}

// Phases lists the tick phases in execution order.
var Phases = phaseNames[:]

// phaseIndex maps a phase name to its slot in a sample.
var phaseIndex = func() map[string]int {
	m := make(map[string]int, len(Phases))
	for i, p := range Phases {
		m[p] = i
	}
	return m
}()

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [len(phaseNames)]time.Duration
}

// PerfCollector tracks tick timing over a rolling window of ticks. Phases
// not listed in Phases are ignored.
type PerfCollector struct {
	samples []PerfSample // ring buffer
	next    int
	count   int
	step    time.Duration // simulated time per tick; 0 disables real-time stats

	cur        PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // -1 = none

	// Frame timing (viewer)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]PerfSample, windowSize), phase: -1}
}

// SetStep sets the simulated duration of one tick so Stats can report how
// fast the run goes relative to real time.
func (p *PerfCollector) SetStep(dt float64) {
	p.step = time.Duration(dt * float64(time.Second))
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = PerfSample{}
	p.phase = -1
}

// StartPhase closes the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	if i, ok := phaseIndex[phase]; ok {
		p.phase = i
	} else {
		p.phase = -1
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur.Phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = -1
	p.cur.TickDuration = now.Sub(p.tickStart)

	p.samples[p.next] = p.cur
	p.next = (p.next + 1) % len(p.samples)
	p.count = min(p.count+1, len(p.samples))
}

// RecordFrame records frame timing for the viewer.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Phase breakdown: average duration and share of the average tick
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// RealTimeFactor is simulated seconds per wall-clock second; SlowTicks
	// counts ticks in the window that took longer than their simulated step.
	// Both are zero until SetStep is called.
	RealTimeFactor float64
	SlowTicks      int

	// Frame timing (viewer)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return stats
	}

	var total time.Duration
	var phaseSum [len(phaseNames)]time.Duration
	for i, s := range p.samples[:p.count] {
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		stats.MaxTickDuration = max(stats.MaxTickDuration, s.TickDuration)
		if p.step > 0 && s.TickDuration > p.step {
			stats.SlowTicks++
		}
		for j, d := range s.Phases {
			phaseSum[j] += d
		}
	}

	n := time.Duration(p.count)
	stats.AvgTickDuration = total / n
	for j, sum := range phaseSum {
		if sum == 0 {
			continue
		}
		avg := sum / n
		stats.PhaseAvg[phaseNames[j]] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phaseNames[j]] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}

	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
		if p.step > 0 {
			stats.RealTimeFactor = float64(p.step) / float64(stats.AvgTickDuration)
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.RealTimeFactor > 0 {
		attrs = append(attrs, "realtime_x", int(s.RealTimeFactor), "slow_ticks", s.SlowTicks)
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.RealTimeFactor > 0 {
		attrs = append(attrs, slog.Float64("realtime_x", s.RealTimeFactor), slog.Int("slow_ticks", s.SlowTicks))
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	RealTimeX    float64 `csv:"realtime_x"`
	SlowTicks    int     `csv:"slow_ticks"`
	TargetsPct   float64 `csv:"targets_pct"`
	RiskPct      float64 `csv:"risk_pct"`
	AvoidancePct float64 `csv:"avoidance_pct"`
	ControlPct   float64 `csv:"control_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	GuidancePct  float64 `csv:"guidance_pct"`
	RecordPct    float64 `csv:"record_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		RealTimeX:    s.RealTimeFactor,
		SlowTicks:    s.SlowTicks,
		TargetsPct:   s.PhasePct[PhaseTargets],
		RiskPct:      s.PhasePct[PhaseRisk],
		AvoidancePct: s.PhasePct[PhaseAvoidance],
		ControlPct:   s.PhasePct[PhaseControl],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		GuidancePct:  s.PhasePct[PhaseGuidance],
		RecordPct:    s.PhasePct[PhaseRecord],
	}
}
