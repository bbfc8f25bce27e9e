package sim

import (
	"log/slog"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/telemetry"
)

// SampleOf flattens a record for the telemetry feed.
func SampleOf(r *Record) telemetry.Sample {
	s := telemetry.Sample{
		Tick:      r.Tick,
		Time:      r.Time,
		X:         r.Own.X,
		Y:         r.Own.Y,
		Heading:   r.Own.Psi,
		YawRate:   r.Own.R,
		Sideslip:  r.Own.Beta,
		Speed:     r.Own.U,
		Desired:   r.Desired,
		Commanded: r.Commanded,
		Rudder:    r.Command.Rudder,
		SpeedRef:  r.Command.Speed,
		Bias:      r.Bias,
		Source:    r.Source,
		MaxState:  r.MaxState,
		MaxRisk:   r.MaxRisk,
		TriggerID: r.TriggerID,
		Saturated: r.Flags.Has(ActuatorSaturation),
		Consulted: r.Consulted,
		Fallback:  r.Fallback(),
		Targets:   make([]telemetry.TargetSample, len(r.Targets)),
	}
	for i, t := range r.Targets {
		s.Targets[i] = telemetry.TargetSample{
			ID:             t.ID,
			X:              t.Pos.X,
			Y:              t.Pos.Y,
			Heading:        t.Heading,
			Speed:          t.Speed,
			Range:          t.Metrics.Range,
			DCPA:           t.Metrics.DCPA,
			TCPA:           t.Metrics.TCPA,
			RelBearing:     t.Metrics.RelBearing,
			Risk:           t.Risk,
			SafetyDistance: t.SafetyDistance,
			State:          t.State,
			Encounter:      t.Encounter,
		}
	}
	return s
}

// Monitor is the Observer that feeds the telemetry package: window stats,
// bookmarks, per-target summaries and the CSV outputs.
type Monitor struct {
	scenario   string
	out        *telemetry.OutputManager
	logger     *slog.Logger
	stats      *telemetry.Collector
	bookmarks  *telemetry.BookmarkDetector
	encounters *telemetry.EncounterTracker
	perf       *telemetry.PerfCollector

	last    telemetry.Sample
	samples int
	windows []telemetry.WindowStats
	marks   []telemetry.Bookmark
}

// NewMonitor creates a monitor. out may be nil to keep everything in memory.
func NewMonitor(cfg *config.Config, scenarioID string, out *telemetry.OutputManager, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		scenario:   scenarioID,
		out:        out,
		logger:     logger.With("scenario", scenarioID),
		stats:      telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Simulation.DTS),
		bookmarks:  telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		encounters: telemetry.NewEncounterTracker(),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}
}

// Perf returns the collector the run should time its ticks with.
func (m *Monitor) Perf() *telemetry.PerfCollector { return m.perf }

// Observe implements Observer.
func (m *Monitor) Observe(r *Record) error {
	s := SampleOf(r)
	m.last = s
	m.samples++

	if err := m.out.WriteSample(s); err != nil {
		return err
	}
	m.stats.Record(s)
	m.encounters.Record(s)

	for _, b := range m.bookmarks.Check(s) {
		b.LogBookmark(m.logger)
		m.marks = append(m.marks, b)
		if err := m.out.WriteBookmark(b); err != nil {
			return err
		}
	}

	if m.stats.ShouldFlush(r.Tick + 1) {
		return m.flush(r.Tick + 1)
	}
	return nil
}

func (m *Monitor) flush(tick int) error {
	ws := m.stats.Flush(tick)
	ws.LogStats(m.logger)
	m.windows = append(m.windows, ws)
	if err := m.out.WriteTelemetry(ws); err != nil {
		return err
	}
	return m.out.WritePerf(m.perf.Stats(), tick)
}

// Finish flushes the partial window, writes the per-target summary and a
// snapshot of the last tick. runErr is the error Run returned, if any.
func (m *Monitor) Finish(runErr error) error {
	if m.stats.Pending() {
		if err := m.flush(m.last.Tick + 1); err != nil {
			return err
		}
	}
	m.perf.Stats().LogStats(m.logger)
	if err := m.out.WriteEncounters(m.encounters.All()); err != nil {
		return err
	}
	if m.samples == 0 {
		return nil
	}
	snap := telemetry.NewSnapshot(m.scenario, m.last)
	if runErr != nil {
		snap.Aborted = runErr.Error()
	}
	_, err := m.out.WriteSnapshot(snap)
	return err
}

// Windows returns the flushed window stats.
func (m *Monitor) Windows() []telemetry.WindowStats { return m.windows }

// Bookmarks returns every bookmark raised so far.
func (m *Monitor) Bookmarks() []telemetry.Bookmark { return m.marks }

// Encounters returns the per-target summaries.
func (m *Monitor) Encounters() []telemetry.EncounterStats { return m.encounters.All() }
