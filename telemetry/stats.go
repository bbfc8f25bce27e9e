package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var inf = math.Inf(1)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Ticks           int     `csv:"ticks"`

	// Ticks by the highest pair state
	ClearTicks      int `csv:"clear"`
	MonitoringTicks int `csv:"monitoring"`
	GiveWayTicks    int `csv:"give_way"`
	StandOnTicks    int `csv:"stand_on"`
	EmergencyTicks  int `csv:"emergency"`

	// Decision annotations
	ManeuverTicks   int `csv:"maneuver"`
	SaturationTicks int `csv:"saturation"`
	FallbackTicks   int `csv:"fallback"`
	AdvisoryTicks   int `csv:"advisory"`
	Consults        int `csv:"consults"`

	// Risk distribution over the window (per-tick maximum)
	MaxRisk float64 `csv:"max_risk"`
	RiskP50 float64 `csv:"risk_p50"`
	RiskP90 float64 `csv:"risk_p90"`

	MinRange float64 `csv:"min_range"` // 0 when no target was present
}

// ManeuverFraction is the share of window ticks with a turn bias applied.
func (s WindowStats) ManeuverFraction() float64 {
	if s.Ticks == 0 {
		return 0
	}
	return float64(s.ManeuverTicks) / float64(s.Ticks)
}

// Quantiles returns the empirical p50 and p90 of values. Returns zeros for
// an empty slice. values is not modified.
func Quantiles(values []float64) (p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("clear", s.ClearTicks),
		slog.Int("monitoring", s.MonitoringTicks),
		slog.Int("give_way", s.GiveWayTicks),
		slog.Int("stand_on", s.StandOnTicks),
		slog.Int("emergency", s.EmergencyTicks),
		slog.Int("maneuver", s.ManeuverTicks),
		slog.Int("saturation", s.SaturationTicks),
		slog.Int("fallback", s.FallbackTicks),
		slog.Int("advisory", s.AdvisoryTicks),
		slog.Int("consults", s.Consults),
		slog.Float64("max_risk", s.MaxRisk),
		slog.Float64("risk_p50", s.RiskP50),
		slog.Float64("risk_p90", s.RiskP90),
		slog.Float64("min_range", s.MinRange),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"monitoring", s.MonitoringTicks,
		"give_way", s.GiveWayTicks,
		"stand_on", s.StandOnTicks,
		"emergency", s.EmergencyTicks,
		"maneuver", s.ManeuverTicks,
		"saturation", s.SaturationTicks,
		"fallback", s.FallbackTicks,
		"advisory", s.AdvisoryTicks,
		"max_risk", s.MaxRisk,
		"risk_p90", s.RiskP90,
		"min_range", s.MinRange,
	)
}
