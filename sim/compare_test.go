package sim

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/pthm-cable/colav/advisory"
	"github.com/pthm-cable/colav/scenario"
)

func TestCompare(t *testing.T) {
	base := Summary{
		TurnTicks:     2,
		MaxRisk:       0.5,
		FinalDistance: 1000,
		Directions:    []int8{0, 1, 1, 0},
	}

	tests := []struct {
		name      string
		adv       Summary
		agreement float64
		pathDiff  float64
		behaviour string
		verdict   string
	}{
		{
			name:      "identical",
			adv:       base,
			agreement: 1, pathDiff: 0, behaviour: "similar", verdict: "similar",
		},
		{
			name:      "more turns and riskier",
			adv:       Summary{TurnTicks: 4, MaxRisk: 0.9, FinalDistance: 900, Directions: []int8{1, 1, 1, 1}},
			agreement: 0.5, pathDiff: -10, behaviour: "more conservative", verdict: "more risky",
		},
		{
			name:      "fewer turns and safer",
			adv:       Summary{TurnTicks: 1, MaxRisk: 0.3, FinalDistance: 1100, Directions: []int8{0, -1}},
			agreement: 0.5, pathDiff: 10, behaviour: "more aggressive", verdict: "better",
		},
		{
			name:      "slightly riskier",
			adv:       Summary{TurnTicks: 2, MaxRisk: 0.55, FinalDistance: 1000, Directions: []int8{0, 1, 1, 0}},
			agreement: 1, pathDiff: 0, behaviour: "similar", verdict: "similar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compare(base, tt.adv)
			if math.Abs(c.TurnAgreement-tt.agreement) > 1e-9 {
				t.Errorf("agreement = %v, want %v", c.TurnAgreement, tt.agreement)
			}
			if math.Abs(c.PathEfficiencyDiff-tt.pathDiff) > 1e-9 {
				t.Errorf("path diff = %v, want %v", c.PathEfficiencyDiff, tt.pathDiff)
			}
			if c.Behaviour != tt.behaviour {
				t.Errorf("behaviour = %q, want %q", c.Behaviour, tt.behaviour)
			}
			if c.RiskVerdict != tt.verdict {
				t.Errorf("verdict = %q, want %q", c.RiskVerdict, tt.verdict)
			}
		})
	}
}

func TestSummarize_HeadOn(t *testing.T) {
	cfg := testConfig(t, 300, 0.1)
	s, err := New(cfg, scenario.HeadOn(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	sum := s.Summary("baseline")
	if sum.Ticks != h.Len() || len(sum.Directions) != h.Len() {
		t.Errorf("ticks = %d, directions = %d, history = %d", sum.Ticks, len(sum.Directions), h.Len())
	}
	if sum.TurnTicks == 0 || sum.PortTicks != 0 || sum.StarboardTicks != sum.TurnTicks {
		t.Errorf("turns = %d (port %d, starboard %d)", sum.TurnTicks, sum.PortTicks, sum.StarboardTicks)
	}
	if sum.MaxRisk <= 0 || sum.MaxRisk > 1 {
		t.Errorf("max risk = %v", sum.MaxRisk)
	}
	if sum.MeanPositiveRisk <= 0 || sum.MeanPositiveRisk > sum.MaxRisk {
		t.Errorf("mean positive risk = %v", sum.MeanPositiveRisk)
	}
	if sum.MinSeparationTarget != 1 || math.IsInf(sum.MinSeparation, 1) {
		t.Errorf("min separation %v to %d", sum.MinSeparation, sum.MinSeparationTarget)
	}
	if sum.PathLength < sum.FinalDistance {
		t.Errorf("path %v shorter than displacement %v", sum.PathLength, sum.FinalDistance)
	}
	if sum.Aborted != "" || sum.FallbackTicks != 0 || sum.AdvisoryTicks != 0 {
		t.Errorf("unexpected annotations: %+v", sum)
	}
}

func TestRunComparison_IsolatedRuns(t *testing.T) {
	cfg := testConfig(t, 30, 0.5)
	cfg.Advisory.IntervalTicks = 5
	port := advisory.Func(func(context.Context, advisory.Request) (string, error) {
		return "turn-port", nil
	})

	c, err := RunComparison(context.Background(), cfg, scenario.HeadOn(), Options{}, Options{Advisor: port})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Advisory.Enabled {
		t.Error("RunComparison changed the caller's config")
	}
	if c.Baseline.AdvisoryTicks != 0 {
		t.Errorf("baseline used the advisor on %d ticks", c.Baseline.AdvisoryTicks)
	}
	if c.Advisory.AdvisoryTicks == 0 || c.Advisory.PortTicks == 0 {
		t.Errorf("advisory run: advisory ticks %d, port ticks %d", c.Advisory.AdvisoryTicks, c.Advisory.PortTicks)
	}
	if c.Baseline.PortTicks != 0 {
		t.Errorf("baseline turned to port on %d ticks", c.Baseline.PortTicks)
	}
	if c.TurnAgreement >= 1 {
		t.Errorf("agreement = %v, expected disagreement", c.TurnAgreement)
	}
	if c.BaselineHistory.Len() != c.AdvisoryHistory.Len() {
		t.Errorf("history lengths %d vs %d", c.BaselineHistory.Len(), c.AdvisoryHistory.Len())
	}
}

func TestSummary_MarshalJSONInfiniteSeparation(t *testing.T) {
	data, err := json.Marshal(Summary{Scenario: "open-water", MinSeparation: math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if v, ok := got["min_separation"]; !ok || v != nil {
		t.Errorf("min_separation = %v, want null", v)
	}
	if got["scenario"] != "open-water" {
		t.Errorf("scenario = %v", got["scenario"])
	}
}
