package telemetry

import (
	"math"
	"strconv"

	"github.com/pthm-cable/colav/nav"
)

// Seconds is a time value that may be +Inf; it is written as "inf" in CSV.
type Seconds float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (s Seconds) MarshalCSV() (string, error) {
	if math.IsInf(float64(s), 1) {
		return "inf", nil
	}
	return strconv.FormatFloat(float64(s), 'f', 3, 64), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (s *Seconds) UnmarshalCSV(v string) error {
	if v == "inf" {
		*s = Seconds(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*s = Seconds(f)
	return nil
}

// OwnShipRow is one line of ownship.csv. Angles are in degrees.
type OwnShipRow struct {
	Tick      int     `csv:"tick" json:"tick"`
	Time      float64 `csv:"time" json:"time"`
	X         float64 `csv:"x" json:"x"`
	Y         float64 `csv:"y" json:"y"`
	Heading   float64 `csv:"heading" json:"heading"`
	YawRate   float64 `csv:"yaw_rate" json:"yaw_rate"`
	Sideslip  float64 `csv:"sideslip" json:"sideslip"`
	Speed     float64 `csv:"speed" json:"speed"`
	Desired   float64 `csv:"desired" json:"desired"`
	Commanded float64 `csv:"commanded" json:"commanded"`
	Rudder    float64 `csv:"rudder" json:"rudder"`
	SpeedRef  float64 `csv:"speed_ref" json:"speed_ref"`
	Bias      string  `csv:"bias" json:"bias"`
	Source    string  `csv:"source" json:"source"`
	MaxState  string  `csv:"max_state" json:"max_state"`
	MaxRisk   float64 `csv:"max_risk" json:"max_risk"`
	Trigger   int     `csv:"trigger" json:"trigger"`
	Saturated bool    `csv:"saturated" json:"saturated"`
	Consulted bool    `csv:"consulted" json:"consulted"`
	Fallback  bool    `csv:"fallback" json:"fallback"`
}

// EncounterRow is one line of encounters.csv: one target at one tick.
type EncounterRow struct {
	Tick       int     `csv:"tick" json:"tick"`
	Time       float64 `csv:"time" json:"time"`
	Target     int     `csv:"target" json:"target"`
	X          float64 `csv:"x" json:"x"`
	Y          float64 `csv:"y" json:"y"`
	Heading    float64 `csv:"heading" json:"heading"`
	Speed      float64 `csv:"speed" json:"speed"`
	Range      float64 `csv:"range" json:"range"`
	DCPA       float64 `csv:"dcpa" json:"dcpa"`
	TCPA       Seconds `csv:"tcpa" json:"-"`
	RelBearing float64 `csv:"rel_bearing" json:"rel_bearing"`
	Risk       float64 `csv:"risk" json:"risk"`
	Safety     float64 `csv:"safety_distance" json:"safety_distance"`
	State      string  `csv:"state" json:"state"`
	Encounter  string  `csv:"encounter" json:"encounter"`
}

// OwnShipRowFrom flattens the own-ship part of a sample.
func OwnShipRowFrom(s Sample) OwnShipRow {
	return OwnShipRow{
		Tick:      s.Tick,
		Time:      s.Time,
		X:         s.X,
		Y:         s.Y,
		Heading:   nav.Deg(s.Heading),
		YawRate:   nav.Deg(s.YawRate),
		Sideslip:  nav.Deg(s.Sideslip),
		Speed:     s.Speed,
		Desired:   nav.Deg(s.Desired),
		Commanded: nav.Deg(s.Commanded),
		Rudder:    nav.Deg(s.Rudder),
		SpeedRef:  s.SpeedRef,
		Bias:      s.Bias.String(),
		Source:    s.Source.String(),
		MaxState:  s.MaxState.String(),
		MaxRisk:   s.MaxRisk,
		Trigger:   s.TriggerID,
		Saturated: s.Saturated,
		Consulted: s.Consulted,
		Fallback:  s.Fallback,
	}
}

// EncounterRowsFrom flattens the targets of a sample.
func EncounterRowsFrom(s Sample) []EncounterRow {
	rows := make([]EncounterRow, len(s.Targets))
	for i, t := range s.Targets {
		rows[i] = EncounterRow{
			Tick:       s.Tick,
			Time:       s.Time,
			Target:     t.ID,
			X:          t.X,
			Y:          t.Y,
			Heading:    nav.Deg(t.Heading),
			Speed:      t.Speed,
			Range:      t.Range,
			DCPA:       t.DCPA,
			TCPA:       Seconds(t.TCPA),
			RelBearing: nav.Deg(t.RelBearing),
			Risk:       t.Risk,
			Safety:     t.SafetyDistance,
			State:      t.State.String(),
			Encounter:  t.Encounter.String(),
		}
	}
	return rows
}
