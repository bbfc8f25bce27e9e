package store

import "time"

// Run is one archived simulation run.
type Run struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index:idx_run_created"`
	Scenario  string    `gorm:"size:64;index:idx_run_scenario"`
	Label     string    `gorm:"size:32"`

	Ticks    int
	Duration float64
	DT       float64

	TurnTicks      int
	PortTicks      int
	StarboardTicks int

	MaxRisk          float64
	MeanPositiveRisk float64

	MinSeparation       *float64 // nil when no target was ever observed
	MinSeparationTarget int
	MinSeparationTime   float64
	BreachTicks         int

	FinalDistance float64
	PathLength    float64

	FallbackTicks   int
	AdvisoryTicks   int
	SaturationTicks int

	Arrived bool
	Aborted string `gorm:"size:500"`

	OriginLat float64
	OriginLon float64
	Track     string // own-ship track as WKT, lon/lat

	Config string // effective configuration, YAML

	TickRows   []TickRow   `gorm:"constraint:OnDelete:CASCADE;foreignKey:RunID"`
	TargetRows []TargetRow `gorm:"constraint:OnDelete:CASCADE;foreignKey:RunID"`
}

// TickRow is the own ship at one tick.
type TickRow struct {
	ID    uint `gorm:"primarykey"`
	RunID uint `gorm:"index:idx_tick_run"`
	Tick  int
	Time  float64

	X, Y     float64
	Lon, Lat float64

	Heading   float64 // degrees
	Speed     float64
	Desired   float64 // degrees
	Commanded float64 // degrees
	Rudder    float64 // degrees

	Bias      string `gorm:"size:16"`
	Source    string `gorm:"size:16"`
	MaxState  string `gorm:"size:16"`
	MaxRisk   float64
	TriggerID int
	Flags     uint8
}

// TargetRow is one target at one tick.
type TargetRow struct {
	ID       uint `gorm:"primarykey"`
	RunID    uint `gorm:"index:idx_target_run"`
	Tick     int
	TargetID int `gorm:"index:idx_target_id"`

	X, Y    float64
	Heading float64 // degrees
	Speed   float64

	Range      float64
	DCPA       float64
	TCPA       *float64 // nil when the target is not closing
	RelBearing float64  // degrees
	Risk       float64

	State     string `gorm:"size:16"`
	Encounter string `gorm:"size:24"`
}

// Models lists the tables to migrate.
var Models = []any{&Run{}, &TickRow{}, &TargetRow{}}
