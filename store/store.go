// Package store archives simulation runs in SQLite through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pthm-cable/colav/geo"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/sim"
)

// batchSize is the number of rows per INSERT.
const batchSize = 1000

// ErrNoRun is returned when a run id does not exist.
var ErrNoRun = errors.New("store: run not found")

// Store is a run archive.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive at path and migrates the schema.
// An empty path opens a private in-memory database.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("run store opened", "path", dsn)
	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunInput is everything SaveRun persists.
type RunInput struct {
	Summary sim.Summary
	History *sim.History
	DT      float64
	Origin  geo.Origin
	Config  string
}

// SaveRun stores a run with its tick rows, target rows and track in one
// transaction and returns the run id.
func (s *Store) SaveRun(ctx context.Context, in RunInput) (uint, error) {
	run, ticks, targets := rows(in)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TickRows", "TargetRows").Create(&run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for i := range ticks {
			ticks[i].RunID = run.ID
		}
		for i := range targets {
			targets[i].RunID = run.ID
		}
		if len(ticks) > 0 {
			if err := tx.CreateInBatches(ticks, batchSize).Error; err != nil {
				return fmt.Errorf("insert ticks: %w", err)
			}
		}
		if len(targets) > 0 {
			if err := tx.CreateInBatches(targets, batchSize).Error; err != nil {
				return fmt.Errorf("insert targets: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("run archived",
		"run_id", run.ID,
		"scenario", run.Scenario,
		"label", run.Label,
		"ticks", len(ticks),
		"target_rows", len(targets),
	)
	return run.ID, nil
}

func rows(in RunInput) (Run, []TickRow, []TargetRow) {
	sum := in.Summary
	run := Run{
		Scenario:            sum.Scenario,
		Label:               sum.Label,
		Ticks:               sum.Ticks,
		Duration:            sum.Duration,
		DT:                  in.DT,
		TurnTicks:           sum.TurnTicks,
		PortTicks:           sum.PortTicks,
		StarboardTicks:      sum.StarboardTicks,
		MaxRisk:             sum.MaxRisk,
		MeanPositiveRisk:    sum.MeanPositiveRisk,
		MinSeparation:       finite(sum.MinSeparation),
		MinSeparationTarget: sum.MinSeparationTarget,
		MinSeparationTime:   sum.MinSeparationTime,
		BreachTicks:         sum.BreachTicks,
		FinalDistance:       sum.FinalDistance,
		PathLength:          sum.PathLength,
		FallbackTicks:       sum.FallbackTicks,
		AdvisoryTicks:       sum.AdvisoryTicks,
		SaturationTicks:     sum.SaturationTicks,
		Arrived:             sum.Arrived,
		Aborted:             sum.Aborted,
		OriginLat:           in.Origin.Lat,
		OriginLon:           in.Origin.Lon,
		Config:              in.Config,
	}
	if in.History == nil {
		return run, nil, nil
	}

	records := in.History.Records()
	ticks := make([]TickRow, 0, len(records))
	var targets []TargetRow
	path := make([]nav.Vec2, 0, len(records))

	for i := range records {
		r := &records[i]
		pos := r.Own.Position()
		path = append(path, pos)
		lon, lat := in.Origin.ToWGS84(pos)
		ticks = append(ticks, TickRow{
			Tick:      r.Tick,
			Time:      r.Time,
			X:         pos.X,
			Y:         pos.Y,
			Lon:       lon,
			Lat:       lat,
			Heading:   nav.Deg(r.Own.Psi),
			Speed:     r.Own.U,
			Desired:   nav.Deg(r.Desired),
			Commanded: nav.Deg(r.Commanded),
			Rudder:    nav.Deg(r.Command.Rudder),
			Bias:      r.Bias.String(),
			Source:    r.Source.String(),
			MaxState:  r.MaxState.String(),
			MaxRisk:   r.MaxRisk,
			TriggerID: r.TriggerID,
			Flags:     uint8(r.Flags),
		})
		for _, t := range r.Targets {
			targets = append(targets, TargetRow{
				Tick:       r.Tick,
				TargetID:   t.ID,
				X:          t.Pos.X,
				Y:          t.Pos.Y,
				Heading:    nav.Deg(t.Heading),
				Speed:      t.Speed,
				Range:      t.Metrics.Range,
				DCPA:       t.Metrics.DCPA,
				TCPA:       finite(t.Metrics.TCPA),
				RelBearing: nav.Deg(t.Metrics.RelBearing),
				Risk:       t.Risk,
				State:      t.State.String(),
				Encounter:  t.Encounter.String(),
			})
		}
	}
	run.Track = in.Origin.TrackWKT(path)
	return run, ticks, targets
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Run loads a run without its rows.
func (s *Store) Run(ctx context.Context, id uint) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Runs lists the runs of a scenario, newest first. An empty scenario lists all.
func (s *Store) Runs(ctx context.Context, scenario string) ([]Run, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	if scenario != "" {
		q = q.Where("scenario = ?", scenario)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Ticks returns the own-ship rows of a run in tick order.
func (s *Store) Ticks(ctx context.Context, runID uint) ([]TickRow, error) {
	var rows []TickRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("tick").Find(&rows).Error
	return rows, err
}

// Targets returns the target rows of a run, ordered by tick then target.
func (s *Store) Targets(ctx context.Context, runID uint) ([]TargetRow, error) {
	var rows []TargetRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("tick, target_id").Find(&rows).Error
	return rows, err
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&TargetRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&TickRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Run{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRun
		}
		return nil
	})
}
