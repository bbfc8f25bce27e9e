package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/colav/config"
)

// Output file names inside a run directory.
const (
	OwnShipFile    = "ownship.csv"
	EncountersFile = "encounters.csv"
	TelemetryFile  = "telemetry.csv"
	BookmarksFile  = "bookmarks.csv"
	PerfFile       = "perf.csv"
	TargetsFile    = "targets.csv"
	ConfigFile     = "config.yaml"
)

// csvSink appends records to one CSV file, writing the header once.
type csvSink struct {
	name          string
	file          *os.File
	headerWritten bool
}

func (s *csvSink) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir string

	ownship    *csvSink
	encounters *csvSink
	telemetry  *csvSink
	bookmarks  *csvSink
	perf       *csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, s := range []struct {
		dst  **csvSink
		name string
	}{
		{&om.ownship, OwnShipFile},
		{&om.encounters, EncountersFile},
		{&om.telemetry, TelemetryFile},
		{&om.bookmarks, BookmarksFile},
		{&om.perf, PerfFile},
	} {
		f, err := os.Create(filepath.Join(dir, s.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", s.name, err)
		}
		*s.dst = &csvSink{name: s.name, file: f}
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteSample writes the own-ship row and every encounter row of a tick.
func (om *OutputManager) WriteSample(s Sample) error {
	if om == nil {
		return nil
	}
	if err := om.ownship.write([]OwnShipRow{OwnShipRowFrom(s)}); err != nil {
		return err
	}
	if len(s.Targets) == 0 {
		return nil
	}
	return om.encounters.write(EncounterRowsFrom(s))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteEncounters writes the per-target run summary to targets.csv.
func (om *OutputManager) WriteEncounters(stats []EncounterStats) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, TargetsFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", TargetsFile, err)
	}
	defer f.Close()
	if err := gocsv.Marshal(stats, f); err != nil {
		return fmt.Errorf("writing %s: %w", TargetsFile, err)
	}
	return nil
}

// WriteSnapshot saves a snapshot into the output directory.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil || s == nil {
		return "", nil
	}
	return SaveSnapshot(s, om.dir)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.ownship, om.encounters, om.telemetry, om.bookmarks, om.perf} {
		if s == nil || s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadOwnShip loads ownship.csv from a run directory.
func ReadOwnShip(dir string) ([]OwnShipRow, error) {
	var rows []OwnShipRow
	if err := readCSV(filepath.Join(dir, OwnShipFile), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadEncounters loads encounters.csv from a run directory. A missing or
// empty file yields no rows.
func ReadEncounters(dir string) ([]EncounterRow, error) {
	var rows []EncounterRow
	path := filepath.Join(dir, EncountersFile)
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		return nil, nil
	}
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadBookmarks loads bookmarks.csv from a run directory. A missing or
// empty file yields no rows.
func ReadBookmarks(dir string) ([]Bookmark, error) {
	var rows []Bookmark
	path := filepath.Join(dir, BookmarksFile)
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		return nil, nil
	}
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}
