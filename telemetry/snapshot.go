package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the state of one tick, written when a run finishes or aborts
// so the last valid state can be inspected without replaying the CSVs.
type Snapshot struct {
	Version  int            `json:"version"`
	Scenario string         `json:"scenario"`
	Tick     int            `json:"tick"`
	Own      OwnShipRow     `json:"own"`
	Targets  []EncounterRow `json:"targets"`
	Aborted  string         `json:"aborted,omitempty"`
	Bookmark *Bookmark      `json:"bookmark,omitempty"`
}

// NewSnapshot captures a sample.
func NewSnapshot(scenario string, s Sample) *Snapshot {
	return &Snapshot{
		Version:  SnapshotVersion,
		Scenario: scenario,
		Tick:     s.Tick,
		Own:      OwnShipRowFrom(s),
		Targets:  EncounterRowsFrom(s),
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}
