package telemetry

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptyRun is returned when a run directory has no own-ship rows.
var ErrEmptyRun = errors.New("run has no own-ship rows")

// Replay is a recorded run loaded back from its CSV outputs, indexed by
// frame (position in ownship.csv).
type Replay struct {
	Own       []OwnShipRow
	Bookmarks []Bookmark

	targets [][]EncounterRow // per frame, ordered by target id
	tracks  map[int][]EncounterRow
}

// LoadReplay reads ownship.csv, encounters.csv and bookmarks.csv from dir.
func LoadReplay(dir string) (*Replay, error) {
	own, err := ReadOwnShip(dir)
	if err != nil {
		return nil, err
	}
	enc, err := ReadEncounters(dir)
	if err != nil {
		return nil, err
	}
	marks, err := ReadBookmarks(dir)
	if err != nil {
		return nil, err
	}
	return NewReplay(own, enc, marks)
}

// NewReplay indexes rows already in memory.
func NewReplay(own []OwnShipRow, enc []EncounterRow, marks []Bookmark) (*Replay, error) {
	if len(own) == 0 {
		return nil, ErrEmptyRun
	}
	frame := make(map[int]int, len(own))
	for i, r := range own {
		frame[r.Tick] = i
	}

	rp := &Replay{
		Own:       own,
		Bookmarks: marks,
		targets:   make([][]EncounterRow, len(own)),
		tracks:    make(map[int][]EncounterRow),
	}
	for _, e := range enc {
		i, ok := frame[e.Tick]
		if !ok {
			return nil, fmt.Errorf("encounter row for tick %d has no own-ship row", e.Tick)
		}
		rp.targets[i] = append(rp.targets[i], e)
		rp.tracks[e.Target] = append(rp.tracks[e.Target], e)
	}
	for _, ts := range rp.targets {
		sort.Slice(ts, func(a, b int) bool { return ts[a].Target < ts[b].Target })
	}
	for _, tr := range rp.tracks {
		sort.Slice(tr, func(a, b int) bool { return tr[a].Tick < tr[b].Tick })
	}
	sort.SliceStable(rp.Bookmarks, func(a, b int) bool { return rp.Bookmarks[a].Tick < rp.Bookmarks[b].Tick })
	return rp, nil
}

// Frames returns the number of recorded ticks.
func (rp *Replay) Frames() int { return len(rp.Own) }

// Targets returns the target rows of frame i.
func (rp *Replay) Targets(i int) []EncounterRow { return rp.targets[i] }

// TargetIDs lists every target seen in the run.
func (rp *Replay) TargetIDs() []int {
	ids := make([]int, 0, len(rp.tracks))
	for id := range rp.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Track returns the rows of target id up to and including tick.
func (rp *Replay) Track(id, tick int) []EncounterRow {
	tr := rp.tracks[id]
	n := sort.Search(len(tr), func(i int) bool { return tr[i].Tick > tick })
	return tr[:n]
}

// FrameOf returns the frame at or before tick.
func (rp *Replay) FrameOf(tick int) int {
	n := sort.Search(len(rp.Own), func(i int) bool { return rp.Own[i].Tick > tick })
	return max(n-1, 0)
}

// Bounds returns the north/east extent of every own-ship and target
// position in the run.
func (rp *Replay) Bounds() (minN, minE, maxN, maxE float64) {
	minN, minE = math.Inf(1), math.Inf(1)
	maxN, maxE = math.Inf(-1), math.Inf(-1)
	add := func(n, e float64) {
		minN, maxN = math.Min(minN, n), math.Max(maxN, n)
		minE, maxE = math.Min(minE, e), math.Max(maxE, e)
	}
	for _, r := range rp.Own {
		add(r.X, r.Y)
	}
	for _, tr := range rp.tracks {
		for _, e := range tr {
			add(e.X, e.Y)
		}
	}
	return minN, minE, maxN, maxE
}
