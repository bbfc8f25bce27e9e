package telemetry

import (
	"errors"
	"testing"
)

func replayFixture() ([]OwnShipRow, []EncounterRow, []Bookmark) {
	own := []OwnShipRow{{Tick: 0, X: 0}, {Tick: 1, X: 10}, {Tick: 2, X: 20, Y: -5}}
	enc := []EncounterRow{
		{Tick: 0, Target: 2, X: 500, Y: 100},
		{Tick: 0, Target: 1, X: 400},
		{Tick: 1, Target: 1, X: 390},
		{Tick: 2, Target: 2, X: 480, Y: 120},
		{Tick: 2, Target: 1, X: 380},
	}
	marks := []Bookmark{{Tick: 2, Type: BookmarkEmergency}, {Tick: 0, Type: BookmarkAvoidanceEngaged}}
	return own, enc, marks
}

func TestNewReplay_Indexes(t *testing.T) {
	rp, err := NewReplay(replayFixture())
	if err != nil {
		t.Fatal(err)
	}
	if rp.Frames() != 3 {
		t.Errorf("frames = %d", rp.Frames())
	}
	if ts := rp.Targets(0); len(ts) != 2 || ts[0].Target != 1 || ts[1].Target != 2 {
		t.Errorf("frame 0 targets = %+v", ts)
	}
	if ids := rp.TargetIDs(); len(ids) != 2 || ids[0] != 1 {
		t.Errorf("ids = %v", ids)
	}
	if tr := rp.Track(1, 1); len(tr) != 2 || tr[1].X != 390 {
		t.Errorf("track to tick 1 = %+v", tr)
	}
	if tr := rp.Track(2, 1); len(tr) != 1 {
		t.Errorf("target 2 track to tick 1 = %+v", tr)
	}
	if rp.Bookmarks[0].Tick != 0 {
		t.Error("bookmarks not ordered by tick")
	}

	minN, minE, maxN, maxE := rp.Bounds()
	if minN != 0 || maxN != 500 || minE != -5 || maxE != 120 {
		t.Errorf("bounds = %v %v %v %v", minN, minE, maxN, maxE)
	}
}

func TestNewReplay_Errors(t *testing.T) {
	if _, err := NewReplay(nil, nil, nil); !errors.Is(err, ErrEmptyRun) {
		t.Errorf("empty run: err = %v", err)
	}
	own := []OwnShipRow{{Tick: 0}}
	if _, err := NewReplay(own, []EncounterRow{{Tick: 7}}, nil); err == nil {
		t.Error("orphan encounter row accepted")
	}
}

func TestReplay_FrameOf(t *testing.T) {
	rp, err := NewReplay(replayFixture())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct{ tick, want int }{{-3, 0}, {0, 0}, {1, 1}, {2, 2}, {50, 2}}
	for _, tt := range tests {
		if got := rp.FrameOf(tt.tick); got != tt.want {
			t.Errorf("FrameOf(%d) = %d, want %d", tt.tick, got, tt.want)
		}
	}
}

func TestLoadReplay_FromOutputs(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	for tick := 0; tick < 4; tick++ {
		if err := om.WriteSample(sampleAt(tick, 1000-float64(tick)*10, 0.4, 0)); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	rp, err := LoadReplay(dir)
	if err != nil {
		t.Fatal(err)
	}
	if rp.Frames() != 4 || len(rp.Targets(3)) != 1 {
		t.Errorf("frames = %d, targets at 3 = %d", rp.Frames(), len(rp.Targets(3)))
	}
}
