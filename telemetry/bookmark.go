package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/nav"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkAvoidanceEngaged  BookmarkType = "avoidance_engaged"
	BookmarkAvoidanceReleased BookmarkType = "avoidance_released"
	BookmarkEmergency         BookmarkType = "emergency"
	BookmarkSafetyBreach      BookmarkType = "safety_breach"
	BookmarkAdvisoryFallback  BookmarkType = "advisory_fallback"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int          `csv:"tick"`
	Time        float64      `csv:"time"`
	TargetID    int          `csv:"target"` // -1 when not tied to a target
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"time", b.Time,
		"target", b.TargetID,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation. It
// compares each sample with the previous one, so every bookmark marks the
// first tick of a condition.
type BookmarkDetector struct {
	// Recent bookmarks (circular buffer)
	history     []Bookmark
	historySize int
	historyIdx  int
	historyFull bool

	maneuvering bool
	fallback    bool
	emergency   map[int]bool
	breached    map[int]bool
}

// NewBookmarkDetector creates a detector that remembers the last
// historySize bookmarks.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 1 {
		historySize = 1
	}
	return &BookmarkDetector{
		history:     make([]Bookmark, historySize),
		historySize: historySize,
		emergency:   make(map[int]bool),
		breached:    make(map[int]bool),
	}
}

// Check analyzes the latest sample and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(s Sample) []Bookmark {
	var bookmarks []Bookmark
	mark := func(t BookmarkType, target int, desc string) {
		b := Bookmark{Type: t, Tick: s.Tick, Time: s.Time, TargetID: target, Description: desc}
		bookmarks = append(bookmarks, b)
		bd.addToHistory(b)
	}

	switch m := s.Maneuvering(); {
	case m && !bd.maneuvering:
		mark(BookmarkAvoidanceEngaged, s.TriggerID,
			fmt.Sprintf("%s by %.0f deg from %s", s.Bias, nav.Deg(nav.HeadingError(s.Commanded, s.Desired)), s.Source))
	case !m && bd.maneuvering:
		mark(BookmarkAvoidanceReleased, -1, "resumed desired heading")
	}
	bd.maneuvering = s.Maneuvering()

	for _, t := range s.Targets {
		em := t.State == avoidance.Emergency
		if em && !bd.emergency[t.ID] {
			mark(BookmarkEmergency, t.ID,
				fmt.Sprintf("%s, range %.0f m, dcpa %.0f m, risk %.2f", t.Encounter, t.Range, t.DCPA, t.Risk))
		}
		bd.emergency[t.ID] = em

		br := t.Breached()
		if br && !bd.breached[t.ID] {
			mark(BookmarkSafetyBreach, t.ID,
				fmt.Sprintf("range %.1f m inside safety distance %.1f m", t.Range, t.SafetyDistance))
		}
		bd.breached[t.ID] = br
	}

	if s.Fallback && !bd.fallback {
		mark(BookmarkAdvisoryFallback, -1, "advisory failed, using rule-based decision")
	}
	bd.fallback = s.Fallback

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(b Bookmark) {
	bd.history[bd.historyIdx] = b
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// Recent returns the remembered bookmarks, oldest first.
func (bd *BookmarkDetector) Recent() []Bookmark {
	if !bd.historyFull {
		out := make([]Bookmark, bd.historyIdx)
		copy(out, bd.history[:bd.historyIdx])
		return out
	}
	out := make([]Bookmark, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}
