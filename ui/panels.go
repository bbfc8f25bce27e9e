package ui

import (
	"fmt"
	"math"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/colav/telemetry"
)

func ownRow(data any) telemetry.OwnShipRow {
	if r, ok := data.(*telemetry.OwnShipRow); ok && r != nil {
		return *r
	}
	r, _ := data.(telemetry.OwnShipRow)
	return r
}

// OwnShipPanel describes the own-ship panel. maxRudderDeg scales the
// rudder bar.
func OwnShipPanel(maxRudderDeg float32) PanelDescriptor {
	return PanelDescriptor{
		ID:    "own_ship",
		Title: "Own Ship",
		Width: 260,
		Sections: []SectionDescriptor{
			{
				ID:    "motion",
				Title: "Motion",
				Fields: []FieldDescriptor{
					{ID: "heading", Label: "Heading", Widget: WidgetText, Format: "%05.1f deg",
						Getter: func(d any) float32 { return float32(compass(ownRow(d).Heading)) }},
					{ID: "speed", Label: "Speed", Widget: WidgetText, Format: "%.2f m/s",
						Getter: func(d any) float32 { return float32(ownRow(d).Speed) }},
					{ID: "yaw_rate", Label: "Yaw rate", Widget: WidgetText, Format: "%+.2f deg/s",
						Getter: func(d any) float32 { return float32(ownRow(d).YawRate) }},
					{ID: "rudder", Label: "Rudder", Widget: WidgetCenteredBar, Range: CenteredRange(maxRudderDeg),
						Getter: func(d any) float32 { return float32(ownRow(d).Rudder) }},
					{ID: "saturated", Label: "Saturated", Widget: WidgetText,
						Visible:    func(d any) bool { return ownRow(d).Saturated },
						TextGetter: func(any) string { return "rudder at limit" }},
				},
			},
			{
				ID:    "guidance",
				Title: "Guidance",
				Fields: []FieldDescriptor{
					{ID: "desired", Label: "Desired", Widget: WidgetText, Format: "%05.1f deg",
						Getter: func(d any) float32 { return float32(compass(ownRow(d).Desired)) }},
					{ID: "commanded", Label: "Commanded", Widget: WidgetText, Format: "%05.1f deg",
						Getter: func(d any) float32 { return float32(compass(ownRow(d).Commanded)) }},
				},
			},
			{
				ID:    "avoidance",
				Title: "Avoidance",
				Fields: []FieldDescriptor{
					{ID: "state", Label: "State", Widget: WidgetColorSwatch,
						ColorGetter: func(d any) rl.Color { return StateColor(ownRow(d).MaxState) },
						TextGetter:  func(d any) string { return ownRow(d).MaxState }},
					{ID: "risk", Label: "Max risk", Widget: WidgetRiskBar,
						Getter: func(d any) float32 { return float32(ownRow(d).MaxRisk) }},
					{ID: "bias", Label: "Bias", Widget: WidgetText,
						TextGetter: func(d any) string {
							r := ownRow(d)
							if r.Trigger >= 0 && r.Bias != "stand-on" {
								return fmt.Sprintf("%s (TS %d)", r.Bias, r.Trigger)
							}
							return r.Bias
						}},
					{ID: "source", Label: "Source", Widget: WidgetText,
						TextGetter: func(d any) string {
							r := ownRow(d)
							switch {
							case r.Fallback:
								return r.Source + " (fallback)"
							case r.Consulted:
								return r.Source + " (consulted)"
							}
							return r.Source
						}},
				},
			},
		},
	}
}

// compass maps degrees to [0, 360).
func compass(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// TargetTable renders one row per target at the current tick.
type TargetTable struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewTargetTable creates a target table.
func NewTargetTable(x, y, width int32) *TargetTable {
	return &TargetTable{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the table position.
func (t *TargetTable) SetPosition(x, y int32) {
	t.x = x
	t.y = y
}

// TargetLine formats one table row.
func TargetLine(e telemetry.EncounterRow) string {
	tcpa := "  -  "
	if !math.IsInf(float64(e.TCPA), 1) {
		tcpa = fmt.Sprintf("%5.0f", float64(e.TCPA))
	}
	return fmt.Sprintf("%-4d %6.0f %6.0f %s %4.2f %-10s %s",
		e.Target, e.Range, e.DCPA, tcpa, e.Risk, e.State, e.Encounter)
}

// Draw renders the table and returns its bottom edge.
func (t *TargetTable) Draw(rows []telemetry.EncounterRow) int32 {
	r := t.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight
	height := int32(len(rows)+2)*line + pad*2
	r.DrawPanel(t.x, t.y, t.width, height)

	y := t.y + pad
	rl.DrawText("Targets", t.x+pad, y, 16, rl.White)
	y += line + 2
	rl.DrawText(fmt.Sprintf("%-4s %6s %6s %5s %4s %-10s %s", "TS", "range", "dcpa", "tcpa", "risk", "state", "encounter"),
		t.x+pad, y, r.Theme.FontSize, r.Theme.SectionHeader)
	y += line

	for _, e := range rows {
		color := r.Theme.ValueColor
		if e.Safety > 0 && e.Range < e.Safety {
			color = r.Theme.BarFillHigh
		}
		rl.DrawRectangle(t.x+pad-6, y+2, 4, 8, StateColor(e.State))
		rl.DrawText(TargetLine(e), t.x+pad, y, r.Theme.FontSize, color)
		y += line
	}
	return y + pad
}

// BookmarkList renders the bookmarks around the current tick.
type BookmarkList struct {
	renderer *Renderer
	x, y     int32
	width    int32
	max      int
}

// NewBookmarkList creates a bookmark list showing up to maxRows entries.
func NewBookmarkList(x, y, width int32, maxRows int) *BookmarkList {
	return &BookmarkList{renderer: NewRenderer(), x: x, y: y, width: width, max: maxRows}
}

// SetPosition updates the list position.
func (b *BookmarkList) SetPosition(x, y int32) {
	b.x = x
	b.y = y
}

// Window picks up to n bookmarks at or before tick, most recent last.
func Window(marks []telemetry.Bookmark, tick, n int) []telemetry.Bookmark {
	end := 0
	for end < len(marks) && marks[end].Tick <= tick {
		end++
	}
	return marks[max(end-n, 0):end]
}

// Draw renders the list.
func (b *BookmarkList) Draw(marks []telemetry.Bookmark, tick int) {
	r := b.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight
	shown := Window(marks, tick, b.max)

	r.DrawPanel(b.x, b.y, b.width, int32(len(shown)+1)*line+pad*2)
	y := b.y + pad
	rl.DrawText("Events", b.x+pad, y, 16, rl.White)
	y += line + 2

	for _, m := range shown {
		text := fmt.Sprintf("%6.1fs %s", m.Time, strings.ReplaceAll(string(m.Type), "_", " "))
		if m.TargetID >= 0 {
			text += fmt.Sprintf(" TS%d", m.TargetID)
		}
		rl.DrawText(text, b.x+pad, y, r.Theme.FontSize, r.Theme.ValueColor)
		y += line
	}
}
