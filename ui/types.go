// Package ui provides the descriptor-driven panels of the replay viewer.
// Panels are described by field descriptors with value getters, so the
// layout follows the telemetry rows without hard-coding them into draw code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field should be rendered.
type WidgetType int

const (
	WidgetText        WidgetType = iota // Plain text with format string
	WidgetBar                           // Progress bar [0, 1]
	WidgetCenteredBar                   // Centered bar over a symmetric range
	WidgetColorSwatch                   // Color preview square
	WidgetRiskBar                       // [0, 1] bar colored by risk band
	WidgetSection                       // Section header
	WidgetSpacer                        // Vertical spacing
)

// FieldRange defines the value range for bar widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// DefaultRange returns a [0, 1] range.
func DefaultRange() FieldRange {
	return FieldRange{Min: 0, Max: 1}
}

// CenteredRange returns a [-limit, +limit] range.
func CenteredRange(limit float32) FieldRange {
	return FieldRange{Min: -limit, Max: limit}
}

// FieldDescriptor defines how to display a single piece of data.
type FieldDescriptor struct {
	ID          string             // Unique identifier for the field
	Label       string             // Display label
	Widget      WidgetType         // How to render
	Format      string             // Printf format for text (e.g., "%.2f")
	Range       FieldRange         // Value range for bars
	Color       rl.Color           // Optional color override
	Visible     func(any) bool     // Optional visibility check (nil = always visible)
	Getter      func(any) float32  // Value extractor (for numeric fields)
	TextGetter  func(any) string   // Value extractor (for text fields)
	ColorGetter func(any) rl.Color // Color extractor (for color swatches)
}

// SectionDescriptor defines a group of fields with a header.
type SectionDescriptor struct {
	ID      string            // Unique identifier
	Title   string            // Section header text
	Fields  []FieldDescriptor // Fields in this section
	Visible func(any) bool    // Optional visibility check for entire section
}

// PanelDescriptor defines a complete panel layout.
type PanelDescriptor struct {
	ID       string              // Unique identifier
	Title    string              // Panel title (optional)
	Sections []SectionDescriptor // Sections in order
	Width    int32               // Panel width (0 = auto)
}

// Rows counts the lines a panel needs for data, for sizing its background.
func (pd PanelDescriptor) Rows(data any) int {
	n := 0
	if pd.Title != "" {
		n++
	}
	for _, sd := range pd.Sections {
		if sd.Visible != nil && !sd.Visible(data) {
			continue
		}
		if sd.Title != "" {
			n++
		}
		for _, fd := range sd.Fields {
			if fd.Visible == nil || fd.Visible(data) {
				n++
			}
		}
	}
	return n
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg         rl.Color
	PanelBorder     rl.Color
	SectionHeader   rl.Color
	LabelColor      rl.Color
	ValueColor      rl.Color
	BarBg           rl.Color
	BarFill         rl.Color
	BarFillLow      rl.Color
	BarFillMedium   rl.Color
	BarFillHigh     rl.Color
	BarFillNegative rl.Color
	BarFillPositive rl.Color
	Padding         int32
	LineHeight      int32
	LabelWidth      int32
	BarHeight       int32
	FontSize        int32
	HeaderFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:         rl.Color{R: 12, G: 24, B: 38, A: 235},
		PanelBorder:     rl.Color{R: 50, G: 80, B: 110, A: 255},
		SectionHeader:   rl.Color{R: 250, G: 210, B: 90, A: 255},
		LabelColor:      rl.LightGray,
		ValueColor:      rl.RayWhite,
		BarBg:           rl.Color{R: 35, G: 45, B: 55, A: 255},
		BarFill:         rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillLow:      rl.Color{R: 100, G: 200, B: 100, A: 255},
		BarFillMedium:   rl.Color{R: 220, G: 190, B: 80, A: 255},
		BarFillHigh:     rl.Color{R: 220, G: 80, B: 70, A: 255},
		BarFillNegative: rl.Color{R: 220, G: 80, B: 70, A: 255},  // port
		BarFillPositive: rl.Color{R: 80, G: 200, B: 100, A: 255}, // starboard
		Padding:         10,
		LineHeight:      16,
		LabelWidth:      80,
		BarHeight:       12,
		FontSize:        12,
		HeaderFontSize:  14,
	}
}

// StateColor maps an avoidance state name to its chart color.
func StateColor(state string) rl.Color {
	switch state {
	case "monitoring":
		return rl.Color{R: 220, G: 190, B: 80, A: 255}
	case "stand-on":
		return rl.Color{R: 90, G: 170, B: 230, A: 255}
	case "give-way":
		return rl.Color{R: 240, G: 140, B: 50, A: 255}
	case "emergency":
		return rl.Color{R: 230, G: 60, B: 60, A: 255}
	default:
		return rl.Color{R: 140, G: 150, B: 160, A: 255}
	}
}

// RiskBand returns 0, 1 or 2 for low, medium and high risk.
func RiskBand(risk, monitor, action float32) int {
	switch {
	case risk >= action:
		return 2
	case risk >= monitor:
		return 1
	default:
		return 0
	}
}
