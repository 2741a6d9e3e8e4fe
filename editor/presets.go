package editor

import (
	"marketmaster/core"
)

// TextPreset is one of the sidebar's "add text" styles.
type TextPreset struct {
	Name       string
	Text       string
	FontFamily string
	FontSize   float64
	FontWeight string
}

var TextPresets = []TextPreset{
	{Name: "Heading", Text: "Heading", FontFamily: "Poppins", FontSize: 64, FontWeight: "bold"},
	{Name: "Subheading", Text: "Subheading", FontFamily: "Poppins", FontSize: 36, FontWeight: "medium"},
	{Name: "Body", Text: "Body text", FontFamily: "Inter", FontSize: 24, FontWeight: "regular"},
	{Name: "Caption", Text: "Caption text", FontFamily: "Inter", FontSize: 18, FontWeight: "regular"},
}

// Shape names accepted by AddShape.
const (
	ShapeRect     = "rect"
	ShapeCircle   = "circle"
	ShapeTriangle = "triangle"
	ShapeLine     = "line"
)

const (
	presetLeft = 300
	presetTop  = 200

	shapeFill   = "#F3F4F6"
	shapeStroke = "#D1D5DB"
)

// AddText adds a centred text box styled by preset and returns its id.
func (s *Store) AddText(preset TextPreset) string {
	return s.AddCanvasObject(&core.Text{
		Base:       core.Base{Left: presetLeft, Top: presetTop},
		Text:       preset.Text,
		FontFamily: preset.FontFamily,
		FontSize:   preset.FontSize,
		FontWeight: preset.FontWeight,
		Width:      400,
		TextAlign:  "center",
	})
}

// AddShape adds one of the sidebar shapes and returns its id. Triangles and
// lines are kept as opaque objects since the canvas does not draw them.
func (s *Store) AddShape(shape string) string {
	return s.AddCanvasObject(ShapeObject(shape))
}

// ShapeObject builds the object AddShape would add.
func ShapeObject(shape string) core.CanvasObject {
	base := core.Base{Left: presetLeft, Top: presetTop}
	switch shape {
	case ShapeRect:
		return &core.Rect{Base: base, Width: 200, Height: 150, Fill: shapeFill, Stroke: shapeStroke, StrokeWidth: 1}
	case ShapeCircle:
		return &core.Circle{Base: base, Radius: 75, Fill: shapeFill, Stroke: shapeStroke, StrokeWidth: 1}
	case ShapeLine:
		return &core.Unknown{Kind: shape, Fields: map[string]any{
			"left": float64(presetLeft), "top": float64(presetTop),
			"x1": 0.0, "y1": 0.0, "x2": 200.0, "y2": 0.0,
			"fill": shapeFill, "stroke": shapeStroke, "strokeWidth": 3.0,
		}}
	default:
		return &core.Unknown{Kind: shape, Fields: map[string]any{
			"left": float64(presetLeft), "top": float64(presetTop),
			"width": 200.0, "height": 150.0,
			"fill": shapeFill, "stroke": shapeStroke, "strokeWidth": 1.0,
		}}
	}
}
