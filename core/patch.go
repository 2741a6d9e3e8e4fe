package core

import "encoding/json"

// Patch is a partial set of canvas object properties. It is what the editor
// passes around for selections, modifications and property panel edits.
type Patch struct {
	Left        *float64 `json:"left,omitempty"`
	Top         *float64 `json:"top,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	ScaleX      *float64 `json:"scaleX,omitempty"`
	ScaleY      *float64 `json:"scaleY,omitempty"`
	Angle       *float64 `json:"angle,omitempty"`
	Text        *string  `json:"text,omitempty"`
	FontFamily  *string  `json:"fontFamily,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	FontWeight  *string  `json:"fontWeight,omitempty"`
	TextAlign   *string  `json:"textAlign,omitempty"`
	LineHeight  *float64 `json:"lineHeight,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	RX          *float64 `json:"rx,omitempty"`
	RY          *float64 `json:"ry,omitempty"`
	Radius      *float64 `json:"radius,omitempty"`
}

// F returns a pointer to v.
func F(v float64) *float64 { return &v }

// S returns a pointer to v.
func S(v string) *string { return &v }

// Merge returns p with every field set in o copied over.
func (p Patch) Merge(o Patch) Patch {
	mergeFloat(&p.Left, o.Left)
	mergeFloat(&p.Top, o.Top)
	mergeFloat(&p.Width, o.Width)
	mergeFloat(&p.Height, o.Height)
	mergeFloat(&p.ScaleX, o.ScaleX)
	mergeFloat(&p.ScaleY, o.ScaleY)
	mergeFloat(&p.Angle, o.Angle)
	mergeString(&p.Text, o.Text)
	mergeString(&p.FontFamily, o.FontFamily)
	mergeFloat(&p.FontSize, o.FontSize)
	mergeString(&p.FontWeight, o.FontWeight)
	mergeString(&p.TextAlign, o.TextAlign)
	mergeFloat(&p.LineHeight, o.LineHeight)
	mergeString(&p.Fill, o.Fill)
	mergeString(&p.Stroke, o.Stroke)
	mergeFloat(&p.StrokeWidth, o.StrokeWidth)
	mergeFloat(&p.RX, o.RX)
	mergeFloat(&p.RY, o.RY)
	mergeFloat(&p.Radius, o.Radius)
	return p
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func (p Patch) fields() map[string]any {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		*dst = F(*src)
	}
}

func mergeString(dst **string, src *string) {
	if src != nil {
		*dst = S(*src)
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return F(*v)
}
