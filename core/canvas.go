package core

// ObjectType discriminates the CanvasObject variants.
type ObjectType string

const (
	TypeText   ObjectType = "text"
	TypeRect   ObjectType = "rect"
	TypeCircle ObjectType = "circle"
)

type (
	// CanvasObject is one renderable element of a design. The set of
	// implementations is closed: *Text, *Rect, *Circle and *Unknown.
	CanvasObject interface {
		Type() ObjectType
		ObjectID() string
		SetID(id string)
		// Apply merges the set fields of p that are meaningful for the variant.
		Apply(p Patch)
		// Snapshot returns the variant's properties as a fully populated Patch.
		Snapshot() Patch
		Clone() CanvasObject
		canvasObject()
	}

	// Base holds the fields every variant shares.
	Base struct {
		ID     string   `json:"id,omitempty" yaml:"id,omitempty"`
		Left   float64  `json:"left,omitempty" yaml:"left,omitempty"`
		Top    float64  `json:"top,omitempty" yaml:"top,omitempty"`
		ScaleX *float64 `json:"scaleX,omitempty" yaml:"scaleX,omitempty"`
		ScaleY *float64 `json:"scaleY,omitempty" yaml:"scaleY,omitempty"`
		Angle  *float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
	}

	// Text, Rect and Circle keep keys they do not declare in Extra so that
	// engine properties such as opacity survive a save round trip.
	Text struct {
		Base       `yaml:",inline"`
		Text       string  `json:"text" yaml:"text"`
		FontFamily string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
		FontSize   float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
		FontWeight string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
		Fill       string  `json:"fill,omitempty" yaml:"fill,omitempty"`
		TextAlign  string  `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
		Width      float64 `json:"width,omitempty" yaml:"width,omitempty"`
		LineHeight float64 `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`

		Extra map[string]any `json:"-" yaml:"-"`
	}

	Rect struct {
		Base        `yaml:",inline"`
		Width       float64 `json:"width,omitempty" yaml:"width,omitempty"`
		Height      float64 `json:"height,omitempty" yaml:"height,omitempty"`
		Fill        string  `json:"fill,omitempty" yaml:"fill,omitempty"`
		Stroke      string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
		StrokeWidth float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
		RX          float64 `json:"rx,omitempty" yaml:"rx,omitempty"`
		RY          float64 `json:"ry,omitempty" yaml:"ry,omitempty"`

		Extra map[string]any `json:"-" yaml:"-"`
	}

	Circle struct {
		Base        `yaml:",inline"`
		Radius      float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
		Fill        string  `json:"fill,omitempty" yaml:"fill,omitempty"`
		Stroke      string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
		StrokeWidth float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`

		Extra map[string]any `json:"-" yaml:"-"`
	}

	// Unknown keeps an object of an unrecognised type verbatim so that it
	// survives a save round trip. The editor does not render it.
	Unknown struct {
		Kind   string
		Fields map[string]any
	}
)

func (*Text) canvasObject() {}
func (*Rect) canvasObject() {}
func (*Circle) canvasObject() {}
func (*Unknown) canvasObject() {}

func (*Text) Type() ObjectType { return TypeText }
func (*Rect) Type() ObjectType { return TypeRect }
func (*Circle) Type() ObjectType { return TypeCircle }
func (u *Unknown) Type() ObjectType { return ObjectType(u.Kind) }

func (b *Base) ObjectID() string { return b.ID }
func (b *Base) SetID(id string) { b.ID = id }

func (b *Base) applyBase(p Patch) {
	if p.Left != nil {
		b.Left = *p.Left
	}
	if p.Top != nil {
		b.Top = *p.Top
	}
	if p.ScaleX != nil {
		b.ScaleX = F(*p.ScaleX)
	}
	if p.ScaleY != nil {
		b.ScaleY = F(*p.ScaleY)
	}
	if p.Angle != nil {
		b.Angle = F(*p.Angle)
	}
}

func (b Base) snapshot() Patch {
	return Patch{
		Left:   F(b.Left),
		Top:    F(b.Top),
		ScaleX: F(valueOr(b.ScaleX, 1)),
		ScaleY: F(valueOr(b.ScaleY, 1)),
		Angle:  F(valueOr(b.Angle, 0)),
	}
}

func (b Base) clone() Base {
	c := b
	c.ScaleX = cloneFloat(b.ScaleX)
	c.ScaleY = cloneFloat(b.ScaleY)
	c.Angle = cloneFloat(b.Angle)
	return c
}

func (t *Text) Apply(p Patch) {
	t.applyBase(p)
	setString(&t.Text, p.Text)
	setString(&t.FontFamily, p.FontFamily)
	setFloat(&t.FontSize, p.FontSize)
	setString(&t.FontWeight, p.FontWeight)
	setString(&t.Fill, p.Fill)
	setString(&t.TextAlign, p.TextAlign)
	setFloat(&t.Width, p.Width)
	setFloat(&t.LineHeight, p.LineHeight)
}

func (t *Text) Snapshot() Patch {
	p := t.snapshot()
	p.Text = S(t.Text)
	p.FontFamily = S(t.FontFamily)
	p.FontSize = F(t.FontSize)
	p.FontWeight = S(t.FontWeight)
	p.Fill = S(t.Fill)
	p.TextAlign = S(t.TextAlign)
	p.Width = F(t.Width)
	return p
}

func (t *Text) Clone() CanvasObject {
	c := *t
	c.Base = t.Base.clone()
	c.Extra = cloneFields(t.Extra)
	return &c
}

func (r *Rect) Apply(p Patch) {
	r.applyBase(p)
	setFloat(&r.Width, p.Width)
	setFloat(&r.Height, p.Height)
	setString(&r.Fill, p.Fill)
	setString(&r.Stroke, p.Stroke)
	setFloat(&r.StrokeWidth, p.StrokeWidth)
	setFloat(&r.RX, p.RX)
	setFloat(&r.RY, p.RY)
}

func (r *Rect) Snapshot() Patch {
	p := r.snapshot()
	p.Width = F(r.Width)
	p.Height = F(r.Height)
	p.Fill = S(r.Fill)
	p.Stroke = S(r.Stroke)
	p.StrokeWidth = F(r.StrokeWidth)
	return p
}

func (r *Rect) Clone() CanvasObject {
	c := *r
	c.Base = r.Base.clone()
	c.Extra = cloneFields(r.Extra)
	return &c
}

func (c *Circle) Apply(p Patch) {
	c.applyBase(p)
	setFloat(&c.Radius, p.Radius)
	setString(&c.Fill, p.Fill)
	setString(&c.Stroke, p.Stroke)
	setFloat(&c.StrokeWidth, p.StrokeWidth)
}

func (c *Circle) Snapshot() Patch {
	p := c.snapshot()
	p.Radius = F(c.Radius)
	p.Fill = S(c.Fill)
	p.Stroke = S(c.Stroke)
	p.StrokeWidth = F(c.StrokeWidth)
	return p
}

func (c *Circle) Clone() CanvasObject {
	cp := *c
	cp.Base = c.Base.clone()
	cp.Extra = cloneFields(c.Extra)
	return &cp
}

func (u *Unknown) ObjectID() string {
	id, _ := u.Fields["id"].(string)
	return id
}

func (u *Unknown) SetID(id string) {
	if u.Fields == nil {
		u.Fields = map[string]any{}
	}
	u.Fields["id"] = id
}

func (u *Unknown) Apply(p Patch) {
	if u.Fields == nil {
		u.Fields = map[string]any{}
	}
	for k, v := range p.fields() {
		u.Fields[k] = v
	}
}

func (u *Unknown) Snapshot() Patch {
	return Patch{
		Left: F(number(u.Fields["left"])),
		Top:  F(number(u.Fields["top"])),
	}
}

func (u *Unknown) Clone() CanvasObject {
	return &Unknown{Kind: u.Kind, Fields: cloneFields(u.Fields)}
}

// CloneObjects deep copies a list of objects. The result is never nil.
func CloneObjects(objects []CanvasObject) []CanvasObject {
	out := make([]CanvasObject, 0, len(objects))
	for _, o := range objects {
		if o == nil {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return cloneValue(m).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	}
	return v
}
