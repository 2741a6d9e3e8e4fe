package core

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestContentUnmarshalJSON_Variants(t *testing.T) {
	data := `{"objects":[
		{"type":"text","id":"a","text":"FOR SALE","fontSize":80,"left":400,"top":60},
		{"type":"rect","width":800,"height":120,"fill":"#4B4DED","rx":4},
		{"type":"circle","radius":30,"stroke":"#000"},
		{"type":"triangle","width":200,"height":150,"left":10}
	],"background":"#ffffff"}`

	var c Content
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if c.Background != "#ffffff" {
		t.Errorf("Background mismatch: got %q", c.Background)
	}
	if len(c.Objects) != 4 {
		t.Fatalf("Expected 4 objects, got %d", len(c.Objects))
	}

	text, ok := c.Objects[0].(*Text)
	if !ok {
		t.Fatalf("objects[0] is %T, want *Text", c.Objects[0])
	}
	if text.Text != "FOR SALE" || text.FontSize != 80 || text.Left != 400 || text.ObjectID() != "a" {
		t.Errorf("Text fields not decoded: %+v", text)
	}

	rect, ok := c.Objects[1].(*Rect)
	if !ok {
		t.Fatalf("objects[1] is %T, want *Rect", c.Objects[1])
	}
	if rect.Width != 800 || rect.Height != 120 || rect.RX != 4 {
		t.Errorf("Rect fields not decoded: %+v", rect)
	}

	if _, ok := c.Objects[2].(*Circle); !ok {
		t.Fatalf("objects[2] is %T, want *Circle", c.Objects[2])
	}

	unknown, ok := c.Objects[3].(*Unknown)
	if !ok {
		t.Fatalf("objects[3] is %T, want *Unknown", c.Objects[3])
	}
	if unknown.Type() != "triangle" {
		t.Errorf("Unknown type mismatch: got %q", unknown.Type())
	}
}

func TestContentMarshalJSON_KeepsTypeAndUnknownFields(t *testing.T) {
	c := Content{Objects: []CanvasObject{
		&Text{Text: "hello"},
		&Unknown{Kind: "line", Fields: map[string]any{"x2": 200.0}},
	}}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"type":"text"`, `"text":"hello"`, `"type":"line"`, `"x2":200`} {
		if !strings.Contains(out, want) {
			t.Errorf("Marshal() output %s missing %s", out, want)
		}
	}
}

func TestContentMarshalJSON_EmptyObjects(t *testing.T) {
	data, err := json.Marshal(Content{})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if string(data) != `{"objects":[]}` {
		t.Errorf("Marshal() mismatch: got %s", data)
	}
}

func TestContentUnmarshalYAML(t *testing.T) {
	src := `
objects:
- type: text
  text: ADDRESS GOES HERE
  fontSize: 60
  left: 400
- type: rect
  width: 800
  height: 100
- type: star
  points: 5
background: '#ffffff'
`
	var c Content
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("yaml.Unmarshal() failed: %v", err)
	}
	if len(c.Objects) != 3 {
		t.Fatalf("Expected 3 objects, got %d", len(c.Objects))
	}
	if text := c.Objects[0].(*Text); text.Text != "ADDRESS GOES HERE" || text.Left != 400 {
		t.Errorf("Text fields not decoded: %+v", text)
	}
	if rect := c.Objects[1].(*Rect); rect.Height != 100 {
		t.Errorf("Rect fields not decoded: %+v", rect)
	}
	if c.Objects[2].Type() != "star" {
		t.Errorf("Unknown type mismatch: got %q", c.Objects[2].Type())
	}
}

func TestApplyPatch(t *testing.T) {
	testCases := []struct {
		name  string
		obj   CanvasObject
		patch Patch
		check func(t *testing.T, obj CanvasObject)
	}{
		{
			name:  "text",
			obj:   &Text{Text: "old", FontSize: 20},
			patch: Patch{Text: S("new"), Left: F(12), Radius: F(9)},
			check: func(t *testing.T, obj CanvasObject) {
				text := obj.(*Text)
				if text.Text != "new" || text.Left != 12 || text.FontSize != 20 {
					t.Errorf("unexpected text after patch: %+v", text)
				}
			},
		},
		{
			name:  "rect",
			obj:   &Rect{Width: 100, Height: 100},
			patch: Patch{Width: F(300), Angle: F(45)},
			check: func(t *testing.T, obj CanvasObject) {
				rect := obj.(*Rect)
				if rect.Width != 300 || rect.Height != 100 || rect.Angle == nil || *rect.Angle != 45 {
					t.Errorf("unexpected rect after patch: %+v", rect)
				}
			},
		},
		{
			name:  "circle",
			obj:   &Circle{Radius: 50},
			patch: Patch{Radius: F(10), Fill: S("#fff")},
			check: func(t *testing.T, obj CanvasObject) {
				circle := obj.(*Circle)
				if circle.Radius != 10 || circle.Fill != "#fff" {
					t.Errorf("unexpected circle after patch: %+v", circle)
				}
			},
		},
		{
			name:  "unknown",
			obj:   &Unknown{Kind: "line"},
			patch: Patch{Left: F(5)},
			check: func(t *testing.T, obj CanvasObject) {
				if got := obj.(*Unknown).Fields["left"]; got != 5.0 {
					t.Errorf("unexpected left after patch: %v", got)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.obj.Apply(tc.patch)
			tc.check(t, tc.obj)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Rect{Base: Base{ID: "r", Angle: F(10)}, Width: 10}
	clone := orig.Clone().(*Rect)
	*clone.Angle = 90
	clone.Width = 99

	if *orig.Angle != 10 || orig.Width != 10 {
		t.Errorf("Clone() shares state with original: %+v", orig)
	}
}

func TestPatchMerge(t *testing.T) {
	base := Patch{Left: F(1), Text: S("a")}
	merged := base.Merge(Patch{Text: S("b"), Top: F(2)})

	if *merged.Left != 1 || *merged.Text != "b" || *merged.Top != 2 {
		t.Errorf("Merge() mismatch: %+v", merged)
	}
	if *base.Text != "a" {
		t.Error("Merge() modified the receiver")
	}
	if !(Patch{}).IsEmpty() || merged.IsEmpty() {
		t.Error("IsEmpty() mismatch")
	}
}

func TestDecodeObject_KeepsUndeclaredKeys(t *testing.T) {
	data := `{"type":"text","text":"OPEN HOUSE","fontSize":48,"fontStyle":"italic","opacity":0.5,"underline":true,"selectable":false,"shadow":{"blur":4}}`

	obj, err := DecodeObject([]byte(data))
	if err != nil {
		t.Fatalf("DecodeObject() failed: %v", err)
	}
	text := obj.(*Text)
	if text.Text != "OPEN HOUSE" || text.FontSize != 48 {
		t.Errorf("Text fields not decoded: %+v", text)
	}
	if _, ok := text.Extra["fontSize"]; ok {
		t.Error("declared key fontSize leaked into Extra")
	}
	if text.Extra["fontStyle"] != "italic" || text.Extra["opacity"] != 0.5 {
		t.Errorf("Extra = %v", text.Extra)
	}

	out, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	var want map[string]any
	json.Unmarshal([]byte(data), &want)
	for k, v := range want {
		if k == "shadow" {
			continue
		}
		if got[k] != v {
			t.Errorf("%s = %v after round trip, want %v", k, got[k], v)
		}
	}
	if shadow, _ := got["shadow"].(map[string]any); shadow["blur"] != 4.0 {
		t.Errorf("shadow = %v after round trip", got["shadow"])
	}
}

func TestMarshalJSON_DeclaredFieldsWinOverExtra(t *testing.T) {
	r := &Rect{Width: 100, Extra: map[string]any{"width": 1.0, "opacity": 0.25}}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"width":100`) || !strings.Contains(out, `"opacity":0.25`) || !strings.Contains(out, `"type":"rect"`) {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestCloneCopiesExtra(t *testing.T) {
	c := &Circle{Radius: 10, Extra: map[string]any{"dash": []any{1.0, 2.0}}}
	cp := c.Clone().(*Circle)
	cp.Extra["dash"].([]any)[0] = 9.0
	cp.Extra["opacity"] = 0.1

	if c.Extra["dash"].([]any)[0] != 1.0 {
		t.Error("Clone() shares nested Extra values with the original")
	}
	if _, ok := c.Extra["opacity"]; ok {
		t.Error("Clone() shares the Extra map with the original")
	}
	if (&Text{}).Clone().(*Text).Extra != nil {
		t.Error("Clone() of an object without extras should keep Extra nil")
	}
}

func TestContentUnmarshalYAML_KeepsUndeclaredKeys(t *testing.T) {
	data := `
objects:
  - type: rect
    width: 800
    opacity: 0.8
    selectable: false
`
	var c Content
	if err := yaml.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	rect := c.Objects[0].(*Rect)
	if rect.Width != 800 || rect.Extra["opacity"] != 0.8 || rect.Extra["selectable"] != false {
		t.Errorf("unexpected rect: %+v", rect)
	}
	if _, ok := rect.Extra["type"]; ok {
		t.Error("type leaked into Extra")
	}
}

func TestMarshalJSON_OmitsUnsetPosition(t *testing.T) {
	data, err := json.Marshal(&Text{Text: "hello"})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	out := string(data)
	if strings.Contains(out, `"left"`) || strings.Contains(out, `"top"`) {
		t.Errorf("Marshal() = %s, want no left/top for an unpositioned object", out)
	}

	data, _ = json.Marshal(&Circle{Base: Base{Left: 12, Top: 7}})
	if out := string(data); !strings.Contains(out, `"left":12`) || !strings.Contains(out, `"top":7`) {
		t.Errorf("Marshal() = %s, want left and top", out)
	}
}
