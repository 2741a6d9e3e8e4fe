package core

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type typeProbe struct {
	Type string `json:"type" yaml:"type"`
}

// declaredKeys lists the keys each variant decodes into struct fields. Any
// other key of a known variant lands in its Extra map.
var declaredKeys = map[ObjectType]map[string]bool{
	TypeText:   withBaseKeys("text", "fontFamily", "fontSize", "fontWeight", "fill", "textAlign", "width", "lineHeight"),
	TypeRect:   withBaseKeys("width", "height", "fill", "stroke", "strokeWidth", "rx", "ry"),
	TypeCircle: withBaseKeys("radius", "fill", "stroke", "strokeWidth"),
}

func withBaseKeys(keys ...string) map[string]bool {
	set := map[string]bool{"type": true, "id": true, "left": true, "top": true, "scaleX": true, "scaleY": true, "angle": true}
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// extraFields returns the entries of fields the variant does not declare, or
// nil when there are none.
func extraFields(kind ObjectType, fields map[string]any) map[string]any {
	known := declaredKeys[kind]
	var extra map[string]any
	for k, v := range fields {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[k] = v
	}
	return extra
}

// newVariant returns an empty object for a known type together with its
// Extra map, or nil for an unknown type.
func newVariant(kind ObjectType) (CanvasObject, *map[string]any) {
	switch kind {
	case TypeText:
		t := &Text{}
		return t, &t.Extra
	case TypeRect:
		r := &Rect{}
		return r, &r.Extra
	case TypeCircle:
		c := &Circle{}
		return c, &c.Extra
	}
	return nil, nil
}

// DecodeObject decodes one JSON object into the variant named by its "type" field.
func DecodeObject(data []byte) (CanvasObject, error) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode canvas object: %w", err)
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode %q object: %w", probe.Type, err)
	}

	kind := ObjectType(probe.Type)
	obj, extra := newVariant(kind)
	if obj == nil {
		return &Unknown{Kind: probe.Type, Fields: fields}, nil
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, fmt.Errorf("decode %s object: %w", probe.Type, err)
	}
	*extra = extraFields(kind, fields)
	return obj, nil
}

func decodeObjectNode(node *yaml.Node) (CanvasObject, error) {
	var probe typeProbe
	if err := node.Decode(&probe); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	fields := map[string]any{}
	if err := node.Decode(&fields); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	kind := ObjectType(probe.Type)
	obj, extra := newVariant(kind)
	if obj == nil {
		return &Unknown{Kind: probe.Type, Fields: fields}, nil
	}
	if err := node.Decode(obj); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	*extra = extraFields(kind, fields)
	return obj, nil
}

// mergeExtra adds the undeclared keys back onto an encoded variant.
func mergeExtra(kind ObjectType, data []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	known := declaredKeys[kind]
	for k, v := range extra {
		if !known[k] {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	data, err := json.Marshal(struct {
		Type ObjectType `json:"type"`
		*plain
	}{TypeText, (*plain)(t)})
	if err != nil {
		return nil, err
	}
	return mergeExtra(TypeText, data, t.Extra)
}

func (r *Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	data, err := json.Marshal(struct {
		Type ObjectType `json:"type"`
		*plain
	}{TypeRect, (*plain)(r)})
	if err != nil {
		return nil, err
	}
	return mergeExtra(TypeRect, data, r.Extra)
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	data, err := json.Marshal(struct {
		Type ObjectType `json:"type"`
		*plain
	}{TypeCircle, (*plain)(c)})
	if err != nil {
		return nil, err
	}
	return mergeExtra(TypeCircle, data, c.Extra)
}

func (u *Unknown) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(u.Fields)+1)
	for k, v := range u.Fields {
		fields[k] = v
	}
	fields["type"] = u.Kind
	return json.Marshal(fields)
}

func (c Content) MarshalJSON() ([]byte, error) {
	objects := c.Objects
	if objects == nil {
		objects = []CanvasObject{}
	}
	return json.Marshal(struct {
		Objects    []CanvasObject `json:"objects"`
		Background string         `json:"background,omitempty"`
	}{objects, c.Background})
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var raw struct {
		Objects    []json.RawMessage `json:"objects"`
		Background string            `json:"background"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	objects := make([]CanvasObject, 0, len(raw.Objects))
	for i, item := range raw.Objects {
		obj, err := DecodeObject(item)
		if err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
		objects = append(objects, obj)
	}
	c.Objects = objects
	c.Background = raw.Background
	return nil
}

func (c *Content) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Objects    []yaml.Node `yaml:"objects"`
		Background string      `yaml:"background"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	objects := make([]CanvasObject, 0, len(raw.Objects))
	for i := range raw.Objects {
		obj, err := decodeObjectNode(&raw.Objects[i])
		if err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
		objects = append(objects, obj)
	}
	c.Objects = objects
	c.Background = raw.Background
	return nil
}
