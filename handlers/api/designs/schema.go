package designs

import (
	"encoding/json"
	"errors"
	"marketmaster/core"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var objectSchema = map[string]any{
	"type":     "object",
	"required": []string{"type"},
	"properties": map[string]any{
		"type":   map[string]any{"type": "string", "minLength": 1},
		"id":     map[string]any{"type": "string"},
		"left":   map[string]any{"type": "number"},
		"top":    map[string]any{"type": "number"},
		"scaleX": map[string]any{"type": "number"},
		"scaleY": map[string]any{"type": "number"},
		"angle":  map[string]any{"type": "number"},
	},
}

var contentSchema = map[string]any{
	"type":     "object",
	"required": []string{"objects"},
	"properties": map[string]any{
		"objects":    map[string]any{"type": "array", "items": objectSchema},
		"background": map[string]any{"type": "string"},
	},
}

func designSchema(required []string, minDimension bool) string {
	dimension := map[string]any{"type": "integer"}
	if minDimension {
		dimension["minimum"] = 1
	}
	nullableString := map[string]any{"type": []string{"string", "null"}}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"category":    map[string]any{"enum": core.DesignCategories},
			"subcategory": nullableString,
			"content":     contentSchema,
			"width":       dimension,
			"height":      dimension,
			"thumbnail":   nullableString,
		},
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return string(encoded)
}

var (
	createSchema = jsonschema.MustCompileString("design.create.schema.json",
		designSchema([]string{"category", "content", "width", "height"}, true))
	// PATCH keeps the stored value for non-positive dimensions, so no minimum.
	patchSchema = jsonschema.MustCompileString("design.patch.schema.json",
		designSchema(nil, false))
)

// ValidationError lists every field level problem found in a payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return core.ErrInvalid
}

// validate decodes raw JSON and checks it against schema.
func validate(schema *jsonschema.Schema, body []byte) (any, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ValidationError{Problems: []string{"body: malformed JSON"}}
	}
	if err := schema.Validate(decoded); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, &ValidationError{Problems: flatten(verr)}
		}
		return nil, err
	}
	return decoded, nil
}

// flatten collects the leaf causes of a schema failure as "field: message".
func flatten(verr *jsonschema.ValidationError) []string {
	var problems []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			problems = append(problems, fieldName(e.InstanceLocation)+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.Strings(problems)
	return problems
}

func fieldName(location string) string {
	location = strings.Trim(location, "/")
	if location == "" {
		return "body"
	}
	return strings.ReplaceAll(location, "/", ".")
}
