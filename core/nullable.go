package core

import (
	"bytes"
	"encoding/json"
)

// NullableString records whether a JSON field was present and, if so, whether
// it was null.
type NullableString struct {
	Set   bool
	Value *string
}

// NullString returns a NullableString holding an explicit value.
func NullString(v string) NullableString {
	return NullableString{Set: true, Value: &v}
}

// Null returns a NullableString holding an explicit null.
func Null() NullableString {
	return NullableString{Set: true}
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
