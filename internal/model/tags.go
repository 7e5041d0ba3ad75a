package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is free-form metadata attached to an element, e.g. "lang" = ["go", "c++"]
// or "src" = "https://github.com/user/repo".
type Tags map[string]TagValue

// TagValue holds either a single string or a list of strings and keeps the
// shape it was created or decoded with.
type TagValue struct {
	values []string
	list   bool
}

// TagString returns a single-valued tag.
func TagString(v string) TagValue {
	return TagValue{values: []string{v}}
}

// TagList returns a list-valued tag.
func TagList(v ...string) TagValue {
	values := make([]string, len(v))
	copy(values, v)
	return TagValue{values: values, list: true}
}

// IsList reports whether the tag was given as a list.
func (t TagValue) IsList() bool { return t.list }

// Values returns a copy of all values of the tag.
func (t TagValue) Values() []string {
	out := make([]string, len(t.values))
	copy(out, t.values)
	return out
}

// String returns the single value, or the list joined with commas.
func (t TagValue) String() string {
	return strings.Join(t.values, ",")
}

// MarshalJSON implements json.Marshaler.
func (t TagValue) MarshalJSON() ([]byte, error) {
	if t.list {
		values := t.values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	if len(t.values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(t.values[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("tag list must contain only strings: %w", err)
		}
		if values == nil {
			values = []string{}
		}
		*t = TagValue{values: values, list: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tag must be a string or a list of strings: %w", err)
	}
	*t = TagValue{values: []string{s}}
	return nil
}
