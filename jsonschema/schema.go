// Package jsonschema infers a JSON Schema from sample documents and merges
// existing schemas into the result.
package jsonschema

import (
	"encoding/json"
	"reflect"
	"sort"

	gojson "github.com/goccy/go-json"
)

// Schema is a JSON Schema fragment in its decoded form. Fragments produced by
// a Builder use Schema for nested objects, []Schema for anyOf and tuple items,
// []string for type unions and required, and []any for enum.
type Schema map[string]any

// Clone returns a shallow copy of s.
func (s Schema) Clone() Schema {
	c := make(Schema, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Has reports whether keyword is present.
func (s Schema) Has(keyword string) bool {
	_, ok := s[keyword]
	return ok
}

// Type returns the "type" keyword when it holds a single type name.
func (s Schema) Type() (string, bool) {
	t, ok := s["type"].(string)
	return t, ok
}

// MarshalJSON encodes s with sorted keys.
func (s Schema) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(map[string]any(s))
}

// asSchema accepts the map shapes a decoded fragment may have.
func asSchema(v any) (Schema, bool) {
	switch s := v.(type) {
	case Schema:
		return s, true
	case map[string]any:
		return Schema(s), true
	}
	return nil, false
}

// asList accepts the slice shapes decoded documents and fragments may have.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []Schema:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func isList(v any) bool {
	_, ok := asList(v)
	return ok
}

func isMap(v any) bool {
	_, ok := asSchema(v)
	return ok
}

// isTypeless reports whether a fragment carries neither "type" nor "enum".
func isTypeless(s Schema) bool {
	return !s.Has("type") && !s.Has("enum")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// equalValues compares two decoded JSON values structurally. Map key order is
// irrelevant, list order is significant and 1 equals 1.0.
func equalValues(a, b any) bool {
	ab, errA := gojson.Marshal(a)
	bb, errB := gojson.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	if string(ab) == string(bb) {
		return true
	}
	// numbers may still differ in spelling, 1 vs 1.0 vs 1e0
	var na, nb any
	if gojson.Unmarshal(ab, &na) != nil || gojson.Unmarshal(bb, &nb) != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// Equal reports whether two fragments are structurally equal.
func Equal(a, b Schema) bool {
	return equalValues(a, b)
}

// floatLike reports whether a json.Number is written with a fraction or an
// exponent.
func floatLike(n json.Number) bool {
	for _, c := range n {
		switch c {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}
