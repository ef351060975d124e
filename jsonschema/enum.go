package jsonschema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

var EnumKind Kind = enumKind{}

// enumKind is only ever selected by a fragment carrying "enum". Once present
// on a node, the strategy takes every value added there.
type enumKind struct{}

func (enumKind) MatchObject(*Env, any) bool        { return false }
func (enumKind) MatchSchema(_ *Env, s Schema) bool { return s.Has("enum") }

// The "type" of an enum fragment is passed through, not modeled.
func (enumKind) New(env *Env) Strategy {
	return &enumStrategy{
		Base: Base{Env: env, Keywords: NewKeywords(env, "enum")},
		seen: map[string]bool{},
	}
}

type enumStrategy struct {
	Base
	values []any
	seen   map[string]bool
}

func (s *enumStrategy) MatchObject(any) bool        { return true }
func (s *enumStrategy) MatchSchema(sch Schema) bool { return sch.Has("enum") }

func (s *enumStrategy) add(v any) error {
	key, ok := literalKey(v)
	if !ok {
		return fmt.Errorf("%w: %T, a scalar is expected", ErrUnsupportedEnumValue, v)
	}
	if !s.seen[key] {
		s.seen[key] = true
		s.values = append(s.values, v)
	}
	return nil
}

// AddObject accepts a scalar or a list of scalars.
func (s *enumStrategy) AddObject(v any) error {
	if l, ok := asList(v); ok {
		for _, e := range l {
			if err := s.add(e); err != nil {
				return err
			}
		}
		return nil
	}
	return s.add(v)
}

func (s *enumStrategy) AddSchema(sch Schema) error {
	if err := s.Base.AddSchema(sch); err != nil {
		return err
	}
	raw, ok := sch["enum"]
	if !ok {
		return nil
	}
	l, ok := asList(raw)
	if !ok {
		return fmt.Errorf("%w: enum must be a list, got %T", ErrInvalidSchema, raw)
	}
	for _, e := range l {
		if err := s.add(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *enumStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["enum"] = append([]any{}, s.values...)
	return out
}

// literalKey identifies a scalar for deduplication. Integral floats collapse
// onto the matching integer.
func literalKey(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "null", true
	case bool:
		return "b:" + strconv.FormatBool(t), true
	case string:
		return "s:" + t, true
	case int:
		return "n:" + strconv.FormatInt(int64(t), 10), true
	case int8:
		return "n:" + strconv.FormatInt(int64(t), 10), true
	case int16:
		return "n:" + strconv.FormatInt(int64(t), 10), true
	case int32:
		return "n:" + strconv.FormatInt(int64(t), 10), true
	case int64:
		return "n:" + strconv.FormatInt(t, 10), true
	case uint:
		return "n:" + strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return "n:" + strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return "n:" + strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return "n:" + strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return "n:" + strconv.FormatUint(t, 10), true
	case float32:
		return floatKey(float64(t)), true
	case float64:
		return floatKey(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return "n:" + strconv.FormatInt(i, 10), true
		}
		f, err := t.Float64()
		if err != nil {
			return "", false
		}
		return floatKey(f), true
	}
	return "", false
}

func floatKey(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}
