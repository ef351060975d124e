package jsonschema

import "encoding/json"

var (
	NullKind    Kind = scalarKind{name: "null", match: func(v any) bool { return v == nil }}
	BooleanKind Kind = scalarKind{name: "boolean", match: isBool}
	StringKind  Kind = scalarKind{name: "string", match: isString}
	NumberKind  Kind = numberKind{}
)

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}

// isFloat reports whether a number was observed as a non-integer. Go floats
// count even when integral.
func isFloat(v any) bool {
	switch n := v.(type) {
	case float32, float64:
		return true
	case json.Number:
		return floatLike(n)
	}
	return false
}

// matchType reports whether s declares exactly type name and is not an enum.
func matchType(s Schema, names ...string) bool {
	if s.Has("enum") {
		return false
	}
	t, ok := s.Type()
	if !ok {
		return false
	}
	for _, n := range names {
		if t == n {
			return true
		}
	}
	return false
}

type scalarKind struct {
	name  string
	match func(any) bool
}

func (k scalarKind) MatchObject(_ *Env, v any) bool    { return k.match(v) }
func (k scalarKind) MatchSchema(_ *Env, s Schema) bool { return matchType(s, k.name) }

func (k scalarKind) New(env *Env) Strategy {
	return &scalarStrategy{Base: NewBase(env), kind: k}
}

type scalarStrategy struct {
	Base
	kind scalarKind
}

func (s *scalarStrategy) MatchObject(v any) bool      { return s.kind.match(v) }
func (s *scalarStrategy) MatchSchema(sch Schema) bool { return matchType(sch, s.kind.name) }

func (s *scalarStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["type"] = s.kind.name
	return out
}

type numberKind struct{}

func (numberKind) MatchObject(_ *Env, v any) bool    { return isNumber(v) }
func (numberKind) MatchSchema(_ *Env, s Schema) bool { return matchType(s, "integer", "number") }
func (numberKind) New(env *Env) Strategy             { return NewNumber(env) }

// NumberStrategy reports "integer" until it sees a non-integer value or a
// "number" schema, and "number" from then on.
type NumberStrategy struct {
	Base
	float bool
}

// NewNumber returns an empty number strategy. known lists extra keywords the
// caller models itself and that must not be passed through.
func NewNumber(env *Env, known ...string) *NumberStrategy {
	return &NumberStrategy{Base: NewBase(env, known...)}
}

func (s *NumberStrategy) MatchObject(v any) bool      { return isNumber(v) }
func (s *NumberStrategy) MatchSchema(sch Schema) bool { return matchType(sch, "integer", "number") }

func (s *NumberStrategy) AddObject(v any) error {
	if isFloat(v) {
		s.float = true
	}
	return nil
}

func (s *NumberStrategy) AddSchema(sch Schema) error {
	if t, _ := sch.Type(); t == "number" {
		s.float = true
	}
	return s.Base.AddSchema(sch)
}

func (s *NumberStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["type"] = "integer"
	if s.float {
		out["type"] = "number"
	}
	return out
}

// structuralKeywords are the keywords that lose meaning when merged without
// a type to interpret them.
var structuralKeywords = []string{
	"items",
	"properties",
	"patternProperties",
	"required",
	"additionalItems",
	"additionalProperties",
}

// typelessStrategy holds keyword-only fragments until a typed strategy
// appears on the same node.
type typelessStrategy struct {
	Base
}

func newTypeless(env *Env) *typelessStrategy {
	return &typelessStrategy{Base: NewBase(env)}
}

func (s *typelessStrategy) MatchObject(any) bool        { return false }
func (s *typelessStrategy) MatchSchema(sch Schema) bool { return isTypeless(sch) }

func (s *typelessStrategy) AddSchema(sch Schema) error {
	for _, kw := range structuralKeywords {
		if sch.Has(kw) {
			s.Env.Warn(typelessWarning(sch))
			break
		}
	}
	return s.Base.AddSchema(sch)
}
