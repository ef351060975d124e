package jsonschema

import "fmt"

var (
	ListKind  Kind = listKind{}
	TupleKind Kind = tupleKind{}
)

type listKind struct{}

func (listKind) MatchObject(env *Env, v any) bool {
	return env.MergeArrays() && isList(v)
}

// MatchSchema takes arrays whose "items" is a single schema. Without "items"
// the builder's array mode decides.
func (listKind) MatchSchema(env *Env, s Schema) bool {
	if !matchType(s, "array") {
		return false
	}
	items, ok := s["items"]
	if !ok {
		return env.MergeArrays()
	}
	return isMap(items) || items == true
}

func (listKind) New(env *Env) Strategy {
	return &listStrategy{Base: NewBase(env, "items"), items: env.NewNode()}
}

// listStrategy merges every element of every array into one child node.
type listStrategy struct {
	Base
	items *Node
}

func (s *listStrategy) MatchObject(v any) bool { return isList(v) }

func (s *listStrategy) MatchSchema(sch Schema) bool {
	if !matchType(sch, "array") {
		return false
	}
	items, ok := sch["items"]
	return !ok || isMap(items) || items == true
}

func (s *listStrategy) AddObject(v any) error {
	l, _ := asList(v)
	for i, e := range l {
		if err := s.items.AddObject(e); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *listStrategy) AddSchema(sch Schema) error {
	if err := s.Base.AddSchema(sch); err != nil {
		return err
	}
	if items, ok := sch["items"]; ok {
		if err := s.items.AddSchema(items); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}

func (s *listStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["type"] = "array"
	if s.items.Len() > 0 {
		out["items"] = s.items.ToSchema()
	}
	return out
}

type tupleKind struct{}

func (tupleKind) MatchObject(env *Env, v any) bool {
	return !env.MergeArrays() && isList(v)
}

func (tupleKind) MatchSchema(env *Env, s Schema) bool {
	if !matchType(s, "array") {
		return false
	}
	items, ok := s["items"]
	if !ok {
		return !env.MergeArrays()
	}
	return isList(items)
}

func (tupleKind) New(env *Env) Strategy {
	return &tupleStrategy{Base: NewBase(env, "items")}
}

// tupleStrategy keeps one child node per array position. Positions are added
// as longer arrays show up and never removed.
type tupleStrategy struct {
	Base
	items []*Node
}

func (s *tupleStrategy) MatchObject(v any) bool { return isList(v) }

func (s *tupleStrategy) MatchSchema(sch Schema) bool {
	if !matchType(sch, "array") {
		return false
	}
	items, ok := sch["items"]
	return !ok || isList(items)
}

func (s *tupleStrategy) grow(n int) {
	for len(s.items) < n {
		s.items = append(s.items, s.Env.NewNode())
	}
}

func (s *tupleStrategy) AddObject(v any) error {
	l, _ := asList(v)
	s.grow(len(l))
	for i, e := range l {
		if err := s.items[i].AddObject(e); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *tupleStrategy) AddSchema(sch Schema) error {
	if err := s.Base.AddSchema(sch); err != nil {
		return err
	}
	raw, ok := sch["items"]
	if !ok {
		return nil
	}
	items, ok := asList(raw)
	if !ok {
		return fmt.Errorf("%w: tuple items must be a list, got %T", ErrInvalidSchema, raw)
	}
	s.grow(len(items))
	for i, item := range items {
		if err := s.items[i].AddSchema(item); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *tupleStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["type"] = "array"
	if len(s.items) > 0 {
		items := make([]Schema, len(s.items))
		for i, n := range s.items {
			items[i] = n.ToSchema()
		}
		out["items"] = items
	}
	if !s.Env.AdditionalItems() {
		out["additionalItems"] = false
	}
	return out
}
