package jsonschema

import (
	"fmt"
	"slices"
	"sort"
)

// Node holds every strategy active at one position of the document tree,
// in the order they were created.
type Node struct {
	env        *Env
	strategies []Strategy

	// keywords sitting next to an "anyOf"
	keywords Keywords
}

// Len is the number of strategies on n. Zero means nothing was observed.
func (n *Node) Len() int {
	return len(n.strategies)
}

func (n *Node) AddObject(v any) error {
	s, err := n.strategyForObject(v)
	if err != nil {
		return err
	}
	return s.AddObject(v)
}

// AddSchema merges a fragment. "anyOf" members are merged one by one and a
// "type" list is split into one fragment per type. A nil fragment is
// ignored and true is the same as {}.
func (n *Node) AddSchema(v any) error {
	switch b := v.(type) {
	case nil:
		return nil
	case bool:
		if !b {
			return fmt.Errorf("%w: false schema cannot be merged", ErrInvalidSchema)
		}
		v = Schema{}
	case *Node:
		v = b.ToSchema()
	}
	s, ok := asSchema(v)
	if !ok {
		return fmt.Errorf("%w: expected an object, got %T", ErrInvalidSchema, v)
	}

	if raw, ok := s["anyOf"]; ok {
		members, ok := asList(raw)
		if !ok {
			return fmt.Errorf("%w: anyOf must be a list, got %T", ErrInvalidSchema, raw)
		}
		siblings := s.Clone()
		delete(siblings, "anyOf")
		n.nodeKeywords().Add(siblings)
		for i, m := range members {
			if err := n.AddSchema(m); err != nil {
				return fmt.Errorf("anyOf[%d]: %w", i, err)
			}
		}
		return nil
	}

	if types, ok := asList(s["type"]); ok && !s.Has("enum") {
		for _, t := range types {
			single := s.Clone()
			single["type"] = t
			if err := n.addSingleSchema(single); err != nil {
				return err
			}
		}
		return nil
	}
	return n.addSingleSchema(s)
}

func (n *Node) addSingleSchema(s Schema) error {
	strategy, err := n.strategyForSchema(s)
	if err != nil {
		return err
	}
	return strategy.AddSchema(s)
}

func (n *Node) nodeKeywords() *Keywords {
	if n.keywords.env == nil {
		n.keywords = NewKeywords(n.env)
	}
	return &n.keywords
}

func (n *Node) strategyForObject(v any) (Strategy, error) {
	for _, s := range n.strategies {
		if s.MatchObject(v) {
			return s, nil
		}
	}
	for _, k := range n.env.kinds {
		if k.MatchObject(n.env, v) {
			return n.create(k)
		}
	}
	return nil, fmt.Errorf("%w: object of type %T", ErrNoMatchingStrategy, v)
}

func (n *Node) strategyForSchema(s Schema) (Strategy, error) {
	for _, st := range n.strategies {
		if st.MatchSchema(s) {
			return st, nil
		}
	}
	for _, k := range n.env.kinds {
		if k.MatchSchema(n.env, s) {
			return n.create(k)
		}
	}
	if isTypeless(s) {
		if len(n.strategies) == 0 {
			n.strategies = append(n.strategies, newTypeless(n.env))
		}
		return n.strategies[0], nil
	}
	return nil, fmt.Errorf("%w: schema %v", ErrNoMatchingStrategy, map[string]any(s))
}

// create adds a strategy of kind k. A trailing typeless strategy is folded
// into it.
func (n *Node) create(k Kind) (Strategy, error) {
	s := k.New(n.env)
	if last := len(n.strategies) - 1; last >= 0 {
		if t, ok := n.strategies[last].(*typelessStrategy); ok {
			n.strategies = n.strategies[:last]
			if err := s.AddSchema(t.ToSchema()); err != nil {
				return nil, err
			}
		}
	}
	n.strategies = append(n.strategies, s)
	return s, nil
}

// ToSchema pools strategies that reduce to a bare type into one "type"
// entry and wraps what remains in "anyOf" when there is more than one.
func (n *Node) ToSchema() Schema {
	out := n.keywords.Schema()

	var types []string
	var fragments []Schema
	for _, s := range n.strategies {
		f := s.ToSchema()
		if t, ok := f["type"].(string); ok && len(f) == 1 {
			if !slices.Contains(types, t) {
				types = append(types, t)
			}
			continue
		}
		fragments = append(fragments, f)
	}

	if len(types) > 0 {
		pooled := Schema{}
		if len(types) == 1 {
			pooled["type"] = types[0]
		} else {
			sort.Strings(types)
			pooled["type"] = types
		}
		fragments = append([]Schema{pooled}, fragments...)
	}

	switch len(fragments) {
	case 0:
	case 1:
		for k, v := range fragments[0] {
			out[k] = v
		}
	default:
		out["anyOf"] = fragments
	}
	return out
}

// Equal reports whether n and other serialize to the same schema.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil {
		return false
	}
	return Equal(n.ToSchema(), other.ToSchema())
}
