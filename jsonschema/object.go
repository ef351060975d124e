package jsonschema

import (
	"fmt"
	"regexp"
	"sort"
)

var ObjectKind Kind = objectKind{}

type objectKind struct{}

func (objectKind) MatchObject(_ *Env, v any) bool    { return isMap(v) }
func (objectKind) MatchSchema(_ *Env, s Schema) bool { return matchType(s, "object") }

func (objectKind) New(env *Env) Strategy {
	s := &objectStrategy{
		Base:       NewBase(env, "properties", "patternProperties", "required"),
		properties: map[string]*Node{},
	}
	for _, re := range env.patterns {
		s.patterns = append(s.patterns, &patternNode{re: re, node: env.NewNode()})
	}
	return s
}

// patternNode is a patternProperties child. Configured patterns are only
// emitted once a key has matched them.
type patternNode struct {
	re       *regexp.Regexp
	node     *Node
	declared bool
}

// stringSet is nil until the first observation constrains it.
type stringSet map[string]struct{}

func newStringSet(keys []string) stringSet {
	s := make(stringSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s stringSet) intersect(keys []string) stringSet {
	other := newStringSet(keys)
	out := stringSet{}
	for k := range s {
		if _, ok := other[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

type objectStrategy struct {
	Base
	properties map[string]*Node
	order      []string
	patterns   []*patternNode
	required   stringSet
}

func (s *objectStrategy) MatchObject(v any) bool      { return isMap(v) }
func (s *objectStrategy) MatchSchema(sch Schema) bool { return matchType(sch, "object") }

func (s *objectStrategy) property(name string) *Node {
	n, ok := s.properties[name]
	if !ok {
		n = s.Env.NewNode()
		s.properties[name] = n
		s.order = append(s.order, name)
	}
	return n
}

func (s *objectStrategy) pattern(expr string) (*Node, error) {
	for _, p := range s.patterns {
		if p.re.String() == expr {
			p.declared = true
			return p.node, nil
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: patternProperties %q: %v", ErrInvalidSchema, expr, err)
	}
	p := &patternNode{re: re, node: s.Env.NewNode(), declared: true}
	s.patterns = append(s.patterns, p)
	return p.node, nil
}

// route finds the child for key: an existing property first, then the single
// matching pattern. A key no pattern matches becomes a new property.
func (s *objectStrategy) route(key string) (n *Node, patterned bool, err error) {
	if n, ok := s.properties[key]; ok {
		return n, false, nil
	}
	var match *patternNode
	for _, p := range s.patterns {
		if !p.re.MatchString(key) {
			continue
		}
		if match != nil {
			return nil, false, fmt.Errorf("%w: %q matches %q and %q", ErrAmbiguousPattern, key, match.re, p.re)
		}
		match = p
	}
	if match != nil {
		return match.node, true, nil
	}
	return s.property(key), false, nil
}

func (s *objectStrategy) AddObject(v any) error {
	obj, _ := asSchema(v)
	keys := sortedKeys(obj)
	named := make([]string, 0, len(keys))
	for _, key := range keys {
		n, patterned, err := s.route(key)
		if err != nil {
			return err
		}
		if err := n.AddObject(obj[key]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if !patterned {
			named = append(named, key)
		}
	}
	if !s.Env.TrackRequired() {
		return nil
	}
	if s.required == nil {
		s.required = newStringSet(named)
	} else {
		s.required = s.required.intersect(named)
	}
	return nil
}

func (s *objectStrategy) AddSchema(sch Schema) error {
	if err := s.Base.AddSchema(sch); err != nil {
		return err
	}
	if raw, ok := sch["properties"]; ok && raw != nil {
		props, ok := asSchema(raw)
		if !ok {
			return fmt.Errorf("%w: properties must be an object, got %T", ErrInvalidSchema, raw)
		}
		for _, name := range sortedKeys(props) {
			if err := s.property(name).AddSchema(props[name]); err != nil {
				return fmt.Errorf("properties.%s: %w", name, err)
			}
		}
	}
	if raw, ok := sch["patternProperties"]; ok && raw != nil {
		patterns, ok := asSchema(raw)
		if !ok {
			return fmt.Errorf("%w: patternProperties must be an object, got %T", ErrInvalidSchema, raw)
		}
		for _, expr := range sortedKeys(patterns) {
			n, err := s.pattern(expr)
			if err != nil {
				return err
			}
			if err := n.AddSchema(patterns[expr]); err != nil {
				return fmt.Errorf("patternProperties.%s: %w", expr, err)
			}
		}
	}
	if raw, ok := sch["required"]; ok {
		list, ok := asList(raw)
		if !ok {
			return fmt.Errorf("%w: required must be a list, got %T", ErrInvalidSchema, raw)
		}
		names := make([]string, 0, len(list))
		for _, e := range list {
			name, ok := e.(string)
			if !ok {
				return fmt.Errorf("%w: required entries must be strings, got %T", ErrInvalidSchema, e)
			}
			names = append(names, name)
		}
		if s.required == nil {
			s.required = newStringSet(names)
		} else {
			s.required = s.required.intersect(names)
		}
	}
	return nil
}

func (s *objectStrategy) ToSchema() Schema {
	out := s.Base.ToSchema()
	out["type"] = "object"
	if len(s.order) > 0 {
		props := make(Schema, len(s.order))
		for _, name := range s.order {
			props[name] = s.properties[name].ToSchema()
		}
		out["properties"] = props
	}
	patterns := Schema{}
	for _, p := range s.patterns {
		if p.declared || p.node.Len() > 0 {
			patterns[p.re.String()] = p.node.ToSchema()
		}
	}
	if len(patterns) > 0 {
		out["patternProperties"] = patterns
	}
	if len(s.required) > 0 || (s.required != nil && s.Env.mergeForm) {
		req := make([]string, 0, len(s.required))
		for k := range s.required {
			req = append(req, k)
		}
		sort.Strings(req)
		out["required"] = req
	}
	if !s.Env.AdditionalProperties() {
		out["additionalProperties"] = false
	}
	return out
}
