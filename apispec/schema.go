// Package apispec renders inferred JSON Schemas as OpenAPI 3 documents.
package apispec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/siegeai/schemagen/jsonschema"
)

var ErrUnsupportedSchema = errors.New("schema has no openapi equivalent")

// FromSchema converts a JSON Schema fragment into an OpenAPI 3.0 schema.
//
// OpenAPI 3.0 has no "null" type, so null joins the other types through
// nullable. Type unions become anyOf, tuple items become an anyOf of the
// positions and patternProperties become additionalProperties. Keywords
// without an OpenAPI field are kept as x- extensions.
func FromSchema(s jsonschema.Schema) (*openapi3.Schema, error) {
	out := &openapi3.Schema{}

	types, err := typeNames(s["type"])
	if err != nil {
		return nil, err
	}
	var nonNull []string
	for _, t := range types {
		if t == "null" {
			out.Nullable = true
			continue
		}
		nonNull = append(nonNull, t)
	}

	if len(nonNull) > 1 {
		// each branch keeps the structural keywords that apply to it
		for _, t := range nonNull {
			branch := s.Clone()
			branch["type"] = t
			delete(branch, "anyOf")
			delete(branch, "enum")
			sch, err := FromSchema(branch)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, sch.NewRef())
		}
		if enum, ok := s["enum"]; ok {
			out.Enum, _ = enum.([]any)
		}
		return out, nil
	}
	if len(nonNull) == 1 {
		out.Type = nonNull[0]
	}

	for _, k := range sortedKeys(s) {
		v := s[k]
		switch k {
		case "type", "$schema":
		case "title":
			out.Title = fmt.Sprint(v)
		case "description":
			out.Description = fmt.Sprint(v)
		case "format":
			out.Format = fmt.Sprint(v)
		case "pattern":
			out.Pattern = fmt.Sprint(v)
		case "default":
			out.Default = v
		case "minimum":
			out.Min = floatPtr(v)
		case "maximum":
			out.Max = floatPtr(v)
		case "enum":
			l, ok := toList(v)
			if !ok {
				return nil, fmt.Errorf("%w: enum %T", ErrUnsupportedSchema, v)
			}
			out.Enum = l
		case "required":
			l, ok := toList(v)
			if !ok {
				return nil, fmt.Errorf("%w: required %T", ErrUnsupportedSchema, v)
			}
			for _, name := range l {
				out.Required = append(out.Required, fmt.Sprint(name))
			}
		case "properties":
			props, ok := toSchema(v)
			if !ok {
				return nil, fmt.Errorf("%w: properties %T", ErrUnsupportedSchema, v)
			}
			out.Properties = make(openapi3.Schemas, len(props))
			for _, name := range sortedKeys(props) {
				sub, err := fromValue(props[name])
				if err != nil {
					return nil, fmt.Errorf("properties.%s: %w", name, err)
				}
				out.Properties[name] = sub.NewRef()
			}
		case "patternProperties":
			sub, err := fromPatterns(v)
			if err != nil {
				return nil, err
			}
			out.AdditionalProperties.Schema = sub.NewRef()
			out.Extensions = extend(out.Extensions, "x-patternProperties", v)
		case "additionalProperties":
			switch ap := v.(type) {
			case bool:
				if !ap {
					has := false
					out.AdditionalProperties.Has = &has
				}
			default:
				sub, err := fromValue(ap)
				if err != nil {
					return nil, fmt.Errorf("additionalProperties: %w", err)
				}
				out.AdditionalProperties.Schema = sub.NewRef()
			}
		case "items":
			if l, ok := toList(v); ok {
				tuple := &openapi3.Schema{}
				for i, e := range l {
					sub, err := fromValue(e)
					if err != nil {
						return nil, fmt.Errorf("items[%d]: %w", i, err)
					}
					tuple.AnyOf = append(tuple.AnyOf, sub.NewRef())
				}
				out.Items = tuple.NewRef()
				out.Extensions = extend(out.Extensions, "x-tuple", true)
				break
			}
			sub, err := fromValue(v)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			out.Items = sub.NewRef()
		case "anyOf":
			l, ok := toList(v)
			if !ok {
				return nil, fmt.Errorf("%w: anyOf %T", ErrUnsupportedSchema, v)
			}
			for i, e := range l {
				sub, err := fromValue(e)
				if err != nil {
					return nil, fmt.Errorf("anyOf[%d]: %w", i, err)
				}
				out.AnyOf = append(out.AnyOf, sub.NewRef())
			}
		default:
			out.Extensions = extend(out.Extensions, "x-"+k, v)
		}
	}

	if out.Type == openapi3.TypeArray && out.Items == nil {
		out.Items = openapi3.NewSchemaRef("", &openapi3.Schema{})
	}
	return out, nil
}

func fromValue(v any) (*openapi3.Schema, error) {
	switch t := v.(type) {
	case nil:
		return &openapi3.Schema{}, nil
	case bool:
		if !t {
			return nil, fmt.Errorf("%w: false schema", ErrUnsupportedSchema)
		}
		return &openapi3.Schema{}, nil
	}
	s, ok := toSchema(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSchema, v)
	}
	return FromSchema(s)
}

func fromPatterns(v any) (*openapi3.Schema, error) {
	patterns, ok := toSchema(v)
	if !ok {
		return nil, fmt.Errorf("%w: patternProperties %T", ErrUnsupportedSchema, v)
	}
	var subs []*openapi3.Schema
	for _, p := range sortedKeys(patterns) {
		sub, err := fromValue(patterns[p])
		if err != nil {
			return nil, fmt.Errorf("patternProperties.%s: %w", p, err)
		}
		subs = append(subs, sub)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	out := &openapi3.Schema{}
	for _, sub := range subs {
		out.AnyOf = append(out.AnyOf, sub.NewRef())
	}
	return out, nil
}

func typeNames(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		names := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: type entry %T", ErrUnsupportedSchema, e)
			}
			names = append(names, s)
		}
		return names, nil
	}
	return nil, fmt.Errorf("%w: type %T", ErrUnsupportedSchema, v)
}

func toSchema(v any) (jsonschema.Schema, bool) {
	switch s := v.(type) {
	case jsonschema.Schema:
		return s, true
	case map[string]any:
		return s, true
	}
	return nil, false
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	case []jsonschema.Schema:
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func floatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil
	}
	return &f
}

func extend(ext map[string]any, k string, v any) map[string]any {
	if ext == nil {
		ext = map[string]any{}
	}
	ext[k] = v
	return ext
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document wraps named schemas in an OpenAPI document under
// components.schemas.
func Document(title, version string, schemas map[string]jsonschema.Schema) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas, len(schemas)),
		},
	}
	for name, s := range schemas {
		sch, err := FromSchema(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		doc.Components.Schemas[name] = sch.NewRef()
	}
	return doc, nil
}
