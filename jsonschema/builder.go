package jsonschema

import (
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Builder infers a JSON Schema from sample objects and merges existing
// schemas into it.
//
// A Builder is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access, or build separately and Merge.
type Builder struct {
	env  *Env
	root *Node

	uri    string
	uriSet bool
}

func New(opts ...Option) (*Builder, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	env, err := newEnv(s)
	if err != nil {
		return nil, err
	}
	return &Builder{
		env:    env,
		root:   env.NewNode(),
		uri:    s.uri,
		uriSet: s.uriSet,
	}, nil
}

// AddObject adds a decoded JSON value.
func (b *Builder) AddObject(v any) error {
	return b.root.AddObject(v)
}

// AddSchema merges a decoded schema. A top level "$schema" becomes the
// builder's URI unless one was already chosen.
func (b *Builder) AddSchema(v any) error {
	if s, ok := asSchema(v); ok {
		if uri, ok := s["$schema"]; ok {
			if !b.uriSet || b.uri == "" {
				u, ok := uri.(string)
				if !ok {
					return fmt.Errorf("%w: $schema must be a string, got %T", ErrInvalidSchema, uri)
				}
				b.uri, b.uriSet = u, true
			}
			s = s.Clone()
			delete(s, "$schema")
			v = s
		}
	}
	return b.root.AddSchema(v)
}

// Merge adds everything other has seen. Other's URI is taken only if it was
// chosen explicitly. other must not be used concurrently with Merge.
func (b *Builder) Merge(other *Builder) error {
	other.env.mergeForm = true
	s := other.root.ToSchema()
	other.env.mergeForm = false
	if other.uriSet && other.uri != NullURI {
		s["$schema"] = other.uri
	}
	return b.AddSchema(s)
}

// URI returns the "$schema" value ToSchema emits, or "" when it is omitted.
func (b *Builder) URI() string {
	switch {
	case !b.uriSet, b.uri == "":
		return DefaultURI
	case b.uri == NullURI:
		return ""
	}
	return b.uri
}

func (b *Builder) ToSchema() Schema {
	out := Schema{}
	if uri := b.URI(); uri != "" {
		out["$schema"] = uri
	}
	for k, v := range b.root.ToSchema() {
		out[k] = v
	}
	return out
}

func (b *Builder) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(b.ToSchema())
}

// ToJSON encodes the schema, indented by indent spaces when indent > 0.
func (b *Builder) ToJSON(indent int) ([]byte, error) {
	if indent <= 0 {
		return b.MarshalJSON()
	}
	return gojson.MarshalIndent(b.ToSchema(), "", strings.Repeat(" ", indent))
}

// Len is the number of strategies at the root.
func (b *Builder) Len() int {
	return b.root.Len()
}

// Empty reports whether nothing has been added. The URI is not considered.
func (b *Builder) Empty() bool {
	return b.root.Len() == 0
}

// Equal compares the inferred schemas, ignoring the URI.
func (b *Builder) Equal(other *Builder) bool {
	if b == other {
		return true
	}
	if other == nil {
		return false
	}
	return b.root.Equal(other.root)
}

// Warnings returns the diagnostics raised so far.
func (b *Builder) Warnings() []Warning {
	return append([]Warning(nil), b.env.warnings...)
}
