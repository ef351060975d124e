package jsonschema

import "log/slog"

const (
	DefaultURI = "http://json-schema.org/schema#"

	// NullURI as a schema URI suppresses the "$schema" keyword.
	NullURI = "NULL"
)

type settings struct {
	uri         string
	uriSet      bool
	mergeArrays bool
	addItems    bool
	addProps    bool
	required    bool
	patterns    []string
	kinds       []Kind
	logger      *slog.Logger
}

func defaultSettings() settings {
	return settings{
		mergeArrays: true,
		addItems:    true,
		addProps:    true,
		required:    true,
	}
}

type Option func(*settings)

// WithSchemaURI sets the "$schema" value. NullURI omits the keyword.
func WithSchemaURI(uri string) Option {
	return func(s *settings) {
		s.uri = uri
		s.uriSet = true
	}
}

func WithoutSchemaURI() Option {
	return WithSchemaURI(NullURI)
}

// WithMergeArrays selects between one shared "items" schema for every array
// element (true, the default) and one schema per array position.
func WithMergeArrays(merge bool) Option {
	return func(s *settings) { s.mergeArrays = merge }
}

// WithAdditionalItems(false) emits "additionalItems": false on tuple arrays.
func WithAdditionalItems(allow bool) Option {
	return func(s *settings) { s.addItems = allow }
}

// WithAdditionalProperties(false) emits "additionalProperties": false on objects.
func WithAdditionalProperties(allow bool) Option {
	return func(s *settings) { s.addProps = allow }
}

// WithPatternProperties routes property names matching any of the regular
// expressions to "patternProperties". Patterns are compiled by New.
func WithPatternProperties(patterns ...string) Option {
	return func(s *settings) { s.patterns = append(s.patterns, patterns...) }
}

// WithRequired(false) stops observed objects from contributing to "required".
// Declared "required" lists in merged schemas still apply.
func WithRequired(track bool) Option {
	return func(s *settings) { s.required = track }
}

// WithStrategies registers extra strategy kinds, consulted before the
// built-in ones.
func WithStrategies(kinds ...Kind) Option {
	return func(s *settings) { s.kinds = append(s.kinds, kinds...) }
}

// WithLogger reports warnings through logger as they happen.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// Config is the serializable form of the builder options.
type Config struct {
	SchemaURI            string   `mapstructure:"schema_uri" json:"schema_uri,omitempty"`
	MergeArrays          bool     `mapstructure:"merge_arrays" json:"merge_arrays"`
	AdditionalItems      bool     `mapstructure:"additional_items" json:"additional_items"`
	AdditionalProperties bool     `mapstructure:"additional_properties" json:"additional_properties"`
	MatchProps           []string `mapstructure:"match_props" json:"match_props,omitempty"`
	Required             bool     `mapstructure:"required" json:"required"`
}

func DefaultConfig() Config {
	return Config{
		MergeArrays:          true,
		AdditionalItems:      true,
		AdditionalProperties: true,
		Required:             true,
	}
}

// Options converts c. An empty SchemaURI leaves the URI unset.
func (c Config) Options() []Option {
	opts := []Option{
		WithMergeArrays(c.MergeArrays),
		WithAdditionalItems(c.AdditionalItems),
		WithAdditionalProperties(c.AdditionalProperties),
		WithRequired(c.Required),
	}
	if c.SchemaURI != "" {
		opts = append(opts, WithSchemaURI(c.SchemaURI))
	}
	if len(c.MatchProps) > 0 {
		opts = append(opts, WithPatternProperties(c.MatchProps...))
	}
	return opts
}
