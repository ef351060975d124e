package jsonschema

import "errors"

var (
	// ErrNoMatchingStrategy is returned when no strategy accepts a value or
	// schema fragment, for example an unknown "type" name.
	ErrNoMatchingStrategy = errors.New("no matching strategy")

	// ErrAmbiguousPattern is returned when a property name matches more than
	// one patternProperties pattern.
	ErrAmbiguousPattern = errors.New("property matches more than one pattern")

	// ErrUnsupportedEnumValue is returned when a non-scalar is added to an enum.
	ErrUnsupportedEnumValue = errors.New("unsupported enum value")

	ErrInvalidSchema = errors.New("invalid schema")
)
