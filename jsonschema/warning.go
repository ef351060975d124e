package jsonschema

import "fmt"

type WarningCode string

const (
	// WarnConflictingKeyword means two fragments disagreed on a keyword the
	// engine passes through. The first value is kept.
	WarnConflictingKeyword WarningCode = "conflicting-keyword"

	// WarnTypelessSchema means a fragment without "type" carried structural
	// keywords, so the merged result may be more permissive than intended.
	WarnTypelessSchema WarningCode = "typeless-schema"
)

// Warning is a non-fatal diagnostic raised while merging.
type Warning struct {
	Code    WarningCode
	Keyword string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func conflictWarning(keyword string, kept, dropped any) Warning {
	return Warning{
		Code:    WarnConflictingKeyword,
		Keyword: keyword,
		Message: fmt.Sprintf("schema incompatible, keyword %q has conflicting values (%v vs. %v), using %v", keyword, kept, dropped, kept),
	}
}

func typelessWarning(s Schema) Warning {
	return Warning{
		Code:    WarnTypelessSchema,
		Message: fmt.Sprintf("schema with no type added, result may be incompletely merged and over-permissive: %v", map[string]any(s)),
	}
}
