package infer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLError reports the zero-based index of the document that failed.
type YAMLError struct {
	Document int
	Err      error
}

func (e *YAMLError) Error() string {
	return fmt.Sprintf("document %d: %v", e.Document, e.Err)
}

func (e *YAMLError) Unwrap() error {
	return e.Err
}

// ParseYAML decodes every document of a YAML stream into the same native
// values ParseSampleBodyBytes produces.
func ParseYAML(r io.Reader) ([]any, error) {
	var docs []any
	dec := yaml.NewDecoder(r)
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &YAMLError{Document: len(docs), Err: err}
		}
		docs = append(docs, yamlNormalizeValue(node))
	}
	return docs, nil
}

// yamlNormalizeValue turns map[any]any into map[string]any and timestamps
// into RFC 3339 strings, recursively.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = yamlNormalizeValue(vv)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	return v
}
