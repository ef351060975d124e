package jsonschema_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemagen "github.com/siegeai/schemagen/jsonschema"
)

// decodeSample decodes one JSON document the way the validator expects its
// instances: numbers as json.Number.
func decodeSample(t *testing.T, r io.Reader) any {
	t.Helper()
	var v any
	d := json.NewDecoder(r)
	d.UseNumber()
	require.NoError(t, d.Decode(&v))
	return v
}

// Every sample a schema was generated from must validate against it.
func TestSamplesValidateAgainstGeneratedSchema(t *testing.T) {
	tests := []struct {
		name    string
		opts    []schemagen.Option
		samples []string
	}{
		{"scalars", nil, []string{`1`, `"a"`, `null`, `true`, `2.5`}},
		{"objects", nil, []string{
			`{"id": 1, "name": "a", "tags": ["x", "y"]}`,
			`{"id": 2, "tags": [], "extra": {"nested": [1, 2.5, null]}}`,
		}},
		{"tuples", []schemagen.Option{schemagen.WithMergeArrays(false), schemagen.WithAdditionalItems(false)}, []string{
			`[1, "a", {"k": true}]`,
			`[2]`,
			`[3, null, {"k": false, "j": 1}, "tail"]`,
		}},
		{"closed objects", []schemagen.Option{schemagen.WithAdditionalProperties(false)}, []string{
			`{"a": {"b": 1}}`,
			`{"a": {"c": "x"}, "d": null}`,
		}},
		{"patterns", []schemagen.Option{schemagen.WithPatternProperties(`^x-`)}, []string{
			`{"x-a": 1, "x-b": "s", "name": "n"}`,
			`{"name": "m"}`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := schemagen.New(append([]schemagen.Option{schemagen.WithoutSchemaURI()}, tt.opts...)...)
			require.NoError(t, err)

			var docs []any
			for _, sample := range tt.samples {
				doc := decodeSample(t, strings.NewReader(sample))
				require.NoError(t, b.AddObject(doc))
				docs = append(docs, doc)
			}

			bs, err := b.MarshalJSON()
			require.NoError(t, err)

			c := jsonschema.NewCompiler()
			c.Draft = jsonschema.Draft7
			require.NoError(t, c.AddResource("schema.json", bytes.NewReader(bs)))
			compiled, err := c.Compile("schema.json")
			require.NoError(t, err, string(bs))

			for i, doc := range docs {
				assert.NoError(t, compiled.Validate(doc), "sample %d against %s", i, bs)
			}
		})
	}
}

func TestGeneratedSchemaRejectsMissingRequired(t *testing.T) {
	b, err := schemagen.New(schemagen.WithoutSchemaURI())
	require.NoError(t, err)
	require.NoError(t, b.AddObject(map[string]any{"a": 1, "b": "x"}))

	bs, err := b.MarshalJSON()
	require.NoError(t, err)

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	require.NoError(t, c.AddResource("schema.json", bytes.NewReader(bs)))
	compiled, err := c.Compile("schema.json")
	require.NoError(t, err)

	doc := decodeSample(t, strings.NewReader(`{"a": 1}`))
	assert.Error(t, compiled.Validate(doc))
}
