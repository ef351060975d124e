package infer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siegeai/schemagen/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder() (*jsonschema.Builder, error) {
	return jsonschema.New(jsonschema.WithoutSchemaURI())
}

func schemaJSON(t *testing.T, b *jsonschema.Builder) string {
	t.Helper()
	bs, err := b.MarshalJSON()
	require.NoError(t, err)
	return string(bs)
}

func TestAddObjectsAutoDetect(t *testing.T) {
	b, err := newBuilder()
	require.NoError(t, err)

	err = AddObjects(b, "stdin", strings.NewReader(`{"a": 1} {"a": 2.5, "b": "x"}`), DecodeOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"a": {"type": "number"}, "b": {"type": "string"}},
		"required": ["a"]
	}`, schemaJSON(t, b))
}

func TestAddObjectsNewlineDelimited(t *testing.T) {
	b, err := newBuilder()
	require.NoError(t, err)

	err = AddObjects(b, "stdin", strings.NewReader("1\n\"a\"\nnull\n"), DecodeOptions{Delimiter: "newline"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":["integer","null","string"]}`, schemaJSON(t, b))
}

func TestAddSchemasMerges(t *testing.T) {
	b, err := jsonschema.New()
	require.NoError(t, err)

	in := `{"$schema": "http://example.com/s#", "type": "string"}{"type": "boolean"}`
	require.NoError(t, AddSchemas(b, "seed.json", strings.NewReader(in), DecodeOptions{}))
	assert.JSONEq(t, `{"$schema":"http://example.com/s#","type":["boolean","string"]}`, schemaJSON(t, b))
}

func TestDecodeReportsLocation(t *testing.T) {
	_, err := Decode("broken.json", strings.NewReader(`{"a": 1}  {"a": }`), DecodeOptions{})
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "broken.json", perr.Source)
	assert.Equal(t, 1, perr.Document)
	assert.Equal(t, 10, perr.Offset)
	assert.Contains(t, err.Error(), "broken.json: document 1 (offset 10)")
}

func TestDecodeYAML(t *testing.T) {
	in := "a: 1\nb: [x, 2.5]\n---\na: 2\nwhen: 2023-10-01T00:00:00Z\n"
	docs, err := Decode("in.yaml", strings.NewReader(in), DecodeOptions{Format: FormatYAML})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	b, err := newBuilder()
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, b.AddObject(d))
	}
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "integer"},
			"b": {"type": "array", "items": {"type": ["number", "string"]}},
			"when": {"type": "string"}
		},
		"required": ["a"]
	}`, schemaJSON(t, b))
}

func TestDecodeYAMLReportsDocument(t *testing.T) {
	_, err := Decode("in.yaml", strings.NewReader("a: 1\n---\na: [\n"), DecodeOptions{Format: FormatYAML})
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "in.yaml", perr.Source)
	assert.Equal(t, 1, perr.Document)
	assert.Equal(t, 1, strings.Count(err.Error(), "document 1"))
	assert.True(t, strings.HasPrefix(err.Error(), "in.yaml: document 1: "), err.Error())

	_, err = ParseYAML(strings.NewReader("a: 1\n---\na: [\n"))
	var yerr *YAMLError
	require.True(t, errors.As(err, &yerr))
	assert.Equal(t, 1, yerr.Document)
}

func TestYAMLNonStringKeys(t *testing.T) {
	docs, err := ParseYAML(strings.NewReader("1: one\ntrue: yes\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	m, ok := docs[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "1")
	assert.Contains(t, m, "true")
}

func TestEngineErrorNamesDocument(t *testing.T) {
	b, err := jsonschema.New(jsonschema.WithPatternProperties("^a", "b$"))
	require.NoError(t, err)

	err = AddObjects(b, "in.json", strings.NewReader(`{"x": 1}{"ab": 1}`), DecodeOptions{})
	assert.ErrorIs(t, err, jsonschema.ErrAmbiguousPattern)
	assert.Contains(t, err.Error(), "in.json: document 1")
}

func writeFiles(t *testing.T, contents ...string) []Input {
	t.Helper()
	dir := t.TempDir()
	var inputs []Input
	for i, c := range contents {
		path := filepath.Join(dir, fmt.Sprintf("%d.json", i))
		require.NoError(t, os.WriteFile(path, []byte(c), 0o644))
		inputs = append(inputs, FileInput(path))
	}
	return inputs
}

func TestJobSequentialAndParallelAgree(t *testing.T) {
	objects := writeFiles(t,
		`{"id": 1, "tags": ["a"]}`,
		`{"id": 2, "tags": []}{"id": 3.5}`,
		`{"id": 4, "extra": null}`,
		`{"id": 5, "tags": [1]}`,
	)
	schemas := writeFiles(t, `{"type": "object", "properties": {"id": {"description": "identifier"}}}`)

	job := Job{NewBuilder: newBuilder, Schemas: schemas, Objects: objects}
	seq, err := job.Run(context.Background())
	require.NoError(t, err)

	job.Jobs = 3
	par, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.JSONEq(t, schemaJSON(t, seq), schemaJSON(t, par))
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "number", "description": "identifier"},
			"tags": {"type": "array", "items": {"type": ["integer", "string"]}},
			"extra": {"type": "null"}
		},
		"required": ["id"]
	}`, schemaJSON(t, par))
}

func TestJobParallelKeepsEmptyRequired(t *testing.T) {
	objects := writeFiles(t, `{"a": 1}{"b": 2}`, `{"a": 1, "b": 2}`)

	job := Job{NewBuilder: newBuilder, Objects: objects}
	seq, err := job.Run(context.Background())
	require.NoError(t, err)

	job.Jobs = 2
	par, err := job.Run(context.Background())
	require.NoError(t, err)

	want := `{"type": "object", "properties": {"a": {"type": "integer"}, "b": {"type": "integer"}}}`
	assert.JSONEq(t, want, schemaJSON(t, seq))
	assert.JSONEq(t, want, schemaJSON(t, par))
}

func TestJobReportsFailingFile(t *testing.T) {
	objects := writeFiles(t, `{"a": 1}`, `{"a": `)
	job := Job{NewBuilder: newBuilder, Objects: objects, Jobs: 2}
	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), objects[1].Name)
}

func TestJobMissingFile(t *testing.T) {
	job := Job{NewBuilder: newBuilder, Objects: []Input{FileInput(filepath.Join(t.TempDir(), "nope.json"))}}
	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReaderInput(t *testing.T) {
	in := ReaderInput("stdin", strings.NewReader(`"x"`))
	rc, err := in.Open()
	require.NoError(t, err)
	bs, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(bs))
}
