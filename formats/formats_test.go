package formats

import (
	"testing"

	"github.com/siegeai/schemagen/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"3f2c8a34-5a7e-4f1c-9d0b-0e1f2a3b4c5d", UUID},
		{"2023-10-01T12:30:00Z", DateTime},
		{"2023-10-01T12:30:00.123+02:00", DateTime},
		{"2023-10-01", Date},
		{"2023-13-01", ""},
		{"10.0.0.1", IPv4},
		{"2001:db8::1", IPv6},
		{"cheese@example.com", Email},
		{"Cheese <cheese@example.com>", ""},
		{"gruyere", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Detect(tt.in), tt.in)
	}
}

func newBuilder(t *testing.T) *jsonschema.Builder {
	t.Helper()
	b, err := jsonschema.New(jsonschema.WithoutSchemaURI(), jsonschema.WithStrategies(Kind()))
	require.NoError(t, err)
	return b
}

func schemaJSON(t *testing.T, b *jsonschema.Builder) string {
	t.Helper()
	bs, err := b.MarshalJSON()
	require.NoError(t, err)
	return string(bs)
}

func TestSharedFormat(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddObject(map[string]any{
		"id":   "3f2c8a34-5a7e-4f1c-9d0b-0e1f2a3b4c5d",
		"seen": "2023-10-01T12:30:00Z",
	}))
	require.NoError(t, b.AddObject(map[string]any{
		"id":   "7d1e2f3a-0b4c-4d5e-8f6a-7b8c9d0e1f2a",
		"seen": "2023-10-02T00:00:00Z",
	}))
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "string", "format": "uuid"},
			"seen": {"type": "string", "format": "date-time"}
		},
		"required": ["id", "seen"]
	}`, schemaJSON(t, b))
}

func TestMixedFormatsAreDropped(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddObject("2023-10-01"))
	require.NoError(t, b.AddObject("10.0.0.1"))
	require.NoError(t, b.AddObject("2023-10-02"))
	assert.JSONEq(t, `{"type":"string"}`, schemaJSON(t, b))
}

func TestPlainStringDropsFormat(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddObject("spam"))
	require.NoError(t, b.AddObject("10.0.0.1"))
	assert.JSONEq(t, `{"type":"string"}`, schemaJSON(t, b))
}

func TestSchemaFormatMerges(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddSchema(jsonschema.Schema{"type": "string", "format": "email"}))
	require.NoError(t, b.AddObject("a@example.com"))
	assert.JSONEq(t, `{"type":"string","format":"email"}`, schemaJSON(t, b))

	require.NoError(t, b.AddSchema(jsonschema.Schema{"type": "string"}))
	assert.JSONEq(t, `{"type":"string"}`, schemaJSON(t, b))
}

func TestTitleFoldedBeforeFirstValue(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddSchema(jsonschema.Schema{"title": "When"}))
	require.NoError(t, b.AddObject("2023-10-01"))
	assert.JSONEq(t, `{"type":"string","title":"When","format":"date"}`, schemaJSON(t, b))
}
