package infer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseObjectEmpty(t *testing.T) {
	bs := []byte("{}")
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{}, s)
}

func TestParseObjectOneFieldString(t *testing.T) {
	bs := []byte(`{"field": "string-val"}`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"field": "string-val"}, s)
}

func TestParseEscapedString(t *testing.T) {
	bs := []byte(`"a\"bé"`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, "a\"bé", s)
}

func TestParseObjectOneFieldNumber(t *testing.T) {
	bs := []byte(`{"field": 1234}`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"field": int64(1234)}, s)
}

func TestParseNumberKinds(t *testing.T) {
	tests := []struct {
		in       string
		expected any
	}{
		{`0`, int64(0)},
		{`-12`, int64(-12)},
		{`1.0`, 1.0},
		{`1e3`, 1000.0},
		{`25E-1`, 2.5},
		{`123456789012345678901234567890`, json.Number("123456789012345678901234567890")},
	}
	for _, tt := range tests {
		v, err := ParseSampleBodyBytes([]byte(tt.in))
		assert.Nil(t, err, tt.in)
		assert.Equal(t, tt.expected, v, tt.in)
	}
}

func TestParseObjectOneFieldBool(t *testing.T) {
	bs := []byte(`{"field": true, "other": false}`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"field": true, "other": false}, s)
}

func TestParseObjectOneFieldNull(t *testing.T) {
	bs := []byte(`{"field": null}`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"field": nil}, s)
}

func TestParseNested(t *testing.T) {
	bs := []byte(`{"a": [1, {"b": []}], "c": {}}`)
	s, err := ParseSampleBodyBytes(bs)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{
		"a": []any{int64(1), map[string]any{"b": []any{}}},
		"c": map[string]any{},
	}, s)
}

func TestParseInvalid(t *testing.T) {
	_, err := ParseSampleBodyBytes([]byte(`{"a": }`))
	assert.NotNil(t, err)

	_, err = ParseSampleBodyBytes([]byte(`{"a": 1} {"b": 2}`))
	assert.NotNil(t, err)
}
