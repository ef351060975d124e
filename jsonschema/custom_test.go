package jsonschema_test

import (
	"testing"

	"github.com/siegeai/schemagen/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maxTenKind replaces the built-in number strategy with one that caps
// every number at ten.
type maxTenKind struct{}

func (maxTenKind) MatchObject(env *jsonschema.Env, v any) bool {
	return jsonschema.NumberKind.MatchObject(env, v)
}

func (maxTenKind) MatchSchema(env *jsonschema.Env, s jsonschema.Schema) bool {
	return jsonschema.NumberKind.MatchSchema(env, s)
}

func (maxTenKind) New(env *jsonschema.Env) jsonschema.Strategy {
	return &maxTen{NumberStrategy: jsonschema.NewNumber(env, "maximum")}
}

type maxTen struct {
	*jsonschema.NumberStrategy
}

func (m *maxTen) ToSchema() jsonschema.Schema {
	s := m.NumberStrategy.ToSchema()
	s["maximum"] = 10
	return s
}

func TestCustomStrategyAddObject(t *testing.T) {
	b, err := jsonschema.New(jsonschema.WithStrategies(maxTenKind{}))
	require.NoError(t, err)
	require.NoError(t, b.AddObject(5))

	bs, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"$schema":"http://json-schema.org/schema#","type":"integer","maximum":10}`, string(bs))
}

func TestCustomStrategyAddSchema(t *testing.T) {
	b, err := jsonschema.New(jsonschema.WithStrategies(maxTenKind{}))
	require.NoError(t, err)
	require.NoError(t, b.AddSchema(jsonschema.Schema{"type": "integer", "maximum": 99}))

	bs, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"$schema":"http://json-schema.org/schema#","type":"integer","maximum":10}`, string(bs))
	assert.Empty(t, b.Warnings())
}

func TestCustomStrategyLeavesOtherTypes(t *testing.T) {
	b, err := jsonschema.New(jsonschema.WithStrategies(maxTenKind{}), jsonschema.WithoutSchemaURI())
	require.NoError(t, err)
	require.NoError(t, b.AddObject([]any{1.5, "x"}))

	bs, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"array","items":{"anyOf":[{"type":"string"},{"type":"number","maximum":10}]}}`, string(bs))
}
