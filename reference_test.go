package serializr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference_PanicsWithoutIdentifierOnSchemaTarget(t *testing.T) {
	noIdentifier := CreateSimpleSchema(Props{"name": true})
	prop := Reference(noIdentifier, nil)

	// The target schema is only resolved on first use, so the missing
	// identifier surfaces when the reference is first exercised.
	assert.PanicsWithValue(t, ErrNoIdentifier, func() {
		_, _ = prop.Serialize(map[string]any{"name": "ada"})
	})
}

func TestReference_ResolvesTargetSchemaLazily(t *testing.T) {
	// The referenced schema grows its identifier only after the Reference
	// has been constructed; resolution at first use must still find it.
	author := CreateSimpleSchema(Props{"name": true})
	prop := Reference(author, nil)
	author.setProp("id", Identifier(nil))

	got, err := prop.Serialize(map[string]any{"id": "a1", "name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
}

func TestReference_PanicsWithoutLookupOnStringTarget(t *testing.T) {
	assert.PanicsWithValue(t, ErrMissingLookup, func() {
		Reference("authorId", nil)
	})
}

func TestReference_StringTargetUsesExplicitLookup(t *testing.T) {
	calls := 0
	lookup := func(id any, done Callback, ctx *Context) {
		calls++
		done(nil, "resolved-"+id.(string))
	}
	prop := Reference("authorId", lookup)

	var got any
	prop.Deserialize("a1", func(err error, value any) {
		require.NoError(t, err)
		got = value
	}, NewRootContext(nil, nil, func(error, any) {}, nil), nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "resolved-a1", got)
}

func TestReference_SerializeExtractsIdentifierField(t *testing.T) {
	author := CreateSimpleSchema(Props{})
	author.setProp("id", Identifier(nil))
	prop := Reference(author, nil)

	got, err := prop.Serialize(map[string]any{"id": "a1", "name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
}

func TestReference_SerializeNilValueProducesNil(t *testing.T) {
	author := CreateSimpleSchema(Props{})
	author.setProp("id", Identifier(nil))
	prop := Reference(author, nil)

	got, err := prop.Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReference_DeserializeNilJSONSkipsLookup(t *testing.T) {
	lookupCalled := false
	lookup := func(id any, done Callback, ctx *Context) {
		lookupCalled = true
		done(nil, id)
	}
	prop := referencePropSchema(func() (string, *ModelSchema) { return "id", nil }, lookup)

	var got any
	done := false
	root := NewRootContext(nil, nil, func(error, any) {}, nil)
	cb := root.CreateCallback(func(v any) { done = true; got = v })
	prop.Deserialize(nil, cb, root, nil)

	assert.False(t, lookupCalled)
	assert.True(t, done)
	assert.Nil(t, got)
}
