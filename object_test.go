package serializr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_SerializeDelegatesToNestedSchema(t *testing.T) {
	address := CreateSimpleSchema(Props{"city": true})
	prop := Object(func() *ModelSchema { return address })

	got, err := prop.Serialize(map[string]any{"city": "nyc", "ignored": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "nyc"}, got)
}

func TestObject_SerializeNilPassesThrough(t *testing.T) {
	address := CreateSimpleSchema(Props{"city": true})
	prop := Object(func() *ModelSchema { return address })

	got, err := prop.Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestObject_DeserializeBuildsNestedInstance(t *testing.T) {
	address := CreateSimpleSchema(Props{"city": true})
	prop := Object(func() *ModelSchema { return address })
	schema := CreateSimpleSchema(Props{"address": prop})

	var got any
	Deserialize(schema, map[string]any{"address": map[string]any{"city": "nyc"}}, func(err error, value any) {
		require.NoError(t, err)
		got = value
	}, nil)

	assert.Equal(t, map[string]any{"city": "nyc"}, got.(map[string]any)["address"])
}

func TestObject_SupportsCyclicSchemaViaLazyRef(t *testing.T) {
	// node.child is a self-reference; resolving the ref eagerly at
	// definition time would capture nil, since node is not yet assigned.
	var node *ModelSchema
	node = CreateSimpleSchema(Props{
		"value": true,
		"child": Object(func() *ModelSchema { return node }),
	})

	var got any
	Deserialize(node, map[string]any{
		"value": "root",
		"child": map[string]any{"value": "leaf"},
	}, func(err error, value any) {
		require.NoError(t, err)
		got = value
	}, nil)

	m := got.(map[string]any)
	assert.Equal(t, "root", m["value"])
	assert.Equal(t, "leaf", m["child"].(map[string]any)["value"])
}
