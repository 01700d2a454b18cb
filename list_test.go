package serializr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_SerializeEachElement(t *testing.T) {
	prop := List(Primitive())

	got, err := prop.Serialize([]any{1, "two", 3.0})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "two", 3.0}, got)
}

func TestList_SerializeNilProducesNil(t *testing.T) {
	prop := List(nil)

	got, err := prop.Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_DeserializePreservesOrderDespiteParallelElements(t *testing.T) {
	prop := List(Primitive())
	root := NewRootContext(nil, nil, func(error, any) {}, nil)

	var got any
	cb := root.CreateCallback(func(v any) { got = v })
	prop.Deserialize([]any{1, 2, 3, 4, 5}, cb, root, nil)

	assert.Equal(t, []any{1, 2, 3, 4, 5}, got)
}

func TestList_DeserializeEmptyArrayCompletesSynchronously(t *testing.T) {
	prop := List(Primitive())
	root := NewRootContext(nil, nil, func(error, any) {}, nil)

	var got any
	fired := false
	cb := root.CreateCallback(func(v any) { fired = true; got = v })
	prop.Deserialize([]any{}, cb, root, nil)

	assert.True(t, fired)
	assert.Equal(t, []any{}, got)
}

func TestList_AggregateWaitsForAsyncElements(t *testing.T) {
	// An async inner (a reference awaiting its identifier, a remote lookup)
	// returns before its callback fires; the aggregate must not fire until
	// every element has actually resolved, and the assembled result must
	// follow input order no matter the completion order.
	var mu sync.Mutex
	var pending []func()
	inner := &PropSchema{
		Deserialize: func(json any, done Callback, _ *Context, _ any) {
			mu.Lock()
			pending = append(pending, func() { done(nil, json) })
			mu.Unlock()
		},
	}
	prop := List(inner)
	root := NewRootContext(nil, nil, func(error, any) {}, nil)

	var got any
	fired := false
	cb := root.CreateCallback(func(v any) { fired = true; got = v })
	prop.Deserialize([]any{"a", "b", "c"}, cb, root, nil)

	mu.Lock()
	deferred := append([]func(){}, pending...)
	mu.Unlock()
	require.Len(t, deferred, 3)
	assert.False(t, fired, "aggregate must wait for element callbacks")

	deferred[2]()
	deferred[0]()
	assert.False(t, fired, "one element still outstanding")

	deferred[1]()
	require.True(t, fired)
	assert.Equal(t, []any{"a", "b", "c"}, got)
}

func TestList_DeserializeRejectsNonArray(t *testing.T) {
	prop := List(Primitive())
	root := NewRootContext(nil, nil, func(error, any) {}, nil)

	var gotErr error
	prop.Deserialize(map[string]any{}, func(err error, _ any) {
		gotErr = err
	}, root, nil)

	assert.ErrorIs(t, gotErr, ErrNotArray)
}

func TestList_DeserializeOfObjects(t *testing.T) {
	address := CreateSimpleSchema(Props{"city": true})
	prop := List(Object(func() *ModelSchema { return address }))
	root := NewRootContext(nil, nil, func(error, any) {}, nil)

	var got any
	cb := root.CreateCallback(func(v any) { got = v })
	prop.Deserialize([]any{
		map[string]any{"city": "nyc"},
		map[string]any{"city": "sf"},
	}, cb, root, nil)

	list := got.([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "nyc", list[0].(map[string]any)["city"])
	assert.Equal(t, "sf", list[1].(map[string]any)["city"])
}
