package serializr

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type animal struct {
	Name string
}

type dog struct {
	animal
	Breed string
}

func TestCreateSimpleSchema_FactoryProducesFreshMap(t *testing.T) {
	schema := CreateSimpleSchema(Props{"name": true})

	a := schema.Factory(nil)
	b := schema.Factory(nil)

	a.(map[string]any)["name"] = "ada"
	assert.NotEqual(t, a, b)
	assert.Nil(t, schema.TargetType)
}

func TestCreateModelSchema_RegistersDefaultSchema(t *testing.T) {
	schema, err := CreateModelSchema(reflect.TypeOf(animal{}), Props{"Name": true}, nil)
	require.NoError(t, err)

	got := GetDefaultModelSchema(animal{})
	assert.Same(t, schema, got)

	got = GetDefaultModelSchema(&animal{})
	assert.Same(t, schema, got)
}

func TestCreateModelSchema_RejectsNilOrInterfaceType(t *testing.T) {
	_, err := CreateModelSchema(nil, Props{}, nil)
	assert.ErrorIs(t, err, ErrRootTargetType)

	var ifaceType reflect.Type = reflect.TypeOf((*error)(nil)).Elem()
	_, err = CreateModelSchema(ifaceType, Props{}, nil)
	assert.ErrorIs(t, err, ErrRootTargetType)
}

func TestCreateModelSchema_DetectsEmbeddedParentSchema(t *testing.T) {
	parent, err := CreateModelSchema(reflect.TypeOf(animal{}), Props{"Name": true}, nil)
	require.NoError(t, err)

	child, err := CreateModelSchema(reflect.TypeOf(dog{}), Props{"Breed": true}, nil)
	require.NoError(t, err)

	assert.Same(t, parent, child.Extends)
}

func TestGetDefaultModelSchema_ReturnsNilWhenUnregistered(t *testing.T) {
	type unregistered struct{}
	assert.Nil(t, GetDefaultModelSchema(unregistered{}))
	assert.Nil(t, GetDefaultModelSchema(nil))
}

func TestSerializable_AddsOrOverridesProp(t *testing.T) {
	schema := CreateSimpleSchema(Props{"name": true})
	Serializable(schema, "age", true)
	Serializable(schema, "name", false)

	assert.Equal(t, false, schema.Props["name"])
	assert.Equal(t, true, schema.Props["age"])
	assert.Equal(t, []string{"name", "age"}, schema.orderedProps())
}

func TestOrderedProps_PreservesInsertionOrder(t *testing.T) {
	schema := CreateSimpleSchema(Props{})
	Serializable(schema, "c", true)
	Serializable(schema, "a", true)
	Serializable(schema, "b", true)

	assert.Equal(t, []string{"c", "a", "b"}, schema.orderedProps())
}
