package serializr

import (
	"fmt"
	"sync"
)

// LookupFunc resolves an identifier published elsewhere in the document to
// its target instance, invoking done once the target is known (or an error
// if it cannot be). ctx is always the Context the Reference property is
// being deserialized under; the Deserialize/Update call's original custom
// args are available via ctx.Args for lookups that need them.
type LookupFunc func(id any, done Callback, ctx *Context)

// Reference returns a PropSchema that serializes an associated instance down
// to its identifier and deserializes an identifier back up to that instance.
// target takes one of two shapes:
//
//   - a *ModelSchema, or a reflect.Type with a registered default schema:
//     the identifier attribute is the one property flagged Identifier in
//     that schema chain, and lookup defaults to awaiting that identifier on
//     the root Context (satisfied once an Identifier property elsewhere in
//     the same document publishes a matching value).
//   - a string naming the identifier attribute directly: lookup is
//     required, since there is no schema to await against.
//
// The target schema is resolved lazily, on first use rather than at
// construction, so mutually-referencing schemas can be declared in either
// order; a schema-shaped target with no Identifier property in its chain
// fails at that first use. A non-nil lookup always takes precedence over
// the schema-derived default.
func Reference(target any, lookup LookupFunc) *PropSchema {
	if name, ok := target.(string); ok {
		if lookup == nil {
			panic(ErrMissingLookup)
		}
		return referencePropSchema(func() (string, *ModelSchema) { return name, nil }, lookup)
	}

	var initOnce sync.Once
	var idName string
	var schema *ModelSchema
	initialize := func() (string, *ModelSchema) {
		initOnce.Do(func() {
			schema = GetDefaultModelSchema(target)
			if schema == nil {
				panic(ErrNoIdentifier)
			}
			var found bool
			idName, _, found = identifierPropSchema(schema)
			if !found {
				panic(ErrNoIdentifier)
			}
		})
		return idName, schema
	}

	if lookup == nil {
		lookup = func(id any, done Callback, ctx *Context) {
			_, awaited := initialize()
			ctx.rootContext().Await(awaited, id, done)
		}
	}
	return referencePropSchema(initialize, lookup)
}

// referencePropSchema builds the actual PropSchema around an initialize
// func that yields the identifier attribute name (and, for schema-shaped
// targets, the referenced schema) on first use.
func referencePropSchema(initialize func() (string, *ModelSchema), lookup LookupFunc) *PropSchema {
	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if value == nil {
				return nil, nil
			}
			idAttr, _ := initialize()
			id, ok := extractField(value, idAttr)
			if !ok {
				return nil, fmt.Errorf("%w: value has no field %q", ErrNoIdentifier, idAttr)
			}
			return id, nil
		},
		Deserialize: func(json any, done Callback, ctx *Context, _ any) {
			if json == nil {
				done(nil, nil)
				return
			}
			lookup(json, done, ctx)
		},
	}
}

// extractField reads propName off value, supporting both map[string]any and
// struct (or pointer-to-struct) instances.
func extractField(value any, propName string) (any, bool) {
	if m, ok := value.(map[string]any); ok {
		v, ok := m[propName]
		return v, ok
	}
	return currentField(value, propName), true
}
