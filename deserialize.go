package serializr

import (
	"fmt"
	"reflect"
)

// Deserialize walks schema against json and produces an instance via
// schema.Factory. If json is an array, each element is deserialized under
// one shared root Context with the same callback-aggregation rule as List
// (the element deserializers are started one after another on the calling
// goroutine, not fanned out), and the return value is a []any of
// synchronously created instances, pushed in input order before their
// nested deserialization necessarily completes. Otherwise a single
// instance is produced synchronously and returned.
//
// done, if non-nil, is invoked exactly once when the whole graph (including
// any reference awaits reachable from it) has settled. If done is nil, a
// synchronous shape error is returned directly as the second value, and a
// later asynchronous error panics: errors raise immediately while
// successful completions are simply dropped.
func Deserialize(schema *ModelSchema, json any, done Callback, customArgs any) (any, error) {
	if arr, ok := json.([]any); ok {
		return deserializeArray(schema, arr, done, customArgs)
	}
	return deserializeRoot(schema, json, done, customArgs)
}

// guardNilDone makes Deserialize/Update's "done may be nil" contract
// concrete: a synchronous error is surfaced through the return value
// instead (handled by the caller before this wrapper ever fires), while a
// later asynchronous success is dropped and a later asynchronous error
// panics.
func guardNilDone(done Callback) Callback {
	if done != nil {
		return done
	}
	return func(err error, _ any) {
		if err != nil {
			panic(err)
		}
	}
}

// Update runs the same property walk as Deserialize but reuses target;
// properties absent from json are left untouched. The schema is required
// explicitly; a caller that wants schema inference from target's type can
// get it at the call site via GetDefaultModelSchema(target).
//
// Update always takes both done and customArgs explicitly rather than
// overloading one positional slot for either: pass nil for whichever is
// unused.
func Update(schema *ModelSchema, target any, json any, done Callback, customArgs any) error {
	if json == nil {
		if done != nil {
			done(nil, nil)
		}
		return nil
	}
	obj, ok := json.(map[string]any)
	if !ok {
		err := notObjectError(json)
		if done != nil {
			done(err, nil)
			return nil
		}
		return err
	}

	root := NewRootContext(json, schema, guardNilDone(done), customArgs)
	root.Target = target

	lock := root.CreateCallback(func(any) {})
	walkProps(root, schema, obj, target)
	lock(nil, nil)
	return nil
}

// deserializeRoot runs the per-instance procedure for a top-level
// (non-array) Deserialize call. If done is non-nil, a synchronous shape
// error is delivered through it (and (nil, nil) is returned); otherwise it
// is returned directly as the second value.
func deserializeRoot(schema *ModelSchema, json any, done Callback, customArgs any) (any, error) {
	if json == nil {
		if done != nil {
			done(nil, nil)
		}
		return nil, nil
	}

	obj, ok := json.(map[string]any)
	if !ok {
		err := notObjectError(json)
		if done != nil {
			done(err, nil)
			return nil, nil
		}
		return nil, err
	}

	if schema.Factory == nil {
		if done != nil {
			done(ErrMissingFactory, nil)
			return nil, nil
		}
		return nil, ErrMissingFactory
	}

	root := NewRootContext(json, schema, guardNilDone(done), customArgs)

	target := schema.Factory(root)
	if isInvalidTarget(target) {
		if done != nil {
			done(ErrNilFactory, nil)
			return nil, nil
		}
		return nil, ErrNilFactory
	}
	root.Target = target

	lock := root.CreateCallback(func(any) {})
	walkProps(root, schema, obj, target)
	lock(nil, nil)

	return target, nil
}

// deserializeArray deserializes each element of arr as its own instance,
// all sharing one root Context so that identifiers published by one
// element can be awaited by a Reference in another, regardless of which
// side appears first in the document. Empty arrays complete synchronously
// without creating a Context. If done is nil, an element that is neither nil
// nor a JSON object is returned as a synchronous shape error.
func deserializeArray(schema *ModelSchema, arr []any, done Callback, customArgs any) ([]any, error) {
	if len(arr) == 0 {
		if done != nil {
			done(nil, []any{})
		}
		return []any{}, nil
	}

	if done == nil {
		for _, el := range arr {
			if _, ok := el.(map[string]any); el != nil && !ok {
				return nil, notObjectError(el)
			}
		}
	}

	instances := make([]any, len(arr))
	root := NewRootContext(arr, schema, func(err error, _ any) {
		if done != nil {
			done(err, instances)
			return
		}
		if err != nil {
			panic(err)
		}
	}, customArgs)
	root.Target = instances

	lock := root.CreateCallback(func(any) {})
	for i := range arr {
		i := i
		elCB := root.CreateCallback(func(v any) { instances[i] = v })
		deserializeNested(root, schema, arr[i], elCB)
	}
	lock(nil, nil)

	return instances, nil
}

// deserializeNested runs the per-instance procedure for a ModelSchema
// nested below the top level (an Object property, or a top-level array
// element), folding its property callbacks into the root Context instead
// of settling independently: property callbacks are acquired from the
// *root*, so a child's internal properties may complete after the child's
// own aggregate completion, which is what reference resolution needs.
//
// done is the caller's already-created root-Context callback for this
// slot (e.g. the one walkOwnProps acquired for an object() property, or
// deserializeArray's per-element callback); it fires synchronously with the
// freshly created instance, protected by an internal lock callback so the
// root cannot settle before this instance's own properties have had a
// chance to register their callbacks.
func deserializeNested(parent *Context, schema *ModelSchema, json any, done Callback) any {
	if json == nil {
		done(nil, nil)
		return nil
	}

	obj, ok := json.(map[string]any)
	if !ok {
		done(notObjectError(json), nil)
		return nil
	}

	if schema.Factory == nil {
		done(ErrMissingFactory, nil)
		return nil
	}

	root := parent.rootContext()
	lock := root.CreateCallback(func(any) {})

	ctx := NewChildContext(parent, json, schema)
	target := schema.Factory(ctx)
	if isInvalidTarget(target) {
		lock(ErrNilFactory, nil)
		done(ErrNilFactory, nil)
		return nil
	}
	ctx.Target = target

	done(nil, target)
	walkProps(ctx, schema, obj, target)
	lock(nil, nil)

	return target
}

func isInvalidTarget(target any) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// walkProps traverses schema's Extends chain outer (parent) first, and for
// each level iterates Props, invoking each PropSchema's Deserialize with a
// root-Context callback that assigns the resolved value onto target. Used
// identically by Deserialize (fresh target) and Update (reused target):
// either way, a property absent from obj is simply left untouched.
func walkProps(ctx *Context, schema *ModelSchema, obj map[string]any, target any) {
	var chain []*ModelSchema
	for s := schema; s != nil; s = s.Extends {
		chain = append(chain, s)
	}
	named := namedJSONKeys(chain)
	for i := len(chain) - 1; i >= 0; i-- {
		walkOwnProps(ctx, chain[i], obj, target, named)
	}
}

// namedJSONKeys collects every JSON key any level of the chain claims by
// name (its own name, a JSONName alias, or a false skip entry), so that a
// "*" wildcard at any level only picks up genuinely unnamed keys.
func namedJSONKeys(chain []*ModelSchema) map[string]bool {
	named := map[string]bool{}
	for _, schema := range chain {
		for propName, raw := range schema.Props {
			if propName == "*" {
				continue
			}
			named[propName] = true
			if p, ok := raw.(*PropSchema); ok && p.JSONName != "" {
				named[p.JSONName] = true
			}
		}
	}
	return named
}

func walkOwnProps(ctx *Context, schema *ModelSchema, obj map[string]any, target any, named map[string]bool) {
	root := ctx.rootContext()

	for _, propName := range schema.orderedProps() {
		if propName == "*" {
			continue // handled after named properties, below
		}
		raw := schema.Props[propName]

		var propSchema *PropSchema
		switch v := raw.(type) {
		case bool:
			if !v {
				continue // false: skip
			}
			propSchema = Primitive()
		case *PropSchema:
			propSchema = v
		default:
			continue
		}

		jsonKey := propSchema.JSONName
		if jsonKey == "" {
			jsonKey = propName
		}

		value, present := obj[jsonKey]
		if !present {
			continue
		}

		propName := propName
		cb := root.CreateCallback(func(v any) {
			assignField(target, propName, v)
		})
		propSchema.Deserialize(value, cb, ctx, currentField(target, propName))
	}

	if wildcard, ok := schema.Props["*"]; ok {
		w, _ := wildcard.(bool)
		if !w {
			panic(ErrWildcardNotTrue)
		}
		for key, value := range obj {
			if named[key] {
				continue
			}
			if !isPrimitive(value) {
				cb := root.CreateCallback(func(any) {})
				cb(fmt.Errorf("%w: %v (%T) at key %q", ErrNotPrimitive, value, value, key), nil)
				return
			}
			assignField(target, key, value)
		}
	}
}

// assignField sets target's field/map-entry named propName to value,
// supporting both map[string]any targets (createSimpleSchema) and struct
// pointer targets (createModelSchema).
func assignField(target any, propName string, value any) {
	if m, ok := target.(map[string]any); ok {
		m[propName] = value
		return
	}

	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	field := v.FieldByName(propName)
	if !field.IsValid() || !field.CanSet() {
		return
	}
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
	} else if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
	}
}

// currentField returns the value currently occupying target's propName
// field/entry, or nil, for PropSchemas (map()) that reuse an in-place
// container.
func currentField(target any, propName string) any {
	if m, ok := target.(map[string]any); ok {
		return m[propName]
	}
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	field := v.FieldByName(propName)
	if !field.IsValid() {
		return nil
	}
	return field.Interface()
}
