package serializr

import (
	"fmt"
	"time"
)

// Callback is the single-shot, Node-style completion signature used
// throughout deserialization: done(err, value).
type Callback func(err error, value any)

// PropSchema describes how a single value, at one property position, maps
// to and from its JSON counterpart. PropSchemas are immutable once
// constructed and compose: list(object(S)), alias("x", date()), etc.
type PropSchema struct {
	// Serialize turns an in-memory value into a JSON-compatible value.
	Serialize func(value any) (any, error)

	// Deserialize turns a JSON-compatible value into an in-memory value,
	// reporting the result through done exactly once. current is the
	// value currently occupying this property on the target, if any
	// (used by map() to detect and reuse a keyed container in place).
	Deserialize func(json any, done Callback, ctx *Context, current any)

	// JSONName, if non-empty, is the JSON object key to use instead of the
	// Go property name.
	JSONName string

	// Identifier marks this property as the instance's identity.
	Identifier bool
}

// isPrimitive reports whether v is a JSON-primitive value: nil, bool,
// string, or any numeric kind. Anything else (maps, slices, structs,
// funcs, pointers) is rejected on both the serialize and deserialize
// paths.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Primitive returns a PropSchema that passes primitive values through
// unchanged, rejecting anything else on both the serialize and
// deserialize paths.
func Primitive() *PropSchema {
	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if !isPrimitive(value) {
				return nil, notPrimitiveError(value)
			}
			return value, nil
		},
		Deserialize: func(json any, done Callback, _ *Context, _ any) {
			if !isPrimitive(json) {
				done(notPrimitiveError(json), nil)
				return
			}
			done(nil, json)
		},
	}
}

// notPrimitiveError builds the catalog-backed rendering of ErrNotPrimitive
// for value, used by Primitive() and Identifier() alike.
func notPrimitiveError(value any) error {
	return codedf(ErrNotPrimitive, "not_primitive", "value is not a primitive: {value} ({type})", map[string]any{
		"value": value,
		"type":  fmt.Sprintf("%T", value),
	})
}

// Date returns a PropSchema that serializes a time.Time as integer
// milliseconds since the Unix epoch and reconstructs a time.Time from that
// integer on deserialize. nil/absent values pass through unchanged.
func Date() *PropSchema {
	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if value == nil {
				return nil, nil
			}
			t, ok := value.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%w: %v (%T)", ErrNotDate, value, value)
			}
			return t.UnixMilli(), nil
		},
		Deserialize: func(json any, done Callback, _ *Context, _ any) {
			if json == nil {
				done(nil, nil)
				return
			}
			ms, err := asInt64(json)
			if err != nil {
				done(err, nil)
				return
			}
			done(nil, time.UnixMilli(ms).UTC())
		},
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected a millisecond timestamp, got %v (%T)", ErrNotDate, v, v)
	}
}

// Alias returns a PropSchema with JSONName set to name, delegating
// Serialize/Deserialize to inner and propagating inner's Identifier flag.
// inner defaults to Primitive(). alias must be the outermost wrapper:
// aliasing an already-aliased PropSchema is a shape error.
func Alias(name string, inner *PropSchema) *PropSchema {
	if inner == nil {
		inner = Primitive()
	}
	if inner.JSONName != "" {
		panic(ErrAlreadyAliased)
	}
	return &PropSchema{
		Serialize:   inner.Serialize,
		Deserialize: inner.Deserialize,
		JSONName:    name,
		Identifier:  inner.Identifier,
	}
}

// Custom returns a PropSchema wrapping two pure functions: Serialize is
// ser(value); Deserialize synchronously calls deser(json) and reports its
// result (or error) through done.
func Custom(ser func(value any) (any, error), deser func(json any) (any, error)) *PropSchema {
	return &PropSchema{
		Serialize: ser,
		Deserialize: func(json any, done Callback, _ *Context, _ any) {
			value, err := deser(json)
			if err != nil {
				done(err, nil)
				return
			}
			done(nil, value)
		},
	}
}
