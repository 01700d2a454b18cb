package serializr

import (
	"fmt"
	"reflect"
)

// Serialize converts thing into a JSON-compatible value according to schema.
// If thing is a slice (or array, via reflection), each element is
// serialized independently and the result is a []any of equal length; a
// nil or empty slice produces an empty []any, while an untyped nil thing
// produces nil.
//
// Otherwise schema's Extends chain is walked parent-first, and for each
// level's own properties: a false entry is skipped, true means Primitive(),
// a *PropSchema serializes through its own Serialize func keyed by its
// JSONName (falling back to the property name), and the reserved "*" key
// (paired with true) copies every own primitive-valued field/entry of thing
// not already covered by name, by identity.
func Serialize(schema *ModelSchema, thing any) (any, error) {
	if thing == nil {
		return nil, nil
	}

	if elems, isSlice := trySlice(thing); isSlice {
		out := make([]any, len(elems))
		for i, el := range elems {
			v, err := Serialize(schema, el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	if schema == nil {
		schema = GetDefaultModelSchema(thing)
		if schema == nil {
			return nil, fmt.Errorf("%w: %T", ErrNoDefaultSchema, thing)
		}
	}

	out := map[string]any{}

	var chain []*ModelSchema
	for s := schema; s != nil; s = s.Extends {
		chain = append(chain, s)
	}

	named := namedJSONKeys(chain)
	for i := len(chain) - 1; i >= 0; i-- {
		if err := serializeOwnProps(chain[i], thing, out, named); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func serializeOwnProps(schema *ModelSchema, thing any, out map[string]any, named map[string]bool) error {
	for _, propName := range schema.orderedProps() {
		if propName == "*" {
			continue
		}
		raw := schema.Props[propName]

		var propSchema *PropSchema
		switch v := raw.(type) {
		case bool:
			if !v {
				continue
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

		value := currentField(thing, propName)
		sv, err := propSchema.Serialize(value)
		if err != nil {
			return err
		}
		out[jsonKey] = sv
	}

	if wildcard, ok := schema.Props["*"]; ok {
		w, _ := wildcard.(bool)
		if !w {
			panic(ErrWildcardNotTrue)
		}
		return copyOwnPrimitives(thing, out, named)
	}

	return nil
}

// copyOwnPrimitives copies every own field/entry of thing not already named
// into out, by identity, implementing the "*" wildcard. A non-primitive
// unnamed value is a serialization error.
func copyOwnPrimitives(thing any, out map[string]any, named map[string]bool) error {
	if m, ok := thing.(map[string]any); ok {
		for k, v := range m {
			if named[k] {
				continue
			}
			if !isPrimitive(v) {
				return fmt.Errorf("%w: %v (%T) at key %q", ErrNotPrimitive, v, v, k)
			}
			out[k] = v
		}
		return nil
	}

	v := reflect.ValueOf(thing)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" || named[field.Name] {
			continue
		}
		fv := v.Field(i).Interface()
		if !isPrimitive(fv) {
			return fmt.Errorf("%w: %v (%T) at field %q", ErrNotPrimitive, fv, fv, field.Name)
		}
		out[field.Name] = fv
	}
	return nil
}

// trySlice reports whether thing is a slice/array (other than a raw byte
// slice, which is left to Primitive()/Custom() to interpret), returning its
// elements as a []any.
func trySlice(thing any) ([]any, bool) {
	if elems, ok := thing.([]any); ok {
		return elems, true
	}
	v := reflect.ValueOf(thing)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, true
}
