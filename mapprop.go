package serializr

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// KeyedContainer is the structural capability a Map PropSchema checks for
// to distinguish a keyed container (an ordered map, a cache, ...) from a
// plain record. Detection is performed once per Deserialize call against
// the *current* target value.
type KeyedContainer interface {
	// Keys returns this container's keys, used to drive serialization.
	Keys() []string
	// Get returns the value stored under key.
	Get(key string) (any, bool)
	// Clear empties the container in place.
	Clear()
	// Set stores value under key, in place.
	Set(key string, value any)
}

// Map returns a PropSchema serializing/deserializing a string-keyed
// collection element-wise through inner, which defaults to Primitive().
//
// The serializer accepts either a map[string]any or a KeyedContainer and
// always produces a plain map[string]any. The deserializer requires a plain
// JSON object, deserializes its values in parallel (the same
// fan-out/aggregate rule as List), and then: if current is a
// KeyedContainer, clears and repopulates it in place; otherwise produces a
// fresh map[string]any. Keys are processed, and a KeyedContainer is
// repopulated, in sorted key order (see keysOf); the input document's own
// key order is not preserved.
func Map(inner *PropSchema) *PropSchema {
	if inner == nil {
		inner = Primitive()
	}

	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if value == nil {
				return nil, nil
			}

			if kc, ok := value.(KeyedContainer); ok {
				out := map[string]any{}
				for _, k := range kc.Keys() {
					v, _ := kc.Get(k)
					sv, err := inner.Serialize(v)
					if err != nil {
						return nil, err
					}
					out[k] = sv
				}
				return out, nil
			}

			entries, err := asStringMap(value)
			if err != nil {
				return nil, err
			}
			out := map[string]any{}
			for _, k := range entries.keys {
				sv, err := inner.Serialize(entries.values[k])
				if err != nil {
					return nil, err
				}
				out[k] = sv
			}
			return out, nil
		},
		Deserialize: func(json any, done Callback, ctx *Context, current any) {
			if json == nil {
				done(nil, nil)
				return
			}
			obj, ok := json.(map[string]any)
			if !ok {
				done(notObjectError(json), nil)
				return
			}

			keys := keysOf(obj)

			if len(keys) == 0 {
				done(nil, emptyMapResult(current))
				return
			}

			results := make(map[string]any, len(keys))
			var mu sync.Mutex
			remaining := len(keys)
			var g errgroup.Group

			// Same aggregate rule as List: done fires once every value
			// callback has fired, so async inners resolve before the
			// container is reassembled.
			for _, k := range keys {
				k := k
				v := obj[k]
				elementDone := ctx.rootContext().CreateCallback(func(v any) {
					mu.Lock()
					results[k] = v
					remaining--
					last := remaining == 0
					mu.Unlock()
					if last {
						done(nil, assembleMapResult(current, keys, results))
					}
				})
				g.Go(func() error {
					inner.Deserialize(v, elementDone, ctx, nil)
					return nil
				})
			}

			_ = g.Wait()
		},
	}
}

func emptyMapResult(current any) any {
	if kc, ok := current.(KeyedContainer); ok {
		kc.Clear()
		return kc
	}
	return map[string]any{}
}

func assembleMapResult(current any, keys []string, results map[string]any) any {
	if kc, ok := current.(KeyedContainer); ok {
		kc.Clear()
		for _, k := range keys {
			kc.Set(k, results[k])
		}
		return kc
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = results[k]
	}
	return out
}

// keysOf returns obj's keys sorted, used as a deterministic stand-in for
// "input key iteration order": Go's map[string]any has no recorded
// insertion order by the time it reaches this function (encoding/json and
// goccy/go-json both decode objects into unordered Go maps). A
// KeyedContainer passed as `current` is also repopulated in this sorted
// order.
func keysOf(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type orderedStringMap struct {
	keys   []string
	values map[string]any
}

func asStringMap(value any) (*orderedStringMap, error) {
	if m, ok := value.(map[string]any); ok {
		return &orderedStringMap{keys: keysOf(m), values: m}, nil
	}

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, notObjectError(value)
	}

	values := make(map[string]any, v.Len())
	for _, key := range v.MapKeys() {
		values[fmt.Sprintf("%v", key.Interface())] = v.MapIndex(key).Interface()
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &orderedStringMap{keys: keys, values: values}, nil
}
