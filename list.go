package serializr

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"
)

// List returns a PropSchema serializing/deserializing a Go slice (or
// []any) element-wise through inner, which defaults to Primitive().
//
// Deserialization fans element deserialization out across goroutines via
// errgroup: element callbacks may complete in any order but the assembled
// result preserves input order, and an empty input array completes
// synchronously without spawning any goroutine.
func List(inner *PropSchema) *PropSchema {
	if inner == nil {
		inner = Primitive()
	}

	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if value == nil {
				return nil, nil
			}
			elems, err := asSlice(value)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(elems))
			for i, el := range elems {
				v, err := inner.Serialize(el)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
		Deserialize: func(json any, done Callback, ctx *Context, _ any) {
			if json == nil {
				done(nil, nil)
				return
			}
			arr, ok := json.([]any)
			if !ok {
				done(notArrayError(json), nil)
				return
			}
			if len(arr) == 0 {
				done(nil, []any{})
				return
			}

			results := make([]any, len(arr))
			var mu sync.Mutex
			remaining := len(arr)
			var g errgroup.Group

			// The aggregate done fires only once every element callback has
			// fired, not merely once every element deserializer has been
			// invoked: an async inner (a reference awaiting its identifier)
			// returns long before its callback resolves. On an element
			// error the root Context latches and done never fires.
			for i, el := range arr {
				i, el := i, el
				elementDone := ctx.rootContext().CreateCallback(func(v any) {
					mu.Lock()
					results[i] = v
					remaining--
					last := remaining == 0
					mu.Unlock()
					if last {
						done(nil, results)
					}
				})
				g.Go(func() error {
					inner.Deserialize(el, elementDone, ctx, nil)
					return nil
				})
			}

			_ = g.Wait()
		},
	}
}

// asSlice returns value's elements as a []any, accepting either []any
// directly or any other slice/array type via reflection.
func asSlice(value any) ([]any, error) {
	if elems, ok := value.([]any); ok {
		return elems, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %v (%T)", ErrNotListLike, value, value)
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, nil
}
