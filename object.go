package serializr

// Object returns a PropSchema that (de)serializes a nested instance
// described by the ModelSchema ref resolves. ref is resolved lazily, at
// the moment of each call, so that cyclic schema definitions (A references
// B which references A) can be built by closing over a variable that is
// only assigned after both schemas exist.
func Object(ref func() *ModelSchema) *PropSchema {
	return &PropSchema{
		Serialize: func(value any) (any, error) {
			if value == nil {
				return nil, nil
			}
			return Serialize(ref(), value)
		},
		Deserialize: func(json any, done Callback, ctx *Context, _ any) {
			deserializeNested(ctx, ref(), json, done)
		},
	}
}
