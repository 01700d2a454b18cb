package serializr

// Identifier returns a PropSchema marking this property as the instance's
// identity. It serializes/deserializes as a primitive; on deserialize it
// additionally publishes the current target to the root Context's resolved
// references, so sibling reference() awaiters processed earlier or later in
// the same pass can resolve regardless of document order, and, if register
// is non-nil, invokes register(id, target, ctx).
func Identifier(register func(id any, target any, ctx *Context)) *PropSchema {
	return &PropSchema{
		Identifier: true,
		Serialize: func(value any) (any, error) {
			if !isPrimitive(value) {
				return nil, notPrimitiveError(value)
			}
			return value, nil
		},
		Deserialize: func(json any, done Callback, ctx *Context, _ any) {
			if !isPrimitive(json) {
				done(notPrimitiveError(json), nil)
				return
			}

			ctx.rootContext().Resolve(ctx.ModelSchema, json, ctx.Target)
			if register != nil {
				register(json, ctx.Target, ctx)
			}

			done(nil, json)
		},
	}
}
