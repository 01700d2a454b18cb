package serializr

import (
	"fmt"
	"sort"
	"sync"
)

// pendingRefEntry is an outstanding await on an identifier that has not yet
// been published.
type pendingRefEntry struct {
	awaiterSchema *ModelSchema
	cb            Callback
}

// resolvedRefEntry is an identifier-value pair published by an identifier
// property.
type resolvedRefEntry struct {
	publishedSchema *ModelSchema
	value           any
}

// Context is the per-deserialization bookkeeping record tracking in-flight
// callbacks and cross-object reference promises. A Context exists for the
// duration of a single top-level Deserialize (or Update) call and is
// discarded once its completion callback has fired.
type Context struct {
	Parent *Context
	IsRoot bool

	// Args is the user-supplied custom args; child contexts copy the
	// root's value at creation so it is readable at any nesting depth.
	Args any

	JSON        any
	Target      any
	ModelSchema *ModelSchema

	mu               sync.Mutex
	pendingCallbacks int
	pendingRefsCount int
	hasError         bool
	onReady          Callback

	// Root-only reference tables.
	pendingRefs  map[any][]*pendingRefEntry
	resolvedRefs map[any][]*resolvedRefEntry
}

// NewRootContext creates a Context with no parent for a top-level
// Deserialize/Update call.
func NewRootContext(json any, schema *ModelSchema, onReady Callback, args any) *Context {
	return &Context{
		IsRoot:       true,
		Args:         args,
		JSON:         json,
		ModelSchema:  schema,
		onReady:      onReady,
		pendingRefs:  map[any][]*pendingRefEntry{},
		resolvedRefs: map[any][]*resolvedRefEntry{},
	}
}

// NewChildContext creates a Context with parent as its parent, for nested
// deserialization (object() deserializing a sub-document).
func NewChildContext(parent *Context, json any, schema *ModelSchema) *Context {
	return &Context{
		Parent:      parent,
		Args:        parent.Args,
		JSON:        json,
		ModelSchema: schema,
	}
}

// rootContext walks Parent links up to the root Context.
func (c *Context) rootContext() *Context {
	ctx := c
	for ctx.Parent != nil {
		ctx = ctx.Parent
	}
	return ctx
}

// RootContext is the public accessor custom deserializers use to reach
// Await/Resolve/CreateCallback regardless of nesting depth.
func (c *Context) RootContext() *Context { return c.rootContext() }

// CreateCallback increments the (root) pending-callback count and returns a
// single-shot wrapper implementing the completion criterion: once every
// issued callback has fired (and no unresolved reference awaits remain),
// onReady fires exactly once.
//
// fn is invoked with the decoded value on success, before the pending count
// is decremented; it is the caller's hook for assigning the value onto a
// target.
func (c *Context) CreateCallback(fn func(value any)) Callback {
	root := c.rootContext()

	root.mu.Lock()
	root.pendingCallbacks++
	root.mu.Unlock()

	var fired bool
	var firedMu sync.Mutex

	return func(err error, value any) {
		firedMu.Lock()
		if fired {
			firedMu.Unlock()
			panic(ErrCallbackAlreadyFired)
		}
		fired = true
		firedMu.Unlock()

		root.settle(err, value, fn)
	}
}

// settle is the second half of every CreateCallback wrapper: apply fn (if
// this callback succeeded), release this callback's reserved slot, and fire
// onReady exactly once the completion criterion is met.
//
// A callback handed to Await keeps the pendingCallbacks slot it was given
// at creation for as long as it stays pending, while Await additionally
// counts it in pendingRefsCount. So once every *other* in-flight callback
// has drained, pendingCallbacks drops to exactly pendingRefsCount; if that
// count is still > 0 at that point, every remaining outstanding callback is
// an unresolved reference rather than ordinary in-flight work.
func (root *Context) settle(err error, value any, fn func(value any)) {
	root.mu.Lock()

	if err != nil {
		if root.hasError {
			root.mu.Unlock()
			return
		}
		root.hasError = true
		onReady := root.onReady
		root.mu.Unlock()
		if onReady != nil {
			onReady(err, nil)
		}
		return
	}

	if root.hasError {
		root.mu.Unlock()
		return
	}

	root.mu.Unlock()
	if fn != nil {
		fn(value)
	}
	root.mu.Lock()

	root.pendingCallbacks--

	if root.pendingCallbacks != root.pendingRefsCount {
		root.mu.Unlock()
		return
	}

	if root.pendingRefsCount > 0 {
		root.hasError = true
		refErr := root.unresolvedReferencesError()
		onReady := root.onReady
		root.mu.Unlock()
		if onReady != nil {
			onReady(refErr, nil)
		}
		return
	}

	onReady := root.onReady
	target := root.Target
	root.mu.Unlock()
	if onReady != nil {
		onReady(nil, target)
	}
}

// unresolvedReferencesError must be called with root.mu held.
func (root *Context) unresolvedReferencesError() error {
	ids := make([]string, 0, len(root.pendingRefs))
	for id, entries := range root.pendingRefs {
		if len(entries) > 0 {
			ids = append(ids, fmt.Sprintf("%v", id))
		}
	}
	sort.Strings(ids)
	return codedf(ErrUnresolvedReferences, "unresolved_references",
		"unresolvable references: {ids}", map[string]any{"ids": ids})
}

// Await registers cb to be invoked once an identifier property publishes id
// with a ModelSchema assignable to awaiterSchema. If a matching resolved
// reference already exists, cb fires immediately (synchronously) and no
// bookkeeping is recorded. Must be called on the root Context.
//
// cb is always a callback a caller already reserved via CreateCallback
// before it reached Await (reference.go forwards the per-property done
// callback walkOwnProps created). Await itself only tracks pendingRefsCount;
// the slot cb already holds in pendingCallbacks is what lets the completion
// check in settle recognize "every other callback is done but a reference
// never resolved" as pendingCallbacks == pendingRefsCount > 0, producing
// ErrUnresolvedReferences instead of hanging forever.
func (c *Context) Await(awaiterSchema *ModelSchema, id any, cb Callback) {
	if !c.IsRoot {
		panic(ErrAwaitOnNonRoot)
	}
	root := c

	root.mu.Lock()
	for _, entry := range root.resolvedRefs[id] {
		if isAssignable(entry.publishedSchema, awaiterSchema) {
			root.mu.Unlock()
			cb(nil, entry.value)
			return
		}
	}

	root.pendingRefsCount++
	root.pendingRefs[id] = append(root.pendingRefs[id], &pendingRefEntry{
		awaiterSchema: awaiterSchema,
		cb:            cb,
	})
	root.mu.Unlock()
}

// Resolve publishes value as the instance identified by id under
// publishedSchema, satisfying any pending awaiters whose requested schema
// publishedSchema is assignable to.
func (c *Context) Resolve(publishedSchema *ModelSchema, id any, value any) {
	root := c.rootContext()

	root.mu.Lock()
	root.resolvedRefs[id] = append(root.resolvedRefs[id], &resolvedRefEntry{
		publishedSchema: publishedSchema,
		value:           value,
	})

	pending := root.pendingRefs[id]
	var toNotify []*pendingRefEntry
	remaining := pending[:0:0]
	for i := len(pending) - 1; i >= 0; i-- {
		entry := pending[i]
		if isAssignable(publishedSchema, entry.awaiterSchema) {
			toNotify = append(toNotify, entry)
		} else {
			remaining = append(remaining, entry)
		}
	}
	// remaining was built in reverse; restore original relative order.
	for i, j := 0, len(remaining)-1; i < j; i, j = i+1, j-1 {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
	root.pendingRefs[id] = remaining
	root.pendingRefsCount -= len(toNotify)
	root.mu.Unlock()

	for _, entry := range toNotify {
		entry.cb(nil, value)
	}
}

// isAssignable reports whether a is assignable to b: walking a's Extends
// chain (a itself first) yields b. A nil b matches only a nil a, and a nil a
// matches only a nil b.
func isAssignable(a, b *ModelSchema) bool {
	if b == nil {
		return a == nil
	}
	for s := a; s != nil; s = s.Extends {
		if s == b {
			return true
		}
	}
	return false
}
