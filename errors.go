package serializr

import "errors"

// === Shape errors (schema/constructor construction time) ===
var (
	// ErrMissingFactory is returned when a ModelSchema has no factory.
	ErrMissingFactory = errors.New("model schema has no factory")

	// ErrRootTargetType is returned when CreateModelSchema is asked to
	// register a schema against the root `any`/interface{} type.
	ErrRootTargetType = errors.New("cannot create a model schema for the root interface type")

	// ErrAlreadyAliased is the value Alias panics with when it wraps a
	// PropSchema that is already an alias. Alias must be the outermost wrapper.
	ErrAlreadyAliased = errors.New("prop schema is already aliased")

	// ErrNoIdentifier is the value a schema-targeted Reference panics with on
	// first use when the target ModelSchema chain has no identifier property;
	// Reference's serializer also returns it (wrapped) when a value lacks the
	// identifier field.
	ErrNoIdentifier = errors.New("referenced model schema chain has no identifier property")

	// ErrMissingLookup is the value Reference panics with when it is given a
	// string identifier attribute name without a required lookup function.
	ErrMissingLookup = errors.New("reference by identifier attribute name requires a lookup function")

	// ErrWildcardNotTrue is the value Serialize/Deserialize panic with when
	// the "*" props entry is present with a value other than true.
	ErrWildcardNotTrue = errors.New(`the "*" props entry must be paired with true`)

	// ErrNoDefaultSchema is returned when Serialize is called without a
	// schema and the value's type has no registered default.
	ErrNoDefaultSchema = errors.New("no schema provided and none registered for value's type")
)

// === Serialization errors (raised synchronously by the serializer) ===
var (
	// ErrNotPrimitive is returned when Primitive is asked to serialize or
	// deserialize a non-primitive value.
	ErrNotPrimitive = errors.New("value is not a primitive")

	// ErrNotDate is returned when Date is asked to serialize a non-date value.
	ErrNotDate = errors.New("value is not a date")

	// ErrNotListLike is returned when List is asked to serialize a
	// non-array-like value.
	ErrNotListLike = errors.New("value is not array-like")
)

// === Deserialization errors (delivered through the completion callback) ===
var (
	// ErrNotArray is returned when List receives non-array JSON.
	ErrNotArray = errors.New("json value is not an array")

	// ErrNotObject is returned when Map or Object receives non-object JSON.
	ErrNotObject = errors.New("json value is not an object")

	// ErrNilFactory is returned when a ModelSchema's factory returns a nil/zero target.
	ErrNilFactory = errors.New("model schema factory returned a nil target")
)

// === Reference errors (delivered through the top-level completion) ===
var (
	// ErrUnresolvedReferences is returned when a Context settles with
	// pending reference awaits that will never be satisfied.
	ErrUnresolvedReferences = errors.New("unresolvable references")
)

// === Programming errors (fatal invariant failures) ===
var (
	// ErrCallbackAlreadyFired panics CreateCallback's wrapper when invoked
	// a second time.
	ErrCallbackAlreadyFired = errors.New("callback already fired")

	// ErrAwaitOnNonRoot is the value Await panics with when invoked on a
	// non-root Context.
	ErrAwaitOnNonRoot = errors.New("await must be called on the root context")
)
