package serializr

import (
	"reflect"
	"sort"
	"sync"
)

// Props maps a property name to its (de)serialization strategy: a
// *PropSchema, the sentinel true ("primitive"), or false ("skip"). The
// special key "*" paired with true means "serialize/deserialize all own
// enumerable primitive-valued properties not otherwise listed, by identity".
type Props map[string]any

// ModelSchema describes how a Go instance type maps to and from a JSON
// object. It is immutable once constructed: Factory and Props should not be
// mutated after the schema starts being used, except through Serializable
// while still building it up.
type ModelSchema struct {
	// Factory produces a fresh target instance given a Context. For
	// CreateSimpleSchema this returns a fresh map[string]any.
	Factory func(ctx *Context) any

	// Props enumerates this schema's own properties, in insertion order
	// (PropOrder mirrors insertion order since Go maps don't preserve it).
	Props Props

	// PropOrder records the order properties were added to Props, since
	// serialization/deserialization order matters (spec: "iteration order
	// follows the props map's insertion order").
	PropOrder []string

	// Extends is the parent ModelSchema in an inheritance chain, or nil.
	Extends *ModelSchema

	// TargetType is the Go type this schema is the registered default for,
	// or nil if the schema was created anonymously (createSimpleSchema).
	TargetType reflect.Type
}

// setProp records a property assignment while preserving first-insertion
// order; re-assigning an existing key updates the value without reordering.
func (m *ModelSchema) setProp(name string, value any) {
	if m.Props == nil {
		m.Props = Props{}
	}
	if _, exists := m.Props[name]; !exists {
		m.PropOrder = append(m.PropOrder, name)
	}
	m.Props[name] = value
}

// orderedProps returns this schema's own properties in insertion order.
func (m *ModelSchema) orderedProps() []string {
	if len(m.PropOrder) == len(m.Props) {
		return m.PropOrder
	}
	// Props was built by hand (literal Props{...}) rather than via
	// Serializable/CreateSimpleSchema's setProp, so there is no recorded
	// insertion order; sort for deterministic iteration.
	order := make([]string, 0, len(m.Props))
	for k := range m.Props {
		order = append(order, k)
	}
	sort.Strings(order)
	return order
}

var defaultSchemaRegistry sync.Map // reflect.Type -> *ModelSchema

// CreateSimpleSchema returns a ModelSchema whose factory produces a fresh
// map[string]any, suitable for (de)serializing plain records that have no
// backing Go type.
func CreateSimpleSchema(props Props) *ModelSchema {
	schema := &ModelSchema{
		Factory: func(*Context) any { return map[string]any{} },
	}
	for _, name := range stableKeys(props) {
		schema.setProp(name, props[name])
	}
	return schema
}

// CreateModelSchema constructs a ModelSchema for targetType, registers it as
// that type's default schema, and returns it. factory defaults to
// reflect.New(targetType).Interface(). If targetType embeds (as its first
// field) another struct type that already has a registered default schema,
// Extends is set to that parent schema.
func CreateModelSchema(targetType reflect.Type, props Props, factory func(*Context) any) (*ModelSchema, error) {
	if targetType == nil || targetType.Kind() == reflect.Interface {
		return nil, ErrRootTargetType
	}

	if factory == nil {
		factory = func(*Context) any {
			return reflect.New(targetType).Interface()
		}
	}

	schema := &ModelSchema{
		Factory:    factory,
		TargetType: targetType,
	}
	for _, name := range stableKeys(props) {
		schema.setProp(name, props[name])
	}

	if parent := parentDefaultSchema(targetType); parent != nil && parent.TargetType != targetType {
		schema.Extends = parent
	}

	SetDefaultModelSchema(targetType, schema)
	return schema, nil
}

// parentDefaultSchema looks for a registered default schema on the struct
// type embedded as the first field of t, if any.
func parentDefaultSchema(t reflect.Type) *ModelSchema {
	structType := t
	for structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct || structType.NumField() == 0 {
		return nil
	}
	first := structType.Field(0)
	if !first.Anonymous {
		return nil
	}
	if v, ok := defaultSchemaRegistry.Load(first.Type); ok {
		return v.(*ModelSchema)
	}
	return nil
}

// SetDefaultModelSchema associates schema as the default ModelSchema for t.
func SetDefaultModelSchema(t reflect.Type, schema *ModelSchema) {
	defaultSchemaRegistry.Store(t, schema)
}

// GetDefaultModelSchema resolves a ModelSchema from x, which may be:
//   - a *ModelSchema value itself;
//   - a reflect.Type bearing a registered default;
//   - any other value, whose dynamic type is looked up in the registry.
//
// It returns nil if no schema can be resolved.
func GetDefaultModelSchema(x any) *ModelSchema {
	switch v := x.(type) {
	case nil:
		return nil
	case *ModelSchema:
		return v
	case reflect.Type:
		if s, ok := defaultSchemaRegistry.Load(v); ok {
			return s.(*ModelSchema)
		}
		return nil
	default:
		t := reflect.TypeOf(x)
		if t == nil {
			return nil
		}
		if s, ok := defaultSchemaRegistry.Load(t); ok {
			return s.(*ModelSchema)
		}
		// Fall back to the pointed-to type: instances are commonly handed
		// around by pointer, but CreateModelSchema may have registered the
		// value type (or vice versa).
		if t.Kind() == reflect.Ptr {
			if s, ok := defaultSchemaRegistry.Load(t.Elem()); ok {
				return s.(*ModelSchema)
			}
		} else {
			if s, ok := defaultSchemaRegistry.Load(reflect.PtrTo(t)); ok {
				return s.(*ModelSchema)
			}
		}
		return nil
	}
}

// Serializable registers (or overrides) a single property on schema,
// creating schema's Props map if necessary. It is the imperative primitive
// a class-decorator-style hook would call into; propSchema may be a
// *PropSchema, true, or false, exactly like a Props map entry.
func Serializable(schema *ModelSchema, name string, propSchema any) {
	schema.setProp(name, propSchema)
}

// identifierPropSchema scans for the one property flagged Identifier,
// walking Extends from the given schema up through its ancestors (schema
// itself first, then parents), since at most one property per chain may be
// marked identifier.
func identifierPropSchema(schema *ModelSchema) (name string, ps *PropSchema, found bool) {
	for s := schema; s != nil; s = s.Extends {
		for propName, raw := range s.Props {
			if p, ok := raw.(*PropSchema); ok && p.Identifier {
				return propName, p, true
			}
		}
	}
	return "", nil, false
}

// stableKeys returns props's keys sorted for deterministic iteration when
// the caller built Props as a literal map (no recorded insertion order yet).
func stableKeys(props Props) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
