// Package serializr implements a schema-driven (de)serialization engine
// that converts between a Go object graph and a plain tree of
// JSON-compatible values (map[string]any, []any, primitives).
//
// Each domain type is described by a ModelSchema enumerating its properties
// and a PropSchema (de)serialization strategy for each. Deserialization is
// continuation-based: a Context tracks in-flight callbacks and cross-object
// reference promises and fires a single completion callback once the whole
// graph has settled.
package serializr
