// Package tag bridges Go struct tags into a serializr.Props, the same way a
// class-decorator hook would in a language that has one: instead of calling
// serializr.Serializable per field, a caller can write
//
//	type Post struct {
//	    ID     string `serializr:"identifier"`
//	    Title  string `serializr:"title"`
//	    Author string `serializr:"-"`
//	}
//
// and call tag.FromStruct(reflect.TypeOf(Post{})) to get back a Props ready
// to hand to serializr.CreateModelSchema.
package tag

import (
	"reflect"
	"strings"

	"github.com/nicoburns/serializr"
)

// FromStruct reflects over structType (dereferencing a pointer type) and
// builds a serializr.Props entry for every exported field that does not
// carry a `serializr:"-"` tag. A field tagged `serializr:"-"` is skipped
// (it maps to false rather than being absent, so a "*" wildcard does not
// pick it up either). A bare tag or no tag at all means "primitive, named
// after the json tag or the field name".
//
// Recognized tag options, comma-separated after the JSON name (or "-" in
// the name position to use the Go field name even when a json tag names the
// field otherwise):
//
//	identifier   marks this field with serializr.Identifier
//	alias=<name> overrides the JSON key (equivalent to serializr.Alias)
func FromStruct(structType reflect.Type) (serializr.Props, error) {
	for structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, serializr.ErrRootTargetType
	}

	props := serializr.Props{}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		raw, ok := field.Tag.Lookup("serializr")
		if ok && raw == "-" {
			props[field.Name] = false
			continue
		}

		name, opts := parseTag(raw)
		if name == "-" {
			name = field.Name
		} else if name == "" {
			name = jsonFieldName(field)
		}

		var propSchema *serializr.PropSchema
		if hasOpt(opts, "identifier") {
			propSchema = serializr.Identifier(nil)
		} else {
			propSchema = serializr.Primitive()
		}

		if alias := aliasOf(opts); alias != "" {
			name = alias
		}
		if name != field.Name {
			propSchema = serializr.Alias(name, propSchema)
		}

		props[field.Name] = propSchema
	}

	return props, nil
}

// knownOptions are the tokens parseTag treats as flags/key=value options
// rather than as the JSON name, so `serializr:"identifier"` means "no name
// override, mark as identifier" rather than "name this field identifier".
var knownOptions = map[string]bool{"identifier": true}

// parseTag splits a `serializr:"[name,]opt,opt=value"` tag into its name
// portion (empty if every token is a recognized option) and its remaining
// comma-separated options.
func parseTag(raw string) (name string, opts []string) {
	if raw == "" {
		return "", nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "=") || knownOptions[part] {
			opts = append(opts, part)
			continue
		}
		name = part
	}
	return name, opts
}

func hasOpt(opts []string, name string) bool {
	for _, o := range opts {
		if o == name {
			return true
		}
	}
	return false
}

func aliasOf(opts []string) string {
	for _, o := range opts {
		if strings.HasPrefix(o, "alias=") {
			return strings.TrimPrefix(o, "alias=")
		}
	}
	return ""
}

// jsonFieldName mirrors encoding/json's own tag convention so a type that
// already carries `json:"..."` tags gets the same wire name for free.
func jsonFieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return field.Name
	}
	if idx := strings.Index(jsonTag, ","); idx != -1 {
		if name := strings.TrimSpace(jsonTag[:idx]); name != "" {
			return name
		}
		return field.Name
	}
	return strings.TrimSpace(jsonTag)
}
