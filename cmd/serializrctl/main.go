// Command serializrctl round-trips a JSON document through a registered
// ModelSchema named in a manifest file, for ad hoc inspection of a schema's
// serialize/deserialize behavior outside of a test binary.
//
// Usage:
//
//	serializrctl [flags] <schema-name> <document.json>
//
// Flags:
//
//	--manifest string   manifest YAML path (default "serializr.yaml")
//	--locale string     error message locale (default "en")
//	--quiet             suppress colorized status output
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/nicoburns/serializr"
	"github.com/nicoburns/serializr/internal/schemaconfig"
)

var (
	manifestPath = flag.String("manifest", "serializr.yaml", "manifest YAML path")
	locale       = flag.String("locale", "en", "error message locale")
	quiet        = flag.Bool("quiet", false, "suppress colorized status output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <schema-name> <document.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// .env is optional: a manifest path or schema registration may depend on
	// environment variables a local .env sets for development.
	_ = godotenv.Load()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	schemaName, documentPath := flag.Arg(0), flag.Arg(1)

	if err := run(schemaName, documentPath); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func run(schemaName, documentPath string) error {
	manifest, err := schemaconfig.Load(*manifestPath)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	entry, ok := manifest.Schemas[schemaName]
	if !ok {
		return fmt.Errorf("no schema named %q in %s", schemaName, *manifestPath)
	}

	schema := registeredSchemas[entry.Type]
	if schema == nil && len(entry.Props) > 0 {
		schema, err = buildSchema(entry.Props)
		if err != nil {
			return fmt.Errorf("building schema %q from manifest props: %w", schemaName, err)
		}
	}
	if schema == nil {
		return fmt.Errorf("no ModelSchema registered under type key %q and no inline props", entry.Type)
	}

	data, err := os.ReadFile(documentPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", documentPath, err)
	}

	var instance any
	if strings.HasSuffix(documentPath, ".yaml") || strings.HasSuffix(documentPath, ".yml") {
		instance, err = deserializeYAML(schema, data)
	} else {
		instance, err = serializr.UnmarshalJSON(schema, data, nil)
	}
	if err != nil {
		return fmt.Errorf("deserializing %s as %q: %w", documentPath, schemaName, err)
	}

	printOK(fmt.Sprintf("deserialized %s as %q", documentPath, schemaName))

	roundTripped, err := serializr.MarshalJSON(schema, instance)
	if err != nil {
		return fmt.Errorf("re-serializing: %w", err)
	}

	fmt.Println(string(roundTripped))
	return nil
}

// deserializeYAML decodes data as YAML via goccy/go-yaml into the plain
// map[string]any/[]any/primitive tree Deserialize expects, then blocks until
// the whole graph (including any reference awaits) has settled, mirroring
// serializr.UnmarshalJSON's synchronous-wrapper shape for the YAML input
// path.
func deserializeYAML(schema *serializr.ModelSchema, data []byte) (any, error) {
	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	serializr.Deserialize(schema, decoded, func(err error, value any) {
		done <- outcome{value: value, err: err}
	}, nil)

	result := <-done
	return result.value, result.err
}

// registeredSchemas maps a manifest entry's "type" key to the actual
// *serializr.ModelSchema it should drive. serializrctl only knows about
// schemas registered here at build time; there is no dynamic Go type lookup
// by string name. Entries without a compiled-in type fall back to inline
// manifest props (buildSchema).
var registeredSchemas = map[string]*serializr.ModelSchema{}

// buildSchema turns a manifest entry's inline props into a simple schema.
// Each value is a strategy name, optionally suffixed with " as <jsonname>"
// to alias the JSON key:
//
//	props:
//	  id: identifier
//	  title: primitive
//	  created: date as created_at
//	  tags: list
//	  meta: map
//	  secret: skip
func buildSchema(props map[string]string) (*serializr.ModelSchema, error) {
	schema := serializr.CreateSimpleSchema(nil)
	for name, strategy := range props {
		kind, jsonName := strategy, ""
		if idx := strings.Index(strategy, " as "); idx != -1 {
			kind = strings.TrimSpace(strategy[:idx])
			jsonName = strings.TrimSpace(strategy[idx+len(" as "):])
		}

		var prop any
		switch kind {
		case "primitive":
			prop = serializr.Primitive()
		case "date":
			prop = serializr.Date()
		case "identifier":
			prop = serializr.Identifier(nil)
		case "list":
			prop = serializr.List(nil)
		case "map":
			prop = serializr.Map(nil)
		case "skip":
			prop = false
		default:
			return nil, fmt.Errorf("unknown prop strategy %q for %q", strategy, name)
		}

		if jsonName != "" {
			ps, ok := prop.(*serializr.PropSchema)
			if !ok {
				return nil, fmt.Errorf("cannot alias skipped prop %q", name)
			}
			prop = serializr.Alias(jsonName, ps)
		}
		serializr.Serializable(schema, name, prop)
	}
	return schema, nil
}

func printOK(msg string) {
	if *quiet {
		return
	}
	color.New(color.FgGreen).Fprintln(os.Stderr, msg)
}

func printError(err error) {
	msg := localizedMessage(err)
	if *quiet {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", msg)
}

// localizedMessage re-renders err in *locale when it (or something it wraps)
// is a *serializr.CodedError, falling back to err.Error() for plain errors
// or an unknown locale.
func localizedMessage(err error) string {
	var coded *serializr.CodedError
	cur := err
	for cur != nil {
		if c, ok := cur.(*serializr.CodedError); ok {
			coded = c
			break
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	if coded == nil {
		return err.Error()
	}

	bundle, bundleErr := serializr.I18n()
	if bundleErr != nil {
		return err.Error()
	}
	return coded.Localize(bundle.NewLocalizer(*locale))
}
