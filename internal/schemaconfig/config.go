// Package schemaconfig loads the manifest serializrctl uses to pick a
// registered ModelSchema (or inline props) by name, using the same layered file+env loading shape as the rest of the retrieved
// corpus's koanf-based config packages.
package schemaconfig

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Manifest is the root config structure: one entry per named schema the CLI
// can target.
type Manifest struct {
	Schemas map[string]SchemaEntry `koanf:"schemas"`
}

// SchemaEntry names the Go type a manifest entry resolves to and carries a
// Document path; serializrctl does not read Document and always takes the
// document path as a command-line argument. Entries without a compiled-in
// type may instead declare Props inline, property name to strategy
// ("primitive", "date", "identifier", "skip", "list", "map", optionally
// suffixed with " as <jsonname>"), from which the CLI builds a simple
// schema on the fly.
type SchemaEntry struct {
	Type     string            `koanf:"type"`
	Document string            `koanf:"document"`
	Props    map[string]string `koanf:"props"`
}

var (
	loadOnce sync.Once
	loaded   *Manifest
	loadErr  error
)

// Load reads path (a YAML manifest) and overlays SERIALIZR__-prefixed
// environment variables over it, double-underscore separating levels
// (SERIALIZR__SCHEMAS__post__document=... overrides schemas.post.document).
// Load is safe for repeated calls; only the first call's path is honored.
func Load(path string) (*Manifest, error) {
	loadOnce.Do(func() {
		k := koanf.New(".")

		if err := k.Load(kfile.Provider(path), yaml.Parser()); err != nil {
			loadErr = fmt.Errorf("loading manifest %s: %w", path, err)
			return
		}

		if err := k.Load(kenv.Provider("SERIALIZR__", "__", func(s string) string {
			return strings.ToLower(strings.TrimPrefix(s, "SERIALIZR__"))
		}), nil); err != nil {
			loadErr = fmt.Errorf("loading environment overrides: %w", err)
			return
		}

		var cfg Manifest
		if err := k.Unmarshal("", &cfg); err != nil {
			loadErr = fmt.Errorf("unmarshalling manifest: %w", err)
			return
		}

		loaded = &cfg
	})
	return loaded, loadErr
}
