package serializr

import (
	"embed"
	"fmt"
	"strings"

	"github.com/kaptinlin/go-i18n"
)

//go:embed locales/*.json
var localesFS embed.FS

// I18n returns an initialized internationalization bundle with the embedded
// locale catalogs. Callers create a *i18n.Localizer from it
// (I18n().NewLocalizer("zh-Hans")) and pass it to CodedError.Localize.
func I18n() (*i18n.I18n, error) {
	bundle := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en", "zh-Hans"),
	)
	if err := bundle.LoadFS(localesFS, "locales/*.json"); err != nil {
		return nil, err
	}
	return bundle, nil
}

// CodedError pairs one of this package's sentinel errors with a stable
// catalog code, an English message template, and the substitution
// parameters that filled it, so a deserialization failure can be re-rendered
// in another locale without losing the identity of the underlying sentinel
// (errors.Is still matches Err).
type CodedError struct {
	Err     error
	Code    string
	Message string
	Params  map[string]any
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, replaceParams(e.Message, e.Params))
}

func (e *CodedError) Unwrap() error { return e.Err }

// Localize renders this error's message catalog entry through localizer,
// substituting Params, falling back to Error() if localizer is nil.
func (e *CodedError) Localize(localizer *i18n.Localizer) string {
	if localizer == nil {
		return e.Error()
	}
	return localizer.Get(e.Code, i18n.Vars(e.Params))
}

// codedf builds a CodedError wrapping sentinel, keyed by code, with message
// as its English template and params available to both that fallback and
// any other locale's catalog entry for code.
func codedf(sentinel error, code string, message string, params map[string]any) error {
	return &CodedError{Err: sentinel, Code: code, Message: message, Params: params}
}

// replaceParams is the English-only fallback substitution used by Error(),
// mirroring the catalog's own {name}-style placeholders.
func replaceParams(template string, params map[string]any) string {
	for k, v := range params {
		template = strings.ReplaceAll(template, "{"+k+"}", fmt.Sprint(v))
	}
	return template
}

// notObjectError builds the catalog-backed rendering of ErrNotObject for
// json, shared by every deserializer that requires a JSON object.
func notObjectError(json any) error {
	return codedf(ErrNotObject, "not_object", "json value is not an object: {value} ({type})", map[string]any{
		"value": json,
		"type":  fmt.Sprintf("%T", json),
	})
}

// notArrayError builds the catalog-backed rendering of ErrNotArray for json.
func notArrayError(json any) error {
	return codedf(ErrNotArray, "not_array", "json value is not an array: {value} ({type})", map[string]any{
		"value": json,
		"type":  fmt.Sprintf("%T", json),
	})
}
