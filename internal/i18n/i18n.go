// Package i18n provides string lookup over embedded locale catalogs.
// Catalogs use the {"key": {"message": "..."}} format with {0}-style
// positional substitutions. Lookup falls back to the default locale,
// then to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLocale is the fallback catalog, always loaded.
const DefaultLocale = "en"

// Available lists the shipped locales.
var Available = []string{"en", "zh_CN"}

type message struct {
	Message string `json:"message"`
}

// Bundle is a resolved catalog for one locale plus the fallback.
type Bundle struct {
	locale   string
	msgs     map[string]message
	fallback map[string]message
}

// Supported reports whether a catalog ships for the locale.
func Supported(locale string) bool {
	for _, l := range Available {
		if l == locale {
			return true
		}
	}
	return false
}

// Load parses the catalog for locale. Unknown locales resolve to the
// default catalog.
func Load(locale string) (*Bundle, error) {
	if !Supported(locale) {
		locale = DefaultLocale
	}

	msgs, err := loadCatalog(locale)
	if err != nil {
		return nil, err
	}
	b := &Bundle{locale: locale, msgs: msgs}

	if locale != DefaultLocale {
		fallback, err := loadCatalog(DefaultLocale)
		if err != nil {
			return nil, err
		}
		b.fallback = fallback
	}
	return b, nil
}

func loadCatalog(locale string) (map[string]message, error) {
	data, err := localesFS.ReadFile("locales/" + locale + ".json")
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", locale, err)
	}
	var msgs map[string]message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", locale, err)
	}
	return msgs, nil
}

// Locale returns the bundle's resolved locale.
func (b *Bundle) Locale() string {
	return b.locale
}

// T looks up key and applies positional substitutions.
func (b *Bundle) T(key string, subs ...string) string {
	msg, ok := b.msgs[key]
	if !ok || msg.Message == "" {
		msg, ok = b.fallback[key]
		if !ok || msg.Message == "" {
			return key
		}
	}
	out := msg.Message
	for i, sub := range subs {
		out = strings.ReplaceAll(out, fmt.Sprintf("{%d}", i), sub)
	}
	return out
}
