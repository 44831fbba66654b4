// Package catalog loads localized message catalogs and resolves user locales.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// BaseLocale is the canonical source locale for catalogs.
	BaseLocale = "en-US"
)

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	namespaces map[string]map[string]string
	messages   map[string]string
}

// Bundle contains all locale catalogs loaded from one filesystem.
type Bundle struct {
	locales map[string]*localeCatalog
	order   []string
	matcher language.Matcher
}

//go:embed locales/*/*.yaml
var embeddedCatalogFS embed.FS

// LoadEmbedded loads catalog files embedded in this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedCatalogFS)
}

// LoadFromFS loads locales/<locale>/<namespace>.yaml files from catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]*localeCatalog{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.addFile(p, file); err != nil {
			return nil, err
		}
	}
	if !bundle.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The matcher falls back to its first tag, so the base locale leads.
	bundle.order = []string{BaseLocale}
	for locale := range bundle.locales {
		if locale != BaseLocale {
			bundle.order = append(bundle.order, locale)
		}
	}
	sort.Strings(bundle.order[1:])
	tags := make([]language.Tag, 0, len(bundle.order))
	for _, locale := range bundle.order {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags = append(tags, tag)
	}
	bundle.matcher = language.NewMatcher(tags)
	return bundle, nil
}

func (b *Bundle) addFile(filePath string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(filePath))
	namespaceFromPath := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", filePath)
	}
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", filePath, locale, localeFromPath)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", filePath, namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages are required", filePath)
	}

	lc, ok := b.locales[locale]
	if !ok {
		lc = &localeCatalog{namespaces: map[string]map[string]string{}, messages: map[string]string{}}
		b.locales[locale] = lc
	}
	if _, exists := lc.namespaces[namespace]; exists {
		return fmt.Errorf("catalog %s: namespace %q already defined for locale %q", filePath, namespace, locale)
	}
	nsMessages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", filePath)
		}
		if _, exists := lc.messages[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", filePath, key, locale)
		}
		lc.messages[key] = value
		nsMessages[key] = value
	}
	lc.namespaces[namespace] = nsMessages
	return nil
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the available locales, base locale first.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.order...)
}

// Match resolves language preferences (BCP 47 codes or Accept-Language
// strings) to the closest available locale. Blank or unknown input yields
// the base locale.
func (b *Bundle) Match(preferences ...string) string {
	if b == nil || b.matcher == nil {
		return BaseLocale
	}
	filtered := preferences[:0:0]
	for _, pref := range preferences {
		if pref = strings.TrimSpace(pref); pref != "" {
			filtered = append(filtered, pref)
		}
	}
	if len(filtered) == 0 {
		return BaseLocale
	}
	_, index := language.MatchStrings(b.matcher, filtered...)
	if index < 0 || index >= len(b.order) {
		return BaseLocale
	}
	return b.order[index]
}

// Message returns one message value with base-locale fallback.
func (b *Bundle) Message(locale string, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	if lc, ok := b.locales[strings.TrimSpace(locale)]; ok {
		if value, exists := lc.messages[key]; exists {
			return value, true
		}
	}
	if lc, ok := b.locales[BaseLocale]; ok {
		value, exists := lc.messages[key]
		return value, exists
	}
	return "", false
}

// NamespaceMessages returns a copy of one namespace for a locale.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	lc, ok := b.locales[strings.TrimSpace(locale)]
	if !ok {
		return out
	}
	for key, value := range lc.namespaces[strings.TrimSpace(namespace)] {
		out[key] = value
	}
	return out
}

// CheckParity reports base-locale keys that another locale does not define.
func (b *Bundle) CheckParity() error {
	if b == nil || b.locales[BaseLocale] == nil || len(b.order) == 0 {
		return fmt.Errorf("base locale %s is not loaded", BaseLocale)
	}
	base := b.locales[BaseLocale]
	namespaces := make([]string, 0, len(base.namespaces))
	for namespace := range base.namespaces {
		namespaces = append(namespaces, namespace)
	}
	sort.Strings(namespaces)

	var missing []string
	for _, locale := range b.Locales()[1:] {
		for _, namespace := range namespaces {
			translated := b.NamespaceMessages(locale, namespace)
			for key := range b.NamespaceMessages(BaseLocale, namespace) {
				if _, ok := translated[key]; !ok {
					missing = append(missing, locale+"/"+namespace+"/"+key)
				}
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("catalog keys missing from translations: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Printer renders messages for one locale.
func (b *Bundle) Printer(locale string) Printer {
	if !b.HasLocale(locale) {
		locale = BaseLocale
	}
	return Printer{bundle: b, locale: locale}
}

// Printer renders catalog messages for a single locale.
type Printer struct {
	bundle *Bundle
	locale string
}

// Locale returns the printer's locale.
func (p Printer) Locale() string {
	if p.locale == "" {
		return BaseLocale
	}
	return p.locale
}

// Text returns the message for key, or key itself when it is missing.
func (p Printer) Text(key string) string {
	if value, ok := p.bundle.Message(p.locale, key); ok {
		return value
	}
	return key
}

// Format renders the message template for key with data. Template errors
// fall back to the raw message.
func (p Printer) Format(key string, data any) string {
	raw := p.Text(key)
	tmpl, err := template.New(key).Option("missingkey=zero").Parse(raw)
	if err != nil {
		return raw
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return raw
	}
	return buf.String()
}

// Matches reports whether input equals the label for key in the printer's
// locale or in the base locale.
func (p Printer) Matches(key string, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if value, ok := p.bundle.Message(p.locale, key); ok && strings.TrimSpace(value) == input {
		return true
	}
	if value, ok := p.bundle.Message(BaseLocale, key); ok && strings.TrimSpace(value) == input {
		return true
	}
	return false
}
