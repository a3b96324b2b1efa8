package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is an in-memory Translator keyed by locale and message id.
// Lookups try the exact locale, then its base language, then the fallback
// locale.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
}

var _ Translator = (*Catalog)(nil)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithFallbackLocale sets the locale consulted when a key is missing.
func WithFallbackLocale(locale string) CatalogOption {
	return func(c *Catalog) {
		c.fallback = strings.TrimSpace(locale)
	}
}

// NewCatalog constructs an empty catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Add merges messages into locale, replacing existing keys.
func (c *Catalog) Add(locale string, messages map[string]string) {
	locale = strings.TrimSpace(locale)
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.messages[locale]
	if !ok {
		bucket = make(map[string]string, len(messages))
		c.messages[locale] = bucket
	}
	for key, msg := range messages {
		bucket[strings.TrimSpace(key)] = msg
	}
}

// Locales returns the locales with at least one message, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, candidate := range c.candidates(locale) {
		if msg, ok := c.messages[candidate][key]; ok {
			return Interpolate(msg, args...), nil
		}
	}
	return "", fmt.Errorf("%w: %q (%s)", ErrMissingTranslation, key, locale)
}

func (c *Catalog) candidates(locale string) []string {
	locale = strings.TrimSpace(locale)
	out := make([]string, 0, 3)
	if locale != "" {
		out = append(out, locale)
		if base := BaseLocale(locale); base != locale {
			out = append(out, base)
		}
	}
	if c.fallback != "" && c.fallback != locale {
		out = append(out, c.fallback)
	}
	return out
}

// LoadCatalogFS reads every <locale>.yaml or <locale>.yml file in fsys.
// Nested keys are flattened with dots.
func LoadCatalogFS(fsys fs.FS, opts ...CatalogOption) (*Catalog, error) {
	catalog := NewCatalog(opts...)
	if fsys == nil {
		return catalog, nil
	}
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		ext := strings.ToLower(path.Ext(p))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", p, err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("i18n: parse %s: %w", p, err)
		}
		messages := make(map[string]string)
		flatten("", raw, messages)
		catalog.Add(strings.TrimSuffix(path.Base(p), path.Ext(p)), messages)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
