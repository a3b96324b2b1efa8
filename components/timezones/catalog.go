// Package timezones provides an IANA time zone vocabulary for choice fields,
// a dropdown widget bound to it, and a JSON search handler for pickers that
// filter the list as the user types.
//
// The default catalog is read from the embedded data/iana_timezones.txt.
package timezones

import (
	"bufio"
	"embed"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formbind/pkg/schema"
)

//go:embed data/iana_timezones.txt
var dataFS embed.FS

const defaultListPath = "data/iana_timezones.txt"

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Catalog is a sorted, de-duplicated list of zone names. It implements
// schema.Vocabulary: values are zone names, and *time.Location values are
// matched by name.
type Catalog struct {
	zones []string
	index map[string]int
}

var _ schema.Vocabulary = (*Catalog)(nil)

// NewCatalog builds a catalog from zone names. Blank names are dropped.
func NewCatalog(zones []string) *Catalog {
	c := &Catalog{index: make(map[string]int, len(zones))}
	for _, zone := range zones {
		zone = strings.TrimSpace(zone)
		if zone == "" {
			continue
		}
		if _, ok := c.index[zone]; ok {
			continue
		}
		c.index[zone] = 0
		c.zones = append(c.zones, zone)
	}
	sort.Strings(c.zones)
	for i, zone := range c.zones {
		c.index[zone] = i
	}
	return c
}

// LoadCatalog reads one zone per line. Blank lines and lines starting with
// "#" are skipped.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	if r == nil {
		return nil, errors.New("timezones: missing reader")
	}
	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 512)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewCatalog(zones), nil
}

// Default returns the catalog of the embedded zone list.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()
		defaultCatalog, defaultErr = LoadCatalog(f)
	})
	return defaultCatalog, defaultErr
}

// Zones returns a copy of the zone names.
func (c *Catalog) Zones() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.zones...)
}

func (c *Catalog) Terms() []schema.Term {
	if c == nil {
		return nil
	}
	terms := make([]schema.Term, len(c.zones))
	for i, zone := range c.zones {
		terms[i] = term(zone)
	}
	return terms
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.zones)
}

func (c *Catalog) Contains(value any) bool {
	_, ok := c.TermByValue(value)
	return ok
}

func (c *Catalog) TermByValue(value any) (schema.Term, bool) {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case *time.Location:
		if v == nil {
			return schema.Term{}, false
		}
		name = v.String()
	default:
		return schema.Term{}, false
	}
	return c.TermByToken(name)
}

func (c *Catalog) TermByToken(token string) (schema.Term, bool) {
	if c == nil {
		return schema.Term{}, false
	}
	if _, ok := c.index[token]; !ok {
		return schema.Term{}, false
	}
	return term(token), true
}

func term(zone string) schema.Term {
	return schema.Term{Value: zone, Token: zone, Title: zone}
}

// Search returns up to limit zones containing query, case-insensitively.
// Prefix matches sort first. The limit is clamped by opts; an empty query
// returns nothing unless opts.EmptySearchMode is EmptySearchTop.
func (c *Catalog) Search(query string, limit int, opts Options) []string {
	limit = clampLimit(limit, opts)
	if c == nil || limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode != EmptySearchTop {
			return nil
		}
		return append([]string(nil), c.zones[:min(limit, len(c.zones))]...)
	}

	q := strings.ToLower(query)
	var prefixed, contained []string
	for _, zone := range c.zones {
		lower := strings.ToLower(zone)
		switch {
		case strings.HasPrefix(lower, q):
			prefixed = append(prefixed, zone)
		case strings.Contains(lower, q):
			contained = append(contained, zone)
		}
	}
	out := append(prefixed, contained...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NewField returns a choice field over the default catalog.
func NewField(name string, opts ...schema.Option) (*schema.Choice, error) {
	catalog, err := Default()
	if err != nil {
		return nil, err
	}
	return schema.NewChoice(name, catalog, opts...), nil
}
