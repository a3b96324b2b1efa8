package timezones

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// EmptySearchMode decides what an empty query returns.
type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

// GuardFunc rejects a request by returning an error. Errors implementing
// HTTPError choose the response status; anything else is a 403.
type GuardFunc func(r *http.Request) error

// Options configures the search handler and its route.
type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc
	// Catalog defaults to the embedded zone list.
	Catalog *Catalog
	Logger  logrus.FieldLogger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the handler defaults.
func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/timezones",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    50,
		MaxLimit:        200,
		EmptySearchMode: EmptySearchNone,
	}
}

// NewOptions applies fns over the defaults and fills any zeroed values back
// in.
func NewOptions(fns ...Option) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts.normalized()
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = def.DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = def.MaxLimit
	}
	if o.EmptySearchMode == "" {
		o.EmptySearchMode = def.EmptySearchMode
	}
	if o.RoutePath == "" {
		o.RoutePath = def.RoutePath
	}
	if o.SearchParam == "" {
		o.SearchParam = def.SearchParam
	}
	if o.LimitParam == "" {
		o.LimitParam = def.LimitParam
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

func WithRoutePath(path string) Option {
	return func(o *Options) { o.RoutePath = path }
}

func WithSearchParam(name string) Option {
	return func(o *Options) { o.SearchParam = name }
}

func WithLimitParam(name string) Option {
	return func(o *Options) { o.LimitParam = name }
}

func WithDefaultLimit(limit int) Option {
	return func(o *Options) { o.DefaultLimit = limit }
}

func WithMaxLimit(limit int) Option {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithEmptySearchMode(mode EmptySearchMode) Option {
	return func(o *Options) { o.EmptySearchMode = mode }
}

func WithGuard(guard GuardFunc) Option {
	return func(o *Options) { o.Guard = guard }
}

// WithZones serves a catalog built from zones instead of the embedded list.
func WithZones(zones []string) Option {
	return func(o *Options) { o.Catalog = NewCatalog(zones) }
}

func WithCatalog(c *Catalog) Option {
	return func(o *Options) { o.Catalog = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) { o.Logger = l }
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
