package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/components/timezones"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/form/browser"
	"github.com/goliatone/go-formbind/pkg/i18n"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/txn"
)

const openAPITimeout = 30 * time.Second

// app holds what every command works with: the schemas, the content and
// the widget machinery configured for them.
type app struct {
	cfg        Config
	logger     *logrus.Logger
	schemas    map[string]*schema.Schema
	names      []string
	forms      map[string]openapi.Form
	registry   *form.Registry
	widgets    map[string]map[string]form.Factory
	translator i18n.Translator
	content    *contentStore
	txns       txn.Manager
}

func newApp(ctx context.Context, cfg Config, logger *logrus.Logger) (*app, error) {
	browser.SetLogger(logger)
	timezones.Register(form.DefaultRegistry)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		schemas:  make(map[string]*schema.Schema),
		forms:    make(map[string]openapi.Form),
		registry: form.DefaultRegistry,
		widgets:  make(map[string]map[string]form.Factory),
		txns:     txn.NewJournal(txn.WithLogger(logger)),
	}
	if err := a.loadSchemas(ctx); err != nil {
		return nil, err
	}
	if err := a.loadWidgets(); err != nil {
		return nil, err
	}
	if cfg.Catalogs != "" {
		catalog, err := i18n.LoadCatalogFS(os.DirFS(cfg.Catalogs), i18n.WithFallbackLocale(cfg.Locale))
		if err != nil {
			return nil, err
		}
		logger.WithField("locales", catalog.Locales()).Debug("formbind: message catalogs loaded")
		a.translator = catalog
	}
	content, err := loadContent(cfg.Content)
	if err != nil {
		return nil, err
	}
	a.content = content
	return a, nil
}

func (a *app) loadSchemas(ctx context.Context) error {
	if a.cfg.Schemas == "" && a.cfg.OpenAPI == "" {
		return fmt.Errorf("no schemas configured: set --schemas or --openapi")
	}
	if a.cfg.Schemas != "" {
		store, err := schema.LoadFS(os.DirFS(a.cfg.Schemas))
		if err != nil {
			return err
		}
		if err := a.addStore(store); err != nil {
			return err
		}
	}
	if a.cfg.OpenAPI != "" {
		src, err := openAPISource(a.cfg.OpenAPI)
		if err != nil {
			return err
		}
		loader := openapi.NewLoader(openapi.WithHTTPFallback(openAPITimeout))
		catalog, err := openapi.NewImporter(openapi.WithLogger(a.logger)).Load(ctx, loader, src)
		if err != nil {
			return err
		}
		if err := a.addStore(catalog.Schemas); err != nil {
			return err
		}
		for _, f := range catalog.Forms {
			a.forms[f.SchemaName] = f
		}
	}
	sort.Strings(a.names)
	a.logger.WithField("schemas", a.names).Debug("formbind: schemas loaded")
	return nil
}

func (a *app) addStore(store *schema.Store) error {
	for _, name := range store.Names() {
		if _, dup := a.schemas[name]; dup {
			return fmt.Errorf("schema %q is declared twice", name)
		}
		s, _ := store.Schema(name)
		a.schemas[name] = s
		a.names = append(a.names, name)
	}
	return nil
}

func openAPISource(raw string) (openapi.Source, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return openapi.SourceFromURL(raw)
	}
	return openapi.SourceFromFile(raw), nil
}

// loadWidgets resolves the per-field widget overrides.
func (a *app) loadWidgets() error {
	for _, o := range a.cfg.Widgets {
		key := o.Schema + "." + o.Field
		s, ok := a.schemas[o.Schema]
		if !ok {
			return fmt.Errorf("widget override %s: unknown schema", key)
		}
		if _, ok := s.Lookup(o.Field); !ok {
			return fmt.Errorf("widget override %s: unknown field", key)
		}
		factory, ok := a.registry.Named(o.Widget)
		if !ok {
			return fmt.Errorf("widget override %s: unknown widget %q", key, o.Widget)
		}
		if a.widgets[o.Schema] == nil {
			a.widgets[o.Schema] = make(map[string]form.Factory)
		}
		a.widgets[o.Schema][o.Field] = factory
	}
	return nil
}

func (a *app) schema(name string) (*schema.Schema, error) {
	s, ok := a.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// editOptions configures the edit view and wizard of one schema.
func (a *app) editOptions(name string) []browser.EditOption {
	logger := a.logger.WithField("schema", name)
	opts := []browser.EditOption{
		browser.WithTransactions(a.txns),
		browser.WithLogger(logger),
		browser.WithWidgetRegistry(a.registry),
		browser.WithWidgetPrefix(a.cfg.Prefix),
		browser.WithAfterUpdate(func(_ context.Context, _ any, changed bool) error {
			if changed {
				logger.Info("formbind: content updated")
			}
			return nil
		}),
	}
	if f, ok := a.forms[name]; ok && f.Summary != "" {
		opts = append(opts, browser.WithLabel(f.Summary))
	}
	if a.translator != nil {
		opts = append(opts, browser.WithViewTranslator(a.translator))
	}
	for field, factory := range a.widgets[name] {
		opts = append(opts, browser.WithCustomWidget(field, factory))
	}
	return opts
}
