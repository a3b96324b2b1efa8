package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/i18n"
	"github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/txn"
)

// Submit button names recognised by the edit views.
const (
	UpdateSubmit   = "UPDATE_SUBMIT"
	PreviousSubmit = "PREVIOUS_SUBMIT"
	ContinueSubmit = "CONTINUE_SUBMIT"
	CurrentPaneIdx = "CURRENT_PANE_IDX"
)

// StatusLayout formats the time in the "Updated on" status.
const StatusLayout = "Jan 2, 2006 3:04:05 PM"

// Status messages, translated through the request.
const (
	StatusError   = "An error occurred."
	StatusUpdated = "Updated on ${date_time}"
	ErrorSummary  = "There are <strong>${num_errors}</strong> input errors."
)

// ErrNoContent is returned when the content loader finds nothing to edit.
var ErrNoContent = errors.New("browser: no content to edit")

// ContentLoader finds the object an edit view works on.
type ContentLoader func(r *http.Request) (any, error)

// Adapter exposes content under the edited schema, for content that does
// not carry the schema fields itself.
type Adapter func(content any) (any, error)

// AfterUpdate runs inside the update transaction once changes are applied.
// Its side effects on tracked content are rolled back with the rest when
// the update fails.
type AfterUpdate func(ctx context.Context, content any, changed bool) error

// EditOption configures an edit view.
type EditOption func(*editConfig)

type editConfig struct {
	txns        txn.Manager
	adapter     Adapter
	logger      logrus.FieldLogger
	renderer    template.TemplateRenderer
	template    string
	registry    *form.Registry
	names       []string
	prefix      string
	label       string
	afterUpdate AfterUpdate
	widgets     map[string]form.Factory
	now         func() time.Time
	translator  i18n.Translator
	sessions    SessionStore
}

// WithTransactions sets the transaction manager. It defaults to an
// in-memory journal.
func WithTransactions(m txn.Manager) EditOption {
	return func(c *editConfig) {
		if m != nil {
			c.txns = m
		}
	}
}

// WithAdapter adapts content before widgets read or write it.
func WithAdapter(a Adapter) EditOption {
	return func(c *editConfig) { c.adapter = a }
}

// WithLogger sets the view logger.
func WithLogger(l logrus.FieldLogger) EditOption {
	return func(c *editConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderer sets the renderer for the page template.
func WithRenderer(r template.TemplateRenderer) EditOption {
	return func(c *editConfig) { c.renderer = r }
}

// WithTemplate overrides the page template name.
func WithTemplate(name string) EditOption {
	return func(c *editConfig) {
		if name != "" {
			c.template = name
		}
	}
}

// WithWidgetRegistry resolves widgets through r.
func WithWidgetRegistry(r *form.Registry) EditOption {
	return func(c *editConfig) { c.registry = r }
}

// WithFieldNames restricts and orders the edited fields.
func WithFieldNames(names ...string) EditOption {
	return func(c *editConfig) { c.names = append([]string(nil), names...) }
}

// WithWidgetPrefix overrides the "field." name prefix.
func WithWidgetPrefix(prefix string) EditOption {
	return func(c *editConfig) { c.prefix = prefix }
}

// WithLabel sets the page heading.
func WithLabel(label string) EditOption {
	return func(c *editConfig) { c.label = label }
}

// WithAfterUpdate installs a hook run inside the update transaction.
func WithAfterUpdate(fn AfterUpdate) EditOption {
	return func(c *editConfig) { c.afterUpdate = fn }
}

// WithCustomWidget forces the widget factory of one field.
func WithCustomWidget(name string, factory form.Factory) EditOption {
	return func(c *editConfig) {
		if factory == nil {
			return
		}
		if c.widgets == nil {
			c.widgets = make(map[string]form.Factory)
		}
		c.widgets[name] = factory
	}
}

// WithClock replaces time.Now for status messages.
func WithClock(now func() time.Time) EditOption {
	return func(c *editConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithViewTranslator sets the translator bound to every request.
func WithViewTranslator(t i18n.Translator) EditOption {
	return func(c *editConfig) { c.translator = t }
}

func newEditConfig(tpl string, opts []EditOption) *editConfig {
	cfg := &editConfig{
		logger:   logrus.StandardLogger(),
		template: tpl,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.txns == nil {
		cfg.txns = txn.NewJournal(txn.WithLogger(cfg.logger))
	}
	return cfg
}

func (c *editConfig) setUpOptions(extra ...form.SetUpOption) []form.SetUpOption {
	opts := []form.SetUpOption{
		form.WithNames(c.names...),
		form.WithRegistry(c.registry),
		form.WithWidgets(c.widgets),
	}
	if c.prefix != "" {
		opts = append(opts, form.WithPrefix(c.prefix))
	}
	return append(opts, extra...)
}

func (c *editConfig) request(r *http.Request) (*form.Request, error) {
	var opts []form.RequestOption
	if c.translator != nil {
		opts = append(opts, form.WithTranslator(c.translator))
	}
	return form.FromHTTP(r, opts...)
}

func (c *editConfig) adapt(content any) (any, error) {
	if c.adapter == nil {
		return content, nil
	}
	adapted, err := c.adapter(content)
	if err != nil {
		return nil, fmt.Errorf("browser: adapt content: %w", err)
	}
	return adapted, nil
}

// EditView edits one content object through the widgets of a schema.
type EditView struct {
	schema *schema.Schema
	load   ContentLoader
	cfg    *editConfig
}

// EditResult is the outcome of one edit request.
type EditResult struct {
	Widgets *form.Widgets
	Status  string
	// Errors holds one input error per failing widget.
	Errors  []error
	Changed bool
}

// NewEditView creates an edit view over s. load finds the content for each
// HTTP request.
func NewEditView(s *schema.Schema, load ContentLoader, opts ...EditOption) (*EditView, error) {
	if s == nil {
		return nil, fmt.Errorf("browser: edit view needs a schema")
	}
	if load == nil {
		return nil, fmt.Errorf("browser: edit view needs a content loader")
	}
	return &EditView{schema: s, load: load, cfg: newEditConfig(EditTemplate, opts)}, nil
}

// Update sets up the widgets for content and, when req carries
// UPDATE_SUBMIT, applies their input inside a transaction. Input errors are
// reported in the result; the transaction is aborted and content keeps its
// previous state. Other failures are returned as errors.
func (v *EditView) Update(ctx context.Context, req *form.Request, content any) (*EditResult, error) {
	adapted, err := v.cfg.adapt(content)
	if err != nil {
		return nil, err
	}
	ws, err := form.SetUpEditWidgets(v.schema, req, adapted, v.cfg.setUpOptions()...)
	if err != nil {
		return nil, fmt.Errorf("browser: set up widgets: %w", err)
	}
	result := &EditResult{Widgets: ws}
	if !req.Has(UpdateSubmit) {
		return result, nil
	}

	changed, inputErrs, err := v.apply(ctx, ws, adapted)
	if err != nil {
		return nil, err
	}
	if len(inputErrs) > 0 {
		result.Errors = inputErrs
		result.Status = req.Translate(StatusError)
		return result, nil
	}

	result.Changed = changed
	ws, err = form.SetUpEditWidgets(v.schema, req, adapted, v.cfg.setUpOptions(form.IgnoreStickyValues())...)
	if err != nil {
		return nil, fmt.Errorf("browser: set up widgets: %w", err)
	}
	result.Widgets = ws
	if changed {
		result.Status = req.Translate(StatusUpdated, map[string]any{
			"date_time": v.cfg.now().UTC().Format(StatusLayout),
		})
	}
	return result, nil
}

// apply runs the widget changes and the after-update hook in one
// transaction, committing only when both succeed.
func (v *EditView) apply(ctx context.Context, ws *form.Widgets, content any) (bool, []error, error) {
	return applyInTxn(ctx, v.cfg, v.schema, content, func() (bool, error) {
		return form.ApplyWidgetsChanges(ws, content, v.cfg.names...)
	})
}

func applyInTxn(ctx context.Context, cfg *editConfig, s *schema.Schema, content any, fn func() (bool, error)) (bool, []error, error) {
	tx, err := cfg.txns.Begin(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("browser: begin transaction: %w", err)
	}
	fields, err := s.Subset(cfg.names)
	if err != nil {
		_ = tx.Abort()
		return false, nil, err
	}
	if err := tx.Track(content, fields...); err != nil {
		_ = tx.Abort()
		return false, nil, fmt.Errorf("browser: track content: %w", err)
	}

	changed, applyErr := fn()
	if cfg.afterUpdate != nil {
		if err := cfg.afterUpdate(ctx, content, changed); err != nil && applyErr == nil {
			applyErr = err
		}
	}
	if applyErr != nil {
		if abortErr := tx.Abort(); abortErr != nil {
			cfg.logger.WithError(abortErr).Error("browser: abort failed")
		}
		werr, ok := form.AsWidgetsError(applyErr)
		if !ok {
			return false, nil, applyErr
		}
		cfg.logger.WithField("errors", werr.Len()).Warn("browser: edit aborted")
		return false, werr.Errors(), nil
	}
	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("browser: commit: %w", err)
	}
	if changed {
		cfg.logger.WithField("schema", s.Name()).Debug("browser: changes applied")
	}
	return changed, nil, nil
}

// Render renders the edit page for result.
func (v *EditView) Render(req *form.Request, result *EditResult, action string) string {
	return renderTemplate(v.cfg.renderer, v.cfg.template, map[string]any{
		"label":         req.Translate(v.label()),
		"status":        result.Status,
		"error_count":   len(result.Errors),
		"error_summary": errorSummary(req, result.Errors),
		"action":        action,
		"rows":          widgetRows(result.Widgets),
		"submit_label":  req.Translate("Change"),
	})
}

func (v *EditView) label() string {
	if v.cfg.label != "" {
		return v.cfg.label
	}
	return v.schema.Title()
}

// ServeHTTP renders the form, applying submitted changes first. Input
// errors re-render the form with status 200.
func (v *EditView) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	req, err := v.cfg.request(r)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	content, err := v.load(r)
	if err != nil {
		v.fail(rw, err)
		return
	}
	result, err := v.Update(r.Context(), req, content)
	if err != nil {
		v.fail(rw, err)
		return
	}
	writeHTML(rw, v.Render(req, result, r.URL.Path))
}

func (v *EditView) fail(rw http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoContent) {
		http.Error(rw, err.Error(), http.StatusNotFound)
		return
	}
	v.cfg.logger.WithError(err).Error("browser: edit view")
	http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeHTML(rw http.ResponseWriter, body string) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte(body))
}

func errorSummary(req *form.Request, errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	return req.Translate(ErrorSummary, map[string]any{"num_errors": len(errs)})
}

func widgetRows(ws *form.Widgets) []any {
	rows := make([]any, 0, ws.Len())
	for _, w := range ws.All() {
		if w.Visible() {
			rows = append(rows, Row(w))
		}
	}
	return rows
}
