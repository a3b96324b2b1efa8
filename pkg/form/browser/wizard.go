package browser

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// WizardCookie carries the session id of a session-backed wizard.
const WizardCookie = "formbind_wizard"

// Pane is one step of an edit wizard.
type Pane struct {
	Label string
	Names []string
}

// SessionStore keeps wizard data between requests.
type SessionStore interface {
	Load(ctx context.Context, id string) (map[string]any, bool, error)
	Save(ctx context.Context, id string, data map[string]any) error
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]map[string]any)}
}

func (s *MemorySessionStore) Load(ctx context.Context, id string) (map[string]any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[id]
	if !ok {
		return nil, false, nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out, true, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make(map[string]any, len(data))
	for k, v := range data {
		stored[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = stored
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// WithSessionStore keeps wizard data in store instead of hidden fields.
func WithSessionStore(store SessionStore) EditOption {
	return func(c *editConfig) { c.sessions = store }
}

// EditWizardView edits one content object over several panes. Data entered
// on earlier panes is kept in hidden fields, or in a SessionStore when one
// is configured, and only written to content on UPDATE_SUBMIT.
type EditWizardView struct {
	schema *schema.Schema
	panes  []Pane
	names  []string
	load   ContentLoader
	cfg    *editConfig
}

// WizardResult is the outcome of one wizard request.
type WizardResult struct {
	EditResult
	Pane         int
	ShowPrevious bool
	ShowContinue bool
	ShowUpdate   bool
	// SessionID is set for session-backed wizards; Finished reports that
	// the session was dropped after a successful update.
	SessionID string
	Finished  bool
}

// NewEditWizardView creates a wizard over s. Every pane name must be a field
// of s.
func NewEditWizardView(s *schema.Schema, panes []Pane, load ContentLoader, opts ...EditOption) (*EditWizardView, error) {
	if s == nil {
		return nil, fmt.Errorf("browser: wizard needs a schema")
	}
	if len(panes) == 0 {
		return nil, fmt.Errorf("browser: wizard needs at least one pane")
	}
	if load == nil {
		return nil, fmt.Errorf("browser: wizard needs a content loader")
	}
	cfg := newEditConfig(WizardTemplate, opts)
	names := cfg.names
	if len(names) == 0 {
		seen := make(map[string]bool)
		for _, pane := range panes {
			for _, name := range pane.Names {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	for _, pane := range panes {
		if _, err := s.Subset(pane.Names); err != nil {
			return nil, fmt.Errorf("browser: pane %q: %w", pane.Label, err)
		}
	}
	cfg.names = names
	return &EditWizardView{schema: s, panes: panes, names: names, load: load, cfg: cfg}, nil
}

// Panes returns the configured panes.
func (v *EditWizardView) Panes() []Pane { return v.panes }

func (v *EditWizardView) paneIndex(req *form.Request) (int, bool) {
	if !req.Has(CurrentPaneIdx) {
		return 0, false
	}
	idx, err := strconv.Atoi(req.Get(CurrentPaneIdx))
	if err != nil || idx < 0 || idx >= len(v.panes) {
		return 0, false
	}
	return idx, true
}

// seed reads the current field values of content.
func (v *EditWizardView) seed(content any) (map[string]any, error) {
	fields, err := v.schema.Subset(v.names)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, err := field.Get(content); err == nil {
			data[field.Name()] = value
		}
	}
	return data, nil
}

// storage returns the wizard data and the session id it lives under.
func (v *EditWizardView) storage(ctx context.Context, content any, sessionID string, resume bool) (map[string]any, string, error) {
	if v.cfg.sessions != nil && resume && sessionID != "" {
		data, ok, err := v.cfg.sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, "", fmt.Errorf("browser: load wizard session: %w", err)
		}
		if ok {
			return data, sessionID, nil
		}
	}
	data, err := v.seed(content)
	if err != nil {
		return nil, "", err
	}
	if v.cfg.sessions == nil {
		return data, "", nil
	}
	sessionID = uuid.New().String()
	if err := v.cfg.sessions.Save(ctx, sessionID, data); err != nil {
		return nil, "", fmt.Errorf("browser: save wizard session: %w", err)
	}
	return data, sessionID, nil
}

func (v *EditWizardView) setUp(req *form.Request, content any, storage map[string]any, extra ...form.SetUpOption) (*form.Widgets, error) {
	opts := v.cfg.setUpOptions(append([]form.SetUpOption{form.WithInitial(storage)}, extra...)...)
	ws, err := form.SetUpEditWidgets(v.schema, req, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("browser: set up widgets: %w", err)
	}
	return ws, nil
}

// Update validates the submitted pane, stores its data and moves between
// panes. UPDATE_SUBMIT writes the collected data onto content inside a
// transaction. sessionID is ignored unless a SessionStore is configured.
func (v *EditWizardView) Update(ctx context.Context, req *form.Request, content any, sessionID string) (*WizardResult, error) {
	adapted, err := v.cfg.adapt(content)
	if err != nil {
		return nil, err
	}
	idx, submitted := v.paneIndex(req)
	storage, sessionID, err := v.storage(ctx, adapted, sessionID, submitted)
	if err != nil {
		return nil, err
	}
	ws, err := v.setUp(req, adapted, storage)
	if err != nil {
		return nil, err
	}
	result := &WizardResult{EditResult: EditResult{Widgets: ws}, Pane: idx, SessionID: sessionID}
	if !submitted {
		v.buttons(result, storage)
		return result, nil
	}

	var inputErrs []error
	data, err := form.GetWidgetsData(ws, v.collected(ws, idx)...)
	if err != nil {
		werr, ok := form.AsWidgetsError(err)
		if !ok {
			return nil, err
		}
		inputErrs = werr.Errors()
	} else {
		maps.Copy(storage, data)
		if v.cfg.sessions != nil {
			if err := v.cfg.sessions.Save(ctx, sessionID, storage); err != nil {
				return nil, fmt.Errorf("browser: save wizard session: %w", err)
			}
		}
	}

	switch {
	case req.Has(PreviousSubmit):
		if idx > 0 {
			idx--
		}
		inputErrs = nil
	case len(inputErrs) > 0:
		idx = v.paneWithError(inputErrs, idx)
		result.Errors = inputErrs
		result.Status = req.Translate(StatusError)
	case req.Has(ContinueSubmit):
		if idx < len(v.panes)-1 {
			idx++
		}
	case req.Has(UpdateSubmit):
		changed, applyErrs, err := applyInTxn(ctx, v.cfg, v.schema, adapted, func() (bool, error) {
			return v.store(storage, adapted)
		})
		if err != nil {
			return nil, err
		}
		if len(applyErrs) > 0 {
			result.Errors = applyErrs
			result.Status = req.Translate(StatusError)
			break
		}
		result.Changed = changed
		if changed {
			result.Status = req.Translate(StatusUpdated, map[string]any{
				"date_time": v.cfg.now().UTC().Format(StatusLayout),
			})
		}
		if v.cfg.sessions != nil {
			if err := v.cfg.sessions.Delete(ctx, sessionID); err != nil {
				return nil, fmt.Errorf("browser: drop wizard session: %w", err)
			}
			result.Finished = true
		}
		if storage, err = v.seed(adapted); err != nil {
			return nil, err
		}
		if ws, err = v.setUp(req, adapted, storage, form.IgnoreStickyValues()); err != nil {
			return nil, err
		}
		result.Widgets = ws
	}

	if len(result.Errors) == 0 && !result.Changed {
		if ws, err = v.setUp(req, adapted, storage); err != nil {
			return nil, err
		}
		result.Widgets = ws
	}
	result.Pane = idx
	v.buttons(result, storage)
	return result, nil
}

// store writes the collected values that differ from content.
func (v *EditWizardView) store(storage map[string]any, content any) (bool, error) {
	fields, err := v.schema.Subset(v.names)
	if err != nil {
		return false, err
	}
	changed := false
	for _, field := range fields {
		value, ok := storage[field.Name()]
		if !ok || field.Readonly() {
			continue
		}
		if current, err := field.Get(content); err == nil && schema.Equal(current, value) {
			continue
		}
		if err := field.Set(content, value); err != nil {
			return false, fmt.Errorf("browser: store %q: %w", field.Name(), err)
		}
		changed = true
	}
	return changed, nil
}

// collected names the fields a submit of pane idx reads. With hidden fields
// that is the current pane plus every other field rendered as a hidden
// input; fields without a hidden form, such as passwords, keep their
// stored value.
func (v *EditWizardView) collected(ws *form.Widgets, idx int) []string {
	if v.cfg.sessions != nil {
		return v.panes[idx].Names
	}
	current := make(map[string]bool, len(v.panes[idx].Names))
	for _, name := range v.panes[idx].Names {
		current[name] = true
	}
	names := make([]string, 0, len(v.names))
	for _, name := range v.names {
		if !current[name] {
			if w, ok := ws.Get(name); !ok || HiddenOf(w) == "" {
				continue
			}
		}
		names = append(names, name)
	}
	return names
}

// paneWithError returns the first pane holding a failing field, or current.
func (v *EditWizardView) paneWithError(errs []error, current int) int {
	failing := make(map[string]bool, len(errs))
	for _, err := range errs {
		if inputErr, ok := form.AsInputError(err); ok {
			failing[inputErr.Field()] = true
		}
	}
	for i, pane := range v.panes {
		for _, name := range pane.Names {
			if failing[name] {
				return i
			}
		}
	}
	return current
}

func (v *EditWizardView) buttons(result *WizardResult, storage map[string]any) {
	last := len(v.panes) - 1
	result.ShowPrevious = result.Pane > 0
	result.ShowContinue = result.Pane < last
	result.ShowUpdate = result.Pane == last || v.complete(storage)
}

// complete reports whether every required field has a value.
func (v *EditWizardView) complete(storage map[string]any) bool {
	fields, err := v.schema.Subset(v.names)
	if err != nil {
		return false
	}
	for _, field := range fields {
		if field.Required() && isMissing(field, storage[field.Name()]) {
			return false
		}
	}
	return true
}

// Render renders the current pane. Without a SessionStore, fields of the
// other panes are carried as hidden inputs.
func (v *EditWizardView) Render(req *form.Request, result *WizardResult, action string) string {
	pane := v.panes[result.Pane]
	current := make(map[string]bool, len(pane.Names))
	rows := make([]any, 0, len(pane.Names))
	for _, name := range pane.Names {
		current[name] = true
		if w, ok := result.Widgets.Get(name); ok && w.Visible() {
			rows = append(rows, Row(w))
		}
	}
	var hiddens []any
	if v.cfg.sessions == nil {
		for _, w := range result.Widgets.All() {
			if !current[w.Field().Name()] {
				if hidden := HiddenOf(w); hidden != "" {
					hiddens = append(hiddens, hidden)
				}
			}
		}
	}
	label := v.cfg.label
	if label == "" {
		label = v.schema.Title()
	}
	return renderTemplate(v.cfg.renderer, v.cfg.template, map[string]any{
		"label":          req.Translate(label),
		"pane_label":     req.Translate(pane.Label),
		"pane_index":     result.Pane,
		"status":         result.Status,
		"error_count":    len(result.Errors),
		"error_summary":  errorSummary(req, result.Errors),
		"action":         action,
		"rows":           rows,
		"hiddens":        hiddens,
		"show_previous":  result.ShowPrevious,
		"show_continue":  result.ShowContinue,
		"show_update":    result.ShowUpdate,
		"previous_label": req.Translate("Previous"),
		"continue_label": req.Translate("Next"),
		"update_label":   req.Translate("Submit"),
	})
}

func (v *EditWizardView) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
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
	sessionID := ""
	if cookie, err := r.Cookie(WizardCookie); err == nil {
		sessionID = cookie.Value
	}
	result, err := v.Update(r.Context(), req, content, sessionID)
	if err != nil {
		v.fail(rw, err)
		return
	}
	switch {
	case result.Finished:
		http.SetCookie(rw, &http.Cookie{Name: WizardCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	case result.SessionID != "":
		http.SetCookie(rw, &http.Cookie{Name: WizardCookie, Value: result.SessionID, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	}
	writeHTML(rw, v.Render(req, result, r.URL.Path))
}

func (v *EditWizardView) fail(rw http.ResponseWriter, err error) {
	(&EditView{cfg: v.cfg}).fail(rw, err)
}
