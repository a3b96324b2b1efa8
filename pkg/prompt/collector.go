package prompt

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/pkg/form"
	// Registers the input widgets the collected answers are read by.
	_ "github.com/goliatone/go-formbind/pkg/form/browser"
	"github.com/goliatone/go-formbind/pkg/schema"
	"github.com/goliatone/go-formbind/pkg/txn"
)

const (
	datetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"

	noValue = "(no value)"
)

// Collector asks for field values through a Driver and records the answers
// in a form.Request under the names the input widgets read. Terminal input
// is converted and validated by the same widgets as browser input.
type Collector struct {
	driver   Driver
	prefix   string
	registry *form.Registry
	logger   logrus.FieldLogger
	attempts int
	txns     txn.Manager
}

// Option configures a Collector.
type Option func(*Collector)

// WithDriver sets the prompt driver.
func WithDriver(d Driver) Option {
	return func(c *Collector) {
		if d != nil {
			c.driver = d
		}
	}
}

// WithPrefix sets the widget prefix answers are recorded under. It defaults
// to "field".
func WithPrefix(prefix string) Option {
	return func(c *Collector) { c.prefix = strings.TrimSuffix(prefix, ".") }
}

// WithRegistry selects the registry resolving input widgets.
func WithRegistry(r *form.Registry) Option {
	return func(c *Collector) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the collector logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAttempts bounds how often Edit asks again for rejected fields.
func WithAttempts(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithTransactions sets the manager Edit rolls rejected changes back with.
func WithTransactions(m txn.Manager) Option {
	return func(c *Collector) { c.txns = m }
}

// New constructs a collector prompting on the terminal.
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix:   "field",
		registry: form.DefaultRegistry,
		logger:   logrus.StandardLogger(),
		attempts: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.driver == nil {
		c.driver = NewTerminalDriver()
	}
	if c.txns == nil {
		c.txns = txn.NewJournal(txn.WithLogger(c.logger))
	}
	return c
}

// Collect asks for every named writable field of s, all of them when names
// is empty. Current values of source are offered as defaults.
func (c *Collector) Collect(ctx context.Context, s *schema.Schema, source any, names ...string) (*form.Request, error) {
	if c.driver == nil {
		return nil, ErrNoDriver
	}
	fields, err := s.Subset(names)
	if err != nil {
		return nil, err
	}
	req := form.NewRequest(nil)
	for _, field := range fields {
		if field.Readonly() {
			continue
		}
		if err := c.ask(ctx, req, c.prefix+".", field, current(field, source)); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Edit collects input and applies it to content through the input widgets.
// Rejected fields are reported and asked again, up to the configured number
// of attempts; content is left unchanged when input is still rejected.
func (c *Collector) Edit(ctx context.Context, s *schema.Schema, content any, names ...string) (bool, error) {
	if c.driver == nil {
		return false, ErrNoDriver
	}
	fields, err := s.Subset(names)
	if err != nil {
		return false, err
	}
	req := form.NewRequest(nil)
	pending := fields
	log := c.logger.WithField("schema", s.Name())

	for attempt := 1; ; attempt++ {
		for _, field := range pending {
			if field.Readonly() {
				continue
			}
			if err := c.ask(ctx, req, c.prefix+".", field, current(field, content)); err != nil {
				return false, err
			}
		}

		changed, err := c.apply(ctx, s, req, content, fields, names)
		if err == nil {
			log.WithField("changed", changed).Debug("prompt: input applied")
			return changed, nil
		}
		werr, ok := form.AsWidgetsError(err)
		if !ok || attempt >= c.attempts {
			return false, err
		}

		byField := werr.ByField()
		log.WithFields(logrus.Fields{"attempt": attempt, "errors": len(byField)}).Debug("prompt: input rejected")
		pending = pending[:0:0]
		for _, field := range fields {
			ierr, rejected := byField[field.Name()]
			if !rejected {
				continue
			}
			if err := c.driver.Info(ctx, fmt.Sprintf("%s: %s", titleOf(field), ierr.Doc())); err != nil {
				return false, err
			}
			pending = append(pending, field)
		}
	}
}

// apply runs the input widgets over req inside a transaction, so a rejected
// attempt leaves content as it was.
func (c *Collector) apply(ctx context.Context, s *schema.Schema, req *form.Request, content any, fields []schema.Field, names []string) (bool, error) {
	tx, err := c.txns.Begin(ctx)
	if err != nil {
		return false, err
	}
	if err := tx.Track(content, fields...); err != nil {
		_ = tx.Abort()
		return false, err
	}
	widgets, err := form.SetUpEditWidgets(s, req, content,
		form.WithPrefix(c.prefix), form.WithNames(names...), form.WithRegistry(c.registry))
	if err != nil {
		_ = tx.Abort()
		return false, err
	}
	changed, err := form.ApplyWidgetsChanges(widgets, content)
	if err != nil {
		if abortErr := tx.Abort(); abortErr != nil {
			c.logger.WithError(abortErr).Warn("prompt: rollback failed")
		}
		return false, err
	}
	return changed, tx.Commit()
}

func (c *Collector) ask(ctx context.Context, req *form.Request, prefix string, field schema.Field, value any) error {
	name := prefix + field.Name()
	title := titleOf(field)

	switch f := field.(type) {
	case *schema.Bool:
		yes, err := c.driver.Confirm(ctx, ConfirmConfig{Message: title, Help: f.Description(), Default: value == true})
		if err != nil {
			return err
		}
		req.Set(name+".used", "1")
		if yes {
			req.Set(name, "on")
		} else {
			req.Del(name)
		}
		return nil

	case *schema.Choice:
		return c.askChoice(ctx, req, name, f, value)

	case *schema.Collection:
		if choice, ok := f.ValueType().(*schema.Choice); ok {
			return c.askChoices(ctx, req, name, f, choice, value)
		}
		return c.askSequence(ctx, req, name, f, value)

	case *schema.Object:
		for _, sub := range f.Schema().Fields() {
			if sub.Readonly() {
				continue
			}
			subValue := sub.Default()
			if !isNil(value) {
				subValue = sub.Query(value, sub.Default())
			}
			if err := c.ask(ctx, req, name+".", sub, subValue); err != nil {
				return err
			}
		}
		return nil
	}

	def := formValue(field.Kind(), value)
	if req.Has(name) {
		def = req.Get(name)
	}
	var (
		answer string
		err    error
	)
	switch field.Kind() {
	case schema.KindFile:
		c.logger.WithField("field", field.Name()).Debug("prompt: file field skipped")
		return c.driver.Info(ctx, fmt.Sprintf("%s: file uploads are not supported here", title))
	case schema.KindText, schema.KindBytes:
		answer, err = c.driver.TextArea(ctx, TextAreaConfig{Message: title, Help: field.Description(), Default: def})
	case schema.KindPassword:
		answer, err = c.driver.Password(ctx, InputConfig{Message: title, Help: field.Description()})
	default:
		answer, err = c.driver.Input(ctx, InputConfig{
			Message:  title,
			Help:     helpFor(field),
			Default:  def,
			Required: field.Required() && def == "",
		})
	}
	if err != nil {
		return err
	}
	req.Set(name, answer)
	return nil
}

func (c *Collector) askChoice(ctx context.Context, req *form.Request, name string, f *schema.Choice, value any) error {
	terms := f.Vocabulary().Terms()
	options := make([]string, 0, len(terms)+1)
	offset := 0
	if !f.Required() {
		options = append(options, noValue)
		offset = 1
	}
	selected := 0
	for i, term := range terms {
		options = append(options, term.Label())
		if value != nil && schema.Equal(term.Value, value) {
			selected = i + offset
		}
	}
	idx, err := c.driver.Select(ctx, SelectConfig{
		Message:      titleOf(f),
		Help:         f.Description(),
		Options:      options,
		DefaultIndex: selected,
	})
	if err != nil {
		return err
	}
	idx -= offset
	if idx < 0 || idx >= len(terms) {
		req.Set(name, "")
		return nil
	}
	req.Set(name, terms[idx].Token)
	return nil
}

func (c *Collector) askChoices(ctx context.Context, req *form.Request, name string, f *schema.Collection, choice *schema.Choice, value any) error {
	terms := choice.Vocabulary().Terms()
	options := make([]string, len(terms))
	var defaults []int
	items := itemsOf(value)
	for i, term := range terms {
		options[i] = term.Label()
		for _, item := range items {
			if schema.Equal(term.Value, item) {
				defaults = append(defaults, i)
				break
			}
		}
	}
	picked, err := c.driver.MultiSelect(ctx, SelectConfig{
		Message:  titleOf(f),
		Help:     f.Description(),
		Options:  options,
		Defaults: defaults,
	})
	if err != nil {
		return err
	}
	sort.Ints(picked)
	tokens := make([]string, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(terms) {
			tokens = append(tokens, terms[idx].Token)
		}
	}
	req.Set(name, tokens...)
	req.Set(name+"-empty-marker", "1")
	return nil
}

func (c *Collector) askSequence(ctx context.Context, req *form.Request, name string, f *schema.Collection, value any) error {
	valueType := f.ValueType()
	if valueType == nil {
		return fmt.Errorf("prompt: collection %q has no value type", f.Name())
	}
	items := itemsOf(value)
	if req.Has(name + ".count") {
		items = make([]any, countOf(req, name))
	}
	limit, bounded := f.MaxLength()
	count := 0
	itemPrefix := func(i int) string { return name + "." + strconv.Itoa(i) + "." }

	for i, item := range items {
		if bounded && count >= limit {
			break
		}
		keep := true
		if count >= f.MinLength() {
			var err error
			keep, err = c.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Keep %s #%d (%s)?", titleOf(valueType), i+1, formValue(valueType.Kind(), item)),
				Default: true,
			})
			if err != nil {
				return err
			}
		}
		if !keep {
			continue
		}
		if err := c.ask(ctx, req, itemPrefix(count), valueType, item); err != nil {
			return err
		}
		count++
	}
	for !bounded || count < limit {
		if count >= f.MinLength() {
			more, err := c.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add %s?", titleOf(valueType))})
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
		if err := c.ask(ctx, req, itemPrefix(count), valueType, valueType.Default()); err != nil {
			return err
		}
		count++
	}
	req.Set(name+".count", strconv.Itoa(count))
	return nil
}

func countOf(req *form.Request, name string) int {
	n, err := strconv.Atoi(req.Get(name + ".count"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func current(field schema.Field, source any) any {
	if isNil(source) {
		return field.Default()
	}
	return field.Query(source, field.Default())
}

func titleOf(field schema.Field) string {
	if title := field.Title(); title != "" {
		return title
	}
	if name := field.Name(); name != "" {
		return name
	}
	return "item"
}

func helpFor(field schema.Field) string {
	switch field.Kind() {
	case schema.KindDatetime:
		return strings.TrimSpace(field.Description() + " (YYYY-MM-DD HH:MM:SS)")
	case schema.KindDate:
		return strings.TrimSpace(field.Description() + " (YYYY-MM-DD)")
	}
	return field.Description()
}

// formValue renders value the way the matching input widget would.
func formValue(kind schema.Kind, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		if kind == schema.KindDate {
			return v.Format(dateLayout)
		}
		return v.Format(datetimeLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formValue(kind, *v)
	case []byte:
		return string(v)
	case string:
		return v
	}
	return fmt.Sprint(value)
}

func itemsOf(value any) []any {
	if isNil(value) {
		return nil
	}
	if items, ok := value.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		// Sets stored as map[T]struct{} or map[T]bool.
		out := make([]any, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			out = append(out, key.Interface())
		}
		return out
	}
	return []any{value}
}
