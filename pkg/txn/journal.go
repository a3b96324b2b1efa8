package txn

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger used for commit and abort events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// Journal is an in-memory Manager. Its transactions snapshot tracked fields
// and write the snapshots back on Abort. Object values reached through
// pointers are snapshotted field by field so in-place edits roll back too.
type Journal struct {
	logger logrus.FieldLogger
	seq    atomic.Uint64
}

// NewJournal constructs a journal manager.
func NewJournal(opts ...Option) *Journal {
	j := &Journal{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}
	return j
}

// Begin starts a transaction. It fails when ctx is already done.
func (j *Journal) Begin(ctx context.Context) (Transaction, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("txn: begin: %w", err)
		}
	}
	id := j.seq.Add(1)
	return &journalTxn{
		id:     id,
		logger: j.logger.WithField("txn", id),
	}, nil
}

type journalTxn struct {
	mu      sync.Mutex
	id      uint64
	logger  logrus.FieldLogger
	entries []entry
	seen    map[any]struct{}
	closed  bool
}

type entry struct {
	content any
	field   schema.Field
	value   any
	present bool
	nested  []entry
}

func (t *journalTxn) Track(content any, fields ...schema.Field) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if content == nil {
		return nil
	}
	if key, ok := identity(content); ok {
		if t.seen == nil {
			t.seen = make(map[any]struct{})
		}
		if _, dup := t.seen[key]; dup {
			return nil
		}
		t.seen[key] = struct{}{}
	}
	entries, err := snapshot(content, fields, map[uintptr]bool{})
	if err != nil {
		return fmt.Errorf("txn: track: %w", err)
	}
	t.entries = append(t.entries, entries...)
	return nil
}

func (t *journalTxn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	t.logger.WithField("fields", len(t.entries)).Debug("txn: committed")
	t.entries = nil
	return nil
}

func (t *journalTxn) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	var result *multierror.Error
	for i := len(t.entries) - 1; i >= 0; i-- {
		if err := restore(t.entries[i]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	t.entries = nil
	if err := result.ErrorOrNil(); err != nil {
		t.logger.WithError(err).Warn("txn: abort restored content partially")
		return fmt.Errorf("txn: abort: %w", err)
	}
	t.logger.Debug("txn: aborted")
	return nil
}

func snapshot(content any, fields []schema.Field, visiting map[uintptr]bool) ([]entry, error) {
	if ptr, ok := pointerOf(content); ok {
		if visiting[ptr] {
			return nil, nil
		}
		visiting[ptr] = true
		defer delete(visiting, ptr)
	}
	out := make([]entry, 0, len(fields))
	for _, field := range fields {
		if field == nil || field.Readonly() {
			continue
		}
		value, err := field.Get(content)
		switch {
		case errors.Is(err, schema.ErrNoSuchField):
			out = append(out, entry{content: content, field: field})
			continue
		case err != nil:
			return nil, fmt.Errorf("%s: %w", field.Name(), err)
		}
		e := entry{content: content, field: field, value: value, present: true}
		if obj, ok := field.(*schema.Object); ok && obj.Schema() != nil {
			if _, shared := pointerOf(value); shared {
				nested, err := snapshot(value, obj.Schema().Fields(), visiting)
				if err != nil {
					return nil, fmt.Errorf("%s.%w", field.Name(), err)
				}
				e.nested = nested
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func restore(e entry) error {
	var result *multierror.Error
	for i := len(e.nested) - 1; i >= 0; i-- {
		if err := restore(e.nested[i]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if !e.present {
		if m, ok := e.content.(map[string]any); ok {
			delete(m, e.field.Name())
		}
		return result.ErrorOrNil()
	}
	if err := e.field.Set(e.content, e.value); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", e.field.Name(), err))
	}
	return result.ErrorOrNil()
}

// pointerOf returns the address behind reference values so nested content
// shared with the parent can be restored in place.
func pointerOf(v any) (uintptr, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

func identity(content any) (any, bool) {
	ptr, ok := pointerOf(content)
	if !ok {
		return nil, false
	}
	return struct {
		t   reflect.Type
		ptr uintptr
	}{reflect.TypeOf(content), ptr}, true
}
