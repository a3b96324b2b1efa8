// Package txn provides the transaction boundary edit views run their
// changes in. A Manager hands out transactions; content touched during a
// transaction is tracked so an aborted transaction leaves it untouched.
package txn

import (
	"context"
	"errors"

	"github.com/goliatone/go-formbind/pkg/schema"
)

var (
	// ErrClosed is returned when a transaction is used after Commit or Abort.
	ErrClosed = errors.New("txn: transaction already closed")
)

// Manager starts transactions.
type Manager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction is a unit of work over tracked content.
type Transaction interface {
	// Track records the current values of fields on content so Abort can
	// restore them. Tracking the same content twice keeps the first record.
	Track(content any, fields ...schema.Field) error
	Commit() error
	Abort() error
}

// ManagerFunc adapts a function to Manager.
type ManagerFunc func(ctx context.Context) (Transaction, error)

func (fn ManagerFunc) Begin(ctx context.Context) (Transaction, error) {
	return fn(ctx)
}
