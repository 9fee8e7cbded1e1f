// Package tx is the transaction contract of the domain layer.
// The Postgres implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
	"errors"
)

var ErrNoManager = errors.New("tx: no transaction manager in context")

// Manager runs fn in a transaction and rolls back when fn fails.
// A call made inside fn joins the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager can also open read-only transactions.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunReadOnly runs fn read-only when m supports it. A nil m runs fn
// directly, so reads work without a database in tests.
func RunReadOnly(ctx context.Context, m Manager, fn func(ctx context.Context) error) error {
	switch m := m.(type) {
	case nil:
		return fn(ctx)
	case ReadOnlyManager:
		return m.ReadOnly(ctx, fn)
	default:
		return m.RunInTransaction(ctx, fn)
	}
}

type managerKey struct{}

// WithManager stores m in ctx for services built without one.
func WithManager(ctx context.Context, m Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

func FromContext(ctx context.Context) (Manager, error) {
	if m, ok := ctx.Value(managerKey{}).(Manager); ok && m != nil {
		return m, nil
	}
	return nil, ErrNoManager
}
