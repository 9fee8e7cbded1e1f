package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"staffdesk/internal/core/tx"
)

var tracer = otel.Tracer("staffdesk/postgres")

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// Querier is what pgxpool.Pool and pgx.Tx have in common.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager keeps the open transaction in the context. Repositories ask it
// for a Querier on every statement and so take part in whatever
// transaction the service opened, or run on the pool when there is none.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, statementTimeout: 30 * time.Second}
}

type txKey struct{}

// RunInTransaction runs fn in a read-committed transaction. A call made
// while a transaction is open joins it.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}, fn)
}

// ReadOnly runs fn in a repeatable-read, read-only transaction, so every
// statement sees the same snapshot.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	if m.current(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "postgres.transaction", trace.WithAttributes(
		attribute.String("db.tx.isolation", string(opts.IsoLevel)),
		attribute.String("db.tx.access", string(opts.AccessMode)),
	))
	defer span.End()

	err := pgx.BeginTxFunc(ctx, m.pool, opts, func(t pgx.Tx) error {
		if m.statementTimeout > 0 {
			if _, err := t.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)",
				fmt.Sprintf("%dms", m.statementTimeout.Milliseconds())); err != nil {
				return fmt.Errorf("set statement_timeout: %w", err)
			}
		}
		return fn(context.WithValue(ctx, txKey{}, t))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

func (m *TxManager) current(ctx context.Context) pgx.Tx {
	t, _ := ctx.Value(txKey{}).(pgx.Tx)
	return t
}

// GetQuerier returns the transaction open in ctx, or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.current(ctx); t != nil {
		return t
	}
	return m.pool
}
