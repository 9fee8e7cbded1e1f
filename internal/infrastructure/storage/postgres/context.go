package postgres

import (
	"context"
	"fmt"

	"staffdesk/internal/core/tx"
)

// QuerierFromContext returns the querier of the transaction in ctx, or the
// pool when none is open. Repositories call it on every statement so they
// join whatever transaction the service started.
//
// It panics when ctx carries no *TxManager: that is a wiring bug, not a
// runtime condition.
func QuerierFromContext(ctx context.Context) Querier {
	m, err := tx.FromContext(ctx)
	if err != nil {
		panic(err)
	}
	pgm, ok := m.(*TxManager)
	if !ok || pgm == nil {
		panic(fmt.Sprintf("postgres: transaction manager in context is %T", m))
	}
	return pgm.GetQuerier(ctx)
}
