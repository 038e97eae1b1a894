package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// PostgresRunner opens pgx transactions and threads them through the context
// so nested WithinTx calls join the outer transaction instead of opening a
// second one.
type PostgresRunner struct {
	pool *pgxpool.Pool
}

// NewPostgresRunner builds a transaction runner backed by the pool.
func NewPostgresRunner(pool *pgxpool.Pool) *PostgresRunner {
	return &PostgresRunner{pool: pool}
}

// WithinTx runs fn inside a database transaction, committing on nil and
// rolling back on error.
func (r *PostgresRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// QuerierFrom returns the transaction carried by ctx when one is open,
// otherwise the supplied fallback (normally the pool).
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}
