package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repositories issue all statements through it so the same code runs inside
// and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner executes fn as one all-or-nothing unit. Every multi-wallet
// operation (transfer, cash exchange, payment settlement) runs its debit,
// credit and ledger append inside a single WithinTx call; any error rolls
// the whole unit back.
type Runner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
