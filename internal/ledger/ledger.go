package ledger

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateReference indicates the transaction reference is already
	// recorded. References are unique system-wide so idempotent lookups can
	// key off them.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrStatusFinal indicates the transaction already reached a terminal
	// status and cannot transition again.
	ErrStatusFinal = errors.New("transaction status is final")
)

// Ledger is the append-only record of every balance movement. Entries are
// never mutated after creation except for a single status transition.
type Ledger interface {
	Append(ctx context.Context, txn Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	GetByReference(ctx context.Context, reference string) (Transaction, error)

	// UpdateStatus moves a PENDING transaction to a terminal status. It fails
	// with ErrStatusFinal once the transaction left PENDING.
	UpdateStatus(ctx context.Context, id string, status TxnStatus) error

	// ListByWallet returns the most recent transactions touching the wallet,
	// newest first.
	ListByWallet(ctx context.Context, walletID string, limit int) ([]Transaction, error)
}
