package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store persists wallets and exposes the conditional mutation primitives the
// engine is built on. Credit and ConditionalDebit are atomic at the datastore:
// their preconditions are evaluated at commit time, not by the caller.
type Store interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (Wallet, error)
	GetByType(ctx context.Context, t Type) (Wallet, error)

	// Credit increments the balance. It has no balance precondition but fails
	// with ErrNotFound or ErrInactive when the wallet cannot receive funds.
	Credit(ctx context.Context, id string, amount decimal.Decimal) (Wallet, error)

	// ConditionalDebit decrements the balance by amount only if the wallet is
	// active, holds at least required, and the post-debit balance stays at or
	// above the minimum balance floor. Daily and monthly spent counters
	// increase by amount in the same update. Fails with
	// ErrInsufficientBalance when the precondition did not hold at commit
	// time.
	ConditionalDebit(ctx context.Context, id string, amount, required decimal.Decimal) (Wallet, error)

	// ResetLimits zeroes the selected spent counters and records at as the
	// last reset instant.
	ResetLimits(ctx context.Context, id string, daily, monthly bool, at time.Time) error

	SetStatus(ctx context.Context, id string, status Status) error
}
