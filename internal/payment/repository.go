package payment

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the payment intent does not exist.
	ErrNotFound = errors.New("payment intent not found")

	// ErrAlreadySettled means the intent is already PAID. Duplicate delivery
	// of the settlement callback is expected; callers treat this as a no-op
	// success.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrNotPending indicates the intent left PENDING and cannot settle.
	ErrNotPending = errors.New("payment intent is not pending")

	// ErrNotRetriable indicates the intent status forbids a retry.
	ErrNotRetriable = errors.New("payment intent is not retriable")

	// ErrCallbackMismatch indicates the callback identifiers do not agree
	// with the stored intent.
	ErrCallbackMismatch = errors.New("callback does not match payment intent")

	// ErrGateway wraps failures of the external payment provider.
	ErrGateway = errors.New("payment gateway failure")
)

// Repository persists payment intents. The locking getters take a row lock so
// the idempotency check and the status flip happen inside the same
// transactional boundary as the ledger mutation.
type Repository interface {
	Create(ctx context.Context, intent Intent) error
	Get(ctx context.Context, id string) (Intent, error)
	GetForUpdate(ctx context.Context, id string) (Intent, error)
	GetByExternalID(ctx context.Context, externalTxnID string) (Intent, error)
	GetByExternalIDForUpdate(ctx context.Context, externalTxnID string) (Intent, error)
	Update(ctx context.Context, intent Intent) error
}
