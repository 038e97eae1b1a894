package moneyrequest

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the money request does not exist.
	ErrNotFound = errors.New("money request not found")

	// ErrDuplicatePending indicates a PENDING request already exists for the
	// (requester, payer) pair.
	ErrDuplicatePending = errors.New("a pending request already exists for this pair")

	// ErrForbidden indicates the actor is not allowed to perform the state
	// transition.
	ErrForbidden = errors.New("actor is not authorized for this request")

	// ErrNotPending indicates the request already reached a terminal state.
	ErrNotPending = errors.New("money request is not pending")

	// ErrSelfRequest indicates requester and payer are the same account.
	ErrSelfRequest = errors.New("cannot request money from yourself")
)

// Repository persists money requests.
type Repository interface {
	Create(ctx context.Context, req MoneyRequest) error
	Get(ctx context.Context, id string) (MoneyRequest, error)

	// GetForUpdate locks the request row for a state transition.
	GetForUpdate(ctx context.Context, id string) (MoneyRequest, error)

	// FindPending returns the PENDING request for the pair, or ErrNotFound.
	FindPending(ctx context.Context, requesterID, payerID string) (MoneyRequest, error)

	// ListForActor returns requests where the actor is requester or payer,
	// newest first.
	ListForActor(ctx context.Context, actorID string, limit int) ([]MoneyRequest, error)

	Update(ctx context.Context, req MoneyRequest) error
}
