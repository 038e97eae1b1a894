package wallet

import "errors"

var (
	// ErrNotFound indicates the wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrInactive indicates the wallet status forbids the requested mutation.
	ErrInactive = errors.New("wallet is not active")

	// ErrInsufficientBalance occurs when a debit would take the balance below
	// the wallet's minimum balance floor.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDailyLimitExceeded occurs when a debit would push the daily spent
	// counter past the daily limit.
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrMonthlyLimitExceeded occurs when a debit would push the monthly
	// spent counter past the monthly limit.
	ErrMonthlyLimitExceeded = errors.New("monthly limit exceeded")

	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidOwner indicates the owner id is not a valid UUID.
	ErrInvalidOwner = errors.New("invalid owner id")
)
