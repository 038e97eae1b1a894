package moneyrequest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the money request lifecycle state. All transitions out of
// PENDING are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// MoneyRequest asks a payer to send money to the requester. Approval
// delegates to the transfer engine; the workflow itself never touches
// wallets.
type MoneyRequest struct {
	ID            string
	RequesterID   string
	PayerID       string
	Amount        decimal.Decimal
	Description   string
	Status        Status
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
