package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies the wallet owner.
type Type string

const (
	TypeUser   Type = "USER"
	TypeAgent  Type = "AGENT"
	TypeSystem Type = "SYSTEM"
)

// Status is the wallet lifecycle state. Wallets are never deleted, only
// status-transitioned.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusBlocked  Status = "BLOCKED"
	StatusInactive Status = "INACTIVE"
)

// PlatformOwnerID is the well-known owner of the system wallet that collects
// transfer fees.
const PlatformOwnerID = "00000000-0000-0000-0000-000000000001"

// Wallet holds the spendable balance for one account together with its
// spending-limit counters. Balance never drops below MinBalance after a
// successful mutation.
type Wallet struct {
	ID           string
	OwnerID      string
	Type         Type
	Currency     string
	Status       Status
	Balance      decimal.Decimal
	MinBalance   decimal.Decimal
	DailyLimit   decimal.Decimal
	MonthlyLimit decimal.Decimal
	DailySpent   decimal.Decimal
	MonthlySpent decimal.Decimal
	LastResetAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the wallet may send or receive funds.
func (w Wallet) Active() bool {
	return w.Status == StatusActive
}
