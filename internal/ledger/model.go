package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxnType labels the kind of balance movement a transaction records.
type TxnType string

const (
	TypeDeposit    TxnType = "DEPOSIT"
	TypeWithdrawal TxnType = "WITHDRAWAL"
	TypeTransfer   TxnType = "TRANSFER"
	TypeCashIn     TxnType = "CASH_IN"
	TypeCashOut    TxnType = "CASH_OUT"
	TypeFee        TxnType = "FEE"
	TypeCommission TxnType = "COMMISSION"
)

// TxnStatus is the transaction lifecycle state. Amounts are immutable after
// creation; status may move once to a terminal value.
type TxnStatus string

const (
	StatusPending   TxnStatus = "PENDING"
	StatusCompleted TxnStatus = "COMPLETED"
	StatusFailed    TxnStatus = "FAILED"
	StatusReversed  TxnStatus = "REVERSED"
)

// Actor identifies who caused a transaction. ProcessedBy is set only for
// agent-mediated operations.
type Actor struct {
	InitiatedBy string
	ProcessedBy string
}

// SelfService builds an actor for operations the initiator performs alone.
func SelfService(initiator string) Actor {
	return Actor{InitiatedBy: initiator}
}

// AgentMediated builds an actor for operations processed by an agent on
// behalf of the initiator.
func AgentMediated(initiator, processor string) Actor {
	return Actor{InitiatedBy: initiator, ProcessedBy: processor}
}

// Mediated reports whether an agent processed the operation.
func (a Actor) Mediated() bool {
	return a.ProcessedBy != ""
}

// Transaction is one immutable ledger entry for a completed or attempted
// balance movement. Reference is unique system-wide.
type Transaction struct {
	ID           string
	Reference    string
	Type         TxnType
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Commission   decimal.Decimal
	NetAmount    decimal.Decimal
	FromWalletID string
	ToWalletID   string
	Actor        Actor
	Status       TxnStatus
	Description  string
	CreatedAt    time.Time
}

// NewReference mints a globally unique transaction reference.
func NewReference() string {
	return "TXN-" + uuid.NewString()
}
