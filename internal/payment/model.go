package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType identifies which ledger mutation a settled intent produces.
type PaymentType string

const (
	TypeAddMoney  PaymentType = "ADD_MONEY"
	TypeWithdraw  PaymentType = "WITHDRAW"
	TypeSendMoney PaymentType = "SEND_MONEY"
	TypeCashIn    PaymentType = "CASH_IN"
	TypeCashOut   PaymentType = "CASH_OUT"
)

// IntentStatus is the payment intent lifecycle state. PAID is terminal;
// FAILED and CANCELLED can return to PENDING through Retry only.
type IntentStatus string

const (
	StatusPending   IntentStatus = "PENDING"
	StatusPaid      IntentStatus = "PAID"
	StatusFailed    IntentStatus = "FAILED"
	StatusCancelled IntentStatus = "CANCELLED"
	StatusRefunded  IntentStatus = "REFUNDED"
)

// Intent tracks an externally-settled payment from initiation to its terminal
// outcome. At most one ledger transaction is ever produced per intent, no
// matter how many times the gateway delivers the settlement callback.
type Intent struct {
	ID             string
	OwnerID        string
	WalletID       string
	CounterpartyID string
	Type           PaymentType
	Amount         decimal.Decimal
	Status         IntentStatus
	ExternalTxnID  string
	GatewayPayload []byte
	TransactionID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewExternalTxnID mints the identifier handed to the gateway. Retry mints a
// fresh one on the same intent record.
func NewExternalTxnID() string {
	return "PAY-" + uuid.NewString()
}
