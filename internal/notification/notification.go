package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTransfer indicates a completed wallet-to-wallet transfer.
	KindTransfer = "transfer"
	// KindCashIn indicates an agent cash-in completed.
	KindCashIn = "cash_in"
	// KindCashOut indicates an agent cash-out completed.
	KindCashOut = "cash_out"
	// KindPaymentSettled indicates a gateway payment settled into the ledger.
	KindPaymentSettled = "payment_settled"
	// KindMoneyRequest indicates money-request workflow activity.
	KindMoneyRequest = "money_request"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. Deliveries are
// fire-and-forget: a failure never rolls back the ledger mutation that
// triggered it.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
