package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/notification"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

var (
	// ErrSelfTransfer indicates source and destination are the same wallet.
	ErrSelfTransfer = errors.New("cannot transfer to the same wallet")

	// ErrNotOwner indicates the initiator does not own the source wallet.
	ErrNotOwner = errors.New("not owner of source wallet")
)

// Service moves money between two wallets: debit, credit and ledger append
// commit as one all-or-nothing unit.
type Service struct {
	wallets    wallet.Store
	ledger     ledger.Ledger
	runner     storage.Runner
	fees       FeePolicy
	platformID string
	notifier   notification.Notifier
}

// NewService constructs a transfer engine. platformID names the system wallet
// that collects transfer fees; when empty the fee is removed from
// circulation.
func NewService(wallets wallet.Store, led ledger.Ledger, runner storage.Runner, fees FeePolicy, platformID string, notifier notification.Notifier) *Service {
	return &Service{wallets: wallets, ledger: led, runner: runner, fees: fees, platformID: platformID, notifier: notifier}
}

// Input captures the data needed to move funds between wallets.
type Input struct {
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
	Description  string
	InitiatedBy  string
}

// Result describes the committed outcome of a transfer.
type Result struct {
	Transaction ledger.Transaction
	FromWallet  wallet.Wallet
	ToWallet    wallet.Wallet
}

// Transfer debits the sender by the gross amount and credits the recipient
// net of the fee. The sender's limit counters are reset and checked before
// the transactional window; the balance precondition inside ConditionalDebit
// is the true safety net against concurrent debits.
func (s *Service) Transfer(ctx context.Context, input Input) (Result, error) {
	if !input.Amount.IsPositive() {
		return Result{}, wallet.ErrInvalidAmount
	}
	if input.FromWalletID == input.ToWalletID {
		return Result{}, ErrSelfTransfer
	}

	from, err := s.wallets.Get(ctx, input.FromWalletID)
	if err != nil {
		return Result{}, fmt.Errorf("source wallet: %w", err)
	}
	if !from.Active() {
		return Result{}, wallet.ErrInactive
	}
	if input.InitiatedBy != "" && input.InitiatedBy != from.OwnerID {
		return Result{}, ErrNotOwner
	}
	to, err := s.wallets.Get(ctx, input.ToWalletID)
	if err != nil {
		return Result{}, fmt.Errorf("destination wallet: %w", err)
	}
	if !to.Active() {
		return Result{}, wallet.ErrInactive
	}

	from, err = wallet.ResetIfDue(ctx, s.wallets, from, time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	if err := wallet.CheckSpend(from, input.Amount); err != nil {
		return Result{}, err
	}
	if from.Balance.LessThan(input.Amount) {
		return Result{}, wallet.ErrInsufficientBalance
	}

	fee := s.fees.Fee(input.Amount)
	net := input.Amount.Sub(fee)

	initiator := input.InitiatedBy
	if initiator == "" {
		initiator = from.OwnerID
	}

	txn := ledger.Transaction{
		ID:           uuid.NewString(),
		Reference:    ledger.NewReference(),
		Type:         ledger.TypeTransfer,
		Amount:       input.Amount,
		Fee:          fee,
		NetAmount:    net,
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Actor:        ledger.SelfService(initiator),
		Status:       ledger.StatusCompleted,
		Description:  input.Description,
		CreatedAt:    time.Now().UTC(),
	}

	var result Result
	err = s.runner.WithinTx(ctx, func(ctx context.Context) error {
		debited, err := s.wallets.ConditionalDebit(ctx, from.ID, input.Amount, input.Amount)
		if err != nil {
			return err
		}
		credited, err := s.wallets.Credit(ctx, to.ID, net)
		if err != nil {
			return err
		}
		if fee.IsPositive() && s.platformID != "" {
			if _, err := s.wallets.Credit(ctx, s.platformID, fee); err != nil {
				return fmt.Errorf("fee collection: %w", err)
			}
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			return err
		}
		result = Result{Transaction: txn, FromWallet: debited, ToWallet: credited}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransfer,
			Destination: to.OwnerID,
			Body:        fmt.Sprintf("You received %s %s (ref %s)", net.StringFixed(2), to.Currency, txn.Reference),
		})
	}

	return result, nil
}
