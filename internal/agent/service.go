package agent

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
	// ErrNotAgentWallet indicates the processing wallet is not an agent wallet.
	ErrNotAgentWallet = errors.New("wallet is not an agent wallet")

	// ErrNotUserWallet indicates the customer wallet is not a user wallet.
	ErrNotUserWallet = errors.New("wallet is not a user wallet")
)

// CommissionPolicy computes the agent's cut for mediating a cash exchange.
// Rate is fractional (0.015 for 1.5%) and injected from configuration.
type CommissionPolicy struct {
	Rate decimal.Decimal
}

// Commission returns the commission on the given gross amount, rounded to two
// decimal places.
func (p CommissionPolicy) Commission(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.Rate).Round(2)
}

// Service performs agent-mediated cash-in and cash-out between an agent
// wallet and a user wallet.
type Service struct {
	wallets    wallet.Store
	ledger     ledger.Ledger
	runner     storage.Runner
	commission CommissionPolicy
	notifier   notification.Notifier
}

// NewService constructs the cash exchange service.
func NewService(wallets wallet.Store, led ledger.Ledger, runner storage.Runner, commission CommissionPolicy, notifier notification.Notifier) *Service {
	return &Service{wallets: wallets, ledger: led, runner: runner, commission: commission, notifier: notifier}
}

// Input captures an agent cash exchange request.
type Input struct {
	AgentWalletID string
	UserWalletID  string
	Amount        decimal.Decimal
}

// Result describes the committed outcome of a cash exchange.
type Result struct {
	Transaction ledger.Transaction
	AgentWallet wallet.Wallet
	UserWallet  wallet.Wallet
}

// CashIn converts the customer's physical cash into wallet balance. The agent
// is debited the net amount (gross minus commission) under a precondition on
// the gross amount, the user is credited the net amount, and a CASH_IN entry
// records gross, commission and net.
func (s *Service) CashIn(ctx context.Context, input Input) (Result, error) {
	agentW, userW, err := s.loadPair(ctx, input)
	if err != nil {
		return Result{}, err
	}

	if _, err := wallet.ResetIfDue(ctx, s.wallets, agentW, time.Now().UTC()); err != nil {
		return Result{}, err
	}
	if agentW.Balance.LessThan(input.Amount) {
		return Result{}, wallet.ErrInsufficientBalance
	}

	commission := s.commission.Commission(input.Amount)
	net := input.Amount.Sub(commission)

	txn := ledger.Transaction{
		ID:           uuid.NewString(),
		Reference:    ledger.NewReference(),
		Type:         ledger.TypeCashIn,
		Amount:       input.Amount,
		Commission:   commission,
		NetAmount:    net,
		FromWalletID: agentW.ID,
		ToWalletID:   userW.ID,
		Actor:        ledger.AgentMediated(agentW.OwnerID, agentW.OwnerID),
		Status:       ledger.StatusCompleted,
		Description:  "agent cash in",
		CreatedAt:    time.Now().UTC(),
	}

	var result Result
	err = s.runner.WithinTx(ctx, func(ctx context.Context) error {
		debited, err := s.wallets.ConditionalDebit(ctx, agentW.ID, net, input.Amount)
		if err != nil {
			return err
		}
		credited, err := s.wallets.Credit(ctx, userW.ID, net)
		if err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			return err
		}
		result = Result{Transaction: txn, AgentWallet: debited, UserWallet: credited}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.KindCashIn, userW.OwnerID,
		fmt.Sprintf("Cash in of %s %s completed (ref %s)", net.StringFixed(2), userW.Currency, txn.Reference))
	return result, nil
}

// CashOut converts wallet balance back into physical cash handed over by the
// agent. The user is debited the gross amount within their daily and monthly
// limits; the agent is credited the full gross amount (net plus commission),
// so the exchange conserves balance.
func (s *Service) CashOut(ctx context.Context, input Input) (Result, error) {
	agentW, userW, err := s.loadPair(ctx, input)
	if err != nil {
		return Result{}, err
	}

	userW, err = wallet.ResetIfDue(ctx, s.wallets, userW, time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	if err := wallet.CheckSpend(userW, input.Amount); err != nil {
		return Result{}, err
	}
	if userW.Balance.LessThan(input.Amount) {
		return Result{}, wallet.ErrInsufficientBalance
	}

	commission := s.commission.Commission(input.Amount)
	net := input.Amount.Sub(commission)

	txn := ledger.Transaction{
		ID:           uuid.NewString(),
		Reference:    ledger.NewReference(),
		Type:         ledger.TypeCashOut,
		Amount:       input.Amount,
		Commission:   commission,
		NetAmount:    net,
		FromWalletID: userW.ID,
		ToWalletID:   agentW.ID,
		Actor:        ledger.AgentMediated(userW.OwnerID, agentW.OwnerID),
		Status:       ledger.StatusCompleted,
		Description:  "agent cash out",
		CreatedAt:    time.Now().UTC(),
	}

	var result Result
	err = s.runner.WithinTx(ctx, func(ctx context.Context) error {
		debited, err := s.wallets.ConditionalDebit(ctx, userW.ID, input.Amount, input.Amount)
		if err != nil {
			return err
		}
		credited, err := s.wallets.Credit(ctx, agentW.ID, input.Amount)
		if err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			return err
		}
		result = Result{Transaction: txn, AgentWallet: credited, UserWallet: debited}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.KindCashOut, userW.OwnerID,
		fmt.Sprintf("Cash out of %s %s completed (ref %s)", input.Amount.StringFixed(2), userW.Currency, txn.Reference))
	return result, nil
}

func (s *Service) loadPair(ctx context.Context, input Input) (agentW, userW wallet.Wallet, err error) {
	if !input.Amount.IsPositive() {
		return wallet.Wallet{}, wallet.Wallet{}, wallet.ErrInvalidAmount
	}

	agentW, err = s.wallets.Get(ctx, input.AgentWalletID)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, fmt.Errorf("agent wallet: %w", err)
	}
	if agentW.Type != wallet.TypeAgent {
		return wallet.Wallet{}, wallet.Wallet{}, ErrNotAgentWallet
	}
	if !agentW.Active() {
		return wallet.Wallet{}, wallet.Wallet{}, wallet.ErrInactive
	}

	userW, err = s.wallets.Get(ctx, input.UserWalletID)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, fmt.Errorf("user wallet: %w", err)
	}
	if userW.Type != wallet.TypeUser {
		return wallet.Wallet{}, wallet.Wallet{}, ErrNotUserWallet
	}
	if !userW.Active() {
		return wallet.Wallet{}, wallet.Wallet{}, wallet.ErrInactive
	}
	return agentW, userW, nil
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body})
}
