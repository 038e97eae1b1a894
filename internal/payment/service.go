package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/agent"
	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/notification"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// URLs are the callback endpoints handed to the gateway when a session opens.
type URLs struct {
	Success string
	Fail    string
	Cancel  string
}

// Service reconciles externally-settled payments: it opens gateway sessions
// and converts each settlement callback into exactly one ledger mutation.
type Service struct {
	intents   Repository
	wallets   wallet.Store
	ledger    ledger.Ledger
	runner    storage.Runner
	gateway   Gateway
	transfers *transfer.Service
	exchange  *agent.Service
	notifier  notification.Notifier
	logger    *slog.Logger
	urls      URLs
}

// NewService constructs the payment reconciliation service.
func NewService(intents Repository, wallets wallet.Store, led ledger.Ledger, runner storage.Runner,
	gateway Gateway, transfers *transfer.Service, exchange *agent.Service,
	notifier notification.Notifier, logger *slog.Logger, urls URLs) *Service {
	return &Service{
		intents:   intents,
		wallets:   wallets,
		ledger:    led,
		runner:    runner,
		gateway:   gateway,
		transfers: transfers,
		exchange:  exchange,
		notifier:  notifier,
		logger:    logger,
		urls:      urls,
	}
}

// InitiateInput captures a request to start an externally-settled payment.
type InitiateInput struct {
	WalletID       string
	CounterpartyID string
	Amount         decimal.Decimal
	Type           PaymentType
	InitiatedBy    string
}

// InitiateResult carries the gateway redirect for the caller to follow.
type InitiateResult struct {
	Intent      Intent
	RedirectURL string
}

// Initiate creates a PENDING intent and opens a gateway session. When the
// gateway call fails the intent stays PENDING and retriable.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (InitiateResult, error) {
	if !input.Amount.IsPositive() {
		return InitiateResult{}, wallet.ErrInvalidAmount
	}

	w, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		return InitiateResult{}, err
	}
	if !w.Active() {
		return InitiateResult{}, wallet.ErrInactive
	}

	switch input.Type {
	case TypeAddMoney, TypeWithdraw, TypeSendMoney:
		if input.InitiatedBy != "" && input.InitiatedBy != w.OwnerID {
			return InitiateResult{}, transfer.ErrNotOwner
		}
	}

	switch input.Type {
	case TypeSendMoney, TypeCashIn, TypeCashOut:
		if input.CounterpartyID == "" {
			return InitiateResult{}, fmt.Errorf("counterparty wallet is required for %s", input.Type)
		}
		if _, err := s.wallets.Get(ctx, input.CounterpartyID); err != nil {
			return InitiateResult{}, fmt.Errorf("counterparty wallet: %w", err)
		}
	case TypeAddMoney, TypeWithdraw:
	default:
		return InitiateResult{}, fmt.Errorf("unknown payment type %q", input.Type)
	}

	now := time.Now().UTC()
	intent := Intent{
		ID:             uuid.NewString(),
		OwnerID:        ownerOrDefault(input.InitiatedBy, w.OwnerID),
		WalletID:       w.ID,
		CounterpartyID: input.CounterpartyID,
		Type:           input.Type,
		Amount:         input.Amount,
		Status:         StatusPending,
		ExternalTxnID:  NewExternalTxnID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return InitiateResult{}, err
	}

	resp, err := s.gateway.Initiate(ctx, InitiateRequest{
		ExternalTxnID: intent.ExternalTxnID,
		IntentID:      intent.ID,
		Amount:        intent.Amount,
		Currency:      w.Currency,
		SuccessURL:    s.urls.Success,
		FailURL:       s.urls.Fail,
		CancelURL:     s.urls.Cancel,
		Metadata:      map[string]string{"intent_id": intent.ID},
	})
	if err != nil {
		return InitiateResult{Intent: intent}, err
	}

	intent.GatewayPayload = resp.RawPayload
	if err := s.intents.Update(ctx, intent); err != nil {
		return InitiateResult{}, err
	}

	return InitiateResult{Intent: intent, RedirectURL: resp.RedirectURL}, nil
}

// Get returns the intent by identifier.
func (s *Service) Get(ctx context.Context, id string) (Intent, error) {
	return s.intents.Get(ctx, id)
}

// Resolve maps a callback to its intent without locking, for the fail and
// cancel notification paths.
func (s *Service) Resolve(ctx context.Context, cb Callback) (Intent, error) {
	intent, err := s.intents.GetByExternalID(ctx, cb.ExternalTxnID)
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, ErrNotFound) || cb.IntentID == "" {
		return Intent{}, err
	}
	return s.intents.Get(ctx, cb.IntentID)
}

// Settle converts a success callback into exactly one ledger mutation. The
// already-PAID check and the status flip share the settlement transaction, so
// duplicate callback delivery is a safe no-op surfaced as ErrAlreadySettled.
func (s *Service) Settle(ctx context.Context, cb Callback) (Intent, error) {
	if cb.ValidationToken != "" {
		valid, err := s.gateway.Validate(ctx, cb.ValidationToken)
		if err != nil {
			return Intent{}, err
		}
		if !valid {
			return Intent{}, fmt.Errorf("%w: validation token rejected", ErrGateway)
		}
	}

	var settled Intent
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		intent, err := s.lookup(ctx, cb)
		if err != nil {
			return err
		}
		if intent.Status == StatusPaid {
			settled = intent
			return ErrAlreadySettled
		}
		if intent.Status != StatusPending {
			return ErrNotPending
		}

		txn, err := s.apply(ctx, intent)
		if err != nil {
			return err
		}

		intent.Status = StatusPaid
		intent.TransactionID = txn.ID
		if err := s.intents.Update(ctx, intent); err != nil {
			return err
		}
		settled = intent
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			return settled, ErrAlreadySettled
		}
		// Lookup and guard errors never flag the intent: a mismatched or
		// stray callback must not kill a retried PENDING intent.
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrCallbackMismatch) && !errors.Is(err, ErrNotPending) {
			s.markFailed(ctx, cb, err)
		}
		return Intent{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentSettled,
			Destination: settled.OwnerID,
			Body:        fmt.Sprintf("Payment %s of %s settled", settled.ExternalTxnID, settled.Amount.StringFixed(2)),
		})
	}
	return settled, nil
}

// Fail marks a PENDING intent FAILED. No ledger mutation occurs.
func (s *Service) Fail(ctx context.Context, intentID string) (Intent, error) {
	return s.terminate(ctx, intentID, StatusFailed)
}

// Cancel marks a PENDING intent CANCELLED. No ledger mutation occurs.
func (s *Service) Cancel(ctx context.Context, intentID string) (Intent, error) {
	return s.terminate(ctx, intentID, StatusCancelled)
}

// Retry mints a new external transaction id on the same intent and re-opens
// the gateway session. PAID intents are never retriable; PENDING intents may
// retry because a timed-out initiation leaves them without an open session.
// The status flip holds the row lock so a retry racing a settlement cannot
// resurrect a PAID intent; the gateway call stays outside the transaction.
func (s *Service) Retry(ctx context.Context, intentID string) (InitiateResult, error) {
	var intent Intent
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		intent, err = s.intents.GetForUpdate(ctx, intentID)
		if err != nil {
			return err
		}
		switch intent.Status {
		case StatusFailed, StatusCancelled, StatusPending:
		default:
			return ErrNotRetriable
		}
		intent.ExternalTxnID = NewExternalTxnID()
		intent.Status = StatusPending
		return s.intents.Update(ctx, intent)
	})
	if err != nil {
		return InitiateResult{}, err
	}

	w, err := s.wallets.Get(ctx, intent.WalletID)
	if err != nil {
		return InitiateResult{}, err
	}

	resp, err := s.gateway.Initiate(ctx, InitiateRequest{
		ExternalTxnID: intent.ExternalTxnID,
		IntentID:      intent.ID,
		Amount:        intent.Amount,
		Currency:      w.Currency,
		SuccessURL:    s.urls.Success,
		FailURL:       s.urls.Fail,
		CancelURL:     s.urls.Cancel,
		Metadata:      map[string]string{"intent_id": intent.ID},
	})
	if err != nil {
		return InitiateResult{Intent: intent}, err
	}

	// Persist the payload only if the intent is still on this session. A
	// callback racing the gateway response must win the status field.
	intent.GatewayPayload = resp.RawPayload
	err = s.runner.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.intents.GetForUpdate(ctx, intent.ID)
		if err != nil {
			return err
		}
		if current.Status != StatusPending || current.ExternalTxnID != intent.ExternalTxnID {
			return nil
		}
		current.GatewayPayload = resp.RawPayload
		return s.intents.Update(ctx, current)
	})
	if err != nil {
		return InitiateResult{}, err
	}
	return InitiateResult{Intent: intent, RedirectURL: resp.RedirectURL}, nil
}

// lookup resolves the callback to its intent, holding the row lock for the
// rest of the settlement transaction. Retried payments fall back to the
// intent id, verifying the external id still matches.
func (s *Service) lookup(ctx context.Context, cb Callback) (Intent, error) {
	intent, err := s.intents.GetByExternalIDForUpdate(ctx, cb.ExternalTxnID)
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, ErrNotFound) || cb.IntentID == "" {
		return Intent{}, err
	}
	intent, err = s.intents.GetForUpdate(ctx, cb.IntentID)
	if err != nil {
		return Intent{}, err
	}
	if intent.ExternalTxnID != cb.ExternalTxnID {
		return Intent{}, ErrCallbackMismatch
	}
	return intent, nil
}

// apply performs the one ledger mutation the intent's type calls for.
func (s *Service) apply(ctx context.Context, intent Intent) (ledger.Transaction, error) {
	switch intent.Type {
	case TypeAddMoney:
		return s.applyAddMoney(ctx, intent)
	case TypeWithdraw:
		return s.applyWithdraw(ctx, intent)
	case TypeSendMoney:
		res, err := s.transfers.Transfer(ctx, transfer.Input{
			FromWalletID: intent.WalletID,
			ToWalletID:   intent.CounterpartyID,
			Amount:       intent.Amount,
			Description:  "gateway send money",
			InitiatedBy:  intent.OwnerID,
		})
		if err != nil {
			return ledger.Transaction{}, err
		}
		return res.Transaction, nil
	case TypeCashIn, TypeCashOut:
		return s.applyCashExchange(ctx, intent)
	default:
		return ledger.Transaction{}, fmt.Errorf("unknown payment type %q", intent.Type)
	}
}

func (s *Service) applyAddMoney(ctx context.Context, intent Intent) (ledger.Transaction, error) {
	if _, err := s.wallets.Credit(ctx, intent.WalletID, intent.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	txn := ledger.Transaction{
		ID:           uuid.NewString(),
		Reference:    ledger.NewReference(),
		Type:         ledger.TypeDeposit,
		Amount:       intent.Amount,
		NetAmount:    intent.Amount,
		FromWalletID: intent.WalletID,
		Actor:        ledger.SelfService(intent.OwnerID),
		Status:       ledger.StatusCompleted,
		Description:  "gateway add money",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, txn); err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) applyWithdraw(ctx context.Context, intent Intent) (ledger.Transaction, error) {
	w, err := s.wallets.Get(ctx, intent.WalletID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	w, err = wallet.ResetIfDue(ctx, s.wallets, w, time.Now().UTC())
	if err != nil {
		return ledger.Transaction{}, err
	}
	if err := wallet.CheckSpend(w, intent.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	if _, err := s.wallets.ConditionalDebit(ctx, w.ID, intent.Amount, intent.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	txn := ledger.Transaction{
		ID:           uuid.NewString(),
		Reference:    ledger.NewReference(),
		Type:         ledger.TypeWithdrawal,
		Amount:       intent.Amount,
		NetAmount:    intent.Amount,
		FromWalletID: w.ID,
		Actor:        ledger.SelfService(intent.OwnerID),
		Status:       ledger.StatusCompleted,
		Description:  "gateway withdraw",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, txn); err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

// applyCashExchange routes a gateway cash exchange by wallet type rather than
// explicit agent/user ids: whichever side is the AGENT wallet processes the
// exchange.
func (s *Service) applyCashExchange(ctx context.Context, intent Intent) (ledger.Transaction, error) {
	a, err := s.wallets.Get(ctx, intent.WalletID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	b, err := s.wallets.Get(ctx, intent.CounterpartyID)
	if err != nil {
		return ledger.Transaction{}, err
	}

	input := agent.Input{Amount: intent.Amount}
	switch {
	case a.Type == wallet.TypeAgent:
		input.AgentWalletID, input.UserWalletID = a.ID, b.ID
	case b.Type == wallet.TypeAgent:
		input.AgentWalletID, input.UserWalletID = b.ID, a.ID
	default:
		return ledger.Transaction{}, agent.ErrNotAgentWallet
	}

	var res agent.Result
	if intent.Type == TypeCashIn {
		res, err = s.exchange.CashIn(ctx, input)
	} else {
		res, err = s.exchange.CashOut(ctx, input)
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	return res.Transaction, nil
}

// terminate re-checks the status under the row lock so a fail or cancel
// racing a settlement can never overwrite a committed PAID intent.
func (s *Service) terminate(ctx context.Context, intentID string, status IntentStatus) (Intent, error) {
	var settled Intent
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		intent, err := s.intents.GetForUpdate(ctx, intentID)
		if err != nil {
			return err
		}
		if intent.Status == StatusPaid {
			settled = intent
			return ErrAlreadySettled
		}
		if intent.Status != StatusPending {
			return ErrNotPending
		}
		intent.Status = status
		if err := s.intents.Update(ctx, intent); err != nil {
			return err
		}
		settled = intent
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			return settled, ErrAlreadySettled
		}
		return Intent{}, err
	}
	return settled, nil
}

// markFailed flags the intent FAILED after a settlement rollback. Best
// effort: the settlement error is what the caller sees. The flip happens
// under the row lock, so only a PENDING intent can be marked.
func (s *Service) markFailed(ctx context.Context, cb Callback, cause error) {
	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		intent, err := s.intents.GetByExternalIDForUpdate(ctx, cb.ExternalTxnID)
		if err != nil && cb.IntentID != "" {
			intent, err = s.intents.GetForUpdate(ctx, cb.IntentID)
		}
		if err != nil || intent.Status != StatusPending {
			return nil
		}
		intent.Status = StatusFailed
		return s.intents.Update(ctx, intent)
	})
	if err != nil && s.logger != nil {
		s.logger.Error("mark intent failed", "external_txn_id", cb.ExternalTxnID, "cause", cause, "error", err)
	}
}

func ownerOrDefault(owner, fallback string) string {
	if owner != "" {
		return owner
	}
	return fallback
}
