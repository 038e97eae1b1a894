package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/storage"
)

// Defaults carries the provisioning policy injected from configuration.
type Defaults struct {
	Currency     string
	SignupGrant  decimal.Decimal
	AgentFloat   decimal.Decimal
	MinBalance   decimal.Decimal
	DailyLimit   decimal.Decimal
	MonthlyLimit decimal.Decimal
}

// Service exposes wallet provisioning and lifecycle operations.
type Service struct {
	store    Store
	ledger   ledger.Ledger
	runner   storage.Runner
	defaults Defaults
}

// NewService builds a wallet service instance.
func NewService(store Store, led ledger.Ledger, runner storage.Runner, defaults Defaults) *Service {
	return &Service{store: store, ledger: led, runner: runner, defaults: defaults}
}

// ProvisionInput captures data required to provision a wallet.
type ProvisionInput struct {
	OwnerID string
	Type    Type
}

// Provision creates a wallet with the configured starting grant and records
// the grant as a DEPOSIT transaction in the same unit of work.
func (s *Service) Provision(ctx context.Context, input ProvisionInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, ErrInvalidOwner
	}
	typ := input.Type
	if typ == "" {
		typ = TypeUser
	}

	grant := s.defaults.SignupGrant
	if typ == TypeAgent {
		grant = s.defaults.AgentFloat
	}

	now := time.Now().UTC()
	w := Wallet{
		ID:           uuid.NewString(),
		OwnerID:      input.OwnerID,
		Type:         typ,
		Currency:     s.defaults.Currency,
		Status:       StatusActive,
		Balance:      grant,
		MinBalance:   s.defaults.MinBalance,
		DailyLimit:   s.defaults.DailyLimit,
		MonthlyLimit: s.defaults.MonthlyLimit,
		LastResetAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, w); err != nil {
			return err
		}
		if !grant.IsPositive() {
			return nil
		}
		return s.ledger.Append(ctx, ledger.Transaction{
			ID:           uuid.NewString(),
			Reference:    ledger.NewReference(),
			Type:         ledger.TypeDeposit,
			Amount:       grant,
			NetAmount:    grant,
			FromWalletID: w.ID,
			Actor:        ledger.SelfService(input.OwnerID),
			Status:       ledger.StatusCompleted,
			Description:  "signup grant",
			CreatedAt:    now,
		})
	})
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get retrieves a wallet snapshot by identifier.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.store.Get(ctx, id)
}

// GetByOwner retrieves the wallet belonging to the given owner.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.store.GetByOwner(ctx, ownerID)
}

// Block suspends a wallet; funds stay intact but no mutation can touch it.
func (s *Service) Block(ctx context.Context, id string) error {
	return s.store.SetStatus(ctx, id, StatusBlocked)
}

// Unblock reactivates a blocked wallet.
func (s *Service) Unblock(ctx context.Context, id string) error {
	return s.store.SetStatus(ctx, id, StatusActive)
}

// History returns the wallet's most recent ledger entries, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]ledger.Transaction, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.ListByWallet(ctx, id, limit)
}

// EnsurePlatform returns the system wallet that collects transfer fees,
// creating it on first use. The system wallet has no spending caps.
func (s *Service) EnsurePlatform(ctx context.Context) (Wallet, error) {
	w, err := s.store.GetByType(ctx, TypeSystem)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	now := time.Now().UTC()
	w = Wallet{
		ID:          uuid.NewString(),
		OwnerID:     PlatformOwnerID,
		Type:        TypeSystem,
		Currency:    s.defaults.Currency,
		Status:      StatusActive,
		LastResetAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}
