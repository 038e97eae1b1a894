package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

type testEnv struct {
	store  *wallet.MemoryStore
	ledger *ledger.MemoryLedger
	svc    *Service
}

func newTestEnv() *testEnv {
	store := wallet.NewMemoryStore()
	led := ledger.NewMemoryLedger()
	runner := storage.NewMemoryRunner(store, led)
	svc := NewService(store, led, runner, CommissionPolicy{Rate: decimal.NewFromFloat(0.015)}, nil)
	return &testEnv{store: store, ledger: led, svc: svc}
}

func (e *testEnv) seedWallet(t *testing.T, typ wallet.Type, balance int64) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{
		ID:          uuid.NewString(),
		OwnerID:     uuid.NewString(),
		Type:        typ,
		Status:      wallet.StatusActive,
		Balance:     decimal.NewFromInt(balance),
		LastResetAt: time.Now().UTC(),
	}
	if err := e.store.Create(context.Background(), w); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

// Cash in of 200 at 1.5% commission: the agent hands over 197 of float, the
// customer gains 197, and the 3 commission stays with the agent.
func TestCashInArithmetic(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	agentW := env.seedWallet(t, wallet.TypeAgent, 1_000)
	userW := env.seedWallet(t, wallet.TypeUser, 0)

	res, err := env.svc.CashIn(ctx, Input{AgentWalletID: agentW.ID, UserWalletID: userW.ID, Amount: decimal.NewFromInt(200)})
	if err != nil {
		t.Fatalf("cash in: %v", err)
	}

	if !res.AgentWallet.Balance.Equal(decimal.NewFromInt(803)) {
		t.Fatalf("expected agent balance 803, got %s", res.AgentWallet.Balance)
	}
	if !res.UserWallet.Balance.Equal(decimal.NewFromInt(197)) {
		t.Fatalf("expected user balance 197, got %s", res.UserWallet.Balance)
	}
	if !res.Transaction.Commission.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected commission 3, got %s", res.Transaction.Commission)
	}
	if res.Transaction.Type != ledger.TypeCashIn {
		t.Fatalf("expected CASH_IN entry, got %s", res.Transaction.Type)
	}
	if res.Transaction.Actor.ProcessedBy != agentW.OwnerID {
		t.Fatalf("expected agent as processor, got %s", res.Transaction.Actor.ProcessedBy)
	}
}

// The float precondition is on the gross amount even though only the net
// leaves the agent wallet.
func TestCashInRequiresGrossFloat(t *testing.T) {
	env := newTestEnv()
	agentW := env.seedWallet(t, wallet.TypeAgent, 199)
	userW := env.seedWallet(t, wallet.TypeUser, 0)

	_, err := env.svc.CashIn(context.Background(), Input{AgentWalletID: agentW.ID, UserWalletID: userW.ID, Amount: decimal.NewFromInt(200)})
	if !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

// Cash out moves the full gross from user to agent, so total balance in the
// system is conserved.
func TestCashOutConservesBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	agentW := env.seedWallet(t, wallet.TypeAgent, 1_000)
	userW := env.seedWallet(t, wallet.TypeUser, 500)

	res, err := env.svc.CashOut(ctx, Input{AgentWalletID: agentW.ID, UserWalletID: userW.ID, Amount: decimal.NewFromInt(200)})
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}

	if !res.UserWallet.Balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected user balance 300, got %s", res.UserWallet.Balance)
	}
	if !res.AgentWallet.Balance.Equal(decimal.NewFromInt(1_200)) {
		t.Fatalf("expected agent balance 1200, got %s", res.AgentWallet.Balance)
	}

	total := res.UserWallet.Balance.Add(res.AgentWallet.Balance)
	if !total.Equal(decimal.NewFromInt(1_500)) {
		t.Fatalf("expected conserved total 1500, got %s", total)
	}
	if !res.Transaction.Commission.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected commission 3 recorded, got %s", res.Transaction.Commission)
	}
	if res.Transaction.Actor.InitiatedBy != userW.OwnerID || res.Transaction.Actor.ProcessedBy != agentW.OwnerID {
		t.Fatalf("unexpected actors: %+v", res.Transaction.Actor)
	}
}

func TestCashOutRespectsUserLimits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	agentW := env.seedWallet(t, wallet.TypeAgent, 1_000)
	userW := wallet.Wallet{
		ID:          uuid.NewString(),
		OwnerID:     uuid.NewString(),
		Type:        wallet.TypeUser,
		Status:      wallet.StatusActive,
		Balance:     decimal.NewFromInt(5_000),
		DailyLimit:  decimal.NewFromInt(100),
		LastResetAt: time.Now().UTC(),
	}
	if err := env.store.Create(ctx, userW); err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err := env.svc.CashOut(ctx, Input{AgentWalletID: agentW.ID, UserWalletID: userW.ID, Amount: decimal.NewFromInt(200)})
	if !errors.Is(err, wallet.ErrDailyLimitExceeded) {
		t.Fatalf("expected ErrDailyLimitExceeded, got %v", err)
	}
}

func TestCashInRejectsWrongWalletTypes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userA := env.seedWallet(t, wallet.TypeUser, 1_000)
	userB := env.seedWallet(t, wallet.TypeUser, 0)
	agentW := env.seedWallet(t, wallet.TypeAgent, 1_000)

	if _, err := env.svc.CashIn(ctx, Input{AgentWalletID: userA.ID, UserWalletID: userB.ID, Amount: decimal.NewFromInt(10)}); !errors.Is(err, ErrNotAgentWallet) {
		t.Fatalf("expected ErrNotAgentWallet, got %v", err)
	}
	if _, err := env.svc.CashIn(ctx, Input{AgentWalletID: agentW.ID, UserWalletID: agentW.ID, Amount: decimal.NewFromInt(10)}); !errors.Is(err, ErrNotUserWallet) {
		t.Fatalf("expected ErrNotUserWallet, got %v", err)
	}
}
