package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/storage"
)

func newTestService() (*Service, *MemoryStore, *ledger.MemoryLedger) {
	store := NewMemoryStore()
	led := ledger.NewMemoryLedger()
	runner := storage.NewMemoryRunner(store, led)
	svc := NewService(store, led, runner, Defaults{
		Currency:     "BDT",
		SignupGrant:  decimal.NewFromInt(50),
		AgentFloat:   decimal.NewFromInt(100_000),
		MinBalance:   decimal.Zero,
		DailyLimit:   decimal.NewFromInt(50_000),
		MonthlyLimit: decimal.NewFromInt(500_000),
	})
	return svc, store, led
}

func TestProvisionGrantsSignupBalance(t *testing.T) {
	svc, _, led := newTestService()
	ctx := context.Background()

	w, err := svc.Provision(ctx, ProvisionInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if w.Type != TypeUser {
		t.Fatalf("expected USER wallet, got %s", w.Type)
	}
	if !w.Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected signup grant of 50, got %s", w.Balance)
	}

	txns, err := led.ListByWallet(ctx, w.ID, 10)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 1 || txns[0].Type != ledger.TypeDeposit {
		t.Fatalf("expected one DEPOSIT grant entry, got %+v", txns)
	}
}

func TestProvisionRejectsMalformedOwner(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Provision(context.Background(), ProvisionInput{OwnerID: "not-a-uuid"})
	if !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
	if statusFor(err) != 400 {
		t.Fatalf("expected 400 for invalid owner, got %d", statusFor(err))
	}
}

func TestProvisionAgentReceivesFloat(t *testing.T) {
	svc, _, _ := newTestService()

	w, err := svc.Provision(context.Background(), ProvisionInput{OwnerID: uuid.NewString(), Type: TypeAgent})
	if err != nil {
		t.Fatalf("provision agent: %v", err)
	}
	if !w.Balance.Equal(decimal.NewFromInt(100_000)) {
		t.Fatalf("expected agent float of 100000, got %s", w.Balance)
	}
}

func TestBlockedWalletRejectsMutations(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	w, err := svc.Provision(ctx, ProvisionInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := svc.Block(ctx, w.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	if _, err := store.Credit(ctx, w.ID, decimal.NewFromInt(10)); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive on credit, got %v", err)
	}
	if _, err := store.ConditionalDebit(ctx, w.ID, decimal.NewFromInt(10), decimal.NewFromInt(10)); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive on debit, got %v", err)
	}

	if err := svc.Unblock(ctx, w.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := store.Credit(ctx, w.ID, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("credit after unblock: %v", err)
	}
}

func TestEnsurePlatformIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.EnsurePlatform(ctx)
	if err != nil {
		t.Fatalf("ensure platform: %v", err)
	}
	second, err := svc.EnsurePlatform(ctx)
	if err != nil {
		t.Fatalf("ensure platform again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one platform wallet, got %s and %s", first.ID, second.ID)
	}
	if second.Type != TypeSystem {
		t.Fatalf("expected SYSTEM wallet, got %s", second.Type)
	}
}

// With balance for exactly n-1 debits, n concurrent attempts must produce
// exactly one insufficient-balance failure and never a negative balance.
func TestConditionalDebitConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const n = 8
	amount := decimal.NewFromInt(100)
	w := Wallet{
		ID:      uuid.NewString(),
		OwnerID: uuid.NewString(),
		Type:    TypeUser,
		Status:  StatusActive,
		Balance: amount.Mul(decimal.NewFromInt(n - 1)),
	}
	if err := store.Create(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ConditionalDebit(ctx, w.ID, amount, amount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if errors.Is(err, ErrInsufficientBalance) {
			failures++
		} else if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly 1 insufficient failure, got %d", failures)
	}

	final, err := store.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !final.Balance.Equal(decimal.Zero) {
		t.Fatalf("expected zero balance, got %s", final.Balance)
	}
}

func TestConditionalDebitRespectsMinBalance(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w := Wallet{
		ID:         uuid.NewString(),
		OwnerID:    uuid.NewString(),
		Type:       TypeUser,
		Status:     StatusActive,
		Balance:    decimal.NewFromInt(100),
		MinBalance: decimal.NewFromInt(20),
	}
	if err := store.Create(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.ConditionalDebit(ctx, w.ID, decimal.NewFromInt(90), decimal.NewFromInt(90)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance below min balance, got %v", err)
	}
	if _, err := store.ConditionalDebit(ctx, w.ID, decimal.NewFromInt(80), decimal.NewFromInt(80)); err != nil {
		t.Fatalf("debit down to min balance: %v", err)
	}
}
