package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedWallet(t *testing.T, store *MemoryStore, w Wallet) Wallet {
	t.Helper()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = StatusActive
	}
	if err := store.Create(context.Background(), w); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

func TestResetIfDueDayBoundary(t *testing.T) {
	store := NewMemoryStore()
	yesterday := time.Date(2026, 3, 9, 23, 50, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)

	w := seedWallet(t, store, Wallet{
		Type:         TypeUser,
		DailySpent:   decimal.NewFromInt(4_000),
		MonthlySpent: decimal.NewFromInt(12_000),
		LastResetAt:  yesterday,
	})

	got, err := ResetIfDue(context.Background(), store, w, now)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !got.DailySpent.IsZero() {
		t.Fatalf("expected daily spent reset, got %s", got.DailySpent)
	}
	if !got.MonthlySpent.Equal(decimal.NewFromInt(12_000)) {
		t.Fatalf("expected monthly spent untouched, got %s", got.MonthlySpent)
	}
	if !got.LastResetAt.Equal(now) {
		t.Fatalf("expected LastResetAt advanced to %s, got %s", now, got.LastResetAt)
	}
}

func TestResetIfDueMonthBoundary(t *testing.T) {
	store := NewMemoryStore()
	lastMonth := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC)

	w := seedWallet(t, store, Wallet{
		Type:         TypeUser,
		DailySpent:   decimal.NewFromInt(4_000),
		MonthlySpent: decimal.NewFromInt(12_000),
		LastResetAt:  lastMonth,
	})

	got, err := ResetIfDue(context.Background(), store, w, now)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !got.DailySpent.IsZero() || !got.MonthlySpent.IsZero() {
		t.Fatalf("expected both counters reset, got daily=%s monthly=%s", got.DailySpent, got.MonthlySpent)
	}
}

func TestResetIfDueNoOpWithinSameDay(t *testing.T) {
	store := NewMemoryStore()
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	w := seedWallet(t, store, Wallet{
		Type:        TypeUser,
		DailySpent:  decimal.NewFromInt(500),
		LastResetAt: morning,
	})

	got, err := ResetIfDue(context.Background(), store, w, evening)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !got.DailySpent.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected counters untouched, got %s", got.DailySpent)
	}
	if !got.LastResetAt.Equal(morning) {
		t.Fatalf("expected LastResetAt unchanged, got %s", got.LastResetAt)
	}
}

func TestCheckSpend(t *testing.T) {
	w := Wallet{
		DailyLimit:   decimal.NewFromInt(1_000),
		MonthlyLimit: decimal.NewFromInt(5_000),
		DailySpent:   decimal.NewFromInt(900),
		MonthlySpent: decimal.NewFromInt(4_950),
	}

	if err := CheckSpend(w, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("spend within limits: %v", err)
	}
	if err := CheckSpend(w, decimal.NewFromInt(101)); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("expected ErrDailyLimitExceeded, got %v", err)
	}

	w.DailySpent = decimal.Zero
	if err := CheckSpend(w, decimal.NewFromInt(100)); !errors.Is(err, ErrMonthlyLimitExceeded) {
		t.Fatalf("expected ErrMonthlyLimitExceeded, got %v", err)
	}
}

func TestCheckSpendDisabledLimits(t *testing.T) {
	w := Wallet{DailySpent: decimal.NewFromInt(1_000_000)}
	if err := CheckSpend(w, decimal.NewFromInt(1_000_000)); err != nil {
		t.Fatalf("expected unlimited wallet to pass, got %v", err)
	}
}
