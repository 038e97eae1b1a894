package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedTxn(walletID string, created time.Time) Transaction {
	return Transaction{
		ID:           uuid.NewString(),
		Reference:    NewReference(),
		Type:         TypeDeposit,
		Amount:       decimal.NewFromInt(100),
		NetAmount:    decimal.NewFromInt(100),
		FromWalletID: walletID,
		Actor:        SelfService(uuid.NewString()),
		Status:       StatusCompleted,
		CreatedAt:    created,
	}
}

func TestAppendRejectsDuplicateReference(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	txn := seedTxn(uuid.NewString(), time.Now().UTC())
	if err := led.Append(ctx, txn); err != nil {
		t.Fatalf("append: %v", err)
	}

	dup := seedTxn(uuid.NewString(), time.Now().UTC())
	dup.Reference = txn.Reference
	if err := led.Append(ctx, dup); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}

	got, err := led.GetByReference(ctx, txn.Reference)
	if err != nil {
		t.Fatalf("get by reference: %v", err)
	}
	if got.ID != txn.ID {
		t.Fatalf("expected original transaction %s, got %s", txn.ID, got.ID)
	}
}

func TestUpdateStatusSingleTransition(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()

	txn := seedTxn(uuid.NewString(), time.Now().UTC())
	txn.Status = StatusPending
	if err := led.Append(ctx, txn); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := led.UpdateStatus(ctx, txn.ID, StatusCompleted); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// The record is final after one transition, whatever the target.
	if err := led.UpdateStatus(ctx, txn.ID, StatusFailed); !errors.Is(err, ErrStatusFinal) {
		t.Fatalf("expected ErrStatusFinal, got %v", err)
	}
	if err := led.UpdateStatus(ctx, txn.ID, StatusReversed); !errors.Is(err, ErrStatusFinal) {
		t.Fatalf("expected ErrStatusFinal on reversal, got %v", err)
	}

	got, err := led.Get(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}

	if err := led.UpdateStatus(ctx, uuid.NewString(), StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListByWalletNewestFirst(t *testing.T) {
	led := NewMemoryLedger()
	ctx := context.Background()
	walletID := uuid.NewString()

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 5; i++ {
		txn := seedTxn(walletID, base.Add(time.Duration(i)*time.Second))
		txn.Description = fmt.Sprintf("entry %d", i)
		if err := led.Append(ctx, txn); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		ids = append(ids, txn.ID)
	}
	// An entry for another wallet stays out of the listing.
	if err := led.Append(ctx, seedTxn(uuid.NewString(), base)); err != nil {
		t.Fatalf("append foreign: %v", err)
	}

	txns, err := led.ListByWallet(ctx, walletID, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(txns))
	}
	for i, txn := range txns {
		if want := ids[4-i]; txn.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, txn.ID)
		}
	}
}
