package moneyrequest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

type testEnv struct {
	wallets  *wallet.MemoryStore
	requests *MemoryRepository
	svc      *Service
}

func newTestEnv() *testEnv {
	wallets := wallet.NewMemoryStore()
	led := ledger.NewMemoryLedger()
	requests := NewMemoryRepository()
	runner := storage.NewMemoryRunner(wallets, led, requests)

	fees := transfer.FeePolicy{
		Rate: decimal.NewFromFloat(0.01),
		Min:  decimal.NewFromInt(5),
		Max:  decimal.NewFromInt(50),
	}
	transfers := transfer.NewService(wallets, led, runner, fees, "", nil)
	svc := NewService(requests, wallets, transfers, runner, nil)
	return &testEnv{wallets: wallets, requests: requests, svc: svc}
}

func (e *testEnv) seedWallet(t *testing.T, balance int64) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{
		ID:          uuid.NewString(),
		OwnerID:     uuid.NewString(),
		Type:        wallet.TypeUser,
		Status:      wallet.StatusActive,
		Balance:     decimal.NewFromInt(balance),
		LastResetAt: time.Now().UTC(),
	}
	require.NoError(t, e.wallets.Create(context.Background(), w))
	return w
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	requester := env.seedWallet(t, 0)
	payer := env.seedWallet(t, 1_000)

	input := CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(100)}
	first, err := env.svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Status)

	_, err = env.svc.Create(ctx, input)
	assert.ErrorIs(t, err, ErrDuplicatePending)

	// The reverse direction is a different pair and stays allowed.
	_, err = env.svc.Create(ctx, CreateInput{RequesterID: payer.OwnerID, PayerID: requester.OwnerID, Amount: decimal.NewFromInt(50)})
	assert.NoError(t, err)
}

func TestCreateRejectsSelfRequest(t *testing.T) {
	env := newTestEnv()
	w := env.seedWallet(t, 0)

	_, err := env.svc.Create(context.Background(), CreateInput{RequesterID: w.OwnerID, PayerID: w.OwnerID, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestApproveTransfersAndLinksTransaction(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	requester := env.seedWallet(t, 0)
	payer := env.seedWallet(t, 1_000)

	req, err := env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	approved, err := env.svc.Approve(ctx, req.ID, payer.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.NotEmpty(t, approved.TransactionID)

	payerWallet, _ := env.wallets.Get(ctx, payer.ID)
	requesterWallet, _ := env.wallets.Get(ctx, requester.ID)
	assert.True(t, payerWallet.Balance.Equal(decimal.NewFromInt(800)), "payer %s", payerWallet.Balance)
	assert.True(t, requesterWallet.Balance.Equal(decimal.NewFromInt(195)), "requester %s", requesterWallet.Balance)

	// A new request for the same pair is allowed once the old one settled.
	_, err = env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(50)})
	assert.NoError(t, err)
}

func TestApproveWithInsufficientBalanceLeavesPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	requester := env.seedWallet(t, 0)
	payer := env.seedWallet(t, 50)

	req, err := env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, req.ID, payer.OwnerID)
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	got, err := env.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	payerWallet, _ := env.wallets.Get(ctx, payer.ID)
	assert.True(t, payerWallet.Balance.Equal(decimal.NewFromInt(50)))
}

func TestApproveRestrictedToPayer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	requester := env.seedWallet(t, 0)
	payer := env.seedWallet(t, 1_000)

	req, err := env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, req.ID, requester.OwnerID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Approve(ctx, req.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRejectAndCancelRoles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	requester := env.seedWallet(t, 0)
	payer := env.seedWallet(t, 1_000)

	req, err := env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	// Only the payer may reject.
	_, err = env.svc.Reject(ctx, req.ID, requester.OwnerID)
	assert.ErrorIs(t, err, ErrForbidden)
	rejected, err := env.svc.Reject(ctx, req.ID, payer.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	// Terminal requests accept no further transitions.
	_, err = env.svc.Approve(ctx, req.ID, payer.OwnerID)
	assert.ErrorIs(t, err, ErrNotPending)

	// Only the requester may cancel.
	req2, err := env.svc.Create(ctx, CreateInput{RequesterID: requester.OwnerID, PayerID: payer.OwnerID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = env.svc.Cancel(ctx, req2.ID, payer.OwnerID)
	assert.ErrorIs(t, err, ErrForbidden)
	cancelled, err := env.svc.Cancel(ctx, req2.ID, requester.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestListForActorSeesBothSides(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.seedWallet(t, 1_000)
	b := env.seedWallet(t, 1_000)
	c := env.seedWallet(t, 1_000)

	_, err := env.svc.Create(ctx, CreateInput{RequesterID: a.OwnerID, PayerID: b.OwnerID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, CreateInput{RequesterID: c.OwnerID, PayerID: a.OwnerID, Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)

	list, err := env.svc.ListForActor(ctx, a.OwnerID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRepositoryEnforcesOnePendingPerPair(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	requester, payer := uuid.NewString(), uuid.NewString()

	mk := func(status Status) MoneyRequest {
		return MoneyRequest{
			ID:          uuid.NewString(),
			RequesterID: requester,
			PayerID:     payer,
			Amount:      decimal.NewFromInt(100),
			Status:      status,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
	}

	first := mk(StatusPending)
	require.NoError(t, repo.Create(ctx, first))

	// A second PENDING insert for the same pair hits the uniqueness rule
	// even without the service's pre-check.
	assert.ErrorIs(t, repo.Create(ctx, mk(StatusPending)), ErrDuplicatePending)

	first.Status = StatusApproved
	require.NoError(t, repo.Update(ctx, first))
	assert.NoError(t, repo.Create(ctx, mk(StatusPending)))
}
