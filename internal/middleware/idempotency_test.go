package middleware_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/logging"
	"github.com/taka-pay/taka_pay/internal/middleware"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

type transferApp struct {
	app     *fiber.App
	wallets *wallet.MemoryStore
	from    wallet.Wallet
	to      wallet.Wallet
}

// setupTransferApp wires the middleware in front of a real transfer endpoint
// so a replayed request can be checked against wallet balances, not just the
// cached response body.
func setupTransferApp(t *testing.T) (*transferApp, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	wallets := wallet.NewMemoryStore()
	led := ledger.NewMemoryLedger()
	runner := storage.NewMemoryRunner(wallets, led)
	fees := transfer.FeePolicy{
		Rate: decimal.NewFromFloat(0.01),
		Min:  decimal.NewFromInt(5),
		Max:  decimal.NewFromInt(50),
	}
	transfers := transfer.NewService(wallets, led, runner, fees, "", nil)

	seed := func(balance int64) wallet.Wallet {
		w := wallet.Wallet{
			ID:          uuid.NewString(),
			OwnerID:     uuid.NewString(),
			Type:        wallet.TypeUser,
			Status:      wallet.StatusActive,
			Balance:     decimal.NewFromInt(balance),
			LastResetAt: time.Now().UTC(),
		}
		if err := wallets.Create(context.Background(), w); err != nil {
			t.Fatalf("seed wallet: %v", err)
		}
		return w
	}
	from := seed(1_000)
	to := seed(0)

	app := fiber.New()
	app.Use(middleware.Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		var req struct {
			FromWalletID string          `json:"from_wallet_id"`
			ToWalletID   string          `json:"to_wallet_id"`
			Amount       decimal.Decimal `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := transfers.Transfer(c.UserContext(), transfer.Input{
			FromWalletID: req.FromWalletID,
			ToWalletID:   req.ToWalletID,
			Amount:       req.Amount,
			InitiatedBy:  from.OwnerID,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(res.Transaction)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return &transferApp{app: app, wallets: wallets, from: from, to: to}, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	ta, cleanup := setupTransferApp(t)
	defer cleanup()

	body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"100"}`, ta.from.ID, ta.to.ID)
	req := httptest.NewRequest(fiber.MethodPost, "/transfers", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReplayDoesNotRepeatTransfer(t *testing.T) {
	ta, cleanup := setupTransferApp(t)
	defer cleanup()

	body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"100"}`, ta.from.ID, ta.to.ID)
	send := func() (int, []byte) {
		req := httptest.NewRequest(fiber.MethodPost, "/transfers", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(middleware.IdempotencyKeyHeader, "transfer-abc123")

		resp, err := ta.app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode, payload
	}

	status, payload := send()
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", fiber.StatusCreated, status, payload)
	}
	var txn ledger.Transaction
	if err := json.Unmarshal(payload, &txn); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}

	status2, payload2 := send()
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status2)
	}
	if string(payload2) != string(payload) {
		t.Fatalf("expected cached payload %s got %s", payload, payload2)
	}

	// The replay served the cached body; the debit happened once. 1000 less
	// the 100 amount and the 5 minimum fee.
	from, err := ta.wallets.Get(context.Background(), ta.from.ID)
	if err != nil {
		t.Fatalf("get sender: %v", err)
	}
	if !from.Balance.Equal(decimal.NewFromInt(895)) {
		t.Fatalf("expected sender balance 895 got %s", from.Balance)
	}
	to, err := ta.wallets.Get(context.Background(), ta.to.ID)
	if err != nil {
		t.Fatalf("get receiver: %v", err)
	}
	if !to.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected receiver balance 100 got %s", to.Balance)
	}
}
