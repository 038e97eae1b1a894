package agent

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Handler exposes agent cash exchange HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a cash exchange HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type exchangeRequest struct {
	AgentWalletID string `json:"agent_wallet_id"`
	UserWalletID  string `json:"user_wallet_id"`
	Amount        string `json:"amount"`
}

type exchangeResponse struct {
	TransactionID string    `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Amount        string    `json:"amount"`
	Commission    string    `json:"commission"`
	NetAmount     string    `json:"net_amount"`
	AgentBalance  string    `json:"agent_balance"`
	UserBalance   string    `json:"user_balance"`
	CompletedAt   time.Time `json:"completed_at"`
}

// CashIn converts the customer's cash into wallet balance.
func (h *Handler) CashIn(c *fiber.Ctx) error {
	return h.exchange(c, h.service.CashIn)
}

// CashOut converts wallet balance back into cash.
func (h *Handler) CashOut(c *fiber.Ctx) error {
	return h.exchange(c, h.service.CashOut)
}

func (h *Handler) exchange(c *fiber.Ctx, op func(ctx context.Context, input Input) (Result, error)) error {
	var req exchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	res, err := op(c.UserContext(), Input{
		AgentWalletID: req.AgentWalletID,
		UserWalletID:  req.UserWalletID,
		Amount:        amount,
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}

	return c.Status(http.StatusCreated).JSON(exchangeResponse{
		TransactionID: res.Transaction.ID,
		Reference:     res.Transaction.Reference,
		Amount:        res.Transaction.Amount.StringFixed(2),
		Commission:    res.Transaction.Commission.StringFixed(2),
		NetAmount:     res.Transaction.NetAmount.StringFixed(2),
		AgentBalance:  res.AgentWallet.Balance.StringFixed(2),
		UserBalance:   res.UserWallet.Balance.StringFixed(2),
		CompletedAt:   res.Transaction.CreatedAt,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAgentWallet), errors.Is(err, ErrNotUserWallet):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrDailyLimitExceeded),
		errors.Is(err, wallet.ErrMonthlyLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
