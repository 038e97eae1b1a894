package transfer

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/middleware"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Handler exposes the send-money HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}

type transferResponse struct {
	TransactionID string    `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Amount        string    `json:"amount"`
	Fee           string    `json:"fee"`
	NetAmount     string    `json:"net_amount"`
	FromBalance   string    `json:"from_balance"`
	ToBalance     string    `json:"to_balance"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Transfer moves money between two wallets on behalf of the authenticated
// actor.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	res, err := h.service.Transfer(c.UserContext(), Input{
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       amount,
		Description:  req.Description,
		InitiatedBy:  middleware.ActorID(c),
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}

	return c.Status(http.StatusCreated).JSON(transferResponse{
		TransactionID: res.Transaction.ID,
		Reference:     res.Transaction.Reference,
		Amount:        res.Transaction.Amount.StringFixed(2),
		Fee:           res.Transaction.Fee.StringFixed(2),
		NetAmount:     res.Transaction.NetAmount.StringFixed(2),
		FromBalance:   res.FromWallet.Balance.StringFixed(2),
		ToBalance:     res.ToWallet.Balance.StringFixed(2),
		CompletedAt:   res.Transaction.CreatedAt,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, wallet.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrDailyLimitExceeded),
		errors.Is(err, wallet.ErrMonthlyLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, ErrSelfTransfer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
