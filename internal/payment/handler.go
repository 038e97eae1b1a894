package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/middleware"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Handler exposes the payment intent endpoints plus the gateway callback
// endpoints the gateway posts to after checkout.
type Handler struct {
	service *Service
}

// NewHandler builds a payment HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initiateRequest struct {
	WalletID       string `json:"wallet_id"`
	CounterpartyID string `json:"counterparty_id"`
	Amount         string `json:"amount"`
	Type           string `json:"type"`
}

type intentResponse struct {
	ID             string    `json:"id"`
	WalletID       string    `json:"wallet_id"`
	CounterpartyID string    `json:"counterparty_id,omitempty"`
	Type           string    `json:"type"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	ExternalTxnID  string    `json:"external_txn_id"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	RedirectURL    string    `json:"redirect_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toIntentResponse(intent Intent, redirectURL string) intentResponse {
	return intentResponse{
		ID:             intent.ID,
		WalletID:       intent.WalletID,
		CounterpartyID: intent.CounterpartyID,
		Type:           string(intent.Type),
		Amount:         intent.Amount.StringFixed(2),
		Status:         string(intent.Status),
		ExternalTxnID:  intent.ExternalTxnID,
		TransactionID:  intent.TransactionID,
		RedirectURL:    redirectURL,
		CreatedAt:      intent.CreatedAt,
		UpdatedAt:      intent.UpdatedAt,
	}
}

// Initiate opens a gateway checkout session for a new payment intent. A
// gateway outage still returns the PENDING intent so the client can retry.
func (h *Handler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	res, err := h.service.Initiate(c.UserContext(), InitiateInput{
		WalletID:       req.WalletID,
		CounterpartyID: req.CounterpartyID,
		Amount:         amount,
		Type:           PaymentType(req.Type),
		InitiatedBy:    middleware.ActorID(c),
	})
	if err != nil {
		if errors.Is(err, ErrGateway) && res.Intent.ID != "" {
			return c.Status(http.StatusBadGateway).JSON(toIntentResponse(res.Intent, ""))
		}
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toIntentResponse(res.Intent, res.RedirectURL))
}

// Get returns one payment intent.
func (h *Handler) Get(c *fiber.Ctx) error {
	intent, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toIntentResponse(intent, ""))
}

// Retry reopens a checkout session under a fresh external transaction id.
func (h *Handler) Retry(c *fiber.Ctx) error {
	res, err := h.service.Retry(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrGateway) && res.Intent.ID != "" {
			return c.Status(http.StatusBadGateway).JSON(toIntentResponse(res.Intent, ""))
		}
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toIntentResponse(res.Intent, res.RedirectURL))
}

// CallbackSuccess settles the intent named by the gateway callback. A
// duplicate delivery answers 200 with the already-settled intent.
func (h *Handler) CallbackSuccess(c *fiber.Ctx) error {
	var cb Callback
	if err := c.BodyParser(&cb); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	intent, err := h.service.Settle(c.UserContext(), cb)
	if err != nil && !errors.Is(err, ErrAlreadySettled) {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toIntentResponse(intent, ""))
}

// CallbackFail marks the intent FAILED without touching any wallet.
func (h *Handler) CallbackFail(c *fiber.Ctx) error {
	return h.terminal(c, h.service.Fail)
}

// CallbackCancel marks the intent CANCELLED without touching any wallet.
func (h *Handler) CallbackCancel(c *fiber.Ctx) error {
	return h.terminal(c, h.service.Cancel)
}

func (h *Handler) terminal(c *fiber.Ctx, op func(ctx context.Context, intentID string) (Intent, error)) error {
	var cb Callback
	if err := c.BodyParser(&cb); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	intent, err := h.service.Resolve(c.UserContext(), cb)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	intent, err = op(c.UserContext(), intent.ID)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toIntentResponse(intent, ""))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadySettled), errors.Is(err, ErrNotPending),
		errors.Is(err, ErrNotRetriable), errors.Is(err, wallet.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, ErrCallbackMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrDailyLimitExceeded),
		errors.Is(err, wallet.ErrMonthlyLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
