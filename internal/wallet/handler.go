package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type provisionRequest struct {
	OwnerID string `json:"owner_id"`
	Type    string `json:"type"`
}

type walletResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Type         string    `json:"type"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	Balance      string    `json:"balance"`
	DailyLimit   string    `json:"daily_limit"`
	MonthlyLimit string    `json:"monthly_limit"`
	DailySpent   string    `json:"daily_spent"`
	MonthlySpent string    `json:"monthly_spent"`
	CreatedAt    time.Time `json:"created_at"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:           w.ID,
		OwnerID:      w.OwnerID,
		Type:         string(w.Type),
		Currency:     w.Currency,
		Status:       string(w.Status),
		Balance:      w.Balance.StringFixed(2),
		DailyLimit:   w.DailyLimit.StringFixed(2),
		MonthlyLimit: w.MonthlyLimit.StringFixed(2),
		DailySpent:   w.DailySpent.StringFixed(2),
		MonthlySpent: w.MonthlySpent.StringFixed(2),
		CreatedAt:    w.CreatedAt,
	}
}

// Provision creates a wallet with the configured starting grant.
func (h *Handler) Provision(c *fiber.Ctx) error {
	var req provisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Provision(c.UserContext(), ProvisionInput{OwnerID: req.OwnerID, Type: Type(req.Type)})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Get returns a wallet snapshot.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// History returns the wallet's recent ledger entries.
func (h *Handler) History(c *fiber.Ctx) error {
	txns, err := h.service.History(c.UserContext(), c.Params("walletId"), c.QueryInt("limit", 50))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{"wallet_id": c.Params("walletId"), "transactions": txns})
}

// Block suspends a wallet.
func (h *Handler) Block(c *fiber.Ctx) error {
	if err := h.service.Block(c.UserContext(), c.Params("walletId")); err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{"status": string(StatusBlocked)})
}

// Unblock reactivates a wallet.
func (h *Handler) Unblock(c *fiber.Ctx) error {
	if err := h.service.Unblock(c.UserContext(), c.Params("walletId")); err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{"status": string(StatusActive)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInactive):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrDailyLimitExceeded), errors.Is(err, ErrMonthlyLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidOwner):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
