package moneyrequest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/taka-pay/taka_pay/internal/middleware"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Handler exposes the money request workflow over HTTP. The authenticated
// actor is always the requester on create and cancel, and the payer on
// approve and reject.
type Handler struct {
	service *Service
}

// NewHandler builds a money request HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	PayerID     string `json:"payer_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type requestResponse struct {
	ID            string    `json:"id"`
	RequesterID   string    `json:"requester_id"`
	PayerID       string    `json:"payer_id"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toRequestResponse(req MoneyRequest) requestResponse {
	return requestResponse{
		ID:            req.ID,
		RequesterID:   req.RequesterID,
		PayerID:       req.PayerID,
		Amount:        req.Amount.StringFixed(2),
		Description:   req.Description,
		Status:        string(req.Status),
		TransactionID: req.TransactionID,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
}

// Create opens a money request from the authenticated actor to the payer.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	created, err := h.service.Create(c.UserContext(), CreateInput{
		RequesterID: middleware.ActorID(c),
		PayerID:     req.PayerID,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toRequestResponse(created))
}

// Get returns one money request.
func (h *Handler) Get(c *fiber.Ctx) error {
	req, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toRequestResponse(req))
}

// List returns the authenticated actor's requests on either side, newest
// first.
func (h *Handler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	requests, err := h.service.ListForActor(c.UserContext(), middleware.ActorID(c), limit)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	return c.JSON(fiber.Map{"requests": out})
}

// Approve settles the request through the transfer engine.
func (h *Handler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.service.Approve)
}

// Reject declines the request. Payer only.
func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.service.Reject)
}

// Cancel withdraws the request. Requester only.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.service.Cancel)
}

func (h *Handler) transition(c *fiber.Ctx, op func(ctx context.Context, requestID, actorID string) (MoneyRequest, error)) error {
	req, err := op(c.UserContext(), c.Params("id"), middleware.ActorID(c))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toRequestResponse(req))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, transfer.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicatePending), errors.Is(err, ErrNotPending),
		errors.Is(err, wallet.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrDailyLimitExceeded),
		errors.Is(err, wallet.ErrMonthlyLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, ErrSelfRequest),
		errors.Is(err, transfer.ErrSelfTransfer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
