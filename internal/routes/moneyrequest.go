package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taka-pay/taka_pay/internal/moneyrequest"
)

// RegisterMoneyRequestRoutes wires the money request workflow endpoints.
func RegisterMoneyRequestRoutes(r fiber.Router, h *moneyrequest.Handler) {
	r.Post("/money-requests", h.Create)
	r.Get("/money-requests", h.List)
	r.Get("/money-requests/:id", h.Get)
	r.Post("/money-requests/:id/approve", h.Approve)
	r.Post("/money-requests/:id/reject", h.Reject)
	r.Post("/money-requests/:id/cancel", h.Cancel)
}
