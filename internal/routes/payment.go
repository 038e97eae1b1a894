package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taka-pay/taka_pay/internal/payment"
)

// RegisterPaymentRoutes wires the payment intent endpoints. Initiation is
// rate limited per actor.
func RegisterPaymentRoutes(r fiber.Router, h *payment.Handler, rateLimiter fiber.Handler) {
	r.Post("/payments", rateLimiter, h.Initiate)
	r.Get("/payments/:id", h.Get)
	r.Post("/payments/:id/retry", h.Retry)
}

// RegisterCallbackRoutes wires the endpoints the gateway posts settlement
// outcomes to. They sit outside the actor middleware.
func RegisterCallbackRoutes(r fiber.Router, h *payment.Handler) {
	r.Post("/payments/callback/success", h.CallbackSuccess)
	r.Post("/payments/callback/fail", h.CallbackFail)
	r.Post("/payments/callback/cancel", h.CallbackCancel)
}
