package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taka-pay/taka_pay/internal/agent"
)

// RegisterAgentRoutes wires the agent cash exchange endpoints.
func RegisterAgentRoutes(r fiber.Router, h *agent.Handler) {
	r.Post("/agents/cash-in", h.CashIn)
	r.Post("/agents/cash-out", h.CashOut)
}
