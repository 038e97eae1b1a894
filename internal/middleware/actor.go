package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const (
	actorIDHeader   = "X-Actor-ID"
	actorRoleHeader = "X-Actor-Role"

	actorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// Actor extracts the authenticated actor identity injected by the upstream
// identity service. The ledger trusts this input and does not authenticate
// itself.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := c.Get(actorIDHeader)
		if actorID == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing actor identity")
		}
		c.Locals(actorIDKey, actorID)
		c.Locals(actorRoleKey, c.Get(actorRoleHeader))
		return c.Next()
	}
}

// ActorID returns the authenticated actor id for the request, or empty when
// the Actor middleware did not run.
func ActorID(c *fiber.Ctx) string {
	id, _ := c.Locals(actorIDKey).(string)
	return id
}

// ActorRole returns the authenticated actor role for the request.
func ActorRole(c *fiber.Ctx) string {
	role, _ := c.Locals(actorRoleKey).(string)
	return role
}
