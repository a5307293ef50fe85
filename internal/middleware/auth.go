package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/config"
	"github.com/example/ruangtamu/internal/utils"
)

const (
	operatorIDContextKey   = "currentOperatorID"
	operatorRoleContextKey = "currentOperatorRole"
)

// AuthMiddleware validates JWT tokens and loads the authenticated operator into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		operatorID, role, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(operatorIDContextKey, operatorID)
		c.Locals(operatorRoleContextKey, role)
		return c.Next()
	}
}

// RequireRole rejects requests whose authenticated operator has none of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := CurrentOperatorRole(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing operator role")
		}

		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// CurrentOperatorID extracts the authenticated operator ID from context.
func CurrentOperatorID(c *fiber.Ctx) (string, bool) {
	if id, ok := c.Locals(operatorIDContextKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// CurrentOperatorRole extracts the authenticated operator role from context.
func CurrentOperatorRole(c *fiber.Ctx) (string, bool) {
	if role, ok := c.Locals(operatorRoleContextKey).(string); ok && role != "" {
		return role, true
	}
	return "", false
}
