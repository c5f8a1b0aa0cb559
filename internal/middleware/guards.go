package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/principal"
)

// RequireUser rejects requests whose principal is not an authenticated
// user. It performs no credential parsing; the classifier already did.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal.FromCtx(c).Kind != principal.User {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests whose principal is not administrative.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal.FromCtx(c).Kind != principal.Admin {
			return fiber.NewError(http.StatusForbidden, "administrator access required")
		}
		return c.Next()
	}
}
