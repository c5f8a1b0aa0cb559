// Package requestid owns the request correlation identifier: the header
// name, where it lives on the request context, and how handlers read it
// back. The middleware package attaches it; everything that logs reads it
// from here.
package requestid

import "github.com/gofiber/fiber/v2"

// Header is the correlation header, echoed on every response.
const Header = "X-Request-ID"

// Attach stores the correlation id on the request context.
func Attach(c *fiber.Ctx, id string) {
	c.Locals(Header, id)
}

// FromCtx returns the correlation id attached to the request, or "" when
// the request never passed through the RequestID middleware.
func FromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(Header).(string)
	return id
}
