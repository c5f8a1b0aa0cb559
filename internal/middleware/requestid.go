package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/safarcab/safar/internal/requestid"
)

// RequestID ensures each request carries a stable correlation identifier,
// echoed on the response and reused by every log line for the request.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestid.Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestid.Header, reqID)
		requestid.Attach(c, reqID)

		return c.Next()
	}
}
