package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/auth"
)

// RegisterAuthRoutes wires the public OTP login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler) {
	group := r.Group("/auth")
	group.Post("/send-otp", h.SendOTP)
	group.Post("/verify-otp", h.VerifyOTP)
}
