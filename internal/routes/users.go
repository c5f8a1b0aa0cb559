package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/identity"
	"github.com/safarcab/safar/internal/middleware"
)

// RegisterUserRoutes wires the profile endpoints onto the classified group.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler, d Deps) {
	r.Get("/me", middleware.RequireUser(), h.Me)

	if d.Cache != nil {
		r.Put("/me", middleware.RequireUser(), middleware.Idempotency(d.Cache, d.Cfg.ReplayTTL, d.Logger), h.UpdateMe)
	} else {
		r.Put("/me", middleware.RequireUser(), h.UpdateMe)
	}

	r.Get("/users", middleware.RequireAdmin(), h.List)

	// Ownership is checked in the handler: admin reads any record, a user
	// only their own.
	r.Get("/users/:id", h.Get)
}
