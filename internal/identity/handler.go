package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/principal"
)

// Handler exposes profile endpoints over the resolved principal. The
// repository backing each request is chosen from the principal's access
// profile, so admin requests read through the privileged store role.
type Handler struct {
	repos  RepoSet
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds the profile handler.
func NewHandler(repos RepoSet, svc *Service, logger *slog.Logger) *Handler {
	return &Handler{repos: repos, svc: svc, logger: logger}
}

// Me returns the authenticated user's own record.
func (h *Handler) Me(c *fiber.Ctx) error {
	p := principal.FromCtx(c)
	user, err := h.repos.For(p.Access()).FindByID(c.UserContext(), p.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "user lookup failed")
	}
	return c.Status(http.StatusOK).JSON(userJSON(user))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateMe mutates the authenticated user's profile fields.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p := principal.FromCtx(c)
	user, err := h.svc.UpdateProfile(c.UserContext(), p.UserID, Profile{Name: req.Name, Email: req.Email})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "profile update failed")
	}

	h.logger.Info("profile updated", slog.String("user_id", user.ID))
	return c.Status(http.StatusOK).JSON(userJSON(user))
}

// Get returns a user by id. Admins may read any record; a user may read
// only their own.
func (h *Handler) Get(c *fiber.Ctx) error {
	p := principal.FromCtx(c)
	id := c.Params("id")

	switch p.Kind {
	case principal.Admin:
	case principal.User:
		if p.UserID != id {
			return fiber.NewError(http.StatusForbidden, "not your resource")
		}
	default:
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	user, err := h.repos.For(p.Access()).FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "user lookup failed")
	}
	return c.Status(http.StatusOK).JSON(userJSON(user))
}

// List returns every registered user. Admin only; reads through the
// privileged store role.
func (h *Handler) List(c *fiber.Ctx) error {
	p := principal.FromCtx(c)
	users, err := h.repos.For(p.Access()).List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "user listing failed")
	}

	out := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		out = append(out, userJSON(user))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": out})
}

func userJSON(user User) fiber.Map {
	return fiber.Map{
		"user_id":    user.ID,
		"mobile":     user.Mobile,
		"name":       user.Name,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	}
}
