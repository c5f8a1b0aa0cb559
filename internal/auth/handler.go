package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/requestid"
)

// Handler exposes the two public login endpoints. They establish trust and
// therefore run outside the trust classifier.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds the auth handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type sendOTPRequest struct {
	Mobile string `json:"mobile"`
}

// SendOTP requests code delivery for a mobile number and returns the
// provider session id.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Mobile == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile is required")
	}

	sessionID, err := h.svc.RequestOTP(c.UserContext(), req.Mobile)
	if err != nil {
		h.logger.Error("otp delivery failed",
			slog.String("request_id", requestid.FromCtx(c)),
			slog.Any("error", err),
		)
		return fiber.NewError(http.StatusInternalServerError, "otp delivery failed")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"sessionId": sessionID})
}

type verifyOTPRequest struct {
	Mobile    string `json:"mobile"`
	OTP       string `json:"otp"`
	SessionID string `json:"sessionId"`
}

// VerifyOTP completes the login: on success the response carries a signed
// token and the resolved user.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Mobile == "" || req.OTP == "" || req.SessionID == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile, otp and sessionId are required")
	}

	token, user, err := h.svc.Login(c.UserContext(), req.Mobile, req.OTP, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrOTPInvalid) {
			h.logger.Info("login rejected",
				slog.String("request_id", requestid.FromCtx(c)),
			)
			return fiber.NewError(http.StatusUnauthorized, "otp verification failed")
		}
		h.logger.Error("login failed",
			slog.String("request_id", requestid.FromCtx(c)),
			slog.Any("error", err),
		)
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	h.logger.Info("login completed",
		slog.String("request_id", requestid.FromCtx(c)),
		slog.String("user_id", user.ID),
	)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"user_id":    user.ID,
			"mobile":     user.Mobile,
			"name":       user.Name,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
	})
}
