package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/safarcab/safar/internal/auth"
	"github.com/safarcab/safar/internal/principal"
	"github.com/safarcab/safar/internal/requestid"
)

const bearerPrefix = "bearer "

// TrustClassifier resolves every request to exactly one principal before
// handlers run. Priority: no Authorization header is anonymous; a bearer
// value matching the admin secret is admin and is never parsed as a JWT; any
// other bearer value must verify as a token or the request is rejected
// outright. A present-but-invalid credential is always an error, never a
// silent downgrade to anonymous.
func TrustClassifier(adminSecret string, issuer *auth.Issuer, logger *slog.Logger) fiber.Handler {
	secret := []byte(adminSecret)

	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if authz == "" {
			principal.Attach(c, principal.Principal{Kind: principal.Anonymous})
			logClassification(logger, c, principal.Anonymous)
			return c.Next()
		}

		if !strings.HasPrefix(strings.ToLower(authz), bearerPrefix) {
			logger.Warn("credential rejected",
				slog.String("request_id", requestid.FromCtx(c)),
				slog.String("reason", "malformed authorization header"),
			)
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired credentials")
		}
		credential := strings.TrimSpace(authz[len(bearerPrefix):])

		if len(secret) > 0 && subtle.ConstantTimeCompare([]byte(credential), secret) == 1 {
			principal.Attach(c, principal.Principal{Kind: principal.Admin})
			logClassification(logger, c, principal.Admin)
			return c.Next()
		}

		claims, err := issuer.Verify(credential)
		if err != nil {
			logger.Warn("credential rejected",
				slog.String("request_id", requestid.FromCtx(c)),
				slog.String("reason", "token verification failed"),
			)
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired credentials")
		}

		principal.Attach(c, principal.Principal{
			Kind:   principal.User,
			UserID: claims.Subject,
			Mobile: claims.Mobile,
			Email:  claims.Email,
		})
		logClassification(logger, c, principal.User)
		return c.Next()
	}
}

func logClassification(logger *slog.Logger, c *fiber.Ctx, kind principal.Kind) {
	logger.Debug("request classified",
		slog.String("request_id", requestid.FromCtx(c)),
		slog.String("principal", string(kind)),
	)
}
