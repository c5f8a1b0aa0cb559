package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/safarcab/safar/internal/auth"
	"github.com/safarcab/safar/internal/config"
	"github.com/safarcab/safar/internal/identity"
	"github.com/safarcab/safar/internal/infra"
	"github.com/safarcab/safar/internal/middleware"
	"github.com/safarcab/safar/internal/notification"
	"github.com/safarcab/safar/internal/otp"
	"github.com/safarcab/safar/internal/principal"
	"github.com/safarcab/safar/internal/requestid"
)

// Deps aggregates shared dependencies required to wire routes. Nil stores
// are tolerated only in development, where in-memory fallbacks apply. OTP
// overrides the configured gateway when set (tests use this).
type Deps struct {
	Cfg    config.Config
	DB     infra.Profiles
	Cache  *redis.Client
	Logger *slog.Logger
	OTP    otp.Gateway
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB.Restricted == nil || d.DB.Privileged == nil {
			return fmt.Errorf("both store profiles are required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var repos identity.RepoSet
	if d.DB.Restricted != nil && d.DB.Privileged != nil {
		repos = identity.RepoSet{
			Restricted: identity.NewPostgresRepository(d.DB.Restricted),
			Privileged: identity.NewPostgresRepository(d.DB.Privileged),
		}
	} else {
		// Dev fallback: one shared in-memory store serves both profiles.
		mem := identity.NewMemoryRepository()
		repos = identity.RepoSet{Restricted: mem, Privileged: mem}
	}

	gateway := d.OTP
	if gateway == nil {
		var err error
		gateway, err = buildGateway(d)
		if err != nil {
			return err
		}
	}

	// Provisioning runs against the privileged role: first-time users have
	// no row the restricted role could see.
	ids := identity.NewService(repos.Privileged)
	issuer := auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	authSvc := auth.NewService(gateway, ids, issuer)
	authHandler := auth.NewHandler(authSvc, d.Logger)
	userHandler := identity.NewHandler(repos, ids, d.Logger)

	api := app.Group("/api/v1")

	// Trust-establishing endpoints; the classifier never sees them.
	RegisterAuthRoutes(api, authHandler)

	// Every other /api/v1 route is classified first.
	classified := api.Group("", middleware.TrustClassifier(d.Cfg.AdminSecret, issuer, d.Logger))

	classified.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"principal":  string(principal.FromCtx(c).Kind),
			"request_id": requestid.FromCtx(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterUserRoutes(classified, userHandler, d)

	return nil
}

func buildGateway(d Deps) (otp.Gateway, error) {
	switch d.Cfg.OTPProvider {
	case "http":
		return otp.NewHTTPGateway(d.Cfg.OTPBaseURL, d.Cfg.OTPAPIKey), nil
	case "redis":
		notifier := notification.NewLoggerNotifier(d.Logger)
		if d.Cache == nil {
			// Dev fallback: no Redis means the OTP sessions live in the
			// process, alongside the in-memory identity store.
			if !d.Cfg.IsDev() {
				return nil, fmt.Errorf("redis is required for OTP_PROVIDER=redis")
			}
			return otp.NewMemoryGateway(notifier, d.Cfg.OTPTTL, d.Cfg.OTPMaxAttempts), nil
		}
		return otp.NewRedisGateway(d.Cache, notifier, d.Cfg.OTPTTL, d.Cfg.OTPMaxAttempts), nil
	default:
		return nil, fmt.Errorf("unknown OTP_PROVIDER %q", d.Cfg.OTPProvider)
	}
}
