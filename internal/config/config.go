package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "Safar"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultTokenTTL      = 24 * time.Hour
	defaultOTPTTL        = 5 * time.Minute
	defaultOTPAttempts   = 3
	defaultOTPProvider   = "redis"
	defaultReplayTTL     = 24 * time.Hour

	tokenTTLEnvVar         = "TOKEN_TTL"
	otpTTLEnvVar           = "OTP_TTL"
	otpAttemptsEnvVar      = "OTP_MAX_ATTEMPTS"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment
// variables. It is constructed once in main and treated as immutable for the
// process lifetime; request-handling code receives it by value and never
// reads the environment directly.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// Restricted and privileged store roles. The restricted DSN connects as
	// the row-level-security constrained role, the privileged DSN as the
	// role that bypasses those policies.
	DatabaseURL      string
	AdminDatabaseURL string
	RedisURL         string

	JWTSecret   string
	TokenTTL    time.Duration
	AdminSecret string

	OTPProvider    string
	OTPBaseURL     string
	OTPAPIKey      string
	OTPTTL         time.Duration
	OTPMaxAttempts int

	ShutdownPeriod time.Duration
	ReplayTTL      time.Duration
}

// Load reads configuration values from the environment and populates a
// Config instance. Missing secrets are startup errors everywhere; missing
// store configuration is a startup error outside development, which falls
// back to in-memory backends.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AdminDatabaseURL: os.Getenv("ADMIN_DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         defaultTokenTTL,
		AdminSecret:      os.Getenv("ADMIN_SECRET"),
		OTPProvider:      strings.ToLower(getEnv("OTP_PROVIDER", defaultOTPProvider)),
		OTPBaseURL:       os.Getenv("OTP_PROVIDER_URL"),
		OTPAPIKey:        os.Getenv("OTP_PROVIDER_API_KEY"),
		OTPTTL:           defaultOTPTTL,
		OTPMaxAttempts:   defaultOTPAttempts,
		ShutdownPeriod:   defaultShutdownDelay,
		ReplayTTL:        defaultReplayTTL,
	}

	if v := os.Getenv(tokenTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", tokenTTLEnvVar, err)
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv(otpTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", otpTTLEnvVar, err)
		}
		cfg.OTPTTL = d
	}

	if v := os.Getenv(otpAttemptsEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", otpAttemptsEnvVar, err)
		}
		cfg.OTPMaxAttempts = n
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	if cfg.AdminSecret == "" {
		return Config{}, fmt.Errorf("ADMIN_SECRET must be set")
	}

	if cfg.OTPProvider == "http" && cfg.OTPBaseURL == "" {
		return Config{}, fmt.Errorf("OTP_PROVIDER_URL must be set when OTP_PROVIDER=http")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.AdminDatabaseURL == "" {
			return Config{}, fmt.Errorf("ADMIN_DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the process runs in a development-style environment
// where in-memory fallbacks are acceptable.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
