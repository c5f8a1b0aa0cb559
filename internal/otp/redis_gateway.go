package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/safarcab/safar/internal/notification"
)

const (
	sessionPrefix = "otp:session:"
	codeDigits    = 6
)

type session struct {
	Mobile    string    `json:"mobile"`
	CodeHash  []byte    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisGateway is a local OTP provider for deployments without an external
// SMS vendor. Codes are stored hashed under an opaque session key with a
// TTL; sessions are single-use and die after the attempt cap. Verification
// is keyed by session id alone, matching the external provider's contract.
type RedisGateway struct {
	cache       *redis.Client
	notifier    notification.Notifier
	ttl         time.Duration
	maxAttempts int
}

// NewRedisGateway builds the Redis-backed gateway.
func NewRedisGateway(cache *redis.Client, notifier notification.Notifier, ttl time.Duration, maxAttempts int) *RedisGateway {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RedisGateway{cache: cache, notifier: notifier, ttl: ttl, maxAttempts: maxAttempts}
}

// Send generates a code, stores its hash under a fresh session id and hands
// the code to the notifier for delivery.
func (g *RedisGateway) Send(ctx context.Context, mobile string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	sessionID := uuid.New().String()
	payload, err := json.Marshal(session{Mobile: mobile, CodeHash: hash, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := g.cache.Set(ctx, sessionPrefix+sessionID, payload, g.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	msg := notification.Message{
		Kind:        notification.KindOTPCode,
		Destination: mobile,
		Body:        fmt.Sprintf("Your verification code is %s", code),
	}
	if err := g.notifier.Send(ctx, msg); err != nil {
		// A session nobody can complete is useless; drop it.
		g.cache.Del(ctx, sessionPrefix+sessionID)
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return sessionID, nil
}

// Verify checks the code against the stored hash. The session is consumed on
// success and after maxAttempts failures.
func (g *RedisGateway) Verify(ctx context.Context, sessionID, code string) error {
	key := sessionPrefix + sessionID

	raw, err := g.cache.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("otp session lookup: %w", err)
	}

	var sess session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return fmt.Errorf("decode otp session: %w", err)
	}

	if bcrypt.CompareHashAndPassword(sess.CodeHash, []byte(code)) != nil {
		sess.Attempts++
		if sess.Attempts >= g.maxAttempts {
			g.cache.Del(ctx, key)
			return ErrInvalidCode
		}
		payload, err := json.Marshal(sess)
		if err == nil {
			g.cache.Set(ctx, key, payload, redis.KeepTTL)
		}
		return ErrInvalidCode
	}

	if err := g.cache.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume otp session: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
