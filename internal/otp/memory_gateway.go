package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safarcab/safar/internal/notification"
)

type memorySession struct {
	code      string
	attempts  int
	expiresAt time.Time
}

// MemoryGateway is the in-process OTP provider for development runs without
// Redis, pairing with the in-memory identity store fallback. Sessions live
// in the process and die with it; semantics mirror the Redis gateway:
// single-use, TTL-bounded, attempt-capped, keyed by opaque session id only.
type MemoryGateway struct {
	mu          sync.Mutex
	sessions    map[string]*memorySession
	notifier    notification.Notifier
	ttl         time.Duration
	maxAttempts int
}

// NewMemoryGateway builds the in-memory gateway.
func NewMemoryGateway(notifier notification.Notifier, ttl time.Duration, maxAttempts int) *MemoryGateway {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &MemoryGateway{
		sessions:    make(map[string]*memorySession),
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

// Send generates a code, stores it under a fresh session id and hands the
// code to the notifier for delivery.
func (g *MemoryGateway) Send(ctx context.Context, mobile string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	sessionID := uuid.New().String()

	g.mu.Lock()
	g.sessions[sessionID] = &memorySession{code: code, expiresAt: time.Now().Add(g.ttl)}
	g.mu.Unlock()

	msg := notification.Message{
		Kind:        notification.KindOTPCode,
		Destination: mobile,
		Body:        fmt.Sprintf("Your verification code is %s", code),
	}
	if err := g.notifier.Send(ctx, msg); err != nil {
		g.mu.Lock()
		delete(g.sessions, sessionID)
		g.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return sessionID, nil
}

// Verify checks the code against the session. The session is consumed on
// success, on expiry and after maxAttempts failures.
func (g *MemoryGateway) Verify(_ context.Context, sessionID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess, ok := g.sessions[sessionID]
	if !ok {
		return ErrInvalidCode
	}
	if time.Now().After(sess.expiresAt) {
		delete(g.sessions, sessionID)
		return ErrInvalidCode
	}

	if sess.code != code {
		sess.attempts++
		if sess.attempts >= g.maxAttempts {
			delete(g.sessions, sessionID)
		}
		return ErrInvalidCode
	}

	delete(g.sessions, sessionID)
	return nil
}
