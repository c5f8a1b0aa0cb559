package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/safarcab/safar/internal/notification"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		t.Fatalf("no notification delivered")
	}
	body := n.messages[len(n.messages)-1].Body
	fields := strings.Fields(body)
	return fields[len(fields)-1]
}

func setupGateway(t *testing.T, ttl time.Duration, maxAttempts int) (*RedisGateway, *recordingNotifier, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := &recordingNotifier{}
	gateway := NewRedisGateway(cache, notifier, ttl, maxAttempts)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return gateway, notifier, mr, cleanup
}

func TestRedisGatewaySendAndVerify(t *testing.T) {
	gateway, notifier, _, cleanup := setupGateway(t, 5*time.Minute, 3)
	defer cleanup()
	ctx := context.Background()

	sessionID, err := gateway.Send(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sessionID == "" {
		t.Fatalf("expected a session id")
	}

	code := notifier.lastCode(t)
	if len(code) != codeDigits {
		t.Fatalf("expected %d digit code, got %q", codeDigits, code)
	}

	if err := gateway.Verify(ctx, sessionID, code); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestRedisGatewaySessionIsSingleUse(t *testing.T) {
	gateway, notifier, _, cleanup := setupGateway(t, 5*time.Minute, 3)
	defer cleanup()
	ctx := context.Background()

	sessionID, err := gateway.Send(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	code := notifier.lastCode(t)

	if err := gateway.Verify(ctx, sessionID, code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := gateway.Verify(ctx, sessionID, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected consumed session to reject, got %v", err)
	}
}

func TestRedisGatewayWrongCode(t *testing.T) {
	gateway, notifier, _, cleanup := setupGateway(t, 5*time.Minute, 3)
	defer cleanup()
	ctx := context.Background()

	sessionID, err := gateway.Send(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := gateway.Verify(ctx, sessionID, "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected rejection, got %v", err)
	}

	// A wrong attempt does not consume the session.
	code := notifier.lastCode(t)
	if err := gateway.Verify(ctx, sessionID, code); err != nil {
		t.Fatalf("verify after one failure: %v", err)
	}
}

func TestRedisGatewayAttemptCap(t *testing.T) {
	gateway, notifier, _, cleanup := setupGateway(t, 5*time.Minute, 2)
	defer cleanup()
	ctx := context.Background()

	sessionID, err := gateway.Send(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := gateway.Verify(ctx, sessionID, "000000"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected rejection, got %v", i, err)
		}
	}

	// Cap reached: even the correct code is dead now.
	code := notifier.lastCode(t)
	if err := gateway.Verify(ctx, sessionID, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected exhausted session to reject, got %v", err)
	}
}

func TestRedisGatewayExpiry(t *testing.T) {
	gateway, notifier, mr, cleanup := setupGateway(t, time.Minute, 3)
	defer cleanup()
	ctx := context.Background()

	sessionID, err := gateway.Send(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	code := notifier.lastCode(t)
	if err := gateway.Verify(ctx, sessionID, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected expired session to reject, got %v", err)
	}
}

func TestRedisGatewayUnknownSession(t *testing.T) {
	gateway, _, _, cleanup := setupGateway(t, time.Minute, 3)
	defer cleanup()

	if err := gateway.Verify(context.Background(), "no-such-session", "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected unknown session to reject, got %v", err)
	}
}
