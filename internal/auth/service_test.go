package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safarcab/safar/internal/identity"
	"github.com/safarcab/safar/internal/otp"
)

type fakeGateway struct {
	sessionID string
	code      string
	sendErr   error
	verifyErr error
}

func (g *fakeGateway) Send(_ context.Context, _ string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	return g.sessionID, nil
}

func (g *fakeGateway) Verify(_ context.Context, sessionID, code string) error {
	if g.verifyErr != nil {
		return g.verifyErr
	}
	if sessionID != g.sessionID || code != g.code {
		return otp.ErrInvalidCode
	}
	return nil
}

func newTestService(gateway otp.Gateway) (*Service, identity.Repository) {
	repo := identity.NewMemoryRepository()
	ids := identity.NewService(repo)
	issuer := NewIssuer("test-secret", time.Hour)
	return NewService(gateway, ids, issuer), repo
}

func TestLoginSuccess(t *testing.T) {
	gateway := &fakeGateway{sessionID: "sess-1", code: "123456"}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	sessionID, err := svc.RequestOTP(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	token, user, err := svc.Login(ctx, "+911234567890", "123456", sessionID)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if user.Mobile != "+911234567890" {
		t.Fatalf("expected mobile +911234567890, got %s", user.Mobile)
	}

	// The minted token resolves back to the same identity.
	claims, err := NewIssuer("test-secret", time.Hour).Verify(token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.Subject)
	}
}

func TestLoginRejectedCodeCreatesNoUser(t *testing.T) {
	gateway := &fakeGateway{sessionID: "sess-1", code: "123456"}
	svc, repo := newTestService(gateway)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "+911234567890", "000000", "sess-1")
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	if _, err := repo.FindByMobile(ctx, "+911234567890"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected no user record after failed verification, got %v", err)
	}
}

func TestLoginProviderFailureIsNotCredentialError(t *testing.T) {
	gateway := &fakeGateway{verifyErr: errors.New("provider unreachable")}
	svc, _ := newTestService(gateway)

	_, _, err := svc.Login(context.Background(), "+911234567890", "123456", "sess-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("provider failure must not classify as a rejected code")
	}
}

func TestLoginIsIdempotentPerMobile(t *testing.T) {
	gateway := &fakeGateway{sessionID: "sess-1", code: "123456"}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "+911234567890", "123456", "sess-1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, second, err := svc.Login(ctx, "+911234567890", "123456", "sess-1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same identity on repeat login, got %s and %s", first.ID, second.ID)
	}
}

func TestRequestOTPDeliveryFailure(t *testing.T) {
	gateway := &fakeGateway{sendErr: otp.ErrDeliveryFailed}
	svc, _ := newTestService(gateway)

	_, err := svc.RequestOTP(context.Background(), "+911234567890")
	if !errors.Is(err, otp.ErrDeliveryFailed) {
		t.Fatalf("expected delivery failure, got %v", err)
	}
}
