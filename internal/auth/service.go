package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safarcab/safar/internal/identity"
	"github.com/safarcab/safar/internal/otp"
)

// ErrOTPInvalid indicates the submitted code was rejected. No identity or
// token work happens on this path.
var ErrOTPInvalid = errors.New("otp verification failed")

// loginDeadline bounds one whole login attempt across the provider and
// store calls. A timeout fails the attempt as a whole; a user record the
// resolver already committed is harmless because resolution is idempotent.
const loginDeadline = 15 * time.Second

// Service orchestrates passwordless login: OTP verification, identity
// resolution and token issuance, strictly in that order.
type Service struct {
	gateway otp.Gateway
	ids     *identity.Service
	issuer  *Issuer
}

// NewService creates the login orchestrator.
func NewService(gateway otp.Gateway, ids *identity.Service, issuer *Issuer) *Service {
	return &Service{gateway: gateway, ids: ids, issuer: issuer}
}

// RequestOTP asks the gateway to deliver a code and returns the opaque
// session identifier the caller must echo back on verification. The session
// is bound to the mobile number only as far as the provider enforces it.
func (s *Service) RequestOTP(ctx context.Context, mobile string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, loginDeadline)
	defer cancel()

	sessionID, err := s.gateway.Send(ctx, mobile)
	if err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	return sessionID, nil
}

// Login completes the attempt: verify the code, resolve the identity,
// issue a token. A rejected code stops before any identity work. There is
// no partial success; the caller gets either (token, user) or one failure.
func (s *Service) Login(ctx context.Context, mobile, code, sessionID string) (string, identity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, loginDeadline)
	defer cancel()

	if err := s.gateway.Verify(ctx, sessionID, code); err != nil {
		if errors.Is(err, otp.ErrInvalidCode) {
			return "", identity.User{}, ErrOTPInvalid
		}
		return "", identity.User{}, fmt.Errorf("verify otp: %w", err)
	}

	user, err := s.ids.FindOrCreate(ctx, mobile)
	if err != nil {
		return "", identity.User{}, fmt.Errorf("resolve identity: %w", err)
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", identity.User{}, fmt.Errorf("issue token: %w", err)
	}

	return token, user, nil
}
