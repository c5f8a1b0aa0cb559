package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/safarcab/safar/internal/identity"
)

// ErrInvalidToken is the single failure every verification error satisfies.
// The underlying cause (expired, malformed, bad signature) stays in the
// error chain for logging but is never surfaced to the requester.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the signed token payload. Tokens whose decoded claims do not
// match this shape are rejected, not coerced.
type Claims struct {
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies identity tokens. Tokens are stateless: validity
// is determined solely by signature and expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds a token issuer from the configured signing key and TTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a time-bounded HS256 token bound to the user's identity.
func (i *Issuer) Issue(user identity.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Mobile: user.Mobile,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Every failure
// satisfies errors.Is(err, ErrInvalidToken); jwt sentinels such as
// jwt.ErrTokenExpired remain reachable through the chain.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Mobile == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
