package principal

import "github.com/gofiber/fiber/v2"

// Kind identifies the trust level a request resolved to. Exactly one kind
// applies per request.
type Kind string

const (
	// Anonymous means no credential was presented.
	Anonymous Kind = "anonymous"
	// User means a valid signed token identified a registered user.
	User Kind = "user"
	// Admin means the credential matched the configured admin secret.
	Admin Kind = "admin"
)

// AccessProfile selects which store role serves the request's data access.
type AccessProfile string

const (
	// Restricted applies row-level constraints.
	Restricted AccessProfile = "restricted"
	// Privileged bypasses row-level constraints.
	Privileged AccessProfile = "privileged"
)

// Principal is the per-request resolved identity. The zero value is treated
// as anonymous.
type Principal struct {
	Kind   Kind
	UserID string
	Mobile string
	Email  string
}

// Access returns the data-access profile bound to the principal.
func (p Principal) Access() AccessProfile {
	if p.Kind == Admin {
		return Privileged
	}
	return Restricted
}

const localsKey = "safar.principal"

// Attach stores the resolved principal on the request context for downstream
// handlers.
func Attach(c *fiber.Ctx, p Principal) {
	c.Locals(localsKey, p)
}

// FromCtx returns the principal attached by the trust classifier. Requests
// that never passed through the classifier resolve to anonymous.
func FromCtx(c *fiber.Ctx) Principal {
	p, ok := c.Locals(localsKey).(Principal)
	if !ok || p.Kind == "" {
		return Principal{Kind: Anonymous}
	}
	return p
}
