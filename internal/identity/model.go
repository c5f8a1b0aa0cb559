package identity

import (
	"strings"
	"time"
)

// User represents a registered rider identified by mobile number. Profile
// fields are optional and mutable after creation; the mobile number is the
// unique natural key and never changes.
type User struct {
	ID        string
	Mobile    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Profile carries the mutable profile fields for an update.
type Profile struct {
	Name  string
	Email string
}

// NormalizeMobile canonicalizes a mobile number before any lookup or
// insert: surrounding whitespace and common separators are stripped so the
// uniqueness constraint sees one spelling per number.
func NormalizeMobile(mobile string) string {
	mobile = strings.TrimSpace(mobile)
	var b strings.Builder
	b.Grow(len(mobile))
	for _, r := range mobile {
		switch r {
		case ' ', '-', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
