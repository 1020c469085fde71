// Package token decodes the bearer token the upstream CMS API issues at
// login. The console never verifies signatures; the API is the verifier.
// Decoding only recovers the identity, roles and expiry embedded in the
// payload so route authorization can run without a network round trip.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode indicates the token is malformed: wrong segment count,
// invalid base64, invalid JSON payload, or a missing subject. Callers
// must treat decode failure exactly like an absent session.
var ErrDecode = errors.New("token: malformed token")

// Claims is the decoded payload of a bearer token.
type Claims struct {
	UserID    string
	Roles     []string
	ExpiresAt time.Time
}

type payload struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode parses the payload segment of a compact token without verifying
// the signature. No side effects.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrDecode
	}
	var p payload
	if _, _, err := parser.ParseUnverified(raw, &p); err != nil {
		return Claims{}, ErrDecode
	}
	if strings.TrimSpace(p.Subject) == "" {
		return Claims{}, ErrDecode
	}
	claims := Claims{
		UserID: p.Subject,
		Roles:  dedupeRoles(p.Roles),
	}
	if p.ExpiresAt != nil {
		claims.ExpiresAt = p.ExpiresAt.Time
	}
	return claims, nil
}

// Expired reports whether the claims carry an expiry strictly in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// HasAnyRole reports whether the claims share at least one role with the
// required set. An empty required set authorizes any authenticated user.
func (c Claims) HasAnyRole(required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		want = strings.TrimSpace(strings.ToLower(want))
		if want == "" {
			continue
		}
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func dedupeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var normalized []string
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
