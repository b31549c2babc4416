package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer is how close to expiry a token counts as "expiring soon"
const ExpiryBuffer = 5 * time.Minute

// ErrOpaqueToken is returned for tokens that are not JWTs. The backend is
// free to issue opaque tokens, so this only means "expiry unknown".
var ErrOpaqueToken = errors.New("token is not a JWT")

// Claims are the JWT claims the client cares about
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp
}

// HasExpiry reports whether the token declares an expiry
func (c *Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// IsExpired reports whether the token is past its exp at now.
// Tokens without exp never expire client-side.
func (c *Claims) IsExpired(now time.Time) bool {
	return c.HasExpiry() && !now.Before(c.ExpiresAt)
}

// ExpiresWithin reports whether the token expires within d of now
func (c *Claims) ExpiresWithin(now time.Time, d time.Duration) bool {
	return c.HasExpiry() && c.ExpiresAt.Sub(now) <= d
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims reads the claims of a bearer token without verifying its
// signature. This is only used for display; the backend verifies the token
// on every request.
func ParseClaims(token string) (*Claims, error) {
	var tc tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &tc); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrOpaqueToken
		}
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	c := &Claims{Subject: tc.Subject, Email: tc.Email}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}

// Describe returns a short human-readable expiry description for status output
func Describe(token string, now time.Time) string {
	claims, err := ParseClaims(token)
	if err != nil {
		return "expiry unknown"
	}
	switch {
	case !claims.HasExpiry():
		return "no expiry"
	case claims.IsExpired(now):
		return fmt.Sprintf("expired %s ago", now.Sub(claims.ExpiresAt).Round(time.Second))
	case claims.ExpiresWithin(now, ExpiryBuffer):
		return fmt.Sprintf("expires soon (in %s)", claims.ExpiresAt.Sub(now).Round(time.Second))
	default:
		return fmt.Sprintf("expires in %s", claims.ExpiresAt.Sub(now).Round(time.Second))
	}
}
