package auth

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the access token payload the client cares about.
type Claims struct {
	UserID         string `json:"_id"`
	OrganizationID string `json:"organizationId,omitempty"`
	EnvironmentID  string `json:"environmentId,omitempty"`
	jwtlib.RegisteredClaims
}

// Inspect decodes the claims of a JWT access token without verifying its
// signature. The client has no signing key; the server remains the authority.
func Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("auth: decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry before now.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.After(c.ExpiresAt.Time)
}
