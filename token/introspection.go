package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Introspection represents the metadata extracted from an access token. Tokens
// are issued and verified by the server; the client only reads claims to learn
// the subject and the expiry, so the signature is not checked here.
type Introspection struct {
	Subject   string    `json:"sub,omitempty"`   // User's unique ID
	Email     string    `json:"email,omitempty"` // User's email, when present
	IssuedAt  time.Time `json:"iat,omitempty"`   // Issued at time
	ExpiresAt time.Time `json:"exp,omitempty"`   // Expiration
}

// Expired reports whether the token has passed its expiry. Tokens without an
// exp claim are treated as non-expiring.
func (i *Introspection) Expired() bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return NowTimeFunc().After(i.ExpiresAt)
}

// ExpiresWithin reports whether the token expires inside the given window.
func (i *Introspection) ExpiresWithin(window time.Duration) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return NowTimeFunc().Add(window).After(i.ExpiresAt)
}

// Introspect extracts claims from a raw access token without verifying the
// signature
func Introspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	unverifiedToken, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := unverifiedToken.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	introspection := &Introspection{
		Subject: sub,
		Email:   email,
	}
	if iat != 0 {
		introspection.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp != 0 {
		introspection.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return introspection, nil
}
