// Package credential mints the short-lived signed token proving "this
// browser just completed provider verification". It is deliberately not
// a session: the cookie expires on its own and is never refreshed.
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/AraBlocks/ara.team/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredential = errors.New("invalid verification credential")

// Claims is the identity subset carried by the credential token.
type Claims struct {
	jwt.RegisteredClaims

	Provider      string  `json:"provider"`
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Handle        *string `json:"handle,omitempty"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
}

// Issuer signs credentials with the process secret. TTL is explicit
// configuration: long enough for the application to read the result
// once, short enough that it cannot serve as a login session.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetNow overrides the time source (for testing).
func (i *Issuer) SetNow(fn func() time.Time) {
	i.now = fn
}

// TTL returns the configured credential lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a credential for a verified identity.
func (i *Issuer) Issue(identity *auth.Identity) (string, error) {
	if err := identity.Validate(); err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ExternalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Provider:      identity.Provider,
		Name:          identity.Name,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		Handle:        identity.Handle,
		AvatarURL:     identity.AvatarURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// Parse validates a credential token and returns its claims. Expired or
// tampered tokens fail with ErrInvalidCredential.
func (i *Issuer) Parse(value string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		value,
		&claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	return &claims, nil
}
