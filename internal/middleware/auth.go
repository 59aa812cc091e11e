package middleware

import (
	"context"
	"net/http"

	"github.com/AraBlocks/ara.team/internal/credential"
)

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the verified identity claims from context.
func IdentityFromContext(ctx context.Context) (*credential.Claims, bool) {
	claims, ok := ctx.Value(identityKey).(*credential.Claims)
	return claims, ok
}

type VerifiedMiddleware struct {
	Issuer *credential.Issuer
}

func NewVerifiedMiddleware(issuer *credential.Issuer) *VerifiedMiddleware {
	return &VerifiedMiddleware{Issuer: issuer}
}

// RequireVerified admits only requests carrying a valid, unexpired
// verification credential. This is the application-side reader the
// credential is minted for; it never extends the credential's life.
func (m *VerifiedMiddleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(credential.CookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "verification required", http.StatusUnauthorized)
			return
		}

		claims, err := m.Issuer.Parse(cookie.Value)
		if err != nil {
			http.Error(w, "verification required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
