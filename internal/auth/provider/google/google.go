package google

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
	"github.com/AraBlocks/ara.team/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	providerID = "google"
	issuerURL  = "https://accounts.google.com"

	authURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenURL   = "https://oauth2.googleapis.com/token"
	profileURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// New builds the Google provider config. OIDC discovery supplies the
// endpoints and an id_token verifier; when discovery is unreachable the
// config falls back to the published endpoints without verification so
// startup never depends on the network.
func New(ctx context.Context, clientID, clientSecret string) *provider.Config {
	cfg := &provider.Config{
		ID:           providerID,
		Dialect:      provider.DialectOAuth2,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		ProfileURL:   profileURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		UsePKCE:      true,
		Map:          mapProfile,
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		logger.Warn("google oidc discovery unavailable, using static endpoints", map[string]any{
			"error": err.Error(),
		})
		return cfg
	}

	ep := oidcProvider.Endpoint()
	cfg.AuthURL = ep.AuthURL
	cfg.TokenURL = ep.TokenURL
	cfg.IDTokenVerifier = oidcProvider.Verifier(&oidc.Config{ClientID: clientID})

	return cfg
}

func mapProfile(raw []byte) (*auth.Identity, error) {
	var claims struct {
		Sub           string  `json:"sub"`
		Name          *string `json:"name"`
		Email         *string `json:"email"`
		EmailVerified *bool   `json:"email_verified"`
		Picture       *string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("google profile parse failed: %w", err)
	}
	if claims.Sub == "" {
		return nil, auth.ErrIncompleteIdentity
	}

	return &auth.Identity{
		Provider:      providerID,
		ExternalID:    claims.Sub,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		AvatarURL:     claims.Picture,
	}, nil
}
