package github

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
)

const (
	providerID = "github"

	authURL    = "https://github.com/login/oauth/authorize"
	tokenURL   = "https://github.com/login/oauth/access_token"
	profileURL = "https://api.github.com/user"
)

// New builds the GitHub provider config. GitHub's dialect is plain
// OAuth 2.0 without PKCE.
func New(clientID, clientSecret string) *provider.Config {
	return &provider.Config{
		ID:           providerID,
		Dialect:      provider.DialectOAuth2,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		ProfileURL:   profileURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"read:user", "user:email"},
		Map:          mapProfile,
	}
}

func mapProfile(raw []byte) (*auth.Identity, error) {
	var payload struct {
		ID    int64   `json:"id"`
		Name  *string `json:"name"`
		Login *string `json:"login"`
		// Often a users.noreply.github.com forwarding address when the
		// user hides their real email. GitHub asserts no verified flag.
		Email     *string `json:"email"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("github profile parse failed: %w", err)
	}
	if payload.ID == 0 {
		return nil, auth.ErrIncompleteIdentity
	}

	return &auth.Identity{
		Provider:   providerID,
		ExternalID: strconv.FormatInt(payload.ID, 10),
		Name:       payload.Name,
		Handle:     payload.Login,
		Email:      payload.Email,
		AvatarURL:  payload.AvatarURL,
	}, nil
}
