package twitter

import (
	"encoding/json"
	"fmt"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
)

// The identifier stays "twitter" despite the X rebrand; it is what the
// provider's OAuth endpoints and registered apps still use.
const (
	providerID = "twitter"

	authURL    = "https://twitter.com/i/oauth2/authorize"
	tokenURL   = "https://api.twitter.com/2/oauth2/token"
	profileURL = "https://api.twitter.com/2/users/me?user.fields=profile_image_url"
)

// New builds the X/Twitter provider config. The OAuth 2.0 dialect
// requires PKCE; no email is available from the v2 API.
func New(clientID, clientSecret string) *provider.Config {
	return &provider.Config{
		ID:           providerID,
		Dialect:      provider.DialectOAuth2,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		ProfileURL:   profileURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"users.read", "tweet.read"},
		UsePKCE:      true,
		Map:          mapProfile,
	}
}

func mapProfile(raw []byte) (*auth.Identity, error) {
	var payload struct {
		Data struct {
			ID              string  `json:"id"`
			Name            *string `json:"name"`
			Username        *string `json:"username"`
			ProfileImageURL *string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("twitter profile parse failed: %w", err)
	}
	if payload.Data.ID == "" {
		return nil, auth.ErrIncompleteIdentity
	}

	return &auth.Identity{
		Provider:   providerID,
		ExternalID: payload.Data.ID,
		Name:       payload.Data.Name,
		Handle:     payload.Data.Username,
		AvatarURL:  payload.Data.ProfileImageURL,
	}, nil
}
