package discord

import (
	"encoding/json"
	"fmt"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
)

const (
	providerID = "discord"

	authURL    = "https://discord.com/api/oauth2/authorize"
	tokenURL   = "https://discord.com/api/oauth2/token"
	profileURL = "https://discord.com/api/users/@me"

	avatarCDN = "https://cdn.discordapp.com/avatars"
)

// New builds the Discord provider config.
func New(clientID, clientSecret string) *provider.Config {
	return &provider.Config{
		ID:           providerID,
		Dialect:      provider.DialectOAuth2,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		ProfileURL:   profileURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"identify", "email"},
		Map:          mapProfile,
	}
}

func mapProfile(raw []byte) (*auth.Identity, error) {
	var payload struct {
		ID            string  `json:"id"`
		Username      string  `json:"username"`
		Discriminator string  `json:"discriminator"`
		Email         *string `json:"email"`
		Verified      *bool   `json:"verified"`
		Avatar        *string `json:"avatar"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("discord profile parse failed: %w", err)
	}
	if payload.ID == "" {
		return nil, auth.ErrIncompleteIdentity
	}

	identity := &auth.Identity{
		Provider:      providerID,
		ExternalID:    payload.ID,
		Email:         payload.Email,
		EmailVerified: payload.Verified,
	}

	if payload.Username != "" {
		name := payload.Username
		identity.Name = &name

		// Accounts migrated to unique usernames report discriminator "0".
		handle := payload.Username
		if payload.Discriminator != "" && payload.Discriminator != "0" {
			handle = payload.Username + "#" + payload.Discriminator
		}
		identity.Handle = &handle
	}

	if payload.Avatar != nil && *payload.Avatar != "" {
		avatar := fmt.Sprintf("%s/%s/%s.png", avatarCDN, payload.ID, *payload.Avatar)
		identity.AvatarURL = &avatar
	}

	return identity, nil
}
