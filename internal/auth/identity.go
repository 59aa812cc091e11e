package auth

import (
	"encoding/json"
	"errors"
)

// ErrIncompleteIdentity indicates the provider response could not be
// normalized into a usable identity (missing stable user id).
var ErrIncompleteIdentity = errors.New("provider response missing required identity fields")

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
//
// Optional fields are pointers so callers can tell "provider did not
// supply this" apart from an empty value.
type Identity struct {
	Provider   string // e.g. "google", "discord"
	ExternalID string // provider-scoped stable user identifier (sub)

	Name          *string // display name
	Email         *string
	EmailVerified *bool // whether provider asserts email ownership
	Handle        *string // provider's short machine-usable name
	AvatarURL     *string

	// Raw is the provider profile response the identity was derived
	// from, retained for collaborator inspection.
	Raw json.RawMessage
}

// Validate reports whether the identity carries the fields every
// collaborator hook depends on.
func (i *Identity) Validate() error {
	if i.Provider == "" || i.ExternalID == "" {
		return ErrIncompleteIdentity
	}
	return nil
}
