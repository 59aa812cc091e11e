package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	name := "Jane"
	ok := Identity{Provider: "github", ExternalID: "583231", Name: &name}
	assert.NoError(t, ok.Validate())

	noProvider := Identity{ExternalID: "583231"}
	assert.ErrorIs(t, noProvider.Validate(), ErrIncompleteIdentity)

	noID := Identity{Provider: "github"}
	assert.ErrorIs(t, noID.Validate(), ErrIncompleteIdentity)
}

func TestValidateOptionalFieldsMayBeNil(t *testing.T) {
	// Everything beyond the (provider, external id) pair is optional;
	// nil means the provider did not supply it.
	minimal := Identity{Provider: "twitter", ExternalID: "2244994945"}
	assert.NoError(t, minimal.Validate())
}
