package twitter

import (
	"testing"

	"github.com/AraBlocks/ara.team/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapProfile(t *testing.T) {
	raw := []byte(`{"data":{"id":"2244994945","name":"Jane Doe","username":"janedoe_123"}}`)

	identity, err := mapProfile(raw)
	require.NoError(t, err)

	assert.Equal(t, "twitter", identity.Provider)
	assert.Equal(t, "2244994945", identity.ExternalID)
	require.NotNil(t, identity.Name)
	assert.Equal(t, "Jane Doe", *identity.Name)
	require.NotNil(t, identity.Handle)
	assert.Equal(t, "janedoe_123", *identity.Handle)

	// The v2 API exposes no email; the field stays unset, not "".
	assert.Nil(t, identity.Email)
	assert.Nil(t, identity.EmailVerified)
}

func TestMapProfileMissingID(t *testing.T) {
	_, err := mapProfile([]byte(`{"data":{"name":"Jane Doe"}}`))
	assert.ErrorIs(t, err, auth.ErrIncompleteIdentity)
}

func TestMapProfileMalformed(t *testing.T) {
	_, err := mapProfile([]byte(`not json`))
	assert.Error(t, err)
}
