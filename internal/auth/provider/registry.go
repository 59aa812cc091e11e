package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned for provider identifiers that were
	// never registered.
	ErrUnknownProvider = errors.New("unknown oauth provider")

	// ErrMisconfigured is returned at flow start for providers that are
	// registered without client credentials.
	ErrMisconfigured = errors.New("oauth provider missing client credentials")
)

// Registry holds all configured OAuth providers and allows
// lookup by identifier. It performs no auth logic itself.
type Registry struct {
	providers map[string]*Config
}

// NewRegistry registers the given provider configs by identifier.
// Identifiers must be unique.
func NewRegistry(list ...*Config) *Registry {
	m := make(map[string]*Config)
	for _, p := range list {
		m[p.ID] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider config by identifier.
func (r *Registry) Get(id string) (*Config, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return p, nil
}
