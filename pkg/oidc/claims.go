package oidc

import (
	"context"
	"errors"
)

// TokenVerifier checks a raw bearer token and gives you back the claims if
// it's legit. Both the local Validator and the remote Introspector implement
// it, so the rest of the service never cares which mode is configured.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, unresolvable
	// key ids, and audience/issuer mismatches. Always a 401 at the boundary.
	ErrInvalidToken = errors.New("oidc: invalid token")

	// ErrExpiredToken is kept distinct from ErrInvalidToken so clients know
	// to refresh rather than re-derive credentials.
	ErrExpiredToken = errors.New("oidc: token expired")

	// ErrProviderUnavailable means the identity provider couldn't be reached
	// and no cached fallback exists. Maps to 503.
	ErrProviderUnavailable = errors.New("oidc: identity provider unavailable")
)

// Claims is the decoded, verified claim set of a token. It's the raw claim
// map with typed accessors on top; produced fresh per request and never
// persisted.
type Claims map[string]any

func (c Claims) str(key string) string {
	s, _ := c[key].(string)
	return s
}

// Subject returns the "sub" claim.
func (c Claims) Subject() string { return c.str("sub") }

// PreferredUsername returns the "preferred_username" claim.
func (c Claims) PreferredUsername() string { return c.str("preferred_username") }

// Email returns the "email" claim.
func (c Claims) Email() string { return c.str("email") }

// Issuer returns the "iss" claim.
func (c Claims) Issuer() string { return c.str("iss") }

// Groups returns the flat "groups" claim list, or nil if absent.
func (c Claims) Groups() []string {
	return stringList(c["groups"])
}

// RealmRoles returns the realm-wide role list at realm_access.roles.
func (c Claims) RealmRoles() []string {
	access, ok := c["realm_access"].(map[string]any)
	if !ok {
		return nil
	}
	return stringList(access["roles"])
}

// ResourceRoles returns the role list nested under the given client id
// within resource_access.
func (c Claims) ResourceRoles(clientID string) []string {
	access, ok := c["resource_access"].(map[string]any)
	if !ok {
		return nil
	}
	client, ok := access[clientID].(map[string]any)
	if !ok {
		return nil
	}
	return stringList(client["roles"])
}

// stringList coerces a decoded JSON array into []string, skipping anything
// that isn't a string. JSON decoding hands us []any, so this shows up a lot.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
