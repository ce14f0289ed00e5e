package oidc

import "strings"

// Provider describes one identity-provider realm. It's a plain value that
// gets constructed once and passed explicitly to whatever needs it, so tests
// can point it at a fake server.
type Provider struct {
	// ServerURL is the identity provider base URL, e.g. "https://sso.example.com".
	ServerURL string

	// Realm is the realm (tenant) name within the provider.
	Realm string

	// ClientID identifies this service to the provider. It's also the
	// expected audience when audience verification is enabled, and the key
	// under resource_access that client roles are read from.
	ClientID string

	// ClientSecret authenticates this service to the introspection endpoint.
	ClientSecret string
}

// IssuerURL returns the issuer URL for the realm. Tokens minted by the realm
// carry this as their "iss" claim.
func (p Provider) IssuerURL() string {
	return strings.TrimSuffix(p.ServerURL, "/") + "/realms/" + p.Realm
}

// JWKSURL returns the realm's published key set endpoint.
func (p Provider) JWKSURL() string {
	return p.IssuerURL() + "/protocol/openid-connect/certs"
}

// IntrospectURL returns the realm's token introspection endpoint (RFC 7662).
func (p Provider) IntrospectURL() string {
	return p.IssuerURL() + "/protocol/openid-connect/token/introspect"
}
