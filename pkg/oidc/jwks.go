package oidc

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
)

// JWK is one entry of the provider's published key set (RFC 7517). We only
// carry the RSA fields because verification is pinned to RS256; keys of any
// other type are skipped at parse time.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`

	// RSA public key material (base64url)
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

// JWKS is a JSON Web Key Set as served by the provider's certs endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

var errNotRSA = errors.New("oidc: not an RSA key")

// PublicKey reconstructs the *rsa.PublicKey from the JWK's modulus and
// exponent.
func (j JWK) PublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, errNotRSA
	}

	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nb)
	e := new(big.Int).SetBytes(eb).Int64()
	return &rsa.PublicKey{N: n, E: int(e)}, nil
}

// NewRSAJWK builds a JWK for an RSA public key. Mainly useful for tests that
// stand up a fake key endpoint.
func NewRSAJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kid: kid,
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// parseJWKS converts a fetched JWKS into a kid-indexed map of usable crypto
// keys. Non-RSA or malformed entries are skipped rather than failing the
// whole set.
func parseJWKS(jwks JWKS) map[string]*rsa.PublicKey {
	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" {
			continue
		}
		pub, err := j.PublicKey()
		if err != nil {
			continue
		}
		keys[j.Kid] = pub
	}
	return keys
}
