package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Validator verifies bearer tokens locally against the provider's published
// signing keys. No network round trip on the happy path; only a stale or
// missing key reaches out to the provider.
//
// The accepted algorithm is pinned to RS256. A token declaring "none", an
// HMAC alg, or anything else the realm doesn't sign with is rejected before
// signature verification even runs — accepting attacker-chosen algorithms is
// how key-confusion forgeries happen.
type Validator struct {
	provider Provider
	keys     *KeyCache

	verifyAudience bool
	verifyIssuer   bool
}

// NewValidator builds a local validator. The audience and issuer checks
// default to on in config and should only be disabled for development
// setups where tokens are minted for a different client.
func NewValidator(provider Provider, keys *KeyCache, verifyAudience, verifyIssuer bool) *Validator {
	return &Validator{
		provider:       provider,
		keys:           keys,
		verifyAudience: verifyAudience,
		verifyIssuer:   verifyIssuer,
	}
}

var errMissingKID = errors.New("token header missing kid")

// Verify implements TokenVerifier. Failure modes: ErrExpiredToken for a
// token past its exp, ErrProviderUnavailable when a key fetch was needed and
// the provider was unreachable with nothing cached, ErrInvalidToken for
// everything else.
func (v *Validator) Verify(ctx context.Context, rawToken string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.verifyAudience {
		opts = append(opts, jwt.WithAudience(v.provider.ClientID))
	}
	if v.verifyIssuer {
		opts = append(opts, jwt.WithIssuer(v.provider.IssuerURL()))
	}

	parser := jwt.NewParser(opts...)

	token, err := parser.Parse(rawToken, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKID
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unreadable claims", ErrInvalidToken)
	}

	return Claims(claims), nil
}

// classifyTokenError folds the jwt library's error zoo into our taxonomy.
// Expiry stays distinct; a provider outage during the key lookup propagates
// as-is; the rest is an invalid token.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, ErrProviderUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
