package oidc_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docbrief/docbrief/pkg/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testRealm    = "docbrief"
	testClientID = "docbrief-api"
)

// testKeypair is an RSA keypair plus the kid it's published under.
type testKeypair struct {
	kid  string
	priv *rsa.PrivateKey
}

func newTestKeypair(t *testing.T, kid string) testKeypair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return testKeypair{kid: kid, priv: priv}
}

// jwksServer fakes the provider's key endpoint. The served key set can be
// swapped at runtime to simulate key rotation, and fetches are counted so
// tests can assert on refresh behavior.
type jwksServer struct {
	srv     *httptest.Server
	keys    atomic.Value // oidc.JWKS
	fetches atomic.Int64
	fail    atomic.Bool
}

func newJWKSServer(t *testing.T, pairs ...testKeypair) *jwksServer {
	t.Helper()

	js := &jwksServer{}
	js.SetKeys(pairs...)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /realms/"+testRealm+"/protocol/openid-connect/certs",
		func(w http.ResponseWriter, r *http.Request) {
			js.fetches.Add(1)
			if js.fail.Load() {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(js.keys.Load())
		})

	js.srv = httptest.NewServer(mux)
	t.Cleanup(js.srv.Close)
	return js
}

func (js *jwksServer) SetKeys(pairs ...testKeypair) {
	jwks := oidc.JWKS{}
	for _, p := range pairs {
		jwks.Keys = append(jwks.Keys, oidc.NewRSAJWK(p.kid, &p.priv.PublicKey))
	}
	js.keys.Store(jwks)
}

func (js *jwksServer) Provider() oidc.Provider {
	return oidc.Provider{
		ServerURL: js.srv.URL,
		Realm:     testRealm,
		ClientID:  testClientID,
	}
}

// signToken mints an RS256 token with sensible defaults merged with extra.
func signToken(t *testing.T, pair testKeypair, issuer string, extra jwt.MapClaims) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                issuer,
		"sub":                "user-1",
		"aud":                testClientID,
		"iat":                now.Unix(),
		"exp":                now.Add(5 * time.Minute).Unix(),
		"preferred_username": "alice",
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = pair.kid

	signed, err := token.SignedString(pair.priv)
	require.NoError(t, err)
	return signed
}
