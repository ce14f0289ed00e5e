package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/docbrief/docbrief/pkg/oidc"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// AuthnMiddleware verifies the request's bearer token and stashes the
// resulting user in the context. Status mapping:
//
//	no credentials presented -> 403
//	invalid or expired token -> 401 with WWW-Authenticate
//	provider unreachable     -> 503
func AuthnMiddleware(verifier oidc.TokenVerifier, clientID string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				WriteError(w, http.StatusForbidden, "not_authenticated", "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := verifier.Verify(ctx, raw)
			if err != nil {
				switch {
				case errors.Is(err, oidc.ErrProviderUnavailable):
					log.Error("identity provider unavailable", "err", err)
					WriteError(w, http.StatusServiceUnavailable, "temporarily_unavailable",
						"identity provider unavailable")
				case errors.Is(err, oidc.ErrExpiredToken):
					writeBearerError(w, "token expired")
				default:
					log.Warn("token verification failed", "err", err)
					writeBearerError(w, "invalid token")
				}
				return
			}

			user := oidc.ExtractUser(claims, clientID)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, user)))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
