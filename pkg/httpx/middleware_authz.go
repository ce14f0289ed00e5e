package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyRole guards a route: the caller must hold at least one of the
// listed roles. Runs after AuthnMiddleware; a request with no user in the
// context reads as unauthenticated.
func RequireAnyRole(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusForbidden, "not_authenticated", "missing bearer token")
				return
			}

			if err := user.RequireAnyRole(required...); err != nil {
				writeBearerRoleError(w, required...)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for bearer insufficient_scope. The body
// names the roles that would have satisfied the guard.
func writeBearerRoleError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_scope",
		"required roles: "+strings.Join(required, ", "))
}
