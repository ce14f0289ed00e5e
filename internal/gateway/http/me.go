package http

import (
	"net/http"

	"github.com/docbrief/docbrief/pkg/httpx"
)

// MeHandler returns the authenticated caller's identity.
type MeHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Get current user
//	@Description	Returns the identity the gateway derived from the caller's token: username, email, roles and groups.
//	@Tags			Identity
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserResponse		"Normalized user identity"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := httpx.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusForbidden, "not_authenticated", "missing bearer token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
		Groups:   user.Groups,
	})
}
