package oidc

import (
	"fmt"
	"strings"
)

// User is the normalized identity derived from verified token claims.
// Built once per request by ExtractUser and treated as immutable afterwards.
type User struct {
	// Username is the preferred_username claim, falling back to the subject
	// id when the provider doesn't include one.
	Username string

	// Email is optional and may be empty.
	Email string

	// Roles is the de-duplicated union of realm-wide roles and the roles
	// granted under this service's client id.
	Roles []string

	// Groups is the flat groups claim, empty by default.
	Groups []string

	// Claims keeps the original raw claim set for downstream use.
	Claims Claims
}

// ExtractUser converts verified claims into a User. Pure — absent claims
// degrade to empty or default values, never to an error.
func ExtractUser(claims Claims, clientID string) User {
	username := claims.PreferredUsername()
	if username == "" {
		username = claims.Subject()
	}

	roles := mergeRoles(claims.RealmRoles(), claims.ResourceRoles(clientID))

	groups := claims.Groups()
	if groups == nil {
		groups = []string{}
	}

	return User{
		Username: username,
		Email:    claims.Email(),
		Roles:    roles,
		Groups:   groups,
		Claims:   claims,
	}
}

// mergeRoles unions the role lists, dropping duplicates but keeping first-seen
// order so the result is stable for logging and tests.
func mergeRoles(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, role := range list {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			out = append(out, role)
		}
	}
	return out
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		for _, have := range u.Roles {
			if have == role {
				return true
			}
		}
	}
	return false
}

// RequireAnyRole is the authorization guard: it passes when the user's role
// set intersects the required set (at least one match, not all) and fails
// with an InsufficientRolesError naming the requirement otherwise. An empty
// requirement always passes — authentication alone was the bar.
func (u User) RequireAnyRole(roles ...string) error {
	if len(roles) == 0 || u.HasAnyRole(roles...) {
		return nil
	}
	return &InsufficientRolesError{Required: roles}
}

// InsufficientRolesError reports a valid identity that lacks every required
// role. Maps to 403 at the boundary.
type InsufficientRolesError struct {
	Required []string
}

func (e *InsufficientRolesError) Error() string {
	return fmt.Sprintf("oidc: insufficient permissions, required roles: %s", strings.Join(e.Required, ", "))
}
