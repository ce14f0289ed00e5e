package httpx

import (
	"context"

	"github.com/docbrief/docbrief/pkg/oidc"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user oidc.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFromContext returns the user placed in the context by AuthnMiddleware.
func UserFromContext(ctx context.Context) (oidc.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(oidc.User)
	return user, ok
}
