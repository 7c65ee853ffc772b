package httpapi

import (
	"context"

	"github.com/and161185/clinic-keeper/internal/model"
)

type ctxKey string

const userKey ctxKey = "clinic.user"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}
