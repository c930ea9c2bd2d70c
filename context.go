package pulso

import "context"

type ctxKey struct{ name string }

var userCtxKey = ctxKey{"auth_user"}

// ContextWithUser returns a copy of ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, userCtxKey, usr)
}

// UserFromContext extracts the authenticated user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(userCtxKey).(User)
	return usr, ok
}
