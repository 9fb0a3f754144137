package common

import "context"

type userIDKey struct{}

// WithUserID stores the authenticated user's id on the context. Handlers
// downstream of the auth middleware read it back with UserID.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID reports the authenticated user id, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
