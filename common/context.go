package common

import "context"

type contextKey string

const ContextUserIDKey contextKey = "userID"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id set by the auth middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextUserIDKey).(string)
	return userID, ok && userID != ""
}

// RequestUser lets outer middleware learn who made the request once the auth
// layer has run.
type RequestUser struct {
	ID string
}

type requestUserKey struct{}

func WithRequestUser(ctx context.Context, u *RequestUser) context.Context {
	return context.WithValue(ctx, requestUserKey{}, u)
}

func RequestUserFromContext(ctx context.Context) *RequestUser {
	u, _ := ctx.Value(requestUserKey{}).(*RequestUser)
	return u
}
