package auth

import (
	"context"
)

type contextKey int

const (
	userClaimsKey contextKey = iota
	requestIDKey
)

// SetUserClaims attaches the authenticated caller to ctx.
func SetUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetUserClaims returns nil on routes outside the auth middleware.
func GetUserClaims(ctx context.Context) UserClaims {
	claims, _ := ctx.Value(userClaimsKey).(UserClaims)
	return claims
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
