// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/dataspace/pkg/contextkeys"
//	ctx = contextkeys.WithAccessView(ctx, view)
//	view, ok := contextkeys.GetAccessView(ctx)
package contextkeys

import (
	"context"

	"github.com/platinummonkey/dataspace/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AccessViewKey contains auth.AccessView
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: All protected API endpoints
	// Type: auth.AccessView
	AccessViewKey Key = "access_view"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated subject identifier
	// Set by: Auth middleware after credential parsing
	// Used by: Logger, user-scoped operations
	// Type: string
	UserIDKey Key = "user_id"
)

// WithAccessView adds the request's access view to the context
func WithAccessView(ctx context.Context, view auth.AccessView) context.Context {
	return context.WithValue(ctx, AccessViewKey, view)
}

// GetAccessView retrieves the access view from context
func GetAccessView(ctx context.Context) (auth.AccessView, bool) {
	view, ok := ctx.Value(AccessViewKey).(auth.AccessView)
	return view, ok
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
