// Package middleware provides HTTP middleware for authentication and rate
// limiting.
//
// The auth middleware parses the bearer token carried by each request,
// derives an access view from its role claims, and stores the view on the
// request context. Nothing derived from the token is cached between
// requests; handlers read the view via GetAccessView.
//
// Two rate limiter variants exist: an in-memory token bucket for single
// instance deployments and a Redis-backed fixed window for multi-instance
// deployments. Both key authenticated requests by subject and anonymous
// requests by client IP, and the Redis variant fails open when Redis is
// unreachable.
//
// Usage:
//
//	authMW := middleware.NewAuthMiddleware(nil, false)
//	rateMW := middleware.NewRateLimitMiddleware(metrics)
//	router.Use(authMW.Handler, rateMW.Handler)
package middleware
