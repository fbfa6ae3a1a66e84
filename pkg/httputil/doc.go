// Package httputil provides HTTP helpers shared by the API handlers.
//
// # Overview
//
// This package offers JSON encoding/decoding, standardized error responses,
// path and query parameter parsing, and the middleware the API server mounts
// on every route.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, organization)
//	httputil.WriteSuccess(w, spaces)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "Invalid organization name")
//	httputil.WriteUnauthorized(w, "Token expired")
//	httputil.WriteForbidden(w, "Insufficient permissions")
//	httputil.WriteConflict(w, "Organization already exists")
//	httputil.WriteBadGateway(w, "identity: create organization context failed")
//
// # Request Parsing
//
// JSON bodies:
//
//	var req CreateOrganizationRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters (gorilla/mux route variables):
//
//	name, ok := httputil.ParsePathStringOrError(w, r, "organization")
//	if !ok {
//		return
//	}
//
// Query parameters:
//
//	level := httputil.ParseQueryString(r, "permission", "read")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.ContentTypeMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication and rate limiting middleware
package httputil
