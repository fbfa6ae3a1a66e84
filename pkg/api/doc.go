// Package api exposes the organization and space lifecycle over HTTP.
//
// Handlers are thin: they parse the request, pull the caller's access view
// off the context, call the tenancy service, and map its typed errors onto
// status codes. Validation failures map to 400, authorization failures to
// 403, unknown entities to 404, duplicates and cross-entity mismatches to
// 409, and downstream propagation failures to 502. A 502 response still
// carries the persisted entity in the body so callers can observe its
// partially_propagated sync status and retry via the resync endpoint.
package api
