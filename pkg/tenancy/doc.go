// Package tenancy implements the organization and space lifecycle operations.
//
// Every operation takes the caller's auth.AccessView, built fresh from the
// request credential, and enforces the permission policy before touching the
// store. Mutations persist first and then drive downstream context
// propagation; a downstream failure is reported to the caller but never rolls
// back the persisted entity. Entities left behind by a failed propagation run
// carry the partially_propagated sync status and are picked up by Resync.
package tenancy
