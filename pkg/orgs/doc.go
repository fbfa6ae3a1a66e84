// Package orgs defines the Organization and Space entities, their validation
// rules, the typed error taxonomy shared across the service, and the Store
// persistence interface with its PostgreSQL and in-memory implementations.
//
// Organization names are globally unique and double as the entity identifier
// in downstream context services; a space's organization reference is
// immutable after creation. Role records never appear here: permissions are
// derived per request from the credential (see pkg/auth) and are not
// persisted as first-class entities.
package orgs
