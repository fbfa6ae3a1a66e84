// Package auth derives structured authorization views from the opaque role
// strings carried in a request credential, and answers permission queries
// against organizations and spaces.
//
// # Role grammar
//
// Two role shapes are recognized:
//
//	org_<organization>_<access|admin>              organization-scoped
//	<organization>_<space>_<user|supplier|trustee> space-scoped
//
// Organization names match [a-z0-9]{3,24}, space names [a-z0-9-]{3,63}.
// Anything else in the credential is ignored; credentials routinely carry
// roles that belong to other systems.
//
// # Usage
//
//	view := auth.BuildView(auth.Credential{Subject: sub, Roles: roles})
//	if !auth.CanAccessOrganization(view, org.AccessRef()) {
//		// translate into an authorization failure at the service layer
//	}
//
// Views are plain values built once per request. They are never cached or
// persisted: the credential can change between requests for the same subject.
//
// None of the predicates in this package return errors. "No access" is false
// or an empty set; the calling service layer decides whether that is a hard
// failure.
package auth
