// Package propagation keeps the downstream context services (identity,
// metadata, storage) consistent with organization and space lifecycle events.
//
// A Synchronizer holds an ordered list of Adapters and invokes them
// sequentially for each mutation. The ordering is a policy, not an accident:
// the identity service provisions roles the other services implicitly depend
// on, so it always runs first, followed by metadata, then storage. The first
// adapter failure aborts the run (remaining adapters are not invoked) and
// surfaces as an AdapterError; the persisted entity is never rolled back.
// Callers repair inconsistency by re-driving propagation, which is safe
// because adapter calls are idempotent: retried creates tolerate remote
// conflicts and retried deletes tolerate absence.
//
// Adapters are gated by relevance predicates before every call. Identity and
// metadata manage cross-cutting state and are relevant to everything; the
// storage adapter only cares about spaces whose capability set intersects the
// capabilities it manages.
package propagation
