package propagation

import (
	"context"

	"github.com/platinummonkey/dataspace/pkg/orgs"
)

// StorageAdapter keeps the storage service in step with entity lifecycle.
// Organization-level storage context is provisioned eagerly for every
// organization; space-level context only exists for spaces declaring one of
// the capabilities this adapter manages.
type StorageAdapter struct {
	restAdapter
	managed map[orgs.Capability]bool
}

// NewStorageAdapter creates the storage adapter. With no explicit
// capabilities it manages the storage capability.
func NewStorageAdapter(client *Client, capabilities ...orgs.Capability) *StorageAdapter {
	if len(capabilities) == 0 {
		capabilities = []orgs.Capability{orgs.CapabilityStorage}
	}
	managed := make(map[orgs.Capability]bool, len(capabilities))
	for _, c := range capabilities {
		managed[c] = true
	}
	return &StorageAdapter{
		restAdapter: restAdapter{name: "storage", client: client},
		managed:     managed,
	}
}

// RelevantForSpace reports whether the space declares any managed capability.
func (a *StorageAdapter) RelevantForSpace(space *orgs.Space) bool {
	for _, c := range space.Capabilities {
		if a.managed[c] {
			return true
		}
	}
	return false
}

// UpdateSpaceContext reacts to capability transitions rather than blindly
// updating: a space that newly gained a managed capability gets a remote
// create, one that lost its last managed capability gets a remote delete,
// and only a space relevant in both snapshots gets a plain update.
func (a *StorageAdapter) UpdateSpaceContext(ctx context.Context, org *orgs.Organization, before, after *orgs.Space) error {
	wasRelevant := a.RelevantForSpace(before)
	isRelevant := a.RelevantForSpace(after)

	switch {
	case !wasRelevant && isRelevant:
		return a.CreateSpaceContext(ctx, org, after)
	case wasRelevant && !isRelevant:
		return a.DeleteSpaceContext(ctx, org, before)
	case wasRelevant && isRelevant:
		return a.restAdapter.UpdateSpaceContext(ctx, org, before, after)
	default:
		return nil
	}
}

// SyncSpaceContext reconciles against the current capability set. A space
// without a managed capability gets its remote context torn down: the failed
// run may have been the update that removed the capability, leaving the
// storage service holding context it should no longer have. The delete
// tolerates a remote 404, so spaces that never had storage context pass
// through unchanged.
func (a *StorageAdapter) SyncSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	if !a.RelevantForSpace(space) {
		return a.DeleteSpaceContext(ctx, org, space)
	}
	return a.restAdapter.SyncSpaceContext(ctx, org, space)
}
