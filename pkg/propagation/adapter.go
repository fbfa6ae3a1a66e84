package propagation

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/dataspace/pkg/orgs"
)

// Adapter is implemented once per downstream context service. The
// synchronizer consults the relevance predicates before every context call;
// an adapter is never invoked for an entity it is not relevant to.
type Adapter interface {
	// Name identifies the adapter in errors, logs and metrics.
	Name() string

	// RelevantForOrganization reports whether organization lifecycle events
	// concern this adapter.
	RelevantForOrganization(org *orgs.Organization) bool

	// RelevantForSpace reports whether space lifecycle events for the given
	// space concern this adapter.
	RelevantForSpace(space *orgs.Space) bool

	CreateOrganizationContext(ctx context.Context, org *orgs.Organization) error
	UpdateOrganizationContext(ctx context.Context, org *orgs.Organization) error
	DeleteOrganizationContext(ctx context.Context, org *orgs.Organization) error

	CreateSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error
	// UpdateSpaceContext receives both snapshots so adapters can react to
	// transitions; adapters that do not care about deltas ignore before.
	UpdateSpaceContext(ctx context.Context, org *orgs.Organization, before, after *orgs.Space) error
	DeleteSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error

	// SyncOrganizationContext and SyncSpaceContext reconcile the downstream
	// with the current entity state, whatever lifecycle event the failed run
	// was driving. Resync uses these instead of the create operations: a
	// downstream that already holds a stale context must end up with the
	// current payload, not an "already exists" no-op.
	SyncOrganizationContext(ctx context.Context, org *orgs.Organization) error
	SyncSpaceContext(ctx context.Context, org *orgs.Organization, space *orgs.Space) error
}

// AdapterError tags a downstream failure with the adapter and operation that
// raised it. It surfaces to API callers as a gateway-type failure: the
// persisted entity change stands, and re-issuing the mutation re-drives
// propagation.
type AdapterError struct {
	Adapter string
	Op      string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %s failed: %v", e.Adapter, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// AsAdapterError extracts an AdapterError from err, if present.
func AsAdapterError(err error) (*AdapterError, bool) {
	var target *AdapterError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
