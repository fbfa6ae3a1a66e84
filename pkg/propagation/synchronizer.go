package propagation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/dataspace/pkg/observability"
	"github.com/platinummonkey/dataspace/pkg/orgs"
)

// Synchronizer drives context propagation across an ordered list of adapters.
// Within one mutation, adapter calls are strictly sequential and fail fast;
// the ordering (identity, metadata, storage) encodes the dependency of the
// later services on identity-provisioned roles.
type Synchronizer struct {
	adapters []Adapter
	store    orgs.Store
	logger   *logrus.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// NewSynchronizer creates a Synchronizer. Adapters are invoked in the order
// given. metrics may be nil.
func NewSynchronizer(store orgs.Store, logger *logrus.Logger, metrics *observability.Metrics, adapters ...Adapter) *Synchronizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Synchronizer{
		adapters: adapters,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("dataspace/propagation"),
	}
}

// CreateOrganizationContexts propagates a freshly persisted organization.
func (s *Synchronizer) CreateOrganizationContexts(ctx context.Context, org *orgs.Organization) error {
	return s.run(ctx, org.Name, s.organizationStatus(org), adapterCall{
		op:       "create_organization_context",
		relevant: func(a Adapter) bool { return a.RelevantForOrganization(org) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.CreateOrganizationContext(ctx, org) },
	})
}

// UpdateOrganizationContexts propagates an organization update.
func (s *Synchronizer) UpdateOrganizationContexts(ctx context.Context, org *orgs.Organization) error {
	return s.run(ctx, org.Name, s.organizationStatus(org), adapterCall{
		op:       "update_organization_context",
		relevant: func(a Adapter) bool { return a.RelevantForOrganization(org) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.UpdateOrganizationContext(ctx, org) },
	})
}

// DeleteOrganizationContexts tears down the downstream contexts of an
// organization. The caller removes the row afterwards.
func (s *Synchronizer) DeleteOrganizationContexts(ctx context.Context, org *orgs.Organization) error {
	return s.run(ctx, org.Name, s.organizationStatus(org), adapterCall{
		op:       "delete_organization_context",
		relevant: func(a Adapter) bool { return a.RelevantForOrganization(org) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.DeleteOrganizationContext(ctx, org) },
	})
}

// CreateSpaceContexts propagates a freshly persisted space.
func (s *Synchronizer) CreateSpaceContexts(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	return s.run(ctx, org.Name+"/"+space.Name, s.spaceStatus(space), adapterCall{
		op:       "create_space_context",
		relevant: func(a Adapter) bool { return a.RelevantForSpace(space) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.CreateSpaceContext(ctx, org, space) },
	})
}

// UpdateSpaceContexts propagates a space update. An adapter is consulted if
// the space was relevant to it in either snapshot, so an adapter can tear
// down context for a space that just lost its capability.
func (s *Synchronizer) UpdateSpaceContexts(ctx context.Context, org *orgs.Organization, before, after *orgs.Space) error {
	return s.run(ctx, org.Name+"/"+after.Name, s.spaceStatus(after), adapterCall{
		op:       "update_space_context",
		relevant: func(a Adapter) bool { return a.RelevantForSpace(before) || a.RelevantForSpace(after) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.UpdateSpaceContext(ctx, org, before, after) },
	})
}

// ResyncOrganizationContexts re-drives propagation for an organization left
// partially propagated. The sync calls carry the current state, so a
// downstream that already holds a context from before the failed run
// converges on it instead of keeping what that run left behind.
func (s *Synchronizer) ResyncOrganizationContexts(ctx context.Context, org *orgs.Organization) error {
	return s.run(ctx, org.Name, s.organizationStatus(org), adapterCall{
		op:       "sync_organization_context",
		relevant: func(a Adapter) bool { return a.RelevantForOrganization(org) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.SyncOrganizationContext(ctx, org) },
	})
}

// ResyncSpaceContexts re-drives propagation for a space left partially
// propagated. Every adapter is consulted, not just the ones the space is
// currently relevant to: an adapter may still hold context from before the
// failed run and its sync operation decides whether to reconcile or tear down.
func (s *Synchronizer) ResyncSpaceContexts(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	return s.run(ctx, org.Name+"/"+space.Name, s.spaceStatus(space), adapterCall{
		op:       "sync_space_context",
		relevant: func(Adapter) bool { return true },
		invoke:   func(ctx context.Context, a Adapter) error { return a.SyncSpaceContext(ctx, org, space) },
	})
}

// DeleteSpaceContexts tears down the downstream contexts of a space. The
// caller removes the row afterwards.
func (s *Synchronizer) DeleteSpaceContexts(ctx context.Context, org *orgs.Organization, space *orgs.Space) error {
	return s.run(ctx, org.Name+"/"+space.Name, s.spaceStatus(space), adapterCall{
		op:       "delete_space_context",
		relevant: func(a Adapter) bool { return a.RelevantForSpace(space) },
		invoke:   func(ctx context.Context, a Adapter) error { return a.DeleteSpaceContext(ctx, org, space) },
	})
}

type adapterCall struct {
	op       string
	relevant func(Adapter) bool
	invoke   func(context.Context, Adapter) error
}

type statusSetter func(context.Context, orgs.SyncStatus) error

func (s *Synchronizer) organizationStatus(org *orgs.Organization) statusSetter {
	return func(ctx context.Context, status orgs.SyncStatus) error {
		org.SyncStatus = status
		return s.store.SetOrganizationSyncStatus(ctx, org.ID, status)
	}
}

func (s *Synchronizer) spaceStatus(space *orgs.Space) statusSetter {
	return func(ctx context.Context, status orgs.SyncStatus) error {
		space.SyncStatus = status
		return s.store.SetSpaceSyncStatus(ctx, space.ID, status)
	}
}

func (s *Synchronizer) run(ctx context.Context, entity string, setStatus statusSetter, call adapterCall) error {
	ctx, span := s.tracer.Start(ctx, "propagation."+call.op)
	defer span.End()

	if err := setStatus(ctx, orgs.SyncStatusPropagating); err != nil {
		return err
	}

	for _, adapter := range s.adapters {
		if !call.relevant(adapter) {
			continue
		}

		start := time.Now()
		err := call.invoke(ctx, adapter)
		s.observe(adapter.Name(), call.op, start, err)

		if err != nil {
			span.RecordError(err)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"adapter":   adapter.Name(),
				"operation": call.op,
				"entity":    entity,
			}).Error("context propagation failed")

			// The entity stays persisted; the partial status lets the
			// resync sweeper find it later.
			if statusErr := setStatus(ctx, orgs.SyncStatusPartial); statusErr != nil {
				s.logger.WithError(statusErr).WithField("entity", entity).
					Warn("failed to record partial propagation status")
			}
			return err
		}
	}

	return setStatus(ctx, orgs.SyncStatusPropagated)
}

func (s *Synchronizer) observe(adapter, op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.SyncOperationsTotal.WithLabelValues(adapter, op, status).Inc()
	s.metrics.SyncOperationDuration.WithLabelValues(adapter, op).Observe(time.Since(start).Seconds())
}
