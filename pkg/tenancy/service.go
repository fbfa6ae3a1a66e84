package tenancy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/dataspace/pkg/auth"
	"github.com/platinummonkey/dataspace/pkg/orgs"
	"github.com/platinummonkey/dataspace/pkg/propagation"
)

// Service orchestrates organization and space lifecycle: permission checks,
// persistence, then downstream context propagation.
type Service struct {
	store  orgs.Store
	sync   *propagation.Synchronizer
	logger *logrus.Logger
}

// NewService creates a tenancy Service.
func NewService(store orgs.Store, sync *propagation.Synchronizer, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{store: store, sync: sync, logger: logger}
}

// CreateOrganizationRequest carries the caller-supplied organization fields.
type CreateOrganizationRequest struct {
	Name            string               `json:"name"`
	Confidentiality orgs.Confidentiality `json:"confidentiality"`
	Owners          []string             `json:"owners"`
}

// UpdateOrganizationRequest carries the mutable organization fields. The name
// is deliberately absent: organizations cannot be renamed, their name is the
// identifier in every downstream service.
type UpdateOrganizationRequest struct {
	Confidentiality orgs.Confidentiality `json:"confidentiality"`
	Owners          []string             `json:"owners"`
}

// CreateOrganization validates and persists a new organization, then drives
// context propagation. The creator always ends up in the owner set. When
// propagation stops early the organization is still returned alongside the
// downstream error; its sync status records the partial run.
func (s *Service) CreateOrganization(ctx context.Context, view auth.AccessView, req CreateOrganizationRequest) (*orgs.Organization, error) {
	if err := orgs.ValidateOrganizationName(req.Name); err != nil {
		return nil, err
	}
	if !req.Confidentiality.Valid() {
		return nil, &orgs.ValidationError{Field: "confidentiality", Message: "must be public, internal or private"}
	}

	now := time.Now().UTC()
	org := &orgs.Organization{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Confidentiality: req.Confidentiality,
		Owners:          withOwner(req.Owners, view.Subject),
		SyncStatus:      orgs.SyncStatusPersisted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization": org.Name,
		"subject":      view.Subject,
	}).Info("organization created")

	if err := s.sync.CreateOrganizationContexts(ctx, org); err != nil {
		return org, err
	}
	return org, nil
}

// GetOrganization returns the named organization if the view can access it.
func (s *Service) GetOrganization(ctx context.Context, view auth.AccessView, name string) (*orgs.Organization, error) {
	org, err := s.store.GetOrganizationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessOrganization(view, org.AccessRef()) {
		return nil, &orgs.AuthorizationError{Message: "not permitted to access organization " + name}
	}
	return org, nil
}

// ListOrganizations returns the organizations the view can reach at the given
// permission level. Superusers enumerating at GET level see everything;
// everyone else sees the intersection of their space-derived permissions and
// their explicit organization access roles.
func (s *Service) ListOrganizations(ctx context.Context, view auth.AccessView, level auth.PermissionLevel) ([]*orgs.Organization, error) {
	all, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}

	if level == auth.LevelGet && auth.IsUnrestrictedReader(view) {
		return all, nil
	}

	permitted := make(map[string]bool)
	for _, name := range auth.OrganizationsByPermission(view, level) {
		permitted[name] = true
	}

	var visible []*orgs.Organization
	for _, org := range all {
		if permitted[strings.ToLower(org.Name)] {
			visible = append(visible, org)
		}
	}
	return visible, nil
}

// UpdateOrganization applies the mutable fields and re-drives propagation.
// Admin-or-owner gated.
func (s *Service) UpdateOrganization(ctx context.Context, view auth.AccessView, name string, req UpdateOrganizationRequest) (*orgs.Organization, error) {
	org, err := s.store.GetOrganizationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !auth.IsAdminOrOwner(view, org.AccessRef()) {
		return nil, &orgs.AuthorizationError{Message: "not permitted to update organization " + name}
	}
	if !req.Confidentiality.Valid() {
		return nil, &orgs.ValidationError{Field: "confidentiality", Message: "must be public, internal or private"}
	}

	org.Confidentiality = req.Confidentiality
	if req.Owners != nil {
		org.Owners = withOwner(req.Owners, view.Subject)
	}
	org.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		return nil, err
	}

	if err := s.sync.UpdateOrganizationContexts(ctx, org); err != nil {
		return org, err
	}
	return org, nil
}

// DeleteOrganization removes the organization and all of its spaces. Each
// space's downstream contexts are torn down before the organization context;
// rows disappear only after their contexts did. Admin-or-owner gated.
func (s *Service) DeleteOrganization(ctx context.Context, view auth.AccessView, name string) error {
	org, err := s.store.GetOrganizationByName(ctx, name)
	if err != nil {
		return err
	}
	if !auth.IsAdminOrOwner(view, org.AccessRef()) {
		return &orgs.AuthorizationError{Message: "not permitted to delete organization " + name}
	}

	spaces, err := s.store.ListSpaces(ctx, org.ID)
	if err != nil {
		return err
	}
	for _, space := range spaces {
		if err := s.sync.DeleteSpaceContexts(ctx, org, space); err != nil {
			return err
		}
		if err := s.store.DeleteSpace(ctx, space.ID); err != nil {
			return err
		}
	}

	if err := s.sync.DeleteOrganizationContexts(ctx, org); err != nil {
		return err
	}
	if err := s.store.DeleteOrganization(ctx, org.ID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"organization": org.Name,
		"subject":      view.Subject,
	}).Info("organization deleted")
	return nil
}

// Resync re-drives propagation for an organization stuck in
// partially_propagated, then for any of its spaces in the same state. The
// sync operations carry the current entity state, so downstreams that missed
// an update converge on it and downstreams that never saw the entity get it
// created. Admin-or-owner gated; the background sweeper runs with a superuser
// view.
func (s *Service) Resync(ctx context.Context, view auth.AccessView, name string) error {
	org, err := s.store.GetOrganizationByName(ctx, name)
	if err != nil {
		return err
	}
	if !auth.IsAdminOrOwner(view, org.AccessRef()) {
		return &orgs.AuthorizationError{Message: "not permitted to resync organization " + name}
	}

	if org.SyncStatus == orgs.SyncStatusPartial {
		if err := s.sync.ResyncOrganizationContexts(ctx, org); err != nil {
			return err
		}
	}

	spaces, err := s.store.ListSpaces(ctx, org.ID)
	if err != nil {
		return err
	}
	for _, space := range spaces {
		if space.SyncStatus != orgs.SyncStatusPartial {
			continue
		}
		if err := s.sync.ResyncSpaceContexts(ctx, org, space); err != nil {
			return err
		}
	}
	return nil
}

// ResyncOrganizationEntity re-drives propagation for one organization row.
// Used by the background sweeper, which enumerates stale rows itself.
func (s *Service) ResyncOrganizationEntity(ctx context.Context, org *orgs.Organization) error {
	return s.sync.ResyncOrganizationContexts(ctx, org)
}

// ResyncSpaceEntity re-drives propagation for one space row.
func (s *Service) ResyncSpaceEntity(ctx context.Context, space *orgs.Space) error {
	org, err := s.store.GetOrganization(ctx, space.OrganizationID)
	if err != nil {
		return err
	}
	return s.sync.ResyncSpaceContexts(ctx, org, space)
}

// withOwner returns owners with subject included exactly once.
func withOwner(owners []string, subject string) []string {
	if subject == "" || auth.IsOwner(subject, owners) {
		return owners
	}
	return append(append([]string(nil), owners...), subject)
}
