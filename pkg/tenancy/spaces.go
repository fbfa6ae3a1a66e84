package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/dataspace/pkg/auth"
	"github.com/platinummonkey/dataspace/pkg/orgs"
)

// CreateSpaceRequest carries the caller-supplied space fields.
type CreateSpaceRequest struct {
	Name            string               `json:"name"`
	Confidentiality orgs.Confidentiality `json:"confidentiality"`
	Capabilities    []orgs.Capability    `json:"capabilities"`
	Owners          []string             `json:"owners"`
}

// UpdateSpaceRequest carries the mutable space fields. Organization and
// OrganizationID are accepted only so stale clients can be rejected
// explicitly: a space never moves between organizations.
type UpdateSpaceRequest struct {
	Organization    string               `json:"organization,omitempty"`
	OrganizationID  string               `json:"organization_id,omitempty"`
	Confidentiality orgs.Confidentiality `json:"confidentiality"`
	Capabilities    []orgs.Capability    `json:"capabilities"`
	Owners          []string             `json:"owners"`
}

// CreateSpace validates and persists a new space under the named organization,
// then drives context propagation. Admin-or-owner of the organization gated.
func (s *Service) CreateSpace(ctx context.Context, view auth.AccessView, orgName string, req CreateSpaceRequest) (*orgs.Space, error) {
	org, err := s.store.GetOrganizationByName(ctx, orgName)
	if err != nil {
		return nil, err
	}
	if !auth.IsAdminOrOwner(view, org.AccessRef()) {
		return nil, &orgs.AuthorizationError{Message: "not permitted to create spaces in organization " + orgName}
	}

	if err := orgs.ValidateSpaceName(req.Name); err != nil {
		return nil, err
	}
	if !req.Confidentiality.Valid() {
		return nil, &orgs.ValidationError{Field: "confidentiality", Message: "must be public, internal or private"}
	}
	for _, c := range req.Capabilities {
		if !c.Valid() {
			return nil, &orgs.ValidationError{Field: "capabilities", Message: "unknown capability " + string(c)}
		}
	}

	now := time.Now().UTC()
	space := &orgs.Space{
		ID:              uuid.NewString(),
		OrganizationID:  org.ID,
		Name:            req.Name,
		Confidentiality: req.Confidentiality,
		Capabilities:    req.Capabilities,
		Owners:          withOwner(req.Owners, view.Subject),
		SyncStatus:      orgs.SyncStatusPersisted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateSpace(ctx, space); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization": org.Name,
		"space":        space.Name,
		"subject":      view.Subject,
	}).Info("space created")

	if err := s.sync.CreateSpaceContexts(ctx, org, space); err != nil {
		return space, err
	}
	return space, nil
}

// GetSpace returns the named space if the view can access its organization or
// is a space admin-or-owner.
func (s *Service) GetSpace(ctx context.Context, view auth.AccessView, orgName, spaceName string) (*orgs.Space, error) {
	org, space, err := s.lookupSpace(ctx, orgName, spaceName)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessOrganization(view, org.AccessRef()) &&
		!auth.IsSpaceAdminOrOwner(view, org.AccessRef(), space.AccessRef()) {
		return nil, &orgs.AuthorizationError{Message: "not permitted to access space " + spaceName}
	}
	return space, nil
}

// ListSpaces returns the organization's spaces the view can reach at the given
// permission level. Organization admins and owners see all of them; everyone
// else sees the spaces their roles name, plus the spaces they own.
func (s *Service) ListSpaces(ctx context.Context, view auth.AccessView, orgName string, level auth.PermissionLevel) ([]*orgs.Space, error) {
	org, err := s.store.GetOrganizationByName(ctx, orgName)
	if err != nil {
		return nil, err
	}

	all, err := s.store.ListSpaces(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	if auth.IsAdminOrOwner(view, org.AccessRef()) {
		return all, nil
	}

	permitted := make(map[string]bool)
	for _, name := range auth.SpacesByPermission(view, org.Name, level) {
		permitted[name] = true
	}

	var visible []*orgs.Space
	for _, space := range all {
		if permitted[space.Name] || auth.IsOwner(view.Subject, space.Owners) {
			visible = append(visible, space)
		}
	}
	return visible, nil
}

// UpdateSpace applies the mutable fields and re-drives propagation. The
// pre-update snapshot travels to the adapters so capability transitions map to
// remote creates and deletes. Space admin-or-owner gated.
func (s *Service) UpdateSpace(ctx context.Context, view auth.AccessView, orgName, spaceName string, req UpdateSpaceRequest) (*orgs.Space, error) {
	org, space, err := s.lookupSpace(ctx, orgName, spaceName)
	if err != nil {
		return nil, err
	}
	if !auth.IsSpaceAdminOrOwner(view, org.AccessRef(), space.AccessRef()) {
		return nil, &orgs.AuthorizationError{Message: "not permitted to update space " + spaceName}
	}

	if req.Organization != "" && req.Organization != org.Name {
		return nil, &orgs.AuthorizationError{Message: "spaces cannot move between organizations"}
	}
	if req.OrganizationID != "" && req.OrganizationID != space.OrganizationID {
		return nil, &orgs.ConflictError{Message: "space belongs to a different organization"}
	}
	if !req.Confidentiality.Valid() {
		return nil, &orgs.ValidationError{Field: "confidentiality", Message: "must be public, internal or private"}
	}
	for _, c := range req.Capabilities {
		if !c.Valid() {
			return nil, &orgs.ValidationError{Field: "capabilities", Message: "unknown capability " + string(c)}
		}
	}

	before := space.Clone()
	space.Confidentiality = req.Confidentiality
	space.Capabilities = req.Capabilities
	if req.Owners != nil {
		space.Owners = withOwner(req.Owners, view.Subject)
	}
	space.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSpace(ctx, space); err != nil {
		return nil, err
	}

	if err := s.sync.UpdateSpaceContexts(ctx, org, before, space); err != nil {
		return space, err
	}
	return space, nil
}

// DeleteSpace tears down the space's downstream contexts and removes the row.
// Space admin-or-owner gated.
func (s *Service) DeleteSpace(ctx context.Context, view auth.AccessView, orgName, spaceName string) error {
	org, space, err := s.lookupSpace(ctx, orgName, spaceName)
	if err != nil {
		return err
	}
	if !auth.IsSpaceAdminOrOwner(view, org.AccessRef(), space.AccessRef()) {
		return &orgs.AuthorizationError{Message: "not permitted to delete space " + spaceName}
	}

	if err := s.sync.DeleteSpaceContexts(ctx, org, space); err != nil {
		return err
	}
	if err := s.store.DeleteSpace(ctx, space.ID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"organization": org.Name,
		"space":        space.Name,
		"subject":      view.Subject,
	}).Info("space deleted")
	return nil
}

func (s *Service) lookupSpace(ctx context.Context, orgName, spaceName string) (*orgs.Organization, *orgs.Space, error) {
	org, err := s.store.GetOrganizationByName(ctx, orgName)
	if err != nil {
		return nil, nil, err
	}
	space, err := s.store.GetSpaceByName(ctx, org.ID, spaceName)
	if err != nil {
		return nil, nil, err
	}
	return org, space, nil
}
