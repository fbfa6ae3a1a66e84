package orgs

import (
	"context"
	"regexp"
	"time"

	"github.com/platinummonkey/dataspace/pkg/auth"
)

// Confidentiality is the visibility tier of an organization or space.
type Confidentiality string

const (
	ConfidentialityPublic   Confidentiality = "public"
	ConfidentialityInternal Confidentiality = "internal"
	ConfidentialityPrivate  Confidentiality = "private"
)

// Valid reports whether c is a known confidentiality tier.
func (c Confidentiality) Valid() bool {
	switch c {
	case ConfidentialityPublic, ConfidentialityInternal, ConfidentialityPrivate:
		return true
	}
	return false
}

// Capability tags a space with a downstream domain that is active for it.
type Capability string

const (
	CapabilityStorage  Capability = "storage"
	CapabilityMetadata Capability = "metadata"
	CapabilityAnalysis Capability = "analysis"
)

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityStorage, CapabilityMetadata, CapabilityAnalysis:
		return true
	}
	return false
}

// SyncStatus tracks context propagation of the entity's last mutation.
// Transitions: persisted -> propagating -> propagated | partially_propagated.
type SyncStatus string

const (
	SyncStatusPersisted   SyncStatus = "persisted"
	SyncStatusPropagating SyncStatus = "propagating"
	SyncStatusPropagated  SyncStatus = "propagated"
	SyncStatusPartial     SyncStatus = "partially_propagated"
)

// Organization is a tenant root entity. Its name is unique across the system
// and doubles as the identifier in all downstream context services.
type Organization struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Confidentiality Confidentiality `json:"confidentiality"`
	Owners          []string        `json:"owners"`
	SyncStatus      SyncStatus      `json:"sync_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AccessRef projects the organization into the view the permission policy
// evaluates against.
func (o *Organization) AccessRef() auth.OrganizationRef {
	return auth.OrganizationRef{
		Name:   o.Name,
		Public: o.Confidentiality == ConfidentialityPublic,
		Owners: o.Owners,
	}
}

// Space belongs to exactly one organization. The organization reference is
// immutable after creation; deleting the organization destroys the space.
type Space struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	Name            string          `json:"name"`
	Confidentiality Confidentiality `json:"confidentiality"`
	Capabilities    []Capability    `json:"capabilities"`
	Owners          []string        `json:"owners"`
	SyncStatus      SyncStatus      `json:"sync_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AccessRef projects the space into the view the permission policy evaluates
// against.
func (s *Space) AccessRef() auth.SpaceRef {
	return auth.SpaceRef{Name: s.Name, Owners: s.Owners}
}

// HasCapability reports whether the space declares the capability.
func (s *Space) HasCapability(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used to capture pre-update snapshots.
func (s *Space) Clone() *Space {
	dup := *s
	dup.Capabilities = append([]Capability(nil), s.Capabilities...)
	dup.Owners = append([]string(nil), s.Owners...)
	return &dup
}

var (
	orgNamePattern   = regexp.MustCompile(`^[a-z0-9]{3,24}$`)
	spaceNamePattern = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)
)

// ValidateOrganizationName checks the organization name charset and length.
func ValidateOrganizationName(name string) error {
	if !orgNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Message: "organization names must match [a-z0-9]{3,24}"}
	}
	return nil
}

// ValidateSpaceName checks the space name charset and length.
func ValidateSpaceName(name string) error {
	if !spaceNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Message: "space names must match [a-z0-9-]{3,63}"}
	}
	return nil
}

// Store is the persistence collaborator for organizations and spaces. It is a
// synchronous CRUD interface; single-record reads observe preceding writes.
type Store interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (*Organization, error)
	ListOrganizations(ctx context.Context) ([]*Organization, error)
	ListOrganizationsBySyncStatus(ctx context.Context, status SyncStatus) ([]*Organization, error)
	UpdateOrganization(ctx context.Context, org *Organization) error
	DeleteOrganization(ctx context.Context, id string) error
	SetOrganizationSyncStatus(ctx context.Context, id string, status SyncStatus) error

	CreateSpace(ctx context.Context, space *Space) error
	GetSpace(ctx context.Context, id string) (*Space, error)
	GetSpaceByName(ctx context.Context, organizationID, name string) (*Space, error)
	ListSpaces(ctx context.Context, organizationID string) ([]*Space, error)
	ListSpacesBySyncStatus(ctx context.Context, status SyncStatus) ([]*Space, error)
	UpdateSpace(ctx context.Context, space *Space) error
	DeleteSpace(ctx context.Context, id string) error
	SetSpaceSyncStatus(ctx context.Context, id string, status SyncStatus) error
}
