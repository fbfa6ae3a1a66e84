package orgs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for local development and tests. It
// mirrors the PostgresStore's error behavior, including name-collision
// validation errors and not-found reporting.
type MemoryStore struct {
	mu     sync.RWMutex
	orgs   map[string]*Organization // by id
	spaces map[string]*Space        // by id
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:   make(map[string]*Organization),
		spaces: make(map[string]*Space),
	}
}

func (s *MemoryStore) CreateOrganization(_ context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orgs {
		if existing.Name == org.Name {
			return &ValidationError{Field: "name", Message: "organization " + org.Name + " already exists"}
		}
	}
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	s.orgs[org.ID] = cloneOrganization(org)
	return nil
}

func (s *MemoryStore) GetOrganization(_ context.Context, id string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "organization", Key: id}
	}
	return cloneOrganization(org), nil
}

func (s *MemoryStore) GetOrganizationByName(_ context.Context, name string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.orgs {
		if org.Name == name {
			return cloneOrganization(org), nil
		}
	}
	return nil, &NotFoundError{Resource: "organization", Key: name}
}

func (s *MemoryStore) ListOrganizations(_ context.Context) ([]*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		out = append(out, cloneOrganization(org))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListOrganizationsBySyncStatus(_ context.Context, status SyncStatus) ([]*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Organization
	for _, org := range s.orgs {
		if org.SyncStatus == status {
			out = append(out, cloneOrganization(org))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateOrganization(_ context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.orgs[org.ID]
	if !ok {
		return &NotFoundError{Resource: "organization", Key: org.ID}
	}
	updated := cloneOrganization(org)
	updated.Name = existing.Name // renames are forbidden
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.orgs[org.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteOrganization(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[id]; !ok {
		return &NotFoundError{Resource: "organization", Key: id}
	}
	delete(s.orgs, id)
	for spaceID, space := range s.spaces {
		if space.OrganizationID == id {
			delete(s.spaces, spaceID)
		}
	}
	return nil
}

func (s *MemoryStore) SetOrganizationSyncStatus(_ context.Context, id string, status SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return &NotFoundError{Resource: "organization", Key: id}
	}
	org.SyncStatus = status
	org.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) CreateSpace(_ context.Context, space *Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.spaces {
		if existing.OrganizationID == space.OrganizationID && existing.Name == space.Name {
			return &ValidationError{Field: "name", Message: "space " + space.Name + " already exists in this organization"}
		}
	}
	now := time.Now().UTC()
	space.CreatedAt = now
	space.UpdatedAt = now
	s.spaces[space.ID] = space.Clone()
	return nil
}

func (s *MemoryStore) GetSpace(_ context.Context, id string) (*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	space, ok := s.spaces[id]
	if !ok {
		return nil, &NotFoundError{Resource: "space", Key: id}
	}
	return space.Clone(), nil
}

func (s *MemoryStore) GetSpaceByName(_ context.Context, organizationID, name string) (*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, space := range s.spaces {
		if space.OrganizationID == organizationID && space.Name == name {
			return space.Clone(), nil
		}
	}
	return nil, &NotFoundError{Resource: "space", Key: name}
}

func (s *MemoryStore) ListSpaces(_ context.Context, organizationID string) ([]*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Space
	for _, space := range s.spaces {
		if space.OrganizationID == organizationID {
			out = append(out, space.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListSpacesBySyncStatus(_ context.Context, status SyncStatus) ([]*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Space
	for _, space := range s.spaces {
		if space.SyncStatus == status {
			out = append(out, space.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateSpace(_ context.Context, space *Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.spaces[space.ID]
	if !ok {
		return &NotFoundError{Resource: "space", Key: space.ID}
	}
	updated := space.Clone()
	updated.Name = existing.Name
	updated.OrganizationID = existing.OrganizationID // reference is immutable
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.spaces[space.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteSpace(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[id]; !ok {
		return &NotFoundError{Resource: "space", Key: id}
	}
	delete(s.spaces, id)
	return nil
}

func (s *MemoryStore) SetSpaceSyncStatus(_ context.Context, id string, status SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	space, ok := s.spaces[id]
	if !ok {
		return &NotFoundError{Resource: "space", Key: id}
	}
	space.SyncStatus = status
	space.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneOrganization(org *Organization) *Organization {
	dup := *org
	dup.Owners = append([]string(nil), org.Owners...)
	return &dup
}

var _ Store = (*MemoryStore)(nil)
