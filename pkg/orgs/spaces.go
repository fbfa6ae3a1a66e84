package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const spaceColumns = `id, organization_id, name, confidentiality, capabilities, owners, sync_status, created_at, updated_at`

// CreateSpace inserts a new space. Uniqueness is per organization.
func (s *PostgresStore) CreateSpace(ctx context.Context, space *Space) error {
	query := `
		INSERT INTO spaces (id, organization_id, name, confidentiality, capabilities, owners, sync_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		space.ID, space.OrganizationID, space.Name, space.Confidentiality,
		pq.Array(capabilityStrings(space.Capabilities)), pq.Array(space.Owners), space.SyncStatus).
		Scan(&space.CreatedAt, &space.UpdatedAt)
	if isUniqueViolation(err) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("space %q already exists in this organization", space.Name)}
	}
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}
	return nil
}

// GetSpace retrieves a space by ID.
func (s *PostgresStore) GetSpace(ctx context.Context, id string) (*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE id = $1`
	return s.scanSpace(s.db.QueryRowContext(ctx, query, id), id)
}

// GetSpaceByName retrieves a space by name within one organization.
func (s *PostgresStore) GetSpaceByName(ctx context.Context, organizationID, name string) (*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE organization_id = $1 AND name = $2`
	return s.scanSpace(s.db.QueryRowContext(ctx, query, organizationID, name), name)
}

// ListSpaces lists the spaces of one organization ordered by name.
func (s *PostgresStore) ListSpaces(ctx context.Context, organizationID string) ([]*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE organization_id = $1 ORDER BY name ASC`
	return s.querySpaces(ctx, query, organizationID)
}

// ListSpacesBySyncStatus lists spaces whose last propagation run left them in
// the given state. Used by the resync sweeper.
func (s *PostgresStore) ListSpacesBySyncStatus(ctx context.Context, status SyncStatus) ([]*Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE sync_status = $1 ORDER BY name ASC`
	return s.querySpaces(ctx, query, status)
}

// UpdateSpace updates the mutable fields of a space. Neither the name nor the
// organization reference appear in the SET clause; both are immutable.
func (s *PostgresStore) UpdateSpace(ctx context.Context, space *Space) error {
	query := `
		UPDATE spaces
		SET confidentiality = $1, capabilities = $2, owners = $3, sync_status = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		space.Confidentiality, pq.Array(capabilityStrings(space.Capabilities)),
		pq.Array(space.Owners), space.SyncStatus, space.ID)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}
	return requireRowAffected(result, "space", space.ID)
}

// DeleteSpace removes a space row.
func (s *PostgresStore) DeleteSpace(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}
	return requireRowAffected(result, "space", id)
}

// SetSpaceSyncStatus records a propagation state transition.
func (s *PostgresStore) SetSpaceSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE spaces SET sync_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set space sync status: %w", err)
	}
	return requireRowAffected(result, "space", id)
}

func (s *PostgresStore) querySpaces(ctx context.Context, query string, args ...interface{}) ([]*Space, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*Space
	for rows.Next() {
		space, err := scanSpaceRow(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	return spaces, rows.Err()
}

func (s *PostgresStore) scanSpace(row *sql.Row, key string) (*Space, error) {
	space := &Space{}
	var capabilities []string
	err := row.Scan(&space.ID, &space.OrganizationID, &space.Name, &space.Confidentiality,
		pq.Array(&capabilities), pq.Array(&space.Owners), &space.SyncStatus,
		&space.CreatedAt, &space.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "space", Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	space.Capabilities = toCapabilities(capabilities)
	return space, nil
}

func scanSpaceRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*Space, error) {
	space := &Space{}
	var capabilities []string
	err := scanner.Scan(&space.ID, &space.OrganizationID, &space.Name, &space.Confidentiality,
		pq.Array(&capabilities), pq.Array(&space.Owners), &space.SyncStatus,
		&space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan space: %w", err)
	}
	space.Capabilities = toCapabilities(capabilities)
	return space, nil
}

func capabilityStrings(capabilities []Capability) []string {
	out := make([]string, len(capabilities))
	for i, c := range capabilities {
		out[i] = string(c)
	}
	return out
}

func toCapabilities(raw []string) []Capability {
	if raw == nil {
		return nil
	}
	out := make([]Capability, len(raw))
	for i, c := range raw {
		out[i] = Capability(c)
	}
	return out
}
