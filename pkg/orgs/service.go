package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const organizationColumns = `id, name, confidentiality, owners, sync_status, created_at, updated_at`

// CreateOrganization inserts a new organization. A unique-name violation maps
// to a ValidationError so callers can surface it as a rejected request.
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *Organization) error {
	query := `
		INSERT INTO organizations (id, name, confidentiality, owners, sync_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		org.ID, org.Name, org.Confidentiality, pq.Array(org.Owners), org.SyncStatus).
		Scan(&org.CreatedAt, &org.UpdatedAt)
	if isUniqueViolation(err) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("organization %q already exists", org.Name)}
	}
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	return s.scanOrganization(s.db.QueryRowContext(ctx, query, id), id)
}

// GetOrganizationByName retrieves an organization by its unique name.
func (s *PostgresStore) GetOrganizationByName(ctx context.Context, name string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE name = $1`
	return s.scanOrganization(s.db.QueryRowContext(ctx, query, name), name)
}

// ListOrganizations lists all organizations ordered by name.
func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY name ASC`
	return s.queryOrganizations(ctx, query)
}

// ListOrganizationsBySyncStatus lists organizations whose last propagation
// run left them in the given state. Used by the resync sweeper.
func (s *PostgresStore) ListOrganizationsBySyncStatus(ctx context.Context, status SyncStatus) ([]*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE sync_status = $1 ORDER BY name ASC`
	return s.queryOrganizations(ctx, query, status)
}

// UpdateOrganization updates the mutable fields of an organization. The name
// is deliberately absent from the SET clause: renames are forbidden.
func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *Organization) error {
	query := `
		UPDATE organizations
		SET confidentiality = $1, owners = $2, sync_status = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		org.Confidentiality, pq.Array(org.Owners), org.SyncStatus, org.ID)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return requireRowAffected(result, "organization", org.ID)
}

// DeleteOrganization removes an organization row. Space rows cascade via the
// schema's foreign key; downstream contexts are the synchronizer's concern.
func (s *PostgresStore) DeleteOrganization(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return requireRowAffected(result, "organization", id)
}

// SetOrganizationSyncStatus records a propagation state transition.
func (s *PostgresStore) SetOrganizationSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET sync_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set organization sync status: %w", err)
	}
	return requireRowAffected(result, "organization", id)
}

func (s *PostgresStore) queryOrganizations(ctx context.Context, query string, args ...interface{}) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*Organization
	for rows.Next() {
		org := &Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Confidentiality,
			pq.Array(&org.Owners), &org.SyncStatus, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (s *PostgresStore) scanOrganization(row *sql.Row, key string) (*Organization, error) {
	org := &Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Confidentiality,
		pq.Array(&org.Owners), &org.SyncStatus, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "organization", Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func requireRowAffected(result sql.Result, resource, key string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return nil
}
