package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack/internal/models"
)

type sqliteIntegrationRepo struct {
	db *sql.DB
}

func (r *sqliteIntegrationRepo) Upsert(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	now := time.Now()
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now

	accessJSON, err := json.Marshal(integration.Access)
	if err != nil {
		return fmt.Errorf("marshal access: %w", err)
	}

	query := `
		INSERT INTO integrations (id, org_id, provider, access_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, provider) DO UPDATE SET
			access_json = excluded.access_json,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		integration.ID, integration.OrgID, integration.Provider,
		string(accessJSON), integration.CreatedAt, integration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert integration: %w", err)
	}

	var id string
	err = r.db.QueryRowContext(ctx,
		"SELECT id FROM integrations WHERE org_id = ? AND provider = ?",
		integration.OrgID, integration.Provider,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("resolve integration id: %w", err)
	}
	integration.ID = id
	return nil
}

func (r *sqliteIntegrationRepo) GetByOrgProvider(ctx context.Context, orgID, provider string) (*models.Integration, error) {
	query := `
		SELECT id, org_id, provider, access_json, created_at, updated_at
		FROM integrations WHERE org_id = ? AND provider = ?
	`
	return r.scanIntegration(r.db.QueryRowContext(ctx, query, orgID, provider))
}

func (r *sqliteIntegrationRepo) List(ctx context.Context) ([]*models.Integration, error) {
	query := `
		SELECT id, org_id, provider, access_json, created_at, updated_at
		FROM integrations ORDER BY org_id, provider
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query integrations: %w", err)
	}
	defer rows.Close()
	return r.scanIntegrations(rows)
}

func (r *sqliteIntegrationRepo) ListByOrgsAndProvider(ctx context.Context, orgIDs []string, provider string) ([]*models.Integration, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, org_id, provider, access_json, created_at, updated_at
		FROM integrations
		WHERE provider = ? AND org_id IN (%s)
	`, placeholders(len(orgIDs)))

	args := append([]any{provider}, stringArgs(orgIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query integrations by orgs: %w", err)
	}
	defer rows.Close()
	return r.scanIntegrations(rows)
}

func (r *sqliteIntegrationRepo) UpdateAccess(ctx context.Context, id string, access models.Access) error {
	accessJSON, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("marshal access: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE integrations SET access_json = ?, updated_at = ? WHERE id = ?",
		string(accessJSON), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update integration access: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("integration not found: %s", id)
	}
	return nil
}

func (r *sqliteIntegrationRepo) scanIntegrations(rows *sql.Rows) ([]*models.Integration, error) {
	var integrations []*models.Integration
	for rows.Next() {
		integration := &models.Integration{}
		var accessJSON string

		err := rows.Scan(&integration.ID, &integration.OrgID, &integration.Provider,
			&accessJSON, &integration.CreatedAt, &integration.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		if err := json.Unmarshal([]byte(accessJSON), &integration.Access); err != nil {
			return nil, fmt.Errorf("unmarshal access: %w", err)
		}
		integrations = append(integrations, integration)
	}
	return integrations, rows.Err()
}

func (r *sqliteIntegrationRepo) scanIntegration(row *sql.Row) (*models.Integration, error) {
	integration := &models.Integration{}
	var accessJSON string

	err := row.Scan(&integration.ID, &integration.OrgID, &integration.Provider,
		&accessJSON, &integration.CreatedAt, &integration.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan integration: %w", err)
	}
	if err := json.Unmarshal([]byte(accessJSON), &integration.Access); err != nil {
		return nil, fmt.Errorf("unmarshal access: %w", err)
	}
	return integration, nil
}
