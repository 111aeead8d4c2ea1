package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack/internal/models"
)

type sqliteChampionRepo struct {
	db *sql.DB
}

func (r *sqliteChampionRepo) Upsert(ctx context.Context, champion *models.Champion) error {
	if champion.ID == "" {
		champion.ID = uuid.New().String()
	}
	if champion.CreatedAt.IsZero() {
		champion.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO champions (id, org_id, email, full_name, title, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, email) DO UPDATE SET
			full_name = excluded.full_name,
			title = COALESCE(excluded.title, title),
			source = excluded.source
	`
	_, err := r.db.ExecContext(ctx, query,
		champion.ID, champion.OrgID, champion.Email,
		nullString(champion.FullName), nullString(champion.Title), nullString(champion.Source),
		champion.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert champion: %w", err)
	}

	// The conflict path keeps the existing row's ID; read it back so the
	// caller always holds the persisted identity.
	var id string
	err = r.db.QueryRowContext(ctx,
		"SELECT id FROM champions WHERE org_id = ? AND email = ?",
		champion.OrgID, champion.Email,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("resolve champion id: %w", err)
	}
	champion.ID = id
	return nil
}

func (r *sqliteChampionRepo) GetByID(ctx context.Context, id string) (*models.Champion, error) {
	query := `
		SELECT id, org_id, email, full_name, title, source, created_at
		FROM champions WHERE id = ?
	`
	return r.scanChampion(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteChampionRepo) GetByEmail(ctx context.Context, orgID, email string) (*models.Champion, error) {
	query := `
		SELECT id, org_id, email, full_name, title, source, created_at
		FROM champions WHERE org_id = ? AND email = ?
	`
	return r.scanChampion(r.db.QueryRowContext(ctx, query, orgID, email))
}

func (r *sqliteChampionRepo) List(ctx context.Context) ([]*models.Champion, error) {
	query := `
		SELECT id, org_id, email, full_name, title, source, created_at
		FROM champions ORDER BY email
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query champions: %w", err)
	}
	defer rows.Close()

	var champions []*models.Champion
	for rows.Next() {
		champion, err := r.scanChampionRow(rows)
		if err != nil {
			return nil, err
		}
		champions = append(champions, champion)
	}
	return champions, rows.Err()
}

func (r *sqliteChampionRepo) ListByIDs(ctx context.Context, ids []string) (map[string]*models.Champion, error) {
	result := make(map[string]*models.Champion, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT id, org_id, email, full_name, title, source, created_at
		FROM champions WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query champions by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		champion, err := r.scanChampionRow(rows)
		if err != nil {
			return nil, err
		}
		result[champion.ID] = champion
	}
	return result, rows.Err()
}

func (r *sqliteChampionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM champions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count champions: %w", err)
	}
	return count, nil
}

func (r *sqliteChampionRepo) scanChampion(row *sql.Row) (*models.Champion, error) {
	champion := &models.Champion{}
	var fullName, title, source sql.NullString

	err := row.Scan(&champion.ID, &champion.OrgID, &champion.Email,
		&fullName, &title, &source, &champion.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan champion: %w", err)
	}

	champion.FullName = fullName.String
	champion.Title = title.String
	champion.Source = source.String
	return champion, nil
}

func (r *sqliteChampionRepo) scanChampionRow(rows *sql.Rows) (*models.Champion, error) {
	champion := &models.Champion{}
	var fullName, title, source sql.NullString

	err := rows.Scan(&champion.ID, &champion.OrgID, &champion.Email,
		&fullName, &title, &source, &champion.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan champion: %w", err)
	}

	champion.FullName = fullName.String
	champion.Title = title.String
	champion.Source = source.String
	return champion, nil
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
