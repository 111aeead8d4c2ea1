package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack/internal/models"
)

type sqlitePositionRepo struct {
	db *sql.DB
}

func (r *sqlitePositionRepo) Insert(ctx context.Context, position *models.Position) error {
	if position.ID == "" {
		position.ID = uuid.New().String()
	}
	if position.CreatedAt.IsZero() {
		position.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert position: %w", err)
	}
	defer tx.Rollback()

	// A champion holds at most one current position. Demote any existing
	// current rows before inserting a new current one, stamping the end
	// date so the detector's predecessor lookup stays well-ordered.
	if position.IsCurrent {
		_, err = tx.ExecContext(ctx, `
			UPDATE champion_positions
			SET is_current = 0, end_date = COALESCE(end_date, ?)
			WHERE champion_id = ? AND is_current = 1
		`, position.CreatedAt, position.ChampionID)
		if err != nil {
			return fmt.Errorf("demote current positions: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO champion_positions (id, champion_id, company, title, start_date, end_date, is_current, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		position.ID, position.ChampionID,
		nullString(position.Company), nullString(position.Title),
		nullTime(position.StartDate), nullTime(position.EndDate),
		boolToInt(position.IsCurrent), position.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}

	return tx.Commit()
}

func (r *sqlitePositionRepo) ListCurrentSince(ctx context.Context, since time.Time) ([]*models.Position, error) {
	query := `
		SELECT id, champion_id, company, title, start_date, end_date, is_current, created_at
		FROM champion_positions
		WHERE is_current = 1 AND created_at >= ?
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query recent positions: %w", err)
	}
	defer rows.Close()
	return r.scanPositions(rows)
}

func (r *sqlitePositionRepo) LatestPrevious(ctx context.Context, championID string) (*models.Position, error) {
	query := `
		SELECT id, champion_id, company, title, start_date, end_date, is_current, created_at
		FROM champion_positions
		WHERE champion_id = ? AND is_current = 0
		ORDER BY end_date DESC
		LIMIT 1
	`
	position, err := r.scanPosition(r.db.QueryRowContext(ctx, query, championID))
	if err != nil {
		return nil, err
	}
	return position, nil
}

func (r *sqlitePositionRepo) ListByChampion(ctx context.Context, championID string) ([]*models.Position, error) {
	query := `
		SELECT id, champion_id, company, title, start_date, end_date, is_current, created_at
		FROM champion_positions
		WHERE champion_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, championID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()
	return r.scanPositions(rows)
}

func (r *sqlitePositionRepo) scanPositions(rows *sql.Rows) ([]*models.Position, error) {
	var positions []*models.Position
	for rows.Next() {
		position := &models.Position{}
		var company, title sql.NullString
		var startDate, endDate sql.NullTime
		var isCurrent int

		err := rows.Scan(&position.ID, &position.ChampionID, &company, &title,
			&startDate, &endDate, &isCurrent, &position.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}

		position.Company = company.String
		position.Title = title.String
		position.StartDate = startDate.Time
		position.EndDate = endDate.Time
		position.IsCurrent = isCurrent != 0
		positions = append(positions, position)
	}
	return positions, rows.Err()
}

func (r *sqlitePositionRepo) scanPosition(row *sql.Row) (*models.Position, error) {
	position := &models.Position{}
	var company, title sql.NullString
	var startDate, endDate sql.NullTime
	var isCurrent int

	err := row.Scan(&position.ID, &position.ChampionID, &company, &title,
		&startDate, &endDate, &isCurrent, &position.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan position: %w", err)
	}

	position.Company = company.String
	position.Title = title.String
	position.StartDate = startDate.Time
	position.EndDate = endDate.Time
	position.IsCurrent = isCurrent != 0
	return position, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
