package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack/internal/models"
)

type sqliteEventRepo struct {
	db *sql.DB
}

func (r *sqliteEventRepo) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	query := `
		INSERT INTO events (id, org_id, champion_id, type, payload_json, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, nullString(event.OrgID), event.ChampionID,
		string(event.Type), event.Payload, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *sqliteEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, org_id, champion_id, type, payload_json, occurred_at
		FROM events WHERE id = ?
	`
	return r.scanEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteEventRepo) ListByIDs(ctx context.Context, ids []string) (map[string]*models.Event, error) {
	result := make(map[string]*models.Event, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT id, org_id, champion_id, type, payload_json, occurred_at
		FROM events WHERE id IN (%s)
	`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query events by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		event, err := r.scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		result[event.ID] = event
	}
	return result, rows.Err()
}

func (r *sqliteEventRepo) ListUnalerted(ctx context.Context, eventType models.EventType) ([]*models.Event, error) {
	query := `
		SELECT e.id, e.org_id, e.champion_id, e.type, e.payload_json, e.occurred_at
		FROM events e
		LEFT JOIN alerts a ON a.event_id = e.id
		WHERE e.type = ? AND a.id IS NULL
		ORDER BY e.occurred_at
	`
	rows, err := r.db.QueryContext(ctx, query, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("query unalerted events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := r.scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *sqliteEventRepo) HasCompanyChange(ctx context.Context, championID, newCompany string, since time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM events
		WHERE champion_id = ?
		  AND type = ?
		  AND occurred_at >= ?
		  AND json_extract(payload_json, '$.new_company') = ?
	`
	var count int
	err := r.db.QueryRowContext(ctx, query,
		championID, string(models.EventTypeCompanyChange), since, newCompany,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check existing company change: %w", err)
	}
	return count > 0, nil
}

func (r *sqliteEventRepo) scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	var orgID sql.NullString
	var eventType string

	err := row.Scan(&event.ID, &orgID, &event.ChampionID, &eventType,
		&event.Payload, &event.OccurredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	event.OrgID = orgID.String
	event.Type = models.EventType(eventType)
	return event, nil
}

func (r *sqliteEventRepo) scanEventRow(rows *sql.Rows) (*models.Event, error) {
	event := &models.Event{}
	var orgID sql.NullString
	var eventType string

	err := rows.Scan(&event.ID, &orgID, &event.ChampionID, &eventType,
		&event.Payload, &event.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	event.OrgID = orgID.String
	event.Type = models.EventType(eventType)
	return event, nil
}
