package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

func (r *sqliteAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusPending
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO alerts (id, org_id, champion_id, event_id, channel, status, error, created_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.OrgID, alert.ChampionID, nullString(alert.EventID),
		string(alert.Channel), string(alert.Status), nullString(alert.Error),
		alert.CreatedAt, nullTime(alert.SentAt),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `
		SELECT id, org_id, champion_id, event_id, channel, status, error, created_at, sent_at
		FROM alerts WHERE id = ?
	`
	return r.scanAlert(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteAlertRepo) ListPending(ctx context.Context, limit int) ([]*models.Alert, error) {
	return r.ListByStatus(ctx, models.AlertStatusPending, limit)
}

func (r *sqliteAlertRepo) ListByStatus(ctx context.Context, status models.AlertStatus, limit int) ([]*models.Alert, error) {
	query := `
		SELECT id, org_id, champion_id, event_id, channel, status, error, created_at, sent_at
		FROM alerts
		WHERE status = ?
		ORDER BY created_at
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := r.scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// MarkSent is a conditional transition: the status filter guards against a
// concurrent run having already handled the alert.
func (r *sqliteAlertRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET status = ?, sent_at = ? WHERE id = ? AND status = ?",
		string(models.AlertStatusSent), sentAt, id, string(models.AlertStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteAlertRepo) MarkError(ctx context.Context, id string, msg string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET status = ?, error = ? WHERE id = ? AND status = ?",
		string(models.AlertStatusError), msg, id, string(models.AlertStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark alert error: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteAlertRepo) Requeue(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET status = ?, error = NULL WHERE id = ? AND status = ?",
		string(models.AlertStatusPending), id, string(models.AlertStatusError),
	)
	if err != nil {
		return false, fmt.Errorf("requeue alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteAlertRepo) scanAlert(row *sql.Row) (*models.Alert, error) {
	alert := &models.Alert{}
	var eventID, errMsg sql.NullString
	var channel, status string
	var sentAt sql.NullTime

	err := row.Scan(&alert.ID, &alert.OrgID, &alert.ChampionID, &eventID,
		&channel, &status, &errMsg, &alert.CreatedAt, &sentAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	alert.EventID = eventID.String
	alert.Channel = models.AlertChannel(channel)
	alert.Status = models.AlertStatus(status)
	alert.Error = errMsg.String
	alert.SentAt = sentAt.Time
	return alert, nil
}

func (r *sqliteAlertRepo) scanAlertRow(rows *sql.Rows) (*models.Alert, error) {
	alert := &models.Alert{}
	var eventID, errMsg sql.NullString
	var channel, status string
	var sentAt sql.NullTime

	err := rows.Scan(&alert.ID, &alert.OrgID, &alert.ChampionID, &eventID,
		&channel, &status, &errMsg, &alert.CreatedAt, &sentAt)
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	alert.EventID = eventID.String
	alert.Channel = models.AlertChannel(channel)
	alert.Status = models.AlertStatus(status)
	alert.Error = errMsg.String
	alert.SentAt = sentAt.Time
	return alert, nil
}
