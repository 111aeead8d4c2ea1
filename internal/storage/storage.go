// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"time"

	"github.com/champtrack/champtrack/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Champions() ChampionRepository
	Positions() PositionRepository
	Events() EventRepository
	Alerts() AlertRepository
	Integrations() IntegrationRepository
}

// ChampionRepository defines operations on tracked champions.
type ChampionRepository interface {
	// Upsert inserts a champion or updates name/title for an existing
	// (org_id, email) pair. The champion's ID is populated either way.
	Upsert(ctx context.Context, champion *models.Champion) error
	GetByID(ctx context.Context, id string) (*models.Champion, error)
	GetByEmail(ctx context.Context, orgID, email string) (*models.Champion, error)
	List(ctx context.Context) ([]*models.Champion, error)
	// ListByIDs returns the champions for the given IDs keyed by ID.
	// Unknown IDs are simply absent from the result.
	ListByIDs(ctx context.Context, ids []string) (map[string]*models.Champion, error)
	Count(ctx context.Context) (int64, error)
}

// PositionRepository defines operations on employment positions.
type PositionRepository interface {
	// Insert records a position. Inserting a current position demotes any
	// existing current positions for the champion in the same transaction,
	// stamping their end_date, so at most one current position exists.
	Insert(ctx context.Context, position *models.Position) error
	// ListCurrentSince returns current positions created at or after since.
	ListCurrentSince(ctx context.Context, since time.Time) ([]*models.Position, error)
	// LatestPrevious returns the champion's most recent non-current
	// position ordered by end_date descending, or nil if none exists.
	LatestPrevious(ctx context.Context, championID string) (*models.Position, error)
	ListByChampion(ctx context.Context, championID string) ([]*models.Position, error)
}

// EventRepository defines operations on the append-only event log.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// ListByIDs returns events for the given IDs keyed by ID.
	ListByIDs(ctx context.Context, ids []string) (map[string]*models.Event, error)
	// ListUnalerted returns events of the given type that have no alert
	// referencing them yet.
	ListUnalerted(ctx context.Context, eventType models.EventType) ([]*models.Event, error)
	// HasCompanyChange reports whether a company_change event to the given
	// company already exists for the champion at or after since. Used by
	// the detector so re-running over a static window does not re-emit.
	HasCompanyChange(ctx context.Context, championID, newCompany string, since time.Time) (bool, error)
}

// AlertRepository defines operations on the notification work queue.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	ListPending(ctx context.Context, limit int) ([]*models.Alert, error)
	ListByStatus(ctx context.Context, status models.AlertStatus, limit int) ([]*models.Alert, error)
	// MarkSent transitions a pending alert to sent. Returns false if the
	// alert was not pending (already handled by another run).
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	// MarkError transitions a pending alert to error with a message.
	// Returns false if the alert was not pending.
	MarkError(ctx context.Context, id string, msg string) (bool, error)
	// Requeue resets an error alert back to pending for an operator-driven
	// retry. Returns false if the alert was not in the error state.
	Requeue(ctx context.Context, id string) (bool, error)
}

// IntegrationRepository defines operations on org/provider connections:
// OAuth credentials and chat webhook destinations.
type IntegrationRepository interface {
	// Upsert inserts an integration or replaces the access blob for an
	// existing (org_id, provider) pair. The ID is populated either way.
	Upsert(ctx context.Context, integration *models.Integration) error
	GetByOrgProvider(ctx context.Context, orgID, provider string) (*models.Integration, error)
	List(ctx context.Context) ([]*models.Integration, error)
	ListByOrgsAndProvider(ctx context.Context, orgIDs []string, provider string) ([]*models.Integration, error)
	UpdateAccess(ctx context.Context, id string, access models.Access) error
}
