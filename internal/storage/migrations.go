package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Champions table
			CREATE TABLE IF NOT EXISTS champions (
				id TEXT PRIMARY KEY,
				org_id TEXT NOT NULL,
				email TEXT NOT NULL,
				full_name TEXT,
				title TEXT,
				source TEXT,
				created_at DATETIME NOT NULL,
				UNIQUE (org_id, email)
			);

			-- Employment positions table
			CREATE TABLE IF NOT EXISTS champion_positions (
				id TEXT PRIMARY KEY,
				champion_id TEXT NOT NULL,
				company TEXT,
				title TEXT,
				start_date DATETIME,
				end_date DATETIME,
				is_current INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (champion_id) REFERENCES champions(id) ON DELETE CASCADE
			);

			-- Domain event log (append-only)
			CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				org_id TEXT,
				champion_id TEXT NOT NULL,
				type TEXT NOT NULL,
				payload_json TEXT NOT NULL,
				occurred_at DATETIME NOT NULL,
				FOREIGN KEY (champion_id) REFERENCES champions(id) ON DELETE CASCADE
			);

			-- Notification work queue
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				org_id TEXT NOT NULL,
				champion_id TEXT NOT NULL,
				event_id TEXT,
				channel TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				error TEXT,
				created_at DATETIME NOT NULL,
				sent_at DATETIME,
				FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE SET NULL
			);

			-- Org/provider connections: OAuth credentials and chat webhooks
			CREATE TABLE IF NOT EXISTS integrations (
				id TEXT PRIMARY KEY,
				org_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				access_json TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (org_id, provider)
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_champions_org_email ON champions(org_id, email);
			CREATE INDEX IF NOT EXISTS idx_positions_champion ON champion_positions(champion_id);
			CREATE INDEX IF NOT EXISTS idx_positions_current ON champion_positions(is_current, created_at);
			CREATE INDEX IF NOT EXISTS idx_events_champion ON events(champion_id);
			CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
			CREATE INDEX IF NOT EXISTS idx_alerts_event ON alerts(event_id);
			CREATE INDEX IF NOT EXISTS idx_integrations_org ON integrations(org_id, provider);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.Exec(m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
