package detector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

func setupTestDB(t *testing.T) storage.Storage {
	t.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addChampion(t *testing.T, store storage.Storage, orgID, email string) string {
	t.Helper()
	champion := &models.Champion{OrgID: orgID, Email: email, FullName: "Dana Smith"}
	if err := store.Champions().Upsert(context.Background(), champion); err != nil {
		t.Fatalf("upsert champion: %v", err)
	}
	return champion.ID
}

func addPosition(t *testing.T, store storage.Storage, championID, company string, current bool) {
	t.Helper()
	err := store.Positions().Insert(context.Background(), &models.Position{
		ChampionID: championID,
		Company:    company,
		IsCurrent:  current,
	})
	if err != nil {
		t.Fatalf("insert position: %v", err)
	}
}

func TestDetector_DetectsMove(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	championID := addChampion(t, store, "org-1", "dana@example.com")
	addPosition(t, store, championID, "Acme", true)
	addPosition(t, store, championID, "Globex", true) // demotes Acme

	d := New(store, Options{})
	report, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("run detector: %v", err)
	}
	if report.Moves != 1 {
		t.Fatalf("moves = %d, want 1", report.Moves)
	}

	events, err := store.Events().ListUnalerted(ctx, models.EventTypeCompanyChange)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events count = %d, want 1", len(events))
	}

	event := events[0]
	if event.OrgID != "org-1" {
		t.Errorf("org = %v, want org-1", event.OrgID)
	}
	if event.ChampionID != championID {
		t.Errorf("champion = %v, want %v", event.ChampionID, championID)
	}

	payload, err := event.CompanyChange()
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.OldCompany != "Acme" {
		t.Errorf("old company = %v, want Acme", payload.OldCompany)
	}
	if payload.NewCompany != "Globex" {
		t.Errorf("new company = %v, want Globex", payload.NewCompany)
	}
}

func TestDetector_SameCompanyIsNotAMove(t *testing.T) {
	store := setupTestDB(t)

	// Title change within the same company
	championID := addChampion(t, store, "org-1", "dana@example.com")
	addPosition(t, store, championID, "Acme", true)
	addPosition(t, store, championID, "Acme", true)

	d := New(store, Options{})
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run detector: %v", err)
	}
	if report.Moves != 0 {
		t.Errorf("moves = %d, want 0", report.Moves)
	}
	if report.Checked == 0 {
		t.Error("position should have been checked")
	}
}

func TestDetector_FirstPositionIsNotAMove(t *testing.T) {
	store := setupTestDB(t)

	championID := addChampion(t, store, "org-1", "dana@example.com")
	addPosition(t, store, championID, "Acme", true)

	d := New(store, Options{})
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run detector: %v", err)
	}
	if report.Moves != 0 {
		t.Errorf("moves = %d, want 0", report.Moves)
	}
}

func TestDetector_RerunDoesNotReemit(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	championID := addChampion(t, store, "org-1", "dana@example.com")
	addPosition(t, store, championID, "Acme", true)
	addPosition(t, store, championID, "Globex", true)

	d := New(store, Options{})
	first, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Moves != 1 {
		t.Fatalf("first run moves = %d, want 1", first.Moves)
	}

	second, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Moves != 0 {
		t.Errorf("second run moves = %d, want 0", second.Moves)
	}

	events, err := store.Events().ListUnalerted(ctx, models.EventTypeCompanyChange)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events count = %d, want 1", len(events))
	}
}

func TestDetector_PositionOutsideWindowIgnored(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	championID := addChampion(t, store, "org-1", "dana@example.com")
	addPosition(t, store, championID, "Acme", true)

	// The move happened 48h ago; a 24h window must not see it.
	err := store.Positions().Insert(ctx, &models.Position{
		ChampionID: championID,
		Company:    "Globex",
		IsCurrent:  true,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("insert position: %v", err)
	}

	d := New(store, Options{Window: 24 * time.Hour})
	report, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("run detector: %v", err)
	}
	if report.Checked != 0 {
		t.Errorf("checked = %d, want 0", report.Checked)
	}
	if report.Moves != 0 {
		t.Errorf("moves = %d, want 0", report.Moves)
	}
}

func TestDetector_MultipleChampions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	mover := addChampion(t, store, "org-1", "mover@example.com")
	addPosition(t, store, mover, "Acme", true)
	addPosition(t, store, mover, "Globex", true)

	stayer := addChampion(t, store, "org-1", "stayer@example.com")
	addPosition(t, store, stayer, "Initech", true)

	d := New(store, Options{})
	report, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("run detector: %v", err)
	}
	if report.Checked != 2 {
		t.Errorf("checked = %d, want 2", report.Checked)
	}
	if report.Moves != 1 {
		t.Errorf("moves = %d, want 1", report.Moves)
	}
}
