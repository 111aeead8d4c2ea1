package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

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

func TestUpsertContacts(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(store, nil)
	contacts := []Contact{
		{Email: " Dana@Example.COM ", FullName: "Dana Smith", Title: "CTO", Company: "Globex"},
		{Email: "", FullName: "No Email"}, // skipped
		{Email: "lee@example.com"},        // no employment data, no position
	}

	ingested, err := svc.upsertContacts(ctx, "org-1", contacts)
	if err != nil {
		t.Fatalf("upsert contacts: %v", err)
	}
	if ingested != 2 {
		t.Errorf("ingested = %d, want 2", ingested)
	}

	// Email is normalized before the upsert
	dana, err := store.Champions().GetByEmail(ctx, "org-1", "dana@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if dana == nil {
		t.Fatal("champion should exist under the normalized email")
	}
	if dana.Source != "crm" {
		t.Errorf("source = %v, want crm", dana.Source)
	}

	positions, err := store.Positions().ListByChampion(ctx, dana.ID)
	if err != nil {
		t.Fatalf("list positions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("positions count = %d, want 1", len(positions))
	}
	if !positions[0].IsCurrent || positions[0].Company != "Globex" {
		t.Errorf("position = %+v, want current at Globex", positions[0])
	}

	lee, err := store.Champions().GetByEmail(ctx, "org-1", "lee@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if lee == nil {
		t.Fatal("champion should exist")
	}
	leePositions, err := store.Positions().ListByChampion(ctx, lee.ID)
	if err != nil {
		t.Fatalf("list positions: %v", err)
	}
	if len(leePositions) != 0 {
		t.Errorf("positions count = %d, want 0 without employment data", len(leePositions))
	}
}

func TestImportHubSpot(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.Integrations().Upsert(ctx, &models.Integration{
		OrgID:    "org-1",
		Provider: models.ProviderHubSpot,
		Access:   models.Access{"access_token": "at-1"},
	})
	if err != nil {
		t.Fatalf("upsert integration: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer at-1" {
			t.Errorf("authorization = %v, want Bearer at-1", auth)
		}
		if limit := r.URL.Query().Get("limit"); limit != "5" {
			t.Errorf("limit = %v, want 5", limit)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"properties":{"email":"dana@example.com","firstname":"Dana","lastname":"Smith","jobtitle":"CTO","company":"Globex"}},
			{"properties":{"email":"","firstname":"No","lastname":"Email"}}
		]}`))
	}))
	defer server.Close()

	svc := NewService(store, nil)
	ingested, err := svc.importHubSpotFrom(ctx, "org-1", server.URL, 5)
	if err != nil {
		t.Fatalf("import hubspot: %v", err)
	}
	if ingested != 1 {
		t.Errorf("ingested = %d, want 1", ingested)
	}

	dana, err := store.Champions().GetByEmail(ctx, "org-1", "dana@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if dana == nil {
		t.Fatal("champion should exist")
	}
	if dana.FullName != "Dana Smith" {
		t.Errorf("full name = %v, want Dana Smith", dana.FullName)
	}
}

func TestImportHubSpot_NoToken(t *testing.T) {
	store := setupTestDB(t)

	svc := NewService(store, nil)
	if _, err := svc.ImportHubSpot(context.Background(), "org-1", 10); err == nil {
		t.Fatal("import should fail without a stored access token")
	}
}

func TestIngestHubSpotWebhook(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(store, nil)

	body := []byte(`[
		{"orgId":"org-1","object":{"email":"dana@example.com","firstname":"Dana","lastname":"Smith","jobtitle":"CTO","company":"Globex"}},
		{"org_id":"org-1","email":"lee@example.com","object":{}},
		{"object":{"email":"noorg@example.com"}}
	]`)

	ingested, err := svc.IngestHubSpotWebhook(ctx, body)
	if err != nil {
		t.Fatalf("ingest webhook: %v", err)
	}
	if ingested != 2 {
		t.Errorf("ingested = %d, want 2", ingested)
	}

	// Event without an org is dropped
	noorg, err := store.Champions().GetByEmail(ctx, "org-1", "noorg@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if noorg != nil {
		t.Error("event without an org should be skipped")
	}

	if _, err := svc.IngestHubSpotWebhook(ctx, []byte("not json")); err == nil {
		t.Error("ingest should reject a malformed payload")
	}
}

func TestIngestSalesforceWebhook(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(store, nil)

	body := []byte(`{
		"org_id": "org-1",
		"contacts": [
			{"email":"dana@example.com","firstName":"Dana","lastName":"Smith","title":"CTO","accountName":"Globex"}
		]
	}`)

	ingested, err := svc.IngestSalesforceWebhook(ctx, body)
	if err != nil {
		t.Fatalf("ingest webhook: %v", err)
	}
	if ingested != 1 {
		t.Errorf("ingested = %d, want 1", ingested)
	}

	dana, err := store.Champions().GetByEmail(ctx, "org-1", "dana@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if dana == nil {
		t.Fatal("champion should exist")
	}

	positions, err := store.Positions().ListByChampion(ctx, dana.ID)
	if err != nil {
		t.Fatalf("list positions: %v", err)
	}
	if len(positions) != 1 || positions[0].Company != "Globex" {
		t.Errorf("positions = %+v, want one current at Globex", positions)
	}

	// org_id is mandatory for the Salesforce push shape
	if _, err := svc.IngestSalesforceWebhook(ctx, []byte(`{"contacts":[]}`)); err == nil {
		t.Error("ingest should require org_id")
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Dana", "Smith", "Dana Smith"},
		{"Dana", "", "Dana"},
		{"", "Smith", "Smith"},
		{"", "", ""},
		{" Dana ", " Smith ", "Dana Smith"},
	}
	for _, tt := range tests {
		if got := fullName(tt.first, tt.last); got != tt.want {
			t.Errorf("fullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}
