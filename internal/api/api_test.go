package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/champtrack/champtrack/internal/config"
	"github.com/champtrack/champtrack/internal/detector"
	"github.com/champtrack/champtrack/internal/dispatch"
	"github.com/champtrack/champtrack/internal/ingest"
	"github.com/champtrack/champtrack/internal/mailer"
	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/notifier"
	"github.com/champtrack/champtrack/internal/oauth"
	"github.com/champtrack/champtrack/internal/storage"
)

func setupTestServer(t *testing.T) (*Server, storage.Storage) {
	t.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sender := notifier.NewChatSender(notifier.DefaultChatConfig())
	t.Cleanup(func() { sender.Close() })

	cfg := config.APIConfig{
		Address:      ":0",
		JWTSecret:    "test-secret",
		WebhookToken: "hook-token",
	}
	server, err := NewServer(cfg, Deps{
		Storage:    store,
		Detector:   detector.New(store, detector.Options{}),
		Enqueuer:   dispatch.NewEnqueuer(store, nil),
		Dispatcher: dispatch.New(store, sender, dispatch.Options{}),
		Refresher:  oauth.NewRefresher(store, oauth.Registry{}, oauth.Options{}),
		Ingest:     ingest.NewService(store, nil),
		Mailer:     mailer.New(store, nil),
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return server, store
}

func authToken(t *testing.T, server *Server) string {
	t.Helper()
	token, err := server.jwt.GenerateToken("test", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestNewServer_RequiresJWTSecret(t *testing.T) {
	_, err := NewServer(config.APIConfig{Address: ":0"}, Deps{})
	if err == nil {
		t.Fatal("server should require a JWT secret")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["status"] != "healthy" {
		t.Errorf("data = %v, want healthy status", resp.Data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "champtrack_") {
		t.Error("metrics output should contain champtrack metrics")
	}
}

func TestJobsRequireAuth(t *testing.T) {
	server, _ := setupTestServer(t)

	paths := []string{
		"/api/v1/jobs/detect",
		"/api/v1/jobs/enqueue",
		"/api/v1/jobs/dispatch",
		"/api/v1/jobs/refresh",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, rec.Code)
		}
	}

	// A garbage token is also rejected
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/detect", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for invalid token", rec.Code)
	}
}

func TestDetectJobEndpoint(t *testing.T) {
	server, store := setupTestServer(t)
	ctx := context.Background()

	champion := &models.Champion{OrgID: "org-1", Email: "dana@example.com"}
	if err := store.Champions().Upsert(ctx, champion); err != nil {
		t.Fatalf("upsert champion: %v", err)
	}
	for _, company := range []string{"Acme", "Globex"} {
		err := store.Positions().Insert(ctx, &models.Position{
			ChampionID: champion.ID,
			Company:    company,
			IsCurrent:  true,
		})
		if err != nil {
			t.Fatalf("insert position: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/detect", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t, server))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data detector.Report `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Moves != 1 {
		t.Errorf("moves = %d, want 1", resp.Data.Moves)
	}
}

func TestWebhookEndpointRequiresToken(t *testing.T) {
	server, _ := setupTestServer(t)

	body := strings.NewReader(`[]`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/hubspot", body)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without token", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/hubspot?token=wrong", strings.NewReader(`[]`))
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with wrong token", rec.Code)
	}
}

func TestHubSpotWebhookEndpoint(t *testing.T) {
	server, store := setupTestServer(t)

	payload := `[{"orgId":"org-1","object":{"email":"dana@example.com","firstname":"Dana","lastname":"Smith","company":"Globex"}}]`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/hubspot?token=hook-token", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	champion, err := store.Champions().GetByEmail(context.Background(), "org-1", "dana@example.com")
	if err != nil {
		t.Fatalf("get champion: %v", err)
	}
	if champion == nil {
		t.Fatal("webhook should have created the champion")
	}
}

func TestSalesforceWebhookEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Missing org_id is a client error
	req := httptest.NewRequest(http.MethodPost, "/webhooks/salesforce?token=hook-token",
		strings.NewReader(`{"contacts":[]}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportEndpointValidatesRequest(t *testing.T) {
	server, _ := setupTestServer(t)
	token := authToken(t, server)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "not json", http.StatusBadRequest},
		{"missing org", `{"limit":10}`, http.StatusBadRequest},
		{"no stored token", `{"org_id":"org-1"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/import/hubspot", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSendMailEndpointValidatesRequest(t *testing.T) {
	server, _ := setupTestServer(t)
	token := authToken(t, server)

	// Missing subject fails message validation
	body := `{"org_id":"org-1","to":"a@b.com","body":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send/gmail", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestJWTService_Roundtrip(t *testing.T) {
	svc := NewJWTService([]byte("secret"), time.Hour)

	token, err := svc.GenerateToken("cron", 0)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Subject != "cron" {
		t.Errorf("subject = %v, want cron", claims.Subject)
	}

	// A different secret rejects the token
	other := NewJWTService([]byte("other-secret"), time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}

	// Expired tokens are rejected
	expired, err := svc.GenerateToken("cron", -time.Hour)
	if err != nil {
		t.Fatalf("generate expired token: %v", err)
	}
	if _, err := svc.ValidateToken(expired); err == nil {
		t.Error("expired token should be rejected")
	}
}
