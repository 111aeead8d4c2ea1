package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
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

func storeToken(t *testing.T, store storage.Storage, orgID, provider, token string) {
	t.Helper()
	err := store.Integrations().Upsert(context.Background(), &models.Integration{
		OrgID:    orgID,
		Provider: provider,
		Access:   models.Access{"access_token": token},
	})
	if err != nil {
		t.Fatalf("upsert integration: %v", err)
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"valid", Message{To: "a@b.com", Subject: "hi", Body: "<p>x</p>"}, false},
		{"missing to", Message{Subject: "hi", Body: "x"}, true},
		{"missing subject", Message{To: "a@b.com", Body: "x"}, true},
		{"missing body", Message{To: "a@b.com", Subject: "hi"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMailer_SendGmail(t *testing.T) {
	store := setupTestDB(t)
	storeToken(t, store, "org-1", models.ProviderGmail, "at-gmail")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer at-gmail" {
			t.Errorf("authorization = %v, want Bearer at-gmail", auth)
		}

		var payload struct {
			Raw string `json:"raw"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(payload.Raw)
		if err != nil {
			t.Errorf("decode raw message: %v", err)
		}
		for _, want := range []string{"To: dana@example.com", "Subject: Welcome", "<p>hello</p>"} {
			if !strings.Contains(string(raw), want) {
				t.Errorf("raw message should contain %q", want)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-123"}`))
	}))
	defer server.Close()

	m := New(store, nil)
	m.gmailSendURL = server.URL

	id, err := m.Send(context.Background(), "org-1", models.ProviderGmail, Message{
		To:      "dana@example.com",
		Subject: "Welcome",
		Body:    "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("send gmail: %v", err)
	}
	if id != "msg-123" {
		t.Errorf("message id = %v, want msg-123", id)
	}
}

func TestMailer_SendOutlook(t *testing.T) {
	store := setupTestDB(t)
	storeToken(t, store, "org-1", models.ProviderOutlook, "at-graph")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer at-graph" {
			t.Errorf("authorization = %v, want Bearer at-graph", auth)
		}

		var payload graphSendRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Message.Subject != "Welcome" {
			t.Errorf("subject = %v, want Welcome", payload.Message.Subject)
		}
		if payload.Message.Body.ContentType != "HTML" {
			t.Errorf("content type = %v, want HTML", payload.Message.Body.ContentType)
		}
		if len(payload.Message.ToRecipients) != 1 ||
			payload.Message.ToRecipients[0].EmailAddress.Address != "dana@example.com" {
			t.Errorf("recipients = %+v, want dana@example.com", payload.Message.ToRecipients)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	m := New(store, nil)
	m.outlookSendURL = server.URL

	id, err := m.Send(context.Background(), "org-1", models.ProviderOutlook, Message{
		To:      "dana@example.com",
		Subject: "Welcome",
		Body:    "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("send outlook: %v", err)
	}
	if id != "" {
		t.Errorf("message id = %v, want empty (graph returns no body)", id)
	}
}

func TestMailer_NoToken(t *testing.T) {
	store := setupTestDB(t)

	m := New(store, nil)
	_, err := m.Send(context.Background(), "org-1", models.ProviderGmail, Message{
		To: "a@b.com", Subject: "hi", Body: "x",
	})
	if err == nil {
		t.Fatal("send should fail without a stored access token")
	}
}

func TestMailer_UnsupportedProvider(t *testing.T) {
	store := setupTestDB(t)

	m := New(store, nil)
	_, err := m.Send(context.Background(), "org-1", models.ProviderSlack, Message{
		To: "a@b.com", Subject: "hi", Body: "x",
	})
	if err == nil {
		t.Fatal("send should reject a non-mail provider")
	}
}

func TestMailer_SendGmailHTTPError(t *testing.T) {
	store := setupTestDB(t)
	storeToken(t, store, "org-1", models.ProviderGmail, "at-gmail")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer server.Close()

	m := New(store, nil)
	m.gmailSendURL = server.URL

	_, err := m.SendGmail(context.Background(), "org-1", Message{
		To: "a@b.com", Subject: "hi", Body: "x",
	})
	if err == nil {
		t.Fatal("send should fail on non-2xx status")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %v should mention the status code", err)
	}
}
