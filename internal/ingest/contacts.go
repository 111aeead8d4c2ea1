// Package ingest writes CRM contact data into the champion and position
// tables: bulk imports pulled from provider APIs and webhook-pushed changes.
package ingest

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

// Contact is the normalized row shape every import path produces.
type Contact struct {
	Email    string
	FullName string
	Title    string
	Company  string
}

// Service ingests contacts from CRM providers.
type Service struct {
	champions    storage.ChampionRepository
	positions    storage.PositionRepository
	integrations storage.IntegrationRepository
	httpClient   *http.Client
}

// NewService creates an ingest service. Pass nil for a default HTTP client
// with a 30s timeout.
func NewService(store storage.Storage, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		champions:    store.Champions(),
		positions:    store.Positions(),
		integrations: store.Integrations(),
		httpClient:   httpClient,
	}
}

// upsertContacts writes normalized contacts for one organization: upserts
// the champion row and, when the contact carries employment data, records a
// new current position. Per-contact failures are logged and skipped.
func (s *Service) upsertContacts(ctx context.Context, orgID string, contacts []Contact) (int, error) {
	ingested := 0
	for _, contact := range contacts {
		email := strings.ToLower(strings.TrimSpace(contact.Email))
		if email == "" {
			continue
		}

		champion := &models.Champion{
			OrgID:    orgID,
			Email:    email,
			FullName: contact.FullName,
			Title:    contact.Title,
			Source:   "crm",
		}
		if err := s.champions.Upsert(ctx, champion); err != nil {
			log.Printf("ingest: upsert champion %s failed: %v", email, err)
			continue
		}

		if contact.Company != "" || contact.Title != "" {
			position := &models.Position{
				ChampionID: champion.ID,
				Company:    contact.Company,
				Title:      contact.Title,
				IsCurrent:  true,
			}
			if err := s.positions.Insert(ctx, position); err != nil {
				log.Printf("ingest: record position for %s failed: %v", email, err)
				continue
			}
		}
		ingested++
	}
	return ingested, nil
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}
