package ingest

import (
	"context"
	"encoding/json"
	"fmt"
)

// hubspotWebhookEvent is one entry in a HubSpot webhook batch.
type hubspotWebhookEvent struct {
	OrgID    string         `json:"orgId"`
	OrgIDAlt string         `json:"org_id"`
	Email    string         `json:"email"`
	Object   map[string]any `json:"object"`
}

// IngestHubSpotWebhook processes a HubSpot webhook payload: a JSON array of
// contact-change events. Events without an org or email are skipped; rows
// with employment data also record a current position. Returns the number
// of contacts ingested.
func (s *Service) IngestHubSpotWebhook(ctx context.Context, body []byte) (int, error) {
	var events []hubspotWebhookEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return 0, fmt.Errorf("decode hubspot webhook: %w", err)
	}

	ingested := 0
	for _, event := range events {
		orgID := event.OrgID
		if orgID == "" {
			orgID = event.OrgIDAlt
		}
		if orgID == "" {
			continue
		}

		email := event.Email
		if email == "" {
			email = stringField(event.Object, "email")
		}
		if email == "" {
			continue
		}

		contact := Contact{
			Email:    email,
			FullName: fullName(stringField(event.Object, "firstname"), stringField(event.Object, "lastname")),
			Title:    stringField(event.Object, "jobtitle"),
			Company:  stringField(event.Object, "company"),
		}

		n, err := s.upsertContacts(ctx, orgID, []Contact{contact})
		if err != nil {
			return ingested, err
		}
		ingested += n
	}
	return ingested, nil
}

// salesforceWebhookPayload is the push payload from the Salesforce side.
type salesforceWebhookPayload struct {
	OrgID    string `json:"org_id"`
	Contacts []struct {
		Email       string `json:"email"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Title       string `json:"title"`
		AccountName string `json:"accountName"`
	} `json:"contacts"`
}

// IngestSalesforceWebhook processes a Salesforce contact push. Returns the
// number of contacts ingested.
func (s *Service) IngestSalesforceWebhook(ctx context.Context, body []byte) (int, error) {
	var payload salesforceWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode salesforce webhook: %w", err)
	}
	if payload.OrgID == "" {
		return 0, fmt.Errorf("org_id required")
	}

	contacts := make([]Contact, 0, len(payload.Contacts))
	for _, c := range payload.Contacts {
		contacts = append(contacts, Contact{
			Email:    c.Email,
			FullName: fullName(c.FirstName, c.LastName),
			Title:    c.Title,
			Company:  c.AccountName,
		})
	}

	return s.upsertContacts(ctx, payload.OrgID, contacts)
}
