package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies the kind of domain event.
type EventType string

const (
	// EventTypeCompanyChange marks a champion moving between companies.
	EventTypeCompanyChange EventType = "company_change"
)

// Event is an immutable record of an inferred domain event. Payload is a
// JSON-encoded variant keyed by Type.
type Event struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id,omitempty"`
	ChampionID string    `json:"champion_id"`
	Type       EventType `json:"type"`
	Payload    string    `json:"payload"` // JSON-encoded, shape depends on Type
	OccurredAt time.Time `json:"occurred_at"`
}

// CompanyChangePayload is the payload for EventTypeCompanyChange.
type CompanyChangePayload struct {
	OldCompany string `json:"old_company"`
	NewCompany string `json:"new_company"`
	Title      string `json:"title,omitempty"`
}

// SetPayload JSON-encodes the payload into the event.
func (e *Event) SetPayload(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e.Payload = string(data)
	return nil
}

// CompanyChange decodes the payload as a CompanyChangePayload.
// Returns an error if the event is not a company_change event.
func (e *Event) CompanyChange() (*CompanyChangePayload, error) {
	if e.Type != EventTypeCompanyChange {
		return nil, fmt.Errorf("event %s has type %q, not %q", e.ID, e.Type, EventTypeCompanyChange)
	}
	var p CompanyChangePayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return nil, fmt.Errorf("decode payload for event %s: %w", e.ID, err)
	}
	return &p, nil
}
