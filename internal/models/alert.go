package models

import "time"

// AlertStatus is the delivery state of an alert. Transitions are
// forward-only: pending -> sent or pending -> error. An error alert is
// retried only by an operator resetting it to pending.
type AlertStatus string

const (
	AlertStatusPending AlertStatus = "pending"
	AlertStatusSent    AlertStatus = "sent"
	AlertStatusError   AlertStatus = "error"
)

// AlertChannel identifies the notification destination kind.
type AlertChannel string

const (
	// AlertChannelSlack delivers via an org-configured Slack webhook.
	AlertChannelSlack AlertChannel = "slack"
)

// Alert is a queued notification derived from an event.
type Alert struct {
	ID         string       `json:"id"`
	OrgID      string       `json:"org_id"`
	ChampionID string       `json:"champion_id"`
	EventID    string       `json:"event_id,omitempty"`
	Channel    AlertChannel `json:"channel"`
	Status     AlertStatus  `json:"status"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	SentAt     time.Time    `json:"sent_at,omitempty"`
}
