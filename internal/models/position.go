package models

import "time"

// Position represents a champion's employment record at a company over a
// time range. At most one position per champion is current at a time; the
// storage layer enforces this when a new current position is inserted.
type Position struct {
	ID         string    `json:"id"`
	ChampionID string    `json:"champion_id"`
	Company    string    `json:"company"`
	Title      string    `json:"title,omitempty"`
	StartDate  time.Time `json:"start_date,omitempty"`
	EndDate    time.Time `json:"end_date,omitempty"`
	IsCurrent  bool      `json:"is_current"`
	CreatedAt  time.Time `json:"created_at"`
}
