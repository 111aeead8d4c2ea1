// Package models defines the persistent domain types.
package models

import "time"

// Champion represents a tracked individual of interest to an organization.
type Champion struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the champion's full name, falling back to email.
func (c *Champion) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Email
}
