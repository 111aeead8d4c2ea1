package models

import "time"

// Integration provider names, matching the CRM/mail/chat providers an
// organization can connect.
const (
	ProviderGmail      = "gmail"
	ProviderOutlook    = "outlook"
	ProviderSalesforce = "salesforce"
	ProviderHubSpot    = "hubspot"
	ProviderSlack      = "slack"
)

// Access is the opaque structured blob an integration stores: OAuth tokens
// for CRM/mail providers, a webhook URL for chat providers. Refreshes merge
// into the blob rather than replacing it, so provider-specific extras such
// as instance_url survive token rotation.
type Access map[string]any

// Merge overlays fields onto the blob. Same-named fields are overwritten,
// everything else is kept.
func (a Access) Merge(fields map[string]any) Access {
	out := make(Access, len(a)+len(fields))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (a Access) str(key string) string {
	v, ok := a[key].(string)
	if !ok {
		return ""
	}
	return v
}

// AccessToken returns the stored access token, if any.
func (a Access) AccessToken() string { return a.str("access_token") }

// RefreshToken returns the stored refresh token, if any.
func (a Access) RefreshToken() string { return a.str("refresh_token") }

// WebhookURL returns the stored webhook destination, if any.
func (a Access) WebhookURL() string { return a.str("webhook_url") }

// Integration is one organization/provider connection. Exactly one active
// integration exists per (org, provider) pair.
type Integration struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Provider  string    `json:"provider"`
	Access    Access    `json:"access"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
