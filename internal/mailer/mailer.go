// Package mailer sends outbound email through an organization's connected
// mail provider using its stored OAuth access token.
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

// Message is an outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"` // HTML body
}

// Validate checks the message for required fields.
func (m *Message) Validate() error {
	if m.To == "" {
		return fmt.Errorf("to is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if m.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// Mailer sends messages via Gmail or Outlook.
type Mailer struct {
	integrations storage.IntegrationRepository
	httpClient   *http.Client

	// endpoint overrides, for tests
	gmailSendURL   string
	outlookSendURL string
}

// New creates a mailer. Pass nil for a default HTTP client with a 30s
// timeout.
func New(store storage.Storage, httpClient *http.Client) *Mailer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Mailer{
		integrations:   store.Integrations(),
		httpClient:     httpClient,
		gmailSendURL:   gmailSendURL,
		outlookSendURL: outlookSendURL,
	}
}

// accessToken fetches the org's stored access token for a mail provider.
func (m *Mailer) accessToken(ctx context.Context, orgID, provider string) (string, error) {
	integ, err := m.integrations.GetByOrgProvider(ctx, orgID, provider)
	if err != nil {
		return "", fmt.Errorf("lookup %s integration: %w", provider, err)
	}
	if integ == nil || integ.Access.AccessToken() == "" {
		return "", fmt.Errorf("org %s has no %s access token", orgID, provider)
	}
	return integ.Access.AccessToken(), nil
}

// Send dispatches via the named provider.
func (m *Mailer) Send(ctx context.Context, orgID, provider string, msg Message) (string, error) {
	switch provider {
	case models.ProviderGmail:
		return m.SendGmail(ctx, orgID, msg)
	case models.ProviderOutlook:
		return m.SendOutlook(ctx, orgID, msg)
	default:
		return "", fmt.Errorf("unsupported mail provider %q", provider)
	}
}
