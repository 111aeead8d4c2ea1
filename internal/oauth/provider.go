// Package oauth refreshes stored OAuth credentials against provider token
// endpoints.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/champtrack/champtrack/internal/models"
)

// Provider token endpoints.
const (
	GoogleTokenURL     = "https://oauth2.googleapis.com/token"
	MicrosoftTokenURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	SalesforceTokenURL = "https://login.salesforce.com/services/oauth2/token"
	HubSpotTokenURL    = "https://api.hubapi.com/oauth/v1/token"

	// microsoftScope is required on Microsoft refresh exchanges.
	microsoftScope = "offline_access https://graph.microsoft.com/.default"
)

// ClientConfig holds one provider's OAuth client credentials.
type ClientConfig struct {
	ClientID     string `env:"CLIENT_ID" yaml:"client_id"`
	ClientSecret string `env:"CLIENT_SECRET" yaml:"client_secret"`
}

// Config holds client credentials for all supported providers.
type Config struct {
	Google             ClientConfig `envPrefix:"GOOGLE_" yaml:"google"`
	Microsoft          ClientConfig `envPrefix:"MICROSOFT_" yaml:"microsoft"`
	Salesforce         ClientConfig `envPrefix:"SALESFORCE_" yaml:"salesforce"`
	HubSpot            ClientConfig `envPrefix:"HUBSPOT_" yaml:"hubspot"`
	HubSpotRedirectURI string       `env:"HUBSPOT_REDIRECT_URI" yaml:"hubspot_redirect_uri"`
}

// Provider exchanges a refresh token for fresh token fields.
type Provider interface {
	// Name returns the integration provider name this refreshes.
	Name() string
	// Refresh exchanges the refresh token and returns the token fields the
	// provider responded with, to be merged into the stored access blob.
	Refresh(ctx context.Context, refreshToken string) (map[string]any, error)
}

// Registry maps integration provider names to refresh implementations.
type Registry map[string]Provider

// NewRegistry builds the provider registry for all four providers. The
// HTTP client is shared; pass nil for a default with a 30s timeout.
func NewRegistry(cfg Config, httpClient *http.Client) Registry {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	registry := Registry{}
	add := func(p Provider) { registry[p.Name()] = p }

	add(NewTokenProvider(models.ProviderGmail, GoogleTokenURL, cfg.Google, nil, httpClient))
	add(NewTokenProvider(models.ProviderOutlook, MicrosoftTokenURL, cfg.Microsoft,
		url.Values{"scope": {microsoftScope}}, httpClient))
	add(NewTokenProvider(models.ProviderSalesforce, SalesforceTokenURL, cfg.Salesforce, nil, httpClient))
	add(NewTokenProvider(models.ProviderHubSpot, HubSpotTokenURL, cfg.HubSpot,
		url.Values{"redirect_uri": {cfg.HubSpotRedirectURI}}, httpClient))

	return registry
}

// tokenProvider performs a standard refresh_token grant against a single
// endpoint, with optional provider-specific extra form fields.
type tokenProvider struct {
	name       string
	endpoint   string
	client     ClientConfig
	extra      url.Values
	httpClient *http.Client
}

// NewTokenProvider creates a refresh provider for one token endpoint.
func NewTokenProvider(name, endpoint string, client ClientConfig, extra url.Values, httpClient *http.Client) Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &tokenProvider{
		name:       name,
		endpoint:   endpoint,
		client:     client,
		extra:      extra,
		httpClient: httpClient,
	}
}

func (p *tokenProvider) Name() string {
	return p.name
}

func (p *tokenProvider) Refresh(ctx context.Context, refreshToken string) (map[string]any, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {p.client.ClientID},
		"client_secret": {p.client.ClientSecret},
	}
	for key, values := range p.extra {
		for _, v := range values {
			form.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s token endpoint: status %d, body: %s", p.name, resp.StatusCode, string(body))
	}

	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode %s token response: %w", p.name, err)
	}
	return fields, nil
}
