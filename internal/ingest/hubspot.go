package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/champtrack/champtrack/internal/models"
)

// hubspotContactsURL is the HubSpot CRM v3 contacts listing endpoint.
const hubspotContactsURL = "https://api.hubapi.com/crm/v3/objects/contacts"

// DefaultImportLimit caps contacts pulled per import request.
const DefaultImportLimit = 200

// hubspotContactsResponse is the shape of the CRM v3 contacts listing.
type hubspotContactsResponse struct {
	Results []struct {
		Properties struct {
			Email     string `json:"email"`
			FirstName string `json:"firstname"`
			LastName  string `json:"lastname"`
			JobTitle  string `json:"jobtitle"`
			Company   string `json:"company"`
		} `json:"properties"`
	} `json:"results"`
}

// ImportHubSpot pulls contacts from the HubSpot CRM API using the org's
// stored access token and ingests them. Returns the number of contacts
// ingested.
func (s *Service) ImportHubSpot(ctx context.Context, orgID string, limit int) (int, error) {
	return s.importHubSpotFrom(ctx, orgID, hubspotContactsURL, limit)
}

// importHubSpotFrom lets tests point the import at a local server.
func (s *Service) importHubSpotFrom(ctx context.Context, orgID, baseURL string, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultImportLimit
	}

	integ, err := s.integrations.GetByOrgProvider(ctx, orgID, models.ProviderHubSpot)
	if err != nil {
		return 0, fmt.Errorf("lookup hubspot integration: %w", err)
	}
	if integ == nil || integ.Access.AccessToken() == "" {
		return 0, fmt.Errorf("org %s has no hubspot access token", orgID)
	}

	url := fmt.Sprintf("%s?limit=%d&properties=email,firstname,lastname,jobtitle,company", baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+integ.Access.AccessToken())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("hubspot contacts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("hubspot contacts: status %d, body: %s", resp.StatusCode, string(body))
	}

	var listing hubspotContactsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return 0, fmt.Errorf("decode hubspot contacts: %w", err)
	}

	contacts := make([]Contact, 0, len(listing.Results))
	for _, result := range listing.Results {
		props := result.Properties
		contacts = append(contacts, Contact{
			Email:    props.Email,
			FullName: fullName(props.FirstName, props.LastName),
			Title:    props.JobTitle,
			Company:  props.Company,
		})
	}

	return s.upsertContacts(ctx, orgID, contacts)
}
