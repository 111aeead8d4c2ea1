package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/champtrack/champtrack/internal/ingest"
	"github.com/champtrack/champtrack/internal/mailer"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// handleHubSpotWebhook ingests a HubSpot contact-change webhook batch.
func (s *Server) handleHubSpotWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		JSONError(w, http.StatusBadRequest, "read body")
		return
	}

	ingested, err := s.deps.Ingest.IngestHubSpotWebhook(r.Context(), body)
	if err != nil {
		log.Printf("api: hubspot webhook failed: %v", err)
		JSONError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	OK(w, map[string]int{"ingested": ingested})
}

// handleSalesforceWebhook ingests a Salesforce contact push.
func (s *Server) handleSalesforceWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		JSONError(w, http.StatusBadRequest, "read body")
		return
	}

	ingested, err := s.deps.Ingest.IngestSalesforceWebhook(r.Context(), body)
	if err != nil {
		log.Printf("api: salesforce webhook failed: %v", err)
		JSONError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	OK(w, map[string]int{"ingested": ingested})
}

// importRequest is the body for a HubSpot contact import.
type importRequest struct {
	OrgID string `json:"org_id"`
	Limit int    `json:"limit"`
}

// handleImportHubSpot pulls contacts from the HubSpot API for one org.
func (s *Server) handleImportHubSpot(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrgID == "" {
		JSONError(w, http.StatusBadRequest, "org_id is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = ingest.DefaultImportLimit
	}

	imported, err := s.deps.Ingest.ImportHubSpot(r.Context(), req.OrgID, req.Limit)
	if err != nil {
		log.Printf("api: hubspot import failed for org %s: %v", req.OrgID, err)
		JSONError(w, http.StatusBadGateway, "import failed")
		return
	}
	OK(w, map[string]int{"imported": imported})
}

// sendMailRequest is the body for an outbound mail send.
type sendMailRequest struct {
	OrgID   string `json:"org_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// handleSendMail sends an email through the org's connected mail provider.
func (s *Server) handleSendMail(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req sendMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrgID == "" {
		JSONError(w, http.StatusBadRequest, "org_id is required")
		return
	}

	msg := mailer.Message{To: req.To, Subject: req.Subject, Body: req.Body}
	if err := msg.Validate(); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.deps.Mailer.Send(r.Context(), req.OrgID, provider, msg)
	if err != nil {
		log.Printf("api: %s send failed for org %s: %v", provider, req.OrgID, err)
		JSONError(w, http.StatusBadGateway, "send failed")
		return
	}
	OK(w, map[string]string{"message_id": id})
}
