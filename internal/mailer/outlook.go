package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/champtrack/champtrack/internal/models"
)

const outlookSendURL = "https://graph.microsoft.com/v1.0/me/sendMail"

// Microsoft Graph sendMail payload.
type graphSendRequest struct {
	Message graphMessage `json:"message"`
}

type graphMessage struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphAddress `json:"emailAddress"`
}

type graphAddress struct {
	Address string `json:"address"`
}

// SendOutlook sends via the Microsoft Graph sendMail endpoint. Graph
// returns no message body on success, so the returned ID is empty.
func (m *Mailer) SendOutlook(ctx context.Context, orgID string, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	token, err := m.accessToken(ctx, orgID, models.ProviderOutlook)
	if err != nil {
		return "", err
	}

	payload := graphSendRequest{
		Message: graphMessage{
			Subject: msg.Subject,
			Body: graphBody{
				ContentType: "HTML",
				Content:     msg.Body,
			},
			ToRecipients: []graphRecipient{
				{EmailAddress: graphAddress{Address: msg.To}},
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal outlook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.outlookSendURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("outlook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("outlook send: status %d, body: %s", resp.StatusCode, string(body))
	}
	return "", nil
}
