package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/champtrack/champtrack/internal/models"
)

const gmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// SendGmail sends via the Gmail API as an RFC 2822 message, base64url
// encoded in the request body. Returns the provider message ID.
func (m *Mailer) SendGmail(ctx context.Context, orgID string, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	token, err := m.accessToken(ctx, orgID, models.ProviderGmail)
	if err != nil {
		return "", err
	}

	raw := strings.Join([]string{
		"To: " + msg.To,
		`Content-Type: text/html; charset="UTF-8"`,
		"Subject: " + msg.Subject,
		"",
		msg.Body,
	}, "\n")

	payload, err := json.Marshal(map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString([]byte(raw)),
	})
	if err != nil {
		return "", fmt.Errorf("marshal gmail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.gmailSendURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gmail send: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode gmail response: %w", err)
	}
	return result.ID, nil
}
