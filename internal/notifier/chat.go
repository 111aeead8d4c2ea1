package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/champtrack/champtrack/internal/metrics"
)

// ChatConfig holds chat webhook sender configuration.
type ChatConfig struct {
	Timeout       time.Duration // per-delivery HTTP timeout (default: 30s)
	RatePerMinute int           // outbound deliveries per minute, 0 disables limiting
}

// DefaultChatConfig returns default chat sender settings.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Timeout: 30 * time.Second,
	}
}

// ChatSender delivers messages to incoming chat webhooks (Slack-compatible)
// as a JSON body {"text": ...}. Delivery is fire-and-forget: only the HTTP
// status is consumed.
type ChatSender struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewChatSender creates a chat webhook sender.
func NewChatSender(config ChatConfig) *ChatSender {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.RatePerMinute)/60.0), config.RatePerMinute)
	}

	return &ChatSender{
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
	}
}

// Name returns "chat".
func (s *ChatSender) Name() string {
	return "chat"
}

// chatMessage is the webhook payload.
type chatMessage struct {
	Text string `json:"text"`
}

// Send posts the message to the webhook URL.
func (s *ChatSender) Send(ctx context.Context, webhookURL, text string) error {
	if err := validateWebhookURL(webhookURL); err != nil {
		return err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	jsonData, err := json.Marshal(chatMessage{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues("transport_error").Inc()
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.DeliveriesTotal.WithLabelValues("http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(body))
	}

	metrics.DeliveriesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Close is a no-op for the chat sender.
func (s *ChatSender) Close() error {
	return nil
}

func validateWebhookURL(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(webhookURL, "https://") && !strings.HasPrefix(webhookURL, "http://") {
		return fmt.Errorf("webhook URL must be http(s)")
	}
	return nil
}
