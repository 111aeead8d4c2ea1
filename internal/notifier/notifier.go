// Package notifier provides outbound notification delivery.
package notifier

import "context"

// Sender delivers a rendered message to a destination webhook. The
// destination varies per organization, so it is an argument rather than
// sender configuration.
type Sender interface {
	// Name returns the sender name (e.g. "chat").
	Name() string
	// Send posts the message text to the destination webhook.
	Send(ctx context.Context, webhookURL, text string) error
	// Close releases any resources.
	Close() error
}
