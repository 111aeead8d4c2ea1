package dispatch

import (
	"fmt"
	"time"

	"github.com/champtrack/champtrack/internal/models"
)

// RenderMessage builds the notification text for an alert. Rendering is
// deterministic given the champion and event, so a redelivery produces an
// identical message.
func RenderMessage(champion *models.Champion, event *models.Event) (string, error) {
	payload, err := event.CompanyChange()
	if err != nil {
		return "", err
	}

	who := "unknown champion"
	if champion != nil {
		who = champion.DisplayName()
	}

	title := ""
	if payload.Title != "" {
		title = fmt.Sprintf(" (%s)", payload.Title)
	}

	return fmt.Sprintf("\U0001F389 Champion move detected: %s → %s%s\nOccurred: %s",
		who, payload.NewCompany, title, event.OccurredAt.UTC().Format(time.RFC3339)), nil
}
