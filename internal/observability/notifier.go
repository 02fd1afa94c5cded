package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// Notifier forwards fired reminders to an external channel.
type Notifier interface {
	Notify(ctx context.Context, task models.Task, message string) error
}

// webhookNotifier posts Slack-style block messages to an incoming webhook.
type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a Notifier that posts to the given webhook URL.
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (n *webhookNotifier) Notify(ctx context.Context, task models.Task, message string) error {
	body, err := json.Marshal(buildReminderMessage(task, message))
	if err != nil {
		return fmt.Errorf("marshaling webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildReminderMessage(task models.Task, message string) slackMessage {
	detail := fmt.Sprintf("%s *[%s]* due at %s",
		priorityEmoji(task.Priority),
		strings.ToUpper(string(task.Priority)),
		task.Time,
	)
	return slackMessage{
		Text: message,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: "Task reminder"}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: message}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: detail}},
		},
	}
}

func priorityEmoji(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "\U0001f534"
	case models.PriorityMedium:
		return "\U0001f7e1"
	case models.PriorityLow:
		return "\U0001f7e2"
	default:
		return "❓"
	}
}
