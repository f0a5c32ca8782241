package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	webhookTimeout = 10 * time.Second
	// Discord rejects content longer than this.
	maxWebhookContent = 2000
)

// Webhook posts a chat message in the Discord webhook format, which Slack
// compatible endpoints also accept for the content field.
type Webhook struct {
	URL      string
	Username string

	client *http.Client
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

func NewWebhook(url, username string) *Webhook {
	return &Webhook{
		URL:      url,
		Username: username,
		client:   &http.Client{Timeout: webhookTimeout},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(ctx context.Context, msg Message) error {
	content := msg.Body
	if msg.Subject != "" {
		content = "**" + msg.Subject + "**\n" + content
	}
	if r := []rune(content); len(r) > maxWebhookContent {
		content = string(r[:maxWebhookContent-3]) + "..."
	}

	body, err := json.Marshal(webhookPayload{Content: content, Username: w.Username})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
