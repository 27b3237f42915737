// Package slack posts registry load digests to Slack via incoming
// webhooks: reload outcomes and data quality anomalies such as
// identifiers present in both record sets.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// Digest summarizes one registry load attempt. It carries counts only;
// identifier values stay out of chat history.
type Digest struct {
	Source      string
	Generation  uint64
	Outcome     string // "loaded" or "rejected"
	Err         error  // set when rejected
	Columns     int
	Rules       int
	Playbook    int
	Eligible    int
	Accounts    int
	Collisions  int
	LoadedAtUTC time.Time
}

// Notifier sends registry digests to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a digest to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, d *Digest) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(d))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(d *Digest) map[string]any {
	blocks := []map[string]any{
		headerBlock(d),
		{"type": "divider"},
		fieldsBlock(d),
	}
	if d.Err != nil {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": mrkdwn(fmt.Sprintf("*Error*\n```%v```", d.Err)),
		})
	}
	if d.Collisions > 0 {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": mrkdwn(fmt.Sprintf("\U0001f7e1 *%d identifier(s) present in both record sets.* Eligible set takes precedence; the overlap needs a data fix.", d.Collisions)),
		})
	}
	blocks = append(blocks, contextBlock(d))
	return map[string]any{"blocks": blocks}
}

func headerBlock(d *Digest) map[string]any {
	emoji := "\U0001f7e2" // green circle
	title := "Registry Loaded"
	if d.Outcome != "loaded" {
		emoji = "\U0001f534" // red circle
		title = "Registry Rejected"
	}
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s (%s)", emoji, title, d.Source),
		},
	}
}

func fieldsBlock(d *Digest) map[string]any {
	fields := []map[string]any{
		mrkdwn(fmt.Sprintf("*Generation:* %d", d.Generation)),
		mrkdwn(fmt.Sprintf("*Columns:* %d", d.Columns)),
		mrkdwn(fmt.Sprintf("*Rules:* %d", d.Rules)),
		mrkdwn(fmt.Sprintf("*Playbook:* %d", d.Playbook)),
		mrkdwn(fmt.Sprintf("*Eligible set:* %d", d.Eligible)),
		mrkdwn(fmt.Sprintf("*Evaluation set:* %d", d.Accounts)),
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func contextBlock(d *Digest) map[string]any {
	ts := d.LoadedAtUTC
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			mrkdwn(fmt.Sprintf("assay • registry %s • %s", d.Source, ts.UTC().Format("2006-01-02 15:04 UTC"))),
		},
	}
}

func mrkdwn(text string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": text}
}
