package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrSlackDisabled is returned when no webhook is configured.
var ErrSlackDisabled = errors.New("slack webhook URL is not configured")

type SlackPayload struct {
	Text string `json:"text"`
}

// SlackNotifier posts pipeline alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ReportError posts an error message to the alerts channel.
func (n *SlackNotifier) ReportError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if n == nil || n.webhookURL == "" {
		return ErrSlackDisabled
	}

	message := fmt.Sprintf(
		":rotating_light: *Citation Pipeline Error*\n"+
			"*Time:* %s\n"+
			"*Error:* ```%s```",
		time.Now().UTC().Format(time.RFC3339),
		err.Error(),
	)

	body, err := json.Marshal(SlackPayload{Text: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// ReportStoryFailure reports a failed story pipeline with context.
func (n *SlackNotifier) ReportStoryFailure(ctx context.Context, pipeline, storyID, storyTitle, reason string, err error) error {
	if err == nil {
		return nil
	}

	if storyTitle == "" {
		storyTitle = "unknown"
	}
	if pipeline == "" {
		pipeline = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}

	reportErr := fmt.Errorf(
		"pipeline failed: pipeline=%s reason=%s story_id=%s story_title=%s error=%v",
		pipeline,
		reason,
		storyID,
		storyTitle,
		err,
	)
	return n.ReportError(ctx, reportErr)
}
