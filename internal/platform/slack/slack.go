// Package slack posts plain-text messages to Slack incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Poster interface {
	Post(ctx context.Context, webhookURL, text string) error
}

// ErrDisabled is returned by the poster built when Slack delivery is switched off.
// Nothing was sent.
var ErrDisabled = errors.New("slack delivery disabled")

type noopPoster struct{}

func (noopPoster) Post(ctx context.Context, webhookURL, text string) error {
	return ErrDisabled
}

type Client struct {
	HTTP *http.Client
}

func New(enabled bool) Poster {
	if !enabled {
		return noopPoster{}
	}
	return &Client{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

type payload struct {
	Text string `json:"text"`
}

func (c *Client) Post(ctx context.Context, webhookURL, text string) error {
	if strings.TrimSpace(webhookURL) == "" {
		return fmt.Errorf("slack webhook url is empty")
	}
	body, err := json.Marshal(payload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
