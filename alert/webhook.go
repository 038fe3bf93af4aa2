package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/retry"
)

// ErrDeliveryFailed is returned when the webhook did not accept the notification.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Outcome describes an accepted delivery.
type Outcome struct {
	StatusCode int
}

// Notifier delivers a message to an instance's incoming webhook.
type Notifier interface {
	Send(ctx context.Context, endpoint string, msg Message) (Outcome, error)
}

type payload struct {
	Text     string `json:"text"`
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

// Webhook posts JSON payloads understood by Mattermost incoming webhooks.
type Webhook struct {
	client   *http.Client
	policy   retry.Policy
	logger   *slog.Logger
	username string
	iconURL  string
}

func NewWebhook(client *http.Client, policy retry.Policy, logger *slog.Logger, username, iconURL string) *Webhook {
	return &Webhook{
		client:   client,
		policy:   policy,
		logger:   logger,
		username: username,
		iconURL:  iconURL,
	}
}

func (w *Webhook) Send(ctx context.Context, endpoint string, msg Message) (Outcome, error) {
	body, err := json.Marshal(payload{
		Text:     msg.Text,
		Channel:  msg.Channel,
		Username: w.username,
		IconURL:  w.iconURL,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: failed to encode payload: %w", ErrDeliveryFailed, err)
	}

	var outcome Outcome
	err = w.policy.Do(ctx, func(ctx context.Context) error {
		code, err := w.post(ctx, endpoint, body)
		if err != nil {
			return err
		}
		outcome.StatusCode = code
		return nil
	}, func(attempt int, err error, next time.Duration) {
		w.logger.Warn("webhook delivery failed, retrying",
			"attempt", attempt,
			"retry_in", next,
			"error", err)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	return outcome, nil
}

func (w *Webhook) post(ctx context.Context, endpoint string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	// a 5xx may follow a post that was already accepted, so only 429 is retried
	if err := retry.CheckStatusStrict(resp.StatusCode, http.StatusTooManyRequests); err != nil {
		return resp.StatusCode, err
	}

	return resp.StatusCode, nil
}
