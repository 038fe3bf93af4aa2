package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/instances"
	"github.com/Crowley723/mattermost-update-notifier/retry"
	"github.com/Crowley723/mattermost-update-notifier/version"
)

var (
	ErrProbeFailed = errors.New("instance probe failed")
	// ErrFieldMissing means the status response had no string Version field.
	ErrFieldMissing = errors.New("version field missing")
)

const (
	versionField    = "Version"
	maxResponseSize = 1 << 20
)

// Probe reads the installed version from an instance's status endpoint.
type Probe struct {
	client *http.Client
	policy retry.Policy
	logger *slog.Logger
}

func NewProbe(client *http.Client, policy retry.Policy, logger *slog.Logger) *Probe {
	return &Probe{
		client: client,
		policy: policy,
		logger: logger,
	}
}

func (p *Probe) FetchInstalled(ctx context.Context, inst instances.Instance) (version.Version, error) {
	var raw string

	err := p.policy.Do(ctx, func(ctx context.Context) error {
		v, err := p.fetch(ctx, inst.API)
		if err != nil {
			return err
		}
		raw = v
		return nil
	}, func(attempt int, err error, next time.Duration) {
		p.logger.Warn("instance probe failed, retrying",
			"instance", inst.Name,
			"attempt", attempt,
			"retry_in", next,
			"error", err)
	})
	if err != nil {
		return version.Version{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, inst.Name, err)
	}

	installed, err := version.Parse(raw)
	if err != nil {
		return version.Version{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, inst.Name, err)
	}
	return installed, nil
}

func (p *Probe) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// only transport failures are retried here
	if err := retry.CheckStatusStrict(resp.StatusCode); err != nil {
		return "", err
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to decode status response: %w", err))
	}

	v, ok := body[versionField].(string)
	if !ok {
		return "", retry.Permanent(fmt.Errorf("%w: %q", ErrFieldMissing, versionField))
	}
	return v, nil
}
