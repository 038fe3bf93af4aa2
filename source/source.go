package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/net/html"

	"github.com/Crowley723/mattermost-update-notifier/retry"
	"github.com/Crowley723/mattermost-update-notifier/version"
)

var (
	// ErrSourceUnavailable means the release page could not be fetched.
	ErrSourceUnavailable = errors.New("version source unavailable")
	// ErrParseFailure means the page was fetched but held no usable release link.
	ErrParseFailure = errors.New("version source parse failure")
)

const maxPageSize = 8 << 20

// releasePattern matches linux-amd64 release archives. Both version groups must agree.
var releasePattern = regexp.MustCompile(`https://releases\.mattermost\.com/(\d+(?:\.\d+)+)/mattermost-(?:team-)?(\d+(?:\.\d+)+)-linux-amd64\.tar\.gz`)

type Release struct {
	DownloadURL string
	Version     version.Version
}

// VersionSource fetches the latest published release.
type VersionSource interface {
	FetchLatest(ctx context.Context) (Release, error)
}

// ReleasePage scrapes a release listing for download links.
type ReleasePage struct {
	url       string
	userAgent string
	client    *http.Client
	policy    retry.Policy
	logger    *slog.Logger
}

func NewReleasePage(url, userAgent string, client *http.Client, policy retry.Policy, logger *slog.Logger) *ReleasePage {
	return &ReleasePage{
		url:       url,
		userAgent: userAgent,
		client:    client,
		policy:    policy,
		logger:    logger,
	}
}

func (p *ReleasePage) FetchLatest(ctx context.Context) (Release, error) {
	var page []byte

	err := p.policy.Do(ctx, func(ctx context.Context) error {
		body, err := p.fetch(ctx)
		if err != nil {
			return err
		}
		page = body
		return nil
	}, func(attempt int, err error, next time.Duration) {
		p.logger.Warn("release page fetch failed, retrying",
			"url", p.url,
			"attempt", attempt,
			"retry_in", next,
			"error", err)
	})
	if err != nil {
		return Release{}, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, p.url, err)
	}

	return ParseReleasePage(bytes.NewReader(page))
}

func (p *ReleasePage) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := retry.CheckStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
}

type confidence int

const (
	confidenceText confidence = iota
	confidenceLink
)

// ParseReleasePage returns the best release link found in an HTML page. Links
// found in href attributes win over URLs that only appear as text; within the
// same kind the highest version wins.
func ParseReleasePage(r io.Reader) (Release, error) {
	var (
		best      Release
		bestLevel confidence
		found     bool
	)

	consider := func(s string, level confidence) {
		for _, m := range releasePattern.FindAllStringSubmatch(s, -1) {
			if m[1] != m[2] {
				continue
			}
			v, err := version.Parse(m[1])
			if err != nil {
				continue
			}
			if !found || level > bestLevel || (level == bestLevel && v.GreaterThan(best.Version)) {
				best = Release{DownloadURL: m[0], Version: v}
				bestLevel = level
				found = true
			}
		}
	}

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return Release{}, fmt.Errorf("%w: %w", ErrParseFailure, z.Err())
			}
			if !found {
				return Release{}, fmt.Errorf("%w: no linux-amd64 release link found", ErrParseFailure)
			}
			return best, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			for _, attr := range z.Token().Attr {
				if attr.Key == "href" {
					consider(attr.Val, confidenceLink)
				}
			}
		case html.TextToken:
			consider(string(z.Text()), confidenceText)
		}
	}
}
