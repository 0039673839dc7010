package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akarpov/hr-breaker/internal/htmltext"
)

const (
	defaultUserAgent    = "hr-breaker/1.0"
	defaultFetchTimeout = 30 * time.Second
	maxFetchBody        = 2 << 20
)

// ErrBlocked indicates the posting URL sits behind bot protection and its
// text must be pasted manually instead.
var ErrBlocked = errors.New("job url is blocked by bot protection")

// Fetcher downloads a job posting page and reduces it to text.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher. An empty userAgent falls back to the default.
func NewFetcher(userAgent string) *Fetcher {
	if userAgent = strings.TrimSpace(userAgent); userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: defaultFetchTimeout},
		userAgent: userAgent,
	}
}

// Fetch downloads the page at url and returns its readable text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if blocked(resp.StatusCode, string(body)) {
		return "", fmt.Errorf("%s: %w", url, ErrBlocked)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	text := htmltext.Extract(string(body))
	if text == "" {
		return "", fmt.Errorf("no readable text at %s", url)
	}
	return text, nil
}

// Challenge pages come back as 403/503 with recognizable markers.
func blocked(status int, body string) bool {
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "cloudflare") ||
		strings.Contains(lower, "cf-chl") ||
		strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "just a moment")
}
