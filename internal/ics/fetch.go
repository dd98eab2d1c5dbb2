package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "coursecal/internal/log"
)

// maxBodySize bounds a downloaded calendar. Course exports are a few
// hundred KiB at most.
const maxBodySize = 32 << 20

// IsURL reports whether input names an http(s) calendar rather than a file.
func IsURL(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetcher downloads published calendars.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client gets a 15 second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch returns the body of the calendar at url. Any non-200 status is an
// error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	appLog.Debug("ics fetch start", "url", redactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", redactURL(url), maxBodySize)
	}

	appLog.Debug("ics fetch success", "url", redactURL(url), "bytes", len(body))
	return body, nil
}

// redactURL hides the path and query of a calendar URL for logging; export
// links usually embed a personal token.
//
//	https://example.edu/export/abcd.ics?token=1 -> https://example.edu/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "ics://...(redacted)"
	}
	host := u[i+3:]
	if j := strings.IndexAny(host, "/?#"); j != -1 {
		host = host[:j]
	}
	return u[:i+3] + host + redactedSuffix
}
