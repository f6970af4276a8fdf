package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
)

const maxSourceBytes = 512 * 1024 // per fetched source

// SourceFetcher downloads supporting material named by source_urls in
// an analysis request. Only textual content is accepted; HTML is
// reduced to its text.
type SourceFetcher struct {
	client    *retryablehttp.Client
	stripHTML *bluemonday.Policy
}

// NewSourceFetcher creates a fetcher with retrying HTTP transport
func NewSourceFetcher() *SourceFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = log

	return &SourceFetcher{
		client:    client,
		stripHTML: bluemonday.StrictPolicy(),
	}
}

// FetchSources downloads every URL and returns the concatenated text.
// Individual failures are logged and skipped so that one dead link does
// not abort an analysis.
func (f *SourceFetcher) FetchSources(ctx context.Context, urls []string) string {
	var sb strings.Builder
	for _, url := range urls {
		text, err := f.fetchOne(ctx, url)
		if err != nil {
			log.WithField("url", url).Warnf("Skipping source: %v", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func (f *SourceFetcher) fetchOne(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}

	mtype := mimetype.Detect(body)
	switch {
	case mtype.Is("text/html"):
		return strings.TrimSpace(f.stripHTML.Sanitize(string(body))), nil
	case strings.HasPrefix(mtype.String(), "text/"):
		return strings.TrimSpace(string(body)), nil
	default:
		return "", fmt.Errorf("unsupported content type: %s", mtype.String())
	}
}
