package locator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote resolves http:// and https:// URIs by fetching them. The client is
// bounded by the configured connection timeout so a slow origin fails
// instead of hanging a request.
type Remote struct {
	client *http.Client
}

// NewRemote creates a remote locator with the given connection timeout.
func NewRemote(timeout time.Duration) *Remote {
	return &Remote{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Accept implements Locator.
func (l *Remote) Accept(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// Locate implements Locator.
func (l *Remote) Locate(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", uri, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &NotFoundError{URI: uri}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, uri)
	}
	return resp.Body, nil
}
