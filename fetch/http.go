package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetcher downloads content with a plain GET.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes}
}

func (*HTTPFetcher) Name() string { return "http" }

func (h *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("dataset server returned status %d", resp.StatusCode)
	}

	if resp.ContentLength > h.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes announced)", ErrContentTooLarge, resp.ContentLength)
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("reading dataset body: %w", err)
	}
	return data, nil
}
