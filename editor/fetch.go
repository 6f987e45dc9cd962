package editor

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFetchSize bounds a downloaded remote image.
const maxFetchSize = 32 << 20

// Fetcher downloads a remotely hosted result.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (contentType string, data []byte, err error)
}

// HTTPFetcher fetches over HTTP with Client, or http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) (string, []byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", nil, err
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return ct, data, nil
}
