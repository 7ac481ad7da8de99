package pagecontext

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxPageBytes = 8 << 20

// FetchedPage is a top-level document response.
type FetchedPage struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// Fetch GETs url. Non-2xx responses are returned, not treated as errors,
// since their headers and body still describe the navigated page.
func Fetch(ctx context.Context, client *http.Client, url string) (*FetchedPage, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}
	return &FetchedPage{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}
